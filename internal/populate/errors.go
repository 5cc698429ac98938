package populate

import (
	"errors"
	"fmt"
	"strings"

	"github.com/agentic-research/seedling/api"
)

var (
	// ErrUnresolvableGraph means the remaining schemas can never become
	// resolvable, usually because of a dependency cycle.
	ErrUnresolvableGraph = errors.New("unresolvable schema dependencies")

	// ErrUnsupportedPurpose means an instance was requested for a schema
	// that is neither Content nor Multimedia.
	ErrUnsupportedPurpose = errors.New("unsupported schema purpose")
)

// UnresolvedError lists the schemas left over when resolution got stuck.
type UnresolvedError struct {
	Remaining []string
	Passes    int
}

func (e *UnresolvedError) Error() string {
	return fmt.Sprintf("%v after %d pass(es): %s", ErrUnresolvableGraph, e.Passes, strings.Join(e.Remaining, ", "))
}

func (e *UnresolvedError) Unwrap() error { return ErrUnresolvableGraph }

type UnsupportedPurposeError struct {
	SchemaID string
	Purpose  api.Purpose
}

func (e *UnsupportedPurposeError) Error() string {
	return fmt.Sprintf("schema %s: %v %q", e.SchemaID, ErrUnsupportedPurpose, e.Purpose)
}

func (e *UnsupportedPurposeError) Unwrap() error { return ErrUnsupportedPurpose }
