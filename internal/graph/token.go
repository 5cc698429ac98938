package graph

import "fmt"

// TokenKind distinguishes a concrete schema dependency from a pending default.
type TokenKind uint8

const (
	Concrete TokenKind = iota
	PendingContent
	PendingMedia
)

// Token is one dependency: a concrete schema, or "whichever schema becomes
// the default for this link category".
type Token struct {
	Kind     TokenKind
	SchemaID string
}

var (
	PendingContentDefault = Token{Kind: PendingContent}
	PendingMediaDefault   = Token{Kind: PendingMedia}
)

// SchemaToken returns the concrete dependency on schema id.
func SchemaToken(id string) Token {
	return Token{Kind: Concrete, SchemaID: id}
}

func (t Token) String() string {
	switch t.Kind {
	case Concrete:
		return t.SchemaID
	case PendingContent:
		return "<default content link>"
	case PendingMedia:
		return "<default media link>"
	default:
		return fmt.Sprintf("<token %d>", t.Kind)
	}
}

// DependencyList is an ordered, duplicate-free list of tokens.
type DependencyList struct {
	tokens []Token
	seen   map[Token]struct{}
}

func NewDependencyList() *DependencyList {
	return &DependencyList{seen: make(map[Token]struct{})}
}

// Add appends t unless it is already present. It reports whether t was added.
func (l *DependencyList) Add(t Token) bool {
	if _, ok := l.seen[t]; ok {
		return false
	}
	l.seen[t] = struct{}{}
	l.tokens = append(l.tokens, t)
	return true
}

// Contains reports whether t is in the list.
func (l *DependencyList) Contains(t Token) bool {
	_, ok := l.seen[t]
	return ok
}

// Tokens returns the tokens in insertion order. The slice must not be modified.
func (l *DependencyList) Tokens() []Token {
	return l.tokens
}

func (l *DependencyList) Len() int {
	return len(l.tokens)
}

// Strings renders the list for logs and reports.
func (l *DependencyList) Strings() []string {
	out := make([]string, len(l.tokens))
	for i, t := range l.tokens {
		out[i] = t.String()
	}
	return out
}
