// Package asset supplies the placeholder binary attached to every
// multimedia instance.
package asset

import (
	"errors"
	"fmt"
	"io"

	billy "github.com/go-git/go-billy/v5"
)

// Defaults recorded on the attachment when none are configured.
const (
	DefaultFilename       = "xxxxxxxx.jpg"
	DefaultMultimediaType = "mm:jpeg"
)

// ErrAssetUnresolved means a multimedia instance is needed but no
// placeholder asset is configured.
var ErrAssetUnresolved = errors.New("placeholder asset not configured")

// Asset is a resolved placeholder file.
type Asset struct {
	Path           string
	Filename       string
	MultimediaType string
	Size           int64
	fs             billy.Filesystem
}

// Open returns a reader over the asset content. The caller closes it.
func (a Asset) Open() (io.ReadCloser, error) {
	f, err := a.fs.Open(a.Path)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", a.Path, err)
	}
	return f, nil
}

// Provider resolves the placeholder asset on a billy filesystem.
type Provider struct {
	FS             billy.Filesystem
	Path           string
	Filename       string
	MultimediaType string
}

// NewProvider returns a Provider for path on fs with the default attachment
// name and multimedia type.
func NewProvider(fs billy.Filesystem, path string) *Provider {
	return &Provider{
		FS:             fs,
		Path:           path,
		Filename:       DefaultFilename,
		MultimediaType: DefaultMultimediaType,
	}
}

// Placeholder stats the configured file and returns it as an Asset.
// A nil Provider or empty path yields ErrAssetUnresolved.
func (p *Provider) Placeholder() (Asset, error) {
	if p == nil || p.FS == nil || p.Path == "" {
		return Asset{}, ErrAssetUnresolved
	}
	info, err := p.FS.Stat(p.Path)
	if err != nil {
		return Asset{}, fmt.Errorf("stat asset %s: %w", p.Path, err)
	}
	if info.IsDir() {
		return Asset{}, fmt.Errorf("asset %s is a directory", p.Path)
	}

	a := Asset{
		Path:           p.Path,
		Filename:       p.Filename,
		MultimediaType: p.MultimediaType,
		Size:           info.Size(),
		fs:             p.FS,
	}
	if a.Filename == "" {
		a.Filename = DefaultFilename
	}
	if a.MultimediaType == "" {
		a.MultimediaType = DefaultMultimediaType
	}
	return a, nil
}
