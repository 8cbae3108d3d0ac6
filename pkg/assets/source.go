package assets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// MaxObjectSize bounds the size of a fetched asset.
const MaxObjectSize = 4 << 20

var (
	// ErrNotFound is returned when the asset does not exist in the source.
	ErrNotFound = errors.New("asset not found")

	// ErrTooLarge is returned when the asset exceeds MaxObjectSize.
	ErrTooLarge = errors.New("asset too large")

	// ErrInvalidName is returned for names that are empty, absolute or
	// escape the source root.
	ErrInvalidName = errors.New("invalid asset name")
)

// Source fetches asset contents by name.
type Source interface {
	Fetch(ctx context.Context, name string) ([]byte, error)
}

// SourceFunc adapts a function to a Source.
type SourceFunc func(ctx context.Context, name string) ([]byte, error)

// Fetch implements Source.
func (f SourceFunc) Fetch(ctx context.Context, name string) ([]byte, error) {
	return f(ctx, name)
}

// cleanName validates a slash-separated asset name.
func cleanName(name string) (string, error) {
	if name == "" || strings.HasPrefix(name, "/") || strings.ContainsRune(name, '\\') {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	cleaned := path.Clean(name)
	if !fs.ValidPath(cleaned) || cleaned == "." {
		return "", fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return cleaned, nil
}

// FSSource reads assets from a file system.
type FSSource struct {
	fsys fs.FS
}

// NewFSSource creates a Source over fsys.
func NewFSSource(fsys fs.FS) *FSSource {
	return &FSSource{fsys: fsys}
}

// NewDirSource creates a Source over a directory on disk.
func NewDirSource(dir string) *FSSource {
	return NewFSSource(os.DirFS(dir))
}

// Fetch implements Source.
func (s *FSSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}

	info, err := fs.Stat(s.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotFound, name)
	}
	if info.Size() > MaxObjectSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, name)
	}

	return fs.ReadFile(s.fsys, name)
}

type manifestSource struct {
	src      Source
	manifest *Manifest
}

// WithManifest returns a Source that maps logical names through m before
// fetching from src.
func WithManifest(src Source, m *Manifest) Source {
	if m == nil {
		return src
	}
	return &manifestSource{src: src, manifest: m}
}

func (s *manifestSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	return s.src.Fetch(ctx, s.manifest.Resolve(name))
}
