package registry

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sync"

	"github.com/a-h/templ"
)

//go:embed icons
var embeddedIcons embed.FS

// Manifest describes the embedded icon set.
type Manifest struct {
	Version string          `json:"version"`
	Icons   map[string]Icon `json:"icons"`
}

// Icon is a manifest entry.
type Icon struct {
	File    string   `json:"file"`
	Aliases []string `json:"aliases,omitempty"`
}

// EmbeddedManifest returns the embedded icon manifest.
func EmbeddedManifest() (*Manifest, error) {
	return readManifest(embeddedIcons, "icons")
}

func readManifest(fsys fs.FS, dir string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, path.Join(dir, "manifest.json"))
	if err != nil {
		return nil, err
	}

	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("icon manifest: %w", err)
	}
	return &manifest, nil
}

// LoadFS registers every icon listed in dir/manifest.json, and its aliases,
// reading the SVG markup from dir.
func (r *Registry) LoadFS(fsys fs.FS, dir string) error {
	manifest, err := readManifest(fsys, dir)
	if err != nil {
		return err
	}

	for name, icon := range manifest.Icons {
		svg, err := fs.ReadFile(fsys, path.Join(dir, icon.File))
		if err != nil {
			return fmt.Errorf("icon %q: %w", name, err)
		}
		component := templ.Raw(string(svg))
		r.Register(name, component)
		for _, alias := range icon.Aliases {
			r.Register(alias, component)
		}
	}
	return nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of embedded icons.
// It panics if the embedded icon set is broken.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = New()
		if err := defaultRegistry.LoadFS(embeddedIcons, "icons"); err != nil {
			panic(err)
		}
	})
	return defaultRegistry
}
