// Package assets fetches the files lazy views are built from and resolves
// public asset URLs.
//
// Lazily loaded views (the about page) keep their templates outside the
// binary, in a directory or an S3 bucket. A build step may fingerprint those
// files and write a manifest.json mapping logical names to stored names:
//
//	{
//	  "about.html": "about.3f2a9c.html",
//	  "finder.css": "finder.81be04.css"
//	}
//
// A Source fetches by stored name; WithManifest wraps a Source so callers can
// keep using logical names:
//
//	manifest, _ := assets.LoadFS(fsys, "manifest.json")
//	src := assets.WithManifest(assets.NewFSSource(fsys), manifest)
//	tmpl, err := src.Fetch(ctx, "about.html")
package assets

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"sync"
)

// Manifest holds the mapping from logical asset names to stored names.
// It is safe for concurrent use.
type Manifest struct {
	entries map[string]string
	mu      sync.RWMutex
}

// NewManifest creates an empty manifest.
func NewManifest() *Manifest {
	return &Manifest{
		entries: make(map[string]string),
	}
}

// Parse decodes a manifest from JSON: {"about.html": "about.3f2a9c.html"}.
func Parse(data []byte) (*Manifest, error) {
	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if entries == nil {
		entries = make(map[string]string)
	}
	return &Manifest{entries: entries}, nil
}

// Load reads a manifest file from disk.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// LoadFS reads a manifest file from fsys.
func LoadFS(fsys fs.FS, name string) (*Manifest, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Resolve returns the stored name for the given logical name.
// If not found, returns the name unchanged.
func (m *Manifest) Resolve(name string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if resolved, ok := m.entries[name]; ok {
		return resolved
	}
	return name
}

// Has returns true if the manifest contains the given name.
func (m *Manifest) Has(name string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, ok := m.entries[name]
	return ok
}

// Set adds or updates an entry.
func (m *Manifest) Set(name, stored string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries[name] = stored
}

// Len returns the number of entries in the manifest.
func (m *Manifest) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// All returns a copy of all manifest entries.
func (m *Manifest) All() map[string]string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.entries))
	for k, v := range m.entries {
		result[k] = v
	}
	return result
}
