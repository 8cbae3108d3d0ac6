package assets

import "strings"

// Resolver turns asset names into URLs for the rendered page.
type Resolver interface {
	// Asset resolves an asset name to its URL, e.g.
	// resolver.Asset("finder.css") → "/static/finder.81be04.css".
	Asset(name string) string
}

// manifestResolver wraps a Manifest to implement Resolver.
type manifestResolver struct {
	manifest *Manifest
	prefix   string
}

// NewResolver creates a Resolver from a Manifest with a path prefix.
//
// Names that are already absolute URLs (the Leaflet marker icons served from
// unpkg) are returned unchanged.
//
//	resolver := assets.NewResolver(manifest, "/static/")
//	resolver.Asset("finder.css") // "/static/finder.81be04.css"
func NewResolver(m *Manifest, prefix string) Resolver {
	return &manifestResolver{
		manifest: m,
		prefix:   prefix,
	}
}

func (r *manifestResolver) Asset(name string) string {
	if isAbsoluteURL(name) {
		return name
	}
	return r.prefix + r.manifest.Resolve(name)
}

// passthrough prefixes names without fingerprinting.
type passthrough struct {
	prefix string
}

// NewPassthroughResolver creates a resolver that only applies the prefix.
// Use it when assets are served from a plain directory:
//
//	resolver := assets.NewPassthroughResolver("/static/")
//	resolver.Asset("finder.css") // "/static/finder.css"
func NewPassthroughResolver(prefix string) Resolver {
	return &passthrough{prefix: prefix}
}

func (p *passthrough) Asset(name string) string {
	if isAbsoluteURL(name) {
		return name
	}
	return p.prefix + name
}

func isAbsoluteURL(name string) bool {
	return strings.HasPrefix(name, "https://") || strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "//")
}
