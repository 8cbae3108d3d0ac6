package app

import (
	"github.com/a-h/templ"

	"github.com/vango-dev/facilityfinder/pkg/assets"
)

// Leaflet assets. The marker images are not bundled with the stylesheet, so
// the map script needs their URLs explicitly.
const (
	LeafletCSS   = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"
	LeafletJS    = "https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"
	MarkerIcon2x = "https://unpkg.com/leaflet@1.9.4/dist/images/marker-icon-2x.png"
	MarkerIcon   = "https://unpkg.com/leaflet@1.9.4/dist/images/marker-icon.png"
	MarkerShadow = "https://unpkg.com/leaflet@1.9.4/dist/images/marker-shadow.png"
)

const defaultMapZoom = "13"

// MapKind says what a map shows.
type MapKind string

const (
	MapFacility MapKind = "facility"
	MapEvent    MapKind = "event"
	MapSearch   MapKind = "search"
)

// Map is the container the Leaflet script turns into a map.
// The widget itself runs in the browser.
type Map struct {
	Kind MapKind
	// Ref identifies the facility or event, empty for search results.
	Ref  string
	Zoom string
}

// Component renders the map container with the marker icon URLs.
func (m Map) Component(static assets.Resolver) templ.Component {
	zoom := m.Zoom
	if zoom == "" {
		zoom = defaultMapZoom
	}
	id := "map-" + string(m.Kind)
	if m.Ref != "" {
		id += "-" + m.Ref
	}
	attrs := []attr{
		{"id", id},
		{"class", "finder-map"},
		{"data-map", string(m.Kind)},
		{"data-zoom", zoom},
		{"data-marker-icon-retina", static.Asset(MarkerIcon2x)},
		{"data-marker-icon", static.Asset(MarkerIcon)},
		{"data-marker-shadow", static.Asset(MarkerShadow)},
	}
	if m.Ref != "" {
		attrs = append(attrs, attr{"data-ref", m.Ref})
	}
	return el("div", attrs)
}
