package app

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"html/template"
	"io"

	"github.com/a-h/templ"

	"github.com/vango-dev/facilityfinder/internal/registry"
	"github.com/vango-dev/facilityfinder/pkg/assets"
	"github.com/vango-dev/facilityfinder/pkg/router"
)

// AboutTemplate is the asset the about view is loaded from.
const AboutTemplate = "about.html"

// DefaultAbout is the stock about template written by "facilityfinder init".
//
//go:embed templates/about.html
var DefaultAbout []byte

// Search radii offered by the finder, in kilometres.
var searchDistances = []string{"1", "5", "10", "20", "50"}

// Languages the finder can filter facilities by.
var searchLanguages = []struct{ value, label string }{
	{"", "Any language"},
	{"chinese", "中文"},
	{"vietnamese", "Tiếng Việt"},
	{"indonesian", "Bahasa Indonesia"},
}

// Views renders the finder's pages.
type Views struct {
	// Name is the site name used in document titles.
	Name string

	// Base is the path prefix the app is served under ("" for the root).
	Base string

	// Icons provides the icon components. Nil uses registry.Default().
	Icons *registry.Registry

	// Source holds lazily loaded view templates.
	Source assets.Source

	// Static resolves static asset URLs. Nil serves names unchanged.
	Static assets.Resolver
}

func (v *Views) icons() *registry.Registry {
	if v.Icons == nil {
		return registry.Default()
	}
	return v.Icons
}

func (v *Views) static() assets.Resolver {
	if v.Static == nil {
		return assets.NewPassthroughResolver("")
	}
	return v.Static
}

func (v *Views) href(path string) string {
	return v.Base + path
}

func (v *Views) icon(name string) templ.Component {
	return v.icons().Icon(name)
}

// Title returns the document title for a page title.
func (v *Views) Title(page string) string {
	if page == "" {
		return v.Name
	}
	if v.Name == "" {
		return page
	}
	return page + " | " + v.Name
}

// Layout wraps a page body in the HTML document with the navigation bar.
func (v *Views) Layout(title string, body templ.Component) templ.Component {
	return group(
		templ.Raw("<!DOCTYPE html>"),
		el("html", []attr{{"lang", "en"}},
			el("head", nil,
				void("meta", attr{"charset", "utf-8"}),
				void("meta", attr{"name", "viewport"}, attr{"content", "width=device-width, initial-scale=1"}),
				el("title", []attr{{"id", "title"}}, text(title)),
				void("link", attr{"rel", "stylesheet"}, attr{"href", v.static().Asset(LeafletCSS)}),
				el("script", []attr{{"src", v.static().Asset(LeafletJS)}, {"defer", ""}}),
				el("script", []attr{{"src", v.href("/static/shell.js")}, {"defer", ""}}),
			),
			el("body", []attr{{"data-base", v.Base}},
				v.Nav(),
				el("main", []attr{{"id", "app"}}, body),
			),
		),
	)
}

// Nav renders the navigation bar.
func (v *Views) Nav() templ.Component {
	item := func(path, icon, label string) templ.Component {
		return router.NavLink(v.href(path), v.icon(icon), text(label))
	}
	return el("nav", class("finder-nav"),
		item("/", "House", "Home"),
		item("/FindFacility_Event", "Search", "Find facilities & events"),
		item("/learnenglish", "Reading", "Learn English"),
		router.LinkWithPrefetch(v.href("/about"), v.icon("InfoFilled"), text("About")),
	)
}

// Home is the landing page.
func (v *Views) Home(router.Props) templ.Component {
	card := func(path, icon, heading, body string) templ.Component {
		return el("article", class("card"),
			router.Link(v.href(path), v.icon(icon), el("h2", nil, text(heading))),
			el("p", nil, text(body)),
		)
	}
	return el("section", class("home"),
		el("h1", nil, text(v.Name)),
		el("p", class("lead"), text("Community facilities and events near you, in your language.")),
		el("div", class("cards"),
			card("/FindFacility_Event", "Location", "Find facilities and events",
				"Search libraries, community centres and events by distance and language."),
			card("/learnenglish", "Reading", "Learn English",
				"Free English classes and conversation groups."),
		),
	)
}

// Finder is the search page. The search itself runs against the data
// service from the browser; the page provides the form and the map.
func (v *Views) Finder(router.Props) templ.Component {
	distances := make([]templ.Component, 0, len(searchDistances))
	for _, d := range searchDistances {
		attrs := []attr{{"value", d}}
		if d == "5" {
			attrs = append(attrs, attr{"selected", ""})
		}
		distances = append(distances, el("option", attrs, text(d+" km")))
	}
	languages := make([]templ.Component, 0, len(searchLanguages))
	for _, l := range searchLanguages {
		languages = append(languages, el("option", []attr{{"value", l.value}}, text(l.label)))
	}

	return el("section", class("finder"),
		el("h1", nil, v.icon("Search"), text("Find facilities and events")),
		el("form", []attr{{"method", "get"}, {"action", v.href("/FindFacility_Event")}, {"data-search", "true"}},
			el("label", nil, text("Keyword"),
				void("input", attr{"type", "search"}, attr{"name", "keyword"}, attr{"placeholder", "library, playgroup, swimming"})),
			el("label", nil, text("Distance"), el("select", []attr{{"name", "distance"}}, distances...)),
			el("label", nil, text("Language"), el("select", []attr{{"name", "language"}}, languages...)),
			void("input", attr{"type", "hidden"}, attr{"name", "latitude"}),
			void("input", attr{"type", "hidden"}, attr{"name", "longitude"}),
			el("button", []attr{{"type", "submit"}}, v.icon("Location"), text("Search near me")),
		),
		Map{Kind: MapSearch}.Component(v.static()),
		el("ul", []attr{{"id", "results"}, {"class", "results"}}),
	)
}

// detailParams are the path parameters of the detail routes.
type detailParams struct {
	ID string `param:"id"`
}

func decodeDetail(props router.Props) (string, error) {
	var p detailParams
	if err := props.Decode(&p); err != nil {
		return "", err
	}
	return p.ID, nil
}

// FacilityDetail shows one facility. props carries the facility id.
func (v *Views) FacilityDetail(props router.Props) templ.Component {
	id, err := decodeDetail(props)
	if err != nil {
		return v.Failure("/facility", err)
	}
	return el("section", []attr{{"class", "detail facility"}, {"data-facility", id}},
		el("h1", nil, v.icon("OfficeBuilding"), text("Facility "+id)),
		el("dl", nil,
			el("dt", nil, v.icon("Location"), text("Address")), el("dd", []attr{{"data-field", "address"}}),
			el("dt", nil, v.icon("Phone"), text("Phone")), el("dd", []attr{{"data-field", "phone"}}),
			el("dt", nil, v.icon("Website"), text("Website")), el("dd", []attr{{"data-field", "website"}}),
			el("dt", nil, v.icon("OpeningHours"), text("Opening hours")), el("dd", []attr{{"data-field", "hours"}}),
		),
		Map{Kind: MapFacility, Ref: id, Zoom: "16"}.Component(v.static()),
		router.Link(v.href("/FindFacility_Event"), text("Back to search")),
	)
}

// EventDetail shows one event. props carries the event id.
func (v *Views) EventDetail(props router.Props) templ.Component {
	id, err := decodeDetail(props)
	if err != nil {
		return v.Failure("/event", err)
	}
	return el("section", []attr{{"class", "detail event"}, {"data-event", id}},
		el("h1", nil, v.icon("Calendar"), text("Event "+id)),
		el("dl", nil,
			el("dt", nil, v.icon("Clock"), text("When")), el("dd", []attr{{"data-field", "when"}}),
			el("dt", nil, v.icon("Location"), text("Where")), el("dd", []attr{{"data-field", "venue"}}),
			el("dt", nil, v.icon("Link"), text("More information")), el("dd", []attr{{"data-field", "url"}}),
		),
		Map{Kind: MapEvent, Ref: id, Zoom: "16"}.Component(v.static()),
		router.Link(v.href("/FindFacility_Event"), text("Back to search")),
	)
}

// LearnEnglish lists ways to learn English.
func (v *Views) LearnEnglish(router.Props) templ.Component {
	resource := func(heading, body string) templ.Component {
		return el("li", nil, el("h2", nil, text(heading)), el("p", nil, text(body)))
	}
	return el("section", class("learn-english"),
		el("h1", nil, v.icon("Reading"), text("Learn English")),
		el("ul", class("resources"),
			resource("Library conversation groups", "Practise speaking with volunteers at your local library."),
			resource("Adult Migrant English Program", "Free classes for eligible migrants and humanitarian entrants."),
			resource("Community college courses", "Evening and weekend courses at every level."),
		),
		router.Link(v.href("/FindFacility_Event?keyword=english"), v.icon("Search"), text("Find classes near you")),
	)
}

// NotFound is shown when no route matches.
func (v *Views) NotFound(path string) templ.Component {
	return el("section", class("not-found"),
		el("h1", nil, text("Page not found")),
		el("p", nil, text("Nothing lives at "), el("code", nil, text(path)), text(".")),
		router.Link(v.href("/"), v.icon("House"), text("Go home")),
	)
}

// Failure is shown when a view failed to load. Retrying navigates again,
// which retries the load.
func (v *Views) Failure(path string, err error) templ.Component {
	return el("section", class("error"),
		el("h1", nil, text("This page could not be loaded")),
		el("p", nil, text(err.Error())),
		router.Link(v.href(path), text("Try again")),
	)
}

// Placeholder is shown while a lazy view loads.
func (v *Views) Placeholder(router.Props) templ.Component {
	return el("section", []attr{{"class", "loading"}, {"aria-busy", "true"}}, text("Loading…"))
}

// aboutPage is the data the about template is executed with.
type aboutPage struct {
	Name      string
	FinderURL string
	LearnURL  string
}

// LoadAbout fetches and parses the about template. It is the about route's
// lazy loader.
func (v *Views) LoadAbout(ctx context.Context) (router.View, error) {
	if v.Source == nil {
		return nil, fmt.Errorf("no asset source for %s", AboutTemplate)
	}
	data, err := v.Source.Fetch(ctx, AboutTemplate)
	if err != nil {
		return nil, err
	}
	tmpl, err := template.New(AboutTemplate).Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", AboutTemplate, err)
	}

	page := aboutPage{
		Name:      v.Name,
		FinderURL: v.href("/FindFacility_Event"),
		LearnURL:  v.href("/learnenglish"),
	}
	return func(router.Props) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			// Execute into a buffer so a failing template writes nothing.
			var buf bytes.Buffer
			if err := tmpl.Execute(&buf, page); err != nil {
				return err
			}
			_, err := buf.WriteTo(w)
			return err
		})
	}, nil
}
