package app

import (
	"net/http"

	"github.com/a-h/templ"

	"github.com/vango-dev/facilityfinder/pkg/router"
)

// Page is what a navigation state shows.
type Page struct {
	Body   templ.Component
	Title  string
	Status int
}

// Page maps a navigation state to the page to show: the route's view, the
// not-found view or the error view.
func (v *Views) Page(s router.State) Page {
	switch {
	case s.NotFound():
		return Page{Body: v.NotFound(s.Path), Title: v.Title("Page not found"), Status: http.StatusNotFound}
	case s.Failed():
		return Page{Body: v.Failure(s.FullPath, s.Err), Title: v.Title("Error"), Status: http.StatusInternalServerError}
	}

	body := s.Component()
	if body == nil {
		// Resolved but not loaded; only Resolve results look like this.
		body = v.Placeholder(nil)
	}
	return Page{Body: body, Title: v.Title(s.Route.Title()), Status: http.StatusOK}
}

// Document renders p as a complete HTML document.
func (v *Views) Document(p Page) templ.Component {
	return v.Layout(p.Title, p.Body)
}
