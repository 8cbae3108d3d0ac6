package router

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// Link creates an anchor element with client-side navigation.
// When clicked, the shell script intercepts it and asks the server to
// navigate instead of performing a full page reload.
func Link(href string, children ...templ.Component) templ.Component {
	return anchor(href, [][2]string{{"data-link", "true"}}, children)
}

// LinkWithPrefetch creates a link that loads the target's view on hover,
// so that a lazy view is ready before the user clicks.
func LinkWithPrefetch(href string, children ...templ.Component) templ.Component {
	return anchor(href, [][2]string{
		{"data-link", "true"},
		{"data-prefetch", "true"},
	}, children)
}

// ActiveLink creates a link that gets activeClass when the current path
// matches href. The exactMatch parameter controls whether the match must be
// exact or can be a prefix.
func ActiveLink(href, activeClass string, exactMatch bool, children ...templ.Component) templ.Component {
	attrs := [][2]string{
		{"data-link", "true"},
		{"data-active-class", activeClass},
	}
	if exactMatch {
		attrs = append(attrs, [2]string{"data-active-exact", "true"})
	}
	return anchor(href, attrs, children)
}

// NavLink is an ActiveLink with the "active" class and exact matching.
func NavLink(href string, children ...templ.Component) templ.Component {
	return ActiveLink(href, "active", true, children...)
}

func anchor(href string, attrs [][2]string, children []templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<a href="`+templ.EscapeString(href)+`"`); err != nil {
			return err
		}
		for _, a := range attrs {
			if _, err := io.WriteString(w, " "+a[0]+`="`+templ.EscapeString(a[1])+`"`); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, ">"); err != nil {
			return err
		}
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</a>")
		return err
	})
}
