package app

import (
	"context"
	"io"

	"github.com/a-h/templ"
)

// attr is a single HTML attribute. An attribute with an empty value is
// written as a boolean attribute.
type attr struct {
	key, value string
}

// el renders <tag attrs...>children</tag>.
func el(tag string, attrs []attr, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if err := openTag(w, tag, attrs); err != nil {
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
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

// void renders an element without content, such as <input> or <meta>.
func void(tag string, attrs ...attr) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		return openTag(w, tag, attrs)
	})
}

func openTag(w io.Writer, tag string, attrs []attr) error {
	if _, err := io.WriteString(w, "<"+tag); err != nil {
		return err
	}
	for _, a := range attrs {
		s := " " + a.key
		if a.value != "" {
			s += `="` + templ.EscapeString(a.value) + `"`
		}
		if _, err := io.WriteString(w, s); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, ">")
	return err
}

// text renders escaped text.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, templ.EscapeString(s))
		return err
	})
}

// group renders components one after another.
func group(children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		for _, child := range children {
			if child == nil {
				continue
			}
			if err := child.Render(ctx, w); err != nil {
				return err
			}
		}
		return nil
	})
}

func class(name string) []attr {
	return []attr{{"class", name}}
}
