package registry

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/a-h/templ"
)

// Registry maps icon names to components.
// Registration happens at startup; lookups are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	icons map[string]templ.Component
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{icons: make(map[string]templ.Component)}
}

// Register adds an icon. It panics if name is empty or already registered,
// since both are programming errors in the static icon set.
func (r *Registry) Register(name string, icon templ.Component) {
	if name == "" {
		panic("registry: empty icon name")
	}
	if icon == nil {
		panic(fmt.Sprintf("registry: nil icon %q", name))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.icons[name]; dup {
		panic(fmt.Sprintf("registry: icon %q registered twice", name))
	}
	r.icons[name] = icon
}

// Lookup returns the icon registered under name.
func (r *Registry) Lookup(name string) (templ.Component, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	icon, ok := r.icons[name]
	return icon, ok
}

// Icon returns the named icon wrapped in an <i class="el-icon"> element.
// Unknown names render an empty element so a missing icon never breaks
// a page.
func (r *Registry) Icon(name string) templ.Component {
	icon, _ := r.Lookup(name)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<i class="el-icon" data-icon="`+templ.EscapeString(name)+`">`); err != nil {
			return err
		}
		if icon != nil {
			if err := icon.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</i>")
		return err
	})
}

// Names returns the registered icon names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.icons))
	for name := range r.icons {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered icons.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.icons)
}
