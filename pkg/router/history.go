package router

import (
	"strings"
	"sync"
)

// History is the address stack of a navigation session.
//
// Entries are app-relative locations (path, query and hash). Pushing after
// going back discards the forward entries, so Back and Forward replay the
// stack in last-in-first-out order.
type History interface {
	// Base returns the path prefix the application is served under,
	// without trailing slash ("" when served at the root).
	Base() string

	// Location returns the current entry, or "" when history is empty.
	Location() string

	// Push adds loc after the current entry and makes it current.
	Push(loc string)

	// Replace overwrites the current entry.
	Replace(loc string)

	// Peek returns the entry delta steps from the current one.
	Peek(delta int) (string, bool)

	// Go moves delta steps and returns the new current entry.
	Go(delta int) (string, bool)

	// Len returns the number of entries.
	Len() int
}

// MemoryHistory is an in-memory History.
type MemoryHistory struct {
	mu      sync.Mutex
	base    string
	entries []string
	pos     int
}

// NewMemoryHistory creates an empty history served under base.
func NewMemoryHistory(base string) *MemoryHistory {
	return &MemoryHistory{
		base: NormalizeBase(base),
		pos:  -1,
	}
}

// NormalizeBase turns "", "/", "app", "/app/" into "", "", "/app", "/app".
func NormalizeBase(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

// Base implements History.
func (h *MemoryHistory) Base() string {
	return h.base
}

// Location implements History.
func (h *MemoryHistory) Location() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos < 0 {
		return ""
	}
	return h.entries[h.pos]
}

// Push implements History.
func (h *MemoryHistory) Push(loc string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries[:h.pos+1], loc)
	h.pos++
}

// Replace implements History. On an empty history it behaves like Push.
func (h *MemoryHistory) Replace(loc string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos < 0 {
		h.entries = append(h.entries[:0], loc)
		h.pos = 0
		return
	}
	h.entries[h.pos] = loc
}

// Peek implements History.
func (h *MemoryHistory) Peek(delta int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.pos + delta
	if h.pos < 0 || i < 0 || i >= len(h.entries) {
		return "", false
	}
	return h.entries[i], true
}

// Go implements History.
func (h *MemoryHistory) Go(delta int) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	i := h.pos + delta
	if h.pos < 0 || i < 0 || i >= len(h.entries) {
		return "", false
	}
	h.pos = i
	return h.entries[i], true
}

// Len implements History.
func (h *MemoryHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Entries returns a copy of all entries and the current index.
func (h *MemoryHistory) Entries() ([]string, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.entries...), h.pos
}
