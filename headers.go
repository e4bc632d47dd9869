package minihttp

import "strings"

type headerEntry struct {
	name  string
	value string
}

// Headers is an ordered header map. Iteration follows first-insertion
// order, name comparison is case-insensitive, and writing an existing
// name overwrites its value in place (last write wins). The case a name
// was first written with is the case it renders with.
type Headers struct {
	entries []headerEntry
	index   map[string]int
}

func NewHeaders() *Headers {
	return &Headers{index: make(map[string]int)}
}

func (h *Headers) Set(name, value string) {
	key := strings.ToLower(name)
	if i, ok := h.index[key]; ok {
		h.entries[i].value = value
		return
	}

	h.index[key] = len(h.entries)
	h.entries = append(h.entries, headerEntry{name: name, value: value})
}

func (h *Headers) Get(name string) (string, bool) {
	i, ok := h.index[strings.ToLower(name)]
	if !ok {
		return "", false
	}
	return h.entries[i].value, true
}

func (h *Headers) Has(name string) bool {
	_, ok := h.index[strings.ToLower(name)]
	return ok
}

func (h *Headers) Del(name string) {
	key := strings.ToLower(name)
	i, ok := h.index[key]
	if !ok {
		return
	}

	h.entries = append(h.entries[:i], h.entries[i+1:]...)
	delete(h.index, key)
	for k, idx := range h.index {
		if idx > i {
			h.index[k] = idx - 1
		}
	}
}

func (h *Headers) Len() int { return len(h.entries) }

// Each visits entries in insertion order.
func (h *Headers) Each(visit func(name, value string)) {
	for _, e := range h.entries {
		visit(e.name, e.value)
	}
}

func (h *Headers) clone() *Headers {
	clone := &Headers{
		entries: make([]headerEntry, len(h.entries)),
		index:   make(map[string]int, len(h.index)),
	}
	copy(clone.entries, h.entries)
	for k, v := range h.index {
		clone.index[k] = v
	}
	return clone
}
