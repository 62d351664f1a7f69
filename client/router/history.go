package router

// History models the browser location stack. Push truncates any forward
// entries, like pushState does.
type History struct {
	entries []string
	index   int
}

// NewHistory starts at the given location.
func NewHistory(initial string) *History {
	if initial == "" {
		initial = "/"
	}
	return &History{entries: []string{initial}}
}

// Current returns the active location.
func (h *History) Current() string {
	return h.entries[h.index]
}

// Push adds a new entry after the current one.
func (h *History) Push(path string) {
	h.entries = append(h.entries[:h.index+1], path)
	h.index++
}

// Replace overwrites the current entry.
func (h *History) Replace(path string) {
	h.entries[h.index] = path
}

// Back moves one entry back. It reports false at the start of history.
func (h *History) Back() bool {
	if h.index == 0 {
		return false
	}
	h.index--
	return true
}

// Forward moves one entry forward. It reports false at the end of history.
func (h *History) Forward() bool {
	if h.index+1 >= len(h.entries) {
		return false
	}
	h.index++
	return true
}

// Len returns the number of entries.
func (h *History) Len() int {
	return len(h.entries)
}
