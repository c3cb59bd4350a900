package playlist

import "slices"

// History records the list positions left behind during shuffle traversal,
// most recent last. An index appears at most once.
type History struct {
	indices []int
}

// Push records index if it is not already present.
// Returns false if it was already recorded.
func (h *History) Push(index int) bool {
	if h.Contains(index) {
		return false
	}
	h.indices = append(h.indices, index)
	return true
}

// Contains reports whether index has been recorded.
func (h *History) Contains(index int) bool {
	return slices.Contains(h.indices, index)
}

// Last returns the most recently recorded index.
func (h *History) Last() (int, bool) {
	if len(h.indices) == 0 {
		return 0, false
	}
	return h.indices[len(h.indices)-1], true
}

// RemoveLast removes the most recent occurrence of index.
func (h *History) RemoveLast(index int) bool {
	for i := len(h.indices) - 1; i >= 0; i-- {
		if h.indices[i] == index {
			h.indices = append(h.indices[:i], h.indices[i+1:]...)
			return true
		}
	}
	return false
}

// Clear forgets every recorded index.
func (h *History) Clear() {
	h.indices = h.indices[:0]
}

// Len returns the number of recorded indices.
func (h *History) Len() int {
	return len(h.indices)
}

// Indices returns a copy of the recorded indices, oldest first.
func (h *History) Indices() []int {
	return slices.Clone(h.indices)
}

// remap rewrites every index through fn, dropping those for which fn
// reports false. Used when the underlying list is mutated in place.
func (h *History) remap(fn func(int) (int, bool)) {
	kept := h.indices[:0]
	for _, idx := range h.indices {
		if n, ok := fn(idx); ok {
			kept = append(kept, n)
		}
	}
	h.indices = kept
}

// trim drops the oldest entries until fewer than n remain.
func (h *History) trim(n int) {
	if n <= 0 {
		h.Clear()
		return
	}
	if excess := len(h.indices) - (n - 1); excess > 0 {
		h.indices = append(h.indices[:0], h.indices[excess:]...)
	}
}
