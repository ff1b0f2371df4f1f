package window

// Handle is a stable reference to a window inside an Arena. Handles never
// move or expire: windows are only ever appended, extended in place, or
// closed, never deleted.
type Handle int32

// Arena owns every window of one table. Indices hold handles into the arena
// rather than window copies, so an in-place extension is visible through
// every index without propagation.
type Arena struct {
	windows []Window
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add appends a window and returns its handle.
func (a *Arena) Add(w Window) Handle {
	a.windows = append(a.windows, w)

	return Handle(len(a.windows) - 1)
}

// At returns the window for a handle. The pointer stays valid and observes
// later in-place mutations (arena storage may move as it grows, so the
// pointer must not be retained across Add calls).
func (a *Arena) At(h Handle) *Window {
	return &a.windows[h]
}

// Len returns the number of windows in the arena.
func (a *Arena) Len() int {
	return len(a.windows)
}
