package window

import "github.com/chronotable/chronotable/pkg/attrs"

// Window records that an entity's attributes held constant over
// [ValidFrom, ValidUntil). LastObservedAt is the latest poll at which this
// exact state was confirmed. A window whose ValidUntil is Infinity is open:
// the entity's current state.
type Window struct {
	ValidFrom      Msec
	ValidUntil     Msec
	LastObservedAt Msec
	Attrs          attrs.Attributes
}

// Open reports whether the window has not been closed yet.
func (w *Window) Open() bool {
	return w.ValidUntil == Infinity
}

// Covers reports whether at falls inside [ValidFrom, ValidUntil).
func (w *Window) Covers(at Msec) bool {
	return w.ValidFrom <= at && at < w.ValidUntil
}
