package window

import (
	"fmt"
	"sort"
)

// List is one key's windows, as handles into a shared arena, ordered
// ascending by ValidFrom. Lists are pairwise non-overlapping and contain at
// most one open window, which is always last. Ingestion produces windows in
// non-decreasing ValidFrom order per key, so appends keep the order.
type List []Handle

// Search returns the number of windows whose ValidFrom is <= at, i.e. the
// insertion point just past the candidate window for a point-in-time lookup.
func (l List) Search(a *Arena, at Msec) int {
	return sort.Search(len(l), func(i int) bool {
		return a.At(l[i]).ValidFrom > at
	})
}

// Last returns the handle of the most recent window.
// The list must be non-empty.
func (l List) Last() Handle {
	return l[len(l)-1]
}

// Validate checks the list invariants: ascending non-overlapping windows,
// ValidFrom < ValidUntil for each, and no open window except in last
// position. Used by tests and by load-time sanity checking.
func (l List) Validate(a *Arena) error {
	prevUntil := None

	for i, h := range l {
		w := a.At(h)

		if w.ValidFrom >= w.ValidUntil {
			return fmt.Errorf("window %d: validFrom %d >= validUntil %d", i, w.ValidFrom, w.ValidUntil)
		}

		if w.Open() && i != len(l)-1 {
			return fmt.Errorf("window %d: open window is not last of %d", i, len(l))
		}

		if i > 0 && w.ValidFrom < prevUntil {
			return fmt.Errorf("window %d: validFrom %d overlaps previous validUntil %d", i, w.ValidFrom, prevUntil)
		}

		prevUntil = w.ValidUntil
	}

	return nil
}
