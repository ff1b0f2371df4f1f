package table

import (
	"iter"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/window"
)

// Loose selects the matching policy for point-in-time lookups.
type Loose int

// Loose modes.
const (
	// PreferEarlier substitutes the nearest earlier window when the
	// requested time is not inside any window.
	PreferEarlier Loose = -1

	// Exact requires the requested time to fall inside a window.
	Exact Loose = 0

	// PreferLater substitutes the nearest later window when there is no
	// exact match.
	PreferLater Loose = 1
)

// Index groups the table's windows by an extracted key. The table's primary
// index and every secondary index share one structure; a secondary index
// differs only in its key function, which must partition entities the same
// way the primary one does (caller-enforced, not checked).
//
// An index stores window handles, never window copies, so an in-place
// extension performed by ingestion is immediately visible through every
// index without propagation.
type Index struct {
	table   *Table
	extract KeyFunc
	d       map[Key]window.List
	order   []Key // key insertion order, for deterministic iteration
}

func newIndex(t *Table, extract KeyFunc) *Index {
	return &Index{
		table:   t,
		extract: extract,
		d:       make(map[Key]window.List),
	}
}

// insert applies the index's key function to the window's attributes and
// appends the handle to that key's list. Windows arrive in non-decreasing
// ValidFrom order per key, so appending preserves list order.
func (ix *Index) insert(h window.Handle) error {
	w := ix.table.arena.At(h)

	key, err := ix.extract(w.Attrs)
	if err != nil {
		return err
	}

	err = checkKey(key)
	if err != nil {
		return err
	}

	key = normalizeKey(key)

	list, ok := ix.d[key]
	if !ok {
		ix.order = append(ix.order, key)
	}

	ix.d[key] = append(list, h)

	return nil
}

// Find returns the attributes of key's window covering the time at, subject
// to the loose mode. It fails with ErrNotFound for an unknown key and
// ErrNoDataAtTime when no window satisfies the request.
func (ix *Index) Find(key Key, at window.Msec, loose Loose) (attrs.Attributes, error) {
	err := checkKey(key)
	if err != nil {
		return nil, err
	}

	list, ok := ix.d[normalizeKey(key)]
	if !ok {
		return nil, ErrNotFound
	}

	arena := ix.table.arena

	i := list.Search(arena, at)
	if i > 0 {
		w := arena.At(list[i-1])
		if at < w.ValidUntil || loose == PreferEarlier {
			return w.Attrs, nil
		}
	}

	if loose == PreferLater && i < len(list) {
		return arena.At(list[i]).Attrs, nil
	}

	return nil, ErrNoDataAtTime
}

// Lookup is Find at the table's default query context.
func (ix *Index) Lookup(key Key) (attrs.Attributes, error) {
	return ix.Find(key, ix.table.defaultAt, ix.table.defaultLoose)
}

// Get is Lookup with a default instead of an error.
func (ix *Index) Get(key Key, def attrs.Attributes) attrs.Attributes {
	a, err := ix.Lookup(key)
	if err != nil {
		return def
	}

	return a
}

// Contains reports whether the key resolves at the table's default query
// context.
func (ix *Index) Contains(key Key) bool {
	_, err := ix.Lookup(key)

	return err == nil
}

// Len returns the number of distinct keys in the index, regardless of
// whether they resolve at any particular time.
func (ix *Index) Len() int {
	return len(ix.d)
}

// Keys yields every key resolvable at the table's default query context,
// in key insertion order. Keys without a match are skipped.
func (ix *Index) Keys() iter.Seq[Key] {
	return func(yield func(Key) bool) {
		for _, key := range ix.order {
			if _, err := ix.Lookup(key); err != nil {
				continue
			}

			if !yield(key) {
				return
			}
		}
	}
}

// Items yields (key, attributes) for every key resolvable at the table's
// default query context. Keys without a match are skipped, not errors.
func (ix *Index) Items() iter.Seq2[Key, attrs.Attributes] {
	return func(yield func(Key, attrs.Attributes) bool) {
		for _, key := range ix.order {
			a, err := ix.Lookup(key)
			if err != nil {
				continue
			}

			if !yield(key, a) {
				return
			}
		}
	}
}

// Values yields the attributes of every key resolvable at the table's
// default query context.
func (ix *Index) Values() iter.Seq[attrs.Attributes] {
	return func(yield func(attrs.Attributes) bool) {
		for _, a := range ix.Items() {
			if !yield(a) {
				return
			}
		}
	}
}
