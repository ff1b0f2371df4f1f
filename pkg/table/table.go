// Package table implements a temporal table: per tracked entity, the full
// history of its attribute values across discrete observation polls,
// compressed into disjoint time windows and queryable at any point in time,
// by primary key or by any number of alternate-key secondary indices.
//
// The table is single-threaded and synchronous. Update is the only mutator
// and is not reentrant; callers must not query while an ingestion is in
// flight. A failure partway through a batch leaves the table structurally
// valid (every invariant of the window lists holds) but logically undefined;
// there is no rollback.
package table

import (
	"fmt"
	"log/slog"

	"github.com/chronotable/chronotable/pkg/attrs"
	"github.com/chronotable/chronotable/pkg/logging"
	"github.com/chronotable/chronotable/pkg/window"
)

// defaultTimeField is the record attribute carrying the observation
// timestamp, stripped from stored attributes during ingestion.
const defaultTimeField = "polledTime"

// Table owns every window of the tracked entities, the primary index over
// them, and the poll bookkeeping.
type Table struct {
	name    string
	keySpec KeySpec

	arena   *window.Arena
	primary *Index
	indices []*Index // secondary indices, observers of the arena

	pollMsec window.Msec   // last ingested poll, window.None before the first
	msecs    []window.Msec // ascending history of ingested poll timestamps

	timeField    string
	defaultAt    window.Msec
	defaultLoose Loose

	logger *slog.Logger
}

// Option configures a Table at construction.
type Option func(*Table)

// WithLogger injects the diagnostic logger. Without it, diagnostics are
// discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		t.logger = logger
	}
}

// WithQueryContext sets the default query time and loose mode used by
// Lookup, Get, Contains and iteration.
func WithQueryContext(at window.Msec, loose Loose) Option {
	return func(t *Table) {
		t.defaultAt = at
		t.defaultLoose = loose
	}
}

// WithTimeField overrides the record attribute carrying the observation
// timestamp.
func WithTimeField(name string) Option {
	return func(t *Table) {
		t.timeField = name
	}
}

// New creates an empty table with the given identity and primary key
// strategy. The default query context is (now, PreferLater) unless
// overridden.
func New(name string, spec KeySpec, opts ...Option) *Table {
	t := &Table{
		name:         name,
		keySpec:      spec,
		arena:        window.NewArena(),
		pollMsec:     window.None,
		timeField:    defaultTimeField,
		defaultAt:    window.Now(),
		defaultLoose: PreferLater,
	}

	t.primary = newIndex(t, spec.Func)

	for _, opt := range opts {
		opt(t)
	}

	t.logger = logging.Default(t.logger).With("table", name)

	return t
}

// Name returns the table identifier.
func (t *Table) Name() string {
	return t.name
}

// PollMsec returns the timestamp of the most recent successfully ingested
// poll, window.None before the first.
func (t *Table) PollMsec() window.Msec {
	return t.pollMsec
}

// History returns the ordered timestamps of every ingested poll.
// The returned slice is the table's own; callers must not modify it.
func (t *Table) History() []window.Msec {
	return t.msecs
}

// MaxMsec returns the latest poll timestamp in the table.
func (t *Table) MaxMsec() window.Msec {
	return t.pollMsec
}

// MinMsec returns the earliest poll timestamp, falling back to the earliest
// window start when no history is loaded.
func (t *Table) MinMsec() window.Msec {
	if len(t.msecs) > 0 {
		return t.msecs[0]
	}

	minMsec := window.None

	for _, list := range t.primary.d {
		first := t.arena.At(list[0]).ValidFrom
		if minMsec.IsNone() || first < minMsec {
			minMsec = first
		}
	}

	return minMsec
}

// SetQueryContext changes the default query time and loose mode.
func (t *Table) SetQueryContext(at window.Msec, loose Loose) {
	t.defaultAt = at
	t.defaultLoose = loose
}

// QueryContext returns the current default query time and loose mode.
func (t *Table) QueryContext() (window.Msec, Loose) {
	return t.defaultAt, t.defaultLoose
}

// Primary returns the primary index.
func (t *Table) Primary() *Index {
	return t.primary
}

// AddIndex attaches a secondary index over the given key function and
// backfills it with every existing window. The alternate key function must
// partition entities identically to the primary one. The index must not
// outlive the table. Windows whose attributes the key function rejects are
// skipped and logged.
func (t *Table) AddIndex(spec KeySpec) *Index {
	ix := newIndex(t, spec.Func)
	t.indices = append(t.indices, ix)

	for _, key := range t.primary.order {
		for _, h := range t.primary.d[key] {
			err := ix.insert(h)
			if err != nil {
				t.logger.Warn("secondary index backfill skipped window", "error", err)
			}
		}
	}

	return ix
}

// Find, Lookup, Get, Contains, Keys, Items and Values on the table delegate
// to the primary index.

// Find returns the attributes of key's window covering at, subject to loose.
func (t *Table) Find(key Key, at window.Msec, loose Loose) (attrs.Attributes, error) {
	return t.primary.Find(key, at, loose)
}

// Lookup is Find at the table's default query context.
func (t *Table) Lookup(key Key) (attrs.Attributes, error) {
	return t.primary.Lookup(key)
}

// Get is Lookup with a default instead of an error.
func (t *Table) Get(key Key, def attrs.Attributes) attrs.Attributes {
	return t.primary.Get(key, def)
}

// Contains reports whether key resolves at the default query context.
func (t *Table) Contains(key Key) bool {
	return t.primary.Contains(key)
}

// Len returns the number of distinct primary keys.
func (t *Table) Len() int {
	return t.primary.Len()
}

// Windows returns the total number of windows in the table.
func (t *Table) Windows() int {
	return t.arena.Len()
}

// String returns a short table summary.
func (t *Table) String() string {
	last := "never"
	if !t.pollMsec.IsNone() {
		last = t.pollMsec.Time().Format("2006-01-02 15:04:05")
	}

	return fmt.Sprintf("Table(%s on %s, last poll %s, %d entries, %d windows)",
		t.keySpec.Label, t.name, last, t.Len(), t.Windows())
}

// addWindow places a new window into the arena, the primary key's list and
// every secondary index.
func (t *Table) addWindow(key Key, w window.Window) window.Handle {
	h := t.arena.Add(w)

	list, ok := t.primary.d[key]
	if !ok {
		t.primary.order = append(t.primary.order, key)
	}

	t.primary.d[key] = append(list, h)

	for _, ix := range t.indices {
		err := ix.insert(h)
		if err != nil {
			t.logger.Warn("secondary index skipped window", "error", err)
		}
	}

	return h
}
