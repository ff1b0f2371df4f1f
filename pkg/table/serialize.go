package table

import (
	"fmt"
	"sort"

	"github.com/chronotable/chronotable/pkg/persist"
	"github.com/chronotable/chronotable/pkg/window"
)

// Dump builds the versioned wire envelope for the full table. Windows are
// grouped under the stringified primary key; the string form is a JSON
// necessity only, loaders re-derive real keys from window attributes.
func (t *Table) Dump() *persist.TableEnvelope {
	env := &persist.TableEnvelope{
		Version:   persist.FormatVersion,
		TableName: t.name,
		PollMsec:  t.pollMsec,
		KeySource: t.keySpec.Label,
		Windows:   make(map[string][]persist.WireWindow, t.Len()),
	}

	for _, key := range t.primary.order {
		list := t.primary.d[key]
		wire := make([]persist.WireWindow, 0, len(list))

		for _, h := range list {
			w := t.arena.At(h)
			wire = append(wire, persist.WireWindow{
				ValidFrom: w.ValidFrom, ValidUntil: w.ValidUntil,
				LastObservedAt: w.LastObservedAt, Attrs: w.Attrs,
			})
		}

		env.Windows[fmt.Sprint(key)] = wire
	}

	return env
}

// Load replaces the table's windows with the envelope's contents. The
// envelope's table name must match (a still-unnamed table adopts it), as
// must the key-extractor label when both sides carry one. Serialized keys
// have lost their type, so every key is re-derived by applying the table's
// own key function to the window attributes. Attached secondary indices are
// rebuilt from the loaded windows.
func (t *Table) Load(env *persist.TableEnvelope) error {
	if env.Version != 1 && env.Version != persist.FormatVersion {
		return fmt.Errorf("version %d: %w", env.Version, ErrVersionUnsupported)
	}

	switch {
	case t.name == "":
		t.name = env.TableName
	case t.name != env.TableName:
		return fmt.Errorf("table %q != %q: %w", env.TableName, t.name, ErrIdentityMismatch)
	}

	if env.KeySource != "" && t.keySpec.Label != "" && env.KeySource != t.keySpec.Label {
		return fmt.Errorf("key source %q != %q: %w", env.KeySource, t.keySpec.Label, ErrIdentityMismatch)
	}

	arena := window.NewArena()
	primary := newIndex(t, t.keySpec.Func)

	// Stringified key order is meaningless but stable; sort for reproducible
	// iteration order after a load.
	names := make([]string, 0, len(env.Windows))
	for name := range env.Windows {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		wire := env.Windows[name]
		if len(wire) == 0 {
			continue
		}

		key, err := t.keySpec.Func(wire[0].Attrs)
		if err != nil {
			return fmt.Errorf("rederive key for %q: %w", name, err)
		}

		err = checkKey(key)
		if err != nil {
			return fmt.Errorf("rederive key for %q: %w", name, err)
		}

		key = normalizeKey(key)

		list := make(window.List, 0, len(wire))
		for _, ww := range wire {
			list = append(list, arena.Add(window.Window{
				ValidFrom: ww.ValidFrom, ValidUntil: ww.ValidUntil,
				LastObservedAt: ww.LastObservedAt, Attrs: ww.Attrs,
			}))
		}

		err = list.Validate(arena)
		if err != nil {
			return fmt.Errorf("windows for %q: %w: %w", name, persist.ErrInvalidEnvelope, err)
		}

		primary.order = append(primary.order, key)
		primary.d[key] = list
	}

	t.arena = arena
	t.primary = primary
	t.pollMsec = env.PollMsec

	// Rebuild every attached secondary index from the rehydrated windows.
	for _, ix := range t.indices {
		ix.d = make(map[Key]window.List)
		ix.order = nil

		for _, key := range primary.order {
			for _, h := range primary.d[key] {
				err := ix.insert(h)
				if err != nil {
					t.logger.Warn("secondary index skipped loaded window", "error", err)
				}
			}
		}
	}

	t.logger.Info("table loaded", "entries", t.Len(), "windows", t.Windows())

	return nil
}

// DumpHistory builds the wire envelope for the poll-timestamp history.
func (t *Table) DumpHistory() *persist.HistoryEnvelope {
	return &persist.HistoryEnvelope{
		Version:   persist.FormatVersion,
		TableName: t.name,
		Msecs:     t.msecs,
	}
}

// LoadHistory replaces the poll-timestamp history from its envelope,
// persisted independently of the table. The table name must match, and a
// table that already has a poll timestamp requires it to equal the last
// loaded entry.
func (t *Table) LoadHistory(env *persist.HistoryEnvelope) error {
	if env.Version != 1 && env.Version != persist.FormatVersion {
		return fmt.Errorf("version %d: %w", env.Version, ErrVersionUnsupported)
	}

	if env.TableName != t.name {
		return fmt.Errorf("table %q != %q: %w", env.TableName, t.name, ErrIdentityMismatch)
	}

	if !t.pollMsec.IsNone() {
		if len(env.Msecs) == 0 || env.Msecs[len(env.Msecs)-1] != t.pollMsec {
			return fmt.Errorf("history does not end at poll %d: %w", t.pollMsec, ErrInconsistentPollTimestamp)
		}
	}

	t.msecs = env.Msecs

	return nil
}
