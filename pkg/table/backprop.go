package table

import "github.com/chronotable/chronotable/pkg/attrs"

// BackPropagate copies the named fields from newer windows into older ones,
// per primary key, walking newest to oldest. For each adjacent (newer,
// older) pair the caller-supplied predicate decides whether the copy is
// allowed; the walk for that key stops at the first refusal.
//
// This is meant for fields introduced after an entity's history began, so
// historical windows can be enriched with values that were not collected at
// the time. It is never invoked by ingestion.
func (t *Table) BackPropagate(fields []string, okToCopy func(newer, older attrs.Attributes) bool) {
	for _, list := range t.primary.d {
		for i := len(list) - 1; i > 0; i-- {
			newer := t.arena.At(list[i]).Attrs
			older := t.arena.At(list[i-1]).Attrs

			if !okToCopy(newer, older) {
				break
			}

			for _, field := range fields {
				if v, ok := newer[field]; ok {
					older[field] = v
				}
			}
		}
	}
}
