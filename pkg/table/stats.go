package table

import (
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/chronotable/chronotable/pkg/attrs"
)

// topValueLimit caps the most-frequent-values report per attribute.
const topValueLimit = 20

// ValueCount is one (value, occurrences) pair in the top-values report.
type ValueCount struct {
	Value string
	Count int
}

// Stats is a read-only descriptive report over the finalized table:
// how often entities changed, which attributes drove the changes, and the
// most frequent values per attribute. Diagnostic only.
type Stats struct {
	Entities      int
	Windows       int
	WindowCounts  map[int]int    // windows-per-entity histogram
	ChangesByAttr map[string]int // observed value changes per attribute
	TopValues     map[string][]ValueCount
}

// Stats computes the descriptive report.
func (t *Table) Stats() *Stats {
	s := &Stats{
		Entities:      t.Len(),
		Windows:       t.Windows(),
		WindowCounts:  make(map[int]int),
		ChangesByAttr: make(map[string]int),
		TopValues:     make(map[string][]ValueCount),
	}

	valueCounts := make(map[string]map[string]int)

	for _, list := range t.primary.d {
		s.WindowCounts[len(list)]++

		var prev attrs.Attributes

		for i, h := range list {
			rec := t.arena.At(h).Attrs

			for name, v := range rec {
				counts, ok := valueCounts[name]
				if !ok {
					counts = make(map[string]int)
					valueCounts[name] = counts
				}

				counts[fmt.Sprint(v)]++

				// An attribute present now but absent before is not a change.
				if i > 0 {
					if old, had := prev[name]; had && !attrs.ValueEqual(old, v) {
						s.ChangesByAttr[name]++
					}
				}
			}

			prev = rec
		}
	}

	for name, counts := range valueCounts {
		s.TopValues[name] = topValues(counts)
	}

	return s
}

func topValues(counts map[string]int) []ValueCount {
	all := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		all = append(all, ValueCount{Value: v, Count: n})
	}

	sort.Slice(all, func(i, j int) bool {
		if all[i].Count != all[j].Count {
			return all[i].Count > all[j].Count
		}

		return all[i].Value < all[j].Value
	})

	if len(all) > topValueLimit {
		all = all[:topValueLimit]
	}

	return all
}

// Render writes the report as text tables. With verbose set, per-attribute
// change counts and top values are included.
func (s *Stats) Render(w io.Writer, verbose bool) {
	fmt.Fprintf(w, "%s entities, %s windows\n",
		humanize.Comma(int64(s.Entities)), humanize.Comma(int64(s.Windows)))

	hist := table.NewWriter()
	hist.SetOutputMirror(w)
	hist.AppendHeader(table.Row{"Windows per entity", "Entities"})

	lengths := make([]int, 0, len(s.WindowCounts))
	for n := range s.WindowCounts {
		lengths = append(lengths, n)
	}

	sort.Ints(lengths)

	for _, n := range lengths {
		hist.AppendRow(table.Row{n, s.WindowCounts[n]})
	}

	hist.Render()

	if !verbose {
		return
	}

	changes := table.NewWriter()
	changes.SetOutputMirror(w)
	changes.AppendHeader(table.Row{"Attribute", "Value changes"})

	names := make([]string, 0, len(s.ChangesByAttr))
	for name := range s.ChangesByAttr {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		if s.ChangesByAttr[names[i]] != s.ChangesByAttr[names[j]] {
			return s.ChangesByAttr[names[i]] > s.ChangesByAttr[names[j]]
		}

		return names[i] < names[j]
	})

	for _, name := range names {
		changes.AppendRow(table.Row{name, s.ChangesByAttr[name]})
	}

	changes.Render()

	values := table.NewWriter()
	values.SetOutputMirror(w)
	values.AppendHeader(table.Row{"Attribute", "Top values (count)"})

	attrNames := make([]string, 0, len(s.TopValues))
	for name := range s.TopValues {
		attrNames = append(attrNames, name)
	}

	sort.Strings(attrNames)

	for _, name := range attrNames {
		line := ""
		for i, vc := range s.TopValues[name] {
			if i > 0 {
				line += ", "
			}

			line += fmt.Sprintf("(%d)%s", vc.Count, vc.Value)
		}

		values.AppendRow(table.Row{name, line})
	}

	values.Render()
}
