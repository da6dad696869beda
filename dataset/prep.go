package dataset

import (
	"sort"
	"time"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// Shape records how a frame was presented to an entry point so the output
// can be restored to the same form.
type Shape struct {
	// HadIDCol is true when the caller's frame carried series identifiers.
	HadIDCol bool
	// SingleSeries is true when the frame held exactly one series.
	SingleSeries bool
	// FromMap is true when the input arrived as a map of per-series frames.
	FromMap bool
}

// Prep copies a frame into canonical multi-series form: every row carries a
// series identifier, with DefaultID stamped on frames that had none. The
// returned Shape lets Restore undo the canonicalization.
func Prep(t *Table) (*Table, Shape, error) {
	if err := t.Validate(); err != nil {
		return nil, Shape{}, gophetErrors.Wrap(err, "dataset: prep")
	}
	c := t.Copy()
	var shape Shape
	if c.HasIDs() {
		shape.HadIDCol = true
		shape.SingleSeries = len(c.UniqueIDs()) == 1
	} else {
		shape.SingleSeries = true
		c.StampID(DefaultID)
	}
	return c, shape, nil
}

// PrepMap converts a map of per-series frames into one canonical frame, with
// the map keys as series identifiers. Keys are concatenated in sorted order
// so the result does not depend on map iteration. The member frames must not
// already carry ID columns.
func PrepMap(m map[string]*Table) (*Table, Shape, error) {
	if len(m) == 0 {
		return nil, Shape{}, gophetErrors.Wrap(gophetErrors.ErrEmptyData, "dataset: prep map")
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]*Table, 0, len(m))
	for _, k := range keys {
		part := m[k]
		if part.HasIDs() {
			return nil, Shape{}, gophetErrors.NewValueError("dataset.PrepMap",
				"frame for series "+k+" already has an ID column")
		}
		if err := part.Validate(); err != nil {
			return nil, Shape{}, gophetErrors.Wrapf(err, "dataset: prep map: series %q", k)
		}
		c := part.Copy()
		c.StampID(k)
		parts = append(parts, c)
	}
	joined, err := Concat(parts...)
	if err != nil {
		return nil, Shape{}, err
	}
	return joined, Shape{HadIDCol: true, SingleSeries: len(m) == 1, FromMap: true}, nil
}

// Restore returns the frame in the caller's original form: the synthesized
// ID column is dropped when the input had none.
func (s Shape) Restore(t *Table) *Table {
	if !s.HadIDCol && s.SingleSeries && !s.FromMap {
		c := t.Copy()
		_ = c.SetIDs(nil)
		return c
	}
	return t
}

// RestoreMap splits a canonical frame back into the map form it arrived in.
func (s Shape) RestoreMap(t *Table) map[string]*Table {
	out := make(map[string]*Table)
	for _, g := range GroupByID(t) {
		part := g.Table
		_ = part.SetIDs(nil)
		out[g.ID] = part
	}
	return out
}

// Group is one series of a multi-series frame.
type Group struct {
	ID    string
	Table *Table
}

// GroupByID splits a frame into per-series groups in first-encounter order.
// Row order within each series is preserved. A frame without an ID column
// forms a single group under DefaultID.
func GroupByID(t *Table) []Group {
	if !t.HasIDs() {
		return []Group{{ID: DefaultID, Table: t.Copy()}}
	}

	index := make(map[string]int, 4)
	var groups []Group
	rows := make(map[string][]int, 4)
	for i, id := range t.ids {
		if _, ok := index[id]; !ok {
			index[id] = len(groups)
			groups = append(groups, Group{ID: id})
		}
		rows[id] = append(rows[id], i)
	}

	for gi := range groups {
		id := groups[gi].ID
		idx := rows[id]
		part := &Table{
			times: make([]time.Time, len(idx)),
			ids:   make([]string, len(idx)),
			y:     make([]float64, len(idx)),
			cols:  make(map[string][]float64, len(t.cols)),
			order: append([]string(nil), t.order...),
		}
		for name := range t.cols {
			part.cols[name] = make([]float64, len(idx))
		}
		for j, r := range idx {
			part.times[j] = t.times[r]
			part.ids[j] = t.ids[r]
			part.y[j] = t.y[r]
			for name, vals := range t.cols {
				part.cols[name][j] = vals[r]
			}
		}
		groups[gi].Table = part
	}
	return groups
}

// Concat appends frames row-wise. All parts must share the first part's
// column set; the first part's column order wins. ID columns are kept when
// every part has one.
func Concat(parts ...*Table) (*Table, error) {
	if len(parts) == 0 {
		return nil, gophetErrors.Wrap(gophetErrors.ErrEmptyData, "dataset: concat")
	}

	total := 0
	allIDs := true
	for _, p := range parts {
		total += p.Len()
		if !p.HasIDs() {
			allIDs = false
		}
	}

	first := parts[0]
	out := &Table{
		times: make([]time.Time, 0, total),
		y:     make([]float64, 0, total),
		cols:  make(map[string][]float64, len(first.cols)),
		order: append([]string(nil), first.order...),
	}
	if allIDs {
		out.ids = make([]string, 0, total)
	}
	for _, name := range first.order {
		out.cols[name] = make([]float64, 0, total)
	}

	for _, p := range parts {
		if len(p.cols) != len(first.cols) {
			return nil, gophetErrors.NewValueError("dataset.Concat", "frames have different column sets")
		}
		for _, name := range first.order {
			vals, ok := p.cols[name]
			if !ok {
				return nil, gophetErrors.NewValueError("dataset.Concat", "frame missing column "+name)
			}
			out.cols[name] = append(out.cols[name], vals...)
		}
		out.times = append(out.times, p.times...)
		out.y = append(out.y, p.y...)
		if allIDs {
			out.ids = append(out.ids, p.ids...)
		}
	}
	return out, nil
}
