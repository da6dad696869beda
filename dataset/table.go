// Package dataset provides the columnar time-series frame shared by the
// forecasting and classification models, together with the shape utilities
// for moving between single-series, multi-series, and map-of-series forms.
package dataset

import (
	"math"
	"time"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// DefaultID is the series identifier stamped on frames that arrive without
// an ID column.
const DefaultID = "__df__"

// Table is a columnar time-series frame. Times and Y are always present;
// IDs is nil when the frame has no series identifiers. Extra float columns
// (lagged regressors, forecast outputs) are stored by name in insertion
// order.
type Table struct {
	times []time.Time
	ids   []string
	y     []float64

	cols  map[string][]float64
	order []string
}

// NewTable builds a frame from timestamps and target values. The slices are
// used directly, not copied.
func NewTable(times []time.Time, y []float64) *Table {
	return &Table{times: times, y: y, cols: map[string][]float64{}}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.times) }

// Times returns the timestamp column.
func (t *Table) Times() []time.Time { return t.times }

// Y returns the target column.
func (t *Table) Y() []float64 { return t.y }

// IDs returns the series identifier column, or nil when absent.
func (t *Table) IDs() []string { return t.ids }

// HasIDs reports whether the frame carries a series identifier column.
func (t *Table) HasIDs() bool { return t.ids != nil }

// SetIDs installs a series identifier column. Pass nil to drop it.
func (t *Table) SetIDs(ids []string) error {
	if ids != nil && len(ids) != t.Len() {
		return gophetErrors.NewDimensionError("Table.SetIDs", t.Len(), len(ids), 0)
	}
	t.ids = ids
	return nil
}

// StampID sets every row's series identifier to id, creating the column if
// needed.
func (t *Table) StampID(id string) {
	ids := make([]string, t.Len())
	for i := range ids {
		ids[i] = id
	}
	t.ids = ids
}

// SetColumn installs or replaces a named float column. New names append to
// the column order; existing names keep their position.
func (t *Table) SetColumn(name string, vals []float64) error {
	if len(vals) != t.Len() {
		return gophetErrors.NewDimensionError("Table.SetColumn", t.Len(), len(vals), 0)
	}
	if _, ok := t.cols[name]; !ok {
		t.order = append(t.order, name)
	}
	t.cols[name] = vals
	return nil
}

// Column returns a named float column and whether it exists.
func (t *Table) Column(name string) ([]float64, bool) {
	vals, ok := t.cols[name]
	return vals, ok
}

// Columns returns the extra column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

// RenameColumn changes a column's name in place, keeping its order position.
func (t *Table) RenameColumn(from, to string) error {
	vals, ok := t.cols[from]
	if !ok {
		return gophetErrors.NewValueError("Table.RenameColumn", "no column named "+from)
	}
	if _, exists := t.cols[to]; exists {
		return gophetErrors.NewValueError("Table.RenameColumn", "column already exists: "+to)
	}
	delete(t.cols, from)
	t.cols[to] = vals
	for i, n := range t.order {
		if n == from {
			t.order[i] = to
			break
		}
	}
	return nil
}

// DropColumn removes a named column if present.
func (t *Table) DropColumn(name string) {
	if _, ok := t.cols[name]; !ok {
		return
	}
	delete(t.cols, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Copy returns a deep copy of the frame.
func (t *Table) Copy() *Table {
	c := &Table{
		times: append([]time.Time(nil), t.times...),
		y:     append([]float64(nil), t.y...),
		cols:  make(map[string][]float64, len(t.cols)),
		order: append([]string(nil), t.order...),
	}
	if t.ids != nil {
		c.ids = append([]string(nil), t.ids...)
	}
	for name, vals := range t.cols {
		c.cols[name] = append([]float64(nil), vals...)
	}
	return c
}

// Slice returns a deep copy of rows [from, to).
func (t *Table) Slice(from, to int) *Table {
	c := &Table{
		times: append([]time.Time(nil), t.times[from:to]...),
		y:     append([]float64(nil), t.y[from:to]...),
		cols:  make(map[string][]float64, len(t.cols)),
		order: append([]string(nil), t.order...),
	}
	if t.ids != nil {
		c.ids = append([]string(nil), t.ids[from:to]...)
	}
	for name, vals := range t.cols {
		c.cols[name] = append([]float64(nil), vals[from:to]...)
	}
	return c
}

// UniqueIDs returns the distinct series identifiers in first-encounter
// order. A frame without an ID column reports the default identifier.
func (t *Table) UniqueIDs() []string {
	if t.ids == nil {
		return []string{DefaultID}
	}
	seen := make(map[string]bool, 4)
	var out []string
	for _, id := range t.ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Validate checks that the frame is non-empty and every column has the same
// number of rows.
func (t *Table) Validate() error {
	n := t.Len()
	if n == 0 {
		return gophetErrors.Wrap(gophetErrors.ErrEmptyData, "dataset: frame has no rows")
	}
	if len(t.y) != n {
		return gophetErrors.NewDimensionError("Table.Validate", n, len(t.y), 0)
	}
	if t.ids != nil && len(t.ids) != n {
		return gophetErrors.NewDimensionError("Table.Validate", n, len(t.ids), 0)
	}
	for name, vals := range t.cols {
		if len(vals) != n {
			return gophetErrors.NewValueError("Table.Validate",
				"column "+name+" length does not match frame")
		}
	}
	return nil
}

// NaNs returns a float column of n NaN values, the fill used for future rows
// and forecast positions without enough history.
func NaNs(n int) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.NaN()
	}
	return vals
}
