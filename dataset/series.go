package dataset

import (
	"time"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// MaxLags returns the deepest history window any input needs: the
// autoregression order or the largest covariate lag count, whichever is
// greater.
func MaxLags(nLags int, covariateLags ...int) int {
	max := nLags
	for _, l := range covariateLags {
		if l > max {
			max = l
		}
	}
	return max
}

// InferFreq determines the sampling frequency of a timestamp column as the
// most common positive delta between consecutive rows. Ties go to the
// smallest delta.
func InferFreq(times []time.Time) (time.Duration, error) {
	if len(times) < 2 {
		return 0, gophetErrors.NewValueError("dataset.InferFreq",
			"need at least two timestamps to infer a frequency")
	}
	counts := make(map[time.Duration]int, 4)
	for i := 1; i < len(times); i++ {
		d := times[i].Sub(times[i-1])
		if d > 0 {
			counts[d]++
		}
	}
	if len(counts) == 0 {
		return 0, gophetErrors.NewValueError("dataset.InferFreq",
			"timestamps are not increasing")
	}
	var best time.Duration
	bestCount := -1
	for d, c := range counts {
		if c > bestCount || (c == bestCount && d < best) {
			best, bestCount = d, c
		}
	}
	return best, nil
}

// CheckSorted verifies that timestamps are strictly increasing within each
// series of a canonical frame.
func CheckSorted(t *Table) error {
	for _, g := range GroupByID(t) {
		times := g.Table.Times()
		for i := 1; i < len(times); i++ {
			if !times[i].After(times[i-1]) {
				return gophetErrors.NewValueError("dataset.CheckSorted",
					"timestamps of series "+g.ID+" are not strictly increasing")
			}
		}
	}
	return nil
}

// MakeFutureTable extends each series of a frame with periods future rows at
// the given frequency. Future targets and extra columns are filled with NaN.
func MakeFutureTable(t *Table, periods int, freq time.Duration) (*Table, error) {
	if periods <= 0 {
		return nil, gophetErrors.NewValidationError("periods", "must be positive", periods)
	}
	if freq <= 0 {
		return nil, gophetErrors.NewValidationError("freq", "must be positive", freq)
	}
	canon, shape, err := Prep(t)
	if err != nil {
		return nil, err
	}

	var parts []*Table
	for _, g := range GroupByID(canon) {
		part := g.Table
		last := part.Times()[part.Len()-1]

		times := make([]time.Time, periods)
		for i := range times {
			times[i] = last.Add(time.Duration(i+1) * freq)
		}
		future := NewTable(times, NaNs(periods))
		future.StampID(g.ID)
		for _, name := range part.Columns() {
			if err := future.SetColumn(name, NaNs(periods)); err != nil {
				return nil, err
			}
		}
		joined, err := Concat(part, future)
		if err != nil {
			return nil, err
		}
		parts = append(parts, joined)
	}
	out, err := Concat(parts...)
	if err != nil {
		return nil, err
	}
	return shape.Restore(out), nil
}

// SplitTrainVal splits each series of a frame into a leading training part
// and a trailing validation part holding validFrac of the rows (at least one
// row each when validFrac is in (0, 1)).
func SplitTrainVal(t *Table, validFrac float64) (train, val *Table, err error) {
	if validFrac <= 0 || validFrac >= 1 {
		return nil, nil, gophetErrors.NewValidationError("validFrac", "must be in (0, 1)", validFrac)
	}
	canon, shape, err := Prep(t)
	if err != nil {
		return nil, nil, err
	}

	var trainParts, valParts []*Table
	for _, g := range GroupByID(canon) {
		n := g.Table.Len()
		nVal := int(float64(n) * validFrac)
		if nVal < 1 {
			nVal = 1
		}
		if nVal >= n {
			return nil, nil, gophetErrors.NewValueError("dataset.SplitTrainVal",
				"series "+g.ID+" too short to split")
		}
		trainParts = append(trainParts, g.Table.Slice(0, n-nVal))
		valParts = append(valParts, g.Table.Slice(n-nVal, n))
	}

	train, err = Concat(trainParts...)
	if err != nil {
		return nil, nil, err
	}
	val, err = Concat(valParts...)
	if err != nil {
		return nil, nil, err
	}
	return shape.Restore(train), shape.Restore(val), nil
}
