package forecast

import (
	"fmt"

	"github.com/gophet/gophet/dataset"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// YhatColumn names the forecast column for a step, "yhat1" being the
// 1-step-ahead output.
func YhatColumn(step int) string { return fmt.Sprintf("yhat%d", step) }

// Predict forecasts every row of the frame that has complete lag history.
// Each origin's step-j output lands j rows after it in column yhat<j>; rows
// without a forecast hold NaN. The output keeps the input's shape.
func (f *Forecaster) Predict(df *dataset.Table) (out *dataset.Table, err error) {
	defer gophetErrors.Recover(&err, "Forecaster.Predict")

	if err := f.state.RequireFitted("Forecaster", "Predict"); err != nil {
		return nil, err
	}
	canon, shape, err := dataset.Prep(df)
	if err != nil {
		return nil, err
	}
	if err := dataset.CheckSorted(canon); err != nil {
		return nil, err
	}

	var parts []*dataset.Table
	for _, g := range dataset.GroupByID(canon) {
		part, err := f.predictSeries(g)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	joined, err := dataset.Concat(parts...)
	if err != nil {
		return nil, err
	}
	return shape.Restore(joined), nil
}

// PredictMap forecasts a map of per-series frames, returning the same map
// shape.
func (f *Forecaster) PredictMap(m map[string]*dataset.Table) (map[string]*dataset.Table, error) {
	canon, shape, err := dataset.PrepMap(m)
	if err != nil {
		return nil, err
	}
	joined, err := f.Predict(canon)
	if err != nil {
		return nil, err
	}
	return shape.RestoreMap(joined), nil
}

func (f *Forecaster) predictSeries(g dataset.Group) (*dataset.Table, error) {
	d, err := f.seriesInputs(f.spec, g)
	if err != nil {
		return nil, err
	}
	n := g.Table.Len()

	cols := make([][]float64, f.spec.nSteps)
	for j := range cols {
		cols[j] = dataset.NaNs(n)
	}

	X, origins := f.spec.tabularizeInputs(d)
	if X != nil {
		Z := f.net.forward(X)
		for i, t := range origins {
			for j := 0; j < f.spec.nSteps; j++ {
				pred := f.loss.Activate(Z.At(i, j))
				if f.targetScaler != nil {
					pred = pred*f.targetScaler.Scale + f.targetScaler.Mean
				}
				row := t
				if f.spec.maxLags > 0 {
					row = t + j + 1
				}
				if row < n {
					cols[j][row] = pred
				}
			}
		}
	}

	out := g.Table
	for j := range cols {
		if err := out.SetColumn(YhatColumn(j+1), cols[j]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
