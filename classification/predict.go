package classification

import (
	"fmt"
	"math"

	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/forecast"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// RawColumn names the continuous forecast column for a step after
// classification post-processing, "yhat_raw1" being the 1-step-ahead
// probability.
func RawColumn(step int) string { return fmt.Sprintf("yhat_raw%d", step) }

// ResidualColumn names the residual column for a step: the continuous
// forecast minus the true label.
func ResidualColumn(step int) string { return fmt.Sprintf("residual%d", step) }

// Predict runs the forecaster and converts its continuous outputs into class
// predictions. For every horizon step i the continuous forecast moves to
// yhat_raw<i>, yhat<i> becomes its elementwise rounding, and residual<i>
// holds yhat_raw<i> - y. Rounding is math.Round: ties go away from zero, so
// exactly 0.5 becomes 1. Values are not clamped, so raw forecasts outside
// [0, 1] round to classes other than 0 and 1.
func (c *BinaryClassifier) Predict(df *dataset.Table) (out *dataset.Table, err error) {
	defer gophetErrors.Recover(&err, "BinaryClassifier.Predict")

	raw, err := c.f.Predict(df)
	if err != nil {
		return nil, err
	}
	canon, shape, err := dataset.Prep(raw)
	if err != nil {
		return nil, err
	}

	nSteps := c.f.Config().Model.NForecasts
	groups := dataset.GroupByID(canon)
	parts := make([]*dataset.Table, 0, len(groups))
	for _, g := range groups {
		part, err := classifyGroup(g, nSteps)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
	}
	merged, err := dataset.Concat(parts...)
	if err != nil {
		return nil, err
	}
	return shape.Restore(merged), nil
}

// PredictMap predicts a map of per-series frames, returning the same map
// shape.
func (c *BinaryClassifier) PredictMap(m map[string]*dataset.Table) (map[string]*dataset.Table, error) {
	canon, shape, err := dataset.PrepMap(m)
	if err != nil {
		return nil, err
	}
	joined, err := c.Predict(canon)
	if err != nil {
		return nil, err
	}
	return shape.RestoreMap(joined), nil
}

func classifyGroup(g dataset.Group, nSteps int) (*dataset.Table, error) {
	t := g.Table
	y := t.Y()
	for i := 1; i <= nSteps; i++ {
		if err := t.RenameColumn(forecast.YhatColumn(i), RawColumn(i)); err != nil {
			return nil, gophetErrors.Wrapf(err, "classification: series %q", g.ID)
		}
		raw, _ := t.Column(RawColumn(i))

		rounded := make([]float64, len(raw))
		residual := make([]float64, len(raw))
		for j, v := range raw {
			rounded[j] = math.Round(v)
			residual[j] = v - y[j]
		}
		if err := t.SetColumn(forecast.YhatColumn(i), rounded); err != nil {
			return nil, err
		}
		if err := t.SetColumn(ResidualColumn(i), residual); err != nil {
			return nil, err
		}
	}
	t.StampID(g.ID)
	return t, nil
}
