package metrics

import (
	"math"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// regressionAccum accumulates aligned prediction/target pairs; NaN pairs are
// skipped so padded forecast rows do not poison the average.
type regressionAccum struct {
	sumAbs float64
	sumSq  float64
	n      int
}

func (a *regressionAccum) update(pred, target []float64) error {
	if len(pred) != len(target) {
		return gophetErrors.NewDimensionError("metrics.Update", len(target), len(pred), 0)
	}
	for i := range pred {
		if math.IsNaN(pred[i]) || math.IsNaN(target[i]) {
			continue
		}
		d := pred[i] - target[i]
		a.sumAbs += math.Abs(d)
		a.sumSq += d * d
		a.n++
	}
	return nil
}

func (a *regressionAccum) reset() { *a = regressionAccum{} }

// MAE is the mean absolute error.
type MAE struct {
	regressionAccum
}

func (m *MAE) Name() string { return "MAE" }

func (m *MAE) Update(pred, target []float64) error { return m.update(pred, target) }

func (m *MAE) Compute() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sumAbs / float64(m.n)
}

func (m *MAE) Reset() { m.reset() }

// RMSE is the root mean squared error.
type RMSE struct {
	regressionAccum
}

func (m *RMSE) Name() string { return "RMSE" }

func (m *RMSE) Update(pred, target []float64) error { return m.update(pred, target) }

func (m *RMSE) Compute() float64 {
	if m.n == 0 {
		return 0
	}
	return math.Sqrt(m.sumSq / float64(m.n))
}

func (m *RMSE) Reset() { m.reset() }
