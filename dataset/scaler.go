package dataset

import (
	"math"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// StandardScaler normalizes one variable to zero mean and unit standard
// deviation. NaN values are ignored while fitting and passed through while
// transforming, so future rows survive the round trip. Fields are exported
// for gob encoding inside fitted models.
type StandardScaler struct {
	Mean   float64
	Scale  float64
	Fitted bool

	// WithMean and WithStd switch off centering or scaling respectively.
	WithMean bool
	WithStd  bool
}

// NewStandardScaler returns a scaler that both centers and scales.
func NewStandardScaler() *StandardScaler {
	return &StandardScaler{WithMean: true, WithStd: true}
}

// Fit computes the mean and standard deviation of the finite values in xs.
func (s *StandardScaler) Fit(xs []float64) error {
	n := 0
	sum := 0.0
	for _, v := range xs {
		if math.IsNaN(v) {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return gophetErrors.NewModelError("StandardScaler.Fit", "no finite values", gophetErrors.ErrEmptyData)
	}

	s.Mean = 0
	if s.WithMean {
		s.Mean = sum / float64(n)
	}

	s.Scale = 1
	if s.WithStd {
		sumSq := 0.0
		for _, v := range xs {
			if math.IsNaN(v) {
				continue
			}
			d := v - s.Mean
			sumSq += d * d
		}
		s.Scale = math.Sqrt(sumSq / float64(n))
		// A near-constant column scales by 1 to avoid dividing by zero.
		if s.Scale < 1e-8 {
			s.Scale = 1
		}
	}

	s.Fitted = true
	return nil
}

// Transform standardizes xs with the fitted statistics.
func (s *StandardScaler) Transform(xs []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, gophetErrors.NewNotFittedError("StandardScaler", "Transform")
	}
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = (v - s.Mean) / s.Scale
	}
	return out, nil
}

// FitTransform fits the scaler and transforms xs in one step.
func (s *StandardScaler) FitTransform(xs []float64) ([]float64, error) {
	if err := s.Fit(xs); err != nil {
		return nil, err
	}
	return s.Transform(xs)
}

// InverseTransform maps standardized values back to the original range.
func (s *StandardScaler) InverseTransform(xs []float64) ([]float64, error) {
	if !s.Fitted {
		return nil, gophetErrors.NewNotFittedError("StandardScaler", "InverseTransform")
	}
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = v*s.Scale + s.Mean
	}
	return out, nil
}
