package forecast

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gophet/gophet/core/parallel"
)

// featureSpec is the fitted feature layout: which inputs exist and how wide
// each block is. The row layout is [trend, Fourier terms, target lags,
// covariate lags per regressor].
type featureSpec struct {
	trend    bool
	trendT0  time.Time
	trendT1  time.Time
	daily    int
	weekly   int
	yearly   int
	nLags    int
	covNames []string
	covLags  []int
	maxLags  int
	nSteps   int
}

func (s *featureSpec) nFeatures() int {
	n := 0
	if s.trend {
		n++
	}
	n += 2 * (s.daily + s.weekly + s.yearly)
	n += s.nLags
	for _, l := range s.covLags {
		n += l
	}
	return n
}

// seriesData is one series' columns in training space: target and
// covariates already scaled.
type seriesData struct {
	times []time.Time
	y     []float64
	covs  [][]float64
}

// origins returns the indices with complete lag history. Without lags every
// row forecasts itself; with lags the origin is the last lag row and the
// forecast block starts one row later.
func (s *featureSpec) origins(n int) []int {
	if s.maxLags == 0 {
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out
	}
	var out []int
	for t := s.maxLags - 1; t < n-1; t++ {
		out = append(out, t)
	}
	return out
}

const (
	dailyPeriod  = 24 * time.Hour
	weeklyPeriod = 7 * 24 * time.Hour
	yearlyPeriod = time.Duration(365.25 * 24 * float64(time.Hour))
)

// row writes the feature vector for origin t into dst and reports whether
// every entry is finite.
func (s *featureSpec) row(dst []float64, d seriesData, t int) bool {
	k := 0
	if s.trend {
		dst[k] = s.trendPos(d.times[t])
		k++
	}
	k = fourier(dst, k, d.times[t], dailyPeriod, s.daily)
	k = fourier(dst, k, d.times[t], weeklyPeriod, s.weekly)
	k = fourier(dst, k, d.times[t], yearlyPeriod, s.yearly)

	for l := s.nLags - 1; l >= 0; l-- {
		dst[k] = d.y[t-l]
		k++
	}
	for ci, lags := range s.covLags {
		for l := lags - 1; l >= 0; l-- {
			dst[k] = d.covs[ci][t-l]
			k++
		}
	}

	for _, v := range dst {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// trendPos maps a timestamp into the fitted training span, 0 at the first
// observation and 1 at the last. Later timestamps extrapolate beyond 1.
func (s *featureSpec) trendPos(tm time.Time) float64 {
	span := s.trendT1.Sub(s.trendT0)
	if span <= 0 {
		return 0
	}
	return float64(tm.Sub(s.trendT0)) / float64(span)
}

func fourier(dst []float64, k int, tm time.Time, period time.Duration, order int) int {
	if order == 0 {
		return k
	}
	phase := float64(tm.UnixNano()) / float64(period.Nanoseconds())
	for j := 1; j <= order; j++ {
		angle := 2 * math.Pi * float64(j) * phase
		dst[k] = math.Sin(angle)
		dst[k+1] = math.Cos(angle)
		k += 2
	}
	return k
}

// targets writes the nSteps training targets for origin t, NaN where the
// series ends early.
func (s *featureSpec) targets(dst []float64, d seriesData, t int) {
	if s.maxLags == 0 {
		dst[0] = d.y[t]
		return
	}
	for j := 1; j <= s.nSteps; j++ {
		if t+j < len(d.y) {
			dst[j-1] = d.y[t+j]
		} else {
			dst[j-1] = math.NaN()
		}
	}
}

// tabularize builds the design and target matrices for one series, keeping
// only origins with finite features and at least one finite target. The
// returned origins align with the matrix rows.
func (s *featureSpec) tabularize(d seriesData) (X, Y *mat.Dense, origins []int) {
	cand := s.origins(len(d.times))
	if len(cand) == 0 {
		return nil, nil, nil
	}
	nf := s.nFeatures()

	rows := mat.NewDense(len(cand), nf, nil)
	targs := mat.NewDense(len(cand), s.nSteps, nil)
	valid := make([]bool, len(cand))

	parallel.ParallelizeWithThreshold(len(cand), 256, func(start, end int) {
		targetRow := make([]float64, s.nSteps)
		for i := start; i < end; i++ {
			t := cand[i]
			if !s.row(rows.RawRowView(i), d, t) {
				continue
			}
			s.targets(targetRow, d, t)
			anyFinite := false
			for _, v := range targetRow {
				if !math.IsNaN(v) {
					anyFinite = true
					break
				}
			}
			if !anyFinite {
				continue
			}
			for j, v := range targetRow {
				targs.Set(i, j, v)
			}
			valid[i] = true
		}
	})

	kept := 0
	for _, ok := range valid {
		if ok {
			kept++
		}
	}
	if kept == 0 {
		return nil, nil, nil
	}

	X = mat.NewDense(kept, nf, nil)
	Y = mat.NewDense(kept, s.nSteps, nil)
	origins = make([]int, 0, kept)
	r := 0
	for i, ok := range valid {
		if !ok {
			continue
		}
		X.SetRow(r, rows.RawRowView(i))
		Y.SetRow(r, targs.RawRowView(i))
		origins = append(origins, cand[i])
		r++
	}
	return X, Y, origins
}

// tabularizeInputs is the prediction-side variant: finite features are
// enough, targets are not required.
func (s *featureSpec) tabularizeInputs(d seriesData) (X *mat.Dense, origins []int) {
	cand := s.origins(len(d.times))
	if len(cand) == 0 {
		return nil, nil
	}
	nf := s.nFeatures()

	rows := mat.NewDense(len(cand), nf, nil)
	valid := make([]bool, len(cand))
	parallel.ParallelizeWithThreshold(len(cand), 256, func(start, end int) {
		for i := start; i < end; i++ {
			valid[i] = s.row(rows.RawRowView(i), d, cand[i])
		}
	})

	kept := 0
	for _, ok := range valid {
		if ok {
			kept++
		}
	}
	if kept == 0 {
		return nil, nil
	}

	X = mat.NewDense(kept, nf, nil)
	origins = make([]int, 0, kept)
	r := 0
	for i, ok := range valid {
		if !ok {
			continue
		}
		X.SetRow(r, rows.RawRowView(i))
		origins = append(origins, cand[i])
		r++
	}
	return X, origins
}
