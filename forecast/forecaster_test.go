package forecast

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gophet/gophet/config"
	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/metrics"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
	"github.com/gophet/gophet/pkg/log"
)

func rampTable(n int) *dataset.Table {
	y := make([]float64, n)
	for i := range y {
		y[i] = float64(i)
	}
	return dataset.NewTable(hourlyTimes(n), y)
}

func TestNewDefaults(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	cfg := f.Config()
	assert.Equal(t, 1, cfg.Model.NForecasts)
	assert.Equal(t, "linear", cfg.Model.Growth)
	assert.Equal(t, config.LossHuber, cfg.Train.LossFuncName)
	assert.Equal(t, "adamw", cfg.Train.Optimizer)
	assert.False(t, cfg.Model.Classification)
	assert.False(t, f.IsFitted())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(WithGrowth("cubic"))
	require.Error(t, err)
	var verr *gophetErrors.ValidationError
	assert.True(t, gophetErrors.As(err, &verr))
}

func TestAddLaggedRegressor(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	require.NoError(t, f.AddLaggedRegressor("temperature", WithRegressorLags(3)))
	assert.Equal(t, 3, f.Config().LaggedRegressors["temperature"].NLags)

	var verr *gophetErrors.ValidationError
	err = f.AddLaggedRegressor("temperature")
	require.Error(t, err)
	assert.True(t, gophetErrors.As(err, &verr))

	err = f.AddLaggedRegressor("")
	require.Error(t, err)
	assert.True(t, gophetErrors.As(err, &verr))

	// A rejected registration must not linger in the configuration.
	err = f.AddLaggedRegressor("humidity", WithRegressorNormalize("sometimes"))
	require.Error(t, err)
	_, exists := f.Config().LaggedRegressors["humidity"]
	assert.False(t, exists)
}

func TestAddLaggedRegressorAfterFit(t *testing.T) {
	f, err := New(WithEpochs(2))
	require.NoError(t, err)
	_, err = f.Fit(rampTable(20), WithMinimal())
	require.NoError(t, err)

	err = f.AddLaggedRegressor("late")
	require.Error(t, err)
	var merr *gophetErrors.ModelError
	assert.True(t, gophetErrors.As(err, &merr))
}

func TestFitRejectsUnknownProgressMode(t *testing.T) {
	f, err := New(WithEpochs(2))
	require.NoError(t, err)

	_, err = f.Fit(rampTable(20), WithProgress("chatty"))
	require.Error(t, err)
	var verr *gophetErrors.ValidationError
	assert.True(t, gophetErrors.As(err, &verr))
	assert.False(t, f.IsFitted())
}

func TestFitLossClassificationCoupling(t *testing.T) {
	var verr *gophetErrors.ValidationError

	f, err := New(WithLossFunc(config.LossBCE))
	require.NoError(t, err)
	_, err = f.Fit(rampTable(20))
	require.Error(t, err)
	assert.True(t, gophetErrors.As(err, &verr))

	f, err = New(WithClassification())
	require.NoError(t, err)
	_, err = f.Fit(rampTable(20))
	require.Error(t, err)
	assert.True(t, gophetErrors.As(err, &verr))
}

func TestPredictBeforeFit(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	_, err = f.Predict(rampTable(10))
	require.Error(t, err)
	var nferr *gophetErrors.NotFittedError
	assert.True(t, gophetErrors.As(err, &nferr))
}

func TestFitNotEnoughRows(t *testing.T) {
	f, err := New(WithNLags(5), WithEpochs(2))
	require.NoError(t, err)

	_, err = f.Fit(rampTable(4), WithProgress(ProgressNone))
	require.Error(t, err)
	var verr *gophetErrors.ValueError
	assert.True(t, gophetErrors.As(err, &verr))
}

func TestFitRegressionRamp(t *testing.T) {
	df := rampTable(60)
	f, err := New(
		WithNLags(2),
		WithEpochs(40), WithBatchSize(16), WithLearningRate(0.05),
		WithSeed(3),
	)
	require.NoError(t, err)

	hist, err := f.Fit(df, WithProgress(ProgressNone))
	require.NoError(t, err)
	require.NotNil(t, hist)
	assert.True(t, f.IsFitted())
	assert.Equal(t, time.Hour, f.Freq())

	first := hist.Values["Loss"][0]
	last, ok := hist.Last("Loss")
	require.True(t, ok)
	assert.Less(t, last, first, "training loss did not decrease")

	for _, name := range []string{"HuberLoss", "MAE", "RMSE"} {
		_, ok := hist.Last(name)
		assert.True(t, ok, name)
	}

	out, err := f.Predict(df)
	require.NoError(t, err)
	col, ok := out.Column(YhatColumn(1))
	require.True(t, ok)
	require.Len(t, col, 60)

	// Two lags: the first two rows have no complete history.
	assert.True(t, math.IsNaN(col[0]))
	assert.True(t, math.IsNaN(col[1]))
	for i := 2; i < 60; i++ {
		assert.False(t, math.IsNaN(col[i]), "row %d has no forecast", i)
	}
}

func TestFitClassificationSeparable(t *testing.T) {
	n := 240
	x := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		if i%3 == 0 {
			x[i] = 2
		} else {
			x[i] = -2
		}
	}
	for i := 1; i < n; i++ {
		if x[i-1] > 0 {
			y[i] = 1
		}
	}
	df := dataset.NewTable(hourlyTimes(n), y)
	require.NoError(t, df.SetColumn("x", x))

	f, err := New(
		WithClassification(),
		WithLossFunc(config.LossBCE),
		WithGrowth("off"),
		WithEpochs(30), WithBatchSize(32), WithLearningRate(0.1),
		WithSeed(7),
	)
	require.NoError(t, err)
	require.NoError(t, f.AddLaggedRegressor("x", WithRegressorLags(1)))

	f.SetMetrics(metrics.NewCollection(
		[]metrics.Metric{metrics.KindAccuracy.New()},
		[]*metrics.ValueMetric{metrics.NewValueMetric("Loss")},
	))

	hist, err := f.Fit(df, WithProgress(ProgressNone))
	require.NoError(t, err)
	acc, ok := hist.Last("Accuracy")
	require.True(t, ok)
	assert.GreaterOrEqual(t, acc, 0.9, "separable problem not learned")

	out, err := f.Predict(df)
	require.NoError(t, err)
	probs, ok := out.Column(YhatColumn(1))
	require.True(t, ok)
	assert.True(t, math.IsNaN(probs[0]))
	for i := 1; i < n; i++ {
		assert.False(t, math.IsNaN(probs[i]), "row %d", i)
		assert.GreaterOrEqual(t, probs[i], 0.0, "row %d", i)
		assert.LessOrEqual(t, probs[i], 1.0, "row %d", i)
		want := 0.0
		if x[i-1] > 0 {
			want = 1
		}
		assert.Equal(t, want, math.Round(probs[i]), "row %d misclassified", i)
	}
}

func TestFitForcesSingleStepWithoutLags(t *testing.T) {
	capture := log.NewCapture()
	f, err := New(WithNForecasts(3), WithEpochs(2), WithLogger(capture))
	require.NoError(t, err)

	_, err = f.Fit(rampTable(30), WithProgress(ProgressNone))
	require.NoError(t, err)
	assert.Equal(t, 1, f.Config().Model.NForecasts)
	assert.True(t, capture.ContainsWarning("forcing n_forecasts"))
}

func TestFitMinimal(t *testing.T) {
	f, err := New(WithEpochs(2))
	require.NoError(t, err)

	hist, err := f.Fit(rampTable(30), WithMinimal())
	require.NoError(t, err)
	assert.Nil(t, hist)
	assert.True(t, f.IsFitted())
}

func TestFitWithValidation(t *testing.T) {
	train, val, err := dataset.SplitTrainVal(rampTable(50), 0.2)
	require.NoError(t, err)

	f, err := New(WithEpochs(3), WithSeed(2))
	require.NoError(t, err)
	hist, err := f.Fit(train, WithValidation(val), WithProgress(ProgressNone))
	require.NoError(t, err)

	for _, name := range []string{"Loss", "HuberLoss", "val_Loss", "val_HuberLoss", "val_MAE"} {
		_, ok := hist.Last(name)
		assert.True(t, ok, "missing history entry %s", name)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	n := 40
	df := rampTable(n)
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i % 7)
	}
	require.NoError(t, df.SetColumn("x", x))

	f, err := New(WithNLags(2), WithEpochs(10), WithSeed(5))
	require.NoError(t, err)
	require.NoError(t, f.AddLaggedRegressor("x", WithRegressorLags(2)))
	_, err = f.Fit(df, WithProgress(ProgressNone))
	require.NoError(t, err)

	orig, err := f.Predict(df)
	require.NoError(t, err)
	origCol, _ := orig.Column(YhatColumn(1))

	path := filepath.Join(t.TempDir(), "model.gob")
	require.NoError(t, f.Save(path))

	loaded := &Forecaster{}
	require.NoError(t, loaded.Load(path))
	assert.True(t, loaded.IsFitted())
	assert.Equal(t, 2, loaded.Config().Model.NLags)
	assert.Contains(t, loaded.Config().LaggedRegressors, "x")
	assert.Equal(t, time.Hour, loaded.Freq())

	relo, err := loaded.Predict(df)
	require.NoError(t, err)
	reloCol, _ := relo.Column(YhatColumn(1))
	require.Len(t, reloCol, len(origCol))
	for i := range origCol {
		if math.IsNaN(origCol[i]) {
			assert.True(t, math.IsNaN(reloCol[i]), "row %d", i)
			continue
		}
		assert.InDelta(t, origCol[i], reloCol[i], 1e-12, "row %d", i)
	}
}

func TestSaveBeforeFit(t *testing.T) {
	f, err := New()
	require.NoError(t, err)

	err = f.Save(filepath.Join(t.TempDir(), "model.gob"))
	require.Error(t, err)
	var nferr *gophetErrors.NotFittedError
	assert.True(t, gophetErrors.As(err, &nferr))
}

func TestMakeFutureTableAndPredict(t *testing.T) {
	f, err := New(WithNLags(1), WithEpochs(5), WithSeed(4))
	require.NoError(t, err)

	_, err = f.MakeFutureTable(rampTable(10), 1)
	require.Error(t, err)
	var nferr *gophetErrors.NotFittedError
	assert.True(t, gophetErrors.As(err, &nferr))

	n := 30
	df := rampTable(n)
	_, err = f.Fit(df, WithProgress(ProgressNone))
	require.NoError(t, err)

	future, err := f.MakeFutureTable(df, 2)
	require.NoError(t, err)
	require.Equal(t, n+2, future.Len())

	out, err := f.Predict(future)
	require.NoError(t, err)
	col, ok := out.Column(YhatColumn(1))
	require.True(t, ok)

	// The first appended row is one step beyond the history and gets a
	// forecast; the second has no lag values to build on.
	assert.False(t, math.IsNaN(col[n]))
	assert.True(t, math.IsNaN(col[n+1]))
}

func TestPredictMap(t *testing.T) {
	f, err := New(WithEpochs(3), WithSeed(6))
	require.NoError(t, err)
	_, err = f.Fit(rampTable(30), WithProgress(ProgressNone))
	require.NoError(t, err)

	out, err := f.PredictMap(map[string]*dataset.Table{"site-a": rampTable(30)})
	require.NoError(t, err)
	require.Contains(t, out, "site-a")

	col, ok := out["site-a"].Column(YhatColumn(1))
	require.True(t, ok)
	for i, v := range col {
		assert.False(t, math.IsNaN(v), "row %d", i)
	}
}
