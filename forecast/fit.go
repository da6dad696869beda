package forecast

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gophet/gophet/config"
	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/metrics"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
	"github.com/gophet/gophet/pkg/log"
)

// Progress modes accepted by WithProgress.
const (
	ProgressLog  = "log"
	ProgressNone = "none"
)

type fitOptions struct {
	freq       time.Duration
	validation *dataset.Table
	progress   string
	minimal    bool
}

// FitOption adjusts one training run.
type FitOption func(*fitOptions)

// WithFreq fixes the data frequency instead of inferring it.
func WithFreq(d time.Duration) FitOption {
	return func(o *fitOptions) { o.freq = d }
}

// WithValidation evaluates metrics on a held-out frame each epoch,
// reported under val_-prefixed names.
func WithValidation(df *dataset.Table) FitOption {
	return func(o *fitOptions) { o.validation = df }
}

// WithProgress selects progress reporting: ProgressLog (default) or
// ProgressNone.
func WithProgress(mode string) FitOption {
	return func(o *fitOptions) { o.progress = mode }
}

// WithMinimal disables metric collection and progress reporting; Fit
// returns a nil history.
func WithMinimal() FitOption {
	return func(o *fitOptions) { o.minimal = true }
}

// Fit trains the model on a history frame. The returned history holds one
// snapshot per epoch of every collected metric; it is nil under WithMinimal.
func (f *Forecaster) Fit(df *dataset.Table, opts ...FitOption) (hist *metrics.History, err error) {
	defer gophetErrors.Recover(&err, "Forecaster.Fit")

	fo := fitOptions{progress: ProgressLog}
	for _, opt := range opts {
		opt(&fo)
	}
	if fo.progress != ProgressLog && fo.progress != ProgressNone {
		return nil, gophetErrors.NewValidationError("progress", "unknown progress mode", fo.progress)
	}

	loss, err := LossByName(f.cfg.Train.LossFuncName)
	if err != nil {
		return nil, err
	}
	if config.IsBCE(loss.Name()) != f.cfg.Model.Classification {
		return nil, gophetErrors.NewValidationError("loss_func",
			"bce loss and classification mode must be enabled together", f.cfg.Train.LossFuncName)
	}

	canon, _, err := dataset.Prep(df)
	if err != nil {
		return nil, err
	}
	if err := dataset.CheckSorted(canon); err != nil {
		return nil, err
	}
	groups := dataset.GroupByID(canon)

	maxLags := dataset.MaxLags(f.cfg.Model.NLags, f.cfg.CovariateLags()...)
	if maxLags == 0 && f.cfg.Model.NForecasts > 1 {
		f.logger.Warn("no lagged inputs, forcing n_forecasts to 1",
			log.OperationKey, "Fit")
		f.cfg.Model.NForecasts = 1
	}

	freq := fo.freq
	if freq == 0 {
		freq, err = dataset.InferFreq(groups[0].Table.Times())
		if err != nil {
			return nil, err
		}
	}

	spec, err := f.buildSpec(canon, maxLags)
	if err != nil {
		return nil, err
	}
	if err := f.fitScalers(canon, loss); err != nil {
		return nil, err
	}

	X, Y, err := f.stackSeries(spec, groups)
	if err != nil {
		return nil, err
	}
	nRows, _ := X.Dims()

	f.cfg.Train.ResolveAuto(canon.Len())
	rng := rand.New(rand.NewSource(f.cfg.Seed))
	net := newNetwork(spec.nSteps, spec.nFeatures(), rng)
	opt := newOptimizer(f.cfg.Train.Optimizer, f.cfg.Train.LearningRate, f.cfg.Train.L2Reg,
		spec.nSteps, spec.nFeatures())

	collection := f.collection
	if fo.minimal {
		collection = nil
	} else if collection == nil {
		collection = defaultCollection(loss, f.cfg.Model.Classification)
	}

	var valX, valY *mat.Dense
	if fo.validation != nil {
		valCanon, _, err := dataset.Prep(fo.validation)
		if err != nil {
			return nil, gophetErrors.Wrap(err, "forecast: validation frame")
		}
		valX, valY, err = f.stackSeries(spec, dataset.GroupByID(valCanon))
		if err != nil {
			return nil, gophetErrors.Wrap(err, "forecast: validation frame")
		}
	}

	if collection != nil {
		hist = metrics.NewHistory()
	}
	batch := f.cfg.Train.BatchSize
	epochs := f.cfg.Train.Epochs
	logEvery := epochs / 20
	if logEvery < 1 {
		logEvery = 1
	}

	for e := 1; e <= epochs; e++ {
		perm := rng.Perm(nRows)
		for start := 0; start < nRows; start += batch {
			end := start + batch
			if end > nRows {
				end = nRows
			}
			rows := perm[start:end]

			dW, dB, batchLoss, preds, targets := net.batchGrad(X, Y, rows, loss)
			if err := gophetErrors.CheckScalar("training loss", batchLoss, e); err != nil {
				return nil, err
			}
			opt.step(net, dW, dB)

			if collection != nil {
				f.unscale(loss, preds)
				f.unscale(loss, targets)
				if err := collection.Update(preds, targets); err != nil {
					return nil, err
				}
				collection.Push("Loss", batchLoss)
			}
		}

		if collection != nil {
			snapshot := collection.Compute()
			if valX != nil {
				collection.Reset()
				valPreds, valTargets := evalSet(net, valX, valY, loss)
				f.unscale(loss, valPreds)
				f.unscale(loss, valTargets)
				if err := collection.Update(valPreds, valTargets); err != nil {
					return nil, err
				}
				if len(valPreds) > 0 {
					collection.Push("Loss", loss.Value(valPreds, valTargets))
				}
				for name, v := range collection.Compute() {
					snapshot["val_"+name] = v
				}
			}
			collection.Reset()
			hist.Add(e, snapshot)

			if fo.progress == ProgressLog && (e == 1 || e == epochs || e%logEvery == 0) {
				fields := []interface{}{log.EpochKey, e, "epochs", epochs}
				if v, ok := snapshot["Loss"]; ok {
					fields = append(fields, log.LossKey, v)
				}
				f.logger.Info("training progress", fields...)
			}
		}
	}

	f.spec = spec
	f.net = net
	f.loss = loss
	f.freq = freq
	f.state.SetFitted()
	f.state.SetDimensions(canon.Len(), len(groups))

	if fo.progress == ProgressLog && !fo.minimal {
		f.logger.Info("training complete",
			log.SamplesKey, nRows, log.SeriesKey, len(groups), "epochs", epochs)
	}
	return hist, nil
}

// buildSpec assembles the feature layout from the configuration and the
// training span.
func (f *Forecaster) buildSpec(canon *dataset.Table, maxLags int) (*featureSpec, error) {
	times := canon.Times()
	t0, t1 := times[0], times[0]
	for _, tm := range times[1:] {
		if tm.Before(t0) {
			t0 = tm
		}
		if tm.After(t1) {
			t1 = tm
		}
	}

	spec := &featureSpec{
		trend:    f.cfg.Model.Growth == "linear",
		trendT0:  t0,
		trendT1:  t1,
		daily:    f.cfg.Model.DailyOrder,
		weekly:   f.cfg.Model.WeeklyOrder,
		yearly:   f.cfg.Model.YearlyOrder,
		nLags:    f.cfg.Model.NLags,
		covNames: f.cfg.CovariateNames(),
		covLags:  f.cfg.CovariateLags(),
		maxLags:  maxLags,
		nSteps:   f.cfg.Model.NForecasts,
	}
	if spec.nFeatures() == 0 {
		return nil, gophetErrors.NewValidationError("model",
			"configuration yields no input features; enable trend, seasonality, or lags", nil)
	}
	return spec, nil
}

// fitScalers fits the covariate scalers and, for target-scaling losses, the
// target scaler on the training frame.
func (f *Forecaster) fitScalers(canon *dataset.Table, loss Loss) error {
	f.covScalers = map[string]*dataset.StandardScaler{}
	for name, reg := range f.cfg.LaggedRegressors {
		col, ok := canon.Column(name)
		if !ok {
			return gophetErrors.NewValidationError("lagged_regressors",
				"frame has no column for registered regressor", name)
		}
		if reg.Normalize == "off" {
			continue
		}
		sc := dataset.NewStandardScaler()
		if err := sc.Fit(col); err != nil {
			return gophetErrors.Wrapf(err, "forecast: scaling regressor %q", name)
		}
		f.covScalers[name] = sc
	}

	f.targetScaler = nil
	if loss.ScalesTarget() {
		sc := dataset.NewStandardScaler()
		if err := sc.Fit(canon.Y()); err != nil {
			return gophetErrors.Wrap(err, "forecast: scaling target")
		}
		f.targetScaler = sc
	}
	return nil
}

// seriesInputs converts one series group into training-space columns.
func (f *Forecaster) seriesInputs(spec *featureSpec, g dataset.Group) (seriesData, error) {
	d := seriesData{times: g.Table.Times(), y: g.Table.Y()}
	if f.targetScaler != nil {
		scaled, err := f.targetScaler.Transform(d.y)
		if err != nil {
			return seriesData{}, err
		}
		d.y = scaled
	}
	d.covs = make([][]float64, len(spec.covNames))
	for i, name := range spec.covNames {
		col, ok := g.Table.Column(name)
		if !ok {
			return seriesData{}, gophetErrors.NewValidationError("lagged_regressors",
				"frame has no column for registered regressor", name)
		}
		if sc := f.covScalers[name]; sc != nil {
			scaled, err := sc.Transform(col)
			if err != nil {
				return seriesData{}, err
			}
			col = scaled
		}
		d.covs[i] = col
	}
	return d, nil
}

// stackSeries tabularizes every series and stacks the windows into one
// design matrix and one target matrix.
func (f *Forecaster) stackSeries(spec *featureSpec, groups []dataset.Group) (*mat.Dense, *mat.Dense, error) {
	var xs, ys []*mat.Dense
	total := 0
	for _, g := range groups {
		d, err := f.seriesInputs(spec, g)
		if err != nil {
			return nil, nil, err
		}
		X, Y, _ := spec.tabularize(d)
		if X == nil {
			continue
		}
		r, _ := X.Dims()
		total += r
		xs = append(xs, X)
		ys = append(ys, Y)
	}
	if total == 0 {
		return nil, nil, gophetErrors.NewValueError("Forecaster.Fit",
			"not enough rows for the configured lags and forecast horizon")
	}

	X := mat.NewDense(total, spec.nFeatures(), nil)
	Y := mat.NewDense(total, spec.nSteps, nil)
	r := 0
	for i := range xs {
		rows, _ := xs[i].Dims()
		for k := 0; k < rows; k++ {
			X.SetRow(r, xs[i].RawRowView(k))
			Y.SetRow(r, ys[i].RawRowView(k))
			r++
		}
	}
	return X, Y, nil
}

// unscale maps training-space values back to data space for metric
// reporting; classification outputs are already probabilities.
func (f *Forecaster) unscale(loss Loss, vals []float64) {
	if f.targetScaler == nil || !loss.ScalesTarget() {
		return
	}
	for i, v := range vals {
		vals[i] = v*f.targetScaler.Scale + f.targetScaler.Mean
	}
}

// evalSet computes activated predictions and aligned targets over a whole
// matrix pair, skipping NaN targets.
func evalSet(net *network, X, Y *mat.Dense, loss Loss) (preds, targets []float64) {
	rows, _ := X.Dims()
	Z := net.forward(X)
	for i := 0; i < rows; i++ {
		for j := 0; j < net.nSteps; j++ {
			t := Y.At(i, j)
			if math.IsNaN(t) {
				continue
			}
			preds = append(preds, loss.Activate(Z.At(i, j)))
			targets = append(targets, t)
		}
	}
	return preds, targets
}

// defaultCollection is recorded when no collection was installed: the loss
// metric plus, for regression losses, MAE and RMSE, and the running
// optimizer loss.
func defaultCollection(loss Loss, classification bool) *metrics.Collection {
	ms := []metrics.Metric{metrics.NewLossMetric(loss.Display(), loss.Value)}
	if !classification {
		ms = append(ms, &metrics.MAE{}, &metrics.RMSE{})
	}
	return metrics.NewCollection(ms, []*metrics.ValueMetric{metrics.NewValueMetric("Loss")})
}
