// Package forecast implements a decomposition-style multi-horizon
// forecaster: per-step linear heads over trend, Fourier seasonality, target
// lags, and lagged covariates, trained with mini-batch gradient descent.
// In classification mode the heads produce sigmoid probabilities trained
// with binary cross-entropy.
package forecast

import (
	"time"

	"github.com/gophet/gophet/config"
	"github.com/gophet/gophet/core/model"
	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/metrics"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
	"github.com/gophet/gophet/pkg/log"
)

// Forecaster is the trainable model. Build it with New, register lagged
// covariates, Fit on a history frame, then Predict on a frame extended with
// the rows to forecast.
type Forecaster struct {
	state  *model.StateManager
	cfg    *config.Config
	logger log.Logger

	collection *metrics.Collection

	// Fitted artifacts.
	spec         *featureSpec
	net          *network
	loss         Loss
	freq         time.Duration
	targetScaler *dataset.StandardScaler
	covScalers   map[string]*dataset.StandardScaler
}

// Option configures a Forecaster at construction.
type Option func(*Forecaster)

// WithConfig replaces the whole configuration before processing.
func WithConfig(cfg *config.Config) Option {
	return func(f *Forecaster) { f.cfg = cfg }
}

// WithNForecasts sets the number of steps predicted from each origin.
func WithNForecasts(n int) Option {
	return func(f *Forecaster) { f.cfg.Model.NForecasts = n }
}

// WithNLags sets the autoregression order.
func WithNLags(n int) Option {
	return func(f *Forecaster) { f.cfg.Model.NLags = n }
}

// WithGrowth selects the trend component, "linear" or "off".
func WithGrowth(mode string) Option {
	return func(f *Forecaster) { f.cfg.Model.Growth = mode }
}

// WithSeasonality sets the Fourier orders of the daily, weekly, and yearly
// terms; 0 disables a term.
func WithSeasonality(daily, weekly, yearly int) Option {
	return func(f *Forecaster) {
		f.cfg.Model.DailyOrder = daily
		f.cfg.Model.WeeklyOrder = weekly
		f.cfg.Model.YearlyOrder = yearly
	}
}

// WithClassification switches the model to binary classification mode.
func WithClassification() Option {
	return func(f *Forecaster) { f.cfg.Model.Classification = true }
}

// WithLossFunc selects the training loss by name.
func WithLossFunc(name string) Option {
	return func(f *Forecaster) { f.cfg.Train.LossFuncName = name }
}

// WithEpochs fixes the number of training epochs; 0 resolves from the data
// size at fit time.
func WithEpochs(n int) Option {
	return func(f *Forecaster) { f.cfg.Train.Epochs = n }
}

// WithBatchSize fixes the mini-batch size; 0 resolves from the data size.
func WithBatchSize(n int) Option {
	return func(f *Forecaster) { f.cfg.Train.BatchSize = n }
}

// WithLearningRate fixes the learning rate; 0 resolves to the default.
func WithLearningRate(lr float64) Option {
	return func(f *Forecaster) { f.cfg.Train.LearningRate = lr }
}

// WithOptimizer selects the optimizer, "adamw" or "sgd".
func WithOptimizer(name string) Option {
	return func(f *Forecaster) { f.cfg.Train.Optimizer = name }
}

// WithL2Reg sets the L2 regularization strength.
func WithL2Reg(l2 float64) Option {
	return func(f *Forecaster) { f.cfg.Train.L2Reg = l2 }
}

// WithCollectMetrics sets the loosely-typed metric selection switch, kept
// as-is until resolved at construction of the consuming model.
func WithCollectMetrics(v interface{}) Option {
	return func(f *Forecaster) { f.cfg.Train.CollectMetrics = v }
}

// WithSeed seeds weight initialization and batch shuffling.
func WithSeed(seed int64) Option {
	return func(f *Forecaster) { f.cfg.Seed = seed }
}

// WithLogger injects the instance's logger.
func WithLogger(l log.Logger) Option {
	return func(f *Forecaster) { f.logger = l }
}

// New builds a Forecaster, processing and validating the configuration
// assembled from the options.
func New(opts ...Option) (*Forecaster, error) {
	f := &Forecaster{
		state:      model.NewStateManager(),
		cfg:        config.New(),
		covScalers: map[string]*dataset.StandardScaler{},
	}
	for _, opt := range opts {
		opt(f)
	}
	if err := f.cfg.Process(); err != nil {
		return nil, err
	}
	if f.logger == nil {
		f.logger = log.GetLoggerWithName(f.cfg.LoggerName)
	}
	return f, nil
}

// Config returns the instance's resolved configuration. Mutations before
// Fit take effect on the next training run.
func (f *Forecaster) Config() *config.Config { return f.cfg }

// SetMetrics installs the metric collection the training loop records into,
// replacing any default.
func (f *Forecaster) SetMetrics(c *metrics.Collection) { f.collection = c }

// IsFitted reports whether the model has been trained.
func (f *Forecaster) IsFitted() bool { return f.state.IsFitted() }

// Freq returns the fitted data frequency.
func (f *Forecaster) Freq() time.Duration { return f.freq }

// Logger returns the instance's logger handle.
func (f *Forecaster) Logger() log.Logger { return f.logger }

// RegressorOption configures one lagged covariate registration.
type RegressorOption func(*config.LaggedRegressor)

// WithRegressorLags sets the covariate's lag depth; 0 inherits the model's
// autoregression order.
func WithRegressorLags(n int) RegressorOption {
	return func(r *config.LaggedRegressor) { r.NLags = n }
}

// WithRegressorNormalize selects the covariate scaling mode: "auto",
// "standardize", or "off".
func WithRegressorNormalize(mode string) RegressorOption {
	return func(r *config.LaggedRegressor) { r.Normalize = mode }
}

// AddLaggedRegressor registers a covariate column whose lagged values feed
// the model.
func (f *Forecaster) AddLaggedRegressor(name string, opts ...RegressorOption) error {
	if f.state.IsFitted() {
		return gophetErrors.NewModelError("AddLaggedRegressor", "model already fitted", nil)
	}
	if name == "" {
		return gophetErrors.NewValidationError("lagged_regressors", "name must not be empty", name)
	}
	if _, exists := f.cfg.LaggedRegressors[name]; exists {
		return gophetErrors.NewValidationError("lagged_regressors", "regressor already registered", name)
	}

	reg := &config.LaggedRegressor{}
	for _, opt := range opts {
		opt(reg)
	}
	if f.cfg.LaggedRegressors == nil {
		f.cfg.LaggedRegressors = map[string]*config.LaggedRegressor{}
	}
	f.cfg.LaggedRegressors[name] = reg
	if err := f.cfg.Process(); err != nil {
		delete(f.cfg.LaggedRegressors, name)
		return err
	}
	return nil
}

// MakeFutureTable extends a history frame with periods rows per series at
// the fitted frequency, ready for Predict.
func (f *Forecaster) MakeFutureTable(df *dataset.Table, periods int) (*dataset.Table, error) {
	if err := f.state.RequireFitted("Forecaster", "MakeFutureTable"); err != nil {
		return nil, err
	}
	return dataset.MakeFutureTable(df, periods, f.freq)
}
