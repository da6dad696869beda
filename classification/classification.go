// Package classification adapts the forecaster to binary-label time series.
//
// A BinaryClassifier owns a forecaster configured in classification mode:
// sigmoid outputs trained with binary cross-entropy against 0/1 targets.
// Fit validates the configuration and delegates training unchanged; Predict
// delegates and then post-processes the continuous forecasts into rounded
// class predictions and residuals.
//
// The target series carries the labels, so autoregression would feed the
// model its own label history. Register at least one lagged regressor and
// leave NLags at 0.
package classification

import (
	"strings"

	"github.com/gophet/gophet/config"
	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/forecast"
	"github.com/gophet/gophet/metrics"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
	"github.com/gophet/gophet/pkg/log"
)

// DefaultLoss is the loss used when New is called with an empty identifier.
const DefaultLoss = config.LossBCE

// Forecaster is the delegate a BinaryClassifier drives. *forecast.Forecaster
// satisfies it; tests may substitute a stub.
type Forecaster interface {
	Fit(df *dataset.Table, opts ...forecast.FitOption) (*metrics.History, error)
	Predict(df *dataset.Table) (*dataset.Table, error)
	Config() *config.Config
	SetMetrics(c *metrics.Collection)
}

// BinaryClassifier wraps a forecaster for binary-label series.
type BinaryClassifier struct {
	f          Forecaster
	lossFunc   string
	collection *metrics.Collection
	logger     log.Logger
}

// New builds a classifier over a fresh forecaster. The forwarded options
// configure the forecaster as usual; classification mode and the loss are
// applied on top of them. An empty lossFunc selects DefaultLoss.
//
// The forecaster's CollectMetrics setting chooses the tracked classification
// metrics: nil/false for none, true for all, or a name / list of names from
// "acc", "bal_acc", "f1" (any case). An unknown name or unsupported value
// type aborts construction.
func New(lossFunc string, opts ...forecast.Option) (*BinaryClassifier, error) {
	if lossFunc == "" {
		lossFunc = DefaultLoss
	}
	all := make([]forecast.Option, 0, len(opts)+2)
	all = append(all, opts...)
	all = append(all, forecast.WithClassification(), forecast.WithLossFunc(lossFunc))

	f, err := forecast.New(all...)
	if err != nil {
		return nil, err
	}
	return newClassifier(f, lossFunc, f.Logger())
}

// NewWithForecaster wraps an existing forecaster. The forecaster's
// configuration is switched to classification mode with the given loss; the
// usual metric resolution applies. An empty lossFunc selects DefaultLoss.
func NewWithForecaster(f Forecaster, lossFunc string) (*BinaryClassifier, error) {
	if lossFunc == "" {
		lossFunc = DefaultLoss
	}
	cfg := f.Config()
	cfg.Train.LossFuncName = lossFunc
	cfg.Model.Classification = true
	return newClassifier(f, lossFunc, log.GetLoggerWithName(cfg.LoggerName))
}

func newClassifier(f Forecaster, lossFunc string, logger log.Logger) (*BinaryClassifier, error) {
	c := &BinaryClassifier{f: f, lossFunc: lossFunc, logger: logger}

	kinds, err := metrics.ResolveKinds(f.Config().Train.CollectMetrics)
	if err != nil {
		return nil, err
	}
	if len(kinds) > 0 {
		loss, err := forecast.LossByName(strings.ToLower(lossFunc))
		if err != nil {
			return nil, err
		}
		ms := make([]metrics.Metric, 0, len(kinds)+1)
		ms = append(ms, metrics.NewLossMetric(loss.Display(), loss.Value))
		for _, k := range kinds {
			ms = append(ms, k.New())
		}
		c.collection = metrics.NewCollection(ms,
			[]*metrics.ValueMetric{metrics.NewValueMetric("Loss")})
		f.SetMetrics(c.collection)
	}
	return c, nil
}

// SetLogger replaces the classifier's logger handle and returns the receiver.
func (c *BinaryClassifier) SetLogger(l log.Logger) *BinaryClassifier {
	c.logger = l
	return c
}

// Forecaster returns the wrapped delegate.
func (c *BinaryClassifier) Forecaster() Forecaster { return c.f }

// Config returns the delegate's configuration.
func (c *BinaryClassifier) Config() *config.Config { return c.f.Config() }

// LossFunc returns the configured loss identifier.
func (c *BinaryClassifier) LossFunc() string { return c.lossFunc }

// Metrics returns the metric collection built at construction, nil when no
// metrics were requested.
func (c *BinaryClassifier) Metrics() *metrics.Collection { return c.collection }

// Fit trains the classifier. The configuration is checked first: a nonzero
// autoregression order and the absence of any lagged input are warned about,
// and a loss other than binary cross-entropy aborts with ErrNotImplemented
// before any training work. Fit options pass through to the forecaster.
func (c *BinaryClassifier) Fit(df *dataset.Table, opts ...forecast.FitOption) (*metrics.History, error) {
	cfg := c.f.Config()
	maxLags := dataset.MaxLags(cfg.Model.NLags, cfg.CovariateLags()...)

	if cfg.Model.NLags > 0 {
		c.logger.Warn("auto-regression is active, the model trains on its own label history; set n_lags to 0",
			log.OperationKey, "Fit")
	}
	if maxLags == 0 {
		c.logger.Warn("no lagged inputs configured; add a lagged regressor as classifier input",
			log.OperationKey, "Fit")
	}
	if !config.IsBCE(strings.ToLower(cfg.Train.LossFuncName)) {
		return nil, gophetErrors.Wrapf(gophetErrors.ErrNotImplemented,
			"classification: loss function %q is not supported, set it to %q",
			cfg.Train.LossFuncName, config.LossBCE)
	}
	c.logger.Info("classification with bce loss", log.OperationKey, "Fit")

	return c.f.Fit(df, opts...)
}
