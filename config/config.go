// Package config holds the hyperparameter structs for the forecasting and
// classification models. Zero values are filled by struct-tag defaults and
// checked by struct-tag validation, so a Config is usable the moment
// Process() returns nil.
package config

import (
	"io"
	"math"
	"sort"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

var validate = validator.New()

// Loss function identifiers accepted by Train.LossFuncName. BCE and BCELoss
// are aliases for the same binary cross-entropy implementation.
const (
	LossHuber   = "huber"
	LossMSE     = "mse"
	LossMAE     = "mae"
	LossBCE     = "bce"
	LossBCELoss = "bceloss"
)

// IsBCE reports whether a (lowercased) loss name selects binary
// cross-entropy.
func IsBCE(name string) bool {
	return name == LossBCE || name == LossBCELoss
}

// Train collects the training-loop hyperparameters. Epochs, BatchSize, and
// LearningRate left at zero are resolved from the data size at fit time.
type Train struct {
	Epochs       int     `yaml:"epochs" validate:"gte=0"`
	BatchSize    int     `yaml:"batch_size" validate:"gte=0"`
	LearningRate float64 `yaml:"learning_rate" validate:"gte=0"`
	LossFuncName string  `yaml:"loss_func" default:"huber" validate:"oneof=huber mse mae bce bceloss"`
	Optimizer    string  `yaml:"optimizer" default:"adamw" validate:"oneof=adamw sgd"`
	L2Reg        float64 `yaml:"l2_reg" validate:"gte=0"`

	// CollectMetrics mirrors the loosely-typed metric selection switch:
	// nil, bool, string, []string, or []metrics.ClassificationKind. It is
	// resolved and validated by the metrics package at construction.
	CollectMetrics interface{} `yaml:"collect_metrics"`
}

// Model collects the structural hyperparameters of the forecaster.
type Model struct {
	// NForecasts is the number of steps predicted from each origin.
	NForecasts int `yaml:"n_forecasts" default:"1" validate:"gte=1"`
	// NLags is the autoregression order; 0 disables autoregression.
	NLags int `yaml:"n_lags" validate:"gte=0"`
	// Growth selects the trend component: "linear" or "off".
	Growth string `yaml:"growth" default:"linear" validate:"oneof=linear off"`
	// Classification switches the model to binary classification: sigmoid
	// outputs trained with binary cross-entropy against 0/1 targets.
	Classification bool `yaml:"classification"`
	// Fourier orders per seasonal period; 0 disables the term.
	DailyOrder  int `yaml:"daily_order" validate:"gte=0"`
	WeeklyOrder int `yaml:"weekly_order" validate:"gte=0"`
	YearlyOrder int `yaml:"yearly_order" validate:"gte=0"`
}

// LaggedRegressor configures one lagged covariate input.
type LaggedRegressor struct {
	// NLags is the covariate lag depth; 0 inherits the model's NLags
	// (at least 1).
	NLags int `yaml:"n_lags" validate:"gte=0"`
	// Normalize selects covariate scaling: "auto" and "standardize" fit a
	// z-score scaler, "off" passes raw values through.
	Normalize string `yaml:"normalize" default:"auto" validate:"oneof=auto standardize off"`
}

// Config aggregates everything a model instance needs.
type Config struct {
	Model Model `yaml:"model"`
	Train Train `yaml:"train"`

	// LaggedRegressors maps covariate column names to their settings.
	// Usually populated through Forecaster.AddLaggedRegressor.
	LaggedRegressors map[string]*LaggedRegressor `yaml:"lagged_regressors"`

	// Seed drives weight initialization and batch shuffling.
	Seed int64 `yaml:"seed" default:"1"`

	// LoggerName labels the instance's log output.
	LoggerName string `yaml:"logger_name" default:"gophet"`
}

// New returns a Config with defaults applied.
func New() *Config {
	c := &Config{}
	// Defaults on a fresh struct cannot fail.
	_ = defaults.Set(c)
	return c
}

// Process fills defaults, normalizes names, and validates the result.
func (c *Config) Process() error {
	if err := defaults.Set(c); err != nil {
		return gophetErrors.Wrap(err, "config: applying defaults")
	}

	c.Train.LossFuncName = strings.ToLower(c.Train.LossFuncName)
	c.Train.Optimizer = strings.ToLower(c.Train.Optimizer)

	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if gophetErrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return gophetErrors.NewValidationError(fe.Namespace(),
				"failed constraint "+fe.Tag(), fe.Value())
		}
		return gophetErrors.Wrap(err, "config: validation")
	}

	for name, reg := range c.LaggedRegressors {
		if err := defaults.Set(reg); err != nil {
			return gophetErrors.Wrap(err, "config: lagged regressor defaults")
		}
		if err := validate.Struct(reg); err != nil {
			return gophetErrors.NewValidationError("lagged_regressors."+name,
				"invalid settings", reg)
		}
	}
	return nil
}

// FromYAML reads a Config from an experiment file and processes it.
func FromYAML(r io.Reader) (*Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, gophetErrors.Wrap(err, "config: reading yaml")
	}
	c := &Config{}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, gophetErrors.Wrap(err, "config: parsing yaml")
	}
	if err := c.Process(); err != nil {
		return nil, err
	}
	return c, nil
}

// CovariateLags returns the resolved lag depth of every lagged regressor in
// sorted name order.
func (c *Config) CovariateLags() []int {
	names := c.CovariateNames()
	out := make([]int, len(names))
	for i, name := range names {
		out[i] = c.ResolvedCovariateLags(name)
	}
	return out
}

// CovariateNames returns the lagged regressor names in sorted order.
func (c *Config) CovariateNames() []string {
	names := make([]string, 0, len(c.LaggedRegressors))
	for name := range c.LaggedRegressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ResolvedCovariateLags returns the effective lag depth for one regressor:
// its own setting, or the model's NLags (at least 1) when left at zero.
func (c *Config) ResolvedCovariateLags(name string) int {
	reg, ok := c.LaggedRegressors[name]
	if !ok {
		return 0
	}
	if reg.NLags > 0 {
		return reg.NLags
	}
	if c.Model.NLags > 0 {
		return c.Model.NLags
	}
	return 1
}

// ResolveAuto fills the zero-valued training hyperparameters from the
// training-set size:
//
//   - BatchSize: 2^(2+floor(log10 n)), clamped to [8, 1024] and to n.
//   - Epochs: 1000 * 2^(2.5*log10(100+n)) / n, clamped to [20, 500].
//   - LearningRate: 0.01.
func (t *Train) ResolveAuto(nSamples int) {
	if nSamples < 1 {
		nSamples = 1
	}
	if t.BatchSize == 0 {
		b := int(math.Pow(2, 2+math.Floor(math.Log10(float64(nSamples)))))
		if b < 8 {
			b = 8
		}
		if b > 1024 {
			b = 1024
		}
		if b > nSamples {
			b = nSamples
		}
		t.BatchSize = b
	}
	if t.Epochs == 0 {
		e := int(1000 * math.Pow(2, 2.5*math.Log10(100+float64(nSamples))) / float64(nSamples))
		if e < 20 {
			e = 20
		}
		if e > 500 {
			e = 500
		}
		t.Epochs = e
	}
	if t.LearningRate == 0 {
		t.LearningRate = 0.01
	}
}
