package config

import (
	"strings"
	"testing"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

func TestNewAppliesDefaults(t *testing.T) {
	c := New()

	if c.Train.LossFuncName != LossHuber {
		t.Errorf("default loss = %q, want huber", c.Train.LossFuncName)
	}
	if c.Train.Optimizer != "adamw" {
		t.Errorf("default optimizer = %q, want adamw", c.Train.Optimizer)
	}
	if c.Model.NForecasts != 1 {
		t.Errorf("default n_forecasts = %d, want 1", c.Model.NForecasts)
	}
	if c.Model.Growth != "linear" {
		t.Errorf("default growth = %q, want linear", c.Model.Growth)
	}
	if c.Seed != 1 {
		t.Errorf("default seed = %d, want 1", c.Seed)
	}
}

func TestProcessNormalizesNames(t *testing.T) {
	c := New()
	c.Train.LossFuncName = "BCELoss"
	c.Train.Optimizer = "SGD"

	if err := c.Process(); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if c.Train.LossFuncName != "bceloss" {
		t.Errorf("loss = %q, want bceloss", c.Train.LossFuncName)
	}
	if c.Train.Optimizer != "sgd" {
		t.Errorf("optimizer = %q, want sgd", c.Train.Optimizer)
	}
}

func TestProcessRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown loss", func(c *Config) { c.Train.LossFuncName = "hinge" }},
		{"unknown optimizer", func(c *Config) { c.Train.Optimizer = "lbfgs" }},
		{"negative lags", func(c *Config) { c.Model.NLags = -1 }},
		{"zero forecasts", func(c *Config) { c.Model.NForecasts = -2 }},
		{"bad growth", func(c *Config) { c.Model.Growth = "exponential" }},
		{"negative l2", func(c *Config) { c.Train.L2Reg = -0.1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New()
			tt.mutate(c)
			err := c.Process()
			var ve *gophetErrors.ValidationError
			if !gophetErrors.As(err, &ve) {
				t.Errorf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestIsBCE(t *testing.T) {
	if !IsBCE("bce") || !IsBCE("bceloss") {
		t.Error("bce aliases not recognized")
	}
	if IsBCE("huber") {
		t.Error("huber misclassified as bce")
	}
}

func TestFromYAML(t *testing.T) {
	doc := `
model:
  n_forecasts: 2
  n_lags: 3
train:
  loss_func: BCE
  epochs: 10
  collect_metrics: true
lagged_regressors:
  temperature:
    n_lags: 5
seed: 7
`
	c, err := FromYAML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("FromYAML: %v", err)
	}
	if c.Model.NForecasts != 2 || c.Model.NLags != 3 {
		t.Errorf("model = %+v", c.Model)
	}
	if c.Train.LossFuncName != "bce" {
		t.Errorf("loss = %q, want bce", c.Train.LossFuncName)
	}
	if v, ok := c.Train.CollectMetrics.(bool); !ok || !v {
		t.Errorf("collect_metrics = %v (%T), want true", c.Train.CollectMetrics, c.Train.CollectMetrics)
	}
	if c.ResolvedCovariateLags("temperature") != 5 {
		t.Errorf("temperature lags = %d, want 5", c.ResolvedCovariateLags("temperature"))
	}
	if c.Seed != 7 {
		t.Errorf("seed = %d, want 7", c.Seed)
	}
}

func TestFromYAMLRejectsInvalid(t *testing.T) {
	doc := "train:\n  loss_func: hinge\n"
	if _, err := FromYAML(strings.NewReader(doc)); err == nil {
		t.Error("invalid loss should be rejected")
	}
}

func TestCovariateResolution(t *testing.T) {
	c := New()
	c.Model.NLags = 4
	c.LaggedRegressors = map[string]*LaggedRegressor{
		"b_explicit": {NLags: 2},
		"a_inherit":  {},
	}
	if err := c.Process(); err != nil {
		t.Fatal(err)
	}

	names := c.CovariateNames()
	if len(names) != 2 || names[0] != "a_inherit" || names[1] != "b_explicit" {
		t.Errorf("names = %v, want sorted", names)
	}
	lags := c.CovariateLags()
	if lags[0] != 4 || lags[1] != 2 {
		t.Errorf("lags = %v, want [4 2]", lags)
	}

	// Inherit floor: no model lags still yields at least one lag.
	c2 := New()
	c2.LaggedRegressors = map[string]*LaggedRegressor{"x": {}}
	if got := c2.ResolvedCovariateLags("x"); got != 1 {
		t.Errorf("floor lags = %d, want 1", got)
	}
	if got := c2.ResolvedCovariateLags("missing"); got != 0 {
		t.Errorf("missing regressor lags = %d, want 0", got)
	}
}

func TestResolveAuto(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		wantBatch int
	}{
		{"hundred rows", 100, 16},
		{"thousand rows", 1000, 32},
		{"tiny", 5, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := &Train{}
			tr.ResolveAuto(tt.n)
			if tr.BatchSize != tt.wantBatch {
				t.Errorf("batch = %d, want %d", tr.BatchSize, tt.wantBatch)
			}
			if tr.Epochs < 20 || tr.Epochs > 500 {
				t.Errorf("epochs = %d, want within [20, 500]", tr.Epochs)
			}
			if tr.LearningRate != 0.01 {
				t.Errorf("lr = %v, want 0.01", tr.LearningRate)
			}
		})
	}

	// Explicit values survive.
	tr := &Train{Epochs: 3, BatchSize: 4, LearningRate: 0.5}
	tr.ResolveAuto(1000)
	if tr.Epochs != 3 || tr.BatchSize != 4 || tr.LearningRate != 0.5 {
		t.Errorf("explicit values overridden: %+v", tr)
	}
}
