package forecast

import (
	"io"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/gophet/gophet/config"
	"github.com/gophet/gophet/core/model"
	"github.com/gophet/gophet/dataset"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
	"github.com/gophet/gophet/pkg/log"
)

var _ model.Persistable = (*Forecaster)(nil)

// forecasterState is the gob snapshot of a fitted model: configuration
// distilled to concrete fields plus the learned parameters.
type forecasterState struct {
	ModelCfg   config.Model
	LossName   string
	Optimizer  string
	Seed       int64
	LoggerName string

	RegNames []string
	RegLags  []int
	RegNorm  []string

	Freq    time.Duration
	TrendT0 time.Time
	TrendT1 time.Time

	Weights   []float64
	Bias      []float64
	NFeatures int

	TargetScaler *dataset.StandardScaler
	CovScalers   map[string]*dataset.StandardScaler

	NSamples int
	NSeries  int
}

func (f *Forecaster) snapshot() (*forecasterState, error) {
	if err := f.state.RequireFitted("Forecaster", "Save"); err != nil {
		return nil, err
	}
	st := &forecasterState{
		ModelCfg:     f.cfg.Model,
		LossName:     f.cfg.Train.LossFuncName,
		Optimizer:    f.cfg.Train.Optimizer,
		Seed:         f.cfg.Seed,
		LoggerName:   f.cfg.LoggerName,
		Freq:         f.freq,
		TrendT0:      f.spec.trendT0,
		TrendT1:      f.spec.trendT1,
		Bias:         append([]float64(nil), f.net.bias...),
		NFeatures:    f.net.nFeatures,
		TargetScaler: f.targetScaler,
		CovScalers:   f.covScalers,
	}
	st.NSamples, st.NSeries = f.state.Dimensions()

	raw := f.net.weights.RawMatrix()
	st.Weights = append([]float64(nil), raw.Data...)

	for _, name := range f.cfg.CovariateNames() {
		reg := f.cfg.LaggedRegressors[name]
		st.RegNames = append(st.RegNames, name)
		st.RegLags = append(st.RegLags, reg.NLags)
		st.RegNorm = append(st.RegNorm, reg.Normalize)
	}
	return st, nil
}

func (f *Forecaster) restore(st *forecasterState) error {
	cfg := config.New()
	cfg.Model = st.ModelCfg
	cfg.Train.LossFuncName = st.LossName
	cfg.Train.Optimizer = st.Optimizer
	cfg.Seed = st.Seed
	cfg.LoggerName = st.LoggerName
	cfg.LaggedRegressors = map[string]*config.LaggedRegressor{}
	for i, name := range st.RegNames {
		cfg.LaggedRegressors[name] = &config.LaggedRegressor{
			NLags:     st.RegLags[i],
			Normalize: st.RegNorm[i],
		}
	}
	if err := cfg.Process(); err != nil {
		return gophetErrors.Wrap(err, "forecast: restoring configuration")
	}

	loss, err := LossByName(cfg.Train.LossFuncName)
	if err != nil {
		return err
	}

	if f.state == nil {
		f.state = model.NewStateManager()
	}

	f.cfg = cfg
	f.loss = loss
	f.freq = st.Freq
	f.targetScaler = st.TargetScaler
	f.covScalers = st.CovScalers
	if f.covScalers == nil {
		f.covScalers = map[string]*dataset.StandardScaler{}
	}
	if f.logger == nil {
		f.logger = log.GetLoggerWithName(cfg.LoggerName)
	}

	maxLags := dataset.MaxLags(cfg.Model.NLags, cfg.CovariateLags()...)
	f.spec = &featureSpec{
		trend:    cfg.Model.Growth == "linear",
		trendT0:  st.TrendT0,
		trendT1:  st.TrendT1,
		daily:    cfg.Model.DailyOrder,
		weekly:   cfg.Model.WeeklyOrder,
		yearly:   cfg.Model.YearlyOrder,
		nLags:    cfg.Model.NLags,
		covNames: cfg.CovariateNames(),
		covLags:  cfg.CovariateLags(),
		maxLags:  maxLags,
		nSteps:   cfg.Model.NForecasts,
	}

	nSteps := cfg.Model.NForecasts
	if len(st.Weights) != nSteps*st.NFeatures || len(st.Bias) != nSteps {
		return gophetErrors.NewDimensionError("Forecaster.Load",
			nSteps*st.NFeatures, len(st.Weights), 1)
	}
	f.net = &network{
		weights:   mat.NewDense(nSteps, st.NFeatures, append([]float64(nil), st.Weights...)),
		bias:      append([]float64(nil), st.Bias...),
		nSteps:    nSteps,
		nFeatures: st.NFeatures,
	}

	f.state.SetFitted()
	f.state.SetDimensions(st.NSamples, st.NSeries)
	return nil
}

// Save writes the fitted model to a file.
func (f *Forecaster) Save(path string) error {
	st, err := f.snapshot()
	if err != nil {
		return err
	}
	return model.SaveModel(st, path)
}

// SaveToWriter writes the fitted model to w.
func (f *Forecaster) SaveToWriter(w io.Writer) error {
	st, err := f.snapshot()
	if err != nil {
		return err
	}
	return model.SaveModelToWriter(st, w)
}

// Load reads a fitted model from a file into f, replacing its state.
func (f *Forecaster) Load(path string) error {
	st := &forecasterState{}
	if err := model.LoadModel(st, path); err != nil {
		return err
	}
	return f.restore(st)
}

// LoadFromReader reads a fitted model from r into f, replacing its state.
func (f *Forecaster) LoadFromReader(r io.Reader) error {
	st := &forecasterState{}
	if err := model.LoadModelFromReader(st, r); err != nil {
		return err
	}
	return f.restore(st)
}
