// Package plot renders forecast output frames and training histories to
// image files with gonum/plot. The image format follows the file extension
// (.png, .pdf, .svg). Frames holding more than one series must be split
// before plotting; dataset.GroupByID or Forecaster.PredictMap do that.
package plot

import (
	"image/color"
	"math"
	"os"
	"path/filepath"
	"sort"
	"time"

	gplot "gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/gophet/gophet/classification"
	"github.com/gophet/gophet/dataset"
	"github.com/gophet/gophet/forecast"
	"github.com/gophet/gophet/metrics"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// options holds figure settings shared by all renderers.
type options struct {
	title  string
	xLabel string
	yLabel string
	width  vg.Length
	height vg.Length
}

// Option adjusts how a figure is rendered.
type Option func(*options)

// WithTitle overrides the figure title.
func WithTitle(title string) Option {
	return func(o *options) { o.title = title }
}

// WithLabels overrides the axis labels.
func WithLabels(x, y string) Option {
	return func(o *options) {
		o.xLabel = x
		o.yLabel = y
	}
}

// WithSize sets the saved figure size in inches.
func WithSize(width, height float64) Option {
	return func(o *options) {
		o.width = vg.Length(width) * vg.Inch
		o.height = vg.Length(height) * vg.Inch
	}
}

// stepPalette colors one forecast horizon per entry, cycling when a model
// predicts more steps than there are entries.
var stepPalette = []color.RGBA{
	{R: 20, G: 80, B: 200, A: 255},
	{R: 200, G: 30, B: 30, A: 255},
	{R: 40, G: 120, B: 40, A: 255},
	{R: 150, G: 60, B: 180, A: 255},
}

// Forecast renders a predicted frame: the actual values as points and every
// yhat<i> horizon column as a line over time. Rows holding NaN in a column
// are skipped, so history-only and future-only stretches both draw cleanly.
func Forecast(df *dataset.Table, path string, opts ...Option) error {
	if err := checkSingleSeries(df); err != nil {
		return err
	}
	o := buildOptions("Forecast", "ds", "y", opts)
	p := newTimePlot(o)
	if err := addActual(p, df); err != nil {
		return err
	}

	steps := 0
	for step := 1; ; step++ {
		name := forecast.YhatColumn(step)
		vals, ok := df.Column(name)
		if !ok {
			break
		}
		if err := addLine(p, df.Times(), vals, name, stepPalette[(step-1)%len(stepPalette)]); err != nil {
			return err
		}
		steps++
	}
	if steps == 0 {
		return gophetErrors.NewValueError("plot.Forecast",
			"frame has no yhat columns, run Predict first")
	}
	return save(p, path, o)
}

// Classification renders a classified frame: the true 0/1 labels as points,
// each yhat_raw<i> probability as a line, and each rounded yhat<i> class
// prediction as crosses.
func Classification(df *dataset.Table, path string, opts ...Option) error {
	if err := checkSingleSeries(df); err != nil {
		return err
	}
	o := buildOptions("Classification", "ds", "y", opts)
	p := newTimePlot(o)
	if err := addActual(p, df); err != nil {
		return err
	}

	steps := 0
	for step := 1; ; step++ {
		rawName := classification.RawColumn(step)
		raw, ok := df.Column(rawName)
		if !ok {
			break
		}
		c := stepPalette[(step-1)%len(stepPalette)]
		if err := addLine(p, df.Times(), raw, rawName, c); err != nil {
			return err
		}
		if rounded, ok := df.Column(forecast.YhatColumn(step)); ok {
			if err := addClasses(p, df.Times(), rounded, forecast.YhatColumn(step), c); err != nil {
				return err
			}
		}
		steps++
	}
	if steps == 0 {
		return gophetErrors.NewValueError("plot.Classification",
			"frame has no yhat_raw columns, run BinaryClassifier.Predict first")
	}
	return save(p, path, o)
}

// History renders metric curves over training epochs. With an empty names
// slice every recorded metric is drawn, sorted by name.
func History(h *metrics.History, names []string, path string, opts ...Option) error {
	if h == nil || len(h.Epochs) == 0 {
		return gophetErrors.Wrap(gophetErrors.ErrEmptyData, "plot: history has no epochs")
	}
	if len(names) == 0 {
		names = make([]string, 0, len(h.Values))
		for name := range h.Values {
			names = append(names, name)
		}
		sort.Strings(names)
	}

	o := buildOptions("Training history", "epoch", "value", opts)
	p := gplot.New()
	p.Title.Text = o.title
	p.X.Label.Text = o.xLabel
	p.Y.Label.Text = o.yLabel
	p.Add(plotter.NewGrid())

	for i, name := range names {
		vals, ok := h.Values[name]
		if !ok {
			return gophetErrors.NewValueError("plot.History", "no metric named "+name)
		}
		pts := make(plotter.XYs, 0, len(vals))
		for j, v := range vals {
			if j >= len(h.Epochs) || math.IsNaN(v) {
				continue
			}
			pts = append(pts, plotter.XY{X: float64(h.Epochs[j]), Y: v})
		}
		if len(pts) == 0 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return gophetErrors.Wrap(err, "plot: "+name)
		}
		l.Color = stepPalette[i%len(stepPalette)]
		l.Width = vg.Points(1.2)
		p.Add(l)
		p.Legend.Add(name, l)
	}
	return save(p, path, o)
}

func buildOptions(title, xLabel, yLabel string, opts []Option) *options {
	o := &options{
		title:  title,
		xLabel: xLabel,
		yLabel: yLabel,
		width:  10 * vg.Inch,
		height: 6 * vg.Inch,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// newTimePlot builds a figure whose X axis holds Unix-second timestamps.
func newTimePlot(o *options) *gplot.Plot {
	p := gplot.New()
	p.Title.Text = o.title
	p.X.Label.Text = o.xLabel
	p.Y.Label.Text = o.yLabel
	p.X.Tick.Marker = gplot.TimeTicks{Format: "2006-01-02 15:04"}
	p.Add(plotter.NewGrid())
	return p
}

func checkSingleSeries(df *dataset.Table) error {
	if err := df.Validate(); err != nil {
		return err
	}
	if ids := df.UniqueIDs(); len(ids) > 1 {
		return gophetErrors.NewValueError("plot",
			"frame holds multiple series, plot one series at a time")
	}
	return nil
}

// timePoints converts one column to plot points, dropping NaN rows. The X
// coordinate is the row timestamp as a Unix second.
func timePoints(times []time.Time, vals []float64) plotter.XYs {
	pts := make(plotter.XYs, 0, len(vals))
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(times[i].Unix()), Y: v})
	}
	return pts
}

func addActual(p *gplot.Plot, df *dataset.Table) error {
	pts := timePoints(df.Times(), df.Y())
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return gophetErrors.Wrap(err, "plot: actual values")
	}
	s.GlyphStyle.Color = color.RGBA{R: 120, G: 120, B: 120, A: 220}
	s.GlyphStyle.Radius = vg.Points(1.8)
	p.Add(s)
	p.Legend.Add("actual", s)
	return nil
}

func addLine(p *gplot.Plot, times []time.Time, vals []float64, name string, c color.RGBA) error {
	pts := timePoints(times, vals)
	if len(pts) == 0 {
		return nil
	}
	l, err := plotter.NewLine(pts)
	if err != nil {
		return gophetErrors.Wrap(err, "plot: "+name)
	}
	l.Color = c
	l.Width = vg.Points(1.2)
	p.Add(l)
	p.Legend.Add(name, l)
	return nil
}

func addClasses(p *gplot.Plot, times []time.Time, vals []float64, name string, c color.RGBA) error {
	pts := timePoints(times, vals)
	if len(pts) == 0 {
		return nil
	}
	s, err := plotter.NewScatter(pts)
	if err != nil {
		return gophetErrors.Wrap(err, "plot: "+name)
	}
	s.GlyphStyle.Color = c
	s.GlyphStyle.Shape = draw.CrossGlyph{}
	s.GlyphStyle.Radius = vg.Points(3)
	p.Add(s)
	p.Legend.Add(name, s)
	return nil
}

func save(p *gplot.Plot, path string, o *options) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return gophetErrors.Wrapf(err, "plot: create directory %s", dir)
		}
	}
	if err := p.Save(o.width, o.height, path); err != nil {
		return gophetErrors.Wrapf(err, "plot: save %s", path)
	}
	return nil
}
