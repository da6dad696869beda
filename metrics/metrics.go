// Package metrics provides the stateful metric objects recorded during
// model training: classification and regression metrics updated batch by
// batch, scalar value trackers, and the collection/history plumbing the
// training loop writes into.
package metrics

import (
	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// Metric accumulates batch updates and reports an epoch-level value.
type Metric interface {
	Name() string
	// Update folds one batch of predictions and targets into the state.
	Update(pred, target []float64) error
	// Compute returns the metric over everything seen since the last Reset.
	Compute() float64
	Reset()
}

// LossFunc is a batch loss: mean loss over aligned prediction/target pairs.
type LossFunc func(pred, target []float64) float64

// LossMetric tracks the sample-weighted mean of a loss function.
type LossMetric struct {
	name string
	fn   LossFunc

	sum float64
	n   int
}

// NewLossMetric wraps a loss function as a metric under the given display
// name.
func NewLossMetric(name string, fn LossFunc) *LossMetric {
	return &LossMetric{name: name, fn: fn}
}

func (m *LossMetric) Name() string { return m.name }

func (m *LossMetric) Update(pred, target []float64) error {
	if len(pred) != len(target) {
		return gophetErrors.NewDimensionError("LossMetric.Update", len(target), len(pred), 0)
	}
	if len(pred) == 0 {
		return nil
	}
	m.sum += m.fn(pred, target) * float64(len(pred))
	m.n += len(pred)
	return nil
}

func (m *LossMetric) Compute() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func (m *LossMetric) Reset() { m.sum, m.n = 0, 0 }

// ValueMetric tracks the mean of a scalar pushed by the training loop, such
// as the regularized batch loss.
type ValueMetric struct {
	name string

	sum float64
	n   int
}

// NewValueMetric returns a named scalar tracker.
func NewValueMetric(name string) *ValueMetric {
	return &ValueMetric{name: name}
}

func (m *ValueMetric) Name() string { return m.name }

// Push records one scalar observation.
func (m *ValueMetric) Push(v float64) {
	m.sum += v
	m.n++
}

func (m *ValueMetric) Compute() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

func (m *ValueMetric) Reset() { m.sum, m.n = 0, 0 }

// Collection bundles the metrics and value trackers recorded each epoch.
type Collection struct {
	metrics []Metric
	values  []*ValueMetric
}

// NewCollection builds a collection over the given metric objects.
func NewCollection(ms []Metric, vs []*ValueMetric) *Collection {
	return &Collection{metrics: ms, values: vs}
}

// Update folds a batch into every metric.
func (c *Collection) Update(pred, target []float64) error {
	for _, m := range c.metrics {
		if err := m.Update(pred, target); err != nil {
			return err
		}
	}
	return nil
}

// Push records a scalar into the named value tracker; unknown names are
// dropped.
func (c *Collection) Push(name string, v float64) {
	for _, vm := range c.values {
		if vm.Name() == name {
			vm.Push(v)
			return
		}
	}
}

// Compute snapshots every metric and value tracker by name.
func (c *Collection) Compute() map[string]float64 {
	out := make(map[string]float64, len(c.metrics)+len(c.values))
	for _, m := range c.metrics {
		out[m.Name()] = m.Compute()
	}
	for _, vm := range c.values {
		out[vm.Name()] = vm.Compute()
	}
	return out
}

// Reset clears every metric for the next epoch.
func (c *Collection) Reset() {
	for _, m := range c.metrics {
		m.Reset()
	}
	for _, vm := range c.values {
		vm.Reset()
	}
}

// Names lists every metric and value tracker name, metrics first.
func (c *Collection) Names() []string {
	out := make([]string, 0, len(c.metrics)+len(c.values))
	for _, m := range c.metrics {
		out = append(out, m.Name())
	}
	for _, vm := range c.values {
		out = append(out, vm.Name())
	}
	return out
}

// Len returns the number of metric objects (value trackers excluded).
func (c *Collection) Len() int { return len(c.metrics) }

// Metrics returns the metric objects in collection order.
func (c *Collection) Metrics() []Metric { return c.metrics }

// History accumulates per-epoch metric snapshots.
type History struct {
	Epochs []int
	Values map[string][]float64
}

// NewHistory returns an empty history.
func NewHistory() *History {
	return &History{Values: map[string][]float64{}}
}

// Add appends one epoch's snapshot.
func (h *History) Add(epoch int, snapshot map[string]float64) {
	h.Epochs = append(h.Epochs, epoch)
	for name, v := range snapshot {
		h.Values[name] = append(h.Values[name], v)
	}
}

// Last returns the most recent value recorded under name.
func (h *History) Last(name string) (float64, bool) {
	vs, ok := h.Values[name]
	if !ok || len(vs) == 0 {
		return 0, false
	}
	return vs[len(vs)-1], true
}
