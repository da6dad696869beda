package metrics

import (
	"math"
	"strings"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// ClassificationKind identifies one of the supported binary classification
// metrics.
type ClassificationKind int

const (
	KindAccuracy ClassificationKind = iota
	KindBalancedAccuracy
	KindF1Score
)

// String returns the short configuration token for the kind.
func (k ClassificationKind) String() string {
	switch k {
	case KindAccuracy:
		return "acc"
	case KindBalancedAccuracy:
		return "bal_acc"
	case KindF1Score:
		return "f1"
	default:
		return "unknown"
	}
}

// New builds the metric object for the kind. The mapping covers every kind.
func (k ClassificationKind) New() Metric {
	switch k {
	case KindBalancedAccuracy:
		return &BalancedAccuracy{}
	case KindF1Score:
		return &F1Score{}
	default:
		return &Accuracy{}
	}
}

// Kinds returns every supported classification metric kind.
func Kinds() []ClassificationKind {
	return []ClassificationKind{KindAccuracy, KindBalancedAccuracy, KindF1Score}
}

// ParseKind resolves a configuration token ("acc", "bal_acc", "f1", any
// case) to its kind.
func ParseKind(s string) (ClassificationKind, error) {
	switch strings.ToLower(s) {
	case "acc":
		return KindAccuracy, nil
	case "bal_acc":
		return KindBalancedAccuracy, nil
	case "f1":
		return KindF1Score, nil
	default:
		return 0, gophetErrors.NewValidationError("metric",
			"unknown classification metric, supported: acc, bal_acc, f1", s)
	}
}

// ResolveKinds interprets the loosely-typed collect_metrics configuration
// value:
//
//	nil          -> no metrics
//	bool         -> all kinds / none
//	string       -> one kind
//	[]string     -> listed kinds
//	[]any        -> listed kinds (strings, the YAML decoding of a list)
//	[]ClassificationKind -> as given
//
// Anything else is a configuration error.
func ResolveKinds(v interface{}) ([]ClassificationKind, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if val {
			return Kinds(), nil
		}
		return nil, nil
	case string:
		k, err := ParseKind(val)
		if err != nil {
			return nil, err
		}
		return []ClassificationKind{k}, nil
	case []string:
		out := make([]ClassificationKind, 0, len(val))
		for _, s := range val {
			k, err := ParseKind(s)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
		return out, nil
	case []interface{}:
		out := make([]ClassificationKind, 0, len(val))
		for _, e := range val {
			s, ok := e.(string)
			if !ok {
				return nil, gophetErrors.NewValidationError("collect_metrics",
					"list entries must be metric names", e)
			}
			k, err := ParseKind(s)
			if err != nil {
				return nil, err
			}
			out = append(out, k)
		}
		return out, nil
	case []ClassificationKind:
		for _, k := range val {
			if k < KindAccuracy || k > KindF1Score {
				return nil, gophetErrors.NewValidationError("collect_metrics",
					"unknown classification metric kind", int(k))
			}
		}
		return val, nil
	default:
		return nil, gophetErrors.NewValidationError("collect_metrics",
			"unsupported value type, use bool, string, or a list of names", v)
	}
}

// confusion accumulates binary confusion counts. Predictions are read as
// probabilities with a 0.5 decision threshold; pairs containing NaN are
// skipped.
type confusion struct {
	tp, fp, tn, fn float64
}

func (c *confusion) update(pred, target []float64) error {
	if len(pred) != len(target) {
		return gophetErrors.NewDimensionError("metrics.Update", len(target), len(pred), 0)
	}
	for i := range pred {
		if math.IsNaN(pred[i]) || math.IsNaN(target[i]) {
			continue
		}
		predPos := pred[i] >= 0.5
		truePos := target[i] >= 0.5
		switch {
		case predPos && truePos:
			c.tp++
		case predPos && !truePos:
			c.fp++
		case !predPos && truePos:
			c.fn++
		default:
			c.tn++
		}
	}
	return nil
}

func (c *confusion) reset() { *c = confusion{} }

// Accuracy is the fraction of correctly classified samples.
type Accuracy struct {
	confusion
}

func (m *Accuracy) Name() string { return "Accuracy" }

func (m *Accuracy) Update(pred, target []float64) error { return m.update(pred, target) }

func (m *Accuracy) Compute() float64 {
	total := m.tp + m.fp + m.tn + m.fn
	if total == 0 {
		return 0
	}
	return (m.tp + m.tn) / total
}

func (m *Accuracy) Reset() { m.reset() }

// BalancedAccuracy is the mean recall over the classes present in the
// targets, robust to class imbalance.
type BalancedAccuracy struct {
	confusion
}

func (m *BalancedAccuracy) Name() string { return "BalancedAccuracy" }

func (m *BalancedAccuracy) Update(pred, target []float64) error { return m.update(pred, target) }

func (m *BalancedAccuracy) Compute() float64 {
	sum, classes := 0.0, 0.0
	if m.tp+m.fn > 0 {
		sum += m.tp / (m.tp + m.fn)
		classes++
	}
	if m.tn+m.fp > 0 {
		sum += m.tn / (m.tn + m.fp)
		classes++
	}
	if classes == 0 {
		return 0
	}
	return sum / classes
}

func (m *BalancedAccuracy) Reset() { m.reset() }

// F1Score is the harmonic mean of precision and recall for the positive
// class; 0 when undefined.
type F1Score struct {
	confusion
}

func (m *F1Score) Name() string { return "F1Score" }

func (m *F1Score) Update(pred, target []float64) error { return m.update(pred, target) }

func (m *F1Score) Compute() float64 {
	denom := 2*m.tp + m.fp + m.fn
	if denom == 0 {
		return 0
	}
	return 2 * m.tp / denom
}

func (m *F1Score) Reset() { m.reset() }
