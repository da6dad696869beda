package forecast

import (
	"math"

	"github.com/gophet/gophet/config"
	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

// Loss couples everything the trainer needs to know about one loss
// function: the reported value in prediction space, the gradient with
// respect to the raw network output, the output activation, and whether
// targets are z-scored for training.
type Loss interface {
	// Name is the canonical lowercase identifier.
	Name() string
	// Display is the name the loss metric is reported under.
	Display() string
	// Value returns the mean loss over aligned prediction/target pairs in
	// prediction space.
	Value(pred, target []float64) float64
	// OutputGrad returns dLoss/dz for one sample, z being the raw network
	// output before activation.
	OutputGrad(z, target float64) float64
	// Activate maps a raw network output to prediction space.
	Activate(z float64) float64
	// ScalesTarget reports whether training targets are standardized.
	ScalesTarget() bool
}

// LossByName maps a validated loss identifier to its implementation.
func LossByName(name string) (Loss, error) {
	switch name {
	case config.LossHuber:
		return huberLoss{}, nil
	case config.LossMSE:
		return mseLoss{}, nil
	case config.LossMAE:
		return maeLoss{}, nil
	case config.LossBCE, config.LossBCELoss:
		return bceLoss{name: name}, nil
	default:
		return nil, gophetErrors.NewValidationError("loss_func", "unknown loss function", name)
	}
}

type huberLoss struct{}

func (huberLoss) Name() string    { return config.LossHuber }
func (huberLoss) Display() string { return "HuberLoss" }

func (huberLoss) Value(pred, target []float64) float64 {
	sum := 0.0
	for i := range pred {
		e := math.Abs(pred[i] - target[i])
		if e <= 1 {
			sum += 0.5 * e * e
		} else {
			sum += e - 0.5
		}
	}
	return sum / float64(len(pred))
}

func (huberLoss) OutputGrad(z, target float64) float64 {
	e := z - target
	if math.Abs(e) <= 1 {
		return e
	}
	if e > 0 {
		return 1
	}
	return -1
}

func (huberLoss) Activate(z float64) float64 { return z }
func (huberLoss) ScalesTarget() bool         { return true }

type mseLoss struct{}

func (mseLoss) Name() string    { return config.LossMSE }
func (mseLoss) Display() string { return "MSELoss" }

func (mseLoss) Value(pred, target []float64) float64 {
	sum := 0.0
	for i := range pred {
		e := pred[i] - target[i]
		sum += e * e
	}
	return sum / float64(len(pred))
}

func (mseLoss) OutputGrad(z, target float64) float64 { return 2 * (z - target) }
func (mseLoss) Activate(z float64) float64           { return z }
func (mseLoss) ScalesTarget() bool                   { return true }

type maeLoss struct{}

func (maeLoss) Name() string    { return config.LossMAE }
func (maeLoss) Display() string { return "MAELoss" }

func (maeLoss) Value(pred, target []float64) float64 {
	sum := 0.0
	for i := range pred {
		sum += math.Abs(pred[i] - target[i])
	}
	return sum / float64(len(pred))
}

func (maeLoss) OutputGrad(z, target float64) float64 {
	switch {
	case z > target:
		return 1
	case z < target:
		return -1
	default:
		return 0
	}
}

func (maeLoss) Activate(z float64) float64 { return z }
func (maeLoss) ScalesTarget() bool         { return true }

// bceLoss is binary cross-entropy with a sigmoid output. Gradients are
// computed in logit space for numerical stability; Value clamps
// probabilities away from 0 and 1.
type bceLoss struct {
	name string
}

const bceEps = 1e-7

func (l bceLoss) Name() string  { return l.name }
func (bceLoss) Display() string { return "BCELoss" }

func (bceLoss) Value(pred, target []float64) float64 {
	sum := 0.0
	for i := range pred {
		p := pred[i]
		if p < bceEps {
			p = bceEps
		} else if p > 1-bceEps {
			p = 1 - bceEps
		}
		sum += -(target[i]*math.Log(p) + (1-target[i])*math.Log(1-p))
	}
	return sum / float64(len(pred))
}

func (bceLoss) OutputGrad(z, target float64) float64 { return sigmoid(z) - target }
func (bceLoss) Activate(z float64) float64           { return sigmoid(z) }
func (bceLoss) ScalesTarget() bool                   { return false }

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}
