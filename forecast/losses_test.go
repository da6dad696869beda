package forecast

import (
	"math"
	"testing"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

const tol = 1e-9

func TestLossByName(t *testing.T) {
	tests := []struct {
		name        string
		wantDisplay string
		wantScales  bool
	}{
		{"huber", "HuberLoss", true},
		{"mse", "MSELoss", true},
		{"mae", "MAELoss", true},
		{"bce", "BCELoss", false},
		{"bceloss", "BCELoss", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := LossByName(tt.name)
			if err != nil {
				t.Fatalf("LossByName(%q): %v", tt.name, err)
			}
			if l.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", l.Name(), tt.name)
			}
			if l.Display() != tt.wantDisplay {
				t.Errorf("Display() = %q, want %q", l.Display(), tt.wantDisplay)
			}
			if l.ScalesTarget() != tt.wantScales {
				t.Errorf("ScalesTarget() = %v, want %v", l.ScalesTarget(), tt.wantScales)
			}
		})
	}

	_, err := LossByName("hinge")
	var ve *gophetErrors.ValidationError
	if !gophetErrors.As(err, &ve) {
		t.Errorf("unknown loss error = %v, want ValidationError", err)
	}
}

func TestHuberLoss(t *testing.T) {
	l := huberLoss{}
	// Small error quadratic, large error linear.
	if got := l.Value([]float64{0.5}, []float64{0}); math.Abs(got-0.125) > tol {
		t.Errorf("huber(0.5) = %v, want 0.125", got)
	}
	if got := l.Value([]float64{3}, []float64{0}); math.Abs(got-2.5) > tol {
		t.Errorf("huber(3) = %v, want 2.5", got)
	}
	if got := l.OutputGrad(0.5, 0); math.Abs(got-0.5) > tol {
		t.Errorf("grad(0.5) = %v, want 0.5", got)
	}
	if got := l.OutputGrad(3, 0); got != 1 {
		t.Errorf("grad(3) = %v, want 1", got)
	}
	if got := l.OutputGrad(-3, 0); got != -1 {
		t.Errorf("grad(-3) = %v, want -1", got)
	}
}

func TestMSELoss(t *testing.T) {
	l := mseLoss{}
	if got := l.Value([]float64{1, 3}, []float64{0, 0}); math.Abs(got-5) > tol {
		t.Errorf("mse = %v, want 5", got)
	}
	if got := l.OutputGrad(2, 1); math.Abs(got-2) > tol {
		t.Errorf("grad = %v, want 2", got)
	}
}

func TestMAELoss(t *testing.T) {
	l := maeLoss{}
	if got := l.Value([]float64{1, -3}, []float64{0, 0}); math.Abs(got-2) > tol {
		t.Errorf("mae = %v, want 2", got)
	}
	if l.OutputGrad(2, 1) != 1 || l.OutputGrad(0, 1) != -1 || l.OutputGrad(1, 1) != 0 {
		t.Error("mae gradient signs wrong")
	}
}

func TestBCELoss(t *testing.T) {
	l := bceLoss{name: "bce"}

	// -ln(0.9) for a confident correct prediction.
	if got, want := l.Value([]float64{0.9}, []float64{1}), -math.Log(0.9); math.Abs(got-want) > tol {
		t.Errorf("bce = %v, want %v", got, want)
	}
	// Clamped at the boundaries instead of returning Inf.
	if got := l.Value([]float64{0}, []float64{1}); math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("bce at p=0 = %v, want finite", got)
	}
	if got := l.Value([]float64{1}, []float64{0}); math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("bce at p=1 = %v, want finite", got)
	}

	// Logit-space gradient: sigmoid(z) - y.
	if got, want := l.OutputGrad(0, 1), -0.5; math.Abs(got-want) > tol {
		t.Errorf("grad(0, 1) = %v, want %v", got, want)
	}
	if got := l.Activate(0); math.Abs(got-0.5) > tol {
		t.Errorf("sigmoid(0) = %v, want 0.5", got)
	}
}

func TestSigmoidStability(t *testing.T) {
	tests := []struct {
		z    float64
		want float64
	}{
		{800, 1},
		{-800, 0},
		{0, 0.5},
	}
	for _, tt := range tests {
		got := sigmoid(tt.z)
		if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("sigmoid(%v) = %v, want %v", tt.z, got, tt.want)
		}
	}
}
