package metrics

import (
	"math"
	"testing"

	gophetErrors "github.com/gophet/gophet/pkg/errors"
)

const tol = 1e-9

func TestAccuracy(t *testing.T) {
	// pred classes: 1 0 1 0 ; targets: 1 0 0 1 -> 2 of 4 correct
	pred := []float64{0.9, 0.2, 0.7, 0.1}
	target := []float64{1, 0, 0, 1}

	m := &Accuracy{}
	if err := m.Update(pred, target); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got := m.Compute(); math.Abs(got-0.5) > tol {
		t.Errorf("accuracy = %v, want 0.5", got)
	}

	m.Reset()
	if got := m.Compute(); got != 0 {
		t.Errorf("accuracy after reset = %v, want 0", got)
	}
}

func TestAccuracyThreshold(t *testing.T) {
	// Exactly 0.5 counts as the positive class.
	m := &Accuracy{}
	if err := m.Update([]float64{0.5}, []float64{1}); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); got != 1 {
		t.Errorf("accuracy = %v, want 1 (0.5 is positive)", got)
	}
}

func TestBalancedAccuracy(t *testing.T) {
	// Class 1: 2 samples, 2 hit -> recall 1. Class 0: 2 samples, 1 hit ->
	// recall 0.5. Balanced accuracy 0.75.
	pred := []float64{0.8, 0.9, 0.3, 0.7}
	target := []float64{1, 1, 0, 0}

	m := &BalancedAccuracy{}
	if err := m.Update(pred, target); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); math.Abs(got-0.75) > tol {
		t.Errorf("balanced accuracy = %v, want 0.75", got)
	}
}

func TestBalancedAccuracySingleClass(t *testing.T) {
	// Only the positive class present: average over present classes only.
	m := &BalancedAccuracy{}
	if err := m.Update([]float64{0.9, 0.1}, []float64{1, 1}); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); math.Abs(got-0.5) > tol {
		t.Errorf("balanced accuracy = %v, want 0.5", got)
	}
}

func TestF1Score(t *testing.T) {
	// tp=2 fp=1 fn=1 -> precision 2/3, recall 2/3, f1 = 2/3.
	pred := []float64{0.9, 0.8, 0.6, 0.2, 0.1}
	target := []float64{1, 1, 0, 1, 0}

	m := &F1Score{}
	if err := m.Update(pred, target); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); math.Abs(got-2.0/3.0) > tol {
		t.Errorf("f1 = %v, want 2/3", got)
	}
}

func TestF1ScoreUndefined(t *testing.T) {
	// No positive predictions and no positive targets.
	m := &F1Score{}
	if err := m.Update([]float64{0.1, 0.2}, []float64{0, 0}); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); got != 0 {
		t.Errorf("undefined f1 = %v, want 0", got)
	}
}

func TestConfusionSkipsNaN(t *testing.T) {
	m := &Accuracy{}
	if err := m.Update([]float64{math.NaN(), 0.9}, []float64{1, 1}); err != nil {
		t.Fatal(err)
	}
	if got := m.Compute(); got != 1 {
		t.Errorf("accuracy = %v, want 1 (NaN pair skipped)", got)
	}
}

func TestUpdateDimensionMismatch(t *testing.T) {
	m := &Accuracy{}
	err := m.Update([]float64{1, 2}, []float64{1})
	var de *gophetErrors.DimensionError
	if !gophetErrors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    ClassificationKind
		wantErr bool
	}{
		{"acc", KindAccuracy, false},
		{"bal_acc", KindBalancedAccuracy, false},
		{"f1", KindF1Score, false},
		{"ACC", KindAccuracy, false},
		{"Bal_Acc", KindBalancedAccuracy, false},
		{"F1", KindF1Score, false},
		{"xyz", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseKind(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("ParseKind(%q) = %v, want %v", tt.in, got, tt.want)
			}
			if err != nil {
				var ve *gophetErrors.ValidationError
				if !gophetErrors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
			}
		})
	}
}

func TestKindNewTotalMapping(t *testing.T) {
	wantNames := map[ClassificationKind]string{
		KindAccuracy:         "Accuracy",
		KindBalancedAccuracy: "BalancedAccuracy",
		KindF1Score:          "F1Score",
	}
	for _, k := range Kinds() {
		m := k.New()
		if m == nil {
			t.Fatalf("kind %v produced nil metric", k)
		}
		if m.Name() != wantNames[k] {
			t.Errorf("kind %v metric name = %q, want %q", k, m.Name(), wantNames[k])
		}
	}
}

func TestResolveKinds(t *testing.T) {
	tests := []struct {
		name    string
		in      interface{}
		wantLen int
		wantErr bool
	}{
		{"nil", nil, 0, false},
		{"true", true, 3, false},
		{"false", false, 0, false},
		{"single string", "acc", 1, false},
		{"upper string", "F1", 1, false},
		{"string list", []string{"acc", "bal_acc"}, 2, false},
		{"any list", []interface{}{"f1", "acc"}, 2, false},
		{"kind list", []ClassificationKind{KindF1Score}, 1, false},
		{"empty list", []string{}, 0, false},
		{"unknown name", "xyz", 0, true},
		{"unknown in list", []string{"acc", "xyz"}, 0, true},
		{"non-string in any list", []interface{}{"acc", 42}, 0, true},
		{"unsupported type", 42, 0, true},
		{"out of range kind", []ClassificationKind{ClassificationKind(99)}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveKinds(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ResolveKinds(%v) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if err != nil {
				var ve *gophetErrors.ValidationError
				if !gophetErrors.As(err, &ve) {
					t.Errorf("expected ValidationError, got %T", err)
				}
				return
			}
			if len(got) != tt.wantLen {
				t.Errorf("ResolveKinds(%v) = %v, want %d kinds", tt.in, got, tt.wantLen)
			}
		})
	}
}

func BenchmarkAccuracyUpdate(b *testing.B) {
	pred := make([]float64, 1024)
	target := make([]float64, 1024)
	for i := range pred {
		pred[i] = float64(i%10) / 10
		target[i] = float64(i % 2)
	}
	m := &Accuracy{}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.Update(pred, target)
	}
}
