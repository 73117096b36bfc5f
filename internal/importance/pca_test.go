package importance

import (
	"errors"
	"math"
	"testing"
)

func TestPCAImportanceSingleComponent(t *testing.T) {
	t.Parallel()

	ratios := []float64{0.97, 0.03}
	loadings := []map[string]float64{
		{"A1 A2": 0.8, "A2 A3": -0.4},
		{"A1 A2": 0.0, "A2 A3": 0.9},
	}

	res, err := PCAImportance(ratios, loadings, 0.95)
	if err != nil {
		t.Fatal(err)
	}
	if res.ComponentsUsed != 1 {
		t.Fatalf("ComponentsUsed = %d, want 1 (first ratio alone exceeds cutoff)", res.ComponentsUsed)
	}
	if res.VarianceCovered != 0.97 {
		t.Errorf("VarianceCovered = %v, want 0.97", res.VarianceCovered)
	}

	// Only component 0 contributes: |0.8*0.97| vs |-0.4*0.97|,
	// normalized so the top feature is 1.0 and the other exactly half.
	if res.Importances["A1 A2"] != 1.0 {
		t.Errorf(`Importances["A1 A2"] = %v, want 1.0`, res.Importances["A1 A2"])
	}
	if math.Abs(res.Importances["A2 A3"]-0.5) > 1e-12 {
		t.Errorf(`Importances["A2 A3"] = %v, want 0.5`, res.Importances["A2 A3"])
	}
}

func TestPCAImportanceMultipleComponents(t *testing.T) {
	t.Parallel()

	ratios := []float64{0.6, 0.3, 0.08}
	loadings := []map[string]float64{
		{"A1 A2": 0.5, "A2 A3": -0.5},
		{"A1 A2": -0.2, "A2 A3": 0.9},
		{"A1 A2": 1.0, "A2 A3": 1.0}, // beyond cutoff, must be ignored
	}

	res, err := PCAImportance(ratios, loadings, 0.85)
	if err != nil {
		t.Fatal(err)
	}
	if res.ComponentsUsed != 2 {
		t.Fatalf("ComponentsUsed = %d, want 2", res.ComponentsUsed)
	}
	if math.Abs(res.VarianceCovered-0.9) > 1e-12 {
		t.Errorf("VarianceCovered = %v, want 0.9", res.VarianceCovered)
	}

	// Raw sums: A1 A2 -> |0.5*0.6| + |-0.2*0.3| = 0.36
	//           A2 A3 -> |-0.5*0.6| + |0.9*0.3| = 0.57
	if res.Importances["A2 A3"] != 1.0 {
		t.Errorf(`Importances["A2 A3"] = %v, want 1.0`, res.Importances["A2 A3"])
	}
	want := 0.36 / 0.57
	if math.Abs(res.Importances["A1 A2"]-want) > 1e-12 {
		t.Errorf(`Importances["A1 A2"] = %v, want %v`, res.Importances["A1 A2"], want)
	}
	if res.Ranked[0] != "A2 A3" {
		t.Errorf("Ranked[0] = %q, want \"A2 A3\"", res.Ranked[0])
	}
}

func TestPCAImportanceInsufficientComponents(t *testing.T) {
	t.Parallel()

	ratios := []float64{0.2, 0.2, 0.2}
	loadings := []map[string]float64{
		{"A1 A2": 0.5},
		{"A1 A2": 0.5},
		{"A1 A2": 0.5},
	}
	_, err := PCAImportance(ratios, loadings, 0.95)
	if !errors.Is(err, ErrInsufficientComponents) {
		t.Fatalf("error = %v, want ErrInsufficientComponents", err)
	}
}

func TestPCAImportanceNoComponents(t *testing.T) {
	t.Parallel()

	_, err := PCAImportance(nil, nil, 0.95)
	if !errors.Is(err, ErrInsufficientComponents) {
		t.Fatalf("error = %v, want ErrInsufficientComponents", err)
	}
}

func TestPCAImportanceLengthMismatch(t *testing.T) {
	t.Parallel()

	_, err := PCAImportance([]float64{0.99}, nil, 0.95)
	if err == nil || errors.Is(err, ErrInsufficientComponents) {
		t.Fatalf("error = %v, want a plain mismatch error", err)
	}
}

func TestPCAImportanceDefaultCutoff(t *testing.T) {
	t.Parallel()

	ratios := []float64{0.5, 0.46}
	loadings := []map[string]float64{
		{"A1 A2": 1.0},
		{"A1 A2": 1.0},
	}
	res, err := PCAImportance(ratios, loadings, 0)
	if err != nil {
		t.Fatal(err)
	}
	// 0.5 <= 0.95 so the second component is pulled in, reaching 0.96.
	if res.ComponentsUsed != 2 {
		t.Errorf("ComponentsUsed = %d, want 2 under the default cutoff", res.ComponentsUsed)
	}
}
