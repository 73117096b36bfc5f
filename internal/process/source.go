// Package process turns raw model outputs into per-residue projections
// and auxiliary diagnostics. The original pipeline carried one wrapper
// per model family; here a single Processor works over any Source, and
// the sources only differ in how they produce a ranked importance map.
package process

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"mdpost/internal/importance"
)

// ErrInvalidSelection reports an unrecognized statistical method or an
// out-of-range feature count for probability-distribution selection.
var ErrInvalidSelection = errors.New("invalid selection")

// Statistical score tables carry one of these method labels.
const (
	MethodJensenShannon     = "jensen_shannon"
	MethodMutualInformation = "mutual_information"
	MethodLinearCorrelation = "linear_correlation"
)

// Source produces a ranked feature importance map, whatever the model
// family behind it.
type Source interface {
	// Name identifies the source in logs, metrics and report file names.
	Name() string
	// Importances returns the per-feature scores and their ranked order
	// (descending importance).
	Importances() (importance.FeatureImportance, []string, error)
}

// ModelSource wraps importances already extracted from a trained
// supervised model (feature_importances_-style scores).
type ModelSource struct {
	Model  string
	Scores importance.FeatureImportance
}

func (s ModelSource) Name() string { return s.Model }

func (s ModelSource) Importances() (importance.FeatureImportance, []string, error) {
	if len(s.Scores) == 0 {
		return nil, nil, fmt.Errorf("model %s: %w", s.Model, importance.ErrEmptyInput)
	}
	return s.Scores, s.Scores.RankedNames(), nil
}

// PCASource wraps a principal component decomposition and derives
// importances from it on demand.
type PCASource struct {
	Model    string
	Ratios   []float64
	Loadings []map[string]float64
	// Cutoff is the variance-explained fraction to retain; zero means
	// importance.DefaultVarianceCutoff.
	Cutoff float64
}

func (s PCASource) Name() string {
	if s.Model != "" {
		return s.Model
	}
	return "PCA"
}

func (s PCASource) Importances() (importance.FeatureImportance, []string, error) {
	res, err := importance.PCAImportance(s.Ratios, s.Loadings, s.Cutoff)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", s.Name(), err)
	}
	log.Info().
		Str("model", s.Name()).
		Float64("variance_covered", res.VarianceCovered).
		Int("components_used", res.ComponentsUsed).
		Int("components_total", len(s.Ratios)).
		Msg("Derived feature importances from principal components")
	return res.Importances, res.Ranked, nil
}

// StatSource wraps a statistical score table. Jensen-Shannon distances
// and mutual information are non-negative and pass through unchanged;
// linear-correlation scores are signed and take their absolute value so
// they cannot cancel during per-residue summation.
type StatSource struct {
	Method string
	Scores importance.FeatureImportance
}

func (s StatSource) Name() string { return s.Method }

func (s StatSource) Importances() (importance.FeatureImportance, []string, error) {
	switch s.Method {
	case MethodJensenShannon, MethodMutualInformation:
		if len(s.Scores) == 0 {
			return nil, nil, fmt.Errorf("%s: %w", s.Method, importance.ErrEmptyInput)
		}
		return s.Scores, s.Scores.RankedNames(), nil
	case MethodLinearCorrelation:
		if len(s.Scores) == 0 {
			return nil, nil, fmt.Errorf("%s: %w", s.Method, importance.ErrEmptyInput)
		}
		abs := s.Scores.Abs()
		return abs, abs.RankedNames(), nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown statistical method %q (want %s, %s or %s)",
			ErrInvalidSelection, s.Method, MethodJensenShannon, MethodMutualInformation, MethodLinearCorrelation)
	}
}
