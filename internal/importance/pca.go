package importance

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// DefaultVarianceCutoff is the fraction of total variance the retained
// principal components must explain before the derivation stops adding
// further components.
const DefaultVarianceCutoff = 0.95

// PCAResult carries the derived feature importances together with the
// reporting context: how much variance the retained components cover
// and how many were used.
type PCAResult struct {
	Importances     FeatureImportance
	Ranked          []string
	VarianceCovered float64
	ComponentsUsed  int
}

// PCAImportance derives per-feature importances from a principal
// component decomposition. ratios are the explained-variance ratios in
// component order (descending); loadings[i] maps each feature name to
// its loading on component i; cutoff <= 0 falls back to
// DefaultVarianceCutoff.
//
// Components are retained from the first until the running variance
// total strictly exceeds the cutoff (the first component is always
// retained). Each retained loading is reweighted by its own component's
// variance ratio, absolute values are summed per feature, and the sums
// are rescaled so the top feature scores exactly 1.0.
func PCAImportance(ratios []float64, loadings []map[string]float64, cutoff float64) (*PCAResult, error) {
	if cutoff <= 0 {
		cutoff = DefaultVarianceCutoff
	}
	if len(ratios) == 0 {
		return nil, fmt.Errorf("%w: no components supplied", ErrInsufficientComponents)
	}
	if len(loadings) != len(ratios) {
		return nil, fmt.Errorf("pca importance: %d variance ratios but %d loading vectors", len(ratios), len(loadings))
	}

	combined := ratios[0]
	keep := 1
	for combined <= cutoff {
		if keep >= len(ratios) {
			return nil, fmt.Errorf("%w: %d components cover %.4f of variance, cutoff %.4f",
				ErrInsufficientComponents, len(ratios), combined, cutoff)
		}
		combined += ratios[keep]
		keep++
	}

	raw := make(FeatureImportance)
	for i := 0; i < keep; i++ {
		for name, loading := range loadings[i] {
			raw[name] += math.Abs(loading * ratios[i])
		}
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("pca importance: retained components carry no loadings")
	}

	values := make([]float64, 0, len(raw))
	for _, v := range raw {
		values = append(values, v)
	}
	max := floats.Max(values)

	scaled := make(FeatureImportance, len(raw))
	for name, v := range raw {
		scaled[name] = v / max
	}

	return &PCAResult{
		Importances:     scaled,
		Ranked:          scaled.RankedNames(),
		VarianceCovered: combined,
		ComponentsUsed:  keep,
	}, nil
}
