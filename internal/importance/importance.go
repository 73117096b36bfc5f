// Package importance holds the numeric core of the post-processing
// pipeline: decomposing pairwise interaction feature names into residue
// pairs, projecting per-feature scores onto a per-residue scale, and
// deriving per-feature importances from a PCA decomposition.
//
// Everything here is a pure in-memory transformation. Model loading,
// persistence and report writing live in their own packages and feed
// already-materialized data in.
package importance

import (
	"math"
	"sort"
)

// FeatureImportance maps a feature name to its raw or normalized score.
// Feature names follow the "<Res1> <Res2><type>" convention, e.g.
// "ARG112 GLU45 Hbond". Scores from correlation-type tables may be
// negative; see Abs.
type FeatureImportance map[string]float64

// FeatureRow is one parsed feature: the two residue ids named by the
// feature plus its score.
type FeatureRow struct {
	Res1  int
	Res2  int
	Score float64
}

// PerResidueImportance maps a residue id to its normalized score.
type PerResidueImportance map[int]float64

// ResidueScore is a single ranked entry of a per-residue projection.
type ResidueScore struct {
	Residue int
	Score   float64
}

// Abs returns a copy of the importance map with every score replaced by
// its absolute value. Linear-correlation scores are signed and must not
// cancel when summed per residue, so they pass through here first.
func (fi FeatureImportance) Abs() FeatureImportance {
	out := make(FeatureImportance, len(fi))
	for name, score := range fi {
		out[name] = math.Abs(score)
	}
	return out
}

// RankedNames returns the feature names sorted by descending score,
// ties broken by name so the order is reproducible.
func (fi FeatureImportance) RankedNames() []string {
	names := make([]string, 0, len(fi))
	for name := range fi {
		names = append(names, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		if fi[names[i]] != fi[names[j]] {
			return fi[names[i]] > fi[names[j]]
		}
		return names[i] < names[j]
	})
	return names
}

// round5 matches the 5-decimal rounding the per-residue CSV schema
// expects.
func round5(v float64) float64 {
	return math.Round(v*1e5) / 1e5
}

// Round4 rounds to 4 decimal places, the precision of the per-feature
// CSV schema.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
