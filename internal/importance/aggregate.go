package importance

import (
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Options controls the per-residue aggregation.
type Options struct {
	// CompatShift reproduces the historical aggregation exactly: for
	// observed residues 1..M the output covers ids 2..M only (residue 1
	// is dropped), self-pair rows are counted twice, and normalization
	// uses the global maximum including dropped entries, so the output
	// maximum can be below 1.0. Off by default; the default form emits
	// one entry per observed residue with its maximum at exactly 1.0.
	CompatShift bool
}

// ResidueResult is the outcome of projecting feature scores onto
// residues: the normalized per-residue map plus the same entries ranked
// descending by score, ties broken by discovery order.
type ResidueResult struct {
	Scores PerResidueImportance
	Ranked []ResidueScore
}

// AggregateToResidues projects a feature importance map onto the
// per-residue level: each residue accumulates the scores of every
// feature naming it, and the totals are rescaled against the maximum
// and rounded to 5 decimals. order carries the producing model's ranked
// feature order; nil falls back to descending-score order.
func AggregateToResidues(fi FeatureImportance, order []string, opts Options) (*ResidueResult, error) {
	rows, err := Rows(fi, order)
	if err != nil {
		return nil, err
	}
	return AggregateRows(rows, opts)
}

// AggregateRows is AggregateToResidues over already-parsed rows.
func AggregateRows(rows []FeatureRow, opts Options) (*ResidueResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}
	if opts.CompatShift {
		return aggregateCompat(rows)
	}
	return aggregate(rows), nil
}

func aggregate(rows []FeatureRow) *ResidueResult {
	totals := make(map[int]float64)
	var discovered []int

	add := func(res int, score float64) {
		if _, seen := totals[res]; !seen {
			discovered = append(discovered, res)
		}
		totals[res] += score
	}

	for _, row := range rows {
		add(row.Res1, row.Score)
		if row.Res2 != row.Res1 {
			add(row.Res2, row.Score)
		}
	}

	values := make([]float64, len(discovered))
	for i, res := range discovered {
		values[i] = totals[res]
	}
	max := floats.Max(values)

	scores := make(PerResidueImportance, len(discovered))
	ranked := make([]ResidueScore, len(discovered))
	for i, res := range discovered {
		s := round5(totals[res] / max)
		scores[res] = s
		ranked[i] = ResidueScore{Residue: res, Score: s}
	}
	sortRanked(ranked)

	return &ResidueResult{Scores: scores, Ranked: ranked}
}

// aggregateCompat replays the reference behavior bit for bit. Residue
// ids are scanned 1..max observed; a self-pair row matches both the
// Res1 and Res2 sides and lands twice; the rescale loop stops one short
// so residue 1 never reaches the output, yet its total still competes
// for the normalization maximum.
func aggregateCompat(rows []FeatureRow) (*ResidueResult, error) {
	maxRes := 0
	for _, row := range rows {
		if row.Res1 > maxRes {
			maxRes = row.Res1
		}
		if row.Res2 > maxRes {
			maxRes = row.Res2
		}
	}
	if maxRes < 1 {
		return nil, ErrEmptyInput
	}

	totals := make([]float64, maxRes+1)
	for _, row := range rows {
		totals[row.Res1] += row.Score
		totals[row.Res2] += row.Score
	}

	max := floats.Max(totals[1:])

	scores := make(PerResidueImportance, maxRes-1)
	ranked := make([]ResidueScore, 0, maxRes-1)
	for res := 2; res <= maxRes; res++ {
		s := round5(totals[res] / max)
		scores[res] = s
		ranked = append(ranked, ResidueScore{Residue: res, Score: s})
	}
	sortRanked(ranked)

	return &ResidueResult{Scores: scores, Ranked: ranked}, nil
}

func sortRanked(ranked []ResidueScore) {
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
}
