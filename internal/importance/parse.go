package importance

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseFeature decomposes a feature name into the two residue ids it
// references. The name must contain exactly two whitespace-separated
// residue tokens (an optional interaction-type suffix after the second
// token is ignored); repeated interior whitespace is tolerated. The
// residue id is the first digit run found in each token, so "ARG112"
// and "112Arg" both yield 112.
func ParseFeature(name string) (res1, res2 int, err error) {
	tokens := strings.Fields(name)
	if len(tokens) < 2 {
		return 0, 0, fmt.Errorf("%w: %q needs two residue tokens", ErrParse, name)
	}

	res1, err = residueID(tokens[0])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrParse, name, err)
	}
	res2, err = residueID(tokens[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %q: %v", ErrParse, name, err)
	}
	return res1, res2, nil
}

func residueID(token string) (int, error) {
	digits := digitRun.FindString(token)
	if digits == "" {
		return 0, fmt.Errorf("token %q has no residue number", token)
	}
	id, err := strconv.Atoi(digits)
	if err != nil {
		return 0, fmt.Errorf("token %q: %v", token, err)
	}
	return id, nil
}

// Rows parses every entry of a feature importance map into a FeatureRow.
// order fixes the iteration sequence (ranked order from the producing
// model); when nil the names are visited in descending-score order so
// repeated calls on the same input produce identical row slices.
func Rows(fi FeatureImportance, order []string) ([]FeatureRow, error) {
	if order == nil {
		order = fi.RankedNames()
	}

	rows := make([]FeatureRow, 0, len(order))
	for _, name := range order {
		score, ok := fi[name]
		if !ok {
			return nil, fmt.Errorf("%w: ranked name %q missing from importance map", ErrParse, name)
		}
		r1, r2, err := ParseFeature(name)
		if err != nil {
			return nil, err
		}
		rows = append(rows, FeatureRow{Res1: r1, Res2: r2, Score: score})
	}
	return rows, nil
}
