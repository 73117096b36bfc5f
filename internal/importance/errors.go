package importance

import "errors"

var (
	// ErrParse reports a feature name that cannot be decomposed into
	// two residue ids.
	ErrParse = errors.New("malformed feature name")

	// ErrEmptyInput reports an aggregation requested on an empty
	// feature set, where the normalization maximum is undefined.
	ErrEmptyInput = errors.New("empty feature set")

	// ErrInsufficientComponents reports that the cumulative explained
	// variance across all supplied principal components never exceeds
	// the requested cutoff.
	ErrInsufficientComponents = errors.New("variance cutoff unreachable with supplied components")
)
