// Package artifacts handles where trained-model outputs come from and
// where they live between runs. The processing core only ever sees
// in-memory data; this package owns the BoltDB store, the HTTP fetch
// from the training service and the artifact-ready event stream.
package artifacts

import (
	"time"

	"mdpost/internal/process"
)

// ImportanceArtifact is one model's extracted feature importances as
// published by the training service.
type ImportanceArtifact struct {
	Model       string             `json:"model"`
	Method      string             `json:"method,omitempty"` // statistical tables only
	Importances map[string]float64 `json:"importances"`
	Ranked      []string           `json:"ranked,omitempty"`
	CreatedAt   time.Time          `json:"created_at"`
}

// PCAArtifact is a principal component decomposition: variance ratios
// in component order plus one loading vector per component.
type PCAArtifact struct {
	Model          string               `json:"model"`
	VarianceRatios []float64            `json:"variance_ratios"`
	Loadings       []map[string]float64 `json:"loadings"`
	CreatedAt      time.Time            `json:"created_at"`
}

// DistributionsArtifact carries the statistical model's per-class
// probability distributions, plus the raw per-class observations that
// back the directionality estimates.
type DistributionsArtifact struct {
	XValues      []float64                       `json:"x_values"`
	ClassNames   []string                        `json:"class_names"`
	FeatureOrder []string                        `json:"feature_order"`
	PerClass     map[string]map[string][]float64 `json:"per_class"`
	Observations map[string]map[string][]float64 `json:"observations,omitempty"`
	CreatedAt    time.Time                       `json:"created_at"`
}

// Distributions converts the artifact into the processing form.
func (a *DistributionsArtifact) Distributions() *process.Distributions {
	return &process.Distributions{
		XValues:      a.XValues,
		ClassNames:   a.ClassNames,
		FeatureOrder: a.FeatureOrder,
		PerClass:     a.PerClass,
	}
}
