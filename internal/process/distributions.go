package process

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"gonum.org/v1/gonum/stat"
)

// AllFeatures selects every ranked feature when passed to
// SelectDistributions.
const AllFeatures = -1

// Distributions holds the per-class probability distributions computed
// by the statistical model: one density per class per feature, sampled
// at the shared XValues grid. FeatureOrder carries the features ranked
// by Jensen-Shannon distance; ClassNames preserves the class order the
// model was built with.
type Distributions struct {
	XValues      []float64
	ClassNames   []string
	FeatureOrder []string
	PerClass     map[string]map[string][]float64
}

// SelectDistributions returns the probability distributions of the top
// numberFeatures ranked features for every class, classes in their
// original order. AllFeatures, or any count at least the total, returns
// the full set. A non-positive count (other than AllFeatures) fails
// with ErrInvalidSelection.
func SelectDistributions(d *Distributions, numberFeatures int) (*Distributions, error) {
	total := len(d.FeatureOrder)
	if numberFeatures == AllFeatures || numberFeatures >= total {
		if numberFeatures != AllFeatures && numberFeatures < 1 {
			return nil, fmt.Errorf("%w: feature count %d", ErrInvalidSelection, numberFeatures)
		}
		return d, nil
	}
	if numberFeatures < 1 {
		return nil, fmt.Errorf("%w: feature count %d", ErrInvalidSelection, numberFeatures)
	}

	selected := &Distributions{
		XValues:      d.XValues,
		ClassNames:   d.ClassNames,
		FeatureOrder: d.FeatureOrder[:numberFeatures],
		PerClass:     make(map[string]map[string][]float64, len(d.ClassNames)),
	}
	for _, class := range d.ClassNames {
		perFeature := make(map[string][]float64, numberFeatures)
		for _, feature := range d.FeatureOrder[:numberFeatures] {
			perFeature[feature] = d.PerClass[class][feature]
		}
		selected.PerClass[class] = perFeature
	}
	return selected, nil
}

// ClassObservations maps class name -> feature name -> the raw contact
// scores observed for that feature in that class.
type ClassObservations map[string]map[string][]float64

// EstimateDirections assigns each feature the class with the higher
// mean contact score, the crudest possible directionality estimate.
// classNames must name exactly two classes present in perClass; the
// first class wins ties. The returned order lists features as they
// appear in featureOrder so the CSV output is reproducible.
func EstimateDirections(classNames []string, featureOrder []string, perClass ClassObservations) (map[string]string, error) {
	if len(classNames) != 2 {
		return nil, fmt.Errorf("%w: direction estimation needs exactly two classes, got %d",
			ErrInvalidSelection, len(classNames))
	}
	class0, class1 := classNames[0], classNames[1]
	obs0, ok0 := perClass[class0]
	obs1, ok1 := perClass[class1]
	if !ok0 || !ok1 {
		return nil, fmt.Errorf("%w: observations missing for class %q or %q",
			ErrInvalidSelection, class0, class1)
	}

	log.Warn().Msg("Direction estimates compare per-class mean contact scores only; interpret with care")

	directions := make(map[string]string, len(featureOrder))
	for _, feature := range featureOrder {
		mean0 := stat.Mean(obs0[feature], nil)
		mean1 := stat.Mean(obs1[feature], nil)
		if mean0 >= mean1 {
			directions[feature] = class0
		} else {
			directions[feature] = class1
		}
	}
	return directions, nil
}
