package iforest

import (
	"errors"
	"fmt"

	"github.com/hed1ad/crisiswatch/pkg/detectors"
)

// minSamples is the smallest matrix a forest can rank meaningfully.
const minSamples = 2

// Estimator adapts IsolationForest to detectors.OutlierDetector. It keeps
// only the structural options and builds a fresh forest per call.
type Estimator struct {
	opts []Option
}

var _ detectors.OutlierDetector = (*Estimator)(nil)

// NewEstimator returns an Estimator; contamination and seed options are
// overridden by FitPredict arguments.
func NewEstimator(opts ...Option) *Estimator {
	return &Estimator{opts: opts}
}

// FitPredict fits a forest on features and labels each of its rows.
func (e *Estimator) FitPredict(features [][]float64, contamination float64, seed int64) ([]detectors.Label, error) {
	if len(features) < minSamples {
		return nil, fmt.Errorf("need at least %d samples, got %d", minSamples, len(features))
	}
	if contamination <= 0 || contamination >= 1 {
		return nil, errors.New("contamination must be in (0, 1)")
	}

	opts := append([]Option{}, e.opts...)
	opts = append(opts, WithContamination(contamination), WithSeed(seed))

	forest := New(opts...)
	if err := forest.Fit(features); err != nil {
		return nil, err
	}

	scores, err := forest.Predict(features)
	if err != nil {
		return nil, err
	}
	return forest.Labels(scores)
}
