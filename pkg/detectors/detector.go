// Package detectors provides unsupervised anomaly detection algorithms.
package detectors

// Label is the binary verdict an outlier detector assigns to a sample.
type Label int

const (
	// Inlier marks a sample consistent with the bulk of the data.
	Inlier Label = 1
	// Outlier marks a sample the model isolates unusually fast.
	Outlier Label = -1
)

// Detector is the common interface for scoring detectors.
type Detector interface {
	// Fit trains the detector on historical data.
	// data is a 2D slice where each row is a sample and each column is a feature.
	Fit(data [][]float64) error

	// Predict returns anomaly scores for the given samples.
	// Scores are normalized to [0, 1] where higher values indicate anomalies.
	Predict(data [][]float64) ([]float64, error)

	// PredictOne returns the anomaly score for a single sample.
	PredictOne(sample []float64) (float64, error)
}

// OutlierDetector fits a model on a feature matrix and labels every row of
// that same matrix in one call. Implementations must be deterministic for a
// given seed and keep no state between calls.
type OutlierDetector interface {
	FitPredict(features [][]float64, contamination float64, seed int64) ([]Label, error)
}

// Config holds common configuration for detectors.
type Config struct {
	// Contamination is the expected proportion of anomalies in training data.
	Contamination float64
	// RandomSeed for reproducibility.
	RandomSeed int64
}

// DefaultConfig returns the defaults used when the caller supplies nothing.
func DefaultConfig() Config {
	return Config{
		Contamination: 0.05,
		RandomSeed:    42,
	}
}
