// Package train fits the price regressor. The model is deliberately kept
// behind the Regressor interface so the boosting implementation can be
// swapped for an external training service without touching callers.
package train

// Regressor predicts a listing price from an encoded feature vector.
type Regressor interface {
	Predict(features []float64) float64
}

// Config is the fixed numeric training configuration. Values are plain
// knobs; choosing them is out of scope for the pipeline.
type Config struct {
	TreeDepth        int     `json:"tree_depth"`
	LearningRate     float64 `json:"learning_rate"`
	Rounds           int     `json:"rounds"`
	Subsample        float64 `json:"subsample"`
	FeatureSubsample float64 `json:"feature_subsample"`
	MinLeaf          int     `json:"min_leaf"`
	Seed             int64   `json:"seed"`
}

func DefaultConfig() Config {
	return Config{
		TreeDepth:        4,
		LearningRate:     0.05,
		Rounds:           300,
		Subsample:        0.8,
		FeatureSubsample: 1.0,
		MinLeaf:          5,
		Seed:             42,
	}
}
