package models

// EncodingSpec is the fitted categorical-to-numeric transformation. The
// same instance must be applied at training and at inference time: column
// order is a function of the spec alone, never of the dataset being
// encoded.
type EncodingSpec struct {
	Categorical []CategoricalField `json:"categorical"`
	Numeric     []string           `json:"numeric"`
}

// CategoricalField records the ordered levels observed for one categorical
// feature at fit time. Each level becomes one indicator column.
type CategoricalField struct {
	Name   string   `json:"name"`
	Levels []string `json:"levels"`
}

// NumericRange is the observed (min, max) of a numeric field at fit time.
type NumericRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// CategoryMetadata is an immutable snapshot of the training dataset's
// value space, exported for downstream form validation.
type CategoryMetadata struct {
	Categorical map[string][]string     `json:"categorical"`
	Numeric     map[string]NumericRange `json:"numeric"`
}
