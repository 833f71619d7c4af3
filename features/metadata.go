package features

import (
	"math"
	"sort"

	"gta_pricer/models"
)

// Metadata snapshots the training dataset's value space: distinct values
// per categorical field and observed (min, max) per numeric field, price
// included. Consumed by the downstream app for form validation.
func Metadata(rows []Row) *models.CategoryMetadata {
	meta := &models.CategoryMetadata{
		Categorical: make(map[string][]string),
		Numeric:     make(map[string]models.NumericRange),
	}

	for _, field := range categoricalFields {
		seen := make(map[string]struct{})
		for _, row := range rows {
			seen[row.Categorical[field]] = struct{}{}
		}
		values := make([]string, 0, len(seen))
		for v := range seen {
			values = append(values, v)
		}
		sort.Strings(values)
		meta.Categorical[field] = values
	}

	for _, field := range numericFields {
		meta.Numeric[field] = numericRange(rows, func(r Row) float64 { return r.Numeric[field] })
	}
	meta.Numeric["price"] = numericRange(rows, func(r Row) float64 { return r.Price })

	return meta
}

func numericRange(rows []Row, pick func(Row) float64) models.NumericRange {
	if len(rows) == 0 {
		return models.NumericRange{}
	}

	min, max := math.Inf(1), math.Inf(-1)
	for _, row := range rows {
		v := pick(row)
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	return models.NumericRange{Min: min, Max: max}
}
