// Package features turns enriched listings into the fixed-width numeric
// matrix the trainer consumes. The fitted EncodingSpec is the contract
// between training and inference: applying the same spec always yields the
// same columns in the same order, whatever the input dataset contains.
package features

import (
	"sort"

	"gta_pricer/models"
)

// Feature field names.
const (
	FieldListingType    = "listing_type"
	FieldLocalityBucket = "locality_bucket"
	FieldPostalPrefix   = "postal_prefix"
	FieldBeds           = "beds"
	FieldBaths          = "baths"
)

// categoricalFields is the canonical field order; column layout follows it.
var categoricalFields = []string{FieldListingType, FieldLocalityBucket, FieldPostalPrefix}

var numericFields = []string{FieldBeds, FieldBaths}

// OtherBucket absorbs localities outside the allow-list and missing values.
const OtherBucket = "Other"

var localityAllowList = map[string]struct{}{
	"Toronto":       {},
	"Mississauga":   {},
	"Vaughan":       {},
	"Brampton":      {},
	"Markham":       {},
	"Richmond Hill": {},
	"Oakville":      {},
	"Hamilton":      {},
	"Burlington":    {},
	"Barrie":        {},
	"Oshawa":        {},
	"Newmarket":     {},
	"Aurora":        {},
}

// Row is one model-ready observation.
type Row struct {
	Categorical map[string]string
	Numeric     map[string]float64
	Price       float64
}

// BuildRows derives feature rows from the enriched dataset. Listings with
// no price carry no training signal and are skipped; missing bed/bath
// counts coerce to zero.
func BuildRows(listings []models.EnrichedListing) []Row {
	rows := make([]Row, 0, len(listings))
	for _, e := range listings {
		if e.Price == nil || *e.Price <= 0 {
			continue
		}

		row := Row{
			Categorical: map[string]string{
				FieldListingType:    string(e.Type),
				FieldLocalityBucket: LocalityBucket(e.Locality),
				FieldPostalPrefix:   PostalPrefix(e.PostalCode),
			},
			Numeric: map[string]float64{
				FieldBeds:  floatOrZero(e.Beds),
				FieldBaths: floatOrZero(e.Baths),
			},
			Price: float64(*e.Price),
		}
		rows = append(rows, row)
	}
	return rows
}

// LocalityBucket collapses localities outside the fixed city allow-list
// (and missing values) into OtherBucket.
func LocalityBucket(locality *string) string {
	if locality == nil {
		return OtherBucket
	}
	if _, ok := localityAllowList[*locality]; ok {
		return *locality
	}
	return OtherBucket
}

// PostalPrefix is the forward sortation area: the first three characters
// of the postal code. Missing or truncated codes yield the empty prefix.
func PostalPrefix(postal *string) string {
	if postal == nil || len(*postal) < 3 {
		return ""
	}
	return (*postal)[:3]
}

// Fit records the distinct levels of each categorical field, sorted, plus
// the numeric passthrough fields. The result is the reusable EncodingSpec.
func Fit(rows []Row) *models.EncodingSpec {
	spec := &models.EncodingSpec{
		Numeric: append([]string(nil), numericFields...),
	}

	for _, field := range categoricalFields {
		seen := make(map[string]struct{})
		for _, row := range rows {
			seen[row.Categorical[field]] = struct{}{}
		}
		levels := make([]string, 0, len(seen))
		for level := range seen {
			levels = append(levels, level)
		}
		sort.Strings(levels)
		spec.Categorical = append(spec.Categorical, models.CategoricalField{
			Name:   field,
			Levels: levels,
		})
	}

	return spec
}

// Apply encodes rows against a previously fitted spec. Each recorded level
// becomes one indicator column in spec order; levels unseen at fit time
// encode as all zeros. Column layout never depends on the input rows.
func Apply(rows []Row, spec *models.EncodingSpec) [][]float64 {
	width := Width(spec)
	matrix := make([][]float64, len(rows))

	for i, row := range rows {
		vec := make([]float64, 0, width)
		for _, field := range spec.Categorical {
			value := row.Categorical[field.Name]
			for _, level := range field.Levels {
				if value == level {
					vec = append(vec, 1)
				} else {
					vec = append(vec, 0)
				}
			}
		}
		for _, field := range spec.Numeric {
			vec = append(vec, row.Numeric[field])
		}
		matrix[i] = vec
	}

	return matrix
}

// Width is the encoded column count of a spec.
func Width(spec *models.EncodingSpec) int {
	width := len(spec.Numeric)
	for _, field := range spec.Categorical {
		width += len(field.Levels)
	}
	return width
}

// ColumnNames lists the encoded columns in matrix order.
func ColumnNames(spec *models.EncodingSpec) []string {
	names := make([]string, 0, Width(spec))
	for _, field := range spec.Categorical {
		for _, level := range field.Levels {
			names = append(names, field.Name+"="+level)
		}
	}
	names = append(names, spec.Numeric...)
	return names
}

// Targets extracts the price vector aligned with Apply's row order.
func Targets(rows []Row) []float64 {
	targets := make([]float64, len(rows))
	for i, row := range rows {
		targets[i] = row.Price
	}
	return targets
}

func floatOrZero(v *int) float64 {
	if v == nil {
		return 0
	}
	return float64(*v)
}
