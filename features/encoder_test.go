package features

import (
	"reflect"
	"testing"

	"gta_pricer/models"
)

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

func f64Ptr(v float64) *float64 { return &v }

func sampleListings() []models.EnrichedListing {
	return []models.EnrichedListing{
		{
			NormalizedListing: models.NormalizedListing{
				Type: models.TypeCondo, Beds: intPtr(2), Baths: intPtr(2), Price: intPtr(650000),
			},
			Locality:   strPtr("Toronto"),
			PostalCode: strPtr("M5V 2T6"),
			Latitude:   f64Ptr(43.6),
			Longitude:  f64Ptr(-79.4),
		},
		{
			NormalizedListing: models.NormalizedListing{
				Type: models.TypeDetached, Beds: intPtr(4), Baths: intPtr(3), Price: intPtr(1200000),
			},
			Locality:   strPtr("Markham"),
			PostalCode: strPtr("L3R 9W3"),
		},
		{
			NormalizedListing: models.NormalizedListing{
				Type: models.TypeCondo, Beds: nil, Baths: intPtr(1), Price: intPtr(480000),
			},
			Locality:   strPtr("Sauga City"), // not on the allow-list
			PostalCode: nil,
		},
		{
			// No price: must be excluded from the training rows.
			NormalizedListing: models.NormalizedListing{
				Type: models.TypeTownhome, Beds: intPtr(3), Baths: intPtr(2), Price: nil,
			},
			Locality: strPtr("Oakville"),
		},
	}
}

func TestBuildRows(t *testing.T) {
	rows := BuildRows(sampleListings())
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows (priceless listing skipped), got %d", len(rows))
	}

	first := rows[0]
	if first.Categorical[FieldListingType] != "condo" {
		t.Fatalf("expected listing_type condo, got %q", first.Categorical[FieldListingType])
	}
	if first.Categorical[FieldLocalityBucket] != "Toronto" {
		t.Fatalf("expected locality bucket Toronto, got %q", first.Categorical[FieldLocalityBucket])
	}
	if first.Categorical[FieldPostalPrefix] != "M5V" {
		t.Fatalf("expected postal prefix M5V, got %q", first.Categorical[FieldPostalPrefix])
	}
	if first.Price != 650000 {
		t.Fatalf("expected price 650000, got %f", first.Price)
	}

	third := rows[2]
	if third.Categorical[FieldLocalityBucket] != OtherBucket {
		t.Fatalf("expected off-list locality to bucket as %s, got %q", OtherBucket, third.Categorical[FieldLocalityBucket])
	}
	if third.Categorical[FieldPostalPrefix] != "" {
		t.Fatalf("expected empty prefix for missing postal code, got %q", third.Categorical[FieldPostalPrefix])
	}
	if third.Numeric[FieldBeds] != 0 {
		t.Fatalf("expected missing beds to coerce to 0, got %f", third.Numeric[FieldBeds])
	}
}

func TestLocalityBucket(t *testing.T) {
	if got := LocalityBucket(strPtr("Richmond Hill")); got != "Richmond Hill" {
		t.Fatalf("expected allow-listed city to pass through, got %q", got)
	}
	if got := LocalityBucket(strPtr("Buffalo")); got != OtherBucket {
		t.Fatalf("expected off-list city to bucket, got %q", got)
	}
	if got := LocalityBucket(nil); got != OtherBucket {
		t.Fatalf("expected nil locality to bucket, got %q", got)
	}
}

func TestPostalPrefix(t *testing.T) {
	if got := PostalPrefix(strPtr("M5V 2T6")); got != "M5V" {
		t.Fatalf("expected M5V, got %q", got)
	}
	if got := PostalPrefix(strPtr("M5")); got != "" {
		t.Fatalf("expected empty prefix for truncated code, got %q", got)
	}
	if got := PostalPrefix(nil); got != "" {
		t.Fatalf("expected empty prefix for nil code, got %q", got)
	}
}

func TestFit_SortedDeterministicLevels(t *testing.T) {
	rows := BuildRows(sampleListings())

	spec := Fit(rows)
	if len(spec.Categorical) != 3 {
		t.Fatalf("expected 3 categorical fields, got %d", len(spec.Categorical))
	}
	if spec.Categorical[0].Name != FieldListingType {
		t.Fatalf("expected listing_type first, got %s", spec.Categorical[0].Name)
	}
	wantTypes := []string{"condo", "detached"}
	if !reflect.DeepEqual(spec.Categorical[0].Levels, wantTypes) {
		t.Fatalf("expected sorted levels %v, got %v", wantTypes, spec.Categorical[0].Levels)
	}
	wantLocalities := []string{"Markham", OtherBucket, "Toronto"}
	if !reflect.DeepEqual(spec.Categorical[1].Levels, wantLocalities) {
		t.Fatalf("expected sorted levels %v, got %v", wantLocalities, spec.Categorical[1].Levels)
	}

	// Fitting the same rows again yields an identical spec.
	again := Fit(rows)
	if !reflect.DeepEqual(spec, again) {
		t.Fatalf("fit is not deterministic:\n%+v\n%+v", spec, again)
	}
}

func TestApply_FixedWidthAndOrder(t *testing.T) {
	rows := BuildRows(sampleListings())
	spec := Fit(rows)

	matrix := Apply(rows, spec)
	if len(matrix) != len(rows) {
		t.Fatalf("expected %d encoded rows, got %d", len(rows), len(matrix))
	}

	width := Width(spec)
	names := ColumnNames(spec)
	if len(names) != width {
		t.Fatalf("column names (%d) disagree with width (%d)", len(names), width)
	}
	for i, vec := range matrix {
		if len(vec) != width {
			t.Fatalf("row %d has width %d, want %d", i, len(vec), width)
		}
	}

	// Exactly one indicator per categorical field fires for a seen level.
	first := matrix[0]
	offset := 0
	for _, field := range spec.Categorical {
		ones := 0.0
		for _, v := range first[offset : offset+len(field.Levels)] {
			ones += v
		}
		if ones != 1 {
			t.Fatalf("field %s: expected exactly one indicator set, got %f", field.Name, ones)
		}
		offset += len(field.Levels)
	}
	// Numeric passthrough occupies the trailing columns.
	if first[width-2] != 2 || first[width-1] != 2 {
		t.Fatalf("expected beds=2 baths=2 in trailing columns, got %v", first[width-2:])
	}
}

func TestApply_UnseenLevelEncodesAllZeros(t *testing.T) {
	rows := BuildRows(sampleListings())
	spec := Fit(rows)
	width := Width(spec)

	unseen := []Row{{
		Categorical: map[string]string{
			FieldListingType:    "townhome", // never seen at fit time
			FieldLocalityBucket: "Toronto",
			FieldPostalPrefix:   "X9X",
		},
		Numeric: map[string]float64{FieldBeds: 3, FieldBaths: 2},
		Price:   700000,
	}}

	matrix := Apply(unseen, spec)
	if len(matrix[0]) != width {
		t.Fatalf("unseen level changed the width: got %d, want %d", len(matrix[0]), width)
	}

	typeLevels := spec.Categorical[0].Levels
	for i, v := range matrix[0][:len(typeLevels)] {
		if v != 0 {
			t.Fatalf("expected all-zero encoding for unseen listing_type, column %d is %f", i, v)
		}
	}
}

func TestTargets(t *testing.T) {
	rows := BuildRows(sampleListings())
	targets := Targets(rows)
	want := []float64{650000, 1200000, 480000}
	if !reflect.DeepEqual(targets, want) {
		t.Fatalf("expected targets %v, got %v", want, targets)
	}
}

func TestMetadata(t *testing.T) {
	rows := BuildRows(sampleListings())
	meta := Metadata(rows)

	if !reflect.DeepEqual(meta.Categorical[FieldListingType], []string{"condo", "detached"}) {
		t.Fatalf("unexpected listing_type values: %v", meta.Categorical[FieldListingType])
	}
	priceRange, ok := meta.Numeric["price"]
	if !ok {
		t.Fatal("expected a price range in the metadata")
	}
	if priceRange.Min != 480000 || priceRange.Max != 1200000 {
		t.Fatalf("unexpected price range: %+v", priceRange)
	}
	bedsRange := meta.Numeric[FieldBeds]
	if bedsRange.Min != 0 || bedsRange.Max != 4 {
		t.Fatalf("unexpected beds range: %+v", bedsRange)
	}
}
