package geocode

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gta_pricer/models"
)

func loadResponse(t *testing.T, name string) *models.GeocodeResponse {
	t.Helper()
	path := filepath.Join("testdata", name)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read fixture %s: %v", name, err)
	}
	var resp models.GeocodeResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		t.Fatalf("failed to parse fixture %s: %v", name, err)
	}
	return &resp
}

func TestExtract_Basic(t *testing.T) {
	resp := loadResponse(t, "geocode_basic.json")

	cases := []struct {
		field Field
		want  string
	}{
		{FieldStreetNumber, "123"},
		{FieldRoute, "Main Street"},
		{FieldLocality, "Toronto"},
		{FieldSublocality, "Old Toronto"},
		{FieldPostalCode, "M5V 2T6"},
		{FieldFormattedAddress, "123 Main St, Toronto, ON M5V 2T6, Canada"},
	}

	for _, tc := range cases {
		got := Extract(resp, tc.field)
		if !got.Valid {
			t.Fatalf("%s: expected value, got missing", tc.field)
		}
		if got.Str != tc.want {
			t.Fatalf("%s: expected %q, got %q", tc.field, tc.want, got.Str)
		}
	}
}

// Latitude must come from the lat key and longitude from lng. An earlier
// revision of the parser crossed the two; this pins the corrected mapping.
func TestExtract_CoordinatesNotSwapped(t *testing.T) {
	resp := loadResponse(t, "geocode_basic.json")

	lat := Extract(resp, FieldLatitude)
	lng := Extract(resp, FieldLongitude)
	if !lat.Valid || !lng.Valid {
		t.Fatalf("expected coordinates, got lat=%v lng=%v", lat.Valid, lng.Valid)
	}
	if lat.Num != 43.645233 {
		t.Fatalf("expected latitude 43.645233, got %f", lat.Num)
	}
	if lng.Num != -79.395991 {
		t.Fatalf("expected longitude -79.395991, got %f", lng.Num)
	}
	if lat.Num < 0 || lng.Num > 0 {
		t.Fatalf("coordinate signs swapped: lat=%f lng=%f", lat.Num, lng.Num)
	}
}

func TestExtract_MeanOverAmbiguousResults(t *testing.T) {
	resp := loadResponse(t, "geocode_multi_result.json")

	lat := Extract(resp, FieldLatitude)
	lng := Extract(resp, FieldLongitude)
	if math.Abs(lat.Num-44.0) > 1e-9 {
		t.Fatalf("expected mean latitude 44.0, got %f", lat.Num)
	}
	if math.Abs(lng.Num-(-80.0)) > 1e-9 {
		t.Fatalf("expected mean longitude -80.0, got %f", lng.Num)
	}
}

// A response with only a sublocality component must not leak it through
// the locality field: "sublocality" is not a whole-word "locality" match.
func TestExtract_SublocalityDoesNotMatchLocality(t *testing.T) {
	resp := loadResponse(t, "geocode_sublocality_only.json")

	locality := Extract(resp, FieldLocality)
	if locality.Valid {
		t.Fatalf("expected missing locality, got %q", locality.Str)
	}

	sublocality := Extract(resp, FieldSublocality)
	if !sublocality.Valid || sublocality.Str != "Scarborough" {
		t.Fatalf("expected sublocality Scarborough, got %+v", sublocality)
	}
}

func TestExtract_ZeroResults(t *testing.T) {
	resp := loadResponse(t, "geocode_zero_results.json")

	fields := []Field{
		FieldStreetNumber, FieldRoute, FieldSublocality, FieldLocality,
		FieldPostalCode, FieldFormattedAddress, FieldLatitude, FieldLongitude,
	}
	for _, field := range fields {
		if got := Extract(resp, field); got.Valid {
			t.Fatalf("%s: expected missing for empty response, got %+v", field, got)
		}
	}
}

func TestExtract_NilResponse(t *testing.T) {
	if got := Extract(nil, FieldLocality); got.Valid {
		t.Fatalf("expected missing for nil response, got %+v", got)
	}
}

func TestExtract_MissingComponent(t *testing.T) {
	resp := loadResponse(t, "geocode_multi_result.json")

	// Fixture has no street_number or postal_code components.
	if got := Extract(resp, FieldStreetNumber); got.Valid {
		t.Fatalf("expected missing street number, got %q", got.Str)
	}
	if got := Extract(resp, FieldPostalCode); got.Valid {
		t.Fatalf("expected missing postal code, got %q", got.Str)
	}
}
