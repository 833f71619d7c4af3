package storage

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"gta_pricer/models"
)

func TestExportCSV(t *testing.T) {
	beds, price := 3, 650000
	locality := "Toronto"
	lat := 43.645233

	listings := []models.EnrichedListing{
		{
			NormalizedListing: models.NormalizedListing{
				ID: uuid.New(), Address: "123 Main St", Type: models.TypeCondo,
				Beds: &beds, Price: &price,
			},
			FormattedAddress: "123 Main St, Toronto, ON, Canada",
			Locality:         &locality,
			Latitude:         &lat,
		},
		{
			// All optional fields missing.
			NormalizedListing: models.NormalizedListing{
				ID: uuid.New(), Address: "9 Bare Rd", Type: models.TypeDetached,
			},
			FormattedAddress: "9 Bare Rd, Canada",
		},
	}

	path := filepath.Join(t.TempDir(), "listings.csv")
	if err := ExportCSV(path, listings); err != nil {
		t.Fatalf("export: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d records", len(records))
	}
	if !reflect.DeepEqual(records[0], datasetHeader) {
		t.Fatalf("unexpected header: %v", records[0])
	}

	first := records[1]
	if first[1] != "123 Main St" || first[3] != "3" || first[5] != "650000" {
		t.Fatalf("unexpected first row: %v", first)
	}
	if first[9] != "Toronto" || first[11] != "43.645233" {
		t.Fatalf("unexpected location cells: %v", first)
	}
	// baths was nil and must export as an empty cell.
	if first[4] != "" {
		t.Fatalf("expected empty baths cell, got %q", first[4])
	}

	second := records[2]
	for _, col := range []int{3, 4, 5, 7, 8, 9, 10, 11, 12} {
		if second[col] != "" {
			t.Fatalf("expected empty cell at column %d, got %q", col, second[col])
		}
	}
}
