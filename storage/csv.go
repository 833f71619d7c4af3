package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"gta_pricer/models"
)

// datasetHeader is the canonical column order of the exported dataset.
var datasetHeader = []string{
	"id", "address", "listing_type", "beds", "baths", "price",
	"formatted_address", "street_number", "route", "locality", "postal_code",
	"latitude", "longitude",
}

// ExportCSV writes the enriched dataset as one tabular file. Missing values
// are written as empty cells.
func ExportCSV(path string, listings []models.EnrichedListing) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetHeader); err != nil {
		return err
	}

	for _, e := range listings {
		record := []string{
			e.ID.String(),
			e.Address,
			string(e.Type),
			intCell(e.Beds),
			intCell(e.Baths),
			intCell(e.Price),
			e.FormattedAddress,
			strCell(e.StreetNumber),
			strCell(e.Route),
			strCell(e.Locality),
			strCell(e.PostalCode),
			floatCell(e.Latitude),
			floatCell(e.Longitude),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func intCell(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func strCell(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
