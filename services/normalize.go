package services

import (
	"regexp"
	"strconv"

	"gta_pricer/models"
)

var (
	// countNoise strips everything but digits and '+' so "3+1 beds"
	// reduces to "3+1".
	countNoise = regexp.MustCompile(`[^0-9+]`)
	// priceNoise strips currency symbols and thousands separators.
	priceNoise = regexp.MustCompile(`[^0-9]`)
)

// Normalize cleans the numeric-looking text fields of scraped listings.
// Fields that strip down to nothing become nil, never zero.
func Normalize(raw []models.RawListing) []models.NormalizedListing {
	result := make([]models.NormalizedListing, 0, len(raw))
	for _, r := range raw {
		result = append(result, NormalizeListing(r))
	}
	return result
}

// NormalizeListing cleans one raw record.
func NormalizeListing(r models.RawListing) models.NormalizedListing {
	return models.NormalizedListing{
		ID:      r.ID,
		Address: r.Address,
		Type:    r.Type,
		Beds:    parseLeadingCount(r.BedsText),
		Baths:   parseLeadingCount(r.BathsText),
		Price:   parsePrice(r.PriceText),
	}
}

// parseLeadingCount keeps only the leading digit of the stripped text:
// listings label basement rooms as "3+1", and the main count is what the
// model uses.
func parseLeadingCount(text string) *int {
	stripped := countNoise.ReplaceAllString(text, "")
	if stripped == "" || stripped[0] < '0' || stripped[0] > '9' {
		return nil
	}
	n := int(stripped[0] - '0')
	return &n
}

func parsePrice(text string) *int {
	stripped := priceNoise.ReplaceAllString(text, "")
	if stripped == "" {
		return nil
	}
	n, err := strconv.Atoi(stripped)
	if err != nil {
		return nil
	}
	return &n
}
