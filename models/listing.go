package models

import (
	"time"

	"github.com/google/uuid"
)

// ListingType is one of the four scraped search categories.
type ListingType string

const (
	TypeCondo         ListingType = "condo"
	TypeDetached      ListingType = "detached"
	TypeTownhome      ListingType = "townhome"
	TypeCondoTownhome ListingType = "condo_townhome"
)

// ListingTypes is the fixed set of categories, in scrape order.
var ListingTypes = []ListingType{TypeCondo, TypeDetached, TypeTownhome, TypeCondoTownhome}

// RawListing is one record exactly as extracted from a search result page.
// Numeric-looking fields stay as text until normalization.
type RawListing struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	Address   string      `json:"address" db:"address"`
	BedsText  string      `json:"beds_text" db:"beds_text"`
	BathsText string      `json:"baths_text" db:"baths_text"`
	PriceText string      `json:"price_text" db:"price_text"`
	Type      ListingType `json:"listing_type" db:"listing_type"`
	ScrapedAt time.Time   `json:"scraped_at" db:"scraped_at"`
	RunID     *int64      `json:"run_id" db:"run_id"`
}

// NormalizedListing is a RawListing with the text noise stripped out.
// Nil means the source text carried no usable number.
type NormalizedListing struct {
	ID      uuid.UUID   `json:"id" db:"id"`
	Address string      `json:"address" db:"address"`
	Type    ListingType `json:"listing_type" db:"listing_type"`
	Beds    *int        `json:"beds" db:"beds"`
	Baths   *int        `json:"baths" db:"baths"`
	Price   *int        `json:"price" db:"price"`
}

// EnrichedListing is a NormalizedListing plus geocoded location attributes.
// Only rows whose formatted address matched the country filter survive to
// this stage, so FormattedAddress is always set; the component fields stay
// nullable because the provider omits them freely.
type EnrichedListing struct {
	NormalizedListing
	FormattedAddress string    `json:"formatted_address" db:"formatted_address"`
	StreetNumber     *string   `json:"street_number" db:"street_number"`
	Route            *string   `json:"route" db:"route"`
	Locality         *string   `json:"locality" db:"locality"`
	PostalCode       *string   `json:"postal_code" db:"postal_code"`
	Latitude         *float64  `json:"latitude" db:"latitude"`
	Longitude        *float64  `json:"longitude" db:"longitude"`
	GeocodedAt       time.Time `json:"geocoded_at" db:"geocoded_at"`
}
