package scraper

import (
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"

	"gta_pricer/models"
)

// Search-result tile selectors. A layout change shows up as zero matches,
// which is indistinguishable from a legitimately empty result page; the
// aggregator treats both as end-of-category.
const (
	selTile    = "div.property-tile"
	selAddress = ".property-address"
	selBeds    = ".property-beds"
	selBaths   = ".property-baths"
	selPrice   = ".property-price"
)

// ExtractListings parses one search page into raw records tagged with the
// category being scraped. Text fields are kept verbatim; normalization is a
// separate stage.
func ExtractListings(doc *goquery.Document, listingType models.ListingType) []models.RawListing {
	now := time.Now()

	var listings []models.RawListing
	doc.Find(selTile).Each(func(i int, s *goquery.Selection) {
		address := strings.TrimSpace(s.Find(selAddress).Text())
		if address == "" {
			return
		}

		listings = append(listings, models.RawListing{
			ID:        uuid.New(),
			Address:   address,
			BedsText:  strings.TrimSpace(s.Find(selBeds).Text()),
			BathsText: strings.TrimSpace(s.Find(selBaths).Text()),
			PriceText: strings.TrimSpace(s.Find(selPrice).Text()),
			Type:      listingType,
			ScrapedAt: now,
		})
	})

	return listings
}
