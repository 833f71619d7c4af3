package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gta_pricer/geocode"
	"gta_pricer/models"
	"gta_pricer/storage"
)

// Geocoder is the lookup capability the enricher depends on.
type Geocoder interface {
	Lookup(ctx context.Context, address string) (*models.GeocodeResponse, error)
}

// EnrichStats summarizes one enrichment pass.
type EnrichStats struct {
	Processed int
	CacheHits int
	Enriched  int
	Dropped   int // failed the country filter
	Failed    int // geocode lookup failed, will be retried
	Elapsed   time.Duration
}

func (s *EnrichStats) add(o EnrichStats) {
	s.Processed += o.Processed
	s.CacheHits += o.CacheHits
	s.Enriched += o.Enriched
	s.Dropped += o.Dropped
	s.Failed += o.Failed
}

// Enricher geocodes normalized listings and persists the enriched dataset.
// Responses are cached by address, so re-running after an interrupt only
// geocodes rows that never got an answer.
type Enricher struct {
	store        *storage.SQLiteStore
	mirror       *storage.PostgresStore // optional
	geocoder     Geocoder
	concurrency  int
	countryToken string
}

func NewEnricher(store *storage.SQLiteStore, mirror *storage.PostgresStore, geocoder Geocoder, concurrency int, countryToken string) *Enricher {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Enricher{
		store:        store,
		mirror:       mirror,
		geocoder:     geocoder,
		concurrency:  concurrency,
		countryToken: countryToken,
	}
}

const enrichBatchSize = 200

// EnrichAll drains the pending queue in batches until nothing is left.
func (e *Enricher) EnrichAll(ctx context.Context) (*EnrichStats, error) {
	start := time.Now()
	total := &EnrichStats{}

	for {
		if err := ctx.Err(); err != nil {
			total.Elapsed = time.Since(start)
			return total, err
		}

		batch, err := e.store.PendingEnrichment(enrichBatchSize)
		if err != nil {
			return total, fmt.Errorf("load pending listings: %w", err)
		}
		if len(batch) == 0 {
			break
		}

		stats := e.EnrichBatch(ctx, batch)
		total.add(*stats)

		// Every row either succeeded, was dropped, or had its attempt
		// counter bumped, so the queue always shrinks; a batch that made
		// no progress means cancellation.
		if stats.Processed == 0 {
			break
		}
	}

	total.Elapsed = time.Since(start)
	log.Printf("Enrich: %d processed in %s (%d enriched, %d dropped, %d failed, %d cache hits)",
		total.Processed, total.Elapsed.Round(time.Millisecond),
		total.Enriched, total.Dropped, total.Failed, total.CacheHits)
	return total, nil
}

// EnrichBatch processes one batch concurrently. Per-listing failures are
// counted and skipped; they never abort the batch.
func (e *Enricher) EnrichBatch(ctx context.Context, batch []models.RawListing) *EnrichStats {
	stats := &EnrichStats{}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	for _, raw := range batch {
		raw := raw
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			normalized := NormalizeListing(raw)
			enriched, cacheHit, err := e.enrichOne(gctx, normalized)

			mu.Lock()
			defer mu.Unlock()
			if cacheHit {
				stats.CacheHits++
			}

			switch {
			case err != nil:
				stats.Processed++
				stats.Failed++
				log.Printf("Enrich: %s: %v", raw.Address, err)
				if dbErr := e.store.IncrementGeocodeAttempts(raw.ID.String()); dbErr != nil {
					log.Printf("Enrich: warning: bump attempts for %s: %v", raw.ID, dbErr)
				}
			case enriched == nil:
				stats.Processed++
				stats.Dropped++
				if dbErr := e.store.MarkDropped(raw.ID.String()); dbErr != nil {
					log.Printf("Enrich: warning: mark dropped %s: %v", raw.ID, dbErr)
				}
			default:
				stats.Processed++
				stats.Enriched++
				if dbErr := e.store.UpsertEnriched(enriched); dbErr != nil {
					log.Printf("Enrich: warning: persist %s: %v", raw.ID, dbErr)
				}
				if e.mirror != nil {
					if dbErr := e.mirror.UpsertEnriched(gctx, enriched); dbErr != nil {
						log.Printf("Enrich: warning: mirror %s: %v", raw.ID, dbErr)
					}
				}
			}
			return nil
		})
	}
	g.Wait()

	return stats
}

// enrichOne geocodes one listing and extracts its location fields. A nil
// result with a nil error means the listing failed the country filter and
// is a deliberate drop, not an error.
func (e *Enricher) enrichOne(ctx context.Context, n models.NormalizedListing) (*models.EnrichedListing, bool, error) {
	resp, err := e.store.GetCachedGeocode(n.Address)
	if err != nil {
		return nil, false, fmt.Errorf("cache lookup: %w", err)
	}

	cacheHit := resp != nil
	if resp == nil {
		resp, err = e.geocoder.Lookup(ctx, n.Address)
		if err != nil {
			return nil, false, err
		}
		if cacheErr := e.store.PutCachedGeocode(n.Address, resp); cacheErr != nil {
			log.Printf("Enrich: warning: cache %s: %v", n.Address, cacheErr)
		}
	}

	formatted := geocode.Extract(resp, geocode.FieldFormattedAddress)
	if !formatted.Valid || !strings.Contains(formatted.Str, e.countryToken) {
		return nil, cacheHit, nil
	}

	enriched := &models.EnrichedListing{
		NormalizedListing: n,
		FormattedAddress:  formatted.Str,
		StreetNumber:      geocode.Extract(resp, geocode.FieldStreetNumber).StrPtr(),
		Route:             geocode.Extract(resp, geocode.FieldRoute).StrPtr(),
		Locality:          geocode.Extract(resp, geocode.FieldLocality).StrPtr(),
		Latitude:          geocode.Extract(resp, geocode.FieldLatitude).NumPtr(),
		Longitude:         geocode.Extract(resp, geocode.FieldLongitude).NumPtr(),
		GeocodedAt:        time.Now(),
	}

	// Postal code is only worth parsing for rows that survived the filter.
	enriched.PostalCode = geocode.Extract(resp, geocode.FieldPostalCode).StrPtr()

	return enriched, cacheHit, nil
}
