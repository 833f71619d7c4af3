package scraper

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"gta_pricer/config"
	"gta_pricer/models"
	"gta_pricer/storage"
)

// pageURLPattern is the site's fixed query-string template: category code,
// a run of filter placeholders, then the page index.
const pageURLPattern = "%s/mls/?%s..........%d..$"

// Aggregator walks the page range of every category, extracts listings,
// and persists the combined raw dataset. Page failures are skipped and
// counted, never fatal to the run.
type Aggregator struct {
	cfg      *config.Config
	store    *storage.SQLiteStore
	fetchers map[string]Fetcher
}

func NewAggregator(cfg *config.Config, store *storage.SQLiteStore, client *http.Client) (*Aggregator, error) {
	fetchers := make(map[string]Fetcher)
	for id, cat := range cfg.Categories {
		f, err := NewFetcher(cat, client)
		if err != nil {
			return nil, fmt.Errorf("fetcher for %s: %w", id, err)
		}
		fetchers[id] = f
	}

	return &Aggregator{
		cfg:      cfg,
		store:    store,
		fetchers: fetchers,
	}, nil
}

// Close shuts down any browser-backed fetchers.
func (a *Aggregator) Close() {
	for _, f := range a.fetchers {
		if bf, ok := f.(*BrowserFetcher); ok {
			bf.Close()
		}
	}
}

// Run scrapes all categories and returns the combined raw listings. The
// result is a bag: page and category order carry no meaning downstream.
func (a *Aggregator) Run(ctx context.Context) ([]models.RawListing, error) {
	run := &models.ScrapeRun{
		StartedAt: time.Now(),
		Status:    models.RunStatusRunning,
	}
	runID, err := a.store.CreateRun(run)
	if err != nil {
		return nil, fmt.Errorf("create run: %w", err)
	}
	run.ID = runID

	var all []models.RawListing
	for _, lt := range models.ListingTypes {
		cat, ok := a.cfg.Categories[string(lt)]
		if !ok {
			log.Printf("Scrape: no config for category %s, skipping", lt)
			continue
		}

		listings := a.scrapeCategory(ctx, cat, lt, run)
		log.Printf("Scrape: %s: %d listings", lt, len(listings))
		all = append(all, listings...)

		if ctx.Err() != nil {
			break
		}
	}

	run.ListingsFound = len(all)
	now := time.Now()
	run.FinishedAt = &now
	run.Status = models.RunStatusCompleted
	if ctx.Err() != nil || run.PagesFailed > 0 {
		run.Status = models.RunStatusPartial
	}

	if err := a.store.InsertRawListings(all, runID); err != nil {
		run.Status = models.RunStatusFailed
		a.store.UpdateRun(run)
		return nil, fmt.Errorf("persist raw listings: %w", err)
	}
	if err := a.store.UpdateRun(run); err != nil {
		log.Printf("Scrape: warning: update run: %v", err)
	}

	log.Printf("Scrape: run %d complete: %d listings, %d pages (%d failed)",
		runID, run.ListingsFound, run.PagesFetched, run.PagesFailed)
	return all, ctx.Err()
}

// scrapeCategory fetches pages in bounded-concurrency windows until a page
// comes back empty or the category's page cap is hit. An empty extraction
// also covers the selector-mismatch case; there is no way to tell the two
// apart from a text-only node selector.
func (a *Aggregator) scrapeCategory(ctx context.Context, cat *config.CategoryConfig, lt models.ListingType, run *models.ScrapeRun) []models.RawListing {
	fetcher := a.fetchers[cat.ID]
	window := a.cfg.Listings.MaxConcurrency
	if window < 1 {
		window = 1
	}
	delay := time.Duration(a.cfg.Listings.DelayMS) * time.Millisecond

	var all []models.RawListing
	for start := 1; start <= cat.MaxPages; start += window {
		if ctx.Err() != nil {
			return all
		}

		end := start + window - 1
		if end > cat.MaxPages {
			end = cat.MaxPages
		}

		results := make([][]models.RawListing, end-start+1)
		errs := make([]error, end-start+1)

		g, gctx := errgroup.WithContext(ctx)
		for page := start; page <= end; page++ {
			idx := page - start
			pageURL := fmt.Sprintf(pageURLPattern, a.cfg.Listings.BaseURL, cat.Code, page)
			g.Go(func() error {
				doc, err := fetcher.Fetch(gctx, pageURL)
				if err != nil {
					errs[idx] = err
					return nil
				}
				results[idx] = ExtractListings(doc, lt)
				return nil
			})
		}
		g.Wait()

		sawEmpty := false
		for idx, listings := range results {
			run.PagesFetched++
			if errs[idx] != nil {
				run.PagesFailed++
				run.ErrorsCount++
				log.Printf("Scrape: %s page %d: %v (skipped)", cat.ID, start+idx, errs[idx])
				continue
			}
			if len(listings) == 0 {
				sawEmpty = true
				continue
			}
			all = append(all, listings...)
		}

		if sawEmpty {
			log.Printf("Scrape: %s: empty page before %d, category done", cat.ID, end+1)
			break
		}

		if delay > 0 && end < cat.MaxPages {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return all
			}
		}
	}

	return all
}
