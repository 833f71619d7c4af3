package workers

import (
	"context"
	"log"
	"time"

	"gta_pricer/services"
	"gta_pricer/storage"
)

// EnrichmentWorker geocodes pending listings in the background so a scrape
// interrupted mid-enrichment finishes on its own in daemon mode.
type EnrichmentWorker struct {
	store    *storage.SQLiteStore
	enricher *services.Enricher
}

func NewEnrichmentWorker(store *storage.SQLiteStore, enricher *services.Enricher) *EnrichmentWorker {
	return &EnrichmentWorker{store: store, enricher: enricher}
}

// Run processes a batch every interval until the context is cancelled.
func (w *EnrichmentWorker) Run(ctx context.Context, batchSize int, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Enrichment worker stopping")
			return
		case <-ticker.C:
			w.processBatch(ctx, batchSize)
		}
	}
}

func (w *EnrichmentWorker) processBatch(ctx context.Context, batchSize int) {
	batch, err := w.store.PendingEnrichment(batchSize)
	if err != nil {
		log.Printf("Enrich: query pending: %v", err)
		return
	}
	if len(batch) == 0 {
		return
	}

	log.Printf("Enrich: worker processing %d listings", len(batch))
	stats := w.enricher.EnrichBatch(ctx, batch)
	log.Printf("Enrich: worker batch done: %d enriched, %d dropped, %d failed",
		stats.Enriched, stats.Dropped, stats.Failed)
}
