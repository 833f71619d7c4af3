package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"

	"gta_pricer/features"
	"gta_pricer/storage"
	"gta_pricer/train"
)

// TrainService fits the price model on the canonical enriched dataset and
// exports the artifact set: model, encoding spec, category metadata, and
// the dataset itself.
type TrainService struct {
	store     *storage.SQLiteStore
	artifacts *storage.ArtifactWriter
	cfg       train.Config
	dataDir   string
}

func NewTrainService(store *storage.SQLiteStore, artifacts *storage.ArtifactWriter, cfg train.Config, dataDir string) *TrainService {
	return &TrainService{
		store:     store,
		artifacts: artifacts,
		cfg:       cfg,
		dataDir:   dataDir,
	}
}

func (t *TrainService) Run(ctx context.Context) error {
	listings, err := t.store.ListEnriched()
	if err != nil {
		return fmt.Errorf("load enriched dataset: %w", err)
	}
	if len(listings) == 0 {
		return fmt.Errorf("enriched dataset is empty; run scrape and enrich first")
	}

	rows := features.BuildRows(listings)
	if len(rows) == 0 {
		return fmt.Errorf("no rows with prices in %d enriched listings", len(listings))
	}

	// The spec fitted here is the one shipped alongside the model; applying
	// a freshly fit spec at inference time would silently misalign columns.
	spec := features.Fit(rows)
	matrix := features.Apply(rows, spec)
	target := features.Targets(rows)

	log.Printf("Train: %d rows, %d columns, %d rounds", len(rows), features.Width(spec), t.cfg.Rounds)

	model, err := train.Fit(matrix, target, t.cfg)
	if err != nil {
		return fmt.Errorf("fit model: %w", err)
	}

	log.Printf("Train: in-sample RMSE %.0f", rmse(model, matrix, target))

	if err := os.MkdirAll(t.dataDir, 0755); err != nil {
		return err
	}
	csvPath := filepath.Join(t.dataDir, "listings.csv")
	if err := storage.ExportCSV(csvPath, listings); err != nil {
		return fmt.Errorf("export dataset: %w", err)
	}

	meta := features.Metadata(rows)
	if err := t.artifacts.WriteJSON(ctx, "model.json", model); err != nil {
		return err
	}
	if err := t.artifacts.WriteJSON(ctx, "encoding_spec.json", spec); err != nil {
		return err
	}
	if err := t.artifacts.WriteJSON(ctx, "category_metadata.json", meta); err != nil {
		return err
	}
	if err := t.artifacts.WriteFile(ctx, "listings.csv", csvPath, "text/csv"); err != nil {
		return err
	}

	log.Printf("Train: artifacts written to %s", t.dataDir)
	return nil
}

func rmse(model train.Regressor, matrix [][]float64, target []float64) float64 {
	var sum float64
	for i, row := range matrix {
		diff := model.Predict(row) - target[i]
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(target)))
}
