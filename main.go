package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gta_pricer/config"
	"gta_pricer/geocode"
	"gta_pricer/httputil"
	"gta_pricer/logging"
	"gta_pricer/scheduler"
	"gta_pricer/scraper"
	"gta_pricer/services"
	"gta_pricer/storage"
	"gta_pricer/train"
	"gta_pricer/workers"
)

var (
	scrapeOnly = flag.Bool("scrape", false, "Scrape listing pages once and exit")
	enrichOnly = flag.Bool("enrich", false, "Geocode pending listings once and exit")
	trainOnly  = flag.Bool("train", false, "Train the model from the enriched dataset and exit")
	daemon     = flag.Bool("daemon", false, "Run on a schedule with the background enrichment worker")
)

func main() {
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	logFile, err := logging.Setup("pricer.log")
	if err != nil {
		log.Printf("Warning: could not set up file logging: %v", err)
	} else {
		defer logFile.Close()
	}

	log.Println("Starting gta_pricer...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.Printf("Loaded %d category configs", len(cfg.Categories))

	ctx := context.Background()

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open SQLite: %v", err)
	}
	defer store.Close()
	log.Printf("SQLite database: %s", cfg.DBPath)

	var mirror *storage.PostgresStore
	if cfg.DatabaseURL != "" {
		mirror, err = storage.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer mirror.Close()
		log.Println("Postgres mirror enabled")
	}

	var uploader *storage.S3Uploader
	if cfg.S3.Bucket != "" {
		uploader, err = storage.NewS3Uploader(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("Failed to init S3 uploader: %v", err)
		}
		log.Printf("S3 artifact uploads enabled: %s", cfg.S3.Bucket)
	}

	clients := httputil.NewClients()

	aggregator, err := scraper.NewAggregator(cfg, store, clients.Scraping)
	if err != nil {
		log.Fatalf("Failed to init aggregator: %v", err)
	}
	defer aggregator.Close()

	geocoder := geocode.NewClient(&cfg.Geocoder, clients.Geocode)
	enricher := services.NewEnricher(store, mirror, geocoder, cfg.Listings.MaxConcurrency, cfg.Geocoder.CountryToken)

	artifacts := storage.NewArtifactWriter(cfg.DataDir, uploader)
	trainer := services.NewTrainService(store, artifacts, train.DefaultConfig(), cfg.DataDir)

	p := &pipeline{
		aggregator: aggregator,
		enricher:   enricher,
		trainer:    trainer,
	}

	if *daemon {
		runDaemon(ctx, cfg, p, store, enricher)
		return
	}

	// One-shot mode: no stage flags means the full pipeline.
	runAll := !*scrapeOnly && !*enrichOnly && !*trainOnly

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *scrapeOnly || runAll {
		if _, err := aggregator.Run(ctx); err != nil {
			log.Fatalf("Scrape failed: %v", err)
		}
	}
	if *enrichOnly || runAll {
		if _, err := enricher.EnrichAll(ctx); err != nil {
			log.Fatalf("Enrich failed: %v", err)
		}
	}
	if *trainOnly || runAll {
		if err := trainer.Run(ctx); err != nil {
			log.Fatalf("Train failed: %v", err)
		}
	}

	log.Println("Done!")
}

// pipeline runs the three stages back to back for scheduled runs.
type pipeline struct {
	aggregator *scraper.Aggregator
	enricher   *services.Enricher
	trainer    *services.TrainService
}

func (p *pipeline) RunPipeline(ctx context.Context) error {
	if _, err := p.aggregator.Run(ctx); err != nil {
		return err
	}
	if _, err := p.enricher.EnrichAll(ctx); err != nil {
		return err
	}
	return p.trainer.Run(ctx)
}

func runDaemon(ctx context.Context, cfg *config.Config, p *pipeline, store *storage.SQLiteStore, enricher *services.Enricher) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sched := scheduler.New(cfg, p)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	enrichmentWorker := workers.NewEnrichmentWorker(store, enricher)
	go enrichmentWorker.Run(ctx, 50, 5*time.Minute)
	log.Println("Enrichment worker started")

	log.Println("Daemon running. Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")
	sched.Stop()
	log.Println("Goodbye!")
}
