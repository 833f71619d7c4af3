package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"gta_pricer/models"
)

// PostgresStore mirrors the enriched dataset into Postgres for the
// downstream prediction app. Optional: only constructed when DATABASE_URL
// is set.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, connString string) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	store := &PostgresStore{pool: pool}
	if err := store.migrate(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS enriched_listings (
			id UUID PRIMARY KEY,
			address TEXT NOT NULL,
			listing_type TEXT NOT NULL,
			beds INT,
			baths INT,
			price INT,
			formatted_address TEXT NOT NULL,
			street_number TEXT,
			route TEXT,
			locality TEXT,
			postal_code TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			geocoded_at TIMESTAMPTZ,
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)`)
	return err
}

func (s *PostgresStore) UpsertEnriched(ctx context.Context, e *models.EnrichedListing) error {
	query := `
		INSERT INTO enriched_listings (
			id, address, listing_type, beds, baths, price,
			formatted_address, street_number, route, locality, postal_code,
			latitude, longitude, geocoded_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW()
		)
		ON CONFLICT (id) DO UPDATE SET
			formatted_address = EXCLUDED.formatted_address,
			street_number = COALESCE(EXCLUDED.street_number, enriched_listings.street_number),
			route = COALESCE(EXCLUDED.route, enriched_listings.route),
			locality = COALESCE(EXCLUDED.locality, enriched_listings.locality),
			postal_code = COALESCE(EXCLUDED.postal_code, enriched_listings.postal_code),
			latitude = COALESCE(EXCLUDED.latitude, enriched_listings.latitude),
			longitude = COALESCE(EXCLUDED.longitude, enriched_listings.longitude),
			geocoded_at = EXCLUDED.geocoded_at,
			updated_at = NOW()`

	_, err := s.pool.Exec(ctx, query,
		e.ID, e.Address, string(e.Type), e.Beds, e.Baths, e.Price,
		e.FormattedAddress, e.StreetNumber, e.Route, e.Locality, e.PostalCode,
		e.Latitude, e.Longitude, e.GeocodedAt)
	if err != nil {
		return fmt.Errorf("upsert enriched listing: %w", err)
	}
	return nil
}
