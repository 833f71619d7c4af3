package storage

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"gta_pricer/models"
)

// SQLiteStore is the canonical local store: raw listings, the enriched
// training dataset, the geocode response cache, and run bookkeeping.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, err
	}

	return store, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS listings (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		listing_type TEXT NOT NULL,
		beds_text TEXT,
		baths_text TEXT,
		price_text TEXT,
		scraped_at DATETIME,
		run_id INTEGER,
		geocode_attempts INTEGER DEFAULT 0,
		dropped BOOLEAN DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS enriched_listings (
		id TEXT PRIMARY KEY,
		address TEXT NOT NULL,
		listing_type TEXT NOT NULL,
		beds INTEGER,
		baths INTEGER,
		price INTEGER,
		formatted_address TEXT NOT NULL,
		street_number TEXT,
		route TEXT,
		locality TEXT,
		postal_code TEXT,
		latitude REAL,
		longitude REAL,
		geocoded_at DATETIME,
		FOREIGN KEY (id) REFERENCES listings(id)
	);

	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		response JSON,
		fetched_at DATETIME
	);

	CREATE TABLE IF NOT EXISTS scrape_runs (
		id INTEGER PRIMARY KEY,
		started_at DATETIME,
		finished_at DATETIME,
		status TEXT,
		pages_fetched INTEGER,
		pages_failed INTEGER,
		listings_found INTEGER,
		errors_count INTEGER
	);

	CREATE INDEX IF NOT EXISTS idx_listings_pending ON listings(dropped, geocode_attempts);
	CREATE INDEX IF NOT EXISTS idx_listings_run ON listings(run_id);
	CREATE INDEX IF NOT EXISTS idx_enriched_locality ON enriched_listings(locality);
	`
	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// Raw listings
// =============================================================================

func (s *SQLiteStore) InsertRawListings(listings []models.RawListing, runID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO listings (id, address, listing_type, beds_text, baths_text, price_text, scraped_at, run_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, l := range listings {
		if _, err := stmt.Exec(l.ID.String(), l.Address, string(l.Type),
			l.BedsText, l.BathsText, l.PriceText, l.ScrapedAt, runID); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PendingEnrichment returns raw rows that have no enriched counterpart,
// were not dropped by the country filter, and have geocode attempts left.
func (s *SQLiteStore) PendingEnrichment(limit int) ([]models.RawListing, error) {
	rows, err := s.db.Query(`
		SELECT l.id, l.address, l.listing_type, l.beds_text, l.baths_text, l.price_text, l.scraped_at
		FROM listings l
		WHERE l.dropped = FALSE
		  AND l.geocode_attempts < 3
		  AND NOT EXISTS (SELECT 1 FROM enriched_listings e WHERE e.id = l.id)
		ORDER BY l.scraped_at
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.RawListing
	for rows.Next() {
		var l models.RawListing
		var id string
		if err := rows.Scan(&id, &l.Address, &l.Type, &l.BedsText, &l.BathsText, &l.PriceText, &l.ScrapedAt); err != nil {
			return nil, err
		}
		l.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}

func (s *SQLiteStore) IncrementGeocodeAttempts(id string) error {
	_, err := s.db.Exec(`UPDATE listings SET geocode_attempts = geocode_attempts + 1 WHERE id = ?`, id)
	return err
}

// MarkDropped flags a listing rejected by the country filter so it is not
// re-geocoded on the next pass.
func (s *SQLiteStore) MarkDropped(id string) error {
	_, err := s.db.Exec(`UPDATE listings SET dropped = TRUE WHERE id = ?`, id)
	return err
}

// =============================================================================
// Enriched listings
// =============================================================================

func (s *SQLiteStore) UpsertEnriched(e *models.EnrichedListing) error {
	_, err := s.db.Exec(`
		INSERT INTO enriched_listings (id, address, listing_type, beds, baths, price,
			formatted_address, street_number, route, locality, postal_code, latitude, longitude, geocoded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			formatted_address = excluded.formatted_address,
			street_number = excluded.street_number,
			route = excluded.route,
			locality = excluded.locality,
			postal_code = excluded.postal_code,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			geocoded_at = excluded.geocoded_at`,
		e.ID.String(), e.Address, string(e.Type), e.Beds, e.Baths, e.Price,
		e.FormattedAddress, e.StreetNumber, e.Route, e.Locality, e.PostalCode,
		e.Latitude, e.Longitude, e.GeocodedAt)
	return err
}

func (s *SQLiteStore) ListEnriched() ([]models.EnrichedListing, error) {
	rows, err := s.db.Query(`
		SELECT id, address, listing_type, beds, baths, price,
			formatted_address, street_number, route, locality, postal_code, latitude, longitude, geocoded_at
		FROM enriched_listings ORDER BY geocoded_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var listings []models.EnrichedListing
	for rows.Next() {
		var e models.EnrichedListing
		var id string
		if err := rows.Scan(&id, &e.Address, &e.Type, &e.Beds, &e.Baths, &e.Price,
			&e.FormattedAddress, &e.StreetNumber, &e.Route, &e.Locality, &e.PostalCode,
			&e.Latitude, &e.Longitude, &e.GeocodedAt); err != nil {
			return nil, err
		}
		e.ID, err = uuid.Parse(id)
		if err != nil {
			return nil, err
		}
		listings = append(listings, e)
	}
	return listings, rows.Err()
}

// =============================================================================
// Geocode cache
// =============================================================================

// cacheKey normalizes an address for cache lookups.
func cacheKey(address string) string {
	return strings.ToLower(strings.Join(strings.Fields(address), " "))
}

// GetCachedGeocode returns the cached provider response for an address, or
// nil when the address has never been geocoded.
func (s *SQLiteStore) GetCachedGeocode(address string) (*models.GeocodeResponse, error) {
	var raw []byte
	err := s.db.QueryRow(`SELECT response FROM geocode_cache WHERE address = ?`, cacheKey(address)).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var resp models.GeocodeResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (s *SQLiteStore) PutCachedGeocode(address string, resp *models.GeocodeResponse) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO geocode_cache (address, response, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET response = excluded.response, fetched_at = excluded.fetched_at`,
		cacheKey(address), raw, time.Now())
	return err
}

// =============================================================================
// Scrape runs
// =============================================================================

func (s *SQLiteStore) CreateRun(run *models.ScrapeRun) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO scrape_runs (started_at, status, pages_fetched, pages_failed, listings_found, errors_count)
		VALUES (?, ?, 0, 0, 0, 0)`,
		run.StartedAt, string(run.Status))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *SQLiteStore) UpdateRun(run *models.ScrapeRun) error {
	_, err := s.db.Exec(`
		UPDATE scrape_runs SET finished_at = ?, status = ?, pages_fetched = ?, pages_failed = ?, listings_found = ?, errors_count = ?
		WHERE id = ?`,
		run.FinishedAt, string(run.Status), run.PagesFetched, run.PagesFailed,
		run.ListingsFound, run.ErrorsCount, run.ID)
	return err
}

func (s *SQLiteStore) GetLastRun() (*models.ScrapeRun, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, finished_at, status, pages_fetched, pages_failed, listings_found, errors_count
		FROM scrape_runs ORDER BY started_at DESC LIMIT 1`)

	var run models.ScrapeRun
	var finished sql.NullTime
	err := row.Scan(&run.ID, &run.StartedAt, &finished, &run.Status,
		&run.PagesFetched, &run.PagesFailed, &run.ListingsFound, &run.ErrorsCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if finished.Valid {
		run.FinishedAt = &finished.Time
	}
	return &run, nil
}
