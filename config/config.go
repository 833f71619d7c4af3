package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"gta_pricer/models"
)

type Config struct {
	Geocoder  GeocoderConfig
	Listings  ListingsConfig
	Scheduler SchedulerConfig
	S3        S3Config

	DBPath      string
	DatabaseURL string
	DataDir     string
	LogLevel    string
	Categories  map[string]*CategoryConfig
}

type GeocoderConfig struct {
	APIKey  string
	BaseURL string
	// RegionSuffix is appended to every query so bare street addresses
	// resolve inside the target market.
	RegionSuffix string
	CountryToken string
	DelayMS      int
	MaxAttempts  int
}

type ListingsConfig struct {
	BaseURL        string
	DelayMS        int
	MaxConcurrency int
}

type SchedulerConfig struct {
	Interval time.Duration
	Cron     string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional: DO Spaces, R2, etc.
	AccessKeyID     string
	SecretAccessKey string
}

// CategoryConfig describes one listing-search category.
type CategoryConfig struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	MaxPages int    `yaml:"max_pages"`
	Fetcher  string `yaml:"fetcher"` // http (default) or browser
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Geocoder: GeocoderConfig{
			APIKey:       os.Getenv("GEOCODER_API_KEY"),
			BaseURL:      getEnv("GEOCODER_BASE_URL", "https://maps.googleapis.com/maps/api/geocode/json"),
			RegionSuffix: getEnv("GEOCODER_REGION_SUFFIX", ", Ontario, Canada"),
			CountryToken: getEnv("GEOCODER_COUNTRY_TOKEN", "Canada"),
			DelayMS:      getEnvInt("GEOCODE_DELAY_MS", 100),
			MaxAttempts:  getEnvInt("GEOCODE_MAX_ATTEMPTS", 3),
		},
		Listings: ListingsConfig{
			BaseURL:        getEnv("LISTINGS_BASE_URL", "https://www.theredpin.com"),
			DelayMS:        getEnvInt("SCRAPE_DELAY_MS", 500),
			MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 4),
		},
		Scheduler: SchedulerConfig{
			Cron: os.Getenv("SCRAPE_CRON"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		DBPath:      getEnv("DB_PATH", "pricer.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DataDir:     getEnv("DATA_DIR", "data"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Categories:  make(map[string]*CategoryConfig),
	}

	// A missing key would otherwise surface as a silent empty-string query
	// against the provider; fail here instead.
	if cfg.Geocoder.APIKey == "" {
		return nil, fmt.Errorf("GEOCODER_API_KEY is required (set it in the environment or .env)")
	}

	if interval := os.Getenv("SCRAPE_INTERVAL"); interval != "" {
		d, err := time.ParseDuration(interval)
		if err == nil {
			cfg.Scheduler.Interval = d
		}
	}

	if err := cfg.loadCategoryConfigs(); err != nil {
		return nil, err
	}
	if len(cfg.Categories) == 0 {
		cfg.Categories = DefaultCategories()
	}

	return cfg, nil
}

func (c *Config) loadCategoryConfigs() error {
	configDir := "config/categories"
	entries, err := os.ReadDir(configDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".yaml" {
			continue
		}

		path := filepath.Join(configDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}

		var cat CategoryConfig
		if err := yaml.Unmarshal(data, &cat); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if cat.MaxPages <= 0 {
			cat.MaxPages = 50
		}

		c.Categories[cat.ID] = &cat
	}

	return nil
}

// DefaultCategories is the built-in category set used when no yaml
// overrides are present. Codes are the site's opaque search identifiers.
func DefaultCategories() map[string]*CategoryConfig {
	return map[string]*CategoryConfig{
		string(models.TypeCondo):         {ID: string(models.TypeCondo), Name: "Condos", Code: "condos-for-sale", MaxPages: 300},
		string(models.TypeDetached):      {ID: string(models.TypeDetached), Name: "Detached houses", Code: "detached-houses-for-sale", MaxPages: 300},
		string(models.TypeTownhome):      {ID: string(models.TypeTownhome), Name: "Townhomes", Code: "townhouses-for-sale", MaxPages: 50},
		string(models.TypeCondoTownhome): {ID: string(models.TypeCondoTownhome), Name: "Condo townhomes", Code: "condo-townhouses-for-sale", MaxPages: 50},
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
