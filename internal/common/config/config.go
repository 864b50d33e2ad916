package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// DefaultRegistryURL is the official Transport for Ireland operator list.
const DefaultRegistryURL = "https://www.transportforireland.ie/transitData/Data/GTFS%20Operator%20Files.csv"

// DefaultOperator is the operator the default deployment tracks.
const DefaultOperator = "Iarnród Éireann / Irish Rail"

type Config struct {
	Store   StoreConfig
	Feed    FeedConfig
	Logging LoggingConfig
}

type StoreConfig struct {
	Path     string `validate:"required"`
	CacheDir string `validate:"required"`
}

// FeedConfig selects which feed to load and how aggressively to refresh it.
type FeedConfig struct {
	RegistryURL       string `validate:"required,url"`
	Operator          string `validate:"required"`
	Link              string
	FreshnessDays     int `validate:"gte=0"`
	ForceReplace      bool
	AllowUnknownFile  bool
	AllowUnknownField bool
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

func Load() (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Path:     getEnv("GTFS_STORE_PATH", "tfitracker.db"),
			CacheDir: getEnv("GTFS_CACHE_DIR", "/tmp/tfitracker-gtfs"),
		},
		Feed: FeedConfig{
			RegistryURL:       getEnv("GTFS_REGISTRY_URL", DefaultRegistryURL),
			Operator:          getEnv("GTFS_OPERATOR", DefaultOperator),
			Link:              getEnv("GTFS_LINK", ""),
			FreshnessDays:     getIntEnv("GTFS_FRESHNESS_DAYS", 10),
			ForceReplace:      getBoolEnv("GTFS_FORCE_REPLACE", false),
			AllowUnknownFile:  getBoolEnv("GTFS_ALLOW_UNKNOWN_FILE", true),
			AllowUnknownField: getBoolEnv("GTFS_ALLOW_UNKNOWN_FIELD", false),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE", "tfitracker.log"),
		},
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
