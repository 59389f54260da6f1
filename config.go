package main

import (
	"errors"
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MarketParams are the repo market terms, loadable from yaml.
type MarketParams struct {
	HaircutBps int64 `yaml:"haircut_bps"`
	SpreadBps  int64 `yaml:"spread_bps"`
}

type config struct {
	StorageMode string
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string

	EngineParty   string
	MarketParty   string
	TreasuryParty string

	Market MarketParams
}

const (
	storageModeMemory   = "memory"
	storageModePostgres = "postgres"
)

func loadConfig() config {
	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	cfg := config{
		StorageMode:   getenvDefault("STORAGE_MODE", storageModePostgres),
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		EngineParty:   getenvDefault("ENGINE_PARTY", "series-engine"),
		MarketParty:   getenvDefault("MARKET_PARTY", "repo-market"),
		TreasuryParty: getenvDefault("TREASURY_PARTY", "treasury"),
		Market: MarketParams{
			HaircutBps: getenvInt64Default("REPO_HAIRCUT_BPS", 300),
			SpreadBps:  getenvInt64Default("REPO_SPREAD_BPS", 500),
		},
	}

	if path := os.Getenv("MARKET_CONFIG"); path != "" {
		params, err := loadMarketParams(path)
		if err != nil {
			log.Fatalf("market config error: %v", err)
		}
		cfg.Market = params
	}

	if cfg.StorageMode != storageModeMemory && cfg.StorageMode != storageModePostgres {
		log.Fatalf("STORAGE_MODE must be %q or %q", storageModeMemory, storageModePostgres)
	}
	if cfg.StorageMode == storageModePostgres && cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func loadMarketParams(path string) (MarketParams, error) {
	var params MarketParams
	data, err := os.ReadFile(path)
	if err != nil {
		return params, err
	}
	if err := yaml.Unmarshal(data, &params); err != nil {
		return params, err
	}
	if params.HaircutBps < 0 || params.HaircutBps > 10_000 ||
		params.SpreadBps < 0 || params.SpreadBps > 10_000 {
		return params, errors.New("market config: basis points out of range")
	}
	return params, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvInt64Default(key string, fallback int64) int64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
