package config

import (
	"fmt"
	"os"
	"strconv"

	"pvp-analytics/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	DriverMattn   = "sqlite3"
	DriverModernc = "sqlite"
)

type Config struct {
	DBDriver             string
	DBPath               string
	ServerPort           string
	LogLevel             string
	BlizzardClientID     string
	BlizzardClientSecret string
	MaxUploadBytes       int64
	AWSEndpointURL       string
}

// EnrichmentEnabled reports whether both Blizzard API credentials are set.
func (c *Config) EnrichmentEnabled() bool {
	return c.BlizzardClientID != "" && c.BlizzardClientSecret != ""
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		DBDriver:             getEnv("DB_DRIVER", DriverMattn),
		DBPath:               getEnv("DB_PATH", "pvp.db"),
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		BlizzardClientID:     getEnv("BLIZZARD_CLIENT_ID", ""),
		BlizzardClientSecret: getEnv("BLIZZARD_CLIENT_SECRET", ""),
		AWSEndpointURL:       getEnv("AWS_ENDPOINT_URL", ""),
	}

	maxUpload, err := strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", strconv.FormatInt(constants.MaxUploadBytes, 10)), 10, 64)
	if err != nil || maxUpload <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be a positive integer")
	}
	cfg.MaxUploadBytes = maxUpload

	switch cfg.DBDriver {
	case DriverMattn, DriverModernc:
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (want %q or %q)", cfg.DBDriver, DriverMattn, DriverModernc)
	}

	if !cfg.EnrichmentEnabled() {
		logger.Warn().Msg("BLIZZARD_CLIENT_ID/BLIZZARD_CLIENT_SECRET not set, player enrichment disabled")
	}

	logger.Info().
		Str("db_driver", cfg.DBDriver).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Int64("max_upload_bytes", cfg.MaxUploadBytes).
		Bool("enrichment", cfg.EnrichmentEnabled()).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
