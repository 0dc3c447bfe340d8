package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultSourceURL      = "https://inzameling.spaarnelanden.nl/"
	defaultUpdateInterval = 10 * time.Minute
	defaultRequestTimeout = 10 * time.Second
	defaultLanguage       = "nl"
	defaultLogLevel       = "info"
	defaultLogFormat      = "console"

	// FreshnessWindow is how long a fetched record is served without asking
	// the upstream again.
	FreshnessWindow = 5 * time.Minute
)

// Config holds runtime configuration for the watcher service.
type Config struct {
	ContainerNumber string
	SourceURL       string
	UpdateInterval  time.Duration
	RequestTimeout  time.Duration
	Language        string
	StatusAddr      string
	DatabaseURL     string
	LogLevel        string
	LogFormat       string
}

// SensorName is the title used for the console report.
func (c Config) SensorName() string {
	return fmt.Sprintf("Spaarnelanden Inzameling (Container %s)", c.ContainerNumber)
}

// Load reads configuration from environment variables (optionally .env).
// An empty CONTAINER_NUMBER is accepted; it simply never matches.
func Load() (Config, error) {
	_ = godotenv.Load(".env")

	cfg := Config{
		ContainerNumber: strings.TrimSpace(os.Getenv("CONTAINER_NUMBER")),
		StatusAddr:      strings.TrimSpace(os.Getenv("STATUS_ADDR")),
		DatabaseURL:     strings.TrimSpace(os.Getenv("DATABASE_URL")),
	}

	cfg.SourceURL = strings.TrimSpace(os.Getenv("SOURCE_URL"))
	if cfg.SourceURL == "" {
		cfg.SourceURL = defaultSourceURL
	}

	cfg.UpdateInterval = defaultUpdateInterval
	if v := strings.TrimSpace(os.Getenv("UPDATE_INTERVAL")); v != "" {
		minutes, err := strconv.Atoi(v)
		if err != nil || minutes <= 0 {
			return cfg, fmt.Errorf("invalid UPDATE_INTERVAL: %q (want whole minutes > 0)", v)
		}
		cfg.UpdateInterval = time.Duration(minutes) * time.Minute
	}

	cfg.RequestTimeout = defaultRequestTimeout
	if v := strings.TrimSpace(os.Getenv("WATCHER_REQUEST_TIMEOUT")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid WATCHER_REQUEST_TIMEOUT: %w", err)
		}
		if d <= 0 {
			return cfg, fmt.Errorf("invalid WATCHER_REQUEST_TIMEOUT: %s must be positive", v)
		}
		cfg.RequestTimeout = d
	}

	cfg.Language = defaultLanguage
	if v := strings.ToLower(strings.TrimSpace(os.Getenv("REPORT_LANGUAGE"))); v != "" {
		if v != "nl" && v != "en" {
			return cfg, fmt.Errorf("invalid REPORT_LANGUAGE: %q (want nl or en)", v)
		}
		cfg.Language = v
	}

	cfg.LogLevel = defaultLogLevel
	if v := strings.TrimSpace(os.Getenv("LOG_LEVEL")); v != "" {
		cfg.LogLevel = v
	}

	cfg.LogFormat = defaultLogFormat
	if v := strings.TrimSpace(os.Getenv("LOG_FORMAT")); v != "" {
		cfg.LogFormat = v
	}

	return cfg, nil
}
