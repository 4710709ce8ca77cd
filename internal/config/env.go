package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom log forwarding configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// PageConfig describes the physical output page. Dimensions are in inches;
// pixel dimensions are derived from DPI at export time.
type PageConfig struct {
	WidthInches  float64
	HeightInches float64
	MarginInches float64
	DPI          int
}

// ExportConfig defines how source images are fitted and encoded.
type ExportConfig struct {
	FitMode        string // "fit"|"fill"|"original"|"stretch"
	PreserveAspect bool
	AllowUpscale   bool
	JPEGQuality    int
	WorkDir        string
	S3Bucket       string // readiness-checked when s3:// destinations are expected
}

// StoreConfig selects the export status store backend.
// An empty RedisURL selects the in-memory store.
type StoreConfig struct {
	RedisURL string
}

// ServerConfig defines the HTTP API surface.
type ServerConfig struct {
	Port                 string
	Username             string
	PasswordHash         string // bcrypt hash; empty disables auth
	ShutdownTimeout      time.Duration
	ThumbnailMaxEdge     int
	ThumbnailConcurrency int
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	Page    PageConfig
	Export  ExportConfig
	Store   StoreConfig
	Server  ServerConfig
}

// A4 at 72 DPI is 595x842 points.
const (
	defaultPageWidthInches  = 595.0 / 72.0
	defaultPageHeightInches = 842.0 / 72.0
)

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/pagebinder.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_pagebinder",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	cfg.Page = PageConfig{
		WidthInches:  parseFloat(getEnv("PAGE_WIDTH_INCHES", ""), defaultPageWidthInches),
		HeightInches: parseFloat(getEnv("PAGE_HEIGHT_INCHES", ""), defaultPageHeightInches),
		MarginInches: parseFloat(getEnv("PAGE_MARGIN_INCHES", "0"), 0),
		DPI:          parseInt(getEnv("PAGE_DPI", "72"), 72),
	}

	cfg.Export = ExportConfig{
		FitMode:        getEnv("FIT_MODE", "fit"),
		PreserveAspect: parseBool(getEnv("PRESERVE_ASPECT", "true")),
		AllowUpscale:   parseBool(getEnv("ALLOW_UPSCALE", "0")),
		JPEGQuality:    parseInt(getEnv("JPEG_QUALITY", "85"), 85),
		WorkDir:        getEnv("EXPORT_WORK_DIR", ""),
		S3Bucket:       getEnv("EXPORT_S3_BUCKET", ""),
	}

	cfg.Store = StoreConfig{
		RedisURL: getEnv("REDIS_URL", ""),
	}

	cfg.Server = ServerConfig{
		Port:                 getEnv("PORT", "8080"),
		Username:             getEnv("API_USERNAME", ""),
		PasswordHash:         getEnv("API_PASSWORD_HASH", ""),
		ShutdownTimeout:      parseDuration(getEnv("SHUTDOWN_TIMEOUT", "10s"), 10*time.Second),
		ThumbnailMaxEdge:     parseInt(getEnv("THUMBNAIL_MAX_EDGE", "150"), 150),
		ThumbnailConcurrency: parseInt(getEnv("THUMBNAIL_CONCURRENCY", "4"), 4),
	}

	return cfg
}

// Validate rejects configurations the export pipeline cannot honor.
func (c Config) Validate() error {
	if c.Page.DPI <= 0 {
		return fmt.Errorf("PAGE_DPI must be > 0, got %d", c.Page.DPI)
	}
	if c.Page.WidthInches <= 0 || c.Page.HeightInches <= 0 {
		return fmt.Errorf("page dimensions must be > 0, got %.3fx%.3f in",
			c.Page.WidthInches, c.Page.HeightInches)
	}
	if c.Page.MarginInches < 0 {
		return fmt.Errorf("PAGE_MARGIN_INCHES must be >= 0, got %.3f", c.Page.MarginInches)
	}
	if 2*c.Page.MarginInches >= c.Page.WidthInches || 2*c.Page.MarginInches >= c.Page.HeightInches {
		return fmt.Errorf("margin %.3f in leaves no content area on a %.3fx%.3f in page",
			c.Page.MarginInches, c.Page.WidthInches, c.Page.HeightInches)
	}
	if c.Export.JPEGQuality < 1 || c.Export.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", c.Export.JPEGQuality)
	}
	switch c.Export.FitMode {
	case "fit", "fill", "original", "stretch":
	default:
		return fmt.Errorf("unknown FIT_MODE %q", c.Export.FitMode)
	}
	return nil
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseFloat(s string, def float64) float64 {
	if s == "" {
		return def
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
