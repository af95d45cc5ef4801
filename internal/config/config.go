package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Port string

	// Site layout
	ContentRoot    string // Overrides the site config input dir when set
	SiteConfigPath string // Optional .toml/.yaml site config
	OutputDir      string // Where builds are published; empty uses the site output dir

	// Auth
	APIKey string

	// Build pipeline
	WorkerCount             int
	MaxQueueSize            int
	MaxConcurrentCategories int
	CollisionPolicy         string // Empty defers to the site config
	Extensions              []string

	// Job state
	JobTTL time.Duration

	// Build on startup
	BuildOnStart bool

	// PDF
	PDFFallbackPdftotext bool
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		ContentRoot:    os.Getenv("CONTENT_ROOT"),
		SiteConfigPath: os.Getenv("SITE_CONFIG"),
		OutputDir:      os.Getenv("OUTPUT_DIR"),

		APIKey: os.Getenv("SITETREE_API_KEY"),

		WorkerCount:             envInt("WORKER_COUNT", 2),
		MaxQueueSize:            envInt("MAX_QUEUE_SIZE", 16),
		MaxConcurrentCategories: envInt("MAX_CONCURRENT_CATEGORIES", 4),
		CollisionPolicy:         os.Getenv("COLLISION_POLICY"),
		Extensions:              envList("CONTENT_EXTENSIONS"),

		JobTTL: envDuration("JOB_TTL", 1*time.Hour),

		BuildOnStart: envBool("BUILD_ON_START", true),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", false),
	}

	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxConcurrentCategories <= 0 {
		cfg.MaxConcurrentCategories = 4
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("SITETREE_API_KEY is required")
	}
	if c.ContentRoot == "" && c.SiteConfigPath == "" {
		return fmt.Errorf("CONTENT_ROOT or SITE_CONFIG is required")
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList splits a comma-separated variable, dropping blanks.
func envList(key string) []string {
	var out []string
	for _, s := range strings.Split(os.Getenv(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
