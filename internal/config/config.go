package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Folders
	Root           string
	FormsDir       string
	LogosDir       string
	ClientFormsDir string
	PDFDir         string

	// State files
	PositionsFile string
	SelectionFile string

	// Only source documents starting with this prefix are processed.
	DocPrefix string

	// Logo widths in inches
	HeaderWidthIn float64
	FooterWidthIn float64

	// PDF rendering
	Render        bool
	Soffice       string
	RenderTimeout time.Duration
	RenderRetries int

	// HTTP API
	Port      string
	APIKey    string
	JobTTL    time.Duration
	QueueSize int

	// Largest logo accepted by the upload endpoint
	MaxLogoBytes int64

	// Logging
	LogLevel  string
	LogFormat string

	// Write report.md/report.html after apply
	Report bool
}

func Load() Config {
	root := envOr("SAFE2DAY_ROOT", ".")
	cfg := Config{
		Root:           root,
		FormsDir:       envOr("SAFE2DAY_FORMS_DIR", filepath.Join(root, "Forms")),
		LogosDir:       envOr("SAFE2DAY_LOGOS_DIR", filepath.Join(root, "Client_Logos")),
		ClientFormsDir: envOr("SAFE2DAY_CLIENT_FORMS_DIR", filepath.Join(root, "Client_Forms")),
		PDFDir:         envOr("SAFE2DAY_PDF_DIR", filepath.Join(root, "PDFs")),

		PositionsFile: envOr("SAFE2DAY_POSITIONS_FILE", filepath.Join(root, "logo_positions.json")),
		SelectionFile: envOr("SAFE2DAY_SELECTION_FILE", filepath.Join(root, "selected_logo.json")),

		DocPrefix: envOr("SAFE2DAY_DOC_PREFIX", "S2D"),

		HeaderWidthIn: envFloat("SAFE2DAY_HEADER_WIDTH_IN", 2.0),
		FooterWidthIn: envFloat("SAFE2DAY_FOOTER_WIDTH_IN", 1.5),

		Render:        envBool("SAFE2DAY_RENDER", true),
		Soffice:       envOr("SAFE2DAY_SOFFICE", "soffice"),
		RenderTimeout: envDuration("SAFE2DAY_RENDER_TIMEOUT", 2*time.Minute),
		RenderRetries: envInt("SAFE2DAY_RENDER_RETRIES", 3),

		Port:      envOr("SAFE2DAY_PORT", "8090"),
		APIKey:    os.Getenv("SAFE2DAY_API_KEY"),
		JobTTL:    envDuration("SAFE2DAY_JOB_TTL", 1*time.Hour),
		QueueSize: envInt("SAFE2DAY_QUEUE_SIZE", 4),

		MaxLogoBytes: int64(envInt("SAFE2DAY_MAX_LOGO_BYTES", 10*1024*1024)),

		LogLevel:  envOr("SAFE2DAY_LOG_LEVEL", "info"),
		LogFormat: envOr("SAFE2DAY_LOG_FORMAT", "json"),

		Report: envBool("SAFE2DAY_REPORT", false),
	}

	if cfg.HeaderWidthIn <= 0 {
		cfg.HeaderWidthIn = 2.0
	}
	if cfg.FooterWidthIn <= 0 {
		cfg.FooterWidthIn = 1.5
	}
	if cfg.RenderTimeout <= 0 {
		cfg.RenderTimeout = 2 * time.Minute
	}
	if cfg.RenderRetries <= 0 {
		cfg.RenderRetries = 3
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 4
	}
	if cfg.MaxLogoBytes <= 0 {
		cfg.MaxLogoBytes = 10 * 1024 * 1024
	}

	return cfg
}

// Validate checks settings every command depends on.
func (c Config) Validate() error {
	if c.FormsDir == "" {
		return fmt.Errorf("SAFE2DAY_FORMS_DIR is required")
	}
	if c.PositionsFile == "" || c.SelectionFile == "" {
		return fmt.Errorf("SAFE2DAY_POSITIONS_FILE and SAFE2DAY_SELECTION_FILE are required")
	}
	for _, out := range []string{c.ClientFormsDir, c.PDFDir} {
		if out == "" {
			return fmt.Errorf("SAFE2DAY_CLIENT_FORMS_DIR and SAFE2DAY_PDF_DIR are required")
		}
		if sameDir(out, c.FormsDir) {
			return fmt.Errorf("output folder %s must differ from the forms folder", out)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("SAFE2DAY_LOG_FORMAT must be json or text, got %q", c.LogFormat)
	}
	return nil
}

// ValidateServer checks the extra settings needed by the HTTP API.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("SAFE2DAY_API_KEY is required")
	}
	return nil
}

func sameDir(a, b string) bool {
	aa, err1 := filepath.Abs(a)
	bb, err2 := filepath.Abs(b)
	return err1 == nil && err2 == nil && aa == bb
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

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
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
