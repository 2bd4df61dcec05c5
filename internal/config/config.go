// Package config loads longpdf settings from the environment.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all command configuration.
type Config struct {
	Browser BrowserConfig
	Capture CaptureConfig
	Log     LogConfig
}

// BrowserConfig controls which browser is started and how.
type BrowserConfig struct {
	// Engine selects the automation library: "chromedp" or "rod".
	Engine string // default: "chromedp"

	// ChromePath overrides the Chrome/Chromium binary.
	ChromePath string

	// NoSandbox disables Chrome's sandbox (needed in Docker).
	NoSandbox bool // default: false

	// AutoDownload fetches a Chromium build when none is installed.
	AutoDownload bool // default: false

	// Stealth installs the bot-detection evasion script.
	Stealth bool // default: false
}

// CaptureConfig controls a single capture.
type CaptureConfig struct {
	// Timeout bounds the whole capture; 0 disables it.
	Timeout time.Duration // default: 2m

	// IdleTimeout bounds the wait for the network to go quiet.
	IdleTimeout time.Duration // default: 30s

	// ViewportWidth is the layout width in CSS pixels.
	ViewportWidth int // default: 1280

	// Verify checks the output for a single page of the measured size.
	Verify bool // default: false
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string // default: "info"
	Format string // "json" or "text"; default: "text"
}

// Load reads configuration from environment variables with sane defaults.
func Load() *Config {
	return &Config{
		Browser: BrowserConfig{
			Engine:       envOr("LONGPDF_ENGINE", "chromedp"),
			ChromePath:   os.Getenv("LONGPDF_CHROME_PATH"),
			NoSandbox:    envBoolOr("LONGPDF_NO_SANDBOX", false),
			AutoDownload: envBoolOr("LONGPDF_AUTO_DOWNLOAD", false),
			Stealth:      envBoolOr("LONGPDF_STEALTH", false),
		},
		Capture: CaptureConfig{
			Timeout:       envDurationOr("LONGPDF_TIMEOUT", 2*time.Minute),
			IdleTimeout:   envDurationOr("LONGPDF_IDLE_TIMEOUT", 30*time.Second),
			ViewportWidth: envIntOr("LONGPDF_VIEWPORT_WIDTH", 1280),
			Verify:        envBoolOr("LONGPDF_VERIFY", false),
		},
		Log: LogConfig{
			Level:  envOr("LONGPDF_LOG_LEVEL", "info"),
			Format: envOr("LONGPDF_LOG_FORMAT", "text"),
		},
	}
}

// --- helper functions ---

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBoolOr(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDurationOr(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
