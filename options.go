package longpdf

import (
	"log/slog"
	"time"
)

// Engine selects the browser automation layer used for a capture.
type Engine string

const (
	// EngineChromedp drives Chrome through chromedp. It is the default.
	EngineChromedp Engine = "chromedp"
	// EngineRod drives Chrome through go-rod.
	EngineRod Engine = "rod"
)

// rendererConfig holds internal configuration for a Renderer.
type rendererConfig struct {
	engine        Engine
	chromePath    string
	autoDownload  bool
	noSandbox     bool
	stealth       bool
	verify        bool
	viewportWidth int
	timeout       time.Duration
	idleTimeout   time.Duration
	scroll        ScrollConfig
	logger        *slog.Logger
}

func defaultConfig() rendererConfig {
	return rendererConfig{
		engine:        EngineChromedp,
		viewportWidth: DefaultViewportWidth,
		timeout:       2 * time.Minute,
		idleTimeout:   30 * time.Second,
		scroll:        DefaultScrollConfig(),
	}
}

// Option configures a [Renderer].
type Option func(*rendererConfig)

// WithEngine selects the automation layer. Unknown values are rejected
// by [NewRenderer].
func WithEngine(e Engine) Option {
	return func(c *rendererConfig) {
		c.engine = e
	}
}

// WithChromePath sets the path to the Chrome or Chromium executable.
// By default the engine searches standard locations automatically.
func WithChromePath(path string) Option {
	return func(c *rendererConfig) {
		c.chromePath = path
	}
}

// WithAutoDownload fetches a compatible Chromium build when no explicit
// path is configured. The binary is cached by the rod launcher.
func WithAutoDownload() Option {
	return func(c *rendererConfig) {
		c.autoDownload = true
	}
}

// WithNoSandbox disables the Chrome sandbox. This is required when
// running as root, for example inside Docker containers.
func WithNoSandbox() Option {
	return func(c *rendererConfig) {
		c.noSandbox = true
	}
}

// WithStealth injects the go-rod stealth evasions before navigation, for
// sites that refuse to serve headless browsers.
func WithStealth() Option {
	return func(c *rendererConfig) {
		c.stealth = true
	}
}

// WithVerify re-reads the generated PDF and fails with [KindVerify]
// unless it holds exactly one page of the computed size.
func WithVerify() Option {
	return func(c *rendererConfig) {
		c.verify = true
	}
}

// WithViewportWidth sets the initial viewport width in CSS pixels. It is
// also the minimum page width. Values below 1 keep the default of 1280.
func WithViewportWidth(px int) Option {
	return func(c *rendererConfig) {
		if px > 0 {
			c.viewportWidth = px
		}
	}
}

// WithTimeout sets the maximum duration of a single capture, browser
// start included. Defaults to 2 minutes. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *rendererConfig) {
		c.timeout = d
	}
}

// WithNetworkIdleTimeout bounds the wait for network idle after the load
// event. When it elapses the capture continues with a warning.
func WithNetworkIdleTimeout(d time.Duration) Option {
	return func(c *rendererConfig) {
		if d > 0 {
			c.idleTimeout = d
		}
	}
}

// WithScroll overrides the autoscroll parameters. Zero fields keep their
// defaults.
func WithScroll(sc ScrollConfig) Option {
	return func(c *rendererConfig) {
		c.scroll = sc.resolved()
	}
}

// WithLogger routes diagnostics, including the page-height warning, to l.
// Defaults to [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(c *rendererConfig) {
		c.logger = l
	}
}
