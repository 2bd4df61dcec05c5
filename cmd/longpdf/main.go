// longpdf captures a web page as one long PDF page.
//
// Usage:
//
//	longpdf [options] <url> [output.pdf]
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/porticus-lab/longpdf"
	"github.com/porticus-lab/longpdf/internal/config"
)

const defaultOutput = "output.pdf"

var errNoURL = errors.New("no url specified")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func printUsage(w io.Writer) {
	fmt.Fprint(w, `longpdf - capture a web page as a single-page PDF

Usage:
  longpdf [options] <url> [output.pdf]

The output defaults to output.pdf.

Options:
  -w <px>            Viewport width in CSS pixels (default: 1280)
  -engine <name>     Browser driver: chromedp or rod (default: chromedp)
  -timeout <dur>     Limit for the whole capture, e.g. 90s (default: 2m)
  -verify            Check the output holds exactly one page of the measured size
  -stealth           Hide common headless-browser fingerprints
  -no-sandbox        Run Chrome without its sandbox (needed in most containers)
  -download          Download Chromium when no browser is installed
  -h                 Show this help

Environment:
  LONGPDF_ENGINE, LONGPDF_CHROME_PATH, LONGPDF_NO_SANDBOX,
  LONGPDF_AUTO_DOWNLOAD, LONGPDF_STEALTH, LONGPDF_TIMEOUT,
  LONGPDF_IDLE_TIMEOUT, LONGPDF_VIEWPORT_WIDTH, LONGPDF_VERIFY,
  LONGPDF_LOG_LEVEL (debug, info, warn, error),
  LONGPDF_LOG_FORMAT (text, json)

Examples:
  longpdf https://example.com
  longpdf -w 1920 https://example.com/article article.pdf
  longpdf -engine rod -verify https://example.com page.pdf
`)
}

// invocation is what the command line asks for beyond the config.
type invocation struct {
	url    string
	output string
	help   bool
}

// parseArgs reads options and positional arguments. Options override the
// values loaded from the environment in cfg.
func parseArgs(args []string, cfg *config.Config) (invocation, error) {
	var inv invocation
	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-h", "--help", "help":
			inv.help = true
			return inv, nil
		case "-w":
			i++
			if i >= len(args) {
				return inv, fmt.Errorf("-w requires an argument")
			}
			w, err := strconv.Atoi(args[i])
			if err != nil || w <= 0 {
				return inv, fmt.Errorf("invalid viewport width: %s", args[i])
			}
			cfg.Capture.ViewportWidth = w
		case "-engine":
			i++
			if i >= len(args) {
				return inv, fmt.Errorf("-engine requires an argument")
			}
			cfg.Browser.Engine = args[i]
		case "-timeout":
			i++
			if i >= len(args) {
				return inv, fmt.Errorf("-timeout requires an argument")
			}
			d, err := time.ParseDuration(args[i])
			if err != nil {
				return inv, fmt.Errorf("invalid timeout: %s", args[i])
			}
			cfg.Capture.Timeout = d
		case "-verify":
			cfg.Capture.Verify = true
		case "-stealth":
			cfg.Browser.Stealth = true
		case "-no-sandbox":
			cfg.Browser.NoSandbox = true
		case "-download":
			cfg.Browser.AutoDownload = true
		default:
			if strings.HasPrefix(args[i], "-") {
				return inv, fmt.Errorf("unknown option: %s", args[i])
			}
			positional = append(positional, args[i])
		}
	}

	switch len(positional) {
	case 0:
		return inv, errNoURL
	case 1:
		inv.url, inv.output = positional[0], defaultOutput
	case 2:
		inv.url, inv.output = positional[0], positional[1]
	default:
		return inv, fmt.Errorf("unexpected argument: %s", positional[2])
	}
	return inv, nil
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg := config.Load()

	inv, err := parseArgs(args, cfg)
	if err != nil {
		if !errors.Is(err, errNoURL) {
			fmt.Fprintf(stderr, "error: %v\n\n", err)
		}
		printUsage(stderr)
		return 1
	}
	if inv.help {
		printUsage(stdout)
		return 0
	}

	logger := newLogger(cfg.Log, stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := longpdf.Render(ctx, inv.url, inv.output, rendererOptions(cfg, logger)...)
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 1
	}

	if d := res.Dimensions(); d.Truncated {
		fmt.Fprintf(stderr, "Warning: content is %.1fin tall; pages are limited to %gin, so everything below that is cut off.\n",
			d.ContentHeightIn, longpdf.MaxPageHeightInches)
	}
	fmt.Fprintf(stdout, "Wrote %s\n", inv.output)
	return 0
}

func rendererOptions(cfg *config.Config, logger *slog.Logger) []longpdf.Option {
	opts := []longpdf.Option{
		longpdf.WithEngine(longpdf.Engine(cfg.Browser.Engine)),
		longpdf.WithViewportWidth(cfg.Capture.ViewportWidth),
		longpdf.WithTimeout(cfg.Capture.Timeout),
		longpdf.WithNetworkIdleTimeout(cfg.Capture.IdleTimeout),
		longpdf.WithLogger(logger),
	}
	if cfg.Browser.ChromePath != "" {
		opts = append(opts, longpdf.WithChromePath(cfg.Browser.ChromePath))
	}
	if cfg.Browser.NoSandbox {
		opts = append(opts, longpdf.WithNoSandbox())
	}
	if cfg.Browser.AutoDownload {
		opts = append(opts, longpdf.WithAutoDownload())
	}
	if cfg.Browser.Stealth {
		opts = append(opts, longpdf.WithStealth())
	}
	if cfg.Capture.Verify {
		opts = append(opts, longpdf.WithVerify())
	}
	return opts
}

func newLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
