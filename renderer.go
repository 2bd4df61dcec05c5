package longpdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/porticus-lab/longpdf/internal/pdfinfo"
)

// Renderer captures web pages as single-page PDFs.
//
// Every capture runs in its own browser process, started when the
// capture begins and shut down when it ends, on success or failure.
// A Renderer is safe for concurrent use.
type Renderer struct {
	cfg  rendererConfig
	open opener

	mu     sync.Mutex
	closed bool
}

// NewRenderer creates a Renderer with the given options.
func NewRenderer(opts ...Option) (*Renderer, error) {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.logger == nil {
		cfg.logger = slog.Default()
	}

	open, ok := openers[cfg.engine]
	if !ok {
		return nil, fmt.Errorf("longpdf: unknown engine %q", cfg.engine)
	}
	return &Renderer{cfg: cfg, open: open}, nil
}

// Close marks the Renderer as closed. Captures already running are not
// interrupted; cancel their context for that. Close is idempotent.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Render captures the page at address and writes the PDF to outputPath.
// The parent directory of outputPath must exist.
func (r *Renderer) Render(ctx context.Context, address, outputPath string) (*Result, error) {
	res, err := r.Capture(ctx, address)
	if err != nil {
		return nil, err
	}
	if err := res.WriteToFile(outputPath, 0o644); err != nil {
		return nil, err
	}
	return res, nil
}

// Capture loads address, scrolls through it so lazy content loads,
// measures the rendered document and prints it onto one page of exactly
// that size. Pages taller than [MaxPageHeightInches] are cut at the limit
// and a warning is logged.
func (r *Renderer) Capture(ctx context.Context, address string) (*Result, error) {
	if err := r.checkClosed(); err != nil {
		return nil, err
	}
	if address == "" {
		return nil, newError(KindNavigation, "navigating", errors.New("empty address"))
	}

	if r.cfg.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.timeout)
		defer cancel()
	}

	s, err := r.open(ctx, r.cfg)
	if err != nil {
		return nil, newError(KindEngine, "starting browser", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			r.cfg.logger.Debug("closing browser", "error", err)
		}
	}()

	return r.capture(ctx, s, address)
}

func (r *Renderer) capture(ctx context.Context, s session, address string) (*Result, error) {
	log := r.cfg.logger.With("url", address)
	vw := r.cfg.viewportWidth

	if err := s.SetViewport(vw, ViewportHeight); err != nil {
		return nil, newError(KindEngine, "setting viewport", err)
	}
	if err := s.Navigate(address); err != nil {
		return nil, newError(KindNavigation, "navigating to "+address, err)
	}
	if err := s.AddStyle(noBreaksCSS); err != nil {
		return nil, newError(KindEngine, "injecting print style", err)
	}

	steps, err := autoscroll(ctx, s, r.cfg.scroll)
	if err != nil {
		return nil, newError(KindEngine, "autoscroll", err)
	}
	log.Debug("autoscroll finished", "steps", steps)

	m, err := measure(s)
	if err != nil {
		return nil, newError(KindEngine, "measuring content", err)
	}

	dims := pageDimensions(m, vw)
	if dims.Truncated {
		log.Warn("content is taller than the maximum PDF page height, anything beyond will be truncated",
			"content_height_in", math.Round(dims.ContentHeightIn*10)/10,
			"max_height_in", MaxPageHeightInches,
		)
	}

	data, err := s.PrintPDF(printParams{WidthIn: dims.WidthIn, HeightIn: dims.HeightIn})
	if err != nil {
		return nil, newError(KindEngine, "printing PDF", err)
	}

	if r.cfg.verify {
		if err := verifyPDF(data, dims); err != nil {
			return nil, newError(KindVerify, "checking output", err)
		}
	}

	log.Info("captured page",
		"width_in", dims.WidthIn,
		"height_in", dims.HeightIn,
		"bytes", len(data),
	)
	return &Result{
		data:        data,
		measurement: m,
		dims:        dims,
		scrollSteps: steps,
	}, nil
}

// measure reads the document's full scroll size, which may exceed the
// viewport in both directions.
func measure(s session) (Measurement, error) {
	w, err := s.Number(contentWidthJS)
	if err != nil {
		return Measurement{}, err
	}
	h, err := s.Number(contentHeightJS)
	if err != nil {
		return Measurement{}, err
	}
	return Measurement{WidthPx: w, HeightPx: h}, nil
}

// verifyPDF checks that data holds exactly one page of the given size,
// within one point.
func verifyPDF(data []byte, d Dimensions) error {
	doc, err := pdfinfo.Load(data)
	if err != nil {
		return err
	}
	pages, err := doc.Pages()
	if err != nil {
		return err
	}
	if len(pages) != 1 {
		return fmt.Errorf("document has %d pages, want 1", len(pages))
	}
	w, h := pages[0].Inches()
	if math.Abs(w-d.WidthIn)*pdfinfo.PointsPerInch > 1 || math.Abs(h-d.HeightIn)*pdfinfo.PointsPerInch > 1 {
		return fmt.Errorf("page is %.3fin x %.3fin, want %s", w, h, d)
	}
	return nil
}

func (r *Renderer) checkClosed() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	return nil
}

// --- Package-level convenience functions ---

// Render captures address into a single-page PDF at outputPath using a
// temporary [Renderer].
func Render(ctx context.Context, address, outputPath string, opts ...Option) (*Result, error) {
	r, err := NewRenderer(opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Render(ctx, address, outputPath)
}

// Capture is like [Render] but returns the PDF without writing it.
func Capture(ctx context.Context, address string, opts ...Option) (*Result, error) {
	r, err := NewRenderer(opts...)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return r.Capture(ctx, address)
}
