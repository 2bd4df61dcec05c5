package longpdf

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/go-rod/stealth"
)

// chromedpSession is a session backed by a dedicated chromedp browser.
type chromedpSession struct {
	ctx         context.Context
	allocCancel context.CancelFunc
	tabCancel   context.CancelFunc
	idleTimeout time.Duration
	logger      *slog.Logger
}

func openChromedp(ctx context.Context, cfg rendererConfig) (session, error) {
	path, err := browserPath(cfg)
	if err != nil {
		return nil, err
	}

	allocOpts := append(
		chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("force-device-scale-factor", "1"),
		chromedp.WindowSize(cfg.viewportWidth, ViewportHeight),
	)
	if path != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(path))
	}
	if cfg.noSandbox {
		allocOpts = append(allocOpts, chromedp.NoSandbox)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocOpts...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	s := &chromedpSession{
		ctx:         tabCtx,
		allocCancel: allocCancel,
		tabCancel:   tabCancel,
		idleTimeout: cfg.idleTimeout,
		logger:      cfg.logger,
	}

	// Start the browser eagerly so launch errors surface here.
	if err := chromedp.Run(tabCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	if cfg.stealth {
		err := chromedp.Run(tabCtx, chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(stealth.JS).Do(ctx)
			return err
		}))
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("installing stealth script: %w", err)
		}
	}
	return s, nil
}

func (s *chromedpSession) SetViewport(width, height int) error {
	return chromedp.Run(s.ctx,
		emulation.SetDeviceMetricsOverride(int64(width), int64(height), 1, false),
	)
}

// Navigate loads address, then waits for the main frame's networkIdle
// lifecycle event. Lifecycle events left over from the blank start page
// are ignored until the new document reports "init".
func (s *chromedpSession) Navigate(address string) error {
	mainFrame := cdp.FrameID(chromedp.FromContext(s.ctx).Target.TargetID)

	idle := make(chan struct{})
	var once sync.Once
	var mu sync.Mutex
	started := false

	lctx, cancel := context.WithCancel(s.ctx)
	defer cancel()
	chromedp.ListenTarget(lctx, func(ev any) {
		e, ok := ev.(*page.EventLifecycleEvent)
		if !ok || e.FrameID != mainFrame {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		switch e.Name {
		case "init":
			started = true
		case "networkIdle":
			if started {
				once.Do(func() { close(idle) })
			}
		}
	})

	if err := chromedp.Run(s.ctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.Navigate(address),
	); err != nil {
		return err
	}

	timer := time.NewTimer(s.idleTimeout)
	defer timer.Stop()
	select {
	case <-idle:
	case <-timer.C:
		s.logger.Warn("network did not go idle, continuing",
			"url", address, "waited", s.idleTimeout)
	case <-s.ctx.Done():
		return s.ctx.Err()
	}
	return nil
}

func (s *chromedpSession) AddStyle(css string) error {
	quoted, err := json.Marshal(css)
	if err != nil {
		return err
	}
	js := fmt.Sprintf(`() => {
		const el = document.createElement('style');
		el.textContent = %s;
		(document.head || document.documentElement).appendChild(el);
	}`, quoted)
	return s.Run(js)
}

func (s *chromedpSession) Run(script string) error {
	return chromedp.Run(s.ctx, chromedp.Evaluate(call(script), nil))
}

func (s *chromedpSession) Number(script string) (float64, error) {
	var v float64
	err := chromedp.Run(s.ctx, chromedp.Evaluate(call(script), &v))
	return v, err
}

func (s *chromedpSession) PrintPDF(p printParams) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(s.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		buf, _, err = page.PrintToPDF().
			WithPaperWidth(p.WidthIn).
			WithPaperHeight(p.HeightIn).
			WithMarginTop(0).
			WithMarginRight(0).
			WithMarginBottom(0).
			WithMarginLeft(0).
			WithPrintBackground(true).
			WithPreferCSSPageSize(false).
			WithDisplayHeaderFooter(false).
			Do(ctx)
		return err
	}))
	return buf, err
}

// Close shuts the browser down. It is safe to call more than once.
func (s *chromedpSession) Close() error {
	s.tabCancel()
	s.allocCancel()
	return nil
}

// call turns a function expression into an immediately invoked one, the
// form Runtime.evaluate expects.
func call(fn string) string {
	return "(" + fn + ")()"
}
