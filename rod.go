package longpdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"
)

// idleWindow is how long the network must stay quiet to count as idle.
const idleWindow = 500 * time.Millisecond

// rodSession is a session backed by a rod-launched browser.
type rodSession struct {
	launcher    *launcher.Launcher
	browser     *rod.Browser
	page        *rod.Page
	idleTimeout time.Duration
	logger      *slog.Logger
}

func openRod(ctx context.Context, cfg rendererConfig) (session, error) {
	path, err := browserPath(cfg)
	if err != nil {
		return nil, err
	}

	l := launcher.New().
		Context(ctx).
		Headless(true).
		NoSandbox(cfg.noSandbox).
		Set("force-device-scale-factor", "1").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")
	if path != "" {
		l = l.Bin(path)
	}
	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("starting browser: %w", err)
	}

	s := &rodSession{
		launcher:    l,
		browser:     rod.New().ControlURL(u).Context(ctx),
		idleTimeout: cfg.idleTimeout,
		logger:      cfg.logger,
	}
	if err := s.browser.Connect(); err != nil {
		s.launcher.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	if cfg.stealth {
		s.page, err = stealth.Page(s.browser)
	} else {
		s.page, err = s.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("opening page: %w", err)
	}
	return s, nil
}

func (s *rodSession) SetViewport(width, height int) error {
	return s.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: 1,
	})
}

// Navigate loads address, waits for the load event, then for the
// request-idle waiter armed before navigation to drain.
func (s *rodSession) Navigate(address string) error {
	p := s.page.Timeout(s.idleTimeout)
	defer p.CancelTimeout()
	waitIdle := p.WaitRequestIdle(idleWindow, nil, nil, nil)

	if err := s.page.Navigate(address); err != nil {
		return err
	}
	if err := s.page.WaitLoad(); err != nil {
		return err
	}

	start := time.Now()
	waitIdle()
	if time.Since(start) >= s.idleTimeout {
		s.logger.Warn("network did not go idle, continuing",
			"url", address, "waited", s.idleTimeout)
	}
	return nil
}

func (s *rodSession) AddStyle(css string) error {
	return s.page.AddStyleTag("", css)
}

func (s *rodSession) Run(script string) error {
	_, err := s.page.Eval(script)
	return err
}

func (s *rodSession) Number(script string) (float64, error) {
	res, err := s.page.Eval(script)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (s *rodSession) PrintPDF(p printParams) ([]byte, error) {
	r, err := s.page.PDF(&proto.PagePrintToPDF{
		PaperWidth:          gson.Num(p.WidthIn),
		PaperHeight:         gson.Num(p.HeightIn),
		MarginTop:           gson.Num(0),
		MarginRight:         gson.Num(0),
		MarginBottom:        gson.Num(0),
		MarginLeft:          gson.Num(0),
		PrintBackground:     true,
		PreferCSSPageSize:   false,
		DisplayHeaderFooter: false,
	})
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

// Close shuts the browser down and removes its profile directory.
func (s *rodSession) Close() error {
	err := s.browser.Close()
	if err != nil {
		s.launcher.Kill()
	}
	s.launcher.Cleanup()
	return err
}
