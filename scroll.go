package longpdf

import (
	"context"
	"fmt"
	"time"
)

// ScrollConfig controls the autoscroll pass that makes lazy content load.
//
// The pass scrolls down by Step pixels, waits Pause, then reads the
// vertical scroll offset. It stops when the offset stops changing or after
// MaxSteps iterations, then scrolls back to the top.
type ScrollConfig struct {
	// Step is the scroll distance per iteration in CSS pixels. Defaults to 1200.
	Step int
	// Pause is the settle time after each scroll. Defaults to 100ms.
	Pause time.Duration
	// MaxSteps caps the number of iterations. Defaults to 200.
	MaxSteps int
}

// DefaultScrollConfig returns the default autoscroll parameters.
func DefaultScrollConfig() ScrollConfig {
	return ScrollConfig{
		Step:     1200,
		Pause:    100 * time.Millisecond,
		MaxSteps: 200,
	}
}

func (sc ScrollConfig) resolved() ScrollConfig {
	d := DefaultScrollConfig()
	if sc.Step <= 0 {
		sc.Step = d.Step
	}
	if sc.Pause <= 0 {
		sc.Pause = d.Pause
	}
	if sc.MaxSteps <= 0 {
		sc.MaxSteps = d.MaxSteps
	}
	return sc
}

// autoscroll walks the page down until the scroll offset settles and
// returns the number of iterations it took. Whatever the outcome of the
// loop, the page is scrolled back to the top before returning.
//
// An unchanged offset is the only stop signal: there is no portable way
// to know a page has finished loading lazy content.
func autoscroll(ctx context.Context, s session, sc ScrollConfig) (int, error) {
	step := scrollByJS(sc.Step)

	var last float64
	n := 0
	for n < sc.MaxSteps {
		n++
		if err := s.Run(step); err != nil {
			return n, fmt.Errorf("scrolling: %w", err)
		}
		if err := sleep(ctx, sc.Pause); err != nil {
			return n, err
		}
		curr, err := s.Number(scrollOffsetJS)
		if err != nil {
			return n, fmt.Errorf("reading scroll offset: %w", err)
		}
		if curr == last {
			break
		}
		last = curr
	}

	if err := s.Run(scrollTopJS); err != nil {
		return n, fmt.Errorf("scrolling to top: %w", err)
	}
	return n, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
