package longpdf

import (
	"context"
	"strconv"
)

// printParams describes the single PDF page to print. Sizes are inches.
type printParams struct {
	WidthIn  float64
	HeightIn float64
}

// session is one isolated browser tab for the duration of a capture.
// Scripts are JavaScript function expressions such as "() => window.scrollY".
type session interface {
	// SetViewport resizes the viewport with a device pixel ratio of 1.
	SetViewport(width, height int) error
	// Navigate loads address and waits for the load event followed by
	// network idle.
	Navigate(address string) error
	// AddStyle appends a <style> element holding css to the document.
	AddStyle(css string) error
	// Run executes a script and discards its result.
	Run(script string) error
	// Number executes a script that evaluates to a number.
	Number(script string) (float64, error)
	// PrintPDF renders the document onto a single page.
	PrintPDF(p printParams) ([]byte, error)
	// Close releases the tab and the browser behind it.
	Close() error
}

// opener starts a browser and opens a session in it. The session is
// bound to ctx: cancelling ctx aborts any pending call.
type opener func(ctx context.Context, cfg rendererConfig) (session, error)

const (
	scrollOffsetJS  = `() => window.scrollY`
	scrollTopJS     = `() => window.scrollTo(0, 0)`
	contentWidthJS  = `() => Math.max(document.documentElement.scrollWidth, document.body.scrollWidth)`
	contentHeightJS = `() => Math.max(document.documentElement.scrollHeight, document.body.scrollHeight)`
)

func scrollByJS(step int) string {
	return "() => window.scrollBy(0, " + strconv.Itoa(step) + ")"
}
