package longpdf

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// fakePage simulates a document in a viewport. Scrolling is clamped to
// the scrollable range, and grow lets a test add lazy content each time
// the bottom is reached.
type fakePage struct {
	mu sync.Mutex

	viewportW, viewportH int
	contentW, contentH   float64
	scrollY              float64

	// grow, when set, is called on every scroll that reaches the bottom
	// and returns the extra height that got loaded.
	grow func() float64

	navErr   error
	printErr error
	pages    int

	navigated string
	styles    []string
	scrolls   int
	printed   *printParams
	closed    bool
}

func (f *fakePage) SetViewport(width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewportW, f.viewportH = width, height
	return nil
}

func (f *fakePage) Navigate(address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.navErr != nil {
		return f.navErr
	}
	f.navigated = address
	return nil
}

func (f *fakePage) AddStyle(css string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.styles = append(f.styles, css)
	return nil
}

func (f *fakePage) maxScroll() float64 {
	m := f.contentH - float64(f.viewportH)
	if m < 0 {
		return 0
	}
	return m
}

func (f *fakePage) Run(script string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch {
	case strings.HasPrefix(script, "() => window.scrollBy(0, "):
		arg := strings.TrimSuffix(strings.TrimPrefix(script, "() => window.scrollBy(0, "), ")")
		step, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			return err
		}
		f.scrolls++
		f.scrollY += step
		if f.scrollY >= f.maxScroll() {
			f.scrollY = f.maxScroll()
			if f.grow != nil {
				f.contentH += f.grow()
			}
		}
	case script == scrollTopJS:
		f.scrollY = 0
	default:
		return fmt.Errorf("fake: unexpected script %q", script)
	}
	return nil
}

func (f *fakePage) Number(script string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch script {
	case scrollOffsetJS:
		return f.scrollY, nil
	case contentWidthJS:
		return f.contentW, nil
	case contentHeightJS:
		return f.contentH, nil
	}
	return 0, fmt.Errorf("fake: unexpected script %q", script)
}

func (f *fakePage) PrintPDF(p printParams) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.printErr != nil {
		return nil, f.printErr
	}
	f.printed = &p
	pages := f.pages
	if pages == 0 {
		pages = 1
	}
	return buildTestPDF(pages, p.WidthIn*72, p.HeightIn*72), nil
}

func (f *fakePage) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakePage) opener() opener {
	return func(ctx context.Context, cfg rendererConfig) (session, error) {
		return f, nil
	}
}

func failingOpener(err error) opener {
	return func(ctx context.Context, cfg rendererConfig) (session, error) {
		return nil, err
	}
}

var errFakeLaunch = errors.New("fake: browser did not start")

// buildTestPDF writes a minimal PDF with a classic xref table holding
// the given number of pages of one size, in points.
func buildTestPDF(pages int, width, height float64) []byte {
	var b strings.Builder
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, pages)
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), pages))
	for i := 0; i < pages; i++ {
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %.4f %.4f] >>", width, height))
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n", len(offsets)+1)
	b.WriteString("0000000000 65535 f\r\n")
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return []byte(b.String())
}
