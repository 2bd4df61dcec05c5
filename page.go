package longpdf

import (
	"fmt"
	"math"
)

const (
	// CSSPixelsPerInch is Chrome's CSS reference density.
	CSSPixelsPerInch = 96.0

	// MaxPageHeightInches is the longest page Chrome's PDF backend will
	// produce. Content below it is cut off.
	MaxPageHeightInches = 200.0

	// DefaultViewportWidth is the viewport width used when none is given.
	DefaultViewportWidth = 1280

	// ViewportHeight is the provisional viewport height used while the
	// page loads. The final page height comes from measurement.
	ViewportHeight = 1000
)

// noBreaksCSS turns off print pagination so the whole document lands on
// a single sheet.
const noBreaksCSS = `
@media print {
  @page { size: auto; margin: 0; }
  html, body { margin: 0 !important; padding: 0 !important; }
  * { break-before: avoid !important; break-after: avoid !important; break-inside: avoid !important; }
}
`

// Measurement is the rendered content box in CSS pixels.
type Measurement struct {
	WidthPx  float64
	HeightPx float64
}

// Dimensions is the physical size of the single PDF page, in inches.
type Dimensions struct {
	WidthIn  float64
	HeightIn float64

	// ContentHeightIn is the measured content height before clamping.
	ContentHeightIn float64

	// Truncated is set when ContentHeightIn exceeded MaxPageHeightInches
	// and HeightIn was clamped.
	Truncated bool
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%.3fin x %.3fin", d.WidthIn, d.HeightIn)
}

// pxToInches converts CSS pixels to inches.
func pxToInches(px float64) float64 {
	return px / CSSPixelsPerInch
}

// roundInches rounds to the thousandth of an inch sent to the printer.
func roundInches(in float64) float64 {
	return math.Round(in*1000) / 1000
}

// pageDimensions derives the page size from a measurement. The width is
// never narrower than the viewport and the height never exceeds
// MaxPageHeightInches.
func pageDimensions(m Measurement, viewportWidth int) Dimensions {
	widthPx := math.Max(m.WidthPx, float64(viewportWidth))
	height := pxToInches(m.HeightPx)

	d := Dimensions{
		WidthIn:         roundInches(pxToInches(widthPx)),
		HeightIn:        roundInches(height),
		ContentHeightIn: height,
	}
	if height > MaxPageHeightInches {
		d.HeightIn = MaxPageHeightInches
		d.Truncated = true
	}
	return d
}
