// Package longpdf captures a web page as a single, unbroken PDF page.
//
// A capture loads the page in headless Chrome at a fixed viewport,
// scrolls through it so lazy-loaded content appears, measures the full
// rendered document and prints it onto one page of exactly that size.
// The result reads like a long screenshot that keeps text selectable.
//
// For one-off captures use the package-level helpers:
//
//	res, err := longpdf.Render(ctx, "https://example.com", "example.pdf")
//
// For repeated captures with the same settings create a [Renderer]:
//
//	r, err := longpdf.NewRenderer(
//	    longpdf.WithEngine(longpdf.EngineRod),
//	    longpdf.WithVerify(),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	res, err := r.Capture(ctx, "https://example.com")
//
// Every capture starts its own browser and shuts it down when it is done.
// Two engines drive the browser: chromedp (the default) and rod.
//
// # Page geometry
//
// The viewport is [DefaultViewportWidth] by [ViewportHeight] CSS pixels
// at a device pixel ratio of 1. The page width is the wider of the
// content and the viewport; the height is the content height. Both are
// converted at [CSSPixelsPerInch]. Chrome cannot print pages taller than
// [MaxPageHeightInches]; taller content is cut at that height and a
// warning is logged with the true height.
//
// A [Result] exposes the PDF and the geometry it was printed at:
//
//	res.Bytes()                       // []byte
//	res.Dimensions()                  // page size in inches
//	res.WriteToFile("out.pdf", 0o644) // write to disk
//
// Chrome or Chromium must be available in PATH, or use [WithAutoDownload].
//
// # Errors
//
// Failures are returned as [*Error] values tagged with a [Kind]; use
// [IsKind] to tell a navigation failure from a browser or filesystem one.
package longpdf
