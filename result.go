package longpdf

import (
	"bytes"
	"encoding/base64"
	"io"
	"os"
)

// Result holds a captured single-page PDF together with the geometry it
// was printed at.
//
// It is safe to call its methods multiple times; the underlying data is
// never modified.
type Result struct {
	data        []byte
	measurement Measurement
	dims        Dimensions
	scrollSteps int
}

// Bytes returns the raw PDF content.
func (r *Result) Bytes() []byte {
	return r.data
}

// Base64 returns the PDF encoded as a standard base64 string (RFC 4648).
func (r *Result) Base64() string {
	return base64.StdEncoding.EncodeToString(r.data)
}

// Reader returns an [*bytes.Reader] over the PDF content.
func (r *Result) Reader() *bytes.Reader {
	return bytes.NewReader(r.data)
}

// WriteTo writes the full PDF content to w. It implements [io.WriterTo].
func (r *Result) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(r.data)
	return int64(n), err
}

// WriteToFile writes the PDF to the file at path, creating it if needed.
// Failures are reported as [KindFilesystem] errors.
func (r *Result) WriteToFile(path string, perm os.FileMode) error {
	if err := os.WriteFile(path, r.data, perm); err != nil {
		return newError(KindFilesystem, "writing "+path, err)
	}
	return nil
}

// Len returns the size of the PDF in bytes.
func (r *Result) Len() int {
	return len(r.data)
}

// Dimensions returns the page size the PDF was printed at.
func (r *Result) Dimensions() Dimensions {
	return r.dims
}

// Measurement returns the content box measured after scrolling.
func (r *Result) Measurement() Measurement {
	return r.measurement
}

// ScrollSteps returns how many autoscroll iterations ran before the
// scroll offset settled or the cap was reached.
func (r *Result) ScrollSteps() int {
	return r.scrollSteps
}
