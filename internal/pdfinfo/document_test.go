package pdfinfo

import (
	"bytes"
	"compress/zlib"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// buildTablePDF writes a PDF with a classic xref table. Each page body
// is spliced verbatim into its page dictionary.
func buildTablePDF(treeExtra string, pageExtras ...string) []byte {
	var b bytes.Buffer
	var offsets []int
	obj := func(body string) {
		offsets = append(offsets, b.Len())
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	b.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	kids := make([]string, len(pageExtras))
	for i := range kids {
		kids[i] = fmt.Sprintf("%d 0 R", i+3)
	}
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d %s >>", strings.Join(kids, " "), len(kids), treeExtra))
	for _, extra := range pageExtras {
		obj("<< /Type /Page /Parent 2 0 R " + extra + " >>")
	}

	xref := b.Len()
	fmt.Fprintf(&b, "xref\n0 %d\n0000000000 65535 f\r\n", len(offsets)+1)
	for _, off := range offsets {
		fmt.Fprintf(&b, "%010d 00000 n\r\n", off)
	}
	fmt.Fprintf(&b, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return b.Bytes()
}

// buildStreamPDF writes a PDF 1.5 file whose only page lives in an
// object stream and whose xref is a Flate stream with the PNG Up
// predictor, the layout Chrome's printer is free to emit.
func buildStreamPDF(t *testing.T, width, height float64) []byte {
	t.Helper()
	var b bytes.Buffer
	offsets := map[int]int{}
	obj := func(n int, body string) {
		offsets[n] = b.Len()
		fmt.Fprintf(&b, "%d 0 obj\n%s\nendobj\n", n, body)
	}

	b.WriteString("%PDF-1.5\n")
	obj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	obj(2, fmt.Sprintf("<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 %g %g] >>", width, height))

	header := "3 0 "
	page := "<< /Type /Page /Parent 2 0 R >>"
	offsets[4] = b.Len()
	fmt.Fprintf(&b, "4 0 obj\n<< /Type /ObjStm /N 1 /First %d /Length %d >>\nstream\n%s%s\nendstream\nendobj\n",
		len(header), len(header+page), header, page)

	rows := [][]byte{
		row(0, 0, 255),
		row(1, offsets[1], 0),
		row(1, offsets[2], 0),
		row(2, 4, 0),
		row(1, offsets[4], 0),
	}
	offsets[5] = b.Len()
	rows = append(rows, row(1, offsets[5], 0))

	var raw bytes.Buffer
	prev := make([]byte, 6)
	for _, r := range rows {
		raw.WriteByte(2)
		for i := range r {
			raw.WriteByte(r[i] - prev[i])
		}
		prev = r
	}
	var z bytes.Buffer
	zw := zlib.NewWriter(&z)
	if _, err := zw.Write(raw.Bytes()); err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	fmt.Fprintf(&b, "5 0 obj\n<< /Type /XRef /Size 6 /W [1 4 1] /Root 1 0 R /Filter /FlateDecode "+
		"/DecodeParms << /Columns 6 /Predictor 12 >> /Length %d >>\nstream\n", z.Len())
	b.Write(z.Bytes())
	fmt.Fprintf(&b, "\nendstream\nendobj\nstartxref\n%d\n%%%%EOF\n", offsets[5])
	return b.Bytes()
}

func row(typ, f2, f3 int) []byte {
	return []byte{byte(typ), byte(f2 >> 24), byte(f2 >> 16), byte(f2 >> 8), byte(f2), byte(f3)}
}

func TestPages_XRefTable(t *testing.T) {
	data := buildTablePDF("", "/MediaBox [0 0 1440 7920]")
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0] != (Page{Width: 1440, Height: 7920}) {
		t.Errorf("page = %+v", pages[0])
	}
	w, h := pages[0].Inches()
	if w != 20 || h != 110 {
		t.Errorf("Inches() = %v x %v, want 20 x 110", w, h)
	}
}

func TestPages_InheritedMediaBox(t *testing.T) {
	data := buildTablePDF("/MediaBox [0 0 612 792]", "", "/MediaBox [0 0 595.28 841.89]", "")
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	want := []Page{{612, 792}, {595.28, 841.89}, {612, 792}}
	if len(pages) != len(want) {
		t.Fatalf("got %d pages, want %d", len(pages), len(want))
	}
	for i := range want {
		if pages[i] != want[i] {
			t.Errorf("page %d = %+v, want %+v", i, pages[i], want[i])
		}
	}
}

func TestPages_MissingMediaBox(t *testing.T) {
	doc, err := Load(buildTablePDF("", ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := doc.Pages(); err == nil {
		t.Fatal("expected an error for a page without MediaBox")
	}
}

func TestPages_XRefStream(t *testing.T) {
	doc, err := Load(buildStreamPDF(t, 921.6, 14400))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if v := doc.Version(); v != "1.5" {
		t.Errorf("Version() = %q, want 1.5", v)
	}
	pages, err := doc.Pages()
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0] != (Page{Width: 921.6, Height: 14400}) {
		t.Errorf("page = %+v", pages[0])
	}
}

func TestLoad_NotPDF(t *testing.T) {
	_, err := Load([]byte("<html></html>"))
	if !errors.Is(err, ErrNotPDF) {
		t.Fatalf("err = %v, want ErrNotPDF", err)
	}
}

func TestLoad_NoStartXRef(t *testing.T) {
	if _, err := Load([]byte("%PDF-1.4\n1 0 obj << >> endobj\n")); err == nil {
		t.Fatal("expected an error for a file without startxref")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "one.pdf")
	if err := os.WriteFile(path, buildTablePDF("", "/MediaBox [0 0 960 960]"), 0o644); err != nil {
		t.Fatal(err)
	}
	doc, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if v := doc.Version(); v != "1.4" {
		t.Errorf("Version() = %q, want 1.4", v)
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.pdf")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(missing) err = %v, want os.ErrNotExist", err)
	}
}

func TestUnpredictPNG(t *testing.T) {
	// Two rows of three columns: Sub then Up.
	in := []byte{
		1, 1, 1, 1,
		2, 1, 1, 1,
	}
	got, err := unpredictPNG(in, 3)
	if err != nil {
		t.Fatalf("unpredictPNG: %v", err)
	}
	want := []byte{1, 2, 3, 2, 3, 4}
	if !bytes.Equal(got, want) {
		t.Errorf("unpredictPNG = %v, want %v", got, want)
	}

	if _, err := unpredictPNG([]byte{9, 0, 0, 0}, 3); err == nil {
		t.Error("expected an error for an unknown filter type")
	}
}
