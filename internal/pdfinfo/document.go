// Package pdfinfo reads the page geometry of a PDF file.
//
// It understands classic cross-reference tables and PDF 1.5
// cross-reference streams, which covers the output of Chrome's printer.
// Content streams, fonts and images are never decoded.
package pdfinfo

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ErrNotPDF is returned when the data does not start with a PDF header.
var ErrNotPDF = errors.New("pdfinfo: not a PDF file")

// PointsPerInch is the PDF user-space unit density.
const PointsPerInch = 72.0

// Page is the size of one page's MediaBox, in points.
type Page struct {
	Width  float64
	Height float64
}

// Inches returns the page size in inches.
func (p Page) Inches() (width, height float64) {
	return p.Width / PointsPerInch, p.Height / PointsPerInch
}

type xrefEntry struct {
	offset int
	// inStream is set for objects packed into an object stream; offset
	// then holds the stream's object number.
	inStream bool
	index    int
}

// Document is a parsed PDF.
type Document struct {
	data    []byte
	xref    map[int]xrefEntry
	trailer dict
	cache   map[int]*object
}

// Open reads and parses the PDF at path.
func Open(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pdfinfo: %w", err)
	}
	return Load(data)
}

// Load parses a PDF held in memory.
func Load(data []byte) (*Document, error) {
	if !bytes.HasPrefix(data, []byte("%PDF-")) {
		return nil, ErrNotPDF
	}
	doc := &Document{
		data:  data,
		xref:  make(map[int]xrefEntry),
		cache: make(map[int]*object),
	}
	off, err := doc.startXRef()
	if err != nil {
		return nil, fmt.Errorf("pdfinfo: %w", err)
	}
	if err := doc.readXRef(off, 0); err != nil {
		return nil, fmt.Errorf("pdfinfo: reading xref: %w", err)
	}
	return doc, nil
}

// Version returns the header version, for example "1.4".
func (doc *Document) Version() string {
	line := doc.data[len("%PDF-"):]
	if i := bytes.IndexAny(line, "\r\n"); i >= 0 {
		line = line[:i]
	}
	return strings.TrimSpace(string(line))
}

func (doc *Document) startXRef() (int, error) {
	tail := doc.data
	if len(tail) > 2048 {
		tail = tail[len(tail)-2048:]
	}
	i := bytes.LastIndex(tail, []byte("startxref"))
	if i < 0 {
		return 0, errors.New("startxref not found")
	}
	l := &lexer{data: tail, pos: i + len("startxref")}
	l.skipSpace()
	off, err := strconv.Atoi(l.token())
	if err != nil {
		return 0, fmt.Errorf("bad startxref: %w", err)
	}
	return off, nil
}

// maxXRefChain bounds the /Prev chain of incremental updates.
const maxXRefChain = 64

func (doc *Document) readXRef(off, hops int) error {
	if hops > maxXRefChain {
		return errors.New("xref /Prev chain too long")
	}
	if off < 0 || off >= len(doc.data) {
		return fmt.Errorf("xref offset %d out of range", off)
	}
	l := &lexer{data: doc.data, pos: off}
	l.skipSpace()

	var trailer dict
	var err error
	if l.accept("xref") {
		trailer, err = doc.readXRefTable(l)
	} else {
		trailer, err = doc.readXRefStream(l)
	}
	if err != nil {
		return err
	}
	if doc.trailer == nil {
		doc.trailer = trailer
	}
	if prev, ok := trailer.int("Prev"); ok {
		return doc.readXRef(prev, hops+1)
	}
	return nil
}

// readXRefTable reads "first count" subsections of 20-byte entries up to
// the trailer keyword. Entries already known from a newer section win.
func (doc *Document) readXRefTable(l *lexer) (dict, error) {
	for {
		l.skipSpace()
		if l.accept("trailer") {
			break
		}
		first, err1 := strconv.Atoi(l.token())
		l.skipSpace()
		count, err2 := strconv.Atoi(l.token())
		if err1 != nil || err2 != nil {
			return nil, errors.New("malformed xref subsection header")
		}
		l.skipSpace()
		for i := 0; i < count; i++ {
			if l.pos+20 > len(l.data) {
				return nil, errors.New("truncated xref table")
			}
			line := string(l.data[l.pos : l.pos+20])
			l.pos += 20
			id := first + i
			if _, seen := doc.xref[id]; seen || line[17] != 'n' {
				continue
			}
			off, err := strconv.Atoi(strings.TrimSpace(line[:10]))
			if err != nil {
				return nil, fmt.Errorf("xref entry %d: %w", id, err)
			}
			doc.xref[id] = xrefEntry{offset: off}
		}
	}
	t, err := l.next()
	if err != nil {
		return nil, err
	}
	if t.k != kDict {
		return nil, errors.New("trailer is not a dictionary")
	}
	return t.dict, nil
}

func (doc *Document) readXRefStream(l *lexer) (dict, error) {
	s, err := doc.indirectAt(l)
	if err != nil {
		return nil, err
	}
	if s.k != kStream || s.dict.name("Type") != "XRef" {
		return nil, errors.New("no xref table or stream at startxref")
	}
	data, err := decode(s)
	if err != nil {
		return nil, fmt.Errorf("xref stream: %w", err)
	}

	w, ok := s.dict["W"]
	if !ok || w.k != kArray || len(w.arr) != 3 {
		return nil, errors.New("xref stream without a valid /W")
	}
	var widths [3]int
	for i, o := range w.arr {
		widths[i] = int(o.num)
	}
	rowLen := widths[0] + widths[1] + widths[2]
	if rowLen == 0 {
		return nil, errors.New("xref stream with zero-width rows")
	}

	size, _ := s.dict.int("Size")
	sections := []int{0, size}
	if idx, ok := s.dict["Index"]; ok && idx.k == kArray {
		sections = sections[:0]
		for _, o := range idx.arr {
			sections = append(sections, int(o.num))
		}
	}

	row := 0
	for i := 0; i+1 < len(sections); i += 2 {
		for id := sections[i]; id < sections[i]+sections[i+1]; id++ {
			if (row+1)*rowLen > len(data) {
				return s.dict, nil
			}
			fields := data[row*rowLen : (row+1)*rowLen]
			row++

			typ := 1
			if widths[0] > 0 {
				typ = beInt(fields[:widths[0]])
			}
			f2 := beInt(fields[widths[0] : widths[0]+widths[1]])
			f3 := beInt(fields[widths[0]+widths[1]:])
			if _, seen := doc.xref[id]; seen {
				continue
			}
			switch typ {
			case 1:
				doc.xref[id] = xrefEntry{offset: f2}
			case 2:
				doc.xref[id] = xrefEntry{offset: f2, inStream: true, index: f3}
			}
		}
	}
	return s.dict, nil
}

func beInt(b []byte) int {
	v := 0
	for _, c := range b {
		v = v<<8 | int(c)
	}
	return v
}

// indirectAt parses "N G obj <object>" at the lexer's cursor.
func (doc *Document) indirectAt(l *lexer) (*object, error) {
	l.skipSpace()
	if _, err := strconv.Atoi(l.token()); err != nil {
		return nil, fmt.Errorf("expected object number at offset %d", l.pos)
	}
	l.skipSpace()
	l.token()
	l.skipSpace()
	if !l.accept("obj") {
		return nil, fmt.Errorf("expected obj keyword at offset %d", l.pos)
	}
	return l.next()
}

// resolve follows o if it is a reference. Dangling references resolve
// to null, as the format requires.
func (doc *Document) resolve(o *object) (*object, error) {
	for hops := 0; o != nil && o.k == kRef; hops++ {
		if hops > maxDepth {
			return nil, errors.New("reference cycle")
		}
		var err error
		if o, err = doc.load(o.ref.num); err != nil {
			return nil, err
		}
	}
	if o == nil {
		return null, nil
	}
	return o, nil
}

func (doc *Document) load(num int) (*object, error) {
	if o, ok := doc.cache[num]; ok {
		return o, nil
	}
	e, ok := doc.xref[num]
	if !ok {
		return null, nil
	}

	var o *object
	var err error
	if e.inStream {
		o, err = doc.loadFromStream(e)
	} else {
		if e.offset < 0 || e.offset >= len(doc.data) {
			return nil, fmt.Errorf("object %d offset out of range", num)
		}
		o, err = doc.indirectAt(&lexer{data: doc.data, pos: e.offset})
	}
	if err != nil {
		return nil, fmt.Errorf("object %d: %w", num, err)
	}
	doc.cache[num] = o
	return o, nil
}

// loadFromStream reads the index-th object of an object stream.
func (doc *Document) loadFromStream(e xrefEntry) (*object, error) {
	s, err := doc.load(e.offset)
	if err != nil {
		return nil, err
	}
	if s.k != kStream {
		return nil, errors.New("object stream container is not a stream")
	}
	data, err := decode(s)
	if err != nil {
		return nil, err
	}
	n, _ := s.dict.int("N")
	first, _ := s.dict.int("First")
	if e.index >= n {
		return nil, fmt.Errorf("index %d beyond object stream of %d", e.index, n)
	}

	l := &lexer{data: data}
	var off int
	for i := 0; i <= e.index; i++ {
		l.skipSpace()
		l.token()
		l.skipSpace()
		if off, err = strconv.Atoi(l.token()); err != nil {
			return nil, errors.New("malformed object stream header")
		}
	}
	if first+off >= len(data) {
		return nil, errors.New("object stream offset out of range")
	}
	return (&lexer{data: data, pos: first + off}).next()
}

// Pages returns every page in document order.
func (doc *Document) Pages() ([]Page, error) {
	root, err := doc.resolve(doc.trailer["Root"])
	if err != nil {
		return nil, err
	}
	if root.k != kDict {
		return nil, errors.New("pdfinfo: trailer has no catalog")
	}
	tree, err := doc.resolve(root.dict["Pages"])
	if err != nil {
		return nil, err
	}
	if tree.k != kDict {
		return nil, errors.New("pdfinfo: catalog has no page tree")
	}

	var pages []Page
	if err := doc.walk(tree.dict, nil, 0, &pages); err != nil {
		return nil, err
	}
	return pages, nil
}

// walk collects leaf pages. MediaBox is inheritable, so the nearest
// ancestor's box is passed down.
func (doc *Document) walk(node dict, box *object, depth int, pages *[]Page) error {
	if depth > maxDepth {
		return errors.New("pdfinfo: page tree too deep")
	}
	if mb, ok := node["MediaBox"]; ok {
		resolved, err := doc.resolve(mb)
		if err != nil {
			return err
		}
		box = resolved
	}

	if node.name("Type") == "Page" {
		p, err := pageFromBox(box)
		if err != nil {
			return err
		}
		*pages = append(*pages, p)
		return nil
	}

	kids, err := doc.resolve(node["Kids"])
	if err != nil {
		return err
	}
	for _, k := range kids.arr {
		kid, err := doc.resolve(k)
		if err != nil {
			return err
		}
		if kid.k != kDict {
			continue
		}
		if err := doc.walk(kid.dict, box, depth+1, pages); err != nil {
			return err
		}
	}
	return nil
}

func pageFromBox(box *object) (Page, error) {
	if box == nil || box.k != kArray || len(box.arr) != 4 {
		return Page{}, errors.New("pdfinfo: page without a MediaBox")
	}
	for _, o := range box.arr {
		if !o.isNumber() {
			return Page{}, errors.New("pdfinfo: non-numeric MediaBox")
		}
	}
	return Page{
		Width:  box.arr[2].num - box.arr[0].num,
		Height: box.arr[3].num - box.arr[1].num,
	}, nil
}
