package pdfinfo

import (
	"bytes"
	"fmt"
	"strconv"
)

// kind identifies the type of a parsed PDF object.
type kind int

const (
	kNull kind = iota
	kBool
	kInt
	kReal
	kString
	kName
	kArray
	kDict
	kStream
	kRef
)

// object is any PDF value. Only the field matching k is meaningful.
type object struct {
	k      kind
	num    float64
	str    []byte
	name   string
	arr    []*object
	dict   dict
	stream []byte
	ref    ref
}

type ref struct {
	num, gen int
}

type dict map[string]*object

var null = &object{k: kNull}

func (o *object) isNumber() bool {
	return o != nil && (o.k == kInt || o.k == kReal)
}

func (d dict) int(key string) (int, bool) {
	o, ok := d[key]
	if !ok || !o.isNumber() {
		return 0, false
	}
	return int(o.num), true
}

func (d dict) name(key string) string {
	if o, ok := d[key]; ok && o.k == kName {
		return o.name
	}
	return ""
}

// maxDepth stops runaway recursion on hostile input.
const maxDepth = 100

// lexer reads PDF objects from a byte slice.
type lexer struct {
	data  []byte
	pos   int
	depth int
}

func (l *lexer) eof() bool { return l.pos >= len(l.data) }

func (l *lexer) skipSpace() {
	for !l.eof() {
		c := l.data[l.pos]
		switch {
		case c == '%':
			for !l.eof() && l.data[l.pos] != '\n' && l.data[l.pos] != '\r' {
				l.pos++
			}
		case isSpace(c):
			l.pos++
		default:
			return
		}
	}
}

func (l *lexer) accept(s string) bool {
	if bytes.HasPrefix(l.data[l.pos:], []byte(s)) {
		l.pos += len(s)
		return true
	}
	return false
}

// token returns the run of regular characters at the cursor.
func (l *lexer) token() string {
	start := l.pos
	for !l.eof() && !isSpace(l.data[l.pos]) && !isDelim(l.data[l.pos]) {
		l.pos++
	}
	return string(l.data[start:l.pos])
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\r', '\n', '\f', 0:
		return true
	}
	return false
}

func isDelim(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

// next parses the object at the cursor.
func (l *lexer) next() (*object, error) {
	if l.depth > maxDepth {
		return nil, fmt.Errorf("objects nested deeper than %d", maxDepth)
	}
	l.depth++
	defer func() { l.depth-- }()

	l.skipSpace()
	if l.eof() {
		return null, nil
	}
	switch c := l.data[l.pos]; {
	case c == '/':
		l.pos++
		return &object{k: kName, name: l.token()}, nil
	case c == '(':
		return l.literal(), nil
	case c == '<' && l.pos+1 < len(l.data) && l.data[l.pos+1] == '<':
		return l.dictOrStream()
	case c == '<':
		return l.hex(), nil
	case c == '[':
		return l.array()
	case c == '+' || c == '-' || c == '.' || (c >= '0' && c <= '9'):
		return l.numberOrRef(), nil
	case l.accept("true"), l.accept("false"):
		return &object{k: kBool}, nil
	default:
		// null, or a keyword this reader has no use for
		if l.token() == "" {
			l.pos++
		}
		return null, nil
	}
}

// literal skips over a (string). Escapes are honoured only far enough to
// find the closing parenthesis; the content is not needed.
func (l *lexer) literal() *object {
	start := l.pos + 1
	depth := 0
	for !l.eof() {
		switch l.data[l.pos] {
		case '\\':
			l.pos++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				l.pos++
				return &object{k: kString, str: l.data[start : l.pos-1]}
			}
		}
		l.pos++
	}
	l.pos = len(l.data)
	return &object{k: kString, str: l.data[start:]}
}

func (l *lexer) hex() *object {
	l.pos++
	start := l.pos
	for !l.eof() && l.data[l.pos] != '>' {
		l.pos++
	}
	s := l.data[start:l.pos]
	if !l.eof() {
		l.pos++
	}
	return &object{k: kString, str: s}
}

func (l *lexer) array() (*object, error) {
	l.pos++
	o := &object{k: kArray}
	for {
		l.skipSpace()
		if l.eof() {
			return o, nil
		}
		if l.data[l.pos] == ']' {
			l.pos++
			return o, nil
		}
		v, err := l.next()
		if err != nil {
			return nil, err
		}
		o.arr = append(o.arr, v)
	}
}

func (l *lexer) dictOrStream() (*object, error) {
	l.pos += 2
	d := make(dict)
	for {
		l.skipSpace()
		if l.eof() {
			break
		}
		if l.accept(">>") {
			break
		}
		if l.data[l.pos] != '/' {
			l.pos++
			continue
		}
		l.pos++
		key := l.token()
		v, err := l.next()
		if err != nil {
			return nil, err
		}
		d[key] = v
	}

	save := l.pos
	l.skipSpace()
	if !l.accept("stream") {
		l.pos = save
		return &object{k: kDict, dict: d}, nil
	}
	l.accept("\r")
	l.accept("\n")

	start := l.pos
	n, ok := d.int("Length")
	if !ok || n < 0 || start+n > len(l.data) {
		end := bytes.Index(l.data[start:], []byte("endstream"))
		if end < 0 {
			end = len(l.data) - start
		}
		n = end
	}
	l.pos = start + n
	l.skipSpace()
	l.accept("endstream")
	return &object{k: kStream, dict: d, stream: l.data[start : start+n]}, nil
}

// numberOrRef reads a number, or an "N G R" reference when the number is
// followed by a generation and the R keyword.
func (l *lexer) numberOrRef() *object {
	tok := l.token()
	f, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return null
	}
	i, intErr := strconv.Atoi(tok)
	if intErr != nil {
		return &object{k: kReal, num: f}
	}

	save := l.pos
	l.skipSpace()
	if gen, err := strconv.Atoi(l.token()); err == nil {
		l.skipSpace()
		if l.accept("R") && (l.eof() || isSpace(l.data[l.pos]) || isDelim(l.data[l.pos])) {
			return &object{k: kRef, ref: ref{num: i, gen: gen}}
		}
	}
	l.pos = save
	return &object{k: kInt, num: f}
}
