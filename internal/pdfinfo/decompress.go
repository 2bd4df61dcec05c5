package pdfinfo

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"
)

// maxInflated bounds the size of a decoded stream (64 MB).
const maxInflated = 64 << 20

// decode applies the stream's /Filter. Only FlateDecode occurs in the
// structural streams this package reads (xref and object streams).
func decode(s *object) ([]byte, error) {
	f, ok := s.dict["Filter"]
	if !ok {
		return s.stream, nil
	}
	name := f.name
	if f.k == kArray {
		if len(f.arr) != 1 {
			return nil, fmt.Errorf("unsupported filter chain of %d filters", len(f.arr))
		}
		name = f.arr[0].name
	}
	if name != "FlateDecode" && name != "Fl" {
		return nil, fmt.Errorf("unsupported filter %q", name)
	}

	r, err := zlib.NewReader(bytes.NewReader(s.stream))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(io.LimitReader(r, maxInflated+1))
	if err != nil {
		return nil, fmt.Errorf("zlib: %w", err)
	}
	if len(out) > maxInflated {
		return nil, fmt.Errorf("stream inflates beyond %d bytes", maxInflated)
	}

	parms := s.dict["DecodeParms"]
	if parms == nil || parms.k != kDict {
		return out, nil
	}
	if p, _ := parms.dict.int("Predictor"); p >= 10 {
		cols, ok := parms.dict.int("Columns")
		if !ok {
			cols = 1
		}
		return unpredictPNG(out, cols)
	}
	return out, nil
}

// unpredictPNG reverses PNG row filters for 8-bit single-component rows
// of the given width, the layout used by xref streams.
func unpredictPNG(data []byte, columns int) ([]byte, error) {
	stride := columns + 1
	if columns <= 0 || len(data)%stride != 0 {
		return nil, fmt.Errorf("predictor data of %d bytes does not fit %d columns", len(data), columns)
	}
	rows := len(data) / stride
	out := make([]byte, rows*columns)
	prev := make([]byte, columns)
	for r := 0; r < rows; r++ {
		src := data[r*stride+1 : (r+1)*stride]
		dst := out[r*columns : (r+1)*columns]
		for i := range dst {
			var left, upLeft byte
			if i > 0 {
				left = dst[i-1]
				upLeft = prev[i-1]
			}
			up := prev[i]
			switch data[r*stride] {
			case 0:
				dst[i] = src[i]
			case 1:
				dst[i] = src[i] + left
			case 2:
				dst[i] = src[i] + up
			case 3:
				dst[i] = src[i] + byte((int(left)+int(up))/2)
			case 4:
				dst[i] = src[i] + paeth(left, up, upLeft)
			default:
				return nil, fmt.Errorf("unknown PNG filter %d", data[r*stride])
			}
		}
		prev = dst
	}
	return out, nil
}

func paeth(a, b, c byte) byte {
	p := int(a) + int(b) - int(c)
	pa, pb, pc := absInt(p-int(a)), absInt(p-int(b)), absInt(p-int(c))
	switch {
	case pa <= pb && pa <= pc:
		return a
	case pb <= pc:
		return b
	}
	return c
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
