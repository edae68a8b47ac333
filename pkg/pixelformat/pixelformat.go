// Package pixelformat converts raw pixel layouts into the canonical forms the
// sixel encoder works on: 24-bit RGB triplets or 8-bit index/gray bytes.
package pixelformat

import (
	"errors"
	"fmt"
	"strings"
)

// Format identifies a raw pixel layout
type Format int

const (
	RGB555   Format = 1
	RGB565   Format = 2
	RGB888   Format = 3 // canonical
	BGR555   Format = 4
	BGR565   Format = 5
	BGR888   Format = 6
	ARGB8888 Format = 0x10
	RGBA8888 Format = 0x11
	ABGR8888 Format = 0x12
	BGRA8888 Format = 0x13
	G1       Format = 1 << 6
	G2       Format = 1<<6 | 0x01
	G4       Format = 1<<6 | 0x02
	G8       Format = 1<<6 | 0x03
	AG88     Format = 1<<6 | 0x13
	GA88     Format = 1<<6 | 0x23
	PAL1     Format = 1 << 7
	PAL2     Format = 1<<7 | 0x01
	PAL4     Format = 1<<7 | 0x02
	PAL8     Format = 1<<7 | 0x03
)

var (
	ErrUnknownFormat = errors.New("unknown pixel format")
	ErrBadDimensions = errors.New("bad dimensions")
	ErrShortBuffer   = errors.New("pixel buffer too short")
	ErrPaletted      = errors.New("paletted pixels have no color without a palette")
)

var formatNames = map[Format]string{
	RGB555:   "rgb555",
	RGB565:   "rgb565",
	RGB888:   "rgb888",
	BGR555:   "bgr555",
	BGR565:   "bgr565",
	BGR888:   "bgr888",
	ARGB8888: "argb8888",
	RGBA8888: "rgba8888",
	ABGR8888: "abgr8888",
	BGRA8888: "bgra8888",
	G1:       "g1",
	G2:       "g2",
	G4:       "g4",
	G8:       "g8",
	AG88:     "ag88",
	GA88:     "ga88",
	PAL1:     "pal1",
	PAL2:     "pal2",
	PAL4:     "pal4",
	PAL8:     "pal8",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}
	return fmt.Sprintf("Format(%#x)", int(f))
}

// Parse returns the format for its lower-case name (e.g. "rgba8888")
func Parse(s string) (Format, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%q: %w", s, ErrUnknownFormat)
}

// Valid reports whether f is a known format
func (f Format) Valid() bool {
	_, ok := formatNames[f]
	return ok
}

// IsPaletted reports whether pixels are palette indices
func (f Format) IsPaletted() bool {
	return f&(1<<7) != 0
}

// IsGray reports whether pixels are grayscale (with or without alpha)
func (f Format) IsGray() bool {
	return f&(1<<6) != 0
}

// BitsPerPixel returns the storage size of one pixel in bits
func (f Format) BitsPerPixel() int {
	switch f {
	case G1, PAL1:
		return 1
	case G2, PAL2:
		return 2
	case G4, PAL4:
		return 4
	case G8, PAL8:
		return 8
	case RGB555, RGB565, BGR555, BGR565, AG88, GA88:
		return 16
	case RGB888, BGR888:
		return 24
	case ARGB8888, RGBA8888, ABGR8888, BGRA8888:
		return 32
	}
	return 0
}

// Stride returns the number of bytes of one row; sub-byte rows are padded to a byte.
func (f Format) Stride(width int) int {
	return (width*f.BitsPerPixel() + 7) / 8
}

// RequiredBytes returns the minimum buffer length for a width x height image
func RequiredBytes(f Format, width, height int) (int, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("%v: %w", f, ErrUnknownFormat)
	}
	if width < 1 || height < 1 {
		return 0, fmt.Errorf("%dx%d: %w", width, height, ErrBadDimensions)
	}
	return f.Stride(width) * height, nil
}

// Normalize converts src into dst and returns the resulting format.
//
// Color formats and gray+alpha formats become RGB888, as does G8. Sub-byte gray
// and paletted formats are unpacked to one index per byte (G8 and PAL8
// respectively), PAL8 and RGB888 are copied. dst must hold width*height*3
// bytes for RGB888 results and width*height bytes otherwise.
//
// Callers that always need width*height*3 RGB bytes should use ToRGB, which
// also expands sub-byte gray levels.
func Normalize(dst, src []byte, f Format, width, height int) (Format, error) {
	need, err := RequiredBytes(f, width, height)
	if err != nil {
		return 0, err
	}
	if len(src) < need {
		return 0, fmt.Errorf("%v needs %d bytes, got %d: %w", f, need, len(src), ErrShortBuffer)
	}

	out := RGB888
	switch f {
	case G1, G2, G4:
		out = G8
	case PAL1, PAL2, PAL4, PAL8:
		out = PAL8
	}
	size := width * height
	if out == RGB888 {
		size *= 3
	}
	if len(dst) < size {
		return 0, fmt.Errorf("destination needs %d bytes, got %d: %w", size, len(dst), ErrShortBuffer)
	}

	switch f {
	case RGB888:
		copy(dst, src[:size])
	case PAL8:
		copy(dst, src[:size])
	case G1, G2, G4, PAL1, PAL2, PAL4:
		unpack(dst, src, f.BitsPerPixel(), width, height)
	case G8:
		for i := range size / 3 {
			dst[i*3], dst[i*3+1], dst[i*3+2] = src[i], src[i], src[i]
		}
	default:
		bpp := f.BitsPerPixel() / 8
		for i := range width * height {
			r, g, b := rgb(src[i*bpp:], f)
			dst[i*3], dst[i*3+1], dst[i*3+2] = r, g, b
		}
	}
	return out, nil
}

// ToRGB returns a new RGB888 copy of src. Sub-byte gray levels are scaled to
// the full 0-255 range. Paletted formats are rejected.
func ToRGB(src []byte, f Format, width, height int) ([]byte, error) {
	if f.IsPaletted() && f.Valid() {
		return nil, fmt.Errorf("%v: %w", f, ErrPaletted)
	}
	switch f {
	case G1, G2, G4:
		idx := make([]byte, width*height)
		if _, err := Normalize(idx, src, f, width, height); err != nil {
			return nil, err
		}
		max := (1 << f.BitsPerPixel()) - 1
		dst := make([]byte, width*height*3)
		for i, v := range idx {
			g := byte(int(v) * 255 / max)
			dst[i*3], dst[i*3+1], dst[i*3+2] = g, g, g
		}
		return dst, nil
	}
	if width < 1 || height < 1 {
		return nil, fmt.Errorf("%dx%d: %w", width, height, ErrBadDimensions)
	}
	dst := make([]byte, width*height*3)
	if _, err := Normalize(dst, src, f, width, height); err != nil {
		return nil, err
	}
	return dst, nil
}

// unpack expands MSB-first packed pixels of depth bits to one byte each.
func unpack(dst, src []byte, depth, width, height int) {
	stride := (width*depth + 7) / 8
	mask := byte(1<<depth) - 1
	per := 8 / depth
	for y := range height {
		row := src[y*stride:]
		for x := range width {
			shift := 8 - depth*(x%per+1)
			dst[y*width+x] = row[x/per] >> shift & mask
		}
	}
}

// rgb reads one pixel of a multi-byte format. 16-bit words are big-endian.
func rgb(p []byte, f Format) (r, g, b byte) {
	switch f {
	case RGB555, BGR555, RGB565, BGR565:
		v := uint16(p[0])<<8 | uint16(p[1])
		switch f {
		case RGB555:
			r, g, b = byte(v>>10&0x1f)<<3, byte(v>>5&0x1f)<<3, byte(v&0x1f)<<3
		case BGR555:
			b, g, r = byte(v>>10&0x1f)<<3, byte(v>>5&0x1f)<<3, byte(v&0x1f)<<3
		case RGB565:
			r, g, b = byte(v>>11&0x1f)<<3, byte(v>>5&0x3f)<<2, byte(v&0x1f)<<3
		case BGR565:
			b, g, r = byte(v>>11&0x1f)<<3, byte(v>>5&0x3f)<<2, byte(v&0x1f)<<3
		}
	case BGR888:
		b, g, r = p[0], p[1], p[2]
	case ARGB8888:
		r, g, b = p[1], p[2], p[3]
	case RGBA8888:
		r, g, b = p[0], p[1], p[2]
	case ABGR8888:
		b, g, r = p[1], p[2], p[3]
	case BGRA8888:
		b, g, r = p[0], p[1], p[2]
	case GA88:
		r, g, b = p[0], p[0], p[0]
	case AG88:
		r, g, b = p[1], p[1], p[1]
	}
	return r, g, b
}
