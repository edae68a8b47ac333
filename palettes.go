package termsixel

import (
	"bytes"
	"fmt"
	"strings"
)

// BuiltinPalette names a fixed palette that needs no quantization pass
type BuiltinPalette int

const (
	BuiltinMonoDark   BuiltinPalette = iota // black background, white ink
	BuiltinMonoLight                        // white background, black ink
	BuiltinXTerm16                          // first 16 xterm colors
	BuiltinXTerm256                         // full xterm 256 color table
	BuiltinVT340Mono                        // VT340 gray levels
	BuiltinVT340Color                       // VT340 default color map
	BuiltinG1                               // 1-bit gray ramp
	BuiltinG2                               // 2-bit gray ramp
	BuiltinG4                               // 4-bit gray ramp
	BuiltinG8                               // 8-bit gray ramp
)

var builtinNames = map[BuiltinPalette]string{
	BuiltinMonoDark:   "mono_dark",
	BuiltinMonoLight:  "mono_light",
	BuiltinXTerm16:    "xterm16",
	BuiltinXTerm256:   "xterm256",
	BuiltinVT340Mono:  "vt340_mono",
	BuiltinVT340Color: "vt340_color",
	BuiltinG1:         "gray1",
	BuiltinG2:         "gray2",
	BuiltinG4:         "gray4",
	BuiltinG8:         "gray8",
}

func (b BuiltinPalette) String() string {
	if s, ok := builtinNames[b]; ok {
		return s
	}
	return fmt.Sprintf("BuiltinPalette(%d)", int(b))
}

// ParseBuiltinPalette returns the builtin palette for its name
func ParseBuiltinPalette(s string) (BuiltinPalette, error) {
	for b, name := range builtinNames {
		if strings.EqualFold(s, name) {
			return b, nil
		}
	}
	return 0, fmt.Errorf("unknown builtin palette %q: %w", s, ErrBadArgument)
}

var (
	palMonoDark  = []byte{0x00, 0x00, 0x00, 0xff, 0xff, 0xff}
	palMonoLight = []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00}

	palVT340Mono = []byte{
		0x21, 0x21, 0x21, // gray-2
		0x42, 0x42, 0x42, // gray-4
		0x66, 0x66, 0x66, // gray-6
		0x0f, 0x0f, 0x0f, // gray-1
		0x33, 0x33, 0x33, // gray-3
		0x54, 0x54, 0x54, // gray-5
		0x75, 0x75, 0x75, // white
		0x00, 0x00, 0x00, // black
		0x21, 0x21, 0x21,
		0x42, 0x42, 0x42,
		0x66, 0x66, 0x66,
		0x0f, 0x0f, 0x0f,
		0x33, 0x33, 0x33,
		0x54, 0x54, 0x54,
		0x75, 0x75, 0x75,
		0x00, 0x00, 0x00,
	}

	palVT340Color = []byte{
		0x00, 0x00, 0x00, // black
		0x33, 0x33, 0xcc, // blue
		0xcc, 0x21, 0x21, // red
		0x33, 0xcc, 0x33, // green
		0xcc, 0x33, 0xcc, // magenta
		0x33, 0xcc, 0xcc, // cyan
		0xcc, 0xcc, 0x33, // yellow
		0x87, 0x87, 0x87, // gray 50%
		0x42, 0x42, 0x42, // gray 25%
		0x54, 0x54, 0x99, // blue*
		0x99, 0x42, 0x42, // red*
		0x54, 0x99, 0x54, // green*
		0x99, 0x54, 0x99, // magenta*
		0x54, 0x99, 0x99, // cyan*
		0x99, 0x99, 0x54, // yellow*
		0xcc, 0xcc, 0xcc, // gray 75%
	}

	palXTerm256 = xterm256()
)

// xterm256 builds the xterm table: 16 system colors, the 6x6x6 cube and a
// 24 step gray ramp.
func xterm256() []byte {
	pal := []byte{
		0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x80, 0x00, 0x80, 0x80, 0x00,
		0x00, 0x00, 0x80, 0x80, 0x00, 0x80, 0x00, 0x80, 0x80, 0xc0, 0xc0, 0xc0,
		0x80, 0x80, 0x80, 0xff, 0x00, 0x00, 0x00, 0xff, 0x00, 0xff, 0xff, 0x00,
		0x00, 0x00, 0xff, 0xff, 0x00, 0xff, 0x00, 0xff, 0xff, 0xff, 0xff, 0xff,
	}
	levels := []byte{0x00, 0x5f, 0x87, 0xaf, 0xd7, 0xff}
	for _, r := range levels {
		for _, g := range levels {
			for _, b := range levels {
				pal = append(pal, r, g, b)
			}
		}
	}
	for i := range 24 {
		v := byte(8 + 10*i)
		pal = append(pal, v, v, v)
	}
	return pal
}

// grayRamp returns n evenly spaced gray levels from black to white
func grayRamp(n int) []byte {
	pal := make([]byte, 0, n*3)
	for i := range n {
		v := byte(i * 255 / (n - 1))
		pal = append(pal, v, v, v)
	}
	return pal
}

// palette returns the palette, color count and key color of b
func (b BuiltinPalette) palette() (pal []byte, ncolors, keycolor int, err error) {
	switch b {
	case BuiltinMonoDark:
		return bytes.Clone(palMonoDark), 2, 0, nil
	case BuiltinMonoLight:
		return bytes.Clone(palMonoLight), 2, 0, nil
	case BuiltinXTerm16:
		return bytes.Clone(palXTerm256[:16*3]), 16, -1, nil
	case BuiltinXTerm256:
		return bytes.Clone(palXTerm256), 256, -1, nil
	case BuiltinVT340Mono:
		return bytes.Clone(palVT340Mono), 16, -1, nil
	case BuiltinVT340Color:
		return bytes.Clone(palVT340Color), 16, -1, nil
	case BuiltinG1:
		return grayRamp(2), 2, -1, nil
	case BuiltinG2:
		return grayRamp(4), 4, -1, nil
	case BuiltinG4:
		return grayRamp(16), 16, -1, nil
	case BuiltinG8:
		return grayRamp(256), 256, -1, nil
	}
	return nil, 0, 0, fmt.Errorf("%v: %w", b, ErrBadArgument)
}

func isMonoPalette(pal []byte) bool {
	return bytes.Equal(pal, palMonoDark) || bytes.Equal(pal, palMonoLight)
}
