package termsixel

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func filledRGB(width, height int, v byte) []byte {
	return bytes.Repeat([]byte{v}, width*height*3)
}

func pixelAt(data []byte, width, x, y int) []byte {
	i := (y*width + x) * 3
	return data[i : i+3]
}

func TestDiffuseFloydSteinberg(t *testing.T) {
	const w, h = 3, 2
	data := filledRGB(w, h, 0x10)
	// error of 7 on every channel
	copy(pixelAt(data, w, 1, 0), []byte{0x17, 0x17, 0x17})

	diffuse(data, 1, 0, w, h, DiffuseFS)

	// 7*5/16 = 2, 7*3/16 = 1
	assert.Equal(t, []byte{0x12, 0x12, 0x12}, pixelAt(data, w, 2, 0))
	assert.Equal(t, []byte{0x11, 0x11, 0x11}, pixelAt(data, w, 0, 1))
	assert.Equal(t, []byte{0x12, 0x12, 0x12}, pixelAt(data, w, 1, 1))
	assert.Equal(t, []byte{0x10, 0x10, 0x10}, pixelAt(data, w, 2, 1))
	assert.Equal(t, []byte{0x10, 0x10, 0x10}, pixelAt(data, w, 0, 0))
}

func TestDiffuseAtkinson(t *testing.T) {
	const w, h = 4, 3
	data := filledRGB(w, h, 0)
	copy(pixelAt(data, w, 1, 0), []byte{4, 4, 4})

	diffuse(data, 1, 0, w, h, DiffuseAtkinson)

	// (4+4)*1/8 = 1 on all six neighbours
	for _, p := range [][2]int{{2, 0}, {3, 0}, {0, 1}, {1, 1}, {2, 1}, {1, 2}} {
		assert.Equal(t, []byte{1, 1, 1}, pixelAt(data, w, p[0], p[1]), "neighbour %v", p)
	}
	assert.Equal(t, []byte{0, 0, 0}, pixelAt(data, w, 3, 1))
	assert.Equal(t, []byte{0, 0, 0}, pixelAt(data, w, 0, 2))
}

func TestDiffuseWideKernels(t *testing.T) {
	// pixel (2,0) of a 5x3 image carries errors 7, 3 and 0; each row below
	// lists the channels of every pixel, source pixel included
	tests := []struct {
		name   string
		method Diffusion
		want   [3][5][3]byte
	}{
		{
			// (e+4)*k/48 with k = 7 5 / 3 5 7 5 3 / 1 3 5 3 1
			name:   "jajuni",
			method: DiffuseJaJuNi,
			want: [3][5][3]byte{
				{{0, 0, 0}, {0, 0, 0}, {7, 3, 0}, {1, 1, 0}, {1, 0, 0}},
				{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {1, 0, 0}, {0, 0, 0}},
				{{0, 0, 0}, {0, 0, 0}, {1, 0, 0}, {0, 0, 0}, {0, 0, 0}},
			},
		},
		{
			// (e+4)*k/48 with k = 8 4 / 2 4 8 4 2 / 1 2 4 2 1
			name:   "stucki",
			method: DiffuseStucki,
			want: [3][5][3]byte{
				{{0, 0, 0}, {0, 0, 0}, {7, 3, 0}, {1, 1, 0}, {0, 0, 0}},
				{{0, 0, 0}, {0, 0, 0}, {1, 1, 0}, {0, 0, 0}, {0, 0, 0}},
				{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
			},
		},
		{
			// (e+2)*k/16 with k = 4 2 / 1 2 4 2 1, one row only
			name:   "burkes",
			method: DiffuseBurkes,
			want: [3][5][3]byte{
				{{0, 0, 0}, {0, 0, 0}, {7, 3, 0}, {2, 1, 0}, {1, 0, 0}},
				{{0, 0, 0}, {1, 0, 0}, {2, 1, 0}, {1, 0, 0}, {0, 0, 0}},
				{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}, {0, 0, 0}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const w, h = 5, 3
			data := filledRGB(w, h, 0)
			copy(pixelAt(data, w, 2, 0), []byte{7, 3, 0})

			diffuse(data, 2, 0, w, h, tt.method)

			for y := range h {
				for x := range w {
					assert.Equal(t, tt.want[y][x][:], pixelAt(data, w, x, y), "pixel %d,%d", x, y)
				}
			}
		})
	}
}

func TestDiffuseSkipsLeftEdgeTaps(t *testing.T) {
	const w, h = 5, 3
	data := filledRGB(w, h, 0)
	copy(pixelAt(data, w, 0, 0), []byte{7, 7, 7})

	assert.NotPanics(t, func() {
		diffuse(data, 0, 0, w, h, DiffuseJaJuNi)
	})
	// (7+4)*7/48 = 1
	assert.Equal(t, []byte{1, 1, 1}, pixelAt(data, w, 1, 0))
}

func TestDiffuseFootprintGuard(t *testing.T) {
	tests := []struct {
		name   string
		method Diffusion
		x, y   int
	}{
		{name: "fs last column", method: DiffuseFS, x: 3, y: 0},
		{name: "fs last row", method: DiffuseFS, x: 0, y: 3},
		{name: "atkinson second to last column", method: DiffuseAtkinson, x: 2, y: 0},
		{name: "stucki second to last row", method: DiffuseStucki, x: 0, y: 2},
		{name: "burkes last row", method: DiffuseBurkes, x: 0, y: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			const w, h = 4, 4
			data := filledRGB(w, h, 0x07)
			before := bytes.Clone(data)
			diffuse(data, tt.x, tt.y, w, h, tt.method)
			assert.Equal(t, before, data)
		})
	}
}

func TestDiffuseClamps(t *testing.T) {
	methods := []Diffusion{
		DiffuseFS, DiffuseAtkinson, DiffuseJaJuNi, DiffuseStucki,
		DiffuseBurkes, DiffuseADither, DiffuseXDither,
	}
	for _, m := range methods {
		t.Run(m.String(), func(t *testing.T) {
			const w, h = 6, 6
			data := filledRGB(w, h, 0xff)
			for y := range h {
				for x := range w {
					diffuse(data, x, y, w, h, m)
				}
			}
			// every byte stayed in range and saturated neighbours did not wrap
			for i, v := range data {
				assert.GreaterOrEqual(t, int(v), 0xf0, "byte %d", i)
			}
		})
	}
}

func TestDiffuseNoneIsIdentity(t *testing.T) {
	for _, m := range []Diffusion{DiffuseNone, DiffuseAuto} {
		data := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
		before := bytes.Clone(data)
		for y := range 2 {
			for x := range 2 {
				diffuse(data, x, y, 2, 2, m)
			}
		}
		assert.Equal(t, before, data, m.String())
	}
}

func TestOrderedDitherIsPositional(t *testing.T) {
	a := filledRGB(4, 1, 100)
	b := filledRGB(4, 1, 100)
	diffuse(a, 2, 0, 4, 1, DiffuseADither)
	diffuse(b, 2, 0, 4, 1, DiffuseADither)
	assert.Equal(t, a, b)

	// only the current pixel may change, by less than one level
	for x := range 4 {
		for _, v := range pixelAt(a, 4, x, 0) {
			assert.InDelta(t, 100, int(v), 1)
		}
	}
	assert.Equal(t, pixelAt(filledRGB(1, 1, 100), 1, 0, 0), pixelAt(a, 4, 3, 0))

	x := filledRGB(1, 1, 0)
	diffuse(x, 0, 0, 1, 1, DiffuseXDither)
	assert.Equal(t, []byte{0, 0, 0}, x)
}
