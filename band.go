package termsixel

import (
	"fmt"
	"math"
)

// gapLimit is the number of blank columns that ends a run; shorter gaps are
// folded into the run.
const gapLimit = 10

// checkArea rejects dimensions whose products do not fit a signed 32-bit int
func checkArea(width, height, ncolors int) error {
	if width > math.MaxInt32/height {
		return fmt.Errorf("%dx%d pixels: %w", width, height, ErrBadIntegerOverflow)
	}
	if ncolors > 0 && width > math.MaxInt32/ncolors {
		return fmt.Errorf("%d colors x %d columns: %w", ncolors, width, ErrBadIntegerOverflow)
	}
	return nil
}

// EncodeBody writes the palette definitions and every band of a paletted
// image. pixels holds one palette index per pixel; indices that are out of
// range or equal to keycolor are left transparent.
func (o *Output) EncodeBody(pixels []byte, width, height int, palette []byte, ncolors, keycolor int, bodyOnly bool) error {
	if len(palette) == 0 {
		return fmt.Errorf("failed to encode body: empty palette: %w", ErrBadArgument)
	}
	if ncolors < 1 || ncolors > PaletteMax || len(palette) < ncolors*3 {
		return fmt.Errorf("failed to encode body: %d colors for a %d byte palette: %w", ncolors, len(palette), ErrBadArgument)
	}
	if width < 1 || height < 1 {
		return fmt.Errorf("failed to encode body: %dx%d: %w", width, height, ErrBadInput)
	}
	if err := checkArea(width, height, ncolors); err != nil {
		return fmt.Errorf("failed to encode body: %w", err)
	}
	if len(pixels) < width*height {
		return fmt.Errorf("failed to encode body: %d pixels, want %d: %w", len(pixels), width*height, ErrBadInput)
	}

	o.activePalette = -1
	if !bodyOnly && (ncolors != 2 || keycolor == -1) {
		for n := range ncolors {
			if n != keycolor {
				o.putDefinition(palette, n)
			}
		}
	}

	m := make([]byte, ncolors*width)
	for y := 0; y < height; y += 6 {
		rows := min(6, height-y)
		o.encodeBand(pixels[y*width:(y+rows)*width], width, rows, ncolors, keycolor, m, y > 0)
		clear(m)
	}
	return o.err
}

func (o *Output) putDefinition(palette []byte, n int) {
	if o.paletteType == PaletteHLS {
		o.putHLSDefinition(palette, n)
	} else {
		o.putRGBDefinition(palette, n)
	}
}

// encodeBand writes one band of up to six rows. m is a zeroed ncolors*width
// working map. newline emits DECGNL before the band.
func (o *Output) encodeBand(band []byte, width, rows, ncolors, keycolor int, m []byte, newline bool) {
	fillable := o.policy == EncodePolicySize
	for i := range rows {
		for x := range width {
			pix := int(band[i*width+x])
			if pix < ncolors && pix != keycolor {
				m[pix*width+x] |= 1 << i
			} else {
				fillable = false
			}
		}
	}

	o.nodes = o.nodes[:0]
	for c := range ncolors {
		row := m[c*width : (c+1)*width]
		for sx := 0; sx < width; {
			if row[sx] == 0 {
				sx++
				continue
			}
			mx := sx + 1
			for mx < width {
				if row[mx] != 0 {
					mx++
					continue
				}
				n := 1
				for mx+n < width && row[mx+n] == 0 {
					n++
				}
				if n >= gapLimit || mx+n >= width {
					break
				}
				mx += n
			}
			o.nodes = append(o.nodes, sixelNode{pal: c, sx: sx, mx: mx, row: row})
			sx = mx
		}
	}

	if newline {
		o.putc('-')
	}

	fill := byte(1<<rows) - 1
	queue := o.nodes
	x := 0
	for len(queue) > 0 {
		np := queue[0]
		queue = queue[1:]
		if x > np.sx {
			// DECGCR
			o.putc('$')
			x = 0
		}
		if fillable {
			fillNode(np, fill)
		}
		o.putNode(&x, np, ncolors, keycolor)

		// nodes that still fit to the right of the cursor go out now
		rest := queue[:0]
		for _, next := range queue {
			if next.sx < x {
				rest = append(rest, next)
				continue
			}
			if fillable {
				fillNode(next, fill)
			}
			o.putNode(&x, next, ncolors, keycolor)
		}
		queue = rest
		fillable = false
	}
}

func fillNode(np sixelNode, v byte) {
	for j := np.sx; j < np.mx; j++ {
		np.row[j] = v
	}
}
