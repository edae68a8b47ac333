package termsixel

import (
	"fmt"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
	"github.com/makeworld-the-better-one/dither/v2"
	"github.com/soniakeys/quant/median"
)

// buildPalette returns up to reqColors RGB triples for an RGB888 image and the
// number of distinct colors it found. Low quality counts colors at 5 bits per
// channel and quantizes a reduced copy of the image.
func buildPalette(rgb []byte, width, height, reqColors int, largest LargestDim, rep RepColor, quality Quality) ([]byte, int, error) {
	if largest == LargestLum {
		return nil, 0, fmt.Errorf("luminosity split: %w", ErrNotImplemented)
	}

	low := quality == QualityLow
	exact, orig := histogram(rgb, low, reqColors)
	if orig <= reqColors {
		return exact, orig, nil
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range width * height {
		r, g, b := rgb[i*3], rgb[i*3+1], rgb[i*3+2]
		if low {
			r, g, b = reduce(r), reduce(g), reduce(b)
		}
		img.Pix[i*4], img.Pix[i*4+1], img.Pix[i*4+2], img.Pix[i*4+3] = r, g, b, 0xff
	}

	var cp color.Palette
	switch rep {
	case RepAveragePixels:
		q := quantize.MedianCutQuantizer{Aggregation: quantize.Mean}
		cp = q.Quantize(make(color.Palette, 0, reqColors), img)
	case RepAverageColors:
		q := quantize.MedianCutQuantizer{Aggregation: quantize.Mode}
		cp = q.Quantize(make(color.Palette, 0, reqColors), img)
	default:
		cp = median.Quantizer(reqColors).Palette(img).ColorPalette()
	}
	if len(cp) == 0 {
		return nil, orig, fmt.Errorf("quantizer returned no colors: %w", ErrBadInput)
	}
	if len(cp) > reqColors {
		cp = cp[:reqColors]
	}

	pal := make([]byte, 0, len(cp)*3)
	for _, c := range cp {
		r, g, b, _ := c.RGBA()
		pal = append(pal, byte(r>>8), byte(g>>8), byte(b>>8))
	}
	return pal, orig, nil
}

// reduce keeps the top 5 bits of a channel and centers it in its bucket
func reduce(v byte) byte {
	return v&0xf8 | 0x04
}

// histogram counts the distinct colors of rgb. While the count stays within
// limit it also collects the first full precision color of every bucket, in
// order of appearance.
func histogram(rgb []byte, low bool, limit int) ([]byte, int) {
	var seen []uint64
	if low {
		seen = make([]uint64, (1<<15)/64)
	} else {
		seen = make([]uint64, (1<<24)/64)
	}

	var colors []byte
	count := 0
	for i := 0; i+2 < len(rgb); i += 3 {
		r, g, b := rgb[i], rgb[i+1], rgb[i+2]
		var key uint32
		if low {
			key = uint32(key15(r, g, b))
		} else {
			key = uint32(r)<<16 | uint32(g)<<8 | uint32(b)
		}
		if seen[key/64]&(1<<(key%64)) != 0 {
			continue
		}
		seen[key/64] |= 1 << (key % 64)
		count++
		if count <= limit {
			colors = append(colors, r, g, b)
		}
	}
	return colors, count
}

// key15 reduces a color to the 15-bit key used by the color caches
func key15(r, g, b byte) int {
	return int(r&0xf8)<<7 | int(g&0xf8)<<2 | int(b>>3)
}

// applyPalette returns one palette index per pixel of an RGB888 image.
// Error diffusion methods use a ditherer over the whole image; the ordered
// dithers and plain mapping use nearest color lookups through cache (may be nil).
func applyPalette(rgb []byte, width, height int, pal []byte, method Diffusion, cache []uint16, complexion int) ([]byte, []byte) {
	ncolors := len(pal) / 3
	indices := make([]byte, width*height)

	if matrix, ok := ditherMatrix(method); ok && ncolors >= 2 {
		cp := make(color.Palette, ncolors)
		for i := range cp {
			cp[i] = color.RGBA{pal[i*3], pal[i*3+1], pal[i*3+2], 0xff}
		}
		dd := dither.NewDitherer(cp)
		dd.Matrix = matrix
		pm := dd.DitherPaletted(rgbImage(rgb, width, height))
		for y := range height {
			copy(indices[y*width:(y+1)*width], pm.Pix[y*pm.Stride:])
		}
		return indices, pal
	}

	lookup := func(r, g, b byte) byte {
		k := key15(r, g, b)
		if cache != nil && cache[k] != 0 {
			return byte(cache[k] - 1)
		}
		idx := nearest(pal, r, g, b, complexion)
		if cache != nil {
			cache[k] = uint16(idx) + 1
		}
		return idx
	}

	var px [3]byte
	for y := range height {
		for x := range width {
			i := y*width + x
			copy(px[:], rgb[i*3:i*3+3])
			switch method {
			case DiffuseADither, DiffuseXDither:
				for c := range 3 {
					v := float32(px[c]) + positionalMask(x, y, c, method)*32
					px[c] = byte(min(max(v, 0), 255))
				}
			}
			indices[i] = lookup(px[0], px[1], px[2])
		}
	}
	return indices, pal
}

func ditherMatrix(method Diffusion) (dither.ErrorDiffusionMatrix, bool) {
	switch method {
	case DiffuseFS:
		return dither.FloydSteinberg, true
	case DiffuseAtkinson:
		return dither.Atkinson, true
	case DiffuseJaJuNi:
		return dither.JarvisJudiceNinke, true
	case DiffuseStucki:
		return dither.Stucki, true
	case DiffuseBurkes:
		return dither.Burkes, true
	}
	return nil, false
}

// positionalMask returns the ordered dither offset in [-1, 1)
func positionalMask(x, y, c int, method Diffusion) float32 {
	if method == DiffuseADither {
		return float32((((x+c*67)+y*236)*119)&255)/128 - 1
	}
	return float32((((x+c*29)^(y*149))*1234)&511)/256 - 1
}

// nearest returns the palette index closest to (r, g, b). Red differences are
// weighted by complexion.
func nearest(pal []byte, r, g, b byte, complexion int) byte {
	best, bestDist := 0, int(^uint(0)>>1)
	for i := 0; i+2 < len(pal); i += 3 {
		dr := int(r) - int(pal[i])
		dg := int(g) - int(pal[i+1])
		db := int(b) - int(pal[i+2])
		dist := complexion*dr*dr + dg*dg + db*db
		if dist < bestDist {
			best, bestDist = i/3, dist
			if dist == 0 {
				break
			}
		}
	}
	return byte(best)
}

// compactPalette drops unused palette entries and renumbers indices in order
// of first use.
func compactPalette(indices, pal []byte) []byte {
	var remap [PaletteMax]int
	for i := range remap {
		remap[i] = -1
	}
	out := make([]byte, 0, len(pal))
	for i, idx := range indices {
		if remap[idx] < 0 {
			remap[idx] = len(out) / 3
			out = append(out, pal[int(idx)*3:int(idx)*3+3]...)
		}
		indices[i] = byte(remap[idx])
	}
	return out
}

// rgbImage wraps RGB888 pixels in an opaque RGBA image
func rgbImage(rgb []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range width * height {
		copy(img.Pix[i*4:i*4+3], rgb[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img
}
