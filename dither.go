package termsixel

import (
	"fmt"

	"github.com/apex/log"
	"github.com/blacktop/go-termsixel/pkg/pixelformat"
)

// Dither holds the palette and the quantization settings of one encode.
// It is not safe for concurrent use.
type Dither struct {
	palette []byte
	cache   []uint16 // 15-bit color -> palette index + 1

	reqColors  int
	ncolors    int
	origColors int

	optimized       bool // palette is final, the color cache may be used
	optimizePalette bool // compact the palette to the colors in use
	fixed           bool // palette was supplied, not built from the image
	complexion      int
	bodyOnly        bool
	keyColor        int

	largest   LargestDim
	rep       RepColor
	diffusion Diffusion
	quality   Quality
	format    pixelformat.Format
}

// NewDither returns a configuration for up to ncolors palette colors. A
// negative ncolors selects the high-color encoder with all 256 slots.
func NewDither(ncolors int) (*Dither, error) {
	quality := QualityLow
	if ncolors < 0 {
		ncolors = PaletteMax
		quality = QualityHighColor
	} else if ncolors > PaletteMax || ncolors < 1 {
		return nil, fmt.Errorf("palette must have 1 to %d colors, got %d: %w", PaletteMax, ncolors, ErrBadInput)
	}
	return &Dither{
		palette:    make([]byte, ncolors*3),
		reqColors:  ncolors,
		ncolors:    ncolors,
		origColors: -1,
		complexion: 1,
		keyColor:   -1,
		largest:    LargestNorm,
		rep:        RepCenter,
		diffusion:  DiffuseFS,
		quality:    quality,
		format:     pixelformat.RGB888,
	}, nil
}

// NewBuiltinDither returns a configuration using one of the fixed palettes
func NewBuiltinDither(b BuiltinPalette) (*Dither, error) {
	pal, ncolors, keycolor, err := b.palette()
	if err != nil {
		return nil, fmt.Errorf("failed to load builtin palette: %w", err)
	}
	d, err := NewDither(ncolors)
	if err != nil {
		return nil, err
	}
	d.palette = pal
	d.keyColor = keycolor
	d.optimized = true
	d.fixed = true
	return d, nil
}

// SetLargestDim sets the median-cut split method. Auto means norm.
func (d *Dither) SetLargestDim(l LargestDim) {
	if l == LargestAuto {
		l = LargestNorm
	}
	d.largest = l
}

// SetRepColor sets how a box picks its color. Auto means the box center.
func (d *Dither) SetRepColor(r RepColor) {
	if r == RepAuto {
		r = RepCenter
	}
	d.rep = r
}

// SetQuality sets the quality mode. Auto is high for tiny palettes, low otherwise.
func (d *Dither) SetQuality(q Quality) {
	if q == QualityAuto {
		if d.ncolors <= 8 {
			q = QualityHigh
		} else {
			q = QualityLow
		}
	}
	d.quality = q
}

// SetDiffusion sets the diffusion method. Auto picks Floyd-Steinberg for more
// than 16 colors and Atkinson otherwise.
func (d *Dither) SetDiffusion(m Diffusion) {
	if m == DiffuseAuto {
		if d.ncolors > 16 {
			m = DiffuseFS
		} else {
			m = DiffuseAtkinson
		}
	}
	d.diffusion = m
}

// SetComplexion sets the red weight of the color distance (>= 1)
func (d *Dither) SetComplexion(score int) {
	d.complexion = max(score, 1)
}

// SetBodyOnly omits the palette definitions from the output
func (d *Dither) SetBodyOnly(v bool) { d.bodyOnly = v }

// SetOptimizePalette compacts the palette to the colors actually used
func (d *Dither) SetOptimizePalette(v bool) { d.optimizePalette = v }

// SetPixelFormat sets the layout of the pixels passed to ApplyPalette and Encode
func (d *Dither) SetPixelFormat(f pixelformat.Format) { d.format = f }

// SetKeyColor sets the transparent palette index, -1 for none
func (d *Dither) SetKeyColor(index int) { d.keyColor = index }

// SetPalette replaces the palette with caller supplied RGB triples
func (d *Dither) SetPalette(pal []byte) error {
	n := len(pal) / 3
	if n < 1 || n > PaletteMax || len(pal)%3 != 0 {
		return fmt.Errorf("palette of %d bytes: %w", len(pal), ErrBadArgument)
	}
	d.palette = append(d.palette[:0], pal...)
	d.ncolors = n
	d.optimized = true
	d.fixed = true
	d.cache = nil
	return nil
}

// Palette returns the active palette as RGB triples
func (d *Dither) Palette() []byte { return d.palette[:d.ncolors*3] }

// NumColors returns the number of palette colors in use
func (d *Dither) NumColors() int { return d.ncolors }

// HistogramColors returns the number of distinct colors found by Initialize, or -1
func (d *Dither) HistogramColors() int { return d.origColors }

// Diffusion returns the resolved diffusion method
func (d *Dither) Diffusion() Diffusion { return d.diffusion }

// Quality returns the resolved quality mode
func (d *Dither) Quality() Quality { return d.quality }

// KeyColor returns the transparent palette index, -1 for none
func (d *Dither) KeyColor() int { return d.keyColor }

// Initialize builds the palette from the image. When the image has no more
// colors than requested the palette is exact and diffusion is turned off.
func (d *Dither) Initialize(pixels []byte, width, height int, f pixelformat.Format, largest LargestDim, rep RepColor, quality Quality) error {
	d.SetPixelFormat(f)
	rgb, err := pixelformat.ToRGB(pixels, f, width, height)
	if err != nil {
		return fmt.Errorf("failed to normalize pixels: %w: %w", ErrBadInput, err)
	}

	d.SetLargestDim(largest)
	d.SetRepColor(rep)
	d.SetQuality(quality)
	if d.quality == QualityHighColor {
		// slots are assigned while encoding
		return nil
	}

	pal, orig, err := buildPalette(rgb, width, height, d.reqColors, d.largest, d.rep, d.quality)
	if err != nil {
		return fmt.Errorf("failed to build palette: %w", err)
	}
	d.palette = pal
	d.ncolors = len(pal) / 3
	d.origColors = orig
	d.optimized = true
	d.fixed = false
	d.cache = nil
	if d.origColors <= d.reqColors {
		d.diffusion = DiffuseNone
	}

	log.WithFields(log.Fields{
		"requested": d.reqColors,
		"colors":    d.ncolors,
		"histogram": d.origColors,
		"quality":   d.quality,
	}).Debug("built palette")
	return nil
}

// ApplyPalette maps every pixel to a palette index using the configured
// diffusion, and returns one index per pixel.
func (d *Dither) ApplyPalette(pixels []byte, width, height int) ([]byte, error) {
	if d.quality == QualityFull {
		d.optimized = false
	}
	if d.cache == nil && d.optimized && !isMonoPalette(d.Palette()) {
		d.cache = make([]uint16, 1<<15)
	}

	rgb, err := pixelformat.ToRGB(pixels, d.format, width, height)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize pixels: %w: %w", ErrBadInput, err)
	}

	var cache []uint16
	if d.optimized {
		cache = d.cache
	}
	indices, pal := applyPalette(rgb, width, height, d.Palette(), d.diffusion, cache, d.complexion)
	if d.optimizePalette && d.keyColor < 0 {
		pal = compactPalette(indices, pal)
		d.cache = nil
	}
	d.palette = pal
	d.ncolors = len(pal) / 3
	return indices, nil
}
