package termsixel

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/blacktop/go-termsixel/pkg/pixelformat"
	xdraw "golang.org/x/image/draw"
)

// Encoder is the high level entry point. Configure it with the chainable
// setters, then call Encode or EncodeImage.
//
//	err := termsixel.NewEncoder(os.Stdout).
//	    Colors(16).
//	    Diffusion(termsixel.DiffuseAtkinson).
//	    EncodeImage(img)
type Encoder struct {
	w io.Writer

	colors          int
	builtin         *BuiltinPalette
	palette         []byte
	diffusion       Diffusion
	quality         Quality
	largest         LargestDim
	rep             RepColor
	paletteType     PaletteType
	policy          EncodePolicy
	keyColor        int
	complexion      int
	optimizePalette bool

	bodyOnly    bool
	use8Bit     bool
	skipDCS     bool
	griLimit    bool
	passthrough Passthrough
	scale       ScaleMode
	width       int
	height      int
}

// NewEncoder returns an Encoder writing to w with a 256 color palette
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{
		w:               w,
		colors:          PaletteMax,
		keyColor:        -1,
		complexion:      1,
		optimizePalette: true,
		griLimit:        true,
	}
}

// Colors sets the number of palette colors to build (1-256)
func (e *Encoder) Colors(n int) *Encoder {
	e.colors = n
	return e
}

// Builtin uses a fixed palette instead of building one
func (e *Encoder) Builtin(b BuiltinPalette) *Encoder {
	e.builtin = &b
	return e
}

// Palette uses the given RGB triples as a fixed palette
func (e *Encoder) Palette(pal []byte) *Encoder {
	e.palette = pal
	return e
}

// Diffusion sets the dithering method
func (e *Encoder) Diffusion(d Diffusion) *Encoder {
	e.diffusion = d
	return e
}

// Quality sets the quality mode; QualityHighColor selects the streaming encoder
func (e *Encoder) Quality(q Quality) *Encoder {
	e.quality = q
	return e
}

// LargestDim sets the median-cut split method
func (e *Encoder) LargestDim(l LargestDim) *Encoder {
	e.largest = l
	return e
}

// RepColor sets the representative color method
func (e *Encoder) RepColor(r RepColor) *Encoder {
	e.rep = r
	return e
}

// PaletteType selects RGB or HLS color definitions
func (e *Encoder) PaletteType(p PaletteType) *Encoder {
	e.paletteType = p
	return e
}

// EncodePolicy selects fast or small output
func (e *Encoder) EncodePolicy(p EncodePolicy) *Encoder {
	e.policy = p
	return e
}

// KeyColor makes a palette index transparent, -1 for none
func (e *Encoder) KeyColor(index int) *Encoder {
	e.keyColor = index
	return e
}

// Complexion sets the red weight of the color distance
func (e *Encoder) Complexion(score int) *Encoder {
	e.complexion = score
	return e
}

// OptimizePalette compacts the palette to the colors in use (default on)
func (e *Encoder) OptimizePalette(v bool) *Encoder {
	e.optimizePalette = v
	return e
}

// BodyOnly omits the palette definitions
func (e *Encoder) BodyOnly(v bool) *Encoder {
	e.bodyOnly = v
	return e
}

// Use8Bit uses C1 control characters for the envelope
func (e *Encoder) Use8Bit(v bool) *Encoder {
	e.use8Bit = v
	return e
}

// SkipDCS omits the DCS envelope
func (e *Encoder) SkipDCS(v bool) *Encoder {
	e.skipDCS = v
	return e
}

// GRILimit limits repeat counts to 255 (default on)
func (e *Encoder) GRILimit(v bool) *Encoder {
	e.griLimit = v
	return e
}

// Passthrough wraps the stream for a terminal multiplexer
func (e *Encoder) Passthrough(p Passthrough) *Encoder {
	e.passthrough = p
	return e
}

// Size resizes images given to EncodeImage to width x height pixels.
// A zero dimension keeps the aspect ratio.
func (e *Encoder) Size(width, height int) *Encoder {
	e.width = width
	e.height = height
	return e
}

// Scale sets how Size is applied
func (e *Encoder) Scale(mode ScaleMode) *Encoder {
	e.scale = mode
	return e
}

func (e *Encoder) dither(pixels []byte, width, height int, f pixelformat.Format) (*Dither, error) {
	var (
		d   *Dither
		err error
	)
	switch {
	case e.builtin != nil:
		d, err = NewBuiltinDither(*e.builtin)
	case e.quality == QualityHighColor:
		d, err = NewDither(-1)
	default:
		d, err = NewDither(e.colors)
	}
	if err != nil {
		return nil, err
	}

	d.SetBodyOnly(e.bodyOnly)
	d.SetComplexion(e.complexion)
	if e.keyColor >= 0 {
		d.SetKeyColor(e.keyColor)
	}
	d.SetPixelFormat(f)

	switch {
	case e.builtin != nil, e.quality == QualityHighColor:
		d.SetQuality(e.quality)
		d.SetDiffusion(e.diffusion)
	case e.palette != nil:
		if err := d.SetPalette(e.palette); err != nil {
			return nil, err
		}
		d.SetQuality(e.quality)
		d.SetDiffusion(e.diffusion)
	default:
		d.SetOptimizePalette(e.optimizePalette)
		if err := d.Initialize(pixels, width, height, f, e.largest, e.rep, e.quality); err != nil {
			return nil, err
		}
		// an exact palette needs no diffusion
		if d.HistogramColors() > d.NumColors() {
			d.SetDiffusion(e.diffusion)
		}
	}
	return d, nil
}

func (e *Encoder) output() *Output {
	o := NewOutput(e.w)
	o.Set8BitControl(e.use8Bit)
	o.SetSkipDCSEnvelope(e.skipDCS)
	o.SetGRIArgLimit(e.griLimit)
	o.SetPassthrough(e.passthrough)
	o.SetPaletteType(e.paletteType)
	o.SetEncodePolicy(e.policy)
	if e.keyColor >= 0 {
		// keep the background under transparent pixels
		o.SetDCSParams(0, 1, 0)
	}
	return o
}

// Encode writes pixels of the given layout as a sixel image. pixels is not modified.
func (e *Encoder) Encode(pixels []byte, width, height int, f pixelformat.Format) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("failed to encode %dx%d image: %w", width, height, ErrBadInput)
	}
	d, err := e.dither(pixels, width, height, f)
	if err != nil {
		return err
	}
	if d.Quality() == QualityHighColor && f == pixelformat.RGB888 {
		// the high-color encoder diffuses in place
		pixels = bytes.Clone(pixels)
	}
	return e.output().Encode(pixels, width, height, d)
}

// EncodeImage writes an already decoded image as a sixel image
func (e *Encoder) EncodeImage(img image.Image) error {
	if img == nil {
		return fmt.Errorf("nil image: %w", ErrBadInput)
	}
	if e.width > 0 || e.height > 0 {
		img = ScaleImage(img, e.width, e.height, e.scale)
	}
	rgba := toRGBA(img)
	b := rgba.Bounds()
	return e.Encode(rgba.Pix, b.Dx(), b.Dy(), pixelformat.RGBA8888)
}

// toRGBA returns img as a tightly packed RGBA image with its origin at 0,0
func toRGBA(img image.Image) *image.RGBA {
	b := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && b.Min == (image.Point{}) && rgba.Stride == 4*b.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
	return rgba
}

// Render returns the sixel stream for img using the default settings
func Render(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := NewEncoder(&buf).EncodeImage(img); err != nil {
		return "", fmt.Errorf("failed to render image: %w", err)
	}
	return buf.String(), nil
}
