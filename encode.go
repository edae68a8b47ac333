package termsixel

import (
	"bytes"
	"fmt"

	"github.com/blacktop/go-termsixel/pkg/pixelformat"
)

// Encode writes a complete sixel image. pixels are laid out in the pixel
// format configured on d. In high-color mode an RGB888 buffer is diffused in
// place; other layouts are converted to a private copy first.
func (o *Output) Encode(pixels []byte, width, height int, d *Dither) error {
	if width < 1 || height < 1 {
		return fmt.Errorf("failed to encode %dx%d image: %w", width, height, ErrBadInput)
	}
	if err := checkArea(width, height, d.ncolors); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	need, err := pixelformat.RequiredBytes(d.format, width, height)
	if err != nil {
		return fmt.Errorf("failed to encode image: %w: %w", ErrBadInput, err)
	}
	if len(pixels) < need {
		return fmt.Errorf("failed to encode image: %v needs %d bytes, got %d: %w", d.format, need, len(pixels), ErrBadInput)
	}

	if d.quality == QualityHighColor {
		if d.format.IsPaletted() {
			return fmt.Errorf("high-color encoding of %v pixels: %w", d.format, ErrNotImplemented)
		}
		rgb := pixels
		if d.format != pixelformat.RGB888 {
			if rgb, err = pixelformat.ToRGB(pixels, d.format, width, height); err != nil {
				return fmt.Errorf("failed to normalize pixels: %w: %w", ErrBadInput, err)
			}
		}
		return o.encodeHighColor(rgb, width, height, d)
	}
	return o.encodeDither(pixels, width, height, d)
}

// encodeDither is the palette path: map every pixel to the palette once and
// write a single body.
func (o *Output) encodeDither(pixels []byte, width, height int, d *Dither) error {
	var indices []byte
	switch {
	case d.format == pixelformat.PAL8, d.format == pixelformat.G8 && d.fixed:
		indices = pixels
	case d.format.IsPaletted(), d.format.BitsPerPixel() < 8 && d.fixed:
		indices = make([]byte, width*height)
		if _, err := pixelformat.Normalize(indices, pixels, d.format, width, height); err != nil {
			return fmt.Errorf("failed to unpack pixels: %w: %w", ErrBadInput, err)
		}
	default:
		var err error
		if indices, err = d.ApplyPalette(pixels, width, height); err != nil {
			return fmt.Errorf("failed to apply palette: %w", err)
		}
	}

	if err := o.EncodeHeader(width, height); err != nil {
		return err
	}
	if err := o.EncodeBody(indices, width, height, d.Palette(), d.ncolors, d.keyColor, d.bodyOnly); err != nil {
		return err
	}
	return o.EncodeFooter()
}

// String encodes pixels with a 256 color palette built from the image and
// returns the sixel stream.
func String(pixels []byte, width, height int, f pixelformat.Format, diffusion Diffusion, largest LargestDim, rep RepColor, quality Quality) (string, error) {
	var buf bytes.Buffer
	err := NewEncoder(&buf).
		Diffusion(diffusion).
		LargestDim(largest).
		RepColor(rep).
		Quality(quality).
		Encode(pixels, width, height, f)
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
