/*
Package termsixel encodes raster images as SIXEL streams for terminals that
speak the DEC sixel graphics protocol (xterm -ti 340, mlterm, foot, WezTerm,
mintty, VT340, ...).

The encoder maps pixels to a palette of up to 256 colors, dithers the result
with one of several error-diffusion or ordered methods, and writes each six
pixel high band as runs of palette colors compressed with DECGRI repeats. A
high-color mode streams images with any number of colors by recycling palette
slots band by band.

Main features:

  - Palette building by median cut, exact palettes for images with few colors
  - Builtin palettes (mono, xterm 16/256, VT340, gray ramps)
  - Floyd-Steinberg, Atkinson, Jarvis-Judice-Ninke, Stucki and Burkes
    diffusion, plus positionally stable ordered dithers
  - 20 input pixel layouts (see pkg/pixelformat)
  - RGB or HLS color definitions, 7-bit or 8-bit controls
  - GNU screen and tmux passthrough
  - Resizing of image.Image inputs before encoding

Basic Usage:

	// Encode an image.Image to stdout
	err := termsixel.NewEncoder(os.Stdout).EncodeImage(img)

	// Or get the stream as a string
	out, err := termsixel.Render(img)

Fluent API:

	err := termsixel.NewEncoder(os.Stdout).
	    Colors(16).
	    Diffusion(termsixel.DiffuseAtkinson).
	    Size(320, 0).
	    Passthrough(termsixel.DetectPassthrough()).
	    EncodeImage(img)

Raw pixels:

	// 24-bit RGB rows, width*height*3 bytes
	err := termsixel.NewEncoder(w).
	    Quality(termsixel.QualityHighColor).
	    Encode(pixels, width, height, pixelformat.RGB888)

Lower level:

	d, _ := termsixel.NewDither(256)
	_ = d.Initialize(pixels, width, height, pixelformat.RGB888, termsixel.LargestAuto, termsixel.RepAuto, termsixel.QualityAuto)
	o := termsixel.NewOutput(w)
	err := o.Encode(pixels, width, height, d)

An Output and a Dither belong to a single encode at a time; use one per
goroutine.
*/
package termsixel
