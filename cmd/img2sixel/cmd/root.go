/*
Copyright © 2024 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"bufio"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/apex/log"
	clihander "github.com/apex/log/handlers/cli"
	termsixel "github.com/blacktop/go-termsixel"
	"github.com/blacktop/go-termsixel/pkg/csi"
	"github.com/blacktop/go-termsixel/pkg/pixelformat"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type options struct {
	width, height int
	format        string
	colors        int
	diffusion     string
	quality       string
	builtin       string
	paletteType   string
	policy        string
	largest       string
	rep           string
	keyColor      int
	use8Bit       bool
	penetrate     bool
	tmux          bool
	bodyOnly      bool
	skipDCS       bool
	noGRILimit    bool
	resize        string
	scale         string
	output        string
}

var (
	verbose bool
	detect  bool
	opts    options
)

func init() {
	log.SetHandler(clihander.Default)
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "V", false, "Enable verbose logging")
	rootCmd.Flags().BoolVar(&detect, "detect", false, "Report the sixel capabilities of the terminal and exit")

	f := rootCmd.Flags()
	f.IntVarP(&opts.width, "width", "W", 0, "Width of the input in pixels")
	f.IntVarP(&opts.height, "height", "H", 0, "Height of the input in pixels")
	f.StringVarP(&opts.format, "format", "f", "rgb888", "Pixel layout of the input (rgb888, rgba8888, g8, pal8, ...)")
	f.IntVarP(&opts.colors, "colors", "p", termsixel.PaletteMax, "Number of palette colors (1-256)")
	f.StringVarP(&opts.diffusion, "diffusion", "d", "auto", "Diffusion method (auto, none, atkinson, fs, jajuni, stucki, burkes, a_dither, x_dither)")
	f.StringVarP(&opts.quality, "quality", "Q", "auto", "Quality mode (auto, high, low, full, highcolor)")
	f.StringVarP(&opts.builtin, "builtin-palette", "b", "", "Use a builtin palette (mono_dark, mono_light, xterm16, xterm256, vt340_mono, vt340_color, gray1, gray2, gray4, gray8)")
	f.StringVarP(&opts.paletteType, "palette-type", "t", "auto", "Palette color space (auto, rgb, hls)")
	f.StringVarP(&opts.policy, "encode-policy", "E", "auto", "Encode policy (auto, fast, size)")
	f.StringVarP(&opts.largest, "select-color", "w", "auto", "Median cut split method (auto, norm, lum)")
	f.StringVarP(&opts.rep, "rep-color", "r", "auto", "Representative color of a box (auto, center, average, histogram)")
	f.IntVarP(&opts.keyColor, "key-color", "k", -1, "Transparent palette index")
	f.BoolVarP(&opts.use8Bit, "8bit-mode", "8", false, "Use 8-bit C1 control characters")
	f.BoolVarP(&opts.penetrate, "penetrate", "P", false, "Penetrate GNU screen")
	f.BoolVar(&opts.tmux, "tmux", false, "Wrap the output for tmux passthrough")
	f.BoolVar(&opts.bodyOnly, "body-only", false, "Omit palette definitions")
	f.BoolVar(&opts.skipDCS, "skip-dcs", false, "Omit the DCS envelope")
	f.BoolVar(&opts.noGRILimit, "no-gri-limit", false, "Do not limit repeat counts to 255")
	f.StringVar(&opts.resize, "resize", "", "Resize to WxH pixels before encoding (either side may be empty)")
	f.StringVar(&opts.scale, "scale", "fit", "How --resize is applied (fit, fill, stretch, none)")
	f.StringVarP(&opts.output, "output", "o", "", "Write to a file instead of stdout")
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "img2sixel [file]",
	Short: "Encode raw pixels as a SIXEL image",
	Long: `Reads raw pixels in the layout given by --format from a file, or from
stdin when no file is given, and writes a SIXEL stream.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if verbose {
			log.SetLevel(log.DebugLevel)
		}

		if detect {
			printCapabilities(cmd.OutOrStdout())
			return nil
		}

		in, closeIn, err := openInput(args)
		if err != nil {
			return err
		}
		defer closeIn()

		out, closeOut, err := openOutput(opts.output)
		if err != nil {
			return err
		}
		defer closeOut()

		return run(in, out, opts, outputIsTerminal(opts.output))
	},
}

func openInput(args []string) (io.Reader, func(), error) {
	if len(args) == 0 || args[0] == "-" {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return nil, nil, fmt.Errorf("no input file given and stdin is a terminal")
		}
		return bufio.NewReader(os.Stdin), func() {}, nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, func() { f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		w := bufio.NewWriter(os.Stdout)
		return w, func() { w.Flush() }, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output: %w", err)
	}
	w := bufio.NewWriter(f)
	return w, func() {
		w.Flush()
		f.Close()
	}, nil
}

func outputIsTerminal(path string) bool {
	return path == "" && term.IsTerminal(int(os.Stdout.Fd()))
}

func run(in io.Reader, out io.Writer, o options, tty bool) error {
	format, err := pixelformat.Parse(o.format)
	if err != nil {
		return err
	}
	need, err := pixelformat.RequiredBytes(format, o.width, o.height)
	if err != nil {
		return fmt.Errorf("invalid input size (set --width and --height): %w", err)
	}
	pixels := make([]byte, need)
	if _, err := io.ReadFull(in, pixels); err != nil {
		return fmt.Errorf("failed to read %dx%d %v pixels: %w", o.width, o.height, format, err)
	}

	enc, err := newEncoder(out, o, tty)
	if err != nil {
		return err
	}

	log.WithFields(log.Fields{
		"width":  o.width,
		"height": o.height,
		"format": format,
	}).Debug("Encoding")

	if o.resize == "" {
		return enc.Encode(pixels, o.width, o.height, format)
	}

	w, h, err := parseSize(o.resize)
	if err != nil {
		return err
	}
	scale, err := termsixel.ParseScaleMode(o.scale)
	if err != nil {
		return err
	}
	img, err := rgbaImage(pixels, o.width, o.height, format)
	if err != nil {
		return err
	}
	return enc.Size(w, h).Scale(scale).EncodeImage(img)
}

func newEncoder(out io.Writer, o options, tty bool) (*termsixel.Encoder, error) {
	diffusion, err := termsixel.ParseDiffusion(o.diffusion)
	if err != nil {
		return nil, err
	}
	quality, err := termsixel.ParseQuality(o.quality)
	if err != nil {
		return nil, err
	}
	paletteType, err := termsixel.ParsePaletteType(o.paletteType)
	if err != nil {
		return nil, err
	}
	policy, err := termsixel.ParseEncodePolicy(o.policy)
	if err != nil {
		return nil, err
	}
	largest, err := termsixel.ParseLargestDim(o.largest)
	if err != nil {
		return nil, err
	}
	rep, err := termsixel.ParseRepColor(o.rep)
	if err != nil {
		return nil, err
	}

	enc := termsixel.NewEncoder(out).
		Colors(o.colors).
		Diffusion(diffusion).
		Quality(quality).
		PaletteType(paletteType).
		EncodePolicy(policy).
		LargestDim(largest).
		RepColor(rep).
		KeyColor(o.keyColor).
		Use8Bit(o.use8Bit).
		BodyOnly(o.bodyOnly).
		SkipDCS(o.skipDCS).
		GRILimit(!o.noGRILimit)

	if o.builtin != "" {
		b, err := termsixel.ParseBuiltinPalette(o.builtin)
		if err != nil {
			return nil, err
		}
		enc.Builtin(b)
	}

	switch {
	case o.tmux:
		termsixel.ForceTmux(true)
		enc.Passthrough(termsixel.PassthroughTmux)
	case o.penetrate:
		enc.Passthrough(termsixel.PassthroughScreen)
	case tty:
		p := termsixel.DetectPassthrough()
		log.Debugf("Detected passthrough: %s", p)
		enc.Passthrough(p)
	}
	return enc, nil
}

func printCapabilities(w io.Writer) {
	caps, ok := csi.Query()
	switch {
	case !ok && csi.SixelHinted():
		fmt.Fprintln(w, "Sixel: likely (terminal could not be queried)")
	case !ok:
		fmt.Fprintln(w, "Sixel: unknown (terminal could not be queried)")
	default:
		fmt.Fprintf(w, "Sixel: %t\n", caps.Sixel)
		if caps.ColorRegisters > 0 {
			fmt.Fprintf(w, "Color registers: %d\n", caps.ColorRegisters)
		}
		if caps.MaxWidth > 0 {
			fmt.Fprintf(w, "Max geometry: %dx%d\n", caps.MaxWidth, caps.MaxHeight)
		}
	}
	fmt.Fprintln(w, passthroughStatus(termsixel.DetectPassthrough(), termsixel.IsTmuxPassthroughEnabled()))
}

// passthroughStatus describes the multiplexer wrapping and, under tmux,
// whether allow-passthrough could be switched on for the pane.
func passthroughStatus(p termsixel.Passthrough, tmuxEnabled bool) string {
	if p != termsixel.PassthroughTmux {
		return fmt.Sprintf("Passthrough: %s", p)
	}
	state := "off"
	if tmuxEnabled {
		state = "on"
	}
	return fmt.Sprintf("Passthrough: %s (allow-passthrough %s)", p, state)
}

// parseSize parses "WxH"; either side may be empty to keep the aspect ratio.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("invalid size %q: want WxH", s)
	}
	var w, h int
	var err error
	if ws != "" {
		if w, err = strconv.Atoi(ws); err != nil || w < 0 {
			return 0, 0, fmt.Errorf("invalid width in %q", s)
		}
	}
	if hs != "" {
		if h, err = strconv.Atoi(hs); err != nil || h < 0 {
			return 0, 0, fmt.Errorf("invalid height in %q", s)
		}
	}
	if w == 0 && h == 0 {
		return 0, 0, fmt.Errorf("invalid size %q: both sides are empty", s)
	}
	return w, h, nil
}

// rgbaImage wraps non-paletted pixels in an opaque RGBA image
func rgbaImage(pixels []byte, width, height int, f pixelformat.Format) (*image.RGBA, error) {
	if f.IsPaletted() {
		return nil, fmt.Errorf("cannot resize %v pixels", f)
	}
	rgb, err := pixelformat.ToRGB(pixels, f, width, height)
	if err != nil {
		return nil, err
	}
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range width * height {
		copy(img.Pix[i*4:i*4+3], rgb[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img, nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Error(err.Error())
		os.Exit(1)
	}
}
