package termsixel

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
)

const (
	// PacketSize is the number of bytes handed to the sink per write
	PacketSize = 16384
	// ScreenPacketSize bounds each DCS chunk when penetrating GNU screen
	ScreenPacketSize = 256
	// PaletteMax is the largest number of palette slots a sixel image can use
	PaletteMax = 256
)

const (
	dcsStart7Bit = "\x1bP"
	dcsStart8Bit = "\x90"
	dcsEnd7Bit   = "\x1b\\"
	dcsEnd8Bit   = "\x9c"
)

// sixelNode is one run of a single palette color inside a band
type sixelNode struct {
	pal    int
	sx, mx int    // [sx, mx)
	row    []byte // the color's working map row, indexed by column
}

// Output writes a sixel stream to an io.Writer. It is not safe for concurrent use.
type Output struct {
	w io.Writer

	has8BitControl bool
	hasGRIArgLimit bool
	skipDCS        bool
	passthrough    Passthrough
	paletteType    PaletteType
	policy         EncodePolicy
	params         [3]int

	buf     *[]byte
	started bool
	err     error

	savePixel     byte
	saveCount     int
	activePalette int
	nodes         []sixelNode
}

// NewOutput returns an Output writing to w with the 7-bit, GRI-limited defaults
func NewOutput(w io.Writer) *Output {
	return &Output{
		w:              w,
		hasGRIArgLimit: true,
		activePalette:  -1,
	}
}

// Set8BitControl selects C1 (8-bit) introducers and terminators
func (o *Output) Set8BitControl(v bool) { o.has8BitControl = v }

// SetGRIArgLimit limits DECGRI repeat counts to 255
func (o *Output) SetGRIArgLimit(v bool) { o.hasGRIArgLimit = v }

// SetSkipDCSEnvelope omits the DCS introducer and terminator
func (o *Output) SetSkipDCSEnvelope(v bool) { o.skipDCS = v }

// SetPenetrateMultiplexer turns GNU screen packet penetration on or off
func (o *Output) SetPenetrateMultiplexer(v bool) {
	if v {
		o.passthrough = PassthroughScreen
	} else if o.passthrough == PassthroughScreen {
		o.passthrough = PassthroughNone
	}
}

// SetPassthrough selects the multiplexer wrapping of the stream
func (o *Output) SetPassthrough(p Passthrough) { o.passthrough = p }

// SetPaletteType selects RGB or HLS palette definitions
func (o *Output) SetPaletteType(p PaletteType) { o.paletteType = p }

// SetEncodePolicy selects between fast and small output
func (o *Output) SetEncodePolicy(p EncodePolicy) { o.policy = p }

// SetDCSParams sets the P1;P2;P3 DCS parameters. Trailing zeros are not emitted.
func (o *Output) SetDCSParams(p1, p2, p3 int) { o.params = [3]int{p1, p2, p3} }

func (o *Output) buffer() []byte {
	if o.buf == nil {
		o.buf = getPacketBuffer()
	}
	return *o.buf
}

func (o *Output) putc(c byte) {
	b := o.buffer()
	*o.buf = append(b, c)
	o.advance()
}

func (o *Output) puts(s string) {
	b := o.buffer()
	*o.buf = append(b, s...)
	o.advance()
}

func (o *Output) puti(i int) {
	b := o.buffer()
	*o.buf = strconv.AppendInt(b, int64(i), 10)
	o.advance()
}

// advance hands a full packet to the sink
func (o *Output) advance() {
	b := *o.buf
	if len(b) < PacketSize {
		return
	}
	if o.passthrough == PassthroughScreen {
		o.penetrate(b[:PacketSize])
	} else {
		o.write(b[:PacketSize])
	}
	*o.buf = b[:copy(b, b[PacketSize:])]
}

// penetrate writes p as a series of DCS chunks that GNU screen passes through
func (o *Output) penetrate(p []byte) {
	split := ScreenPacketSize - len(dcsStart7Bit) - len(dcsEnd7Bit)
	for pos := 0; pos < len(p); pos += split {
		o.write([]byte(dcsStart7Bit))
		o.write(p[pos:min(pos+split, len(p))])
		o.write([]byte(dcsEnd7Bit))
	}
}

func (o *Output) write(p []byte) {
	if o.err != nil {
		return
	}
	if o.passthrough == PassthroughTmux {
		if !o.started {
			o.started = true
			if _, err := io.WriteString(o.w, tmuxStart); err != nil {
				o.err = fmt.Errorf("failed to write sixel packet: %w", err)
				return
			}
		}
		p = bytes.ReplaceAll(p, []byte("\x1b"), []byte("\x1b\x1b"))
	}
	if _, err := o.w.Write(p); err != nil {
		o.err = fmt.Errorf("failed to write sixel packet: %w", err)
	}
}

// putFlash emits the pending run, as DECGRI groups when it is long enough.
func (o *Output) putFlash() {
	if o.hasGRIArgLimit {
		for o.saveCount > 255 {
			o.puts("!255")
			o.putc(o.savePixel)
			o.saveCount -= 255
		}
	}
	if o.saveCount > 3 {
		o.putc('!')
		o.puti(o.saveCount)
		o.putc(o.savePixel)
	} else {
		for range o.saveCount {
			o.putc(o.savePixel)
		}
	}
	o.savePixel = 0
	o.saveCount = 0
}

// putPixel queues one sixel (six vertical bits)
func (o *Output) putPixel(pix byte) {
	if pix > '?' {
		pix = 0
	}
	pix += '?'
	if pix == o.savePixel {
		o.saveCount++
		return
	}
	o.putFlash()
	o.savePixel = pix
	o.saveCount = 1
}

// putNode moves the cursor x to the end of np, padding with blank sixels.
func (o *Output) putNode(x *int, np sixelNode, ncolors, keycolor int) {
	if ncolors != 2 || keycolor == -1 {
		if o.activePalette != np.pal {
			o.putc('#')
			o.puti(np.pal)
			o.activePalette = np.pal
		}
	}
	for ; *x < np.sx; *x++ {
		o.putPixel(0)
	}
	for ; *x < np.mx; *x++ {
		o.putPixel(np.row[*x])
	}
	o.putFlash()
}

// EncodeHeader writes the DCS introducer, parameters and raster attributes
func (o *Output) EncodeHeader(width, height int) error {
	if !o.skipDCS {
		if o.has8BitControl {
			o.puts(dcsStart8Bit)
		} else {
			o.puts(dcsStart7Bit)
		}
	}

	pcount := 3
	for pcount > 0 && o.params[pcount-1] == 0 {
		pcount--
	}
	for i := range pcount {
		if i > 0 {
			o.putc(';')
		}
		o.puti(o.params[i])
	}

	o.putc('q')
	o.puts("\"1;1;")
	o.puti(width)
	o.putc(';')
	o.puti(height)
	return o.err
}

// putRGBDefinition writes "#n;2;r;g;b" with channels in percent
func (o *Output) putRGBDefinition(palette []byte, n int) {
	o.putc('#')
	o.puti(n)
	o.puts(";2;")
	o.puti((int(palette[n*3])*100 + 127) / 255)
	o.putc(';')
	o.puti((int(palette[n*3+1])*100 + 127) / 255)
	o.putc(';')
	o.puti((int(palette[n*3+2])*100 + 127) / 255)
}

// putHLSDefinition writes "#n;1;h;l;s"
func (o *Output) putHLSDefinition(palette []byte, n int) {
	h, l, s := hls(int(palette[n*3]), int(palette[n*3+1]), int(palette[n*3+2]))
	o.putc('#')
	o.puti(n)
	o.puts(";1;")
	o.puti(h)
	o.putc(';')
	o.puti(l)
	o.putc(';')
	o.puti(s)
}

// hls converts an RGB color to the integer hue, lightness and saturation used by
// DECGCI. Hue 0 is blue, so red sits at 120 and green at 240.
func hls(r, g, b int) (h, l, s int) {
	hi := max(r, g, b)
	lo := min(r, g, b)
	l = ((hi+lo)*100 + 255) / 510
	if hi == lo {
		return 0, l, 0
	}
	if l < 50 {
		s = (hi - lo) * 100 / (hi + lo)
	} else {
		s = (hi - lo) * 100 / ((255 - hi) + (255 - lo))
	}
	switch {
	case r == hi:
		h = 120 + (g-b)*60/(hi-lo)
	case g == hi:
		h = 240 + (b-r)*60/(hi-lo)
	case r < g:
		h = 360 + (r-g)*60/(hi-lo)
	default:
		h = (r - g) * 60 / (hi - lo)
	}
	return h, l, s
}

// EncodeFooter writes the string terminator and flushes everything buffered
func (o *Output) EncodeFooter() error {
	if !o.skipDCS && o.passthrough != PassthroughScreen {
		if o.has8BitControl {
			o.puts(dcsEnd8Bit)
		} else {
			o.puts(dcsEnd7Bit)
		}
	}

	if b := o.buffer(); len(b) > 0 {
		if o.passthrough == PassthroughScreen {
			o.penetrate(b)
			o.write([]byte(dcsEnd7Bit))
		} else {
			o.write(b)
		}
	}
	if o.passthrough == PassthroughTmux && o.started && o.err == nil {
		if _, err := io.WriteString(o.w, tmuxEnd); err != nil {
			o.err = fmt.Errorf("failed to write sixel packet: %w", err)
		}
	}

	putPacketBuffer(o.buf)
	o.buf = nil
	o.started = false
	return o.err
}
