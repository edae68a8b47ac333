package termsixel

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingWriter keeps every write separately
type recordingWriter struct {
	writes [][]byte
}

func (w *recordingWriter) Write(p []byte) (int, error) {
	w.writes = append(w.writes, bytes.Clone(p))
	return len(p), nil
}

func (w *recordingWriter) String() string {
	return string(bytes.Join(w.writes, nil))
}

type failingWriter struct{ err error }

func (w failingWriter) Write(p []byte) (int, error) { return 0, w.err }

// rawOutput returns an Output without the DCS envelope so tests see only what
// they emit.
func rawOutput(w *bytes.Buffer) *Output {
	o := NewOutput(w)
	o.SetSkipDCSEnvelope(true)
	return o
}

func TestPutFlashRepeat(t *testing.T) {
	tests := []struct {
		name  string
		count int
		limit bool
		want  string
	}{
		{"single", 1, true, "@"},
		{"three stay literal", 3, true, "@@@"},
		{"four use DECGRI", 4, true, "!4@"},
		{"limit splits long runs", 300, true, "!255@!45@"},
		{"exactly the limit", 255, true, "!255@"},
		{"no limit", 300, false, "!300@"},
		{"remainder below four", 257, true, "!255@@@"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			o := rawOutput(&buf)
			o.SetGRIArgLimit(tt.limit)
			for range tt.count {
				o.putPixel(1)
			}
			o.putFlash()
			require.NoError(t, o.EncodeFooter())
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestPutPixelRange(t *testing.T) {
	var buf bytes.Buffer
	o := rawOutput(&buf)
	o.putPixel(0)
	o.putPixel(63)
	o.putPixel(64) // out of range sixels are blank
	o.putFlash()
	require.NoError(t, o.EncodeFooter())
	assert.Equal(t, "?~?", buf.String())
}

func TestPaletteDefinitions(t *testing.T) {
	palette := []byte{
		255, 0, 0,
		0, 255, 0,
		0, 0, 255,
		128, 128, 128,
	}

	t.Run("rgb", func(t *testing.T) {
		var buf bytes.Buffer
		o := rawOutput(&buf)
		for n := range 4 {
			o.putDefinition(palette, n)
		}
		require.NoError(t, o.EncodeFooter())
		assert.Equal(t, "#0;2;100;0;0#1;2;0;100;0#2;2;0;0;100#3;2;50;50;50", buf.String())
	})

	t.Run("hls", func(t *testing.T) {
		var buf bytes.Buffer
		o := rawOutput(&buf)
		o.SetPaletteType(PaletteHLS)
		for n := range 4 {
			o.putDefinition(palette, n)
		}
		require.NoError(t, o.EncodeFooter())
		assert.Equal(t, "#0;1;120;50;100#1;1;240;50;100#2;1;0;50;100#3;1;0;50;0", buf.String())
	})
}

func TestHLS(t *testing.T) {
	tests := []struct {
		name    string
		r, g, b int
		h, l, s int
	}{
		{"black", 0, 0, 0, 0, 0, 0},
		{"white", 255, 255, 255, 0, 100, 0},
		{"red", 255, 0, 0, 120, 50, 100},
		{"green", 0, 255, 0, 240, 50, 100},
		{"blue", 0, 0, 255, 0, 50, 100},
		{"yellow", 255, 255, 0, 180, 50, 100},
		{"dark red", 128, 0, 0, 120, 25, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, l, s := hls(tt.r, tt.g, tt.b)
			assert.Equal(t, []int{tt.h, tt.l, tt.s}, []int{h, l, s})
		})
	}
}

func TestEncodeHeader(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(o *Output)
		header string
		footer string
	}{
		{"default", func(o *Output) {}, "\x1bPq\"1;1;10;20", "\x1b\\"},
		{"8-bit controls", func(o *Output) { o.Set8BitControl(true) }, "\x90q\"1;1;10;20", "\x9c"},
		{"skip envelope", func(o *Output) { o.SetSkipDCSEnvelope(true) }, "q\"1;1;10;20", ""},
		{"transparent background", func(o *Output) { o.SetDCSParams(0, 1, 0) }, "\x1bP0;1q\"1;1;10;20", "\x1b\\"},
		{"all params", func(o *Output) { o.SetDCSParams(7, 1, 3) }, "\x1bP7;1;3q\"1;1;10;20", "\x1b\\"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			o := NewOutput(&buf)
			tt.setup(o)
			require.NoError(t, o.EncodeHeader(10, 20))
			require.NoError(t, o.EncodeFooter())
			assert.Equal(t, tt.header+tt.footer, buf.String())
		})
	}
}

func TestPacketFlush(t *testing.T) {
	var w recordingWriter
	o := NewOutput(&w)
	o.SetSkipDCSEnvelope(true)

	for range PacketSize + 10 {
		o.putc('x')
	}
	assert.Len(t, w.writes, 1, "a full packet is handed over before the footer")
	require.NoError(t, o.EncodeFooter())

	require.Len(t, w.writes, 2)
	assert.Len(t, w.writes[0], PacketSize)
	assert.Len(t, w.writes[1], 10)
	assert.Nil(t, o.buf, "footer returns the buffer to the pool")
}

func TestScreenPenetration(t *testing.T) {
	t.Run("small image", func(t *testing.T) {
		var buf bytes.Buffer
		o := NewOutput(&buf)
		o.SetPenetrateMultiplexer(true)
		require.NoError(t, o.EncodeHeader(1, 1))
		require.NoError(t, o.EncodeFooter())
		assert.Equal(t, "\x1bP\x1bPq\"1;1;1;1\x1b\\\x1b\\", buf.String())
	})

	t.Run("chunks", func(t *testing.T) {
		var w recordingWriter
		o := NewOutput(&w)
		o.SetPassthrough(PassthroughScreen)
		o.SetSkipDCSEnvelope(true)
		payload := strings.Repeat("~", 600)
		o.puts(payload)
		require.NoError(t, o.EncodeFooter())

		out := w.String()
		split := ScreenPacketSize - 4
		assert.Equal(t, 3, strings.Count(out, "\x1bP"), "600 bytes in %d byte chunks", split)
		assert.Equal(t, payload, strings.NewReplacer("\x1bP", "", "\x1b\\", "").Replace(out))
		for _, p := range w.writes {
			assert.LessOrEqual(t, len(p), split)
		}
	})

	t.Run("turning it off", func(t *testing.T) {
		o := NewOutput(&bytes.Buffer{})
		o.SetPenetrateMultiplexer(true)
		o.SetPenetrateMultiplexer(false)
		assert.Equal(t, PassthroughNone, o.passthrough)
	})
}

func TestTmuxPassthroughOutput(t *testing.T) {
	var buf bytes.Buffer
	o := NewOutput(&buf)
	o.SetPassthrough(PassthroughTmux)
	require.NoError(t, o.EncodeHeader(1, 1))
	require.NoError(t, o.EncodeFooter())
	assert.Equal(t, "\x1bPtmux;\x1b\x1bPq\"1;1;1;1\x1b\x1b\\\x1b\\", buf.String())
}

func TestWriterErrorIsSticky(t *testing.T) {
	sinkErr := errors.New("disk full")
	o := NewOutput(failingWriter{sinkErr})

	require.NoError(t, o.EncodeHeader(1, 1), "header is buffered")
	for range PacketSize {
		o.putc('?')
	}
	o.putc('?')

	err := o.EncodeFooter()
	require.Error(t, err)
	assert.ErrorIs(t, err, sinkErr)
	assert.Contains(t, err.Error(), "failed to write sixel packet")
}
