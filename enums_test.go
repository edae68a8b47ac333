package termsixel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnums(t *testing.T) {
	t.Run("diffusion", func(t *testing.T) {
		for d := DiffuseAuto; d <= DiffuseXDither; d++ {
			got, err := ParseDiffusion(d.String())
			require.NoError(t, err)
			assert.Equal(t, d, got)
		}
		got, err := ParseDiffusion("FS")
		require.NoError(t, err)
		assert.Equal(t, DiffuseFS, got)
	})

	t.Run("quality", func(t *testing.T) {
		for q := QualityAuto; q <= QualityHighColor; q++ {
			got, err := ParseQuality(q.String())
			require.NoError(t, err)
			assert.Equal(t, q, got)
		}
	})

	t.Run("palette type", func(t *testing.T) {
		for p := PaletteAuto; p <= PaletteRGB; p++ {
			got, err := ParsePaletteType(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, got)
		}
	})

	t.Run("encode policy", func(t *testing.T) {
		for p := EncodePolicyAuto; p <= EncodePolicySize; p++ {
			got, err := ParseEncodePolicy(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, got)
		}
	})

	t.Run("largest dim", func(t *testing.T) {
		for l := LargestAuto; l <= LargestLum; l++ {
			got, err := ParseLargestDim(l.String())
			require.NoError(t, err)
			assert.Equal(t, l, got)
		}
	})

	t.Run("rep color", func(t *testing.T) {
		for r := RepAuto; r <= RepAveragePixels; r++ {
			got, err := ParseRepColor(r.String())
			require.NoError(t, err)
			assert.Equal(t, r, got)
		}
		got, err := ParseRepColor("pixels")
		require.NoError(t, err)
		assert.Equal(t, RepAveragePixels, got)
	})
}

func TestParseEnumsUnknown(t *testing.T) {
	_, err := ParseDiffusion("ordered")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParseQuality("best")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParsePaletteType("cmyk")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParseEncodePolicy("slow")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParseLargestDim("max")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParseRepColor("median")
	assert.ErrorIs(t, err, ErrBadArgument)
	_, err = ParseBuiltinPalette("vga")
	assert.ErrorIs(t, err, ErrBadArgument)
}

func TestEnumStringFallback(t *testing.T) {
	assert.Equal(t, "Diffusion(42)", Diffusion(42).String())
	assert.Equal(t, "Quality(42)", Quality(42).String())
	assert.Equal(t, "Passthrough(42)", Passthrough(42).String())
	assert.Equal(t, "tmux", PassthroughTmux.String())
}
