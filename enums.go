package termsixel

import (
	"fmt"
	"strings"
)

// Diffusion selects how quantization error is spread to neighbouring pixels
type Diffusion int

const (
	DiffuseAuto      Diffusion = iota // pick from the palette size
	DiffuseNone                       // no diffusion
	DiffuseAtkinson                   // Bill Atkinson
	DiffuseFS                         // Floyd-Steinberg
	DiffuseJaJuNi                     // Jarvis, Judice & Ninke
	DiffuseStucki                     // Stucki
	DiffuseBurkes                     // Burkes
	DiffuseADither                    // positionally stable arithmetic dither
	DiffuseXDither                    // positionally stable xor dither
)

var diffusionNames = map[Diffusion]string{
	DiffuseAuto:     "auto",
	DiffuseNone:     "none",
	DiffuseAtkinson: "atkinson",
	DiffuseFS:       "fs",
	DiffuseJaJuNi:   "jajuni",
	DiffuseStucki:   "stucki",
	DiffuseBurkes:   "burkes",
	DiffuseADither:  "a_dither",
	DiffuseXDither:  "x_dither",
}

func (d Diffusion) String() string {
	if s, ok := diffusionNames[d]; ok {
		return s
	}
	return fmt.Sprintf("Diffusion(%d)", int(d))
}

// ParseDiffusion returns the diffusion method for its name
func ParseDiffusion(s string) (Diffusion, error) {
	for d, name := range diffusionNames {
		if strings.EqualFold(s, name) {
			return d, nil
		}
	}
	return DiffuseAuto, fmt.Errorf("unknown diffusion method %q: %w", s, ErrBadArgument)
}

// Quality controls palette building and the encoding path
type Quality int

const (
	QualityAuto      Quality = iota
	QualityHigh              // full precision histogram
	QualityLow               // 5 bits per channel histogram
	QualityFull              // like high, without the color cache
	QualityHighColor         // streaming high-color encoder
)

var qualityNames = map[Quality]string{
	QualityAuto:      "auto",
	QualityHigh:      "high",
	QualityLow:       "low",
	QualityFull:      "full",
	QualityHighColor: "highcolor",
}

func (q Quality) String() string {
	if s, ok := qualityNames[q]; ok {
		return s
	}
	return fmt.Sprintf("Quality(%d)", int(q))
}

// ParseQuality returns the quality mode for its name
func ParseQuality(s string) (Quality, error) {
	for q, name := range qualityNames {
		if strings.EqualFold(s, name) {
			return q, nil
		}
	}
	return QualityAuto, fmt.Errorf("unknown quality mode %q: %w", s, ErrBadArgument)
}

// PaletteType is the color space used for palette definitions
type PaletteType int

const (
	PaletteAuto PaletteType = iota // same as RGB
	PaletteHLS
	PaletteRGB
)

func (p PaletteType) String() string {
	switch p {
	case PaletteAuto:
		return "auto"
	case PaletteHLS:
		return "hls"
	case PaletteRGB:
		return "rgb"
	}
	return fmt.Sprintf("PaletteType(%d)", int(p))
}

// ParsePaletteType returns the palette type for its name
func ParsePaletteType(s string) (PaletteType, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return PaletteAuto, nil
	case "hls":
		return PaletteHLS, nil
	case "rgb":
		return PaletteRGB, nil
	}
	return PaletteAuto, fmt.Errorf("unknown palette type %q: %w", s, ErrBadArgument)
}

// EncodePolicy trades encoding speed against output size
type EncodePolicy int

const (
	EncodePolicyAuto EncodePolicy = iota
	EncodePolicyFast
	EncodePolicySize
)

func (e EncodePolicy) String() string {
	switch e {
	case EncodePolicyAuto:
		return "auto"
	case EncodePolicyFast:
		return "fast"
	case EncodePolicySize:
		return "size"
	}
	return fmt.Sprintf("EncodePolicy(%d)", int(e))
}

// ParseEncodePolicy returns the encode policy for its name
func ParseEncodePolicy(s string) (EncodePolicy, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return EncodePolicyAuto, nil
	case "fast":
		return EncodePolicyFast, nil
	case "size":
		return EncodePolicySize, nil
	}
	return EncodePolicyAuto, fmt.Errorf("unknown encode policy %q: %w", s, ErrBadArgument)
}

// LargestDim is the method used to pick the dimension a median-cut box is split on
type LargestDim int

const (
	LargestAuto LargestDim = iota
	LargestNorm            // compare ranges in RGB space
	LargestLum             // compare luminosities
)

func (l LargestDim) String() string {
	switch l {
	case LargestAuto:
		return "auto"
	case LargestNorm:
		return "norm"
	case LargestLum:
		return "lum"
	}
	return fmt.Sprintf("LargestDim(%d)", int(l))
}

// ParseLargestDim returns the split method for its name
func ParseLargestDim(s string) (LargestDim, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return LargestAuto, nil
	case "norm":
		return LargestNorm, nil
	case "lum":
		return LargestLum, nil
	}
	return LargestAuto, fmt.Errorf("unknown split method %q: %w", s, ErrBadArgument)
}

// RepColor is the method used to choose the representative color of a box
type RepColor int

const (
	RepAuto          RepColor = iota
	RepCenter                 // center of the box
	RepAverageColors          // average of the distinct colors in the box
	RepAveragePixels          // average of all pixels in the box
)

func (r RepColor) String() string {
	switch r {
	case RepAuto:
		return "auto"
	case RepCenter:
		return "center"
	case RepAverageColors:
		return "average"
	case RepAveragePixels:
		return "histogram"
	}
	return fmt.Sprintf("RepColor(%d)", int(r))
}

// ParseRepColor returns the representative color method for its name
func ParseRepColor(s string) (RepColor, error) {
	switch strings.ToLower(s) {
	case "auto", "":
		return RepAuto, nil
	case "center":
		return RepCenter, nil
	case "average":
		return RepAverageColors, nil
	case "histogram", "pixels":
		return RepAveragePixels, nil
	}
	return RepAuto, fmt.Errorf("unknown representative color method %q: %w", s, ErrBadArgument)
}

// Passthrough is the terminal multiplexer wrapping applied to the stream
type Passthrough int

const (
	PassthroughNone   Passthrough = iota
	PassthroughScreen             // re-wrap every packet in its own DCS (GNU screen)
	PassthroughTmux               // wrap the whole stream in a tmux DCS with doubled ESC
)

func (p Passthrough) String() string {
	switch p {
	case PassthroughNone:
		return "none"
	case PassthroughScreen:
		return "screen"
	case PassthroughTmux:
		return "tmux"
	}
	return fmt.Sprintf("Passthrough(%d)", int(p))
}
