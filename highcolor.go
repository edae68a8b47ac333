package termsixel

import (
	"fmt"

	"github.com/apex/log"
)

const (
	palUnused = iota
	palHit    // slot reused during the current pass
	palChange // slot (re)assigned during the current pass
)

// unresolved marks pixels that get no color in the current pass; it doubles
// as the key color of every high-color band.
const unresolved = 255

// highColor is the state of the streaming encoder. Pixel colors are reduced to
// 15-bit keys that own at most one of the 255 usable palette slots at a time.
type highColor struct {
	rgbhit      []bool
	rgb2pal     []byte
	palstate    [PaletteMax]int
	palhitcount [PaletteMax]int
	assigned    [PaletteMax]bool
	defined     [PaletteMax]bool

	nextpal   int
	threshold int
}

func newHighColor() *highColor {
	return &highColor{
		rgbhit:  make([]bool, 1<<15),
		rgb2pal: make([]byte, 1<<15),
	}
}

// startPass forgets which slots were touched so they can be recycled
func (h *highColor) startPass() {
	h.palstate = [PaletteMax]int{}
	h.defined = [PaletteMax]bool{}
	h.nextpal = 0
	h.threshold = 1
}

// slot returns the palette index for the color at p, allocating one when the
// key has none. ok is false when every slot is taken for this pass.
func (h *highColor) slot(p []byte, palette []byte) (idx byte, ok bool) {
	key := key15(p[0], p[1], p[2])
	if h.rgbhit[key] {
		idx = h.rgb2pal[key]
		if h.palstate[idx] == palUnused {
			h.palstate[idx] = palHit
		}
		if h.palhitcount[idx] < 255 {
			h.palhitcount[idx]++
		}
		return idx, true
	}

	for {
		if h.nextpal >= unresolved {
			if h.threshold >= 255 {
				return unresolved, false
			}
			if h.threshold == 1 {
				h.threshold = 9
			} else {
				h.threshold = 255
			}
			h.nextpal = 0
		} else if h.palstate[h.nextpal] != palUnused || h.palhitcount[h.nextpal] > h.threshold {
			h.nextpal++
		} else {
			break
		}
	}

	n := h.nextpal
	h.nextpal++
	if h.assigned[n] {
		// the slot's previous color loses it
		h.rgbhit[key15(palette[n*3], palette[n*3+1], palette[n*3+2])] = false
	}
	h.rgbhit[key] = true
	h.rgb2pal[key] = byte(n)
	h.assigned[n] = true
	h.palstate[n] = palChange
	h.palhitcount[n] = 1
	copy(palette[n*3:n*3+3], p[:3])
	return byte(n), true
}

// encodeHighColor streams an RGB888 image band by band, assigning palette
// slots on the fly. pixels is modified by the diffusion kernels. When the slots
// run out inside a band, the band is finished with what it has, the cursor
// returns to its start and a new pass fills in the pixels that were left out.
func (o *Output) encodeHighColor(pixels []byte, width, height int, d *Dither) error {
	if len(d.palette) < PaletteMax*3 {
		d.palette = append(d.palette, make([]byte, PaletteMax*3-len(d.palette))...)
	}
	palette := d.palette
	d.ncolors = PaletteMax

	if err := o.EncodeHeader(width, height); err != nil {
		return err
	}

	h := newHighColor()
	marks := make([]bool, width*6)
	band := make([]byte, width*6)
	m := make([]byte, PaletteMax*width)
	first, redo := true, false
	pass := 0

	for y := 0; y < height; {
		h.startPass()
		pass++
		for y < height {
			rows := min(6, height-y)
			dirty := false
			for i := range rows {
				for x := range width {
					k := i*width + x
					if marks[k] {
						band[k] = unresolved
						continue
					}
					diffuse(pixels, x, y+i, width, height, d.diffusion)
					p := pixels[((y+i)*width+x)*3:]
					idx, ok := h.slot(p, palette)
					if !ok {
						dirty = true
					} else {
						marks[k] = true
					}
					band[k] = idx
				}
			}

			if !d.bodyOnly {
				for n := range unresolved {
					if h.palstate[n] == palChange && !h.defined[n] {
						o.putDefinition(palette, n)
						h.defined[n] = true
					}
				}
			}
			o.activePalette = -1
			o.encodeBand(band[:rows*width], width, rows, PaletteMax, unresolved, m, !first && !redo)
			clear(m)
			first, redo = false, dirty
			if o.err != nil {
				return o.err
			}

			if dirty {
				log.WithFields(log.Fields{
					"row":  y,
					"pass": pass,
				}).Debug("palette exhausted, redrawing band")
				// DECGCR, then the same band again with the marks kept
				o.putc('$')
				break
			}
			clear(marks)
			y += rows
		}
	}

	if err := o.EncodeFooter(); err != nil {
		return fmt.Errorf("failed to finish high-color image: %w", err)
	}
	return nil
}
