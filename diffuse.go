package termsixel

// tap is one neighbour of an error diffusion kernel
type tap struct {
	dx, dy int
	k      int
}

type kernel struct {
	bias, div int
	// footprint guard: the pixel must satisfy x < width-right && y < height-down
	right, down int
	taps        []tap
}

// The Floyd-Steinberg fan is the reduced three neighbour variant.
var kernels = map[Diffusion]kernel{
	DiffuseFS: {
		bias: 0, div: 16, right: 1, down: 1,
		taps: []tap{{1, 0, 5}, {-1, 1, 3}, {0, 1, 5}},
	},
	DiffuseAtkinson: {
		bias: 4, div: 8, right: 2, down: 2,
		taps: []tap{
			{1, 0, 1}, {2, 0, 1},
			{-1, 1, 1}, {0, 1, 1}, {1, 1, 1},
			{0, 2, 1},
		},
	},
	DiffuseJaJuNi: {
		bias: 4, div: 48, right: 2, down: 2,
		taps: []tap{
			{1, 0, 7}, {2, 0, 5},
			{-2, 1, 3}, {-1, 1, 5}, {0, 1, 7}, {1, 1, 5}, {2, 1, 3},
			{-2, 2, 1}, {-1, 2, 3}, {0, 2, 5}, {1, 2, 3}, {2, 2, 1},
		},
	},
	DiffuseStucki: {
		bias: 4, div: 48, right: 2, down: 2,
		taps: []tap{
			{1, 0, 8}, {2, 0, 4},
			{-2, 1, 2}, {-1, 1, 4}, {0, 1, 8}, {1, 1, 4}, {2, 1, 2},
			{-2, 2, 1}, {-1, 2, 2}, {0, 2, 4}, {1, 2, 2}, {2, 2, 1},
		},
	},
	DiffuseBurkes: {
		bias: 2, div: 16, right: 2, down: 1,
		taps: []tap{
			{1, 0, 4}, {2, 0, 2},
			{-2, 1, 1}, {-1, 1, 2}, {0, 1, 4}, {1, 1, 2}, {2, 1, 1},
		},
	},
}

// diffuse applies method to the RGB888 pixel at (x, y) of a width x height
// buffer. Error kernels only write pixels after (x, y) in raster order; the
// ordered dithers only touch (x, y) itself.
func diffuse(data []byte, x, y, width, height int, method Diffusion) {
	switch method {
	case DiffuseADither, DiffuseXDither:
		orderedDither(data[(y*width+x)*3:], x, y, method)
		return
	}

	k, ok := kernels[method]
	if !ok {
		return
	}
	if x >= width-k.right || y >= height-k.down {
		return
	}

	pos := (y*width + x) * 3
	for c := range 3 {
		err := int(data[pos+c] & 7)
		for _, t := range k.taps {
			nx := x + t.dx
			if nx < 0 {
				continue
			}
			i := ((y+t.dy)*width+nx)*3 + c
			v := int(data[i]) + (err+k.bias)*t.k/k.div
			if v > 255 {
				v = 255
			}
			data[i] = byte(v)
		}
	}
}

// orderedDither perturbs one pixel by a mask derived from its position.
func orderedDither(p []byte, x, y int, method Diffusion) {
	for c := range 3 {
		var mask float32
		if method == DiffuseADither {
			mask = float32((((x + c*17) + y*236) * 119) & 255)
			mask = (mask - 128) / 256
		} else {
			mask = float32(((((x + c*17) ^ y) * 236) * 1234) & 511)
			mask = (mask - 128) / 512
		}
		v := float32(p[c]) + mask
		switch {
		case v < 0:
			v = 0
		case v > 255:
			v = 255
		}
		p[c] = byte(v)
	}
}
