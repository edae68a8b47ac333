package termsixel

import (
	"fmt"
	"image"
	"strings"

	"github.com/nfnt/resize"
	xdraw "golang.org/x/image/draw"
)

// ScaleMode controls how an image is fitted to a requested size
type ScaleMode int

const (
	ScaleFit     ScaleMode = iota // fit inside, keep aspect ratio
	ScaleNone                     // use the size as given
	ScaleFill                     // cover the size, crop the overflow
	ScaleStretch                  // ignore the aspect ratio
)

func (s ScaleMode) String() string {
	switch s {
	case ScaleFit:
		return "fit"
	case ScaleNone:
		return "none"
	case ScaleFill:
		return "fill"
	case ScaleStretch:
		return "stretch"
	}
	return fmt.Sprintf("ScaleMode(%d)", int(s))
}

// ParseScaleMode returns the scale mode for its name
func ParseScaleMode(s string) (ScaleMode, error) {
	switch strings.ToLower(s) {
	case "fit", "":
		return ScaleFit, nil
	case "none":
		return ScaleNone, nil
	case "fill":
		return ScaleFill, nil
	case "stretch":
		return ScaleStretch, nil
	}
	return ScaleFit, fmt.Errorf("unknown scale mode %q: %w", s, ErrBadArgument)
}

// FitDimensions returns the size an srcW x srcH image is resized to for a
// target box and scale mode. A zero target dimension keeps the aspect ratio.
func FitDimensions(srcW, srcH, targetW, targetH int, mode ScaleMode) (int, int) {
	if srcW <= 0 || srcH <= 0 {
		return 0, 0
	}
	switch {
	case targetW == 0 && targetH == 0:
		return srcW, srcH
	case targetW == 0:
		return max((targetH*srcW)/srcH, 1), targetH
	case targetH == 0:
		return targetW, max((targetW*srcH)/srcW, 1)
	}

	switch mode {
	case ScaleFit:
		ratio := min(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
		return max(int(float64(srcW)*ratio), 1), max(int(float64(srcH)*ratio), 1)
	case ScaleFill:
		ratio := max(float64(targetW)/float64(srcW), float64(targetH)/float64(srcH))
		return max(int(float64(srcW)*ratio), 1), max(int(float64(srcH)*ratio), 1)
	}
	return targetW, targetH
}

// ScaleImage resizes img to the target box according to mode. Fill crops the
// overflow around the center.
func ScaleImage(img image.Image, targetW, targetH int, mode ScaleMode) image.Image {
	b := img.Bounds()
	w, h := FitDimensions(b.Dx(), b.Dy(), targetW, targetH, mode)
	if w <= 0 || h <= 0 {
		return img
	}
	img = ResizeImage(img, uint(w), uint(h))
	if mode == ScaleFill && targetW > 0 && targetH > 0 {
		img = CropImageCenter(img, targetW, targetH)
	}
	return img
}

// ResizeImage resizes img to width x height. Large downscales use a bilinear
// resampler; everything else uses the faster approximate scaler.
func ResizeImage(img image.Image, width, height uint) image.Image {
	bounds := img.Bounds()
	if uint(bounds.Dx()) == width && uint(bounds.Dy()) == height {
		return img
	}

	sourcePixels := bounds.Dx() * bounds.Dy()
	targetPixels := int(width * height)
	if sourcePixels > targetPixels*4 {
		return resize.Resize(width, height, img, resize.Bilinear)
	}

	dst := image.NewRGBA(image.Rect(0, 0, int(width), int(height)))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, xdraw.Src, nil)
	return dst
}

// CropImageCenter crops an image to target dimensions from the center
func CropImageCenter(img image.Image, targetWidth, targetHeight int) image.Image {
	bounds := img.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()

	if targetWidth >= srcW && targetHeight >= srcH {
		return img
	}
	targetWidth = min(targetWidth, srcW)
	targetHeight = min(targetHeight, srcH)

	offsetX := (srcW - targetWidth) / 2
	offsetY := (srcH - targetHeight) / 2

	cropped := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	src := image.Pt(bounds.Min.X+offsetX, bounds.Min.Y+offsetY)
	xdraw.Draw(cropped, cropped.Bounds(), img, src, xdraw.Src)
	return cropped
}
