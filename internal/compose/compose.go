// Package compose builds a single icon bitmap: the gradient background with
// the source image scaled and centered on top.
package compose

import (
	"fmt"
	"image"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/Mavwarf/mkicns/internal/gradient"
)

// Open decodes the source image, keeping whatever alpha channel the file
// carries.
func Open(path string) (image.Image, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return img, nil
}

// ScaledSize returns the side length of the source once fitted to a canvas:
// 80% of the canvas side, truncated.
func ScaledSize(size int) int {
	return int(float64(size) * 0.8)
}

// Icon renders one size×size icon: gradient background, source scaled to
// 80% with Lanczos resampling, centered, alpha-composited, flattened to an
// opaque RGB bitmap. Stateless; src is never mutated.
func Icon(src image.Image, size int) *image.RGBA {
	bg := gradient.Image(size)
	scaled := ScaledSize(size)
	resized := imaging.Resize(src, scaled, scaled, imaging.Lanczos)
	offset := (size - scaled) / 2
	over := imaging.Overlay(bg, resized, image.Pt(offset, offset), 1.0)
	return flatten(over)
}

// flatten converts the composite to RGBA. The gradient underneath is
// opaque, so the result carries no transparency and the PNG encoder emits
// truecolor without an alpha channel.
func flatten(img *image.NRGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
