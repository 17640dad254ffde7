// Package gradient renders the three-stop diagonal background used by the
// app icon: Tailwind indigo-500 → violet-500 → purple-500, running from the
// top-left corner to the bottom-right.
package gradient

import (
	"image"
	"image/color"
)

// Color stops (Tailwind 500-series values).
var (
	Indigo = color.NRGBA{R: 99, G: 102, B: 241, A: 255} // #6366f1
	Violet = color.NRGBA{R: 139, G: 92, B: 246, A: 255} // #8b5cf6
	Purple = color.NRGBA{R: 168, G: 85, B: 247, A: 255} // #a855f7
)

// At returns the gradient color at (x, y) for a size×size bitmap.
// The diagonal distance d = (x+y)/(2*size) selects one of two linear
// segments: indigo→violet for d < 0.5, violet→purple above. Channels are
// truncated, not rounded, so a pixel just before a segment boundary may sit
// one unit below a rounded implementation.
func At(size, x, y int) color.NRGBA {
	d := float64(x+y) / float64(2*size)
	if d < 0.5 {
		return lerp(Indigo, Violet, d*2)
	}
	return lerp(Violet, Purple, (d-0.5)*2)
}

// Image renders the full size×size gradient bitmap. The result is fully
// opaque.
func Image(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		i := y * img.Stride
		for x := 0; x < size; x++ {
			c := At(size, x, y)
			img.Pix[i+0] = c.R
			img.Pix[i+1] = c.G
			img.Pix[i+2] = c.B
			img.Pix[i+3] = c.A
			i += 4
		}
	}
	return img
}

func lerp(a, b color.NRGBA, t float64) color.NRGBA {
	return color.NRGBA{
		R: channel(a.R, b.R, t),
		G: channel(a.G, b.G, t),
		B: channel(a.B, b.B, t),
		A: 255,
	}
}

// channel interpolates a single channel, truncating toward zero.
func channel(a, b uint8, t float64) uint8 {
	return uint8(float64(a) + (float64(b)-float64(a))*t)
}
