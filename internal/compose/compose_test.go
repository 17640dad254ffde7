package compose

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Mavwarf/mkicns/internal/gradient"
)

func TestScaledSize(t *testing.T) {
	cases := map[int]int{
		16:   12,
		32:   25,
		64:   51,
		128:  102,
		256:  204,
		512:  409,
		1024: 819,
	}
	for size, want := range cases {
		if got := ScaledSize(size); got != want {
			t.Errorf("ScaledSize(%d) = %d, want %d", size, got, want)
		}
	}
}

func TestIconDimensions(t *testing.T) {
	src := opaqueSquare(512, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	for _, size := range []int{16, 17, 100, 128, 1024} {
		got := Icon(src, size)
		b := got.Bounds()
		if b.Dx() != size || b.Dy() != size {
			t.Errorf("Icon size %d: bounds %dx%d, want %dx%d", size, b.Dx(), b.Dy(), size, size)
		}
	}
}

func TestIconIsOpaque(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 256, 256)) // fully transparent
	got := Icon(src, 64)
	if !got.Opaque() {
		t.Fatal("icon has transparent pixels")
	}
}

// A fully transparent source must leave the gradient untouched everywhere.
func TestIconTransparentSourceShowsGradientOnly(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 256, 256))
	got := Icon(src, 64)
	bg := gradient.Image(64)
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			c := got.RGBAAt(x, y)
			w := bg.NRGBAAt(x, y)
			if c.R != w.R || c.G != w.G || c.B != w.B {
				t.Fatalf("pixel (%d,%d) = %v, want gradient %v", x, y, c, w)
			}
		}
	}
}

// An opaque source must replace the gradient exactly within the centered
// 80% region and leave it exact outside.
func TestIconBlackSquareRegion(t *testing.T) {
	src := opaqueSquare(512, color.NRGBA{A: 255})
	got := Icon(src, 128)
	bg := gradient.Image(128)

	off := (128 - ScaledSize(128)) / 2
	end := off + ScaledSize(128)
	if off != 13 || end != 115 {
		t.Fatalf("region = [%d,%d), want [13,115)", off, end)
	}
	for y := 0; y < 128; y++ {
		for x := 0; x < 128; x++ {
			c := got.RGBAAt(x, y)
			if x >= off && x < end && y >= off && y < end {
				if c.R != 0 || c.G != 0 || c.B != 0 {
					t.Fatalf("pixel (%d,%d) = %v, want black", x, y, c)
				}
			} else {
				w := bg.NRGBAAt(x, y)
				if c.R != w.R || c.G != w.G || c.B != w.B {
					t.Fatalf("pixel (%d,%d) = %v, want gradient %v", x, y, c, w)
				}
			}
		}
	}
}

func TestIconKeepsSourceVisible(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 512, 512))
	for y := 128; y < 384; y++ {
		for x := 128; x < 384; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	got := Icon(src, 128)
	if !got.Opaque() {
		t.Fatal("icon has transparent pixels")
	}

	bg := gradient.Image(128)
	for _, p := range []image.Point{{0, 0}, {127, 0}, {0, 127}, {127, 127}} {
		c := got.RGBAAt(p.X, p.Y)
		w := bg.NRGBAAt(p.X, p.Y)
		if c.R != w.R || c.G != w.G || c.B != w.B {
			t.Errorf("corner (%d,%d) = %v, want gradient %v", p.X, p.Y, c, w)
		}
	}
	if c := got.RGBAAt(64, 64); c.R != 255 || c.G != 0 || c.B != 0 {
		t.Errorf("center = %v, want red", c)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "src.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, opaqueSquare(8, color.NRGBA{R: 1, G: 2, B: 3, A: 255})); err != nil {
		t.Fatal(err)
	}
	f.Close()

	img, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Errorf("bounds = %dx%d, want 8x8", b.Dx(), b.Dy())
	}
}

func TestOpenMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.png")
	_, err := Open(path)
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "missing.png") {
		t.Errorf("error %q does not name the file", err)
	}
}

func opaqueSquare(size int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}
