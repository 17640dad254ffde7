// Package iconset stages the multi-resolution PNG set that makes up a macOS
// .iconset directory, and can assemble the .icns container in-process for
// hosts without iconutil.
package iconset

import (
	"bytes"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/jackmordaunt/icns/v3"

	"github.com/Mavwarf/mkicns/internal/compose"
	"github.com/Mavwarf/mkicns/internal/paths"
)

// Sizes are the base resolutions an app icon ships with.
var Sizes = []int{16, 32, 64, 128, 256, 512, 1024}

// retinaMax is the largest base size that also gets an @2x variant.
const retinaMax = 128

// File describes one staged PNG.
type File struct {
	Name   string
	Pixels int
	Bytes  int64
}

// HasRetina reports whether a base size is also emitted at @2x.
func HasRetina(size int) bool {
	return size <= retinaMax
}

// FileName returns the iconutil naming convention for a staged PNG.
func FileName(size int, retina bool) string {
	if retina {
		return fmt.Sprintf("icon_%dx%d@2x.png", size, size)
	}
	return fmt.Sprintf("icon_%dx%d.png", size, size)
}

// Write renders the full icon set into dir, creating it if needed. The
// progress callback, if non-nil, runs once per base size after its variants
// are on disk. The first failed write aborts the run.
func Write(dir string, src image.Image, progress func(size int)) ([]File, error) {
	if err := os.MkdirAll(dir, paths.DirPerm); err != nil {
		return nil, fmt.Errorf("creating %s: %w", dir, err)
	}
	files := make([]File, 0, 2*len(Sizes))
	for _, size := range Sizes {
		f, err := render(dir, src, size, false)
		if err != nil {
			return nil, err
		}
		files = append(files, f)
		if HasRetina(size) {
			f, err := render(dir, src, size, true)
			if err != nil {
				return nil, err
			}
			files = append(files, f)
		}
		if progress != nil {
			progress(size)
		}
	}
	return files, nil
}

func render(dir string, src image.Image, size int, retina bool) (File, error) {
	px := size
	if retina {
		px *= 2
	}
	name := FileName(size, retina)
	path := filepath.Join(dir, name)
	if err := imaging.Save(compose.Icon(src, px), path); err != nil {
		return File{}, fmt.Errorf("writing %s: %w", name, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("writing %s: %w", name, err)
	}
	return File{Name: name, Pixels: px, Bytes: info.Size()}, nil
}

// EncodeICNS packs the staged set into an .icns container without shelling
// out. The encoder derives every container entry from the largest render.
func EncodeICNS(dir, outPath string) error {
	img, err := imaging.Open(filepath.Join(dir, FileName(1024, false)))
	if err != nil {
		return fmt.Errorf("reading staged icon: %w", err)
	}
	var buf bytes.Buffer
	if err := icns.Encode(&buf, img); err != nil {
		return fmt.Errorf("encoding icns: %w", err)
	}
	if err := paths.AtomicWrite(outPath, buf.Bytes()); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	return nil
}
