package debug

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// ScaleToFit enlarges or shrinks src with nearest-neighbour sampling so that
// it fits maxW x maxH, preserving aspect ratio. Small masked regions stay
// legible when dumped this way.
func ScaleToFit(src image.Image, maxW, maxH int) image.Image {
	if src == nil {
		return nil
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return src
	}
	ratio := min(float64(max(maxW, 1))/float64(w), float64(max(maxH, 1))/float64(h))
	newW := max(int(float64(w)*ratio+0.5), 1)
	newH := max(int(float64(h)*ratio+0.5), 1)
	if newW == w && newH == h {
		return src
	}
	return imaging.Resize(src, newW, newH, imaging.NearestNeighbor)
}

// SavePNG writes img to dir/name.png, creating dir when needed, and returns
// the written path.
func SavePNG(dir, name string, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("debug: nil image for %q", name)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name+".png")
	if err := imaging.Save(img, path); err != nil {
		return "", err
	}
	return path, nil
}
