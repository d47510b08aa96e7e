package debug

import (
	"image"
	"os"
	"testing"
)

func TestScaleToFit(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 10, 5))
	got := ScaleToFit(src, 100, 100)
	if b := got.Bounds(); b.Dx() != 100 || b.Dy() != 50 {
		t.Fatalf("enlarge: %v", b)
	}
	got = ScaleToFit(src, 4, 4)
	if b := got.Bounds(); b.Dx() != 4 || b.Dy() != 2 {
		t.Fatalf("shrink: %v", b)
	}
	if ScaleToFit(src, 10, 5) != image.Image(src) {
		t.Fatalf("exact fit should return source")
	}
}

func TestSavePNG(t *testing.T) {
	dir := t.TempDir()
	path, err := SavePNG(dir+"/nested", "roi", image.NewGray(image.Rect(0, 0, 3, 3)))
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("missing file: %v", err)
	}
	if _, err := SavePNG(dir, "nil", nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
}
