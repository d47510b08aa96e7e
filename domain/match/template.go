package match

import (
	"errors"
	"fmt"
	"image"
	"sync/atomic"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

var (
	ErrEmptyTemplate = errors.New("template: empty image")
	ErrFlatTemplate  = errors.New("template: no contrast")
)

var templateIDs atomic.Uint64

// Template is an immutable 8-bit grayscale reference image.
type Template struct {
	Name string
	Gray *image.Gray
	id   uint64
}

func (t *Template) Width() int  { return t.Gray.Bounds().Dx() }
func (t *Template) Height() int { return t.Gray.Bounds().Dy() }

// LoadTemplate reads an image file (PNG, JPEG, GIF, BMP, TIFF, WebP) and
// converts it to grayscale the way a grayscale imread would.
func LoadTemplate(name, path string) (*Template, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("template %q: %w", name, err)
	}
	return TemplateFromImage(name, img)
}

// TemplateFromImage converts img to a grayscale template. Alpha is ignored.
func TemplateFromImage(name string, img image.Image) (*Template, error) {
	if img == nil || img.Bounds().Empty() {
		return nil, fmt.Errorf("%w: %q", ErrEmptyTemplate, name)
	}
	src := imaging.Clone(img)
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	first := -1
	flat := true
	for y := 0; y < b.Dy(); y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			v := Gray(row[x*4], row[x*4+1], row[x*4+2])
			gray.Pix[y*gray.Stride+x] = v
			if first < 0 {
				first = int(v)
			} else if int(v) != first {
				flat = false
			}
		}
	}
	if flat {
		return nil, fmt.Errorf("%w: %q", ErrFlatTemplate, name)
	}
	return &Template{Name: name, Gray: gray, id: templateIDs.Add(1)}, nil
}
