package zone

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// CopyROI copies the offset rectangle of frame into dst and returns it.
// dst is reused when its size matches, otherwise a new image is allocated.
// The result never aliases frame pixels, so later writes to frame do not
// reach it. The offset is interpreted relative to frame.Bounds().Min.
func CopyROI(dst, frame *image.RGBA, off Offset) (*image.RGBA, error) {
	if frame == nil {
		return nil, errors.New("nil frame")
	}
	if off.Width <= 0 || off.Height <= 0 {
		return nil, fmt.Errorf("%w: empty offset %+v", ErrGeometryMismatch, off)
	}
	fb := frame.Bounds()
	src := off.Rect().Add(fb.Min)
	if !src.In(fb) {
		return nil, fmt.Errorf("%w: offset %+v outside frame %dx%d", ErrGeometryMismatch, off, fb.Dx(), fb.Dy())
	}
	if dst == nil || dst.Bounds().Dx() != off.Width || dst.Bounds().Dy() != off.Height {
		dst = image.NewRGBA(image.Rect(0, 0, off.Width, off.Height))
	}
	draw.Draw(dst, dst.Bounds(), frame, src.Min, draw.Src)
	return dst, nil
}
