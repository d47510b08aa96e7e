package capture

import (
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// screenshotBackend captures through github.com/vova616/screenshot.
type screenshotBackend struct{}

func (screenshotBackend) Grab(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("%w: empty region", ErrCapture)
	}
	img, err := screenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return img, nil
}
