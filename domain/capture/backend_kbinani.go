package capture

import (
	"fmt"
	"image"

	kscreenshot "github.com/kbinani/screenshot"
)

// kbinaniBackend captures through github.com/kbinani/screenshot, which
// addresses the virtual desktop and copes with multi-display origins.
type kbinaniBackend struct{}

func (kbinaniBackend) Grab(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, fmt.Errorf("%w: empty region", ErrCapture)
	}
	if kscreenshot.NumActiveDisplays() == 0 {
		return nil, fmt.Errorf("%w: no active displays", ErrCapture)
	}
	img, err := kscreenshot.CaptureRect(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCapture, err)
	}
	return img, nil
}
