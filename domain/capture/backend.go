package capture

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

// ErrCapture wraps every failure reported by a capture backend.
var ErrCapture = errors.New("capture failed")

// Backend names accepted by NewBackend.
const (
	BackendScreenshot = "screenshot"
	BackendKbinani    = "kbinani"
	BackendGDI        = "gdi"
)

// Backend grabs a rectangle of the screen. Implementations may return an
// image with any origin; the capture service normalises it.
type Backend interface {
	Grab(r image.Rectangle) (*image.RGBA, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(r image.Rectangle) (*image.RGBA, error)

func (f BackendFunc) Grab(r image.Rectangle) (*image.RGBA, error) { return f(r) }

// NewBackend returns the capture backend registered under name. An empty
// name selects the screenshot backend.
func NewBackend(name string) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", BackendScreenshot:
		return screenshotBackend{}, nil
	case BackendKbinani:
		return kbinaniBackend{}, nil
	case BackendGDI:
		return newGDIBackend()
	default:
		return nil, fmt.Errorf("capture: unknown backend %q", name)
	}
}
