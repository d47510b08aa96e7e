package zone

import (
	"errors"
	"fmt"
	"image"
	"strings"
)

var (
	ErrNoZones           = errors.New("zone: empty zone set")
	ErrInvalidZone       = errors.New("zone: invalid geometry")
	ErrDuplicateZone     = errors.New("zone: duplicate name")
	ErrZoneOutsideRegion = errors.New("zone: outside capture region")
	// ErrGeometryMismatch reports an offset that does not fit the frame it is
	// applied to, or a region of interest smaller than its template.
	ErrGeometryMismatch = errors.New("geometry mismatch")
)

// Zone is a declared screen rectangle watched for one template and bound to
// one key. Coordinates are absolute screen pixels; X2 is exclusive.
type Zone struct {
	Name   string
	X1, X2 int
	Y      int
	Height int
	Key    string
}

func (z Zone) Width() int { return z.X2 - z.X1 }

// Rect returns the zone rectangle in screen coordinates.
func (z Zone) Rect() image.Rectangle { return image.Rect(z.X1, z.Y, z.X2, z.Y+z.Height) }

// Validate checks a single zone's shape and identity.
func (z Zone) Validate() error {
	if strings.TrimSpace(z.Name) == "" {
		return fmt.Errorf("%w: zone without name", ErrInvalidZone)
	}
	if z.X2 <= z.X1 {
		return fmt.Errorf("%w: zone %q x2=%d must be greater than x1=%d", ErrInvalidZone, z.Name, z.X2, z.X1)
	}
	if z.Height <= 0 {
		return fmt.Errorf("%w: zone %q height=%d must be positive", ErrInvalidZone, z.Name, z.Height)
	}
	if strings.TrimSpace(z.Key) == "" {
		return fmt.Errorf("%w: zone %q has no key", ErrInvalidZone, z.Name)
	}
	return nil
}

// ValidateSet validates every zone and enforces unique names.
func ValidateSet(zones []Zone) error {
	if len(zones) == 0 {
		return ErrNoZones
	}
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if err := z.Validate(); err != nil {
			return err
		}
		if _, dup := seen[z.Name]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateZone, z.Name)
		}
		seen[z.Name] = struct{}{}
	}
	return nil
}

// Region is the capture bounding box in absolute screen pixels.
type Region struct {
	Left, Top     int
	Width, Height int
}

// Rect returns the region as a screen rectangle.
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.Left, r.Top, r.Left+r.Width, r.Top+r.Height)
}

// Offset is a zone rectangle expressed relative to the region origin.
type Offset struct {
	X, Y          int
	Width, Height int
}

// Rect returns the offset rectangle in frame coordinates (origin 0,0).
func (o Offset) Rect() image.Rectangle { return image.Rect(o.X, o.Y, o.X+o.Width, o.Y+o.Height) }

// ComputeRegion returns the smallest region enclosing every zone.
func ComputeRegion(zones []Zone) (Region, error) {
	if len(zones) == 0 {
		return Region{}, ErrNoZones
	}
	minX, minY := zones[0].X1, zones[0].Y
	maxX, maxY := zones[0].X2, zones[0].Y+zones[0].Height
	for _, z := range zones[1:] {
		minX = min(minX, z.X1)
		minY = min(minY, z.Y)
		maxX = max(maxX, z.X2)
		maxY = max(maxY, z.Y+z.Height)
	}
	return Region{Left: minX, Top: minY, Width: maxX - minX, Height: maxY - minY}, nil
}

// ComputeOffset maps a zone into the coordinate space of region.
func ComputeOffset(z Zone, r Region) (Offset, error) {
	off := Offset{X: z.X1 - r.Left, Y: z.Y - r.Top, Width: z.Width(), Height: z.Height}
	if off.X < 0 || off.Y < 0 || off.X+off.Width > r.Width || off.Y+off.Height > r.Height {
		return Offset{}, fmt.Errorf("%w: zone %q offset=%+v region=%+v", ErrZoneOutsideRegion, z.Name, off, r)
	}
	return off, nil
}
