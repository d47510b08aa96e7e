package zone

import (
	"errors"
	"image"
	"image/color"
	"testing"
)

func TestComputeRegionAndOffsets(t *testing.T) {
	a := Zone{Name: "A", X1: 100, X2: 160, Y: 50, Height: 40, Key: "left"}
	b := Zone{Name: "B", X1: 200, X2: 260, Y: 80, Height: 40, Key: "right"}
	r, err := ComputeRegion([]Zone{a, b})
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	want := Region{Left: 100, Top: 50, Width: 160, Height: 70}
	if r != want {
		t.Fatalf("region got %+v want %+v", r, want)
	}
	offA, err := ComputeOffset(a, r)
	if err != nil || offA != (Offset{0, 0, 60, 40}) {
		t.Fatalf("offset A got %+v err=%v", offA, err)
	}
	offB, err := ComputeOffset(b, r)
	if err != nil || offB != (Offset{100, 30, 60, 40}) {
		t.Fatalf("offset B got %+v err=%v", offB, err)
	}
}

func TestComputeRegion_Empty(t *testing.T) {
	if _, err := ComputeRegion(nil); !errors.Is(err, ErrNoZones) {
		t.Fatalf("expected ErrNoZones, got %v", err)
	}
}

func TestComputeOffset_OutsideRegion(t *testing.T) {
	r := Region{Left: 100, Top: 50, Width: 60, Height: 40}
	z := Zone{Name: "late", X1: 150, X2: 200, Y: 50, Height: 40, Key: "up"}
	if _, err := ComputeOffset(z, r); !errors.Is(err, ErrZoneOutsideRegion) {
		t.Fatalf("expected ErrZoneOutsideRegion, got %v", err)
	}
}

func TestValidateSet(t *testing.T) {
	ok := Zone{Name: "up", X1: 0, X2: 10, Y: 0, Height: 10, Key: "up"}
	tests := []struct {
		name  string
		zones []Zone
		want  error
	}{
		{"empty", nil, ErrNoZones},
		{"valid", []Zone{ok}, nil},
		{"zero width", []Zone{{Name: "z", X1: 5, X2: 5, Height: 1, Key: "a"}}, ErrInvalidZone},
		{"negative height", []Zone{{Name: "z", X1: 0, X2: 5, Height: -1, Key: "a"}}, ErrInvalidZone},
		{"no name", []Zone{{X1: 0, X2: 5, Height: 1, Key: "a"}}, ErrInvalidZone},
		{"no key", []Zone{{Name: "z", X1: 0, X2: 5, Height: 1}}, ErrInvalidZone},
		{"duplicate", []Zone{ok, ok}, ErrDuplicateZone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSet(tt.zones)
			if tt.want == nil {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("got %v want %v", err, tt.want)
			}
		})
	}
}

func TestCopyROI_CopiesAndDetaches(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 10))
	frame.SetRGBA(12, 4, color.RGBA{R: 200, A: 255})
	roi, err := CopyROI(nil, frame, Offset{X: 10, Y: 2, Width: 5, Height: 5})
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if roi.Bounds() != image.Rect(0, 0, 5, 5) {
		t.Fatalf("unexpected bounds %v", roi.Bounds())
	}
	if got := roi.RGBAAt(2, 2); got.R != 200 {
		t.Fatalf("expected copied pixel, got %+v", got)
	}
	frame.SetRGBA(12, 4, color.RGBA{G: 50, A: 255})
	if got := roi.RGBAAt(2, 2); got.R != 200 || got.G != 0 {
		t.Fatalf("roi aliased frame pixels: %+v", got)
	}
}

func TestCopyROI_ReusesBuffer(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 10))
	off := Offset{X: 1, Y: 1, Width: 4, Height: 4}
	first, err := CopyROI(nil, frame, off)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	second, err := CopyROI(first, frame, off)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if first != second {
		t.Fatalf("expected buffer reuse")
	}
}

func TestCopyROI_OutOfBounds(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 20, 10))
	if _, err := CopyROI(nil, frame, Offset{X: 18, Y: 0, Width: 5, Height: 5}); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("expected ErrGeometryMismatch, got %v", err)
	}
	if _, err := CopyROI(nil, nil, Offset{Width: 1, Height: 1}); err == nil {
		t.Fatalf("expected error for nil frame")
	}
}
