//go:build gocv

package match

import (
	"errors"
	"fmt"
	"math"
	"testing"
)

// OpenCV scores on float32 surfaces.
const gocvTolerance = 1e-4

func TestGoCVEngine_AgreesWithNCC(t *testing.T) {
	ncc := NewNCCEngine(0)
	cv, err := NewEngine(EngineGoCV, 0)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	glyph := mustTemplate(t, "glyph", white, black)
	redGlyph := mustTemplate(t, "red", red, black)

	exact := solid(20, 14, black)
	paint(exact, 9, 5, white, black)
	hit := solid(16, 16, black)
	paint(hit, 4, 4, red, black)
	miss := solid(16, 16, black)
	paint(miss, 4, 4, green, black)

	type scoreCase struct {
		name string
		run  func(Engine) (float64, error)
	}
	cases := []scoreCase{
		{name: "exact", run: func(e Engine) (float64, error) { return e.Score(exact, anyHSV, glyph) }},
		{name: "red under red mask", run: func(e Engine) (float64, error) { return e.Score(hit, redHSV, redGlyph) }},
		{name: "green under red mask", run: func(e Engine) (float64, error) { return e.Score(miss, redHSV, redGlyph) }},
	}
	for seed := uint64(1); seed <= 4; seed++ {
		roi := noisyROI(15, 11, seed)
		cases = append(cases, scoreCase{name: fmt.Sprintf("noise %d", seed), run: func(e Engine) (float64, error) { return e.Score(roi, anyHSV, glyph) }})
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			want, err := tc.run(ncc)
			if err != nil {
				t.Fatalf("ncc: %v", err)
			}
			got, err := tc.run(cv)
			if err != nil {
				t.Fatalf("gocv: %v", err)
			}
			if math.Abs(got-want) > gocvTolerance {
				t.Fatalf("gocv %v, ncc %v", got, want)
			}
		})
	}
}

func TestGoCVEngine_GeometryMismatch(t *testing.T) {
	tmpl := mustTemplate(t, "glyph", white, black)
	if _, err := (GoCVEngine{}).Score(solid(3, 3, black), anyHSV, tmpl); !errors.Is(err, ErrGeometryMismatch) {
		t.Fatalf("want ErrGeometryMismatch, got %v", err)
	}
}
