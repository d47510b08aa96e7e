//go:build gocv

package match

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// EngineGoCV names the OpenCV-backed engine.
const EngineGoCV = "gocv"

func init() {
	RegisterEngine(EngineGoCV, func(int) Engine { return GoCVEngine{} })
}

// GoCVEngine runs the matching pipeline through OpenCV. Mats are allocated
// per call and closed before returning, so the engine is safe for
// concurrent use.
type GoCVEngine struct{}

func (GoCVEngine) Score(roi *image.RGBA, mask ColorMask, tmpl *Template) (float64, error) {
	if roi == nil || tmpl == nil || tmpl.Gray == nil {
		return 0, fmt.Errorf("%w: nil input", ErrScoring)
	}
	rb := roi.Bounds()
	if rb.Dx() < tmpl.Width() || rb.Dy() < tmpl.Height() {
		return 0, fmt.Errorf("%w: roi %dx%d smaller than template %q %dx%d", ErrGeometryMismatch, rb.Dx(), rb.Dy(), tmpl.Name, tmpl.Width(), tmpl.Height())
	}

	bgr, err := gocv.ImageToMatRGB(roi)
	if err != nil {
		return 0, fmt.Errorf("%w: roi to mat: %v", ErrScoring, err)
	}
	defer bgr.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	inRange := gocv.NewMat()
	defer inRange.Close()
	lower := gocv.NewScalar(float64(mask.Lower.H), float64(mask.Lower.S), float64(mask.Lower.V), 0)
	upper := gocv.NewScalar(float64(mask.Upper.H), float64(mask.Upper.S), float64(mask.Upper.V), 0)
	gocv.InRangeWithScalar(hsv, lower, upper, &inRange)

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	masked := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), gray.Rows(), gray.Cols(), gocv.MatTypeCV8U)
	defer masked.Close()
	gocv.BitwiseAndWithMask(gray, gray, &masked, inRange)

	tm, err := gocv.ImageGrayToMatGray(tmpl.Gray)
	if err != nil {
		return 0, fmt.Errorf("%w: template to mat: %v", ErrScoring, err)
	}
	defer tm.Close()

	result := gocv.NewMat()
	defer result.Close()
	noMask := gocv.NewMat()
	defer noMask.Close()
	gocv.MatchTemplate(masked, tm, &result, gocv.TmCcoeffNormed, noMask)
	if result.Empty() {
		return 0, fmt.Errorf("%w: empty result surface", ErrScoring)
	}
	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal), nil
}
