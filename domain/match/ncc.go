package match

import (
	"errors"
	"fmt"
	"image"
	"math"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/arrow-bot-go/domain/zone"
)

var (
	// ErrGeometryMismatch is shared with the zone package so callers can
	// test one sentinel for every geometry problem.
	ErrGeometryMismatch = zone.ErrGeometryMismatch
	ErrScoring          = errors.New("scoring failed")
)

// Engine scores a region of interest against a template. Score returns the
// maximum normalised correlation coefficient over every template position.
type Engine interface {
	Score(roi *image.RGBA, mask ColorMask, tmpl *Template) (float64, error)
}

// Result is the best template position inside a region of interest.
type Result struct {
	X, Y  int
	Score float64
}

// templateStats caches the zero-mean template and its norm.
type templateStats struct {
	centered []float64
	norm     float64
	w, h     int
}

// NCCEngine is a pure Go implementation of colour-gated grayscale template
// matching equivalent to OpenCV's TM_CCOEFF_NORMED. It is safe for
// concurrent use.
type NCCEngine struct {
	stats *lru.Cache[uint64, *templateStats]
}

const defaultTemplateCacheSize = 64

var _ Engine = (*NCCEngine)(nil)

// NewNCCEngine returns an engine caching statistics for up to cacheSize
// templates.
func NewNCCEngine(cacheSize int) *NCCEngine {
	if cacheSize <= 0 {
		cacheSize = defaultTemplateCacheSize
	}
	cache, err := lru.New[uint64, *templateStats](cacheSize)
	if err != nil {
		// only reachable with a non-positive size
		panic(err)
	}
	return &NCCEngine{stats: cache}
}

func (e *NCCEngine) Score(roi *image.RGBA, mask ColorMask, tmpl *Template) (float64, error) {
	res, err := e.Match(roi, mask, tmpl)
	if err != nil {
		return 0, err
	}
	return res.Score, nil
}

// Match runs the full pipeline and also reports where the best score was
// found, relative to the ROI origin.
func (e *NCCEngine) Match(roi *image.RGBA, mask ColorMask, tmpl *Template) (Result, error) {
	if roi == nil || tmpl == nil || tmpl.Gray == nil {
		return Result{}, fmt.Errorf("%w: nil input", ErrScoring)
	}
	rb := roi.Bounds()
	W, H := rb.Dx(), rb.Dy()
	w, h := tmpl.Width(), tmpl.Height()
	if w == 0 || h == 0 {
		return Result{}, fmt.Errorf("%w: empty template %q", ErrScoring, tmpl.Name)
	}
	if W < w || H < h {
		return Result{}, fmt.Errorf("%w: roi %dx%d smaller than template %q %dx%d", ErrGeometryMismatch, W, H, tmpl.Name, w, h)
	}
	ts := e.templateStats(tmpl)
	if ts.norm <= 1e-9 {
		return Result{}, fmt.Errorf("%w: template %q has no contrast", ErrScoring, tmpl.Name)
	}
	pre := buildGrayPrecomp(MaskedGray(roi, mask))
	return matchPrecomp(pre, ts), nil
}

func (e *NCCEngine) templateStats(tmpl *Template) *templateStats {
	if ts, ok := e.stats.Get(tmpl.id); ok {
		return ts
	}
	ts := computeTemplateStats(tmpl)
	e.stats.Add(tmpl.id, ts)
	return ts
}

func computeTemplateStats(tmpl *Template) *templateStats {
	w, h := tmpl.Width(), tmpl.Height()
	n := float64(w * h)
	var sum float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			sum += float64(tmpl.Gray.Pix[y*tmpl.Gray.Stride+x])
		}
	}
	mean := sum / n
	centered := make([]float64, w*h)
	var sq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := float64(tmpl.Gray.Pix[y*tmpl.Gray.Stride+x]) - mean
			centered[y*w+x] = c
			sq += c * c
		}
	}
	return &templateStats{centered: centered, norm: math.Sqrt(sq), w: w, h: h}
}

// MaskedGray converts roi to grayscale and zeroes every pixel whose HSV
// value falls outside mask.
func MaskedGray(roi *image.RGBA, mask ColorMask) *image.Gray {
	b := roi.Bounds()
	W, H := b.Dx(), b.Dy()
	out := image.NewGray(image.Rect(0, 0, W, H))
	for y := 0; y < H; y++ {
		row := roi.Pix[roi.PixOffset(b.Min.X, b.Min.Y+y):]
		for x := 0; x < W; x++ {
			r, g, bb := row[x*4], row[x*4+1], row[x*4+2]
			if mask.Contains(RGBToHSV(r, g, bb)) {
				out.Pix[y*out.Stride+x] = Gray(r, g, bb)
			}
		}
	}
	return out
}

// grayPrecomp stores grayscale values and their summed-area tables
// (integral images). The integrals allow O(1) window sum and variance queries.
type grayPrecomp struct {
	gray       []float64
	integral   []float64
	integralSq []float64
	W, H       int
}

func buildGrayPrecomp(img *image.Gray) *grayPrecomp {
	b := img.Bounds()
	W, H := b.Dx(), b.Dy()
	need := W * H
	p := &grayPrecomp{
		gray:       make([]float64, need),
		integral:   make([]float64, need),
		integralSq: make([]float64, need),
		W:          W,
		H:          H,
	}
	for y := 0; y < H; y++ {
		var rowSum, rowSum2 float64
		for x := 0; x < W; x++ {
			v := float64(img.Pix[y*img.Stride+x])
			off := y*W + x
			p.gray[off] = v
			rowSum += v
			rowSum2 += v * v
			if y == 0 {
				p.integral[off] = rowSum
				p.integralSq[off] = rowSum2
			} else {
				p.integral[off] = p.integral[(y-1)*W+x] + rowSum
				p.integralSq[off] = p.integralSq[(y-1)*W+x] + rowSum2
			}
		}
	}
	return p
}

// matchPrecomp evaluates the correlation coefficient at every position and
// returns the maximum. Positions where the window has no variance score 0,
// as OpenCV does.
func matchPrecomp(pre *grayPrecomp, ts *templateStats) Result {
	W := pre.W
	w, h := ts.w, ts.h
	n := float64(w * h)
	best := Result{Score: math.Inf(-1)}
	for y := 0; y <= pre.H-h; y++ {
		for x := 0; x <= W-w; x++ {
			sumF := integralSum(pre.integral, W, x, y, x+w-1, y+h-1)
			sumF2 := integralSum(pre.integralSq, W, x, y, x+w-1, y+h-1)
			var cross float64
			for ty := 0; ty < h; ty++ {
				frow := pre.gray[(y+ty)*W+x : (y+ty)*W+x+w]
				trow := ts.centered[ty*w : ty*w+w]
				for tx, c := range trow {
					cross += frow[tx] * c
				}
			}
			wndVar := (n*sumF2 - sumF*sumF) / n
			score := normalise(cross, math.Sqrt(math.Max(wndVar, 0))*ts.norm)
			if score > best.Score {
				best = Result{X: x, Y: y, Score: score}
			}
		}
	}
	return best
}

// normalise mirrors OpenCV's guard against tiny denominators.
func normalise(num, denom float64) float64 {
	switch {
	case math.Abs(num) < denom:
		return num / denom
	case math.Abs(num) < denom*1.125:
		if num > 0 {
			return 1
		}
		return -1
	default:
		return 0
	}
}

// integralSum returns the inclusive sum over rectangle [x0..x1] x [y0..y1]
// from an integral image stored in row-major order with width W.
func integralSum(I []float64, W int, x0, y0, x1, y1 int) float64 {
	if x0 > x1 || y0 > y1 {
		return 0
	}
	A := func(x, y int) float64 {
		if x < 0 || y < 0 {
			return 0
		}
		return I[y*W+x]
	}
	return A(x1, y1) - A(x0-1, y1) - A(x1, y0-1) + A(x0-1, y0-1)
}
