package match

import (
	"fmt"
	"math"
)

// HSV is an 8-bit hue/saturation/value triple using the OpenCV convention:
// H in [0,179] (degrees halved), S and V in [0,255].
type HSV struct {
	H, S, V uint8
}

// ColorMask selects pixels whose HSV value lies inside [Lower, Upper] on
// every channel, bounds inclusive.
type ColorMask struct {
	Lower HSV
	Upper HSV
}

// NewColorMask builds a mask from two H,S,V triples.
func NewColorMask(lower, upper [3]uint8) ColorMask {
	return ColorMask{
		Lower: HSV{H: lower[0], S: lower[1], V: lower[2]},
		Upper: HSV{H: upper[0], S: upper[1], V: upper[2]},
	}
}

// Validate rejects masks that can never select a pixel.
func (m ColorMask) Validate() error {
	if m.Lower.H > m.Upper.H || m.Lower.S > m.Upper.S || m.Lower.V > m.Upper.V {
		return fmt.Errorf("color mask lower %v exceeds upper %v", m.Lower, m.Upper)
	}
	return nil
}

// Contains reports whether c lies inside the mask.
func (m ColorMask) Contains(c HSV) bool {
	return c.H >= m.Lower.H && c.H <= m.Upper.H &&
		c.S >= m.Lower.S && c.S <= m.Upper.S &&
		c.V >= m.Lower.V && c.V <= m.Upper.V
}

// Fixed-point tables matching OpenCV's 8-bit RGB->HSV conversion.
const hsvShift = 12

var (
	sdivTable [256]int32
	hdivTable [256]int32
)

func init() {
	for i := 1; i < 256; i++ {
		sdivTable[i] = int32(math.Round(float64(255<<hsvShift) / float64(i)))
		hdivTable[i] = int32(math.Round(float64(180<<hsvShift) / (6 * float64(i))))
	}
}

// RGBToHSV converts one 8-bit colour to HSV with the same integer rounding
// as OpenCV's COLOR_BGR2HSV.
func RGBToHSV(r, g, b uint8) HSV {
	ri, gi, bi := int32(r), int32(g), int32(b)
	v := max(ri, gi, bi)
	vmin := min(ri, gi, bi)
	diff := v - vmin

	var vr, vg int32
	if v == ri {
		vr = -1
	}
	if v == gi {
		vg = -1
	}
	s := (diff*sdivTable[v] + (1 << (hsvShift - 1))) >> hsvShift
	h := (vr & (gi - bi)) + (^vr & ((vg & (bi - ri + 2*diff)) + (^vg & (ri - gi + 4*diff))))
	h = (h*hdivTable[diff] + (1 << (hsvShift - 1))) >> hsvShift
	if h < 0 {
		h += 180
	}
	return HSV{H: uint8(h), S: uint8(s), V: uint8(v)}
}

// Gray converts one 8-bit colour to luma with OpenCV's COLOR_BGR2GRAY
// fixed-point BT.601 weights.
func Gray(r, g, b uint8) uint8 {
	const (
		yuvShift = 14
		r2y      = 4899
		g2y      = 9617
		b2y      = 1868
	)
	return uint8((uint32(r)*r2y + uint32(g)*g2y + uint32(b)*b2y + (1 << (yuvShift - 1))) >> yuvShift)
}
