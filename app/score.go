package app

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"

	"github.com/soocke/arrow-bot-go/debug"
	"github.com/soocke/arrow-bot-go/domain/detector"
	"github.com/soocke/arrow-bot-go/domain/match"
	"github.com/soocke/arrow-bot-go/domain/zone"
)

// ZoneScore is the offline result for one zone.
type ZoneScore struct {
	Zone    string
	Key     string
	Score   float64
	X, Y    int
	Located bool
	Pressed bool
	Err     error
}

// ScoreImage scores every zone against a still image, either a full-screen
// screenshot containing the capture region or a capture of the region
// itself. When dumpDir is set the masked grayscale of each zone is written
// there.
func ScoreImage(c *AppContainer, img image.Image, dumpDir string) (detector.Plan, []ZoneScore, error) {
	plan, err := c.Detector.Prepare()
	if err != nil {
		return plan, nil, err
	}
	frame, err := regionFrame(img, plan.Region)
	if err != nil {
		return plan, nil, err
	}
	out := make([]ZoneScore, 0, len(plan.Workers))
	for _, wc := range plan.Workers {
		zs := ZoneScore{Zone: wc.Zone.Name, Key: wc.Zone.Key}
		roi, err := zone.CopyROI(nil, frame, wc.Offset)
		if err != nil {
			zs.Err = err
			out = append(out, zs)
			continue
		}
		if ncc, ok := c.Engine.(*match.NCCEngine); ok {
			res, err := ncc.Match(roi, wc.Mask, wc.Template)
			zs.Score, zs.X, zs.Y, zs.Located, zs.Err = res.Score, res.X, res.Y, err == nil, err
		} else {
			zs.Score, zs.Err = c.Engine.Score(roi, wc.Mask, wc.Template)
		}
		zs.Pressed = zs.Err == nil && zs.Score >= wc.Threshold
		if dumpDir != "" {
			masked := match.MaskedGray(roi, wc.Mask)
			b := masked.Bounds()
			if _, err := debug.SavePNG(dumpDir, wc.Zone.Name+"_masked", debug.ScaleToFit(masked, b.Dx()*4, b.Dy()*4)); err != nil && c.Logger != nil {
				c.Logger.Warn("dump masked roi", "zone", wc.Zone.Name, "error", err)
			}
		}
		out = append(out, zs)
	}
	return plan, out, nil
}

// regionFrame extracts the capture region from img as an opaque RGBA frame
// anchored at the origin.
func regionFrame(img image.Image, region zone.Region) (*image.RGBA, error) {
	b := img.Bounds()
	r := region.Rect()
	var src image.Image
	switch {
	case b.Dx() == r.Dx() && b.Dy() == r.Dy():
		src = img
	case r.In(b):
		src = imaging.Crop(img, r)
	default:
		return nil, fmt.Errorf("%w: image %v holds neither the capture region %v nor a capture of it", zone.ErrGeometryMismatch, b, r)
	}
	sb := src.Bounds()
	frame := image.NewRGBA(image.Rect(0, 0, sb.Dx(), sb.Dy()))
	draw.Draw(frame, frame.Bounds(), src, sb.Min, draw.Src)
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 0xFF
	}
	return frame, nil
}
