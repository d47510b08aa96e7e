package assets

import (
	"bytes"
	"embed"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// arrowFS holds grayscale arrow templates: the masked luma of a saturated
// red arrow on a black background.
//
//go:embed arrow_*.png
var arrowFS embed.FS

// ArrowNames lists the embedded templates.
var ArrowNames = []string{"up", "down", "left", "right"}

// HasArrow reports whether name has an embedded template.
func HasArrow(name string) bool {
	_, err := arrowFS.ReadFile(arrowFile(name))
	return err == nil
}

// ArrowTemplate decodes the embedded template for name ("up", "down",
// "left" or "right").
func ArrowTemplate(name string) (image.Image, error) {
	data, err := arrowFS.ReadFile(arrowFile(name))
	if err != nil {
		return nil, fmt.Errorf("no embedded arrow template %q", name)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("embedded arrow template %q is empty", name)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

func arrowFile(name string) string {
	return "arrow_" + strings.ToLower(strings.TrimSpace(name)) + ".png"
}
