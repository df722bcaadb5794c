// Package visualization turns marked detection planes into viewable image
// sequences, so a run can be inspected plane by plane without the
// downstream clustering stage.
package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/singingmicelab/cellfinder/internal/models"
)

// Viewer renders the marked middle planes collected by a detection run.
type Viewer struct {
	// planes holds the marked planes in ascending z order
	planes []*models.MarkedPlane

	// somaValue is the mark written at detected centres; it is rendered at
	// full brightness
	somaValue uint32
}

// NewViewer creates a viewer over the given marked planes.
func NewViewer(planes []*models.MarkedPlane, somaValue uint32) *Viewer {
	return &Viewer{
		planes:    planes,
		somaValue: somaValue,
	}
}

// PlaneImage renders plane i as a 16-bit grayscale image. Intensities above
// the 16-bit range are clamped; soma centre marks always render at full
// brightness so they stay visible whatever the surrounding dynamic range.
func (v *Viewer) PlaneImage(i int) (image.Image, error) {
	if i < 0 || i >= len(v.planes) {
		return nil, fmt.Errorf("plane index %d out of range [0, %d)", i, len(v.planes))
	}

	plane := v.planes[i]
	img := image.NewGray16(image.Rect(0, 0, plane.Width, plane.Height))
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			value := plane.At(x, y)
			if value == v.somaValue || value > 65535 {
				value = 65535
			}
			img.SetGray16(x, y, color.Gray16{Y: uint16(value)})
		}
	}
	return img, nil
}

// SavePlane saves a rendered plane as a PNG image
func (v *Viewer) SavePlane(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	return png.Encode(file, img)
}

// SavePlaneSequence renders and saves every marked plane into outputDir,
// named by the z index the plane originated at.
func (v *Viewer) SavePlaneSequence(outputDir string) error {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for i, plane := range v.planes {
		img, err := v.PlaneImage(i)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("marked_z_%03d.png", plane.Z))
		if err := v.SavePlane(img, filename); err != nil {
			return err
		}
	}

	return nil
}
