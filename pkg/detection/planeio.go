package detection

import (
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	// Register the decoders for the supported plane formats. Microscopy
	// stacks normally arrive as 16-bit grayscale TIFF.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/tiff"

	"github.com/singingmicelab/cellfinder/internal/models"
)

// loadPlanes loads and sorts the input planes from the detector's input
// directory. Files are filtered by extension, sorted by the numeric part of
// their filenames so the stack keeps its anatomical z order, and decoded
// into row-major intensity planes. All planes must share the dimensions of
// the first one.
func (d *Detector) loadPlanes() error {
	entries, err := os.ReadDir(d.inputDir)
	if err != nil {
		return err
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(entry.Name())) {
		case ".tif", ".tiff", ".png", ".jpg", ".jpeg":
			imageFiles = append(imageFiles, entry.Name())
		}
	}
	if len(imageFiles) == 0 {
		return fmt.Errorf("no plane images found in input directory")
	}

	// Sort files by the numbers embedded in their names; lexicographic
	// order would interleave plane_2 and plane_10.
	sort.Slice(imageFiles, func(i, j int) bool {
		return extractNumber(imageFiles[i]) < extractNumber(imageFiles[j])
	})

	for z, filename := range imageFiles {
		img, err := loadImage(filepath.Join(d.inputDir, filename))
		if err != nil {
			return fmt.Errorf("failed to load plane %s: %w", filename, err)
		}

		bounds := img.Bounds()
		if len(d.planes) == 0 {
			d.width = bounds.Dx()
			d.height = bounds.Dy()
		} else if bounds.Dx() != d.width || bounds.Dy() != d.height {
			return fmt.Errorf("plane %s is %dx%d, expected %dx%d",
				filename, bounds.Dx(), bounds.Dy(), d.width, d.height)
		}

		d.planes = append(d.planes, &models.Plane{
			Data:     imageToPlane(img),
			Width:    d.width,
			Height:   d.height,
			Z:        z,
			Filename: filename,
		})
	}

	if d.cfg.Output.Verbose {
		fmt.Printf("Loaded %d planes with dimensions %dx%d\n", len(d.planes), d.width, d.height)
	}
	return nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes a single plane image from disk
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", filepath.Base(path), err)
	}
	return img, nil
}

// imageToPlane converts a decoded image into a row-major intensity plane.
// Gray16 input keeps its full dynamic range; anything else goes through the
// Gray16 colour model.
func imageToPlane(img image.Image) []uint32 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	plane := make([]uint32, width*height)

	if gray, ok := img.(*image.Gray16); ok {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				plane[y*width+x] = uint32(gray.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return plane
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.Gray16Model.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
			plane[y*width+x] = uint32(g.Y)
		}
	}
	return plane
}
