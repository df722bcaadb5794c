package visualization

import (
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/singingmicelab/cellfinder/internal/models"
)

func testPlanes() []*models.MarkedPlane {
	planes := make([]*models.MarkedPlane, 2)
	for i := range planes {
		data := make([]uint32, 16)
		data[0] = 100
		data[5] = 255 // soma mark
		data[9] = 70000
		planes[i] = &models.MarkedPlane{Data: data, Width: 4, Height: 4, Z: i + 7}
	}
	return planes
}

// TestPlaneImage checks the grayscale rendering: ordinary intensities pass
// through, marks and out-of-range values render at full brightness.
func TestPlaneImage(t *testing.T) {
	viewer := NewViewer(testPlanes(), 255)

	img, err := viewer.PlaneImage(0)
	if err != nil {
		t.Fatalf("PlaneImage failed: %v", err)
	}

	bounds := img.Bounds()
	if bounds.Dx() != 4 || bounds.Dy() != 4 {
		t.Fatalf("Expected 4x4 image, got %dx%d", bounds.Dx(), bounds.Dy())
	}

	if got := img.At(0, 0).(color.Gray16).Y; got != 100 {
		t.Errorf("Expected intensity 100 at (0,0), got %d", got)
	}
	if got := img.At(1, 1).(color.Gray16).Y; got != 65535 {
		t.Errorf("Expected soma mark at full brightness, got %d", got)
	}
	if got := img.At(1, 2).(color.Gray16).Y; got != 65535 {
		t.Errorf("Expected out-of-range value clamped to 65535, got %d", got)
	}
	if got := img.At(3, 3).(color.Gray16).Y; got != 0 {
		t.Errorf("Expected 0 background, got %d", got)
	}

	if _, err := viewer.PlaneImage(5); err == nil {
		t.Errorf("Expected error for out-of-range plane index")
	}
}

// TestSavePlaneSequence writes the sequence and checks the files are named
// by originating z index.
func TestSavePlaneSequence(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "marked")
	viewer := NewViewer(testPlanes(), 255)

	if err := viewer.SavePlaneSequence(dir); err != nil {
		t.Fatalf("SavePlaneSequence failed: %v", err)
	}

	for _, name := range []string{"marked_z_007.png", "marked_z_008.png"} {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			t.Errorf("Expected %s to exist: %v", name, err)
			continue
		}
		if info.Size() == 0 {
			t.Errorf("Expected %s to be non-empty", name)
		}
	}
}
