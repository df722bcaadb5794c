package detection

import (
	"image"
	"testing"

	"github.com/singingmicelab/cellfinder/internal/models"
	"github.com/singingmicelab/cellfinder/pkg/config"
)

func scenarioConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Detection.KernelXYSize = 3
	cfg.Detection.KernelZSize = 3
	cfg.Detection.OverlapFraction = 0.5
	cfg.Detection.TileStepWidth = 10
	cfg.Detection.TileStepHeight = 10
	cfg.Detection.ThresholdValue = 100
	cfg.Detection.SomaCentreValue = 255
	cfg.Output.Verbose = false
	return cfg
}

// blockPlane builds a 10x10 plane with a 3x3 block of value 150 centred at
// (4, 4).
func blockPlane(z int) *models.Plane {
	data := make([]uint32, 100)
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			data[y*10+x] = 150
		}
	}
	return &models.Plane{Data: data, Width: 10, Height: 10, Z: z}
}

// TestDetectScansStack runs the scan loop over a synthetic five-plane stack
// and checks the z bookkeeping of the collected middle planes.
func TestDetectScansStack(t *testing.T) {
	d := NewDetector(scenarioConfig(), "")
	d.width = 10
	d.height = 10
	for z := 0; z < 5; z++ {
		d.planes = append(d.planes, blockPlane(z))
	}

	if err := d.detect(); err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	d.calculateStats()

	marked := d.MarkedPlanes()
	if len(marked) != 3 {
		t.Fatalf("Expected 3 scanned middle planes from 5 planes at depth 3, got %d", len(marked))
	}

	totalMarks := 0
	for i, plane := range marked {
		if wantZ := i + 1; plane.Z != wantZ {
			t.Errorf("Marked plane %d originates at z=%d, want %d", i, plane.Z, wantZ)
		}
		if got := plane.At(4, 4); got != 255 {
			t.Errorf("Marked plane %d: expected soma mark at (4,4), got %d", i, got)
		}
		for y := 0; y < 10; y++ {
			for x := 0; x < 10; x++ {
				v := plane.At(x, y)
				if v == 255 {
					totalMarks++
				}
				if (x < 3 || x > 5 || y < 3 || y > 5) && v != 0 {
					t.Errorf("Marked plane %d: expected 0 outside the block at (%d,%d), got %d", i, x, y, v)
				}
			}
		}
	}

	stats := d.GetStats()
	if stats.PlanesLoaded != 5 {
		t.Errorf("Expected 5 planes loaded, got %d", stats.PlanesLoaded)
	}
	if stats.PlanesScanned != 3 {
		t.Errorf("Expected 3 planes scanned, got %d", stats.PlanesScanned)
	}
	if stats.MarkedVoxels != totalMarks {
		t.Errorf("Stats report %d marks, planes hold %d", stats.MarkedVoxels, totalMarks)
	}
	if stats.MarksPerPlaneMean < 1 {
		t.Errorf("Expected at least one mark per plane on average, got %f", stats.MarksPerPlaneMean)
	}
}

// TestDetectInsufficientPlanes ensures a stack shallower than the window
// depth is rejected.
func TestDetectInsufficientPlanes(t *testing.T) {
	d := NewDetector(scenarioConfig(), "")
	d.width = 10
	d.height = 10
	d.planes = append(d.planes, blockPlane(0), blockPlane(1))

	if err := d.detect(); err == nil {
		t.Errorf("Expected error for a 2-plane stack at window depth 3")
	}
}

// TestTileActivity checks the per-tile background gate and the all-active
// fallback when no background level is configured.
func TestTileActivity(t *testing.T) {
	cfg := scenarioConfig()
	cfg.Detection.TileStepWidth = 5
	cfg.Detection.TileStepHeight = 5
	cfg.Detection.TileBackgroundLevel = 100

	d := NewDetector(cfg, "")
	d.width = 10
	d.height = 10

	// Left half bright, right half dark.
	data := make([]uint32, 100)
	for y := 0; y < 10; y++ {
		for x := 0; x < 5; x++ {
			data[y*10+x] = 200
		}
	}
	plane := &models.Plane{Data: data, Width: 10, Height: 10}

	mask := d.tileActivity(plane, 2, 2)
	want := []bool{true, false, true, false}
	for i := range want {
		if mask[i] != want[i] {
			t.Errorf("Tile %d: got %v, want %v", i, mask[i], want[i])
		}
	}

	// Without a background level every tile is active.
	cfg.Detection.TileBackgroundLevel = 0
	mask = d.tileActivity(plane, 2, 2)
	for i, active := range mask {
		if !active {
			t.Errorf("Tile %d inactive with zero background level", i)
		}
	}
}

// TestExtractNumber pins down the filename ordering key.
func TestExtractNumber(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"plane_0001.tif", 1},
		{"plane_0010.tif", 10},
		{"z12_section.png", 12},
		{"noDigits.tif", 0},
	}
	for _, c := range cases {
		if got := extractNumber(c.name); got != c.want {
			t.Errorf("extractNumber(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

// TestImageToPlane verifies the Gray16 fast path keeps the full dynamic
// range and that other image kinds convert through the gray colour model.
func TestImageToPlane(t *testing.T) {
	gray := image.NewGray16(image.Rect(0, 0, 2, 2))
	gray.Pix = []uint8{0x00, 0x00, 0xFF, 0xFF, 0x01, 0x00, 0x00, 0x64}

	plane := imageToPlane(gray)
	want := []uint32{0x0000, 0xFFFF, 0x0100, 0x0064}
	for i := range want {
		if plane[i] != want[i] {
			t.Errorf("Gray16 pixel %d: got %d, want %d", i, plane[i], want[i])
		}
	}

	gray8 := image.NewGray(image.Rect(0, 0, 1, 1))
	gray8.Pix[0] = 0x80
	plane = imageToPlane(gray8)
	// 8-bit gray scales to 16-bit via bit replication.
	if plane[0] != 0x8080 {
		t.Errorf("Gray8 pixel: got %d, want %d", plane[0], 0x8080)
	}
}
