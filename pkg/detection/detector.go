// Package detection drives the volumetric stage of the cell detection
// pipeline: it loads a z-stack of intensity planes, feeds them through the
// spherical ball filter in ascending z order, and collects each finalised
// middle plane together with the z index it originated at. Grouping the
// marked voxels into cell candidates is left to the downstream stage.
package detection

import (
	"fmt"

	"gonum.org/v1/gonum/stat"

	"github.com/singingmicelab/cellfinder/internal/models"
	"github.com/singingmicelab/cellfinder/pkg/ballfilter"
	"github.com/singingmicelab/cellfinder/pkg/config"
)

// DetectionStats holds the summary metrics for a detection run.
type DetectionStats struct {
	// PlanesLoaded is the number of planes read from the input stack.
	PlanesLoaded int

	// PlanesScanned is the number of middle planes finalised by the filter.
	// It is PlanesLoaded minus one window depth plus one, when the stack is
	// deep enough.
	PlanesScanned int

	// MarkedVoxels is the total number of soma centre marks across all
	// scanned planes.
	MarkedVoxels int

	// MarksPerPlaneMean and MarksPerPlaneStdDev summarise how the marks
	// distribute over the scanned planes.
	MarksPerPlaneMean   float64
	MarksPerPlaneStdDev float64
}

// Detector runs the ball filter over an image stack loaded from disk.
//
// The processing sequence per plane follows the filter's contract: append
// the plane and its tile mask, and once the window is full, walk it and
// pull the middle plane, whose detections are final at that point.
type Detector struct {
	// cfg stores the detection configuration
	cfg *config.Config

	// inputDir is the directory holding the plane images, one file per z
	inputDir string

	// planes holds the loaded intensity planes in ascending z order
	planes []*models.Plane

	// marked collects the finalised middle planes
	marked []*models.MarkedPlane

	// width and height store the dimensions of the input planes
	width  int
	height int

	// stats stores the summary metrics after a run
	stats DetectionStats
}

// NewDetector creates a new detector instance reading planes from inputDir
// with the provided configuration.
func NewDetector(cfg *config.Config, inputDir string) *Detector {
	return &Detector{
		cfg:      cfg,
		inputDir: inputDir,
	}
}

// Run executes the detection pipeline: load the stack, scan it, and compute
// the summary statistics.
func (d *Detector) Run() error {
	if d.cfg.Output.Verbose {
		fmt.Println("Step 1: Loading plane stack...")
	}
	if err := d.loadPlanes(); err != nil {
		return fmt.Errorf("failed to load planes: %w", err)
	}

	if d.cfg.Output.Verbose {
		fmt.Println("Step 2: Scanning for soma centres...")
	}
	if err := d.detect(); err != nil {
		return fmt.Errorf("failed to scan volume: %w", err)
	}

	d.calculateStats()
	return nil
}

// detect builds the ball filter and streams the loaded planes through it.
func (d *Detector) detect() error {
	depth := d.cfg.Detection.KernelZSize
	if len(d.planes) < depth {
		return fmt.Errorf("insufficient planes for a %d-deep window, got %d", depth, len(d.planes))
	}

	params, err := d.cfg.DetectorParams(d.width, d.height)
	if err != nil {
		return err
	}
	filter, err := ballfilter.NewBallFilter(params)
	if err != nil {
		return err
	}

	tilesX, tilesY := filter.TileCounts()
	for i, plane := range d.planes {
		mask := d.tileActivity(plane, tilesX, tilesY)
		if err := filter.Append(plane.Data, mask); err != nil {
			return fmt.Errorf("failed to append plane %d: %w", i, err)
		}
		if !filter.Ready() {
			continue
		}

		if err := filter.Walk(); err != nil {
			return fmt.Errorf("failed to scan window at plane %d: %w", i, err)
		}
		d.marked = append(d.marked, &models.MarkedPlane{
			Data:   filter.MiddlePlane(),
			Width:  d.width,
			Height: d.height,
			Z:      i - filter.MiddleZOffset(),
		})
	}

	if d.cfg.Output.Verbose {
		fmt.Printf("Scanned %d window positions over %d planes\n", len(d.marked), len(d.planes))
	}
	return nil
}

// tileActivity builds the coarse inside-tissue mask for one plane: a tile
// is active when its mean intensity exceeds the configured background
// level. A zero level keeps the whole plane active, which is the stand-in
// for an upstream mask when none is available.
func (d *Detector) tileActivity(plane *models.Plane, tilesX, tilesY int) []bool {
	stepW := d.cfg.Detection.TileStepWidth
	stepH := d.cfg.Detection.TileStepHeight
	level := d.cfg.Detection.TileBackgroundLevel

	mask := make([]bool, tilesX*tilesY)
	if level <= 0 {
		for i := range mask {
			mask[i] = true
		}
		return mask
	}

	for ty := 0; ty < tilesY; ty++ {
		for tx := 0; tx < tilesX; tx++ {
			var total float64
			var count int
			for y := ty * stepH; y < (ty+1)*stepH && y < plane.Height; y++ {
				for x := tx * stepW; x < (tx+1)*stepW && x < plane.Width; x++ {
					total += float64(plane.At(x, y))
					count++
				}
			}
			if count > 0 && total/float64(count) > level {
				mask[ty*tilesX+tx] = true
			}
		}
	}
	return mask
}

// calculateStats summarises the run: total marks and their distribution
// over the scanned planes.
func (d *Detector) calculateStats() {
	d.stats.PlanesLoaded = len(d.planes)
	d.stats.PlanesScanned = len(d.marked)

	if len(d.marked) == 0 {
		return
	}

	somaValue := d.cfg.Detection.SomaCentreValue
	counts := make([]float64, len(d.marked))
	for i, plane := range d.marked {
		n := 0
		for _, v := range plane.Data {
			if v == somaValue {
				n++
			}
		}
		counts[i] = float64(n)
		d.stats.MarkedVoxels += n
	}

	d.stats.MarksPerPlaneMean = stat.Mean(counts, nil)
	if len(counts) > 1 {
		d.stats.MarksPerPlaneStdDev = stat.StdDev(counts, nil)
	}
}

// MarkedPlanes returns the finalised middle planes collected during the
// run, in ascending z order.
func (d *Detector) MarkedPlanes() []*models.MarkedPlane {
	return d.marked
}

// GetStats returns the summary metrics of the last run.
func (d *Detector) GetStats() DetectionStats {
	return d.stats
}

// PlaneDimensions returns the width and height of the loaded planes.
func (d *Detector) PlaneDimensions() (width, height int) {
	return d.width, d.height
}
