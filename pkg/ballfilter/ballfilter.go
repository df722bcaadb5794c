package ballfilter

import (
	"fmt"
)

// Params configures a BallFilter.
type Params struct {
	// PlaneWidth and PlaneHeight are the dimensions of each incoming plane.
	PlaneWidth  int
	PlaneHeight int

	// KernelXYSize is the diameter of the spherical kernel in x and y.
	KernelXYSize int

	// KernelZSize is the kernel diameter in z. It also sets the depth of
	// the sliding plane window.
	KernelZSize int

	// OverlapFraction is the fraction of the kernel mass that has to fall
	// on high-intensity voxels for a centre to be marked. Must lie in
	// (0, 1].
	OverlapFraction float64

	// TileStepWidth and TileStepHeight give the tile granularity of the
	// inside-tissue mask produced by the 2D filtering stage.
	TileStepWidth  int
	TileStepHeight int

	// ThresholdValue is the intensity at or above which a voxel counts as
	// high.
	ThresholdValue uint32

	// SomaCentreValue is written into the middle plane at detected centres.
	// It must be at least ThresholdValue, so fresh marks feed the overlap
	// scores of later candidates within the same pass, and should be
	// distinguishable from ordinary intensities downstream.
	SomaCentreValue uint32

	// KernelOversample is the supersampling factor for kernel construction.
	// Zero selects DefaultOversample.
	KernelOversample int

	// StrictValidation makes Append fail with a ShapeMismatchError on
	// wrongly sized planes or masks. When disabled, mismatched input is
	// undefined behaviour, matching the reference pipeline's debug switch.
	StrictValidation bool
}

// BallFilter slides a fuzzy spherical kernel across a depth-limited window
// of intensity planes and marks voxels in the window's middle plane that
// have enough high-intensity overlap with the kernel.
//
// A BallFilter is not safe for concurrent use. The expected calling
// sequence per plane is Append, then Walk once Ready reports true, then
// MiddlePlane to collect the finalised detections for that window position.
// Parallelism, where wanted, belongs outside: run independent filters over
// disjoint chunks of the volume.
type BallFilter struct {
	params Params
	kernel *Kernel

	// overlapThreshold is OverlapFraction times the kernel mass, fixed at
	// construction.
	overlapThreshold float64

	ring *planeRing

	tilesX  int
	tilesY  int
	middleZ int

	// maxWidth and maxHeight bound candidate anchors to the tile-covered
	// extent minus the kernel diameter, which also keeps a half-kernel
	// border strip out of evaluation entirely.
	maxWidth  int
	maxHeight int

	// window is scratch reused by Walk to view the ring slots oldest to
	// newest without allocating per call.
	window [][]uint32
}

// NewBallFilter validates params, builds the kernel and allocates the plane
// window. The kernel and the derived overlap threshold never change for the
// lifetime of the filter.
func NewBallFilter(params *Params) (*BallFilter, error) {
	if params.PlaneWidth < 1 || params.PlaneHeight < 1 {
		return nil, fmt.Errorf("ballfilter: plane dimensions must be positive, got %dx%d",
			params.PlaneWidth, params.PlaneHeight)
	}
	if params.KernelXYSize < 1 || params.KernelZSize < 1 {
		return nil, fmt.Errorf("ballfilter: kernel dimensions must be positive, got %dx%d",
			params.KernelXYSize, params.KernelZSize)
	}
	if params.OverlapFraction <= 0 || params.OverlapFraction > 1 {
		return nil, fmt.Errorf("ballfilter: overlap fraction must be in (0, 1], got %g",
			params.OverlapFraction)
	}
	if params.TileStepWidth < 1 || params.TileStepHeight < 1 {
		return nil, fmt.Errorf("ballfilter: tile steps must be positive, got %dx%d",
			params.TileStepWidth, params.TileStepHeight)
	}
	if params.SomaCentreValue < params.ThresholdValue {
		return nil, fmt.Errorf("ballfilter: soma centre value %d below threshold value %d",
			params.SomaCentreValue, params.ThresholdValue)
	}

	oversample := params.KernelOversample
	if oversample == 0 {
		oversample = DefaultOversample
	}
	kernel, err := BuildKernel(params.KernelXYSize, params.KernelZSize, oversample)
	if err != nil {
		return nil, err
	}

	tilesX := (params.PlaneWidth + params.TileStepWidth - 1) / params.TileStepWidth
	tilesY := (params.PlaneHeight + params.TileStepHeight - 1) / params.TileStepHeight

	// The covered extent cannot reach past the plane itself.
	coveredW := tilesX * params.TileStepWidth
	if coveredW > params.PlaneWidth {
		coveredW = params.PlaneWidth
	}
	coveredH := tilesY * params.TileStepHeight
	if coveredH > params.PlaneHeight {
		coveredH = params.PlaneHeight
	}
	maxWidth := coveredW - params.KernelXYSize
	if maxWidth < 0 {
		maxWidth = 0
	}
	maxHeight := coveredH - params.KernelXYSize
	if maxHeight < 0 {
		maxHeight = 0
	}

	return &BallFilter{
		params:           *params,
		kernel:           kernel,
		overlapThreshold: params.OverlapFraction * kernel.Sum(),
		ring: newPlaneRing(params.KernelZSize,
			params.PlaneWidth*params.PlaneHeight, tilesX*tilesY),
		tilesX:    tilesX,
		tilesY:    tilesY,
		middleZ:   params.KernelZSize / 2,
		maxWidth:  maxWidth,
		maxHeight: maxHeight,
		window:    make([][]uint32, params.KernelZSize),
	}, nil
}

// Append adds a new intensity plane and its tile mask to the window. The
// plane is row-major with PlaneWidth*PlaneHeight entries; the mask is
// row-major with one entry per tile. While the window is filling the plane
// occupies the next free slot; afterwards each append evicts the oldest
// plane in O(1).
func (f *BallFilter) Append(plane []uint32, tiles []bool) error {
	if f.params.StrictValidation {
		if len(plane) != f.ring.planeLen {
			return &ShapeMismatchError{What: "plane", Want: f.ring.planeLen, Got: len(plane)}
		}
		if len(tiles) != f.ring.tileLen {
			return &ShapeMismatchError{What: "tile mask", Want: f.ring.tileLen, Got: len(tiles)}
		}
	}
	f.ring.append(plane, tiles)
	return nil
}

// Ready reports whether enough planes have been appended to run Walk.
func (f *BallFilter) Ready() bool {
	return f.ring.full()
}

// Walk scans the current window and marks detected soma centres in place in
// the middle plane. It fails with ErrNotReady before the window is full.
func (f *BallFilter) Walk() error {
	if !f.Ready() {
		return ErrNotReady
	}
	for z := 0; z < f.params.KernelZSize; z++ {
		f.window[z] = f.ring.plane(z)
	}
	markSomaCentres(f.window, f.ring.tileMask(f.middleZ), f.params.PlaneWidth,
		f.tilesX, f.params.TileStepWidth, f.params.TileStepHeight,
		f.maxWidth, f.maxHeight,
		f.kernel, f.middleZ, f.overlapThreshold,
		f.params.ThresholdValue, f.params.SomaCentreValue)
	return nil
}

// MiddlePlane returns a copy of the plane in the middle of the window,
// whose detections are finalised for the current window position.
func (f *BallFilter) MiddlePlane() []uint32 {
	plane := make([]uint32, f.ring.planeLen)
	copy(plane, f.ring.plane(f.middleZ))
	return plane
}

// MiddleZOffset is the offset of the middle plane within the window. The
// plane returned by MiddlePlane after appending plane i originates at
// z index i - MiddleZOffset.
func (f *BallFilter) MiddleZOffset() int {
	return f.middleZ
}

// Kernel exposes the built spherical kernel.
func (f *BallFilter) Kernel() *Kernel {
	return f.kernel
}

// OverlapThreshold returns the precomputed score a scanned cube must exceed
// for its centre to be marked.
func (f *BallFilter) OverlapThreshold() float64 {
	return f.overlapThreshold
}

// TileCounts returns the tile grid dimensions implied by the plane size and
// tile steps, which is the expected shape of every appended tile mask.
func (f *BallFilter) TileCounts() (tilesX, tilesY int) {
	return f.tilesX, f.tilesY
}
