// Package ballfilter implements the volumetric stage of the cell detection
// pipeline: a fuzzy spherical weighting kernel is slid across a moving
// window of intensity planes, and voxels in the window's middle plane whose
// neighbourhood carries enough high-intensity kernel mass are marked as
// candidate soma centres. The 2D per-plane filtering that produces the
// intensity planes and tile masks, and the clustering of marked voxels into
// cells, are handled by the surrounding pipeline stages.
package ballfilter

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// DefaultOversample is the linear supersampling factor used when building
// the spherical kernel. The sphere is rendered as a binary occupancy volume
// at this multiple of the target resolution and then box-averaged back down,
// which leaves fractional weights along the sphere surface.
const DefaultOversample = 7

// Kernel is the fuzzy spherical weight mask scored against local intensity.
// It is immutable after construction.
type Kernel struct {
	// XYSize is the kernel diameter in the x and y dimensions.
	XYSize int

	// ZSize is the kernel diameter in z, equal to the number of planes in
	// the sliding window used to filter the middle plane of the stack.
	ZSize int

	// weights holds the kernel values in z-major order:
	// weights[(z*XYSize+y)*XYSize+x].
	weights []float64

	sum float64
}

// At returns the kernel weight at (x, y, z).
func (k *Kernel) At(x, y, z int) float64 {
	return k.weights[(z*k.XYSize+y)*k.XYSize+x]
}

// Sum returns the total kernel mass.
func (k *Kernel) Sum() float64 {
	return k.sum
}

// BuildKernel constructs the fuzzy spherical kernel:
//
//  1. A binary sphere is rendered into an occupancy grid at oversample
//     times the requested resolution, centred on the grid, with radius
//     equal to half the oversampled xy extent. The radius derives from the
//     xy dimension only, even when the z diameter differs; the resulting
//     kernel is a sphere stretched or squashed along z.
//  2. The occupancy grid is downsampled by non-overlapping box averaging
//     with bin size oversample along all three axes.
//
// BuildKernel fails with a DimensionMismatchError if the downsampled z
// extent does not come out equal to zSize.
func BuildKernel(xySize, zSize, oversample int) (*Kernel, error) {
	if xySize < 1 || zSize < 1 {
		return nil, fmt.Errorf("ballfilter: kernel sizes must be positive, got %dx%dx%d", xySize, xySize, zSize)
	}
	if oversample < 1 {
		return nil, fmt.Errorf("ballfilter: kernel oversample must be positive, got %d", oversample)
	}

	ox := oversample * xySize
	oz := oversample * zSize

	// Occupancy test: a grid point is inside the sphere when its distance
	// to the centre is at most the radius.
	centreX := float64(ox / 2)
	centreY := float64(ox / 2)
	centreZ := float64(oz / 2)
	radius := float64(ox) / 2.0
	radiusSq := radius * radius

	occupancy := make([]float64, ox*ox*oz)
	for z := 0; z < oz; z++ {
		dz := float64(z) - centreZ
		for y := 0; y < ox; y++ {
			dy := float64(y) - centreY
			base := (z*ox + y) * ox
			for x := 0; x < ox; x++ {
				dx := float64(x) - centreX
				if dx*dx+dy*dy+dz*dz <= radiusSq {
					occupancy[base+x] = 1.0
				}
			}
		}
	}

	if oz/oversample != zSize {
		return nil, &DimensionMismatchError{Axis: "z", Want: zSize, Got: oz / oversample}
	}

	weights := make([]float64, xySize*xySize*zSize)
	binInv := 1.0 / float64(oversample*oversample*oversample)
	for bz := 0; bz < zSize; bz++ {
		for by := 0; by < xySize; by++ {
			for bx := 0; bx < xySize; bx++ {
				var total float64
				for dz := 0; dz < oversample; dz++ {
					z := bz*oversample + dz
					for dy := 0; dy < oversample; dy++ {
						y := by*oversample + dy
						row := occupancy[(z*ox+y)*ox+bx*oversample:]
						for dx := 0; dx < oversample; dx++ {
							total += row[dx]
						}
					}
				}
				weights[(bz*xySize+by)*xySize+bx] = total * binInv
			}
		}
	}

	return &Kernel{
		XYSize:  xySize,
		ZSize:   zSize,
		weights: weights,
		sum:     floats.Sum(weights),
	}, nil
}
