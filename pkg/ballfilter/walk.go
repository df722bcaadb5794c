package ballfilter

// earlyExitFraction is the fraction of the overlap threshold that must have
// accumulated by the time a cube scan reaches the z slot just past the
// middle plane; below it the candidate is abandoned without scanning the
// remaining slots. Ported unchanged from the reference pipeline.
const earlyExitFraction = 0.4

// markSomaCentres scans every candidate centre in the current window and
// writes somaCentreValue into the middle plane wherever the kernel overlap
// exceeds overlapThreshold.
//
// Candidates are visited row by row, y outer and x inner, and matches are
// written into the live middle plane immediately. Since somaCentreValue is
// at least thresholdValue, a fresh mark contributes to the overlap score of
// every later candidate whose cube covers it. That forward propagation is
// part of the algorithm's contract; do not scan against a snapshot.
func markSomaCentres(planes [][]uint32, middleTiles []bool, width int,
	tilesX, tileStepW, tileStepH int, maxWidth, maxHeight int,
	kern *Kernel, middleZ int, overlapThreshold float64,
	thresholdValue, somaCentreValue uint32) {

	radius := kern.XYSize / 2
	middle := planes[middleZ]
	for y := 0; y < maxHeight; y++ {
		for x := 0; x < maxWidth; x++ {
			centreX := x + radius
			centreY := y + radius
			if !tileActive(middleTiles, tilesX, tileStepW, tileStepH, centreX, centreY) {
				continue
			}
			if cubeOverlaps(planes, width, x, y, kern, overlapThreshold, thresholdValue) {
				middle[centreY*width+centreX] = somaCentreValue
			}
		}
	}
}

// tileActive reports whether the tile containing pixel (x, y) is inside the
// region of interest on the window's middle plane.
func tileActive(tiles []bool, tilesX, tileStepW, tileStepH, x, y int) bool {
	return tiles[(y/tileStepH)*tilesX+x/tileStepW]
}

// cubeOverlaps scores the kernel-sized sub-cube anchored at (x0, y0): every
// voxel at or above thresholdValue contributes the kernel weight at the
// same relative offset. Z slots are scanned oldest to newest; one slot past
// the middle the scan gives up early if the running total is still below
// earlyExitFraction of the threshold. The centre matches when the total
// strictly exceeds overlapThreshold.
func cubeOverlaps(planes [][]uint32, width, x0, y0 int, kern *Kernel,
	overlapThreshold float64, thresholdValue uint32) bool {

	xy := kern.XYSize
	checkpoint := len(planes)/2 + 1
	earlyThreshold := earlyExitFraction * overlapThreshold

	var overlap float64
	for z := 0; z < len(planes); z++ {
		if z == checkpoint && overlap < earlyThreshold {
			return false
		}
		plane := planes[z]
		kbase := z * xy * xy
		for ky := 0; ky < xy; ky++ {
			start := (y0+ky)*width + x0
			row := plane[start : start+xy]
			krow := kern.weights[kbase+ky*xy : kbase+(ky+1)*xy]
			for kx, v := range row {
				if v >= thresholdValue {
					overlap += krow[kx]
				}
			}
		}
	}
	return overlap > overlapThreshold
}
