package ballfilter

// planeRing is a fixed-depth sliding window over the most recently appended
// intensity planes and their paired tile masks. Slots are preallocated once;
// after the window fills, each append overwrites the oldest slot and rotates
// a head offset, so no plane data is ever copied between slots. Intensity
// and tile slots at the same logical z always hold data from the same
// source plane.
type planeRing struct {
	depth    int
	planeLen int
	tileLen  int

	// planes and tiles are the backing arena, in physical slot order.
	planes [][]uint32
	tiles  [][]bool

	// head is the physical slot holding the oldest plane.
	head int

	// fill is the number of planes appended so far, capped at depth.
	fill int
}

func newPlaneRing(depth, planeLen, tileLen int) *planeRing {
	r := &planeRing{
		depth:    depth,
		planeLen: planeLen,
		tileLen:  tileLen,
		planes:   make([][]uint32, depth),
		tiles:    make([][]bool, depth),
	}
	for i := 0; i < depth; i++ {
		r.planes[i] = make([]uint32, planeLen)
		r.tiles[i] = make([]bool, tileLen)
	}
	return r
}

// append copies plane and tiles into the window. While the window is still
// filling, the data lands in the next free slot; once full, it replaces the
// oldest slot and the head offset advances by one.
func (r *planeRing) append(plane []uint32, tiles []bool) {
	slot := r.fill
	if r.full() {
		slot = r.head
		r.head = (r.head + 1) % r.depth
	} else {
		r.fill++
	}
	copy(r.planes[slot], plane)
	copy(r.tiles[slot], tiles)
}

func (r *planeRing) full() bool {
	return r.fill == r.depth
}

// plane returns the live backing slice for logical slot z, where slot 0 is
// the oldest plane in the window. Writes through the returned slice stay in
// the window as it slides.
func (r *planeRing) plane(z int) []uint32 {
	return r.planes[(r.head+z)%r.depth]
}

// tileMask returns the live tile mask for logical slot z.
func (r *planeRing) tileMask(z int) []bool {
	return r.tiles[(r.head+z)%r.depth]
}
