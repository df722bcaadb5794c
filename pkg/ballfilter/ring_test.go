package ballfilter

import (
	"testing"
)

func constPlane(length int, value uint32) []uint32 {
	plane := make([]uint32, length)
	for i := range plane {
		plane[i] = value
	}
	return plane
}

// TestPlaneRingFIFO verifies the sliding-window law: after N >= depth
// appends the ring holds exactly the last depth planes, oldest to newest.
func TestPlaneRingFIFO(t *testing.T) {
	const depth = 3
	const planeLen = 4
	ring := newPlaneRing(depth, planeLen, 1)

	for n := 0; n < 7; n++ {
		ring.append(constPlane(planeLen, uint32(n)), []bool{n%2 == 0})

		if n < depth-1 {
			if ring.full() {
				t.Errorf("Ring reported full after %d appends", n+1)
			}
			continue
		}

		if !ring.full() {
			t.Fatalf("Ring not full after %d appends", n+1)
		}
		for z := 0; z < depth; z++ {
			want := uint32(n - depth + 1 + z)
			if got := ring.plane(z)[0]; got != want {
				t.Errorf("After %d appends, slot %d holds plane %d, want %d", n+1, z, got, want)
			}
			wantMask := (n-depth+1+z)%2 == 0
			if got := ring.tileMask(z)[0]; got != wantMask {
				t.Errorf("After %d appends, slot %d mask is %v, want %v", n+1, z, got, wantMask)
			}
		}
	}
}

// TestPlaneRingCopiesInput ensures append copies data into the arena, so
// callers may reuse their input buffers.
func TestPlaneRingCopiesInput(t *testing.T) {
	ring := newPlaneRing(2, 2, 1)

	plane := []uint32{10, 20}
	mask := []bool{true}
	ring.append(plane, mask)

	plane[0] = 99
	mask[0] = false

	if got := ring.plane(0)[0]; got != 10 {
		t.Errorf("Ring plane changed with caller's buffer: got %d, want 10", got)
	}
	if !ring.tileMask(0)[0] {
		t.Errorf("Ring mask changed with caller's buffer")
	}
}

// TestPlaneRingPairing checks that plane and mask slots rotate together.
func TestPlaneRingPairing(t *testing.T) {
	const depth = 3
	ring := newPlaneRing(depth, 1, 1)

	for n := 0; n < 10; n++ {
		// The mask encodes the same sequence number as the plane.
		ring.append([]uint32{uint32(n)}, []bool{n%3 == 0})
	}

	for z := 0; z < depth; z++ {
		n := int(ring.plane(z)[0])
		if got, want := ring.tileMask(z)[0], n%3 == 0; got != want {
			t.Errorf("Slot %d: plane %d paired with mask %v, want %v", z, n, got, want)
		}
	}
}
