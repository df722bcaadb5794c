package models

// Plane represents a single intensity plane of the image stack with metadata
type Plane struct {
	// Data is the plane's intensity values in row-major order
	Data []uint32

	// Width and Height are the plane dimensions in voxels
	Width  int
	Height int

	// Z is the position of this plane in the stack
	Z int

	// Filename is the original filename of the plane image
	Filename string
}

// MarkedPlane is a middle plane retrieved after a scan pass, carrying soma
// centre marks alongside the original intensities
type MarkedPlane struct {
	// Data is the marked plane in row-major order
	Data []uint32

	// Width and Height are the plane dimensions in voxels
	Width  int
	Height int

	// Z is the z index the plane originated at in the input stack
	Z int
}

// At returns the intensity at (x, y)
func (p *Plane) At(x, y int) uint32 {
	return p.Data[y*p.Width+x]
}

// At returns the value at (x, y), which is either an original intensity or
// a soma centre mark
func (p *MarkedPlane) At(x, y int) uint32 {
	return p.Data[y*p.Width+x]
}
