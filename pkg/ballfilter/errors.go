package ballfilter

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned by Walk when fewer planes than the window depth
// have been appended, so there is no complete window to scan yet.
var ErrNotReady = errors.New("ballfilter: plane window is not full")

// DimensionMismatchError reports a built kernel whose z extent does not
// match the requested window depth. This is a fatal configuration error:
// the requested sizes are incompatible and the filter cannot be used.
type DimensionMismatchError struct {
	Axis string
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("ballfilter: kernel %s extent should be %d, got %d", e.Axis, e.Want, e.Got)
}

// ShapeMismatchError reports an appended plane or tile mask whose size does
// not match the filter geometry. It is only raised when strict validation
// is enabled; the caller can recover by discarding the offending input.
type ShapeMismatchError struct {
	What string
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("ballfilter: %s length should be %d, got %d", e.What, e.Want, e.Got)
}
