package regiongrow

import (
	"errors"
	"fmt"
)

// ErrPrecondition is wrapped by every error that rejects a fill before the
// label grid is touched.
var ErrPrecondition = errors.New("precondition violated")

var (
	ErrShapeMismatch     = fmt.Errorf("%w: background and label shapes differ", ErrPrecondition)
	ErrSeedOutOfBounds   = fmt.Errorf("%w: seed out of bounds", ErrPrecondition)
	ErrInvalidTolerance  = fmt.Errorf("%w: tolerance must be finite and non-negative", ErrPrecondition)
	ErrInvalidMaxPixels  = fmt.Errorf("%w: maxPixels must be positive", ErrPrecondition)
	ErrInvalidLabel      = fmt.Errorf("%w: label must be in [1, 2147483647] and fit the label grid", ErrPrecondition)
	ErrMissingCheckpoint = fmt.Errorf("%w: no checkpointer supplied", ErrPrecondition)
)

// ErrCheckpoint reports that the undo snapshot could not be taken. The fill
// is abandoned and the label grid is left as it was.
var ErrCheckpoint = errors.New("undo checkpoint failed")
