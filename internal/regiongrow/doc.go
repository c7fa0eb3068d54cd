// Package regiongrow implements the wand region-growing fill.
//
// Responsibilities: precondition checks, the single undo checkpoint per
// click, and the breadth-first tolerance search that writes the target
// label into the label grid.
// Key types: Params, Request, Result, Checkpointer.
//
// The search is FIFO so growth proceeds layer by layer from the seed and the
// max-pixel cutoff lands on a reproducible frontier. Only coordinates whose
// label actually changes count toward MaxPixels. The counter is compared
// after it is incremented, so a flood larger than the budget writes exactly
// floor(MaxPixels)+1 changed cells before it stops.
//
// Nothing in this package allocates or frees grid storage, and it performs
// no locking: the host serializes calls to Apply.
package regiongrow
