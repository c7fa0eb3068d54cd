// Package grid owns the addressable view of the label and background arrays.
//
// Responsibilities: shapes, integer coordinates, bounds checks, axis-aligned
// connectivity, and 2D plane views over 3D volumes.
// Key types: Shape, Coord, Reader, Labels, Dense, Plane.
//
// Storage is owned by the host. Dense wraps an existing slice without copying
// it, and plane views read and write straight through to the parent grid.
// Axis order is slowest-to-fastest: (k, j, i) for volumes, (row, col) for
// images.
package grid
