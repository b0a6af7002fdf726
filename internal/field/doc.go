// Package field samples the electric field of a particle ensemble on a
// square grid centred on the origin.
//
// Grids are row-major with the row index following y and the column index
// following x, so Ex.At(i, j) is the field at (X[j], Y[i]).
package field
