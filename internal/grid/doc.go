// Package grid turns raw sample lines into immutable rows x cols grids.
//
// A sample line is a newline-terminated record of tab-separated numbers:
//
//	1\t2\t3\t4
//
// With a 2x2 [Parser] this yields the grid [[1 2] [3 4]], filled row-major.
// Lines with the wrong field count, empty fields, non-numeric fields or
// non-finite values fail with an error matching [ErrMalformedSample].
package grid
