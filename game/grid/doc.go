// Package grid defines the coordinate model shared by every generator and
// validator.
//
// Two coordinate systems are in use. Coordinate is 1-based with a bottom-left
// origin: north adds to Row and east adds to Col, and points that sit on the
// lines between cells use half integers. Cell is 0-based and screen oriented
// (north subtracts from Row); it addresses whole cells for games where the
// player hops between squares. A level picks one system and keeps it.
//
// Occupancy records which keys a generation pass has already handed out.
// Keys are "col,row" strings, and a BufferFunc decides how many keys one
// placement consumes (just itself, the 2x2 corner block around an
// intersection, or its 4-neighbourhood).
package grid
