// Package drop validates drag-and-drop input on a grid map.
//
// BlockValidator turns a pointer position into a snapped grid line and
// checks the block's size against the map scale before anything else, so a
// wrong-sized block is always reported as a scale problem. Board keeps the
// accepted blocks and the error count for one solution.
//
// SnapArrow and Route do the same for route arrows that are drawn one grid
// unit at a time between scheduled landmarks.
package drop
