// Package path generates multi-step navigation instructions such as
// "Go 100 metres north." or "Go 150 metres west of the library.".
//
// A path always has exactly the requested number of instructions, never
// leaves the grid and brings the player back to where it started. Legs that
// are relative to a landmark restart from that landmark, so closure is
// measured by replaying the instructions in order.
package path
