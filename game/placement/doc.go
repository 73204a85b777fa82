// Package placement lays out landmarks, mystery points and players on
// non-overlapping grid positions.
//
// A Generator draws random candidates for each template up to a fixed number
// of attempts, then scans the candidates in row-major order, and finally
// drops the entity on a fixed fallback coordinate with a warning. It never
// fails, so a level stays playable even on a saturated grid.
//
//	gen := placement.NewGenerator(rng, grid.Spec{Rows: 6, Cols: 6}, placement.DefaultConstraints())
//	points := gen.PlaceAll(mysteryTemplates)
//	player := gen.Place(playerTemplate)
//	landmarks := gen.PlaceAll(landmarkTemplates)
package placement
