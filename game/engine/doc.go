// Package engine runs the grid geography games.
//
// Each game kind is a Level: it lays out a puzzle with the placement and
// path generators, validates player actions with the drop, reach and
// scoring packages, and reports what changed as an Outcome. A level never
// sleeps. Anything that happens later (a wrong piece fading, a trap being
// confirmed, a fly buzzing off) is returned as an Effect which the caller
// schedules and hands back through Expire.
//
// Usage:
//
//	config := engine.DefaultConfig(engine.KindFrog)
//	e, err := engine.NewEngine(config, 42)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, effect := range e.PendingEffects(time.Now()) {
//		// arm a timer that calls e.Expire(effect, time.Now())
//	}
//	out, err := e.Act(engine.Action{Type: engine.ActionMove, Direction: grid.East}, time.Now())
//
// Game kinds:
//
//   - scale-blocks: cover the distance between two landmarks with blocks
//     matching the map scale, over several stages.
//   - scale-route: draw a day of trips with arrows and convert them to metres.
//   - landmark-nav: click where each generated instruction leads.
//   - mystery-points: walk to hidden points in as few moves as possible.
//   - frog: reach the worm without trapping yourself on lily pads.
//   - treasure: walk around trees to the treasure with compass buttons.
package engine
