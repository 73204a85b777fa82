package mcp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/service"
)

const commonInstructions = `Grid Puzzle Server - Instructions

Every action is a JSON object with a "type" and only the fields that type
needs. Directions are north, south, east or west. Grid positions use
{"row": r, "col": c}; intersections are half-integers such as 1.5.

An action the level cannot take right now (wrong type, missing field, level
already finished) is an error. Anything else returns an outcome: "accepted"
says whether the move counted as correct, "message" is what the player sees,
and "events" list what changed. Some effects (transient pieces expiring,
flies, the trap grace period) happen a little later on their own; call
level_state to see them.

Stars: every level ends with 1 to 3 stars. Fewer errors, fewer wasted moves
or a faster time earn more.
`

var instructions = map[engine.Kind]string{
	engine.KindScaleBlocks: `SCALE BLOCKS (scale-blocks)
Measure the distance between two landmarks with blocks that match the map
scale. Six sub-levels; the scale and orientation change between them.
- Drop a block: {"type":"drop","item":{"orientation":"horizontal","size":100},"at":{"row":2.5,"col":1.5}}
  The size must equal the scale shown in level state. Wrong blocks count as
  errors and disappear shortly after.
- Variant 2 also asks for the equation once the blocks are placed:
  {"type":"answer","answer":{"count":3,"scale":200,"total":600}}
The next sub-level starts automatically after a short pause.`,

	engine.KindScaleRoute: `SCALE ROUTE (scale-route)
Draw each scheduled trip with one-square arrows along grid lines, then say how
far it was.
- Place an arrow: {"type":"arrow","direction":"east","at":{"row":2,"col":3}}
  Arrows that do not get closer to the destination disappear.
- After a trip: {"type":"answer","answer":{"total":400}} (arrows x scale).
- After the last trip, answer the total distance for the day.`,

	engine.KindLandmarkNav: `LANDMARK NAVIGATION (landmark-nav)
Follow the instructions one at a time by clicking the intersection they lead
to. Each wrong click adds a time penalty.
- Click: {"type":"click","at":{"row":2.5,"col":3.5}}`,

	engine.KindMysteryPoints: `MYSTERY POINTS (mystery-points)
Pick a mystery point, then move the player to it in metres.
- Select: {"type":"select","target_id":"mystery-1"}
- Move: {"type":"move","direction":"north","distance":100}
Moves off the map bounce back but still count. Extra moves beyond the
shortest route count as wasted.`,

	engine.KindFrog: `FROG (frog)
Hop the frog to the worm. Every cell you leave becomes a lily pad you cannot
land on again. Catch flies on the way for stars. If the worm becomes
unreachable the frog is trapped and the level ends.
- Hop: {"type":"move","direction":"south"}
North is toward row 0.`,

	engine.KindTreasure: `TREASURE COMPASS (treasure)
Walk the explorer to the hidden treasure around the trees. Every press counts
as a move, even into a tree. After a few moves the map rotates.
- Move: {"type":"move","direction":"east"}`,
}

func stateStatus(state *engine.GameState) string {
	switch {
	case state.Completed:
		return fmt.Sprintf("completed, %d stars", state.Stars)
	case state.GameOver:
		return "game over"
	}
	return "in progress"
}

func formatSessionInfo(info *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\n", info.ID)
	fmt.Fprintf(&b, "Config: %s (%s)\n", info.ConfigID, info.ConfigName)
	fmt.Fprintf(&b, "Created: %s\n", info.CreatedAt.Format(time.RFC3339))
	if len(info.PendingTimers) > 0 {
		fmt.Fprintf(&b, "Pending effects: %s\n", strings.Join(info.PendingTimers, ", "))
	}
	if info.GameState != nil {
		b.WriteString("\n")
		b.WriteString(formatGameState(info.GameState))
	}
	return b.String()
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Game: %s (%s)\n", state.Kind, state.ConfigName)
	fmt.Fprintf(&b, "Status: %s\n", stateStatus(state))
	fmt.Fprintf(&b, "Attempt: %d, Actions: %d\n", state.Attempt, state.TotalActions)
	if state.Message != "" {
		fmt.Fprintf(&b, "Message: %s\n", state.Message)
	}
	if state.Level != nil {
		level, err := json.MarshalIndent(state.Level, "", "  ")
		if err == nil {
			fmt.Fprintf(&b, "\nLevel:\n%s\n", level)
		}
	}
	return b.String()
}

func formatOutcome(out *engine.Outcome) string {
	if out == nil {
		return ""
	}

	var b strings.Builder
	if out.Accepted {
		b.WriteString("✓ Accepted")
	} else {
		b.WriteString("✗ Not accepted")
	}
	if out.Message != "" {
		fmt.Fprintf(&b, ": %s", out.Message)
	}
	b.WriteString("\n")

	for _, e := range out.Events {
		if e.Data == nil {
			fmt.Fprintf(&b, "  - %s\n", e.Type)
			continue
		}
		data, _ := json.Marshal(e.Data)
		fmt.Fprintf(&b, "  - %s %s\n", e.Type, data)
	}
	for _, e := range out.Effects {
		fmt.Fprintf(&b, "  (%s in %s)\n", e.Kind, e.Delay)
	}
	return b.String()
}

func formatActionResult(result *service.ActionResult) string {
	return formatOutcome(result.Outcome) + "\n" + formatGameState(result.GameState)
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d, Total: %d)\n\n",
		history.Page, history.TotalPages, history.TotalActions)

	for _, entry := range history.Actions {
		status := "✓"
		if !entry.Accepted {
			status = "✗"
		}
		action, _ := json.Marshal(entry.Action)
		fmt.Fprintf(&b, "%s #%d (attempt %d) %s", status, entry.MoveNumber, entry.Attempt, action)
		if entry.Error != "" {
			fmt.Fprintf(&b, " error: %s", entry.Error)
		}
		b.WriteString("\n")
	}
	if history.HasNext {
		b.WriteString("\nMore actions on the next page.\n")
	}
	return b.String()
}

func formatPath(result *service.PathResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Path (seed %d, scale %g m, start %s)\n", result.Seed, result.Scale, result.Start)
	if len(result.Landmarks) > 0 {
		b.WriteString("\nLandmarks:\n")
		for _, lm := range result.Landmarks {
			fmt.Fprintf(&b, "  %s %s at %s\n", lm.Symbol, lm.Label, lm.Position)
		}
	}
	b.WriteString("\nInstructions:\n")
	for i, in := range result.Instructions {
		fmt.Fprintf(&b, "%2d. %s", i+1, in.Text)
		if i < len(result.Targets) {
			fmt.Fprintf(&b, " -> %s", result.Targets[i])
		}
		b.WriteString("\n")
	}
	return b.String()
}
