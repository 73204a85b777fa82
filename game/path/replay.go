package path

import (
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
)

// Path is a generated instruction list together with what is needed to
// resolve each instruction to a grid target.
type Path struct {
	Start        grid.Coordinate      `json:"start"`
	Landmarks    []placement.Landmark `json:"landmarks"`
	Scale        float64              `json:"scale"`
	Instructions []Instruction        `json:"instructions"`
}

// Len returns the number of instructions.
func (p Path) Len() int {
	return len(p.Instructions)
}

// Targets resolves every instruction.
func (p Path) Targets() []grid.Coordinate {
	return Replay(p.Start, p.Landmarks, p.Scale, p.Instructions)
}

// Target resolves instruction i.
func (p Path) Target(i int) (grid.Coordinate, bool) {
	if i < 0 || i >= len(p.Instructions) {
		return grid.Coordinate{}, false
	}
	return p.Targets()[i], true
}

// Position is where the player stands after completing the first done
// instructions.
func (p Path) Position(done int) grid.Coordinate {
	if done <= 0 {
		return p.Start
	}
	targets := p.Targets()
	if done > len(targets) {
		done = len(targets)
	}
	return targets[done-1]
}

// Replay walks the path from start and returns the target of each
// instruction. A landmark-relative instruction starts from its landmark; an
// unknown landmark falls back to the current position.
func Replay(start grid.Coordinate, landmarks []placement.Landmark, scale float64, instructions []Instruction) []grid.Coordinate {
	out := make([]grid.Coordinate, 0, len(instructions))
	cur := start
	for _, in := range instructions {
		from := cur
		if in.RelativeToLandmarkID != "" {
			if lm, ok := placement.Find(landmarks, in.RelativeToLandmarkID); ok {
				from = lm.Position
			}
		}
		for _, m := range in.Moves {
			from = from.Apply(m, scale)
		}
		cur = from
		out = append(out, cur)
	}
	return out
}
