package engine

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/drop"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

const advanceKey = "advance"

// ScaleBlocksState is the progress of a scale-blocks level.
type ScaleBlocksState struct {
	Rows      int                  `json:"rows"`
	Cols      int                  `json:"cols"`
	Variant   int                  `json:"variant"`
	Stage     int                  `json:"stage"`
	Stages    int                  `json:"stages"`
	Scale     float64              `json:"scale"`
	Solution  drop.Solution        `json:"solution"`
	Question  [2]string            `json:"question"`
	Landmarks []placement.Landmark `json:"landmarks"`
	Blocks    []drop.Block         `json:"blocks"`
	Errors    int                  `json:"errors"`

	MeasurementComplete bool `json:"measurement_complete"`
	StageComplete       bool `json:"stage_complete"`
	Completed           bool `json:"completed"`
	Stars               int  `json:"stars,omitempty"`
}

// scaleBlocks has the player cover the straight distance between two
// landmarks with blocks whose size matches the map scale, over several
// stages. Variant 2 then asks for the distance equation.
type scaleBlocks struct {
	config *GameConfig
	rng    *rand.Rand
	board  *drop.Board
	st     ScaleBlocksState
}

func newScaleBlocks(config *GameConfig) *scaleBlocks {
	return &scaleBlocks{config: config, board: drop.NewBoard(drop.Solution{})}
}

func (l *scaleBlocks) Kind() Kind {
	return KindScaleBlocks
}

func (l *scaleBlocks) Reset(rng *rand.Rand, now time.Time) *Outcome {
	l.rng = rng
	l.board = drop.NewBoard(drop.Solution{})
	l.st = ScaleBlocksState{
		Rows:    l.config.Rows,
		Cols:    l.config.Cols,
		Variant: l.config.Variant,
		Stages:  l.config.SubLevels,
	}
	l.startStage(1)

	out := &Outcome{Accepted: true, Message: l.config.Messages.Welcome}
	out.emit(EventStageStarted, l.st.Stage)
	return out
}

func (l *scaleBlocks) scaleFor(stage int) float64 {
	scales := l.config.Scales
	if l.config.Variant == 2 && stage == 4 {
		return scales[0]
	}
	return scales[(stage-1)%len(scales)]
}

func (l *scaleBlocks) distanceFor(stage int, o drop.Orientation) int {
	dim := l.config.Cols
	if o == drop.Vertical {
		dim = l.config.Rows
	}
	maxDistance := dim - 1
	minDistance := 2
	switch {
	case l.config.Variant == 2 && stage == 4:
		return 1
	case l.config.Variant == 2 && stage == 1:
		minDistance = 1
	case l.config.Variant == 1 && stage == 1:
		return 2
	}
	return minDistance + l.rng.Intn(maxDistance-minDistance+1)
}

// startStage lays out a stage: a solution segment with a landmark at each
// end and two unrelated landmarks on free cells.
func (l *scaleBlocks) startStage(stage int) {
	g := l.config.Grid()
	templates := placement.Shuffle(l.rng, l.config.Landmarks)[:4]

	o := drop.Horizontal
	if l.rng.Float64() > 0.5 {
		o = drop.Vertical
	}
	distance := l.distanceFor(stage, o)

	var sol drop.Solution
	var a, b grid.Coordinate
	if o == drop.Horizontal {
		line := float64(l.rng.Intn(g.Rows-1)) + 1.5
		start := float64(l.rng.Intn(g.Cols-distance+1)) + 0.5
		sol = drop.Solution{Orientation: o, Line: line, Start: start, End: start + float64(distance), Distance: distance}
		a = grid.Coordinate{Row: line, Col: sol.Start}
		b = grid.Coordinate{Row: line, Col: sol.End}
	} else {
		line := float64(l.rng.Intn(g.Cols-1)) + 1.5
		start := float64(l.rng.Intn(g.Rows-distance+1)) + 0.5
		sol = drop.Solution{Orientation: o, Line: line, Start: start, End: start + float64(distance), Distance: distance}
		a = grid.Coordinate{Row: sol.Start, Col: line}
		b = grid.Coordinate{Row: sol.End, Col: line}
	}

	gen := placement.NewGenerator(l.rng, g, placement.Constraints{
		Candidates: placement.CellPoints,
		Buffer:     grid.PointBuffer,
		Fallback:   grid.Coordinate{Row: 1, Col: 1},
	})
	gen.Occupancy().Reserve(roundedKey(a), roundedKey(b))

	first := placement.Landmark{ID: templates[0].ID, Symbol: templates[0].Symbol, Label: templates[0].Label, Color: templates[0].Color, Position: a}
	second := placement.Landmark{ID: templates[1].ID, Symbol: templates[1].Symbol, Label: templates[1].Label, Color: templates[1].Color, Position: b}
	landmarks := append([]placement.Landmark{first, second}, gen.PlaceAll(templates[2:])...)

	question := [2]string{first.ID, second.ID}
	if l.rng.Intn(2) == 1 {
		question[0], question[1] = question[1], question[0]
	}

	l.board.Reset(sol)
	l.st.Stage = stage
	l.st.Scale = l.scaleFor(stage)
	l.st.Solution = sol
	l.st.Question = question
	l.st.Landmarks = landmarks
	l.st.MeasurementComplete = false
	l.st.StageComplete = false
}

// roundedKey is the occupancy key of the cell a half-integer landmark sits
// nearest to, halves rounding up.
func roundedKey(c grid.Coordinate) grid.Key {
	return grid.CellKey(int(math.Floor(c.Col+0.5)), int(math.Floor(c.Row+0.5)))
}

func (l *scaleBlocks) validator() drop.BlockValidator {
	return drop.BlockValidator{
		Grid:      l.config.Grid(),
		Scale:     l.st.Scale,
		Tolerance: l.config.Tolerance,
		Solution:  l.st.Solution,
	}
}

func (l *scaleBlocks) Act(a Action, now time.Time) (*Outcome, error) {
	if l.st.Completed {
		return nil, ErrLevelComplete
	}
	switch a.Type {
	case ActionDrop:
		return l.dropBlock(a)
	case ActionAnswer:
		return l.answer(a)
	}
	return nil, fmt.Errorf("%w: %s is not a scale-blocks action", ErrInvalidAction, a.Type)
}

func (l *scaleBlocks) dropBlock(a Action) (*Outcome, error) {
	if l.st.MeasurementComplete {
		return nil, fmt.Errorf("%w: the distance is already measured", ErrInvalidAction)
	}
	if a.Item == nil {
		return nil, fmt.Errorf("%w: drop needs an item", ErrInvalidAction)
	}

	var v drop.Verdict
	switch {
	case a.At != nil:
		v = l.validator().ValidateAt(*a.Item, *a.At)
	case a.Pointer != nil && a.Geometry != nil:
		v = l.validator().Validate(*a.Item, *a.Pointer, *a.Geometry)
	default:
		return nil, fmt.Errorf("%w: drop needs a grid position or a pointer with geometry", ErrInvalidAction)
	}

	p := l.board.Drop(*a.Item, v)
	out := &Outcome{Accepted: p.Block != nil}
	switch {
	case p.Ignored:
		out.Message = "That spot is already covered."
	case p.Block == nil:
		out.emit(EventDropRejected, p.Verdict)
		if p.Verdict.Reason == drop.ReasonScale {
			out.Message = fmt.Sprintf("Choose a block that matches the map scale: 1 square = %g metres.", l.st.Scale)
		} else {
			out.Message = "That block isn't on the path between the landmarks."
		}
	default:
		out.emit(EventBlockPlaced, *p.Block)
	}

	if l.board.Complete() {
		l.st.MeasurementComplete = true
		if l.config.Variant == 2 {
			out.Message = "Now work out the distance."
		} else {
			l.finishStage(out)
		}
	}
	return out, nil
}

func (l *scaleBlocks) answer(a Action) (*Outcome, error) {
	if l.config.Variant != 2 {
		return nil, fmt.Errorf("%w: this level has no equation", ErrInvalidAction)
	}
	if !l.st.MeasurementComplete || l.st.StageComplete {
		return nil, fmt.Errorf("%w: measure the distance first", ErrInvalidAction)
	}
	if a.Answer == nil {
		return nil, fmt.Errorf("%w: answer is required", ErrInvalidAction)
	}

	sol := l.st.Solution
	wrong := map[string]bool{}
	if l.st.Stage >= 4 && !same(a.Answer.Count, float64(sol.Distance)) {
		wrong["count"] = true
	}
	if l.st.Stage >= 2 && !same(a.Answer.Scale, l.st.Scale) {
		wrong["scale"] = true
	}
	if !same(a.Answer.Total, float64(sol.Distance)*l.st.Scale) {
		wrong["total"] = true
	}

	out := &Outcome{Accepted: len(wrong) == 0}
	out.emit(EventAnswerChecked, map[string]any{"correct": len(wrong) == 0, "wrong": wrong})
	if len(wrong) > 0 {
		l.board.CountError()
		out.Message = "Not quite. Check your equation."
		return out, nil
	}
	l.finishStage(out)
	return out, nil
}

func same(a, b float64) bool {
	return math.Abs(a-b) < grid.Epsilon
}

func (l *scaleBlocks) finishStage(out *Outcome) {
	l.st.StageComplete = true
	out.emit(EventStageComplete, l.st.Stage)
	if l.st.Stage >= l.st.Stages {
		l.st.Completed = true
		l.st.Stars = l.Stars()
		out.Message = l.config.Messages.Complete
		out.emit(EventLevelComplete, l.st.Stars)
		return
	}
	out.Message = "Well done!"
	out.schedule(EffectAdvance, advanceKey, "", ms(l.config.Timings.AdvanceMS))
}

func (l *scaleBlocks) Expire(e Effect, now time.Time) (*Outcome, error) {
	if e.Kind != EffectAdvance {
		return nil, fmt.Errorf("%w: unexpected effect %s", ErrInvalidAction, e.Kind)
	}
	if !l.st.StageComplete || l.st.Completed {
		return &Outcome{}, nil
	}
	l.startStage(l.st.Stage + 1)
	out := &Outcome{Accepted: true}
	out.emit(EventStageStarted, l.st.Stage)
	return out, nil
}

func (l *scaleBlocks) Resume(now time.Time) []Effect {
	if l.st.StageComplete && !l.st.Completed {
		return []Effect{{Kind: EffectAdvance, Key: advanceKey, Delay: ms(l.config.Timings.AdvanceMS)}}
	}
	return nil
}

func (l *scaleBlocks) State() any {
	s := l.st
	s.Blocks = l.board.Blocks()
	s.Errors = l.board.Errors()
	s.Landmarks = append([]placement.Landmark(nil), l.st.Landmarks...)
	return s
}

func (l *scaleBlocks) Stars() int {
	if !l.st.Completed {
		return 0
	}
	return scoring.StarsFromErrors(l.board.Errors(), l.config.Thresholds)
}

func (l *scaleBlocks) Completed() bool {
	return l.st.Completed
}

func (l *scaleBlocks) Over() bool {
	return l.st.Completed
}

func (l *scaleBlocks) save() (json.RawMessage, error) {
	return json.Marshal(l.State())
}

func (l *scaleBlocks) load(data json.RawMessage, rng *rand.Rand) error {
	var s ScaleBlocksState
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	l.rng = rng
	l.st = s
	l.board = drop.NewBoard(s.Solution)
	l.board.Restore(s.Blocks, s.Errors)
	return nil
}
