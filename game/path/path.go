package path

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
)

var log = logrus.WithField("component", "path")

// Kind classifies an instruction.
type Kind string

const (
	KindNormal   Kind = "normal"
	KindLandmark Kind = "landmark"
	KindDual     Kind = "dual"
	KindReturn   Kind = "return"
)

// Instruction is one step of a path. Moves are measured in metres. A
// landmark-relative instruction is measured from its landmark rather than
// from the previous target.
type Instruction struct {
	Text                 string      `json:"text"`
	Moves                []grid.Move `json:"moves"`
	Kind                 Kind        `json:"kind"`
	RelativeToLandmarkID string      `json:"relativeToLandmarkId,omitempty"`
}

// MinStepCount is the shortest path Generate builds. A closed path of one
// instruction could only stand still.
const MinStepCount = 2

// Options tune path generation.
type Options struct {
	Scale           float64 `json:"scale"`
	StepCount       int     `json:"stepCount"`
	LandmarkSlots   []int   `json:"landmarkSlots,omitempty"`
	LandmarkCount   int     `json:"landmarkCount"`
	DualCount       int     `json:"dualCount"`
	MaxDistance     int     `json:"maxDistance"`
	MaxDualDistance int     `json:"maxDualDistance"`
}

// DefaultOptions returns the ten-step layout: two landmark legs among
// slots 4 to 7, two dual moves in the latest free slots.
func DefaultOptions(scale float64) Options {
	return Options{
		Scale:           scale,
		StepCount:       10,
		LandmarkSlots:   []int{4, 5, 6, 7},
		LandmarkCount:   2,
		DualCount:       2,
		MaxDistance:     3,
		MaxDualDistance: 2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions(o.Scale)
	if o.Scale <= 0 {
		o.Scale = 1
	}
	if o.StepCount <= 0 {
		o.StepCount = d.StepCount
	}
	if o.StepCount < MinStepCount {
		o.StepCount = MinStepCount
	}
	if o.LandmarkSlots == nil {
		o.LandmarkSlots = d.LandmarkSlots
	}
	if o.MaxDistance <= 0 {
		o.MaxDistance = d.MaxDistance
	}
	if o.MaxDualDistance <= 0 {
		o.MaxDualDistance = d.MaxDualDistance
	}
	if o.LandmarkCount < 0 {
		o.LandmarkCount = 0
	}
	if o.DualCount < 0 {
		o.DualCount = 0
	}
	return o
}

// leg is an instruction under construction, measured in grid units.
type leg struct {
	kind     Kind
	moves    []unitMove
	landmark *placement.Landmark
}

type unitMove struct {
	dir   grid.Direction
	units int
}

func (l leg) apply(from grid.Coordinate) grid.Coordinate {
	if l.landmark != nil {
		from = l.landmark.Position
	}
	for _, m := range l.moves {
		from = from.Step(m.dir, float64(m.units))
	}
	return from
}

var dualPairs = [][2]grid.Direction{
	{grid.North, grid.East},
	{grid.North, grid.West},
	{grid.South, grid.East},
	{grid.South, grid.West},
}

// GeneratePath builds a stepCount-long path starting and ending at start
// using the default layout.
func GeneratePath(rng *rand.Rand, start grid.Coordinate, landmarks []placement.Landmark, scale float64, g grid.Spec, stepCount int) []Instruction {
	opts := DefaultOptions(scale)
	opts.StepCount = stepCount
	return Generate(rng, start, landmarks, g, opts)
}

// Generate builds exactly opts.StepCount instructions. Every target stays
// inside the grid's intersection bounds and replaying the path from start
// returns to start.
func Generate(rng *rand.Rand, start grid.Coordinate, landmarks []placement.Landmark, g grid.Spec, opts Options) []Instruction {
	opts = opts.withDefaults()
	b := &builder{rng: rng, grid: g, opts: opts}

	random := opts.StepCount - 2
	if random < 0 {
		random = 0
	}
	plan := b.plan(random)

	pool := placement.Shuffle(rng, landmarks)
	cur := start
	legs := make([]leg, 0, opts.StepCount)
	for i, kind := range plan {
		var l leg
		var ok bool

		if kind == KindLandmark {
			var lm *placement.Landmark
			lm, pool = takeLandmark(pool, cur)
			if lm != nil {
				l, ok = b.landmarkLeg(cur, lm)
			}
			if !ok {
				log.WithField("slot", i).Debug("no landmark leg fits, using a normal move")
				kind = KindNormal
			}
		}
		if kind == KindDual {
			if l, ok = b.dualLeg(cur); !ok {
				kind = KindNormal
			}
		}
		if kind == KindNormal {
			l, ok = b.normalLeg(cur)
		}
		if !ok {
			l = b.fallbackLeg(cur)
		}

		legs = append(legs, l)
		cur = l.apply(cur)
	}

	returns := returnLegs(cur, start)
	legs = b.fit(legs, returns, cur)

	out := make([]Instruction, len(legs))
	for i, l := range legs {
		out[i] = render(l, opts.Scale)
	}
	return out
}

type builder struct {
	rng  *rand.Rand
	grid grid.Spec
	opts Options
}

func (b *builder) plan(n int) []Kind {
	plan := make([]Kind, n)
	for i := range plan {
		plan[i] = KindNormal
	}

	var slots []int
	for _, s := range b.opts.LandmarkSlots {
		if s >= 0 && s < n {
			slots = append(slots, s)
		}
	}
	slots = placement.Shuffle(b.rng, slots)
	for i := 0; i < len(slots) && i < b.opts.LandmarkCount; i++ {
		plan[slots[i]] = KindLandmark
	}

	duals := 0
	for i := n - 1; i >= 0 && duals < b.opts.DualCount; i-- {
		if plan[i] == KindNormal {
			plan[i] = KindDual
			duals++
		}
	}
	return plan
}

func takeLandmark(pool []placement.Landmark, cur grid.Coordinate) (*placement.Landmark, []placement.Landmark) {
	for i := range pool {
		if pool[i].Position.Equal(cur) {
			continue
		}
		lm := pool[i]
		rest := append(pool[:i:i], pool[i+1:]...)
		return &lm, rest
	}
	return nil, pool
}

func (b *builder) distances(n int) []int {
	d := make([]int, n)
	for i := range d {
		d[i] = i + 1
	}
	return placement.Shuffle(b.rng, d)
}

func (b *builder) landmarkLeg(cur grid.Coordinate, lm *placement.Landmark) (leg, bool) {
	for _, dir := range placement.Shuffle(b.rng, grid.Directions) {
		for _, units := range b.distances(b.opts.MaxDistance) {
			target := lm.Position.Step(dir, float64(units))
			if b.grid.InIntersectionBounds(target) && !target.Equal(cur) {
				return leg{kind: KindLandmark, moves: []unitMove{{dir, units}}, landmark: lm}, true
			}
		}
	}
	return leg{}, false
}

func (b *builder) dualLeg(cur grid.Coordinate) (leg, bool) {
	for _, pair := range placement.Shuffle(b.rng, dualPairs) {
		first := b.distances(b.opts.MaxDualDistance)
		second := b.distances(b.opts.MaxDualDistance)
		for _, d1 := range first {
			for _, d2 := range second {
				target := cur.Step(pair[0], float64(d1)).Step(pair[1], float64(d2))
				if b.grid.InIntersectionBounds(target) {
					return leg{kind: KindDual, moves: []unitMove{{pair[0], d1}, {pair[1], d2}}}, true
				}
			}
		}
	}
	return leg{}, false
}

func (b *builder) normalLeg(cur grid.Coordinate) (leg, bool) {
	for _, dir := range placement.Shuffle(b.rng, grid.Directions) {
		for _, units := range b.distances(b.opts.MaxDistance) {
			if b.grid.InIntersectionBounds(cur.Step(dir, float64(units))) {
				return leg{kind: KindNormal, moves: []unitMove{{dir, units}}}, true
			}
		}
	}
	return leg{}, false
}

// fallbackLeg takes the first 1-unit move in N, E, S, W order that stays
// on the map, or stays put when even that is impossible.
func (b *builder) fallbackLeg(cur grid.Coordinate) leg {
	for _, dir := range grid.Directions {
		if b.grid.InIntersectionBounds(cur.Step(dir, 1)) {
			return leg{kind: KindNormal, moves: []unitMove{{dir, 1}}}
		}
	}
	log.WithField("at", cur.String()).Warn("no legal move from position, emitting a stay instruction")
	return leg{kind: KindNormal}
}

// returnLegs walks back to start, column first.
func returnLegs(cur, start grid.Coordinate) []leg {
	var out []leg
	dCol := start.Col - cur.Col
	dRow := start.Row - cur.Row
	if units := int(math.Abs(math.Round(dCol))); units > 0 {
		dir := grid.East
		if dCol < 0 {
			dir = grid.West
		}
		out = append(out, leg{kind: KindReturn, moves: []unitMove{{dir, units}}})
	}
	if units := int(math.Abs(math.Round(dRow))); units > 0 {
		dir := grid.North
		if dRow < 0 {
			dir = grid.South
		}
		out = append(out, leg{kind: KindReturn, moves: []unitMove{{dir, units}}})
	}
	return out
}

// fit brings the path to exactly StepCount legs without changing where it
// ends. Padding pairs go between the random legs and the return legs, at
// pos.
func (b *builder) fit(legs, returns []leg, pos grid.Coordinate) []leg {
	want := b.opts.StepCount
	need := want - len(legs) - len(returns)

	for need >= 2 {
		legs = append(legs, b.padding(pos)...)
		need -= 2
	}
	all := append(legs, returns...)

	if need == 1 {
		if i := latestSplittableSingle(all); i >= 0 {
			all = splitAt(all, i, splitSingle(all[i]))
		} else if i := latestNonLandmarkDual(all); i >= 0 {
			all = splitAt(all, i, splitDual(all[i]))
		} else if d, ok := b.detour(pos, all[len(all)-1]); ok {
			all = append(all[:len(all)-1:len(all)-1], d...)
		} else {
			pad := b.padding(pos)
			all = append(all[:len(legs):len(legs)], append(pad, returns...)...)
			all = mergeOnce(all)
		}
	}

	for len(all) > want {
		merged := mergeOnce(all)
		if len(merged) == len(all) {
			break
		}
		all = merged
	}
	return all
}

// detour replaces a 1-unit return leg starting at pos with a sidestep and a
// dual move that undoes it, so neither leg stands still.
func (b *builder) detour(pos grid.Coordinate, l leg) ([]leg, bool) {
	if l.landmark != nil || len(l.moves) != 1 || l.moves[0].units != 1 {
		return nil, false
	}
	back := l.moves[0]
	for _, side := range grid.Directions {
		if side.Vertical() == back.dir.Vertical() || !b.grid.InIntersectionBounds(pos.Step(side, 1)) {
			continue
		}
		return []leg{
			{kind: KindNormal, moves: []unitMove{{side, 1}}},
			{kind: KindReturn, moves: []unitMove{back, {side.Opposite(), 1}}},
		}, true
	}
	return nil, false
}

// padding returns a 1-unit out-and-back pair that stays on the map.
func (b *builder) padding(pos grid.Coordinate) []leg {
	for _, pair := range [][2]grid.Direction{
		{grid.North, grid.South},
		{grid.South, grid.North},
		{grid.East, grid.West},
		{grid.West, grid.East},
	} {
		if b.grid.InIntersectionBounds(pos.Step(pair[0], 1)) {
			return []leg{
				{kind: KindNormal, moves: []unitMove{{pair[0], 1}}},
				{kind: KindNormal, moves: []unitMove{{pair[1], 1}}},
			}
		}
	}
	return []leg{
		{kind: KindNormal, moves: []unitMove{{grid.North, 1}}},
		{kind: KindNormal, moves: []unitMove{{grid.South, 1}}},
	}
}

func latestSplittableSingle(legs []leg) int {
	for i := len(legs) - 1; i >= 0; i-- {
		l := legs[i]
		if l.landmark == nil && len(l.moves) == 1 && l.moves[0].units >= 2 {
			return i
		}
	}
	return -1
}

func latestNonLandmarkDual(legs []leg) int {
	for i := len(legs) - 1; i >= 0; i-- {
		if legs[i].landmark == nil && len(legs[i].moves) == 2 {
			return i
		}
	}
	return -1
}

func splitSingle(l leg) []leg {
	m := l.moves[0]
	return []leg{
		{kind: l.kind, moves: []unitMove{{m.dir, 1}}},
		{kind: l.kind, moves: []unitMove{{m.dir, m.units - 1}}},
	}
}

func splitDual(l leg) []leg {
	return []leg{
		{kind: KindNormal, moves: []unitMove{l.moves[0]}},
		{kind: KindNormal, moves: []unitMove{l.moves[1]}},
	}
}

func splitAt(legs []leg, i int, parts []leg) []leg {
	out := make([]leg, 0, len(legs)+len(parts)-1)
	out = append(out, legs[:i]...)
	out = append(out, parts...)
	return append(out, legs[i+1:]...)
}

// mergeOnce joins the latest adjacent pair of non-landmark legs, preferring
// a pair whose combined move actually goes somewhere.
func mergeOnce(legs []leg) []leg {
	best := -1
	for i := len(legs) - 2; i >= 0; i-- {
		if legs[i].landmark != nil || legs[i+1].landmark != nil {
			continue
		}
		if best < 0 {
			best = i
		}
		if !netZero(legs[i], legs[i+1]) {
			best = i
			break
		}
	}
	if best < 0 {
		return legs
	}

	merged := leg{kind: KindNormal}
	merged.moves = append(merged.moves, legs[best].moves...)
	merged.moves = append(merged.moves, legs[best+1].moves...)
	if len(merged.moves) == 2 && merged.moves[0].dir.Vertical() != merged.moves[1].dir.Vertical() {
		merged.kind = KindDual
	}

	out := make([]leg, 0, len(legs)-1)
	out = append(out, legs[:best]...)
	out = append(out, merged)
	return append(out, legs[best+2:]...)
}

func netZero(a, b leg) bool {
	var origin grid.Coordinate
	return b.apply(a.apply(origin)).Equal(origin)
}

func render(l leg, scale float64) Instruction {
	in := Instruction{Kind: l.kind}
	parts := make([]string, 0, len(l.moves))
	for _, m := range l.moves {
		metres := float64(m.units) * scale
		in.Moves = append(in.Moves, grid.Move{Distance: metres, Direction: m.dir})
		parts = append(parts, formatMetres(metres)+" metres "+string(m.dir))
	}

	switch {
	case len(parts) == 0:
		in.Text = "Stay where you are."
	case l.landmark != nil:
		in.RelativeToLandmarkID = l.landmark.ID
		in.Text = "Go " + parts[0] + " of the " + strings.ToLower(l.landmark.Label) + "."
	default:
		in.Text = "Go " + joinParts(parts) + "."
	}
	return in
}

func joinParts(parts []string) string {
	if len(parts) == 1 {
		return parts[0]
	}
	return strings.Join(parts[:len(parts)-1], ", ") + " and " + parts[len(parts)-1]
}

func formatMetres(m float64) string {
	return strconv.FormatFloat(m, 'f', -1, 64)
}
