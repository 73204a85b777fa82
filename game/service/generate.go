package service

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/path"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
)

// MaxStepCount caps generated path length.
const MaxStepCount = 50

var candidateSets = map[string]placement.CandidateFunc{
	"":         placement.InnerIntersections,
	"inner":    placement.InnerIntersections,
	"lattice":  placement.LatticePoints,
	"interior": placement.InteriorPoints,
	"cells":    placement.CellPoints,
}

var buffers = map[string]grid.BufferFunc{
	"":         grid.CornerBuffer,
	"corner":   grid.CornerBuffer,
	"point":    grid.PointBuffer,
	"neighbor": grid.NeighborBuffer,
}

func checkGrid(rows, cols int) (grid.Spec, error) {
	g := grid.Spec{Rows: rows, Cols: cols}
	if err := g.Validate(); err != nil {
		return g, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if rows > engine.MaxGridSize || cols > engine.MaxGridSize {
		return g, fmt.Errorf("%w: grid larger than %dx%d", ErrInvalidRequest, engine.MaxGridSize, engine.MaxGridSize)
	}
	return g, nil
}

func seeded(seed int64) (int64, *rand.Rand) {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return seed, rand.New(rand.NewSource(seed))
}

// GeneratePlacement runs one placement pass.
func GeneratePlacement(req PlacementRequest) (*PlacementResult, error) {
	g, err := checkGrid(req.Rows, req.Cols)
	if err != nil {
		return nil, err
	}
	candidates, ok := candidateSets[req.Candidates]
	if !ok {
		return nil, fmt.Errorf("%w: unknown candidate set %q", ErrInvalidRequest, req.Candidates)
	}
	buffer, ok := buffers[req.Buffer]
	if !ok {
		return nil, fmt.Errorf("%w: unknown buffer %q", ErrInvalidRequest, req.Buffer)
	}

	templates := req.Templates
	if len(templates) == 0 {
		if req.Count <= 0 {
			return nil, fmt.Errorf("%w: nothing to place", ErrInvalidRequest)
		}
		for i := 1; i <= req.Count; i++ {
			templates = append(templates, placement.Template{
				ID:     fmt.Sprintf("point-%d", i),
				Symbol: "?",
				Label:  fmt.Sprintf("Point %d", i),
			})
		}
	}

	c := placement.DefaultConstraints()
	c.Candidates = candidates
	c.Buffer = buffer
	for _, ex := range req.Exclude {
		c.Exclude = append(c.Exclude, ex.Key())
	}

	seed, rng := seeded(req.Seed)
	return &PlacementResult{
		Seed:      seed,
		Landmarks: placement.PlaceEntities(rng, templates, g, c),
	}, nil
}

// GeneratePath builds an instruction path, placing landmarks first when the
// request names none.
func GeneratePath(req PathRequest) (*PathResult, error) {
	g, err := checkGrid(req.Rows, req.Cols)
	if err != nil {
		return nil, err
	}
	if req.Scale <= 0 {
		return nil, fmt.Errorf("%w: scale must be positive", ErrInvalidRequest)
	}
	if req.StepCount < path.MinStepCount || req.StepCount > MaxStepCount {
		return nil, fmt.Errorf("%w: step count must be between %d and %d", ErrInvalidRequest, path.MinStepCount, MaxStepCount)
	}

	start := grid.Coordinate{Row: 0.5, Col: 0.5}
	if req.Start != nil {
		start = *req.Start
	}
	if !g.InIntersectionBounds(start) {
		return nil, fmt.Errorf("%w: start %s is off the grid", ErrInvalidRequest, start)
	}

	seed, rng := seeded(req.Seed)
	landmarks := req.Landmarks
	if len(landmarks) == 0 && req.LandmarkCount > 0 {
		gen := placement.NewGenerator(rng, g, placement.Constraints{
			Candidates: placement.InnerIntersections,
			Buffer:     grid.PointBuffer,
		})
		gen.Reserve(start)
		for i := 1; i <= req.LandmarkCount; i++ {
			landmarks = append(landmarks, gen.Place(placement.Template{
				ID:     fmt.Sprintf("landmark-%d", i),
				Symbol: "*",
				Label:  fmt.Sprintf("Landmark %d", i),
			}))
		}
	}

	instructions := path.GeneratePath(rng, start, landmarks, req.Scale, g, req.StepCount)
	p := path.Path{Start: start, Landmarks: landmarks, Scale: req.Scale, Instructions: instructions}
	return &PathResult{
		Seed:         seed,
		Start:        start,
		Scale:        req.Scale,
		Landmarks:    landmarks,
		Instructions: instructions,
		Targets:      p.Targets(),
	}, nil
}

// CheckTrap runs the reachability check on an arbitrary barrier layout.
func CheckTrap(req TrapRequest) (*TrapResult, error) {
	g, err := checkGrid(req.Rows, req.Cols)
	if err != nil {
		return nil, err
	}
	if !g.InCellBounds(req.Goal) {
		return nil, fmt.Errorf("%w: goal is off the grid", ErrInvalidRequest)
	}

	barriers := reach.NewBarriers(req.Barriers...)
	d, ok := reach.Distance(req.From, req.Goal, barriers, g)
	return &TrapResult{
		Trapped:   !ok,
		Distance:  d,
		Reachable: len(reach.Reachable(req.From, barriers, g)),
	}, nil
}

func (s *gameServiceImpl) GeneratePlacement(ctx context.Context, req PlacementRequest) (*PlacementResult, error) {
	return GeneratePlacement(req)
}

func (s *gameServiceImpl) GeneratePath(ctx context.Context, req PathRequest) (*PathResult, error) {
	return GeneratePath(req)
}

func (s *gameServiceImpl) CheckTrap(ctx context.Context, req TrapRequest) (*TrapResult, error) {
	return CheckTrap(req)
}
