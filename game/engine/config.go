package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/emilyyejia/Pattern-and-Algebra/game/drop"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/path"
	"github.com/emilyyejia/Pattern-and-Algebra/game/placement"
	"github.com/emilyyejia/Pattern-and-Algebra/game/scoring"
)

// ValidateGameConfig checks a configuration for correctness and
// playability.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if !config.Kind.Valid() {
		return fmt.Errorf("config validation: %w %q", ErrUnknownKind, config.Kind)
	}
	if config.Rows < MinGridSize || config.Rows > MaxGridSize ||
		config.Cols < MinGridSize || config.Cols > MaxGridSize {
		return fmt.Errorf("config validation: rows and cols must be between %d and %d, got %dx%d",
			MinGridSize, MaxGridSize, config.Rows, config.Cols)
	}
	if config.Messages.Welcome == "" {
		return fmt.Errorf("config validation: messages.welcome is required")
	}
	if config.Messages.Complete == "" {
		return fmt.Errorf("config validation: messages.complete is required")
	}

	t := config.Thresholds
	if t.Three < 0 || t.Two < 0 {
		return fmt.Errorf("config validation: thresholds must not be negative")
	}
	if config.Kind == KindFrog {
		if t.Three < t.Two {
			return fmt.Errorf("config validation: thresholds.three (%g) must be at least thresholds.two (%g)", t.Three, t.Two)
		}
	} else if t.Three > t.Two {
		return fmt.Errorf("config validation: thresholds.three (%g) must not exceed thresholds.two (%g)", t.Three, t.Two)
	}

	switch config.Kind {
	case KindScaleBlocks:
		return validateScaleBlocks(config)
	case KindScaleRoute:
		return validateScaleRoute(config)
	case KindLandmarkNav:
		return validateLandmarkNav(config)
	case KindMysteryPoints:
		return validateMysteryPoints(config)
	case KindFrog:
		return validateFrog(config)
	case KindTreasure:
		return validateTreasure(config)
	}
	return nil
}

func validateScales(config *GameConfig) error {
	if len(config.Scales) == 0 {
		return fmt.Errorf("config validation: scales must list at least one scale")
	}
	for _, s := range config.Scales {
		if s <= 0 {
			return fmt.Errorf("config validation: scales must be positive, got %g", s)
		}
	}
	return nil
}

func validateTemplates(field string, templates []placement.Template) error {
	seen := map[string]bool{}
	for i, t := range templates {
		if t.ID == "" {
			return fmt.Errorf("config validation: %s[%d] needs an id", field, i)
		}
		if seen[t.ID] {
			return fmt.Errorf("config validation: %s has duplicate id %q", field, t.ID)
		}
		seen[t.ID] = true
	}
	return nil
}

func validateScaleBlocks(config *GameConfig) error {
	if config.Rows < 3 || config.Cols < 3 {
		return fmt.Errorf("config validation: scale blocks need at least a 3x3 grid")
	}
	if config.Variant != 1 && config.Variant != 2 {
		return fmt.Errorf("config validation: variant must be 1 or 2, got %d", config.Variant)
	}
	if err := validateScales(config); err != nil {
		return err
	}
	if config.SubLevels < 1 {
		return fmt.Errorf("config validation: sub_levels must be at least 1")
	}
	if config.Tolerance < 0 || config.Tolerance >= 0.5 {
		return fmt.Errorf("config validation: tolerance must be in [0, 0.5), got %g", config.Tolerance)
	}
	if len(config.Landmarks) < 4 {
		return fmt.Errorf("config validation: scale blocks need at least 4 landmarks, got %d", len(config.Landmarks))
	}
	return validateTemplates("landmarks", config.Landmarks)
}

func validateScaleRoute(config *GameConfig) error {
	if config.Rows < 4 || config.Cols < 4 {
		return fmt.Errorf("config validation: the route game needs at least a 4x4 grid")
	}
	if err := validateScales(config); err != nil {
		return err
	}
	if err := validateTemplates("landmarks", config.Landmarks); err != nil {
		return err
	}
	if len(config.Schedule) == 0 {
		return fmt.Errorf("config validation: schedule must have at least one trip")
	}
	ids := map[string]bool{}
	for _, l := range config.Landmarks {
		ids[l.ID] = true
	}
	for i, trip := range config.Schedule {
		if !ids[trip.FromID] || !ids[trip.ToID] {
			return fmt.Errorf("config validation: schedule[%d] references unknown landmark", i)
		}
		if trip.FromID == trip.ToID {
			return fmt.Errorf("config validation: schedule[%d] starts and ends at %q", i, trip.FromID)
		}
	}
	if free := len(placement.LatticePoints(config.Grid())) - len(routeExcluded); free < len(config.Landmarks) {
		return fmt.Errorf("config validation: %d landmarks do not fit on the grid", len(config.Landmarks))
	}
	return nil
}

func validateLandmarkNav(config *GameConfig) error {
	if config.Scale <= 0 {
		return fmt.Errorf("config validation: scale must be positive")
	}
	if config.StepCount < path.MinStepCount {
		return fmt.Errorf("config validation: step_count must be at least %d", path.MinStepCount)
	}
	if config.Player == nil {
		return fmt.Errorf("config validation: player is required")
	}
	if err := validateTemplates("landmarks", config.Landmarks); err != nil {
		return err
	}
	if n := len(placement.InnerIntersections(config.Grid())); n < len(config.Landmarks) {
		return fmt.Errorf("config validation: %d landmarks do not fit on %d intersections", len(config.Landmarks), n)
	}
	return nil
}

func validateMysteryPoints(config *GameConfig) error {
	if config.Scale <= 0 {
		return fmt.Errorf("config validation: scale must be positive")
	}
	if config.Player == nil {
		return fmt.Errorf("config validation: player is required")
	}
	if len(config.MysteryPoints) == 0 {
		return fmt.Errorf("config validation: at least one mystery point is required")
	}
	if err := validateTemplates("mystery_points", config.MysteryPoints); err != nil {
		return err
	}
	if err := validateTemplates("landmarks", config.Landmarks); err != nil {
		return err
	}
	need := len(config.MysteryPoints) + 1 + len(config.Landmarks)
	if n := len(placement.InnerIntersections(config.Grid())); n < need {
		return fmt.Errorf("config validation: %d entities do not fit on %d intersections", need, n)
	}
	return nil
}

func validateFrog(config *GameConfig) error {
	if config.MaxFlies < 0 {
		return fmt.Errorf("config validation: max_flies must not be negative")
	}
	if config.MaxFlies > 0 && (config.Timings.FlyLifetimeMS <= 0 || config.Timings.FlySpawnMS < 0) {
		return fmt.Errorf("config validation: flies need a positive fly_lifetime_ms")
	}
	return nil
}

func validateTreasure(config *GameConfig) error {
	g := config.Grid()
	start := grid.Cell{}
	for i, c := range config.Obstacles {
		if !g.InCellBounds(c) {
			return fmt.Errorf("config validation: obstacles[%d] %v is outside the grid", i, c)
		}
		if c == start {
			return fmt.Errorf("config validation: obstacles[%d] blocks the start", i)
		}
	}
	if config.RotateAfter < 0 {
		return fmt.Errorf("config validation: rotate_after must not be negative")
	}
	return nil
}

// LoadGameConfig reads and validates a configuration file.
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseGameConfig(data)
}

// ParseGameConfig decodes and validates a JSON configuration.
func ParseGameConfig(data []byte) (*GameConfig, error) {
	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}
	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}
	return &config, nil
}

var (
	scaleBlockLandmarks = []placement.Template{
		{ID: "library", Symbol: "📚", Label: "Library"},
		{ID: "school", Symbol: "🏫", Label: "School"},
		{ID: "park", Symbol: "🌳", Label: "Park"},
		{ID: "shop", Symbol: "🛒", Label: "Shop"},
		{ID: "bus-stop", Symbol: "🚏", Label: "Bus Stop"},
		{ID: "hospital", Symbol: "🏥", Label: "Hospital"},
		{ID: "pool", Symbol: "🏊", Label: "Pool"},
		{ID: "fruit-stand", Symbol: "🍎", Label: "Fruit Stand"},
	}

	routeLandmarks = []placement.Template{
		{ID: "linas-house", Symbol: "🏠", Label: "Lina's house"},
		{ID: "school", Symbol: "🏫", Label: "School"},
		{ID: "park", Symbol: "🌳", Label: "Park"},
		{ID: "pool", Symbol: "🏊", Label: "Pool"},
		{ID: "shop", Symbol: "🛒", Label: "Shop"},
		{ID: "library", Symbol: "📚", Label: "Library"},
	}

	routeSchedule = []drop.Trip{
		{Time: "8:00", FromID: "linas-house", ToID: "school"},
		{Time: "12:00", FromID: "school", ToID: "park"},
		{Time: "12:45", FromID: "park", ToID: "school"},
		{Time: "3:00", FromID: "school", ToID: "pool"},
		{Time: "4:30", FromID: "pool", ToID: "linas-house"},
	}

	navLandmarks = []placement.Template{
		{ID: "library", Symbol: "📚", Label: "Library"},
		{ID: "pool", Symbol: "🏊", Label: "Pool"},
		{ID: "shop", Symbol: "🛒", Label: "Shop"},
		{ID: "park", Symbol: "🌳", Label: "Park"},
		{ID: "bridge", Symbol: "🌉", Label: "Bridge"},
	}

	mysteryContents = []placement.Template{
		{ID: "fountain", Symbol: "⛲", Label: "Fountain"},
		{ID: "tea-shop", Symbol: "🍵", Label: "Tea Shop"},
		{ID: "playground", Symbol: "🛝", Label: "Playground"},
		{ID: "police-station", Symbol: "🚓", Label: "Police Station"},
		{ID: "bridge", Symbol: "🌉", Label: "Bridge"},
	}

	mysteryLandmarks = []placement.Template{
		{ID: "train-station", Symbol: "🚉", Label: "Train Station"},
		{ID: "library", Symbol: "📚", Label: "Library"},
		{ID: "pool", Symbol: "🏊", Label: "Pool"},
		{ID: "shop", Symbol: "🛒", Label: "Shop"},
	}

	// Trees on the treasure map, in 0-based cells with row 0 at the top.
	treasureTrees = []grid.Cell{
		{Row: 1, Col: 1}, {Row: 2, Col: 3}, {Row: 4, Col: 2}, {Row: 3, Col: 4},
		{Row: 0, Col: 3}, {Row: 3, Col: 0}, {Row: 5, Col: 2}, {Row: 2, Col: 5},
	}
)

// BuiltinConfigs returns the stock levels keyed by config id.
func BuiltinConfigs() map[string]*GameConfig {
	sums := DefaultConfig(KindScaleBlocks)
	sums.Name = "Map Scales 2"
	sums.Description = "Cover the distance with scale blocks, then write the distance equation."
	sums.Variant = 2
	sums.Thresholds = scoring.ScaleBlocksWithSum
	sums.Messages.Welcome = "Measure the distance, then work out how far it is."

	return map[string]*GameConfig{
		"scale-blocks":      DefaultConfig(KindScaleBlocks),
		"scale-blocks-sums": sums,
		"scale-route":       DefaultConfig(KindScaleRoute),
		"landmark-nav":      DefaultConfig(KindLandmarkNav),
		"mystery-points":    DefaultConfig(KindMysteryPoints),
		"frog":              DefaultConfig(KindFrog),
		"treasure":          DefaultConfig(KindTreasure),
	}
}

// BuiltinConfigIDs returns the stock config ids, sorted.
func BuiltinConfigIDs() []string {
	configs := BuiltinConfigs()
	ids := make([]string, 0, len(configs))
	for id := range configs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DefaultConfig returns the stock configuration of kind, or nil for an
// unknown kind.
func DefaultConfig(kind Kind) *GameConfig {
	switch kind {
	case KindScaleBlocks:
		return &GameConfig{
			Name:        "Map Scales 1",
			Description: "Drag scale blocks between two landmarks to measure the distance.",
			Kind:        kind,
			Rows:        5,
			Cols:        5,
			Scales:      []float64{100, 200},
			Variant:     1,
			SubLevels:   6,
			Tolerance:   drop.DefaultTolerance,
			Landmarks:   cloneTemplates(scaleBlockLandmarks),
			Thresholds:  scoring.ScaleBlocks,
			Timings:     Timings{AdvanceMS: 2000},
			Messages: Messages{
				Welcome:  "Use the blocks that match the map scale to join the two landmarks.",
				Complete: "Great measuring!",
			},
		}
	case KindScaleRoute:
		return &GameConfig{
			Name:        "Map Scales 3",
			Description: "Draw Lina's trips around town with arrows and work out how far she went.",
			Kind:        kind,
			Rows:        6,
			Cols:        6,
			Scales:      []float64{50, 200},
			Landmarks:   cloneTemplates(routeLandmarks),
			Schedule:    append([]drop.Trip(nil), routeSchedule...),
			Thresholds:  scoring.ScaleRoute,
			Timings:     Timings{TransientMS: 500},
			Messages: Messages{
				Welcome:  "Follow Lina's day one trip at a time.",
				Complete: "You tracked Lina's whole day!",
			},
		}
	case KindLandmarkNav:
		return &GameConfig{
			Name:           "Grid Nav 2",
			Description:    "Follow the directions and click where Maria ends up.",
			Kind:           kind,
			Rows:           7,
			Cols:           7,
			Scale:          50,
			StepCount:      10,
			PenaltySeconds: 2,
			Player:         &placement.Template{ID: "maria", Symbol: "👧", Label: "Maria"},
			Landmarks:      cloneTemplates(navLandmarks),
			Thresholds:     scoring.LandmarkNav,
			Messages: Messages{
				Welcome:  "Read each direction and click the corner Maria walks to.",
				Complete: "Maria made it home!",
			},
		}
	case KindMysteryPoints:
		return &GameConfig{
			Name:          "Grid Nav 1",
			Description:   "Walk Leon to each mystery point to find out what it is.",
			Kind:          kind,
			Rows:          6,
			Cols:          6,
			Scale:         50,
			Player:        &placement.Template{ID: "leon", Symbol: "👦", Label: "Leon"},
			MysteryPoints: cloneTemplates(mysteryContents),
			Landmarks:     cloneTemplates(mysteryLandmarks),
			Thresholds:    scoring.MysteryPoints,
			Timings:       Timings{AnimationMS: 1000, SnapBackMS: 1750},
			Messages: Messages{
				Welcome:  "Pick a mystery point, then move Leon there in as few moves as you can.",
				Complete: "Every mystery solved!",
			},
		}
	case KindFrog:
		return &GameConfig{
			Name:        "Frog Game",
			Description: "Hop the frog to the caterpillar without getting stuck on lily pads.",
			Kind:        kind,
			Rows:        6,
			Cols:        6,
			MaxFlies:    5,
			Thresholds:  scoring.Thresholds{Three: float64(scoring.FrogFlies.Three), Two: float64(scoring.FrogFlies.Two)},
			Timings:     Timings{TrapGraceMS: 1000, FlySpawnMS: 200, FlyLifetimeMS: 3000},
			Messages: Messages{
				Welcome:  "Help the hungry frog build a path to the caterpillar. Catch the flies along the way!",
				Complete: "Yum! The frog reached the caterpillar.",
				Trapped:  "Uh oh! The frog is trapped!",
			},
		}
	case KindTreasure:
		return &GameConfig{
			Name:        "Compass 3",
			Description: "Use the compass to walk the explorer to the hidden treasure.",
			Kind:        kind,
			Rows:        6,
			Cols:        6,
			RotateAfter: 6,
			Obstacles:   append([]grid.Cell(nil), treasureTrees...),
			Thresholds:  scoring.Treasure,
			Messages: Messages{
				Welcome:  "Press N, S, E or W to move. Find the treasure in as few moves as you can.",
				Complete: "You found the treasure!",
			},
		}
	}
	return nil
}

func cloneTemplates(in []placement.Template) []placement.Template {
	return append([]placement.Template(nil), in...)
}
