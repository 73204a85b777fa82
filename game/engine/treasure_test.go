package engine

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/reach"
)

func treasureState(e *GameEngine) TreasureState {
	return e.GetState().Level.(TreasureState)
}

// route finds the compass presses of a shortest walk around the trees.
func route(t *testing.T, st TreasureState) []grid.Direction {
	t.Helper()
	g := grid.Spec{Rows: st.Rows, Cols: st.Cols}
	trees := reach.NewBarriers(st.Obstacles...)

	prev := map[grid.Cell]grid.Direction{}
	seen := map[grid.Cell]bool{st.Explorer: true}
	queue := []grid.Cell{st.Explorer}
	for len(queue) > 0 && !seen[st.Treasure] {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range grid.Directions {
			next := cur.Neighbor(d)
			if !g.InCellBounds(next) || trees.Has(next) || seen[next] {
				continue
			}
			seen[next] = true
			prev[next] = d
			queue = append(queue, next)
		}
	}
	require.True(t, seen[st.Treasure], "treasure at %v is unreachable", st.Treasure)

	var dirs []grid.Direction
	for c := st.Treasure; c != st.Explorer; {
		d := prev[c]
		dirs = append([]grid.Direction{d}, dirs...)
		c = c.Neighbor(d.Opposite())
	}
	return dirs
}

func TestTreasure_Placement(t *testing.T) {
	config := DefaultConfig(KindTreasure)
	g := config.Grid()
	trees := reach.NewBarriers(config.Obstacles...)

	for seed := int64(1); seed <= 100; seed++ {
		st := treasureState(newTestEngine(t, "treasure", seed))
		assert.NotEqual(t, grid.Cell{}, st.Treasure, "seed %d", seed)
		assert.False(t, trees.Has(st.Treasure), "seed %d: treasure under a tree", seed)
		_, ok := reach.Distance(grid.Cell{}, st.Treasure, trees, g)
		assert.True(t, ok, "seed %d: treasure unreachable", seed)
		assert.GreaterOrEqual(t, st.Treasure.Manhattan(grid.Cell{}), 5, "seed %d: treasure too close", seed)
	}
}

func TestTreasure_PlacementOnCrowdedMap(t *testing.T) {
	config := DefaultConfig(KindTreasure)
	config.Rows, config.Cols = 2, 2
	config.Obstacles = []grid.Cell{{Row: 0, Col: 1}, {Row: 1, Col: 1}}
	l := newTreasure(config)
	l.Reset(rand.New(rand.NewSource(1)), testNow)
	assert.Equal(t, grid.Cell{Row: 1, Col: 0}, l.st.Treasure)

	// Nothing reachable: the far corner is used anyway.
	config.Obstacles = []grid.Cell{{Row: 0, Col: 1}, {Row: 1, Col: 0}}
	l = newTreasure(config)
	l.Reset(rand.New(rand.NewSource(1)), testNow)
	assert.Equal(t, grid.Cell{Row: 1, Col: 1}, l.st.Treasure)
}

func TestTreasure_FindIt(t *testing.T) {
	e := newTestEngine(t, "treasure", 42)
	dirs := route(t, treasureState(e))

	var out *Outcome
	for _, d := range dirs {
		var err error
		out, err = e.Act(Action{Type: ActionMove, Direction: d}, testNow)
		require.NoError(t, err)
		require.True(t, out.Accepted)
	}
	assert.True(t, hasEvent(out, EventLevelComplete))

	st := treasureState(e)
	assert.True(t, st.Found)
	assert.Equal(t, len(dirs), st.Moves)
	assert.Equal(t, e.GetConfig().Thresholds.Stars(float64(len(dirs))), e.GetStars())

	_, err := e.Act(Action{Type: ActionMove, Direction: grid.North}, testNow)
	assert.ErrorIs(t, err, ErrLevelComplete)
}

func TestTreasure_BlockedPressesCount(t *testing.T) {
	e := newTestEngine(t, "treasure", 42)

	out, err := e.Act(Action{Type: ActionMove, Direction: grid.East}, testNow)
	require.NoError(t, err)
	require.True(t, out.Accepted)
	out, err = e.Act(Action{Type: ActionMove, Direction: grid.South}, testNow)
	require.NoError(t, err)
	assert.False(t, out.Accepted, "there is a tree at (1,1)")
	assert.True(t, hasEvent(out, EventBlocked))

	st := treasureState(e)
	assert.Equal(t, grid.Cell{Col: 1}, st.Explorer)
	assert.Equal(t, 2, st.Moves)

	_, err = e.Act(Action{Type: ActionMove}, testNow)
	assert.ErrorIs(t, err, ErrInvalidAction)
}

func TestTreasure_MapRotates(t *testing.T) {
	e := newTestEngine(t, "treasure", 8)

	var out *Outcome
	for i := 0; i < 6; i++ {
		var err error
		out, err = e.Act(Action{Type: ActionMove, Direction: grid.West}, testNow)
		require.NoError(t, err)
		if i < 5 {
			assert.False(t, hasEvent(out, EventMapRotated))
		}
	}
	assert.True(t, hasEvent(out, EventMapRotated))

	st := treasureState(e)
	assert.Equal(t, 2, st.Stage)
	assert.Contains(t, []int{90, 180, 270}, st.Rotation)

	// It only spins once.
	out, err := e.Act(Action{Type: ActionMove, Direction: grid.West}, testNow)
	require.NoError(t, err)
	assert.False(t, hasEvent(out, EventMapRotated))
	assert.Equal(t, st.Rotation, treasureState(e).Rotation)
}
