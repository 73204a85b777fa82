package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
	"github.com/emilyyejia/Pattern-and-Algebra/game/path"
)

func navState(e *GameEngine) LandmarkNavState {
	return e.GetState().Level.(LandmarkNavState)
}

func navTargets(st LandmarkNavState) []grid.Coordinate {
	return path.Path{
		Start:        st.Player.Position,
		Landmarks:    st.Landmarks,
		Scale:        st.Scale,
		Instructions: st.Instructions,
	}.Targets()
}

func TestLandmarkNav_Layout(t *testing.T) {
	g := grid.Spec{Rows: 7, Cols: 7}
	for seed := int64(1); seed <= 20; seed++ {
		st := navState(newTestEngine(t, "landmark-nav", seed))

		assert.Equal(t, playerStart, st.Player.Position)
		assert.Len(t, st.Landmarks, 5)
		assert.Len(t, st.Instructions, 10)
		for i := 1; i < len(st.Landmarks); i++ {
			assert.LessOrEqual(t, st.Landmarks[i-1].Label, st.Landmarks[i].Label, "landmarks are listed by label")
		}
		for i, target := range navTargets(st) {
			assert.True(t, g.InIntersectionBounds(target), "seed %d: step %d leaves the map at %s", seed, i, target)
		}
	}
}

func TestLandmarkNav_FollowPath(t *testing.T) {
	e := newTestEngine(t, "landmark-nav", 5)
	st := navState(e)
	targets := navTargets(st)

	nowhere := grid.Coordinate{Row: -5, Col: -5}
	out, err := e.Act(Action{Type: ActionClick, At: &nowhere}, st.StartedAt)
	require.NoError(t, err)
	assert.False(t, out.Accepted)
	assert.True(t, hasEvent(out, EventPenalty))
	assert.Equal(t, 2.0, navState(e).Penalty)

	finish := st.StartedAt.Add(50 * time.Second)
	for i, target := range targets {
		target := target
		out, err = e.Act(Action{Type: ActionClick, At: &target}, finish)
		require.NoError(t, err)
		require.True(t, out.Accepted, "step %d", i)
		assert.True(t, hasEvent(out, EventMoved))
		if i < len(targets)-1 {
			assert.Equal(t, st.Instructions[i+1].Text, out.Message)
		}
	}

	done := navState(e)
	assert.True(t, done.Completed)
	assert.Equal(t, len(targets), done.Current)
	assert.Equal(t, targets[len(targets)-1], done.Position)
	assert.InDelta(t, 52.0, done.Elapsed, 0.001)
	assert.Equal(t, 2, e.GetStars())
	assert.Equal(t, 1, done.WrongClicks)

	_, err = e.Act(Action{Type: ActionClick, At: &nowhere}, finish)
	assert.ErrorIs(t, err, ErrLevelComplete)
}

func TestLandmarkNav_FastRunGetsThreeStars(t *testing.T) {
	e := newTestEngine(t, "landmark-nav", 9)
	st := navState(e)
	for _, target := range navTargets(st) {
		target := target
		_, err := e.Act(Action{Type: ActionClick, At: &target}, st.StartedAt.Add(20*time.Second))
		require.NoError(t, err)
	}
	assert.True(t, e.IsCompleted())
	assert.Equal(t, 3, e.GetStars())
}

func TestLandmarkNav_InvalidActions(t *testing.T) {
	e := newTestEngine(t, "landmark-nav", 5)
	_, err := e.Act(Action{Type: ActionClick}, testNow)
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = e.Act(Action{Type: ActionMove, Direction: grid.North}, testNow)
	assert.ErrorIs(t, err, ErrInvalidAction)
	_, err = e.Expire(Effect{Kind: EffectSettle}, testNow)
	assert.ErrorIs(t, err, ErrInvalidAction)
}
