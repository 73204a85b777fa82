package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emilyyejia/Pattern-and-Algebra/game/engine"
	"github.com/emilyyejia/Pattern-and-Algebra/game/grid"
)

func TestManagerWithPersistence(t *testing.T) {
	persistence, err := NewFilePersistence(t.TempDir())
	require.NoError(t, err)
	manager := NewManagerWithPersistence(persistence)

	t.Run("create auto-saves", func(t *testing.T) {
		sess, err := manager.Create("auto1", "frog", createTestConfig(), 3)
		require.NoError(t, err)
		assert.True(t, persistence.Exists(sess.ID))

		loaded, err := persistence.Load(sess.ID)
		require.NoError(t, err)
		assert.Equal(t, sess.ID, loaded.ID)
		assert.Equal(t, "frog", loaded.ConfigID)
	})

	t.Run("save after an action", func(t *testing.T) {
		sess, err := manager.Get("auto1")
		require.NoError(t, err)
		sess.Lock()
		_, err = sess.Engine.Act(engine.Action{Type: engine.ActionMove, Direction: grid.East}, time.Now())
		require.NoError(t, err)
		require.NoError(t, manager.Save("auto1"))
		sess.Unlock()
	})

	t.Run("get loads from persistence", func(t *testing.T) {
		manager2 := NewManagerWithPersistence(persistence)
		sess, err := manager2.Get("AUTO1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", sess.ID)
		assert.Equal(t, 1, sess.Engine.GetState().TotalActions)
		assert.Equal(t, int64(3), sess.Engine.Seed())

		again, err := manager2.Get("auto1")
		require.NoError(t, err)
		assert.Same(t, sess, again, "loaded session should be cached")
	})

	t.Run("load all persisted sessions", func(t *testing.T) {
		_, err := manager.Create("auto2", "treasure", engine.DefaultConfig(engine.KindTreasure), 9)
		require.NoError(t, err)

		manager3 := NewManagerWithPersistence(persistence)
		require.NoError(t, manager3.LoadPersistedSessions())
		assert.Equal(t, 2, manager3.Count())
	})

	t.Run("save all sessions", func(t *testing.T) {
		assert.NoError(t, manager.SaveAllSessions())
	})

	t.Run("delete removes the file", func(t *testing.T) {
		require.NoError(t, manager.Delete("auto2"))
		assert.False(t, persistence.Exists("auto2"))
		_, err := manager.Get("auto2")
		assert.ErrorIs(t, err, ErrSessionNotFound)
	})

	t.Run("delete from memory keeps the file", func(t *testing.T) {
		require.NoError(t, manager.DeleteFromMemory("auto1"))
		assert.True(t, persistence.Exists("auto1"))

		sess, err := manager.Get("auto1")
		require.NoError(t, err)
		assert.Equal(t, "auto1", sess.ID)
	})

	t.Run("generated ids avoid persisted ones", func(t *testing.T) {
		manager4 := NewManagerWithPersistence(persistence)
		sess, err := manager4.Create("", "frog", createTestConfig(), 1)
		require.NoError(t, err)
		assert.NotEqual(t, "auto1", sess.ID)
	})
}
