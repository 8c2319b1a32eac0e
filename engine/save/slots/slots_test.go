package slots

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PtiCalin/simple-game-engine/engine/save"
	"github.com/PtiCalin/simple-game-engine/engine/state"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "slots.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	st.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return st
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestSaveAndLoadSlot(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	s := state.NewState()
	state.SetFlag(s, "met_gatekeeper", true)
	state.SetVar(s, "code", 42)
	state.SetScene(s, "ruins")

	slot, err := st.SaveSlot(ctx, 1, s)
	require.NoError(t, err)
	assert.Equal(t, "ruins", slot.SceneID)

	rec, meta, err := st.LoadSlot(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, meta.ID)
	assert.Equal(t, "ruins", meta.SceneID)
	assert.Equal(t, slot.SavedAt, meta.SavedAt)

	s2 := state.NewState()
	save.Apply(s2, rec)
	assert.True(t, state.GetFlag(s2, "met_gatekeeper"))
	assert.Equal(t, 42, s2.Variables["code"])
	assert.Equal(t, "ruins", s2.CurrentScene)
}

func TestSaveSlot_Overwrites(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)

	s := state.NewState()
	state.SetScene(s, "intro")
	_, err := st.SaveSlot(ctx, 2, s)
	require.NoError(t, err)

	state.SetScene(s, "garden")
	_, err = st.SaveSlot(ctx, 2, s)
	require.NoError(t, err)

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "garden", list[0].SceneID)
}

func TestLoadSlot_Missing(t *testing.T) {
	_, _, err := openTestStore(t).LoadSlot(context.Background(), 9)
	assert.ErrorIs(t, err, ErrSlotNotFound)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	s := state.NewState()

	for _, id := range []int{3, 1, 2} {
		_, err := st.SaveSlot(ctx, id, s)
		require.NoError(t, err)
	}
	require.NoError(t, st.DeleteSlot(ctx, 2))
	require.NoError(t, st.DeleteSlot(ctx, 7))

	list, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 1, list[0].ID)
	assert.Equal(t, 3, list[1].ID)
}

func TestCanceledContext(t *testing.T) {
	st := openTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.SaveSlot(ctx, 1, state.NewState())
	assert.ErrorIs(t, err, context.Canceled)
}
