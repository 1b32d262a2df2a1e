package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/DhairyaKakkar/navai-clarity-suite/api/schemas"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "state.db")
	st, err := New(context.Background(), path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestNewRejectsEmptyPath(t *testing.T) {
	_, err := New(context.Background(), "", zap.NewNop())
	assert.Error(t, err)
}

func TestLoadBeforeAnySaveReturnsNil(t *testing.T) {
	st := newTestStore(t)

	session, err := st.LoadSession(context.Background())
	require.NoError(t, err)
	assert.Nil(t, session)

	cfg, err := st.LoadLLMConfig(context.Background())
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestSessionRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	state := &schemas.SessionState{
		ID:     "sess-1",
		Goal:   "book a table",
		Mode:   schemas.ModeHeuristic,
		Active: true,
		Step:   3,
		Current: &schemas.GuidanceStep{
			StepNumber:    3,
			Action:        schemas.ActionClick,
			TargetLocator: "#confirm",
			Instruction:   `Click "Confirm"`,
		},
		History: []schemas.ActionRecord{
			{Step: 1, Action: schemas.ActionInput, TargetLocator: "#name", Text: "Full Name"},
			{Step: 2, Action: schemas.ActionInput, TargetLocator: "#phone", Text: "Phone"},
		},
		StartedAt: time.Now().UTC().Truncate(time.Second),
		UpdatedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, st.SaveSession(ctx, state))

	loaded, err := st.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, state.ID, loaded.ID)
	assert.Equal(t, state.Goal, loaded.Goal)
	assert.Equal(t, state.Step, loaded.Step)
	require.NotNil(t, loaded.Current)
	assert.Equal(t, "#confirm", loaded.Current.TargetLocator)
	assert.Len(t, loaded.History, 2)
}

func TestSaveReplacesWholesale(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, &schemas.SessionState{ID: "first", Step: 5}))
	require.NoError(t, st.SaveSession(ctx, &schemas.SessionState{ID: "second", Step: 1}))

	loaded, err := st.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "second", loaded.ID)
	assert.Equal(t, 1, loaded.Step)
}

func TestLLMConfigRoundTrip(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	cfg := &schemas.LLMConfig{
		Provider: schemas.ProviderAnthropic,
		APIKey:   "sk-test-not-a-real-key",
		Model:    "claude-sonnet-4-20250514",
	}
	require.NoError(t, st.SaveLLMConfig(ctx, cfg))

	loaded, err := st.LoadLLMConfig(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, cfg.Provider, loaded.Provider)
	assert.Equal(t, cfg.APIKey, loaded.APIKey)
	assert.Equal(t, cfg.Model, loaded.Model)
}

func TestRecordsAreIndependent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, st.SaveSession(ctx, &schemas.SessionState{ID: "sess"}))

	cfg, err := st.LoadLLMConfig(ctx)
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestReopenPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	ctx := context.Background()

	st, err := New(ctx, path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, st.SaveSession(ctx, &schemas.SessionState{ID: "durable"}))
	require.NoError(t, st.Close())

	st2, err := New(ctx, path, zap.NewNop())
	require.NoError(t, err)
	defer st2.Close()

	loaded, err := st2.LoadSession(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, "durable", loaded.ID)
}
