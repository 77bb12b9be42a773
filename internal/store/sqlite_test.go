package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrand/noted/internal/models"
)

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLiteStore(filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	require.NoError(t, s.Migrate(context.Background()))
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestProfileCRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &models.Profile{DisplayName: "Summer Research", VaultRoot: "/tmp/vault", Active: true}
	require.NoError(t, s.CreateProfile(ctx, p))
	assert.NotEmpty(t, p.ID)

	got, err := s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Summer Research", got.DisplayName)
	assert.True(t, got.Active)

	got.DisplayName = "Fall Research"
	require.NoError(t, s.UpdateProfile(ctx, got))
	got, err = s.GetProfile(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Fall Research", got.DisplayName)

	_, err = s.GetProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSingleActiveProfile(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	a := &models.Profile{DisplayName: "A", VaultRoot: "/tmp/a", Active: true}
	require.NoError(t, s.CreateProfile(ctx, a))
	b := &models.Profile{DisplayName: "B", VaultRoot: "/tmp/b", Active: true}
	require.NoError(t, s.CreateProfile(ctx, b))

	active, err := s.GetActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, b.ID, active.ID)

	profiles, err := s.ListProfiles(ctx)
	require.NoError(t, err)
	activeCount := 0
	for _, p := range profiles {
		if p.Active {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)

	switched, err := s.ActivateProfile(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, switched.Active)

	active, err = s.GetActiveProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.ID, active.ID)

	_, err = s.ActivateProfile(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatSessionLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &models.Profile{DisplayName: "A", VaultRoot: "/tmp/a", Active: true}
	require.NoError(t, s.CreateProfile(ctx, p))

	_, err := s.LatestChatSession(ctx, p.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	first := &models.ChatSession{ProfileID: p.ID, Day: "2026-02-03"}
	require.NoError(t, s.CreateChatSession(ctx, first))
	second := &models.ChatSession{ProfileID: p.ID, Day: "2026-02-04"}
	require.NoError(t, s.CreateChatSession(ctx, second))
	require.NoError(t, s.TouchChatSession(ctx, second.ID))

	latest, err := s.LatestChatSession(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, latest.ID)

	sessions, err := s.ListChatSessions(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, sessions, 2)
}

func TestMessagesAppendOnlyOrdered(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	p := &models.Profile{DisplayName: "A", VaultRoot: "/tmp/a", Active: true}
	require.NoError(t, s.CreateProfile(ctx, p))
	cs := &models.ChatSession{ProfileID: p.ID}
	require.NoError(t, s.CreateChatSession(ctx, cs))

	for _, content := range []string{"one", "two", "three"} {
		require.NoError(t, s.AppendMessage(ctx, &models.Message{
			SessionID: cs.ID,
			ProfileID: p.ID,
			Role:      models.RoleUser,
			Content:   content,
		}))
	}
	require.NoError(t, s.AppendMessage(ctx, &models.Message{
		SessionID: cs.ID,
		ProfileID: p.ID,
		Role:      models.RoleAssistant,
		Content:   "done",
		Intent:    models.IntentCommand,
		Action:    models.ActionAct,
		Reason:    "Confirmed permission",
		Files:     []string{"2026/02/Week-1/Tasks/2026-02-03-tasks.md"},
	}))

	messages, err := s.RecentMessages(ctx, cs.ID, 10)
	require.NoError(t, err)
	require.Len(t, messages, 4)
	assert.Equal(t, "one", messages[0].Content)
	assert.Equal(t, "done", messages[3].Content)
	assert.Equal(t, models.ActionAct, messages[3].Action)
	assert.Equal(t, []string{"2026/02/Week-1/Tasks/2026-02-03-tasks.md"}, messages[3].Files)

	// Limit keeps the newest messages, still in chronological order.
	tail, err := s.RecentMessages(ctx, cs.ID, 2)
	require.NoError(t, err)
	require.Len(t, tail, 2)
	assert.Equal(t, "three", tail[0].Content)
	assert.Equal(t, "done", tail[1].Content)

	require.NoError(t, s.ClearMessages(ctx, cs.ID))
	messages, err = s.RecentMessages(ctx, cs.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, messages)
}
