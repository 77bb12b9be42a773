package assistant

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrand/noted/internal/llm"
	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/store"
)

// scriptedLLM satisfies the full LLM surface with canned results.
type scriptedLLM struct {
	classification models.Classification
}

func (s *scriptedLLM) Classify(_ context.Context, _, _ string) (models.Classification, error) {
	return s.classification, nil
}

func (s *scriptedLLM) Reply(_ context.Context, _, _ string) (string, error) {
	return "sure thing", nil
}

func (s *scriptedLLM) AnswerFrom(_ context.Context, _, _ string) (string, error) {
	return "per your notes", nil
}

func (s *scriptedLLM) OrganizeNote(_ context.Context, _ string) (*llm.OrganizedNote, error) {
	return &llm.OrganizedNote{Title: "Test Note", Summary: "s", CleanedMarkdown: "body"}, nil
}

func (s *scriptedLLM) ExtractTasks(_ context.Context, _ string) ([]llm.TaskItem, error) {
	return []llm.TaskItem{{Description: "do the thing", Status: "todo"}}, nil
}

func (s *scriptedLLM) SummarizeMeeting(_ context.Context, _ string) (*llm.MeetingSummary, error) {
	return &llm.MeetingSummary{Title: "Sync", Summary: "s"}, nil
}

func (s *scriptedLLM) GenerateDaily(_ context.Context, _ string, _, _, _ []string, _ string) (*llm.DailyProgress, error) {
	return &llm.DailyProgress{Summary: "good day"}, nil
}

func (s *scriptedLLM) GenerateWeeklyProgress(_ context.Context, _ string) (*llm.WeeklyProgress, error) {
	return &llm.WeeklyProgress{Summary: "good week"}, nil
}

func (s *scriptedLLM) GenerateWeeklyReport(_ context.Context, _ string) (*llm.WeeklyReport, error) {
	return &llm.WeeklyReport{Title: "Report", Summary: "s"}, nil
}

func setupTestAssistant(t *testing.T) (*Assistant, *scriptedLLM) {
	t.Helper()
	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "noted.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	require.NoError(t, st.Migrate(context.Background()))

	l := &scriptedLLM{classification: models.Classification{Intent: models.IntentConversation, Confidence: 0.9}}
	return New(st, l), l
}

func TestChatRequiresActiveProfile(t *testing.T) {
	a, _ := setupTestAssistant(t)

	_, err := a.Chat(context.Background(), "hello", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active profile")
}

func TestChatAgainstActiveProfile(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()

	_, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "", true)
	require.NoError(t, err)

	resp, err := a.Chat(ctx, "hello there", "")
	require.NoError(t, err)
	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Equal(t, "sure thing", resp.Message)

	history, err := a.History(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestDailySessionReused(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()
	_, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "", true)
	require.NoError(t, err)

	pc1, err := a.ActiveContext(ctx)
	require.NoError(t, err)
	pc2, err := a.ActiveContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, pc1.Session.ID, pc2.Session.ID, "same day must reuse the session")
}

func TestSwitchProfileDiscardsPending(t *testing.T) {
	a, l := setupTestAssistant(t)
	ctx := context.Background()

	work, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "work"), "", true)
	require.NoError(t, err)
	personal, err := a.CreateProfile(ctx, "Personal", filepath.Join(t.TempDir(), "personal"), "", false)
	require.NoError(t, err)

	// Park a pending action under the work profile.
	l.classification = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	resp, err := a.Chat(ctx, "save my meeting notes", "")
	require.NoError(t, err)
	require.Equal(t, models.ActionAsk, resp.Action)

	_, err = a.SwitchProfile(ctx, personal.ID)
	require.NoError(t, err)
	_, err = a.SwitchProfile(ctx, work.ID)
	require.NoError(t, err)

	// The pending action is gone: "confirm" is just a message now.
	l.classification = models.Classification{Intent: models.IntentConversation, Confidence: 0.9}
	resp, err = a.Chat(ctx, "confirm", "")
	require.NoError(t, err)
	assert.Equal(t, models.ActionTalk, resp.Action)
}

func TestProfilesAreIsolatedVaults(t *testing.T) {
	a, l := setupTestAssistant(t)
	ctx := context.Background()

	workVault := filepath.Join(t.TempDir(), "work")
	personalVault := filepath.Join(t.TempDir(), "personal")
	_, err := a.CreateProfile(ctx, "Work", workVault, "", true)
	require.NoError(t, err)
	personal, err := a.CreateProfile(ctx, "Personal", personalVault, "", false)
	require.NoError(t, err)

	l.classification = models.Classification{Intent: models.IntentCommand, Confidence: 0.9}
	res, err := a.OrganizeNote(ctx, "work note text", "", "2026-02-03")
	require.NoError(t, err)
	require.Len(t, res.Files, 1)

	_, err = a.SwitchProfile(ctx, personal.ID)
	require.NoError(t, err)

	pc, err := a.ActiveContext(ctx)
	require.NoError(t, err)
	assert.False(t, pc.Vault.Exists(res.Files[0]), "note must not leak into the other profile's vault")
}

func TestDirectWriterOperations(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()
	_, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "", true)
	require.NoError(t, err)

	res, err := a.OrganizeNote(ctx, "raw", "Ideas", "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, router.StatusSuccess, res.Status)

	res, err = a.ExtractTasks(ctx, "do the thing", "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, router.StatusSuccess, res.Status)

	res, err = a.SummarizeMeeting(ctx, "we met", "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, router.StatusSuccess, res.Status)

	res, err = a.DailyProgress(ctx, []string{"wrote code"}, nil, nil, "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, router.StatusSuccess, res.Status)

	res, err = a.WeeklyReport(ctx, "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, router.StatusSuccess, res.Status)

	rel, err := a.CacheDraft(ctx, "draft text", "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, "2026/02/Week-1/Progress/2026-02-03-draft-cache.md", rel)
}

func TestUpdateProfileKeepsUnsetFields(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()
	p, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "2026-01-01", true)
	require.NoError(t, err)

	got, err := a.UpdateProfile(ctx, p.ID, "Research", "", "")
	require.NoError(t, err)
	assert.Equal(t, "Research", got.DisplayName)
	assert.Equal(t, p.VaultRoot, got.VaultRoot)
	assert.Equal(t, "2026-01-01", got.StartDate)
}

func TestPendingTasksListsUncheckedItems(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()
	_, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "", true)
	require.NoError(t, err)

	_, err = a.ExtractTasks(ctx, "do the thing", "2026-02-03")
	require.NoError(t, err)

	tasks, err := a.PendingTasks(ctx, "2026-02-03")
	require.NoError(t, err)
	assert.Equal(t, []string{"do the thing"}, tasks)

	// A different week sees none of them.
	tasks, err = a.PendingTasks(ctx, "2026-02-10")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestClearSession(t *testing.T) {
	a, _ := setupTestAssistant(t)
	ctx := context.Background()
	_, err := a.CreateProfile(ctx, "Work", filepath.Join(t.TempDir(), "vault"), "", true)
	require.NoError(t, err)

	_, err = a.Chat(ctx, "hello", "")
	require.NoError(t, err)

	require.NoError(t, a.ClearSession(ctx))
	history, err := a.History(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
