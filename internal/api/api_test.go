package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrand/noted/internal/engine"
	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/store"
)

// fakeService scripts the assistant surface.
type fakeService struct {
	chatResp  *engine.Response
	chatErr   error
	lastText  string
	lastDate  string
	profiles  []*models.Profile
	active    *models.Profile
	result    router.Result
	cacheRel  string
	cleared   bool
	histories []*models.Message
	tasks     []string
}

func (f *fakeService) Chat(_ context.Context, text, date string) (*engine.Response, error) {
	f.lastText, f.lastDate = text, date
	return f.chatResp, f.chatErr
}

func (f *fakeService) History(_ context.Context, _ int) ([]*models.Message, error) {
	return f.histories, nil
}

func (f *fakeService) Sessions(_ context.Context) ([]*models.ChatSession, error) {
	return []*models.ChatSession{{ID: "sess-1"}}, nil
}

func (f *fakeService) ClearSession(_ context.Context) error {
	f.cleared = true
	return nil
}

func (f *fakeService) Profiles(_ context.Context) ([]*models.Profile, error) {
	return f.profiles, nil
}

func (f *fakeService) ActiveProfile(_ context.Context) (*models.Profile, error) {
	if f.active == nil {
		return nil, store.ErrNotFound
	}
	return f.active, nil
}

func (f *fakeService) CreateProfile(_ context.Context, name, vaultRoot, startDate string, activate bool) (*models.Profile, error) {
	if name == "" {
		return nil, errors.New("profile name is required")
	}
	p := &models.Profile{ID: "new", DisplayName: name, VaultRoot: vaultRoot, StartDate: startDate, Active: activate}
	f.profiles = append(f.profiles, p)
	return p, nil
}

func (f *fakeService) SwitchProfile(_ context.Context, id string) (*models.Profile, error) {
	for _, p := range f.profiles {
		if p.ID == id {
			f.active = p
			return p, nil
		}
	}
	return nil, store.ErrNotFound
}

func (f *fakeService) OrganizeNote(_ context.Context, text, category, date string) (router.Result, error) {
	f.lastText, f.lastDate = text, date
	return f.result, nil
}

func (f *fakeService) ExtractTasks(_ context.Context, text, date string) (router.Result, error) {
	f.lastText, f.lastDate = text, date
	return f.result, nil
}

func (f *fakeService) SummarizeMeeting(_ context.Context, text, date string) (router.Result, error) {
	f.lastText, f.lastDate = text, date
	return f.result, nil
}

func (f *fakeService) DailyProgress(_ context.Context, done, blockers, next []string, date string) (router.Result, error) {
	f.lastDate = date
	return f.result, nil
}

func (f *fakeService) CacheDraft(_ context.Context, content, date string) (string, error) {
	f.lastText, f.lastDate = content, date
	return f.cacheRel, nil
}

func (f *fakeService) WeeklyReport(_ context.Context, date string) (router.Result, error) {
	f.lastDate = date
	return f.result, nil
}

func (f *fakeService) PendingTasks(_ context.Context, date string) ([]string, error) {
	f.lastDate = date
	return f.tasks, nil
}

func setupTestServer(t *testing.T) (*fakeService, *httptest.Server) {
	t.Helper()
	svc := &fakeService{
		chatResp: &engine.Response{Status: "ok", Message: "hi", Action: models.ActionTalk},
		result:   router.Result{Status: router.StatusSuccess, Files: []string{"a.md"}},
		cacheRel: "2026/02/Week-1/Progress/2026-02-03-draft-cache.md",
	}
	ts := httptest.NewServer(NewServer(svc).Router())
	t.Cleanup(ts.Close)
	return svc, ts
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	return resp
}

func TestChatEndpoint(t *testing.T) {
	svc, ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/chat", map[string]string{"message": "hello", "date": "2026-02-03"})
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out engine.Response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "hi", out.Message)
	assert.Equal(t, "hello", svc.lastText)
	assert.Equal(t, "2026-02-03", svc.lastDate)
}

func TestChatRequiresMessage(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/chat", map[string]string{})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatServiceError(t *testing.T) {
	svc, ts := setupTestServer(t)
	svc.chatErr = errors.New("boom")

	resp := postJSON(t, ts.URL+"/api/v1/chat", map[string]string{"message": "x"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestActiveProfileNotFound(t *testing.T) {
	_, ts := setupTestServer(t)

	resp, err := http.Get(ts.URL + "/api/v1/profiles/active")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProfileCreateAndActivate(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/profiles", map[string]any{
		"name": "Work", "vault_root": "/tmp/vault", "activate": true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var p models.Profile
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	resp.Body.Close()

	resp = postJSON(t, ts.URL+"/api/v1/profiles/"+p.ID+"/activate", nil)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDirectWriteEndpoints(t *testing.T) {
	svc, ts := setupTestServer(t)

	for _, url := range []string{
		"/api/v1/notes/organize",
		"/api/v1/tasks/extract",
		"/api/v1/meetings/summarize",
	} {
		resp := postJSON(t, ts.URL+url, map[string]string{"text": "content", "date": "2026-02-03"})
		assert.Equal(t, http.StatusOK, resp.StatusCode, url)
		var res router.Result
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
		resp.Body.Close()
		assert.Equal(t, router.StatusSuccess, res.Status, url)

		// Empty text is rejected before touching the service.
		resp = postJSON(t, ts.URL+url, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, url)
		resp.Body.Close()
	}
	assert.Equal(t, "2026-02-03", svc.lastDate)
}

func TestCacheDraftEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/progress/cache", map[string]string{"text": "draft"})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "Draft cache created", out["reason"])
	assert.Contains(t, out["file"], "draft-cache.md")
}

func TestWeeklyReportEndpoint(t *testing.T) {
	_, ts := setupTestServer(t)

	resp := postJSON(t, ts.URL+"/api/v1/reports/weekly", map[string]string{"date": "2026-02-03"})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPendingTasksEndpoint(t *testing.T) {
	svc, ts := setupTestServer(t)
	svc.tasks = []string{"review PR", "book advisor sync"}

	resp, err := http.Get(ts.URL + "/api/v1/tasks/pending?date=2026-02-03")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Tasks []string `json:"tasks"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, []string{"review PR", "book advisor sync"}, body.Tasks)
	assert.Equal(t, "2026-02-03", svc.lastDate)
}

func TestClearHistoryEndpoint(t *testing.T) {
	svc, ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/v1/chat/history", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.True(t, svc.cleared)
}

func TestCORSPreflight(t *testing.T) {
	_, ts := setupTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/api/v1/chat", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}
