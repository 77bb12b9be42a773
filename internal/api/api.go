// Package api exposes the assistant over HTTP for local clients.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/jfarrand/noted/internal/engine"
	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/store"
)

// Service is the assistant surface the HTTP layer exposes.
type Service interface {
	Chat(ctx context.Context, text, date string) (*engine.Response, error)
	History(ctx context.Context, limit int) ([]*models.Message, error)
	Sessions(ctx context.Context) ([]*models.ChatSession, error)
	ClearSession(ctx context.Context) error

	Profiles(ctx context.Context) ([]*models.Profile, error)
	ActiveProfile(ctx context.Context) (*models.Profile, error)
	CreateProfile(ctx context.Context, name, vaultRoot, startDate string, activate bool) (*models.Profile, error)
	SwitchProfile(ctx context.Context, id string) (*models.Profile, error)

	OrganizeNote(ctx context.Context, text, category, date string) (router.Result, error)
	ExtractTasks(ctx context.Context, text, date string) (router.Result, error)
	SummarizeMeeting(ctx context.Context, text, date string) (router.Result, error)
	DailyProgress(ctx context.Context, done, blockers, next []string, date string) (router.Result, error)
	CacheDraft(ctx context.Context, content, date string) (string, error)
	WeeklyReport(ctx context.Context, date string) (router.Result, error)
	PendingTasks(ctx context.Context, date string) ([]string, error)
}

// Server provides the REST API handlers.
type Server struct {
	svc Service
}

// NewServer creates a new API server.
func NewServer(svc Service) *Server {
	return &Server{svc: svc}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/chat", s.chat)
	mux.HandleFunc("GET /api/v1/chat/history", s.history)
	mux.HandleFunc("DELETE /api/v1/chat/history", s.clearHistory)
	mux.HandleFunc("GET /api/v1/chat/sessions", s.listSessions)

	mux.HandleFunc("GET /api/v1/profiles", s.listProfiles)
	mux.HandleFunc("POST /api/v1/profiles", s.createProfile)
	mux.HandleFunc("GET /api/v1/profiles/active", s.activeProfile)
	mux.HandleFunc("POST /api/v1/profiles/{id}/activate", s.activateProfile)

	mux.HandleFunc("POST /api/v1/notes/organize", s.organizeNote)
	mux.HandleFunc("POST /api/v1/tasks/extract", s.extractTasks)
	mux.HandleFunc("POST /api/v1/meetings/summarize", s.summarizeMeeting)
	mux.HandleFunc("POST /api/v1/progress/daily", s.dailyProgress)
	mux.HandleFunc("POST /api/v1/progress/cache", s.cacheDraft)
	mux.HandleFunc("GET /api/v1/tasks/pending", s.pendingTasks)
	mux.HandleFunc("POST /api/v1/reports/weekly", s.weeklyReport)

	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

// --- Chat ---

type chatRequest struct {
	Message string `json:"message"`
	Date    string `json:"date,omitempty"`
}

func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}
	resp, err := s.svc.Chat(r.Context(), req.Message, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	msgs, err := s.svc.History(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) clearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.ClearSession(r.Context()); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.svc.Sessions(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// --- Profiles ---

type createProfileRequest struct {
	Name      string `json:"name"`
	VaultRoot string `json:"vault_root"`
	StartDate string `json:"start_date,omitempty"`
	Activate  bool   `json:"activate,omitempty"`
}

func (s *Server) listProfiles(w http.ResponseWriter, r *http.Request) {
	profiles, err := s.svc.Profiles(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profiles)
}

func (s *Server) createProfile(w http.ResponseWriter, r *http.Request) {
	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	p, err := s.svc.CreateProfile(r.Context(), req.Name, req.VaultRoot, req.StartDate, req.Activate)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) activeProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.ActiveProfile(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) activateProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.svc.SwitchProfile(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// --- Direct writer endpoints ---
//
// Calling one of these IS the explicit write permission; they skip the
// talk/act/ask decision entirely.

type writeRequest struct {
	Text     string `json:"text"`
	Category string `json:"category,omitempty"`
	Date     string `json:"date,omitempty"`
}

func (s *Server) organizeNote(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res, err := s.svc.OrganizeNote(r.Context(), req.Text, req.Category, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) extractTasks(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res, err := s.svc.ExtractTasks(r.Context(), req.Text, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) summarizeMeeting(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	res, err := s.svc.SummarizeMeeting(r.Context(), req.Text, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type dailyProgressRequest struct {
	Done     []string `json:"done,omitempty"`
	Blockers []string `json:"blockers,omitempty"`
	Next     []string `json:"next,omitempty"`
	Date     string   `json:"date,omitempty"`
}

func (s *Server) dailyProgress(w http.ResponseWriter, r *http.Request) {
	var req dailyProgressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res, err := s.svc.DailyProgress(r.Context(), req.Done, req.Blockers, req.Next, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) cacheDraft(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	rel, err := s.svc.CacheDraft(r.Context(), req.Text, req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"file":   rel,
		"reason": "Draft cache created",
	})
}

func (s *Server) pendingTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.svc.PendingTasks(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if tasks == nil {
		tasks = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

func (s *Server) weeklyReport(w http.ResponseWriter, r *http.Request) {
	var req writeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	res, err := s.svc.WeeklyReport(r.Context(), req.Date)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
