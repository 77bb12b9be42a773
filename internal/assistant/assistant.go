// Package assistant wires the decision engine, writers, and persistence
// into one profile-aware service used by the CLI, HTTP, and MCP surfaces.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jfarrand/noted/internal/engine"
	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/reader"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/store"
	"github.com/jfarrand/noted/internal/vault"
	"github.com/jfarrand/noted/internal/writers"
)

// LLM is the full model surface the assistant needs: classification and
// replies for the engine plus structured extraction for the writers.
type LLM interface {
	engine.Classifier
	engine.Responder
	writers.LLM
}

// Assistant is the profile-aware facade over the decision core.
type Assistant struct {
	store    store.Store
	engine   *engine.Engine
	pending  *engine.PendingStore
	writers  map[models.WriterKind]router.Writer
	progress *writers.Progress
	report   *writers.Report
	reader   *reader.Reader
	now      func() time.Time
}

// New builds a fully wired assistant over a store and model client.
func New(st store.Store, l LLM) *Assistant {
	pending := engine.NewPendingStore()
	set := writers.All(l)
	r := router.New(set, pending)
	rd := reader.New()
	eng := engine.New(st, l, l, r, pending, rd)
	return &Assistant{
		store:    st,
		engine:   eng,
		pending:  pending,
		writers:  set,
		progress: set[models.WriterProgress].(*writers.Progress),
		report:   set[models.WriterReport].(*writers.Report),
		reader:   rd,
		now:      time.Now,
	}
}

// ActiveContext resolves the active profile, its vault, and today's chat
// session, creating the session on the first message of a new day.
func (a *Assistant) ActiveContext(ctx context.Context) (engine.ProfileContext, error) {
	profile, err := a.store.GetActiveProfile(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return engine.ProfileContext{}, fmt.Errorf("no active profile; create one with \"noted profile create\"")
		}
		return engine.ProfileContext{}, fmt.Errorf("resolve active profile: %w", err)
	}

	v := vault.New(profile.VaultRoot)
	if err := v.Ensure(); err != nil {
		return engine.ProfileContext{}, err
	}

	session, err := a.dailySession(ctx, profile.ID)
	if err != nil {
		return engine.ProfileContext{}, err
	}
	return engine.ProfileContext{Profile: profile, Session: session, Vault: v}, nil
}

// dailySession returns today's session for a profile, creating it if the
// latest one is from an earlier day.
func (a *Assistant) dailySession(ctx context.Context, profileID string) (*models.ChatSession, error) {
	today := a.now().Format("2006-01-02")
	session, err := a.store.LatestChatSession(ctx, profileID)
	if err == nil && session.Day == today {
		return session, nil
	}
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	session = &models.ChatSession{ProfileID: profileID, Day: today}
	if err := a.store.CreateChatSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return session, nil
}

// Chat runs one message through the decision engine against the active
// profile. date is an optional YYYY-MM-DD override for backfilling.
func (a *Assistant) Chat(ctx context.Context, text, date string) (*engine.Response, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	return a.engine.Handle(ctx, pc, text, partition.ParseDate(date))
}

// History returns the recent transcript of the active profile's session.
func (a *Assistant) History(ctx context.Context, limit int) ([]*models.Message, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.RecentMessages(ctx, pc.Session.ID, limit)
}

// ClearSession wipes the active session's transcript and any pending
// action, leaving the vault untouched.
func (a *Assistant) ClearSession(ctx context.Context) error {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return err
	}
	a.pending.Discard(pc.Session.ID)
	return a.store.ClearMessages(ctx, pc.Session.ID)
}

// Sessions lists the active profile's chat sessions, newest first.
func (a *Assistant) Sessions(ctx context.Context) ([]*models.ChatSession, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	return a.store.ListChatSessions(ctx, pc.Profile.ID)
}

// --- Profile lifecycle ---

// CreateProfile registers a profile and prepares its vault on disk.
func (a *Assistant) CreateProfile(ctx context.Context, name, vaultRoot, startDate string, activate bool) (*models.Profile, error) {
	if name == "" {
		return nil, fmt.Errorf("profile name is required")
	}
	if vaultRoot == "" {
		return nil, fmt.Errorf("vault root is required")
	}
	if startDate == "" {
		startDate = a.now().Format("2006-01-02")
	}
	p := &models.Profile{
		DisplayName: name,
		VaultRoot:   vaultRoot,
		StartDate:   startDate,
		Active:      activate,
	}
	if err := a.store.CreateProfile(ctx, p); err != nil {
		return nil, err
	}
	if err := vault.New(vaultRoot).Ensure(); err != nil {
		return nil, fmt.Errorf("prepare vault: %w", err)
	}
	return p, nil
}

// SwitchProfile activates another profile. Pending actions of the
// previously active profile are discarded so a later "confirm" can never
// write into the wrong vault. The switch waits for in-flight decisions on
// the outgoing profile, so none of them can park a proposal after the
// discard.
func (a *Assistant) SwitchProfile(ctx context.Context, id string) (*models.Profile, error) {
	if prev, err := a.store.GetActiveProfile(ctx); err == nil {
		release := a.engine.LockProfile(prev.ID)
		defer release()
		a.pending.DiscardProfile(prev.ID)
	}
	return a.store.ActivateProfile(ctx, id)
}

// UpdateProfile changes a profile's display name, vault root, or start
// date. Empty fields are left as they are; a new vault root is prepared
// on disk.
func (a *Assistant) UpdateProfile(ctx context.Context, id, name, vaultRoot, startDate string) (*models.Profile, error) {
	p, err := a.store.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if name != "" {
		p.DisplayName = name
	}
	if vaultRoot != "" {
		p.VaultRoot = vaultRoot
		if err := vault.New(vaultRoot).Ensure(); err != nil {
			return nil, fmt.Errorf("prepare vault: %w", err)
		}
	}
	if startDate != "" {
		p.StartDate = startDate
	}
	if err := a.store.UpdateProfile(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Profiles lists all registered profiles.
func (a *Assistant) Profiles(ctx context.Context) ([]*models.Profile, error) {
	return a.store.ListProfiles(ctx)
}

// ActiveProfile returns the currently active profile.
func (a *Assistant) ActiveProfile(ctx context.Context) (*models.Profile, error) {
	return a.store.GetActiveProfile(ctx)
}

// --- Direct writer operations ---
//
// These bypass classification: invoking them IS the explicit write
// permission. They still route through the category writers so the vault
// shapes stay identical to the chat path.

func (a *Assistant) dispatchDirect(ctx context.Context, kind models.WriterKind, op models.Operation) (router.Result, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return router.Result{}, err
	}
	w, ok := a.writers[kind]
	if !ok {
		return router.Result{}, fmt.Errorf("no writer for %q", kind)
	}
	op.Writer = kind
	if op.Date.IsZero() {
		op.Date = a.now()
	}
	return w.Write(ctx, pc.Vault, op)
}

// OrganizeNote cleans and saves raw text as a note.
func (a *Assistant) OrganizeNote(ctx context.Context, text, category, date string) (router.Result, error) {
	return a.dispatchDirect(ctx, models.WriterNotes, models.Operation{
		Text: text, Category: category, Date: partition.ParseDate(date),
	})
}

// ExtractTasks pulls tasks out of text into the day's task list.
func (a *Assistant) ExtractTasks(ctx context.Context, text, date string) (router.Result, error) {
	return a.dispatchDirect(ctx, models.WriterTasks, models.Operation{
		Text: text, Date: partition.ParseDate(date),
	})
}

// SummarizeMeeting saves a structured meeting recap.
func (a *Assistant) SummarizeMeeting(ctx context.Context, text, date string) (router.Result, error) {
	return a.dispatchDirect(ctx, models.WriterMeeting, models.Operation{
		Text: text, Date: partition.ParseDate(date),
	})
}

// DailyProgress logs the day's progress from explicit inputs.
func (a *Assistant) DailyProgress(ctx context.Context, done, blockers, next []string, date string) (router.Result, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return router.Result{}, err
	}
	return a.progress.WriteDaily(ctx, pc.Vault, partition.ParseDate(date), done, blockers, next)
}

// CacheDraft persists unconfirmed draft text so it cannot be lost.
func (a *Assistant) CacheDraft(ctx context.Context, content, date string) (string, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return "", err
	}
	return a.progress.WriteDraftCache(pc.Vault, partition.ParseDate(date), content)
}

// PendingTasks lists the unchecked task items for the week containing date.
func (a *Assistant) PendingTasks(ctx context.Context, date string) ([]string, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return nil, err
	}
	return a.reader.PendingTasks(pc.Vault, partition.ParseDate(date))
}

// WeeklyReport generates the formal report for the week containing date.
func (a *Assistant) WeeklyReport(ctx context.Context, date string) (router.Result, error) {
	pc, err := a.ActiveContext(ctx)
	if err != nil {
		return router.Result{}, err
	}
	return a.report.Generate(ctx, pc.Vault, partition.ParseDate(date))
}
