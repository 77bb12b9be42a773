// Package engine decides, for every incoming chat message, whether to
// talk, act, or ask. It owns the explicit-permission rule: no vault file
// is ever written unless the message carries a write verb or confirms a
// pending action.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

// Classifier judges a message's intent.
type Classifier interface {
	Classify(ctx context.Context, text, history string) (models.Classification, error)
}

// Responder produces conversational replies.
type Responder interface {
	Reply(ctx context.Context, text, history string) (string, error)
	AnswerFrom(ctx context.Context, question, context string) (string, error)
}

// Dispatcher routes a confirmed operation to its writer.
type Dispatcher interface {
	Dispatch(ctx context.Context, v *vault.Vault, sessionID string, op models.Operation) (router.Result, error)
}

// Transcript persists the chat history the classifier sees.
type Transcript interface {
	AppendMessage(ctx context.Context, m *models.Message) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error)
}

// ContextBuilder assembles vault content for answering status questions.
type ContextBuilder interface {
	BuildContext(v *vault.Vault, date time.Time) (string, error)
}

// Profile-scoped inputs for one turn.
type ProfileContext struct {
	Profile *models.Profile
	Session *models.ChatSession
	Vault   *vault.Vault
}

// Response is the engine's answer for one message.
type Response struct {
	Status  string        `json:"status"`
	Message string        `json:"message"`
	Intent  models.Intent `json:"intent"`
	Action  models.Action `json:"action"`
	Reason  string        `json:"reason"`
	Actions []string      `json:"actions,omitempty"`
	Files   []string      `json:"files,omitempty"`
	Notice  string        `json:"notice,omitempty"`
}

const (
	historyWindow       = 10
	confidenceThreshold = 0.6
)

// Decision reasons surfaced to clients.
const (
	ReasonPermissionRequired = "Explicit write permission required"
	ReasonAwaiting           = "Awaiting confirmation"
	ReasonConfirmed          = "Confirmed permission"
	ReasonNoPending          = "No pending action"
	ReasonClassifierDown     = "Classifier unavailable"
)

// Engine is the decision core.
type Engine struct {
	transcript Transcript
	classifier Classifier
	responder  Responder
	dispatcher Dispatcher
	pending    *PendingStore
	reader     ContextBuilder

	mu       sync.Mutex
	sessions map[string]*sync.Mutex
	profiles map[string]*sync.RWMutex

	now func() time.Time
}

// New wires a decision engine. reader may be nil, in which case status
// questions get a plain conversational reply.
func New(transcript Transcript, classifier Classifier, responder Responder, dispatcher Dispatcher, pending *PendingStore, reader ContextBuilder) *Engine {
	return &Engine{
		transcript: transcript,
		classifier: classifier,
		responder:  responder,
		dispatcher: dispatcher,
		pending:    pending,
		reader:     reader,
		sessions:   make(map[string]*sync.Mutex),
		profiles:   make(map[string]*sync.RWMutex),
		now:        time.Now,
	}
}

// Pending exposes the pending-action store for profile lifecycle hooks.
func (e *Engine) Pending() *PendingStore {
	return e.pending
}

// sessionLock serializes turns within one chat session so a confirmation
// cannot race the message that created the pending action.
func (e *Engine) sessionLock(sessionID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.sessions[sessionID]
	if !ok {
		m = &sync.Mutex{}
		e.sessions[sessionID] = m
	}
	return m
}

// profileLock guards a profile's decisions against a concurrent profile
// switch. Decisions hold it shared, a switch holds it exclusively.
func (e *Engine) profileLock(profileID string) *sync.RWMutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	m, ok := e.profiles[profileID]
	if !ok {
		m = &sync.RWMutex{}
		e.profiles[profileID] = m
	}
	return m
}

// LockProfile blocks until no decision is in flight for the profile and
// holds off new ones until the returned release func runs. Used when
// switching profiles so a stale proposal cannot be parked after its
// pending actions were discarded.
func (e *Engine) LockProfile(profileID string) func() {
	l := e.profileLock(profileID)
	l.Lock()
	return l.Unlock
}

// Handle runs one message through the decision flow and records both sides
// of the turn in the transcript.
func (e *Engine) Handle(ctx context.Context, pc ProfileContext, text string, date time.Time) (*Response, error) {
	plock := e.profileLock(pc.Profile.ID)
	plock.RLock()
	defer plock.RUnlock()

	lock := e.sessionLock(pc.Session.ID)
	lock.Lock()
	defer lock.Unlock()

	if date.IsZero() {
		date = e.now()
	}

	history, err := e.history(ctx, pc.Session.ID)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}

	if err := e.transcript.AppendMessage(ctx, &models.Message{
		SessionID: pc.Session.ID,
		ProfileID: pc.Profile.ID,
		Role:      models.RoleUser,
		Content:   text,
	}); err != nil {
		return nil, fmt.Errorf("record message: %w", err)
	}

	var resp *Response
	if pa, ok := e.pending.Peek(pc.Session.ID); ok {
		resp = e.handlePending(ctx, pc, pa, text, history, date)
	} else {
		resp = e.handleFresh(ctx, pc, text, history, date)
	}

	if err := e.transcript.AppendMessage(ctx, &models.Message{
		SessionID: pc.Session.ID,
		ProfileID: pc.Profile.ID,
		Role:      models.RoleAssistant,
		Content:   resp.Message,
		Intent:    resp.Intent,
		Action:    resp.Action,
		Reason:    resp.Reason,
		Files:     resp.Files,
	}); err != nil {
		return nil, fmt.Errorf("record reply: %w", err)
	}
	return resp, nil
}

// handlePending resolves a turn while an action awaits confirmation.
func (e *Engine) handlePending(ctx context.Context, pc ProfileContext, pa *models.PendingAction, text, history string, date time.Time) *Response {
	if isConfirmation(text) {
		confirmed, err := e.pending.Resolve(pc.Session.ID)
		if err != nil {
			return &Response{
				Status:  "ok",
				Message: "There is nothing waiting for confirmation.",
				Intent:  models.IntentCommand,
				Action:  models.ActionTalk,
				Reason:  ReasonNoPending,
			}
		}
		return e.dispatch(ctx, pc, confirmed.Op, ReasonConfirmed, true)
	}

	if isCancellation(text) {
		e.pending.Discard(pc.Session.ID)
		return &Response{
			Status:  "ok",
			Message: "Okay, I discarded it. Nothing was saved.",
			Intent:  models.IntentCommand,
			Action:  models.ActionTalk,
			Reason:  "Pending action cancelled",
		}
	}

	if revised, ok := isEdit(text); ok {
		// The edited text replaces the proposal wholesale: discard and
		// decide again so no residue of the old operation survives.
		e.pending.Discard(pc.Session.ID)
		return e.handleFresh(ctx, pc, revised, history, date)
	}

	// An unrelated message supersedes the stale pending action rather
	// than nagging for a confirmation the user has moved past.
	e.pending.Discard(pc.Session.ID)
	resp := e.handleFresh(ctx, pc, text, history, date)
	resp.Notice = "Discarded the previously pending action."
	return resp
}

// handleFresh decides a turn with no pending state.
func (e *Engine) handleFresh(ctx context.Context, pc ProfileContext, text, history string, date time.Time) *Response {
	if isConfirmation(text) {
		return &Response{
			Status:  "ok",
			Message: "There is nothing waiting for confirmation. Tell me what you would like me to save.",
			Intent:  models.IntentCommand,
			Action:  models.ActionTalk,
			Reason:  ReasonNoPending,
		}
	}

	cls, err := e.classifier.Classify(ctx, text, history)
	if err != nil {
		return &Response{
			Status:  "degraded",
			Message: "I could not understand that right now. Nothing was saved; please try again.",
			Intent:  models.IntentConversation,
			Action:  models.ActionTalk,
			Reason:  ReasonClassifierDown,
		}
	}

	switch cls.Intent {
	case models.IntentConversation:
		return e.talk(ctx, pc, text, history, date, cls)

	case models.IntentCommand:
		if !hasWriteVerb(text) {
			// Derive-only turn. Stash the best-effort operation so a
			// follow-up "save it" can dispatch it without restating.
			if op, opErr := e.resolveOperation(text, date); opErr == nil {
				e.pending.Put(pc.Session.ID, pc.Profile.ID, op)
			}
			resp := e.talk(ctx, pc, text, history, date, cls)
			resp.Notice = "No file was written. Say something like \"save this\" if you want it stored."
			return resp
		}

		op, err := e.resolveOperation(text, date)
		if err != nil {
			return &Response{
				Status:  "ok",
				Message: "What would you like me to save, and where should it go? For example: \"save this as a note: ...\"",
				Intent:  models.IntentCommand,
				Action:  models.ActionAsk,
				Reason:  "Ambiguous write target",
			}
		}

		if cls.Confidence < confidenceThreshold {
			e.pending.Put(pc.Session.ID, pc.Profile.ID, op)
			return &Response{
				Status:  "ok",
				Message: fmt.Sprintf("It sounds like you want me to write to %s. Reply \"confirm\" to proceed or \"cancel\" to discard.", describeTarget(op)),
				Intent:  models.IntentCommand,
				Action:  models.ActionAsk,
				Reason:  ReasonAwaiting,
			}
		}

		return e.dispatch(ctx, pc, op, "Explicit write permission granted", false)

	default: // ambiguous
		// Park the best-effort operation so an affirmative reply can
		// dispatch it; an unresolvable message stays a plain question.
		reason := ReasonPermissionRequired
		if op, opErr := e.resolveOperation(text, date); opErr == nil {
			e.pending.Put(pc.Session.ID, pc.Profile.ID, op)
			reason = ReasonAwaiting
		}
		question := cls.Question
		if question == "" {
			question = "Do you want me to save that, or were you just telling me about it?"
		}
		return &Response{
			Status:  "ok",
			Message: question,
			Intent:  models.IntentAmbiguous,
			Action:  models.ActionAsk,
			Reason:  reason,
		}
	}
}

// talk produces a conversational reply, answering from vault content when
// the message reads like a status question.
func (e *Engine) talk(ctx context.Context, pc ProfileContext, text, history string, date time.Time, cls models.Classification) *Response {
	var reply string
	var err error
	if e.reader != nil && isStatusQuestion(text) {
		var vaultContext string
		vaultContext, err = e.reader.BuildContext(pc.Vault, date)
		if err == nil && vaultContext != "" {
			reply, err = e.responder.AnswerFrom(ctx, text, vaultContext)
		} else {
			reply, err = e.responder.Reply(ctx, text, history)
		}
	} else {
		reply, err = e.responder.Reply(ctx, text, history)
	}
	if err != nil {
		return &Response{
			Status:  "degraded",
			Message: "I could not come up with a reply just now. Nothing was saved.",
			Intent:  cls.Intent,
			Action:  models.ActionTalk,
			Reason:  ReasonClassifierDown,
		}
	}
	return &Response{
		Status:  "ok",
		Message: reply,
		Intent:  cls.Intent,
		Action:  models.ActionTalk,
		Reason:  cls.Reason,
	}
}

// dispatch hands an operation to the router and shapes the result. When a
// confirmed write fails the pending action is restored so the user can
// retry with another "confirm".
func (e *Engine) dispatch(ctx context.Context, pc ProfileContext, op models.Operation, reason string, confirmed bool) *Response {
	res, err := e.dispatcher.Dispatch(ctx, pc.Vault, pc.Session.ID, op)
	if err != nil {
		if confirmed {
			e.pending.Put(pc.Session.ID, pc.Profile.ID, op)
		}
		msg := "I could not complete the write. Nothing was saved"
		if confirmed {
			msg += "; the action is still pending, reply \"confirm\" to retry"
		}
		return &Response{
			Status:  string(router.StatusFailed),
			Message: msg + ".",
			Intent:  models.IntentCommand,
			Action:  models.ActionAct,
			Reason:  fmt.Sprintf("%s: %v", ErrWriteFailed, err),
		}
	}

	msg := res.Message
	if msg == "" {
		msg = fmt.Sprintf("Done. Saved to %s.", describeTarget(op))
	}
	return &Response{
		Status:  string(res.Status),
		Message: msg,
		Intent:  models.IntentCommand,
		Action:  models.ActionAct,
		Reason:  reason,
		Actions: res.Actions,
		Files:   res.Files,
	}
}

// resolveOperation builds the write operation for a command, routing it by
// keyword to a writer. Returns ErrAmbiguousTarget when the message has no
// content beyond the verb itself.
func (e *Engine) resolveOperation(text string, date time.Time) (models.Operation, error) {
	if !hasContentBeyondVerb(text) {
		return models.Operation{}, ErrAmbiguousTarget
	}
	op := models.Operation{Text: text, Date: date}
	if kind, category, ok := routeTarget(text); ok {
		op.Writer = kind
		op.Category = category
	} else {
		op.Writer = models.WriterNotes
		op.Category = "Learning"
	}
	return op, nil
}

// routeTarget maps command keywords to a writer, mirroring how people name
// the thing they want stored.
func routeTarget(text string) (models.WriterKind, string, bool) {
	lower := strings.ToLower(text)
	switch {
	case strings.Contains(lower, "meeting") || strings.Contains(lower, "advisor") || strings.Contains(lower, "sync"):
		return models.WriterMeeting, "", true
	case strings.Contains(lower, "report"):
		return models.WriterReport, "", true
	case strings.Contains(lower, "progress") || strings.Contains(lower, "daily"):
		return models.WriterProgress, "", true
	case strings.Contains(lower, "task") || strings.Contains(lower, "todo") || strings.Contains(lower, "to-do"):
		return models.WriterTasks, "", true
	case strings.Contains(lower, "idea") || strings.Contains(lower, "brainstorm"):
		return models.WriterNotes, "Ideas", true
	}
	return "", "", false
}

// hasContentBeyondVerb reports whether the message carries anything to
// save besides the write verb and filler.
func hasContentBeyondVerb(text string) bool {
	words := strings.Fields(strings.ToLower(text))
	content := 0
	for _, w := range words {
		w = strings.Trim(w, ".,!?:;")
		if w == "" || fillerWords[w] {
			continue
		}
		isVerb := false
		for _, v := range writeVerbs {
			if w == v {
				isVerb = true
				break
			}
		}
		if !isVerb {
			content++
		}
	}
	return content > 0
}

var fillerWords = map[string]bool{
	"this": true, "that": true, "it": true, "them": true,
	"please": true, "the": true, "a": true, "an": true,
	"my": true, "me": true, "for": true, "to": true,
	"can": true, "you": true, "now": true,
}

// statusTriggers mark reflective questions answerable from vault content.
var statusTriggers = []string{
	"what did i",
	"what have i",
	"what do i have",
	"what's on my",
	"whats on my",
	"show me",
	"my tasks",
	"my progress",
	"my notes",
	"my meetings",
	"this week",
	"today so far",
	"am i behind",
	"summary of",
}

func isStatusQuestion(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range statusTriggers {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// describeTarget names an operation's destination for user-facing text.
func describeTarget(op models.Operation) string {
	switch op.Writer {
	case models.WriterMeeting:
		return "your meeting notes"
	case models.WriterReport:
		return "your weekly report"
	case models.WriterProgress:
		return "your progress log"
	case models.WriterTasks:
		return "your task list"
	case models.WriterNotes:
		if op.Category != "" {
			return fmt.Sprintf("your %s notes", strings.ToLower(op.Category))
		}
		return "your notes"
	}
	return "your vault"
}

// history renders the recent transcript the way the classifier prompt
// expects it.
func (e *Engine) history(ctx context.Context, sessionID string) (string, error) {
	msgs, err := e.transcript.RecentMessages(ctx, sessionID, historyWindow)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, m := range msgs {
		sb.WriteString(string(m.Role))
		sb.WriteString(": ")
		sb.WriteString(m.Content)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}
