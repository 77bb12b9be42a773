package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

type fakeClassifier struct {
	result  models.Classification
	err     error
	calls   int
	entered chan struct{} // receives one send when Classify begins
	release chan struct{} // when set, Classify blocks until it closes
}

func (f *fakeClassifier) Classify(_ context.Context, _, _ string) (models.Classification, error) {
	f.calls++
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	return f.result, f.err
}

type fakeResponder struct {
	reply      string
	answer     string
	answerFrom int
}

func (f *fakeResponder) Reply(_ context.Context, _, _ string) (string, error) {
	return f.reply, nil
}

func (f *fakeResponder) AnswerFrom(_ context.Context, _, _ string) (string, error) {
	f.answerFrom++
	return f.answer, nil
}

type fakeDispatcher struct {
	result  router.Result
	err     error
	lastOp  models.Operation
	calls   int
	clearer router.Clearer
}

func (f *fakeDispatcher) Dispatch(_ context.Context, _ *vault.Vault, sessionID string, op models.Operation) (router.Result, error) {
	f.calls++
	f.lastOp = op
	if f.err != nil {
		return router.Result{Status: router.StatusFailed}, f.err
	}
	if f.clearer != nil {
		f.clearer.Clear(sessionID)
	}
	return f.result, nil
}

type memTranscript struct {
	messages []*models.Message
}

func (m *memTranscript) AppendMessage(_ context.Context, msg *models.Message) error {
	m.messages = append(m.messages, msg)
	return nil
}

func (m *memTranscript) RecentMessages(_ context.Context, sessionID string, limit int) ([]*models.Message, error) {
	var out []*models.Message
	for _, msg := range m.messages {
		if msg.SessionID == sessionID {
			out = append(out, msg)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

type fakeReader struct {
	context string
}

func (f *fakeReader) BuildContext(_ *vault.Vault, _ time.Time) (string, error) {
	return f.context, nil
}

type testEnv struct {
	engine     *Engine
	classifier *fakeClassifier
	responder  *fakeResponder
	dispatcher *fakeDispatcher
	transcript *memTranscript
	pc         ProfileContext
}

func setupTestEngine(t *testing.T) *testEnv {
	t.Helper()
	classifier := &fakeClassifier{}
	responder := &fakeResponder{reply: "hello back", answer: "from your notes"}
	pending := NewPendingStore()
	dispatcher := &fakeDispatcher{
		result:  router.Result{Status: router.StatusSuccess, Files: []string{"2026/02/Week-1/Notes/note.md"}},
		clearer: pending,
	}
	transcript := &memTranscript{}
	reader := &fakeReader{context: "## Tasks\n- [ ] review draft"}
	eng := New(transcript, classifier, responder, dispatcher, pending, reader)

	v := vault.New(t.TempDir())
	return &testEnv{
		engine:     eng,
		classifier: classifier,
		responder:  responder,
		dispatcher: dispatcher,
		transcript: transcript,
		pc: ProfileContext{
			Profile: &models.Profile{ID: "prof-1", DisplayName: "Work"},
			Session: &models.ChatSession{ID: "sess-1", ProfileID: "prof-1"},
			Vault:   v,
		},
	}
}

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestConversationNeverWrites(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentConversation, Confidence: 0.95}

	resp, err := env.engine.Handle(context.Background(), env.pc, "how are you today?", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Equal(t, "hello back", resp.Message)
	assert.Zero(t, env.dispatcher.calls, "conversation must not reach a writer")
	assert.Empty(t, resp.Files)
}

func TestCommandWithVerbWrites(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.92}

	resp, err := env.engine.Handle(context.Background(), env.pc, "save a note about the talk on attention models", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, 1, env.dispatcher.calls)
	assert.Equal(t, models.WriterNotes, env.dispatcher.lastOp.Writer)
	assert.Equal(t, []string{"2026/02/Week-1/Notes/note.md"}, resp.Files)
}

func TestCommandWithoutVerbTalksWithNotice(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.9}

	resp, err := env.engine.Handle(context.Background(), env.pc, "I finished the benchmark suite today", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Contains(t, resp.Notice, "No file was written")
	assert.Zero(t, env.dispatcher.calls)
}

func TestDeriveThenSaveItDispatchesProposal(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.9}
	ctx := context.Background()

	resp, err := env.engine.Handle(ctx, env.pc, "extract the tasks from that summary", day("2026-02-03"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionTalk, resp.Action, "bare extract is not a write verb")
	require.Zero(t, env.dispatcher.calls)

	resp, err = env.engine.Handle(ctx, env.pc, "save it", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, 1, env.dispatcher.calls)
	assert.Equal(t, models.WriterTasks, env.dispatcher.lastOp.Writer)

	_, ok := env.engine.Pending().Peek("sess-1")
	assert.False(t, ok)
}

func TestLowConfidenceDegradesToAsk(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}

	resp, err := env.engine.Handle(context.Background(), env.pc, "save my meeting notes from the sync", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAsk, resp.Action)
	assert.Equal(t, ReasonAwaiting, resp.Reason)
	assert.Zero(t, env.dispatcher.calls)

	_, ok := env.engine.Pending().Peek("sess-1")
	assert.True(t, ok, "ask must park a pending action")
}

func TestAmbiguousIntentAsks(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{
		Intent:   models.IntentAmbiguous,
		Question: "Should I save that as a task?",
	}

	resp, err := env.engine.Handle(context.Background(), env.pc, "the deadline moved to friday", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAsk, resp.Action)
	assert.Equal(t, "Should I save that as a task?", resp.Message)
	assert.Zero(t, env.dispatcher.calls)

	_, ok := env.engine.Pending().Peek("sess-1")
	assert.True(t, ok, "the ask must park the proposal it is asking about")
}

func TestAmbiguousAskThenYesDispatches(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{
		Intent:   models.IntentAmbiguous,
		Question: "Should I save that?",
	}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "jotted down an idea about caching embeddings", day("2026-02-03"))
	require.NoError(t, err)
	require.Zero(t, env.dispatcher.calls)

	resp, err := env.engine.Handle(ctx, env.pc, "yes", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, ReasonConfirmed, resp.Reason)
	assert.Equal(t, 1, env.dispatcher.calls)
	assert.Equal(t, models.WriterNotes, env.dispatcher.lastOp.Writer)
	assert.Equal(t, "Ideas", env.dispatcher.lastOp.Category)
}

func TestClassifierFailureDegradesToTalk(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.err = errors.New("api timeout")

	resp, err := env.engine.Handle(context.Background(), env.pc, "save everything", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Equal(t, ReasonClassifierDown, resp.Reason)
	assert.Equal(t, "degraded", resp.Status)
	assert.Zero(t, env.dispatcher.calls, "degraded mode must not write")
}

func TestConfirmDispatchesPendingAction(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "save my meeting notes from the sync", day("2026-02-03"))
	require.NoError(t, err)
	require.Zero(t, env.dispatcher.calls)

	resp, err := env.engine.Handle(ctx, env.pc, "confirm", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, ReasonConfirmed, resp.Reason)
	assert.Equal(t, 1, env.dispatcher.calls)
	assert.Equal(t, models.WriterMeeting, env.dispatcher.lastOp.Writer)

	_, ok := env.engine.Pending().Peek("sess-1")
	assert.False(t, ok, "confirmed action must be consumed")
}

func TestConfirmWithNothingPending(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentConversation, Confidence: 0.7}

	resp, err := env.engine.Handle(context.Background(), env.pc, "confirm", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Equal(t, ReasonNoPending, resp.Reason)
	assert.Zero(t, env.dispatcher.calls)
}

func TestCancelDiscardsPendingAction(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "save these task ideas", day("2026-02-03"))
	require.NoError(t, err)

	resp, err := env.engine.Handle(ctx, env.pc, "cancel", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Contains(t, resp.Message, "Nothing was saved")
	assert.Zero(t, env.dispatcher.calls)
	_, ok := env.engine.Pending().Peek("sess-1")
	assert.False(t, ok)
}

func TestEditRerunsDecisionOnRevisedText(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "save a note about the reading list", day("2026-02-03"))
	require.NoError(t, err)

	resp, err := env.engine.Handle(ctx, env.pc, "edit: save a task to finish the reading list", day("2026-02-03"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionAsk, resp.Action)
	assert.Equal(t, ReasonAwaiting, resp.Reason)

	pa, ok := env.engine.Pending().Peek("sess-1")
	require.True(t, ok)
	assert.Equal(t, models.WriterTasks, pa.Op.Writer)
	assert.Contains(t, pa.Op.Text, "finish the reading list")

	resp, err = env.engine.Handle(ctx, env.pc, "yes", day("2026-02-03"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, models.WriterTasks, env.dispatcher.lastOp.Writer)
}

func TestUnrelatedMessageDiscardsStalePending(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "save a note about quantization", day("2026-02-03"))
	require.NoError(t, err)

	env.classifier.result = models.Classification{Intent: models.IntentConversation, Confidence: 0.9}
	resp, err := env.engine.Handle(ctx, env.pc, "what do you think about the new paper?", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Contains(t, resp.Notice, "Discarded")
	_, ok := env.engine.Pending().Peek("sess-1")
	assert.False(t, ok, "stale pending action must be superseded")

	// A later "confirm" must not resurrect the discarded write.
	resp, err = env.engine.Handle(ctx, env.pc, "confirm", day("2026-02-03"))
	require.NoError(t, err)
	assert.Zero(t, env.dispatcher.calls)
}

func TestWriteFailureKeepsPendingAction(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	ctx := context.Background()

	_, err := env.engine.Handle(ctx, env.pc, "save my meeting notes", day("2026-02-03"))
	require.NoError(t, err)

	env.dispatcher.err = errors.New("disk full")
	resp, err := env.engine.Handle(ctx, env.pc, "confirm", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, string(router.StatusFailed), resp.Status)
	assert.Contains(t, resp.Message, "still pending")
	_, ok := env.engine.Pending().Peek("sess-1")
	assert.True(t, ok, "failed confirmed write must stay pending for retry")

	// Retry succeeds once the writer recovers.
	env.dispatcher.err = nil
	resp, err = env.engine.Handle(ctx, env.pc, "confirm", day("2026-02-03"))
	require.NoError(t, err)
	assert.Equal(t, models.ActionAct, resp.Action)
	assert.Equal(t, ReasonConfirmed, resp.Reason)
}

func TestAmbiguousTargetAsks(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.9}

	resp, err := env.engine.Handle(context.Background(), env.pc, "save this", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionAsk, resp.Action)
	assert.Zero(t, env.dispatcher.calls)
}

func TestStatusQuestionAnsweredFromVault(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentConversation, Confidence: 0.9}

	resp, err := env.engine.Handle(context.Background(), env.pc, "what did I get done this week?", day("2026-02-03"))
	require.NoError(t, err)

	assert.Equal(t, models.ActionTalk, resp.Action)
	assert.Equal(t, "from your notes", resp.Message)
	assert.Equal(t, 1, env.responder.answerFrom)
	assert.Zero(t, env.dispatcher.calls, "reading must never write")
}

func TestTranscriptRecordsBothSides(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentConversation, Confidence: 0.9}

	_, err := env.engine.Handle(context.Background(), env.pc, "hello", day("2026-02-03"))
	require.NoError(t, err)

	require.Len(t, env.transcript.messages, 2)
	assert.Equal(t, models.RoleUser, env.transcript.messages[0].Role)
	assert.Equal(t, models.RoleAssistant, env.transcript.messages[1].Role)
	assert.Equal(t, models.ActionTalk, env.transcript.messages[1].Action)
}

func TestProfileSwitchWaitsForInflightDecision(t *testing.T) {
	env := setupTestEngine(t)
	env.classifier.result = models.Classification{Intent: models.IntentCommand, Confidence: 0.4}
	env.classifier.entered = make(chan struct{}, 1)
	env.classifier.release = make(chan struct{})
	ctx := context.Background()

	handleDone := make(chan struct{})
	go func() {
		defer close(handleDone)
		_, err := env.engine.Handle(ctx, env.pc, "save my meeting notes", day("2026-02-03"))
		assert.NoError(t, err)
	}()
	<-env.classifier.entered

	// The switch must wait for the in-flight decision before discarding,
	// so the proposal that decision parks cannot survive the switch.
	switchDone := make(chan struct{})
	go func() {
		defer close(switchDone)
		release := env.engine.LockProfile("prof-1")
		defer release()
		env.engine.Pending().DiscardProfile("prof-1")
	}()

	select {
	case <-switchDone:
		t.Fatal("profile switch completed while a decision was still in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(env.classifier.release)
	<-handleDone
	<-switchDone

	_, ok := env.engine.Pending().Peek("sess-1")
	assert.False(t, ok, "proposal parked before the switch must be discarded by it")
}

func TestRouteTarget(t *testing.T) {
	tests := []struct {
		text     string
		kind     models.WriterKind
		category string
	}{
		{"save my meeting notes from the advisor sync", models.WriterMeeting, ""},
		{"generate my weekly report", models.WriterReport, ""},
		{"log my daily progress", models.WriterProgress, ""},
		{"extract the tasks from this", models.WriterTasks, ""},
		{"save this idea for the brainstorm", models.WriterNotes, "Ideas"},
	}
	for _, tt := range tests {
		kind, category, ok := routeTarget(tt.text)
		require.True(t, ok, tt.text)
		assert.Equal(t, tt.kind, kind, tt.text)
		assert.Equal(t, tt.category, category, tt.text)
	}

	_, _, ok := routeTarget("save what I learned about goroutines")
	assert.False(t, ok, "unmatched text falls through to the default notes target")
}

func TestHasWriteVerb(t *testing.T) {
	assert.True(t, hasWriteVerb("please save this note"))
	assert.True(t, hasWriteVerb("LOG my progress"))
	assert.False(t, hasWriteVerb("I saved money yesterday"), "verb must match on word boundary")
	assert.False(t, hasWriteVerb("that was a productive day"))
	assert.False(t, hasWriteVerb("extract tasks from this text"), "bare extract is a read request")
	assert.True(t, hasWriteVerb("extract and save the tasks"))
	assert.True(t, hasWriteVerb("generate the report for this week"))
}
