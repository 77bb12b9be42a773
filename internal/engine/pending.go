package engine

import (
	"sync"
	"time"

	"github.com/jfarrand/noted/internal/models"
)

// PendingStore holds at most one pending action per chat session, in
// memory. A pending action survives until it is confirmed, cancelled,
// superseded, or its profile is switched away.
type PendingStore struct {
	mu      sync.Mutex
	pending map[string]*models.PendingAction // keyed by session ID
}

// NewPendingStore creates an empty pending-action store.
func NewPendingStore() *PendingStore {
	return &PendingStore{
		pending: make(map[string]*models.PendingAction),
	}
}

// Put records a pending action for a session, replacing any prior one.
func (s *PendingStore) Put(sessionID, profileID string, op models.Operation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending[sessionID] = &models.PendingAction{
		SessionID: sessionID,
		ProfileID: profileID,
		Op:        op,
		Status:    models.PendingAwaiting,
		CreatedAt: time.Now(),
	}
}

// Peek returns the pending action for a session without consuming it.
func (s *PendingStore) Peek(sessionID string) (*models.PendingAction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pa, ok := s.pending[sessionID]
	return pa, ok
}

// Resolve consumes the pending action for a session, marking it confirmed.
// Returns ErrNoPendingAction when the session has nothing pending.
func (s *PendingStore) Resolve(sessionID string) (*models.PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pa, ok := s.pending[sessionID]
	if !ok {
		return nil, ErrNoPendingAction
	}
	delete(s.pending, sessionID)
	pa.Status = models.PendingConfirmed
	return pa, nil
}

// Discard drops any pending action for a session.
func (s *PendingStore) Discard(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pa, ok := s.pending[sessionID]; ok {
		pa.Status = models.PendingDiscarded
		delete(s.pending, sessionID)
	}
}

// DiscardProfile drops all pending actions belonging to a profile. Called
// on profile switch so stale confirmations can never write into the wrong
// vault.
func (s *PendingStore) DiscardProfile(profileID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, pa := range s.pending {
		if pa.ProfileID == profileID {
			pa.Status = models.PendingDiscarded
			delete(s.pending, id)
		}
	}
}

// Clear implements the router's Clearer so a successful dispatch removes
// the session's pending state.
func (s *PendingStore) Clear(sessionID string) {
	s.Discard(sessionID)
}
