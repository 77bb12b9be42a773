package store

import (
	"context"
	"errors"

	"github.com/jfarrand/noted/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the persistence interface for noted.
type Store interface {
	// Profiles
	CreateProfile(ctx context.Context, p *models.Profile) error
	GetProfile(ctx context.Context, id string) (*models.Profile, error)
	GetActiveProfile(ctx context.Context) (*models.Profile, error)
	ListProfiles(ctx context.Context) ([]*models.Profile, error)
	UpdateProfile(ctx context.Context, p *models.Profile) error
	ActivateProfile(ctx context.Context, id string) (*models.Profile, error)

	// Chat sessions
	CreateChatSession(ctx context.Context, s *models.ChatSession) error
	GetChatSession(ctx context.Context, id string) (*models.ChatSession, error)
	LatestChatSession(ctx context.Context, profileID string) (*models.ChatSession, error)
	ListChatSessions(ctx context.Context, profileID string) ([]*models.ChatSession, error)
	TouchChatSession(ctx context.Context, id string) error

	// Messages
	AppendMessage(ctx context.Context, m *models.Message) error
	RecentMessages(ctx context.Context, sessionID string, limit int) ([]*models.Message, error)
	ClearMessages(ctx context.Context, sessionID string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
