package models

import "time"

// MessageRole identifies who authored a chat message.
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// ChatSession is one continuous conversation scope for a profile.
// A new session starts on the first message of a new day; old sessions
// are never deleted, only superseded.
type ChatSession struct {
	ID        string
	ProfileID string
	Day       string // YYYY-MM-DD the session was opened
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Message is one turn in a session. Append-only, ordered by insertion.
type Message struct {
	ID        int64
	SessionID string
	ProfileID string
	Role      MessageRole
	Content   string
	Intent    Intent
	Action    Action
	Reason    string
	Files     []string
	CreatedAt time.Time
}
