package models

import "time"

// Profile is a scoping boundary: every session, message, and vault write
// belongs to exactly one profile. At most one profile is active at a time.
type Profile struct {
	ID          string
	DisplayName string
	VaultRoot   string
	StartDate   string // YYYY-MM-DD, informational
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
