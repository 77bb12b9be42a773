package models

import "time"

// WriterKind names a writer capability the router can dispatch to.
type WriterKind string

const (
	WriterNotes    WriterKind = "notes"
	WriterTasks    WriterKind = "tasks"
	WriterMeeting  WriterKind = "meeting"
	WriterProgress WriterKind = "progress"
	WriterReport   WriterKind = "report"
)

// Operation is a resolved write proposal: which writer runs, with what
// content, routed to which day's partition.
type Operation struct {
	Writer   WriterKind
	Text     string
	Date     time.Time // zero means today
	Category string    // notes subfolder (Learning, Ideas, Meetings)
}

// PendingStatus tracks the lifecycle of a proposed write.
type PendingStatus string

const (
	PendingAwaiting  PendingStatus = "awaiting"
	PendingConfirmed PendingStatus = "confirmed"
	PendingDiscarded PendingStatus = "discarded"
)

// PendingAction is a proposed but unconfirmed write operation. At most one
// awaiting PendingAction exists per session; a new proposal supersedes any
// prior one.
type PendingAction struct {
	SessionID string
	ProfileID string
	Op        Operation
	Status    PendingStatus
	CreatedAt time.Time
}
