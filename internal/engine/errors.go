package engine

import "errors"

var (
	// ErrNoPendingAction is returned when a confirmation arrives with
	// nothing awaiting approval.
	ErrNoPendingAction = errors.New("no pending action")

	// ErrClassifierUnavailable marks a failed classification call. The
	// engine degrades to a plain conversational turn instead of failing.
	ErrClassifierUnavailable = errors.New("classifier unavailable")

	// ErrAmbiguousTarget marks a write command whose destination cannot
	// be determined from the message.
	ErrAmbiguousTarget = errors.New("ambiguous write target")

	// ErrWriteFailed marks a dispatch that reached a writer but did not
	// complete. The pending action is retained for retry.
	ErrWriteFailed = errors.New("write failed")
)
