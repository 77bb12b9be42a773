// Package router dispatches confirmed write operations to the markdown
// writer responsible for their target category.
package router

import (
	"context"
	"fmt"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/vault"
)

// Status reports how a dispatch ended.
type Status string

const (
	StatusSuccess Status = "success"
	StatusPartial Status = "partial"
	StatusFailed  Status = "failed"
)

// Result is the envelope every writer returns.
type Result struct {
	Status  Status   `json:"status"`
	Actions []string `json:"actions,omitempty"`
	Files   []string `json:"files,omitempty"`
	Message string   `json:"message,omitempty"`
	Reason  string   `json:"reason,omitempty"`
}

// Writer persists one category of content into a vault.
type Writer interface {
	Write(ctx context.Context, v *vault.Vault, op models.Operation) (Result, error)
}

// Clearer removes pending state for a session after a successful write.
type Clearer interface {
	Clear(sessionID string)
}

// Router maps operation targets to writers.
type Router struct {
	writers map[models.WriterKind]Writer
	pending Clearer
}

// New creates a router over the given writer set.
func New(writers map[models.WriterKind]Writer, pending Clearer) *Router {
	return &Router{writers: writers, pending: pending}
}

// Dispatch routes an operation to its writer. On success or partial
// success the session's pending state is cleared; on failure it is left in
// place so the user can retry.
func (r *Router) Dispatch(ctx context.Context, v *vault.Vault, sessionID string, op models.Operation) (Result, error) {
	w, ok := r.writers[op.Writer]
	if !ok {
		return Result{Status: StatusFailed, Reason: "no writer for target"},
			fmt.Errorf("no writer registered for %q", op.Writer)
	}

	res, err := w.Write(ctx, v, op)
	if err != nil {
		if res.Status == "" {
			res.Status = StatusFailed
		}
		if res.Reason == "" {
			res.Reason = err.Error()
		}
		return res, err
	}
	if res.Status == "" {
		res.Status = StatusSuccess
	}
	if r.pending != nil {
		r.pending.Clear(sessionID)
	}
	return res, nil
}
