package writers

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

// Tasks extracts actionable items and appends them as checkboxes to the
// day's task file.
type Tasks struct {
	llm LLM
}

func NewTasks(llm LLM) *Tasks {
	return &Tasks{llm: llm}
}

func (w *Tasks) Write(ctx context.Context, v *vault.Vault, op models.Operation) (router.Result, error) {
	tasks, err := w.llm.ExtractTasks(ctx, op.Text)
	if err != nil {
		return router.Result{}, fmt.Errorf("extract tasks: %w", err)
	}
	if len(tasks) == 0 {
		return router.Result{
			Status:  router.StatusPartial,
			Message: "I did not find any actionable tasks in that.",
			Reason:  "no tasks extracted",
		}, nil
	}

	p := partition.Resolve(op.Date)
	if _, err := v.EnsureWeek(p); err != nil {
		return router.Result{}, err
	}

	lines := make([]string, 0, len(tasks))
	for _, t := range tasks {
		lines = append(lines, checkbox(t))
	}
	rel, err := appendTaskLines(v, p, op.Date, lines)
	if err != nil {
		return router.Result{}, err
	}

	return router.Result{
		Status:  router.StatusSuccess,
		Actions: []string{fmt.Sprintf("extracted %d tasks", len(tasks))},
		Files:   []string{rel},
		Message: fmt.Sprintf("Added %d tasks to today's list.", len(tasks)),
	}, nil
}

// appendTaskLines writes checkbox lines into the day's task file, creating
// it with a heading when needed. The meeting writer reuses this to chain
// action items into the task list.
func appendTaskLines(v *vault.Vault, p partition.Partition, date time.Time, lines []string) (string, error) {
	stamp := vault.DateStamp(date)
	rel := path.Join(p.Dir(partition.CategoryTasks), fmt.Sprintf("%s-tasks.md", stamp))
	block := strings.Join(lines, "\n")
	if !v.Exists(rel) {
		content := fmt.Sprintf("# Tasks %s\n\n%s\n", stamp, block)
		return v.Write(rel, content)
	}
	return v.Append(rel, block)
}
