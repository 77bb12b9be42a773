package writers

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

// Progress writes the daily progress log and keeps the week's rolling
// summary up to date after every entry.
type Progress struct {
	llm LLM
}

func NewProgress(llm LLM) *Progress {
	return &Progress{llm: llm}
}

func (w *Progress) Write(ctx context.Context, v *vault.Vault, op models.Operation) (router.Result, error) {
	return w.WriteDaily(ctx, v, op.Date, []string{op.Text}, nil, nil)
}

// WriteDaily generates the day's progress entry from explicit inputs plus
// the week's existing vault content, then regenerates the weekly summary.
func (w *Progress) WriteDaily(ctx context.Context, v *vault.Vault, date time.Time, done, blockers, next []string) (router.Result, error) {
	p := partition.Resolve(date)
	if _, err := v.EnsureWeek(p); err != nil {
		return router.Result{}, err
	}
	stamp := vault.DateStamp(date)

	weekContext, err := weekContent(v, p)
	if err != nil {
		return router.Result{}, err
	}

	daily, err := w.llm.GenerateDaily(ctx, stamp, done, blockers, next, weekContext)
	if err != nil {
		return router.Result{}, fmt.Errorf("generate daily progress: %w", err)
	}

	content := fmt.Sprintf(`# Daily Progress %s

## Summary
%s

## Done
%s

## Blockers
%s

## Next Steps
%s

## Highlights
%s
`,
		stamp,
		daily.Summary,
		bulletList(daily.Done, "_Nothing logged._"),
		bulletList(daily.Blockers, "_None._"),
		bulletList(daily.NextSteps, "_None._"),
		bulletList(daily.Highlights, "_None._"),
	)

	rel := path.Join(p.Dir(partition.CategoryProgress), stamp+".md")
	if _, err := v.Write(rel, content); err != nil {
		return router.Result{}, err
	}

	result := router.Result{
		Status:  router.StatusSuccess,
		Actions: []string{"logged daily progress"},
		Files:   []string{rel},
		Message: fmt.Sprintf("Logged progress for %s.", stamp),
	}

	summaryRel, err := w.regenerateWeekly(ctx, v, p)
	if err != nil {
		result.Status = router.StatusPartial
		result.Reason = fmt.Sprintf("daily log saved but weekly summary failed: %v", err)
		return result, nil
	}
	result.Actions = append(result.Actions, "refreshed weekly summary")
	result.Files = append(result.Files, summaryRel)
	return result, nil
}

// regenerateWeekly rebuilds Progress/weekly-summary.md from the whole
// week's content.
func (w *Progress) regenerateWeekly(ctx context.Context, v *vault.Vault, p partition.Partition) (string, error) {
	weekContext, err := weekContent(v, p)
	if err != nil {
		return "", err
	}
	weekly, err := w.llm.GenerateWeeklyProgress(ctx, weekContext)
	if err != nil {
		return "", fmt.Errorf("generate weekly summary: %w", err)
	}

	content := fmt.Sprintf(`# Weekly Summary (%s)

## Summary
%s

## Accomplishments
%s

## Meetings
%s

## Tasks Completed
%s

## Tasks Pending
%s

## Blockers
%s

## Next Week
%s
`,
		p.Base(),
		weekly.Summary,
		bulletList(weekly.Accomplishments, "_None._"),
		bulletList(weekly.Meetings, "_None._"),
		bulletList(weekly.TasksCompleted, "_None._"),
		bulletList(weekly.TasksPending, "_None._"),
		bulletList(weekly.Blockers, "_None._"),
		bulletList(weekly.NextWeek, "_None planned._"),
	)

	rel := path.Join(p.Dir(partition.CategoryProgress), "weekly-summary.md")
	return v.Write(rel, content)
}

// WriteDraftCache persists raw unconfirmed text into a dated draft file so
// a browser crash cannot lose it. Only the explicit cache endpoint calls
// this; the chat flow never writes drafts on its own.
func (w *Progress) WriteDraftCache(v *vault.Vault, date time.Time, content string) (string, error) {
	p := partition.Resolve(date)
	if _, err := v.EnsureWeek(p); err != nil {
		return "", err
	}
	stamp := vault.DateStamp(date)
	rel := path.Join(p.Dir(partition.CategoryProgress), stamp+"-draft-cache.md")
	return v.Append(rel, content)
}

// weekContent concatenates every category's markdown for the partition.
func weekContent(v *vault.Vault, p partition.Partition) (string, error) {
	var parts []string
	for _, category := range partition.Categories {
		chunk, err := v.ReadDirMarkdown(p.Dir(category), "")
		if err != nil {
			return "", err
		}
		if chunk != "" {
			parts = append(parts, fmt.Sprintf("# %s\n\n%s", category, chunk))
		}
	}
	return joinBlocks(parts), nil
}
