package writers

import (
	"context"
	"fmt"
	"path"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

// Meeting summarizes raw meeting notes into a structured recap and chains
// any action items into the day's task list.
type Meeting struct {
	llm LLM
}

func NewMeeting(llm LLM) *Meeting {
	return &Meeting{llm: llm}
}

func (w *Meeting) Write(ctx context.Context, v *vault.Vault, op models.Operation) (router.Result, error) {
	summary, err := w.llm.SummarizeMeeting(ctx, op.Text)
	if err != nil {
		return router.Result{}, fmt.Errorf("summarize meeting: %w", err)
	}

	p := partition.Resolve(op.Date)
	if _, err := v.EnsureWeek(p); err != nil {
		return router.Result{}, err
	}

	fm := vault.NewFrontmatter(summary.Title, []string{"meeting"}, summary.Summary)
	fm.Date = vault.DateStamp(op.Date)
	header, err := fm.Render()
	if err != nil {
		return router.Result{}, fmt.Errorf("render frontmatter: %w", err)
	}

	content := fmt.Sprintf(`%s

# %s

## Summary
%s

## Participants
%s

## Decisions
%s

## Action Items
%s
`,
		header,
		summary.Title,
		summary.Summary,
		bulletList(summary.Participants, "_None recorded._"),
		bulletList(summary.Decisions, "_None recorded._"),
		bulletList(summary.ActionItems, "_None._"),
	)

	rel := path.Join(p.Dir(partition.CategoryMeetings),
		fmt.Sprintf("%s-%s.md", vault.DateStamp(op.Date), vault.Slugify(summary.Title)))
	if _, err := v.Write(rel, content); err != nil {
		return router.Result{}, err
	}

	result := router.Result{
		Status:  router.StatusSuccess,
		Actions: []string{"summarized meeting"},
		Files:   []string{rel},
		Message: fmt.Sprintf("Saved meeting %q.", summary.Title),
	}

	// Action items become open tasks so they are not lost in the recap.
	if len(summary.ActionItems) > 0 {
		lines := make([]string, 0, len(summary.ActionItems))
		for _, item := range summary.ActionItems {
			lines = append(lines, fmt.Sprintf("- [ ] %s (from: %s)", item, summary.Title))
		}
		taskRel, err := appendTaskLines(v, p, op.Date, lines)
		if err != nil {
			result.Status = router.StatusPartial
			result.Reason = fmt.Sprintf("meeting saved but task chaining failed: %v", err)
			return result, nil
		}
		result.Actions = append(result.Actions, fmt.Sprintf("chained %d action items into tasks", len(summary.ActionItems)))
		result.Files = append(result.Files, taskRel)
	}
	return result, nil
}
