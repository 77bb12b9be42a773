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

// Report generates the formal weekly report under Reports/YYYY/MM from the
// week's daily progress logs.
type Report struct {
	llm LLM
}

func NewReport(llm LLM) *Report {
	return &Report{llm: llm}
}

func (w *Report) Write(ctx context.Context, v *vault.Vault, op models.Operation) (router.Result, error) {
	return w.Generate(ctx, v, op.Date)
}

// Generate builds a weekly report for the week containing date.
func (w *Report) Generate(ctx context.Context, v *vault.Vault, date time.Time) (router.Result, error) {
	p := partition.Resolve(date)

	logs, err := v.ReadDirMarkdown(p.Dir(partition.CategoryProgress), "")
	if err != nil {
		return router.Result{}, err
	}
	if logs == "" {
		// Fall back to anything the week holds so a report is still
		// possible when no daily logs were written.
		logs, err = weekContent(v, p)
		if err != nil {
			return router.Result{}, err
		}
	}
	if logs == "" {
		return router.Result{
			Status:  router.StatusPartial,
			Message: "There is nothing logged this week to report on yet.",
			Reason:  "empty week",
		}, nil
	}

	report, err := w.llm.GenerateWeeklyReport(ctx, logs)
	if err != nil {
		return router.Result{}, fmt.Errorf("generate weekly report: %w", err)
	}

	stamp := vault.DateStamp(date)
	fm := vault.NewFrontmatter(report.Title, []string{"weekly-report"}, report.Summary)
	fm.Date = stamp
	header, err := fm.Render()
	if err != nil {
		return router.Result{}, fmt.Errorf("render frontmatter: %w", err)
	}

	content := fmt.Sprintf(`%s

# %s

## Summary
%s

## Highlights
%s

## Challenges
%s

## Next Week
%s
`,
		header,
		report.Title,
		report.Summary,
		bulletList(report.Highlights, "_None._"),
		bulletList(report.Challenges, "_None._"),
		bulletList(report.NextWeek, "_None planned._"),
	)

	rel := path.Join(partition.ReportBase(date), fmt.Sprintf("%s-weekly-report.md", stamp))
	if _, err := v.Write(rel, content); err != nil {
		return router.Result{}, err
	}

	return router.Result{
		Status:  router.StatusSuccess,
		Actions: []string{"generated weekly report"},
		Files:   []string{rel},
		Message: fmt.Sprintf("Weekly report %q written.", report.Title),
	}, nil
}
