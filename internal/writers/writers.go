// Package writers holds the markdown writers behind the router: one per
// content category, each turning raw text into a structured vault file.
package writers

import (
	"context"
	"fmt"
	"strings"

	"github.com/jfarrand/noted/internal/llm"
	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/router"
)

// LLM is the structured-extraction surface the writers consume.
type LLM interface {
	OrganizeNote(ctx context.Context, raw string) (*llm.OrganizedNote, error)
	ExtractTasks(ctx context.Context, text string) ([]llm.TaskItem, error)
	SummarizeMeeting(ctx context.Context, raw string) (*llm.MeetingSummary, error)
	GenerateDaily(ctx context.Context, date string, done, blockers, next []string, context string) (*llm.DailyProgress, error)
	GenerateWeeklyProgress(ctx context.Context, context string) (*llm.WeeklyProgress, error)
	GenerateWeeklyReport(ctx context.Context, logs string) (*llm.WeeklyReport, error)
}

// All builds the full writer set keyed by target, ready for the router.
func All(l LLM) map[models.WriterKind]router.Writer {
	return map[models.WriterKind]router.Writer{
		models.WriterNotes:    NewNotes(l),
		models.WriterTasks:    NewTasks(l),
		models.WriterMeeting:  NewMeeting(l),
		models.WriterProgress: NewProgress(l),
		models.WriterReport:   NewReport(l),
	}
}

// bulletList renders items as a markdown bullet list, or a placeholder
// when empty.
func bulletList(items []string, empty string) string {
	if len(items) == 0 {
		return empty
	}
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString("- ")
		sb.WriteString(item)
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// joinBlocks joins markdown blocks with blank lines, skipping empties.
func joinBlocks(blocks []string) string {
	var kept []string
	for _, b := range blocks {
		if strings.TrimSpace(b) != "" {
			kept = append(kept, strings.TrimSpace(b))
		}
	}
	return strings.Join(kept, "\n\n")
}

// checkbox renders one task line in checkbox form.
func checkbox(t llm.TaskItem) string {
	mark := " "
	if strings.EqualFold(t.Status, "done") {
		mark = "x"
	}
	line := fmt.Sprintf("- [%s] %s", mark, t.Description)
	if t.DueDate != "" {
		line += fmt.Sprintf(" (due %s)", t.DueDate)
	}
	return line
}
