package writers

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/jfarrand/noted/internal/models"
	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/router"
	"github.com/jfarrand/noted/internal/vault"
)

// Notes organizes raw text into a cleaned markdown note under the week's
// Notes folder.
type Notes struct {
	llm LLM
}

func NewNotes(llm LLM) *Notes {
	return &Notes{llm: llm}
}

func (w *Notes) Write(ctx context.Context, v *vault.Vault, op models.Operation) (router.Result, error) {
	note, err := w.llm.OrganizeNote(ctx, op.Text)
	if err != nil {
		return router.Result{}, fmt.Errorf("organize note: %w", err)
	}

	p := partition.Resolve(op.Date)
	if _, err := v.EnsureWeek(p); err != nil {
		return router.Result{}, err
	}

	category := op.Category
	if category == "" {
		category = "Learning"
	}
	tags := append([]string{strings.ToLower(category)}, note.Tags...)

	fm := vault.NewFrontmatter(note.Title, tags, note.Summary)
	fm.Date = vault.DateStamp(op.Date)
	header, err := fm.Render()
	if err != nil {
		return router.Result{}, fmt.Errorf("render frontmatter: %w", err)
	}

	content := fmt.Sprintf("%s\n\n# %s\n\n%s\n", header, note.Title, strings.TrimSpace(note.CleanedMarkdown))

	rel := path.Join(p.Dir(partition.CategoryNotes),
		fmt.Sprintf("%s-%s.md", vault.DateStamp(op.Date), vault.Slugify(note.Title)))
	if _, err := v.Write(rel, content); err != nil {
		return router.Result{}, err
	}

	return router.Result{
		Status:  router.StatusSuccess,
		Actions: []string{"organized note"},
		Files:   []string{rel},
		Message: fmt.Sprintf("Saved note %q.", note.Title),
	}, nil
}
