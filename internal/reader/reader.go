// Package reader assembles existing vault content into the context blob
// the assistant uses to answer status questions. It never writes.
package reader

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/jfarrand/noted/internal/partition"
	"github.com/jfarrand/noted/internal/vault"
)

// Reader builds read-only context from a vault.
type Reader struct{}

func New() *Reader {
	return &Reader{}
}

// BuildContext collects the day's progress, the week's tasks, meetings and
// notes into one markdown blob. Missing folders contribute nothing.
func (r *Reader) BuildContext(v *vault.Vault, date time.Time) (string, error) {
	p := partition.Resolve(date)
	stamp := vault.DateStamp(date)

	var sections []string

	dailyRel := path.Join(p.Dir(partition.CategoryProgress), stamp+".md")
	if v.Exists(dailyRel) {
		daily, err := v.Read(dailyRel)
		if err != nil {
			return "", fmt.Errorf("read daily progress: %w", err)
		}
		sections = append(sections, "# Today's Progress\n\n"+daily)
	}

	for _, category := range []string{
		partition.CategoryTasks,
		partition.CategoryMeetings,
		partition.CategoryNotes,
	} {
		chunk, err := v.ReadDirMarkdown(p.Dir(category), "")
		if err != nil {
			return "", err
		}
		if chunk != "" {
			sections = append(sections, fmt.Sprintf("# This Week's %s\n\n%s", category, chunk))
		}
	}

	weeklyRel := path.Join(p.Dir(partition.CategoryProgress), "weekly-summary.md")
	if v.Exists(weeklyRel) {
		weekly, err := v.Read(weeklyRel)
		if err != nil {
			return "", fmt.Errorf("read weekly summary: %w", err)
		}
		sections = append(sections, "# Weekly Summary\n\n"+weekly)
	}

	return strings.Join(sections, "\n\n"), nil
}

// PendingTasks lists the unchecked checkbox items from the week's task
// files for the week containing date.
func (r *Reader) PendingTasks(v *vault.Vault, date time.Time) ([]string, error) {
	p := partition.Resolve(date)
	chunk, err := v.ReadDirMarkdown(p.Dir(partition.CategoryTasks), "")
	if err != nil {
		return nil, err
	}
	var tasks []string
	for _, line := range strings.Split(chunk, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "- [ ]") {
			tasks = append(tasks, strings.TrimSpace(strings.TrimPrefix(trimmed, "- [ ]")))
		}
	}
	return tasks, nil
}
