// Package partition maps calendar dates to the vault's date-scoped storage
// layout: year/month/week folders plus a content category.
package partition

import (
	"fmt"
	"path"
	"time"
)

// Content categories stored under a week folder.
const (
	CategoryNotes    = "Notes"
	CategoryTasks    = "Tasks"
	CategoryMeetings = "Meetings"
	CategoryProgress = "Progress"
)

// Categories lists every week-folder category in creation order.
var Categories = []string{CategoryMeetings, CategoryTasks, CategoryProgress, CategoryNotes}

// Partition is a date-derived storage bucket. It is a pure function of the
// date: the same date always yields the same partition.
type Partition struct {
	Year  int
	Month time.Month
	Week  int // 1-4 within the month
}

// Resolve maps a date to its partition. Weeks are 1-indexed within the
// month: days 1-7 are Week-1, 8-14 Week-2, 15-21 Week-3, and 22 through
// month end Week-4. Tail days past 28 stay in Week-4; there is no Week-5
// and no borrowing from adjacent months.
func Resolve(t time.Time) Partition {
	week := ((t.Day() - 1) / 7) + 1
	if week > 4 {
		week = 4
	}
	return Partition{Year: t.Year(), Month: t.Month(), Week: week}
}

// Base returns the relative week folder, e.g. "2026/02/Week-1".
func (p Partition) Base() string {
	return path.Join(fmt.Sprintf("%04d", p.Year), fmt.Sprintf("%02d", int(p.Month)), fmt.Sprintf("Week-%d", p.Week))
}

// Dir returns the relative folder for a content category within the
// partition, e.g. "2026/02/Week-1/Tasks".
func (p Partition) Dir(category string) string {
	return path.Join(p.Base(), category)
}

// ReportBase returns the relative month folder for weekly reports,
// e.g. "Reports/2026/02".
func ReportBase(t time.Time) string {
	return path.Join("Reports", fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())))
}

// ParseDate parses a YYYY-MM-DD date string. Empty or malformed input
// falls back to today rather than failing the whole turn.
func ParseDate(s string) time.Time {
	if s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
	}
	return time.Now()
}
