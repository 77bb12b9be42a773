// Package vault persists structured Markdown into a date-partitioned
// knowledge store on disk.
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/jfarrand/noted/internal/partition"
)

// staticDirs are created at the vault root regardless of date.
var staticDirs = []string{"Reports", "Templates"}

// Vault wraps a root directory holding the markdown knowledge store.
type Vault struct {
	root string
}

// New returns a Vault rooted at the given directory. Call Ensure before
// the first write.
func New(root string) *Vault {
	return &Vault{root: root}
}

// Root returns the vault's root directory.
func (v *Vault) Root() string {
	return v.root
}

// Ensure creates the vault root and its static folders.
func (v *Vault) Ensure() error {
	for _, dir := range append([]string{""}, staticDirs...) {
		if err := os.MkdirAll(filepath.Join(v.root, dir), 0755); err != nil {
			return fmt.Errorf("create vault directory %q: %w", dir, err)
		}
	}
	return nil
}

// EnsureWeek creates all category folders for a week partition and returns
// the relative base path.
func (v *Vault) EnsureWeek(p partition.Partition) (string, error) {
	for _, category := range partition.Categories {
		if err := os.MkdirAll(filepath.Join(v.root, p.Dir(category)), 0755); err != nil {
			return "", fmt.Errorf("create week folder %s: %w", p.Dir(category), err)
		}
	}
	return p.Base(), nil
}

// Write writes content to a relative path inside the vault, creating parent
// directories as needed. Returns the relative path back for result envelopes.
func (v *Vault) Write(rel string, content string) (string, error) {
	full := filepath.Join(v.root, rel)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return "", fmt.Errorf("create parent directory: %w", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("write %s: %w", rel, err)
	}
	return rel, nil
}

// Append appends content to an existing file, separated by a blank line,
// or creates the file if it does not exist.
func (v *Vault) Append(rel string, content string) (string, error) {
	full := filepath.Join(v.root, rel)
	existing, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return v.Write(rel, content)
		}
		return "", fmt.Errorf("read %s: %w", rel, err)
	}
	merged := strings.TrimRight(string(existing), "\n") + "\n\n" + content
	if err := os.WriteFile(full, []byte(merged), 0644); err != nil {
		return "", fmt.Errorf("append %s: %w", rel, err)
	}
	return rel, nil
}

// Read returns the content of a file inside the vault.
func (v *Vault) Read(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(v.root, rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// Exists reports whether a relative path exists in the vault.
func (v *Vault) Exists(rel string) bool {
	_, err := os.Stat(filepath.Join(v.root, rel))
	return err == nil
}

// ReadDirMarkdown concatenates all markdown files under a relative folder,
// each prefixed by a filename heading. Files whose name does not start with
// prefix are skipped when prefix is non-empty. The weekly summary is always
// excluded so regeneration never feeds on its own output.
func (v *Vault) ReadDirMarkdown(rel string, prefix string) (string, error) {
	folder := filepath.Join(v.root, rel)
	if _, err := os.Stat(folder); err != nil {
		return "", nil
	}
	var parts []string
	err := filepath.Walk(folder, func(p string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return err
		}
		name := info.Name()
		if !strings.HasSuffix(name, ".md") || strings.EqualFold(name, "weekly-summary.md") {
			return nil
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			return nil
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		parts = append(parts, fmt.Sprintf("## %s\n%s", name, string(data)))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("read folder %s: %w", rel, err)
	}
	return strings.Join(parts, "\n\n"), nil
}

var nonSlugChars = regexp.MustCompile(`[^a-zA-Z0-9\s-]`)
var slugSpaces = regexp.MustCompile(`\s+`)

// Slugify converts a title into a filesystem-safe slug. Empty input
// becomes "note".
func Slugify(text string) string {
	s := nonSlugChars.ReplaceAllString(text, "")
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugSpaces.ReplaceAllString(s, "-")
	if s == "" {
		return "note"
	}
	return s
}

// DateStamp formats a time as the vault's canonical YYYY-MM-DD stamp.
func DateStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
