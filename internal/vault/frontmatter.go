package vault

import (
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Frontmatter is the YAML header written at the top of every vault note.
type Frontmatter struct {
	Title   string   `yaml:"title"`
	Date    string   `yaml:"date"`
	Tags    []string `yaml:"tags,omitempty,flow"`
	Summary string   `yaml:"summary,omitempty"`
}

// NewFrontmatter builds a frontmatter block dated today.
func NewFrontmatter(title string, tags []string, summary string) Frontmatter {
	return Frontmatter{
		Title:   title,
		Date:    DateStamp(time.Now()),
		Tags:    tags,
		Summary: summary,
	}
}

// Render serializes the frontmatter between "---" fences.
func (f Frontmatter) Render() (string, error) {
	data, err := yaml.Marshal(f)
	if err != nil {
		return "", err
	}
	return "---\n" + strings.TrimRight(string(data), "\n") + "\n---", nil
}
