package taskgen

import (
	"fmt"
	"strings"

	"github.com/jorge-barreto/taigagen/internal/gitlog"
)

// Meta is the provenance appended to an item description.
type Meta struct {
	Source  string
	Date    string
	Author  string
	Commits []gitlog.Commit
	Files   []string
}

// Describe appends the metadata blocks that are present to base.
func Describe(base string, m Meta) string {
	var b strings.Builder
	b.WriteString(base)
	if m.Source != "" {
		b.WriteString("\n\n**Source:** " + m.Source)
	}
	if m.Date != "" {
		b.WriteString("\n**Date:** " + m.Date)
	}
	if m.Author != "" {
		b.WriteString("\n**Author:** " + m.Author)
	}
	if len(m.Commits) > 0 {
		b.WriteString("\n\n**Related Commits:**\n")
		for _, c := range m.Commits {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", c.Hash, c.Date, c.Message)
		}
	}
	if len(m.Files) > 0 {
		b.WriteString("\n\n**Related Files:**\n")
		for _, f := range m.Files {
			b.WriteString("- " + f + "\n")
		}
	}
	return b.String()
}

// Hashes returns the commit hashes, for Item.Commits.
func Hashes(commits []gitlog.Commit) []string {
	out := make([]string, len(commits))
	for i, c := range commits {
		out[i] = c.Hash
	}
	return out
}

var (
	highPriorityKeywords   = []string{"critical", "urgent", "security", "bug", "fix"}
	mediumPriorityKeywords = []string{"feature", "enhancement", "improvement"}
)

// Tagger derives tags for items of one project.
type Tagger struct {
	// Framework is the detected framework label; empty or "Unknown" adds no tag.
	Framework string
}

// Tags returns [kind, framework?, priority] for content.
func (t Tagger) Tags(content, kind string) []string {
	tags := []string{kind}
	if t.Framework != "" && t.Framework != "Unknown" {
		tags = append(tags, strings.ToLower(t.Framework))
	}
	return append(tags, priority(content))
}

func priority(content string) string {
	lower := strings.ToLower(content)
	switch {
	case containsAny(lower, highPriorityKeywords):
		return "high-priority"
	case containsAny(lower, mediumPriorityKeywords):
		return "medium-priority"
	default:
		return "low-priority"
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DetermineStatus is the fallback status heuristic: anything backed by git
// history is done, everything else is new.
func DetermineStatus(it Item) Status {
	if it.Source == SourceGit || len(it.Commits) > 0 {
		return StatusCompleted
	}
	return StatusNew
}
