// Package roadmap turns a markdown planning document into epics (one per
// "Phase N" heading), user stories (one per work-like #### section) and
// tasks (checkboxes, TODO lines and numbered action items).
//
// Segmentation is line based. Lines inside fenced code blocks never count
// as headings, bullets or action items.
package roadmap

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

const (
	maxPhaseBullets   = 8
	maxFeatureBullets = 5
	maxFeatures       = 15
	maxActionItems    = 20
	featureBodyCap    = 500
	codeExcerptCap    = 300
	minCandidateTitle = 10

	doneGlyph     = "✅"
	progressGlyph = "🚧"
)

// Generator implements taskgen.Generator over one roadmap file.
type Generator struct {
	Fs     afero.Fs
	Path   string
	Tagger taskgen.Tagger
}

// New returns a Generator reading path from the OS filesystem.
func New(path string, tagger taskgen.Tagger) *Generator {
	return &Generator{Fs: afero.NewOsFs(), Path: path, Tagger: tagger}
}

// Name implements taskgen.Generator.
func (g *Generator) Name() string { return "roadmap" }

// Generate implements taskgen.Generator. An unreadable file is an error.
func (g *Generator) Generate(ctx context.Context) (taskgen.Bundle, error) {
	data, err := afero.ReadFile(g.Fs, g.Path)
	if err != nil {
		return taskgen.Bundle{}, fmt.Errorf("reading roadmap %s: %w", g.Path, err)
	}
	lines := scan(string(data))
	return taskgen.Bundle{
		Epics:       g.phases(lines),
		UserStories: g.features(lines),
		Tasks:       g.actionItems(lines),
	}, nil
}

var (
	phaseRe    = regexp.MustCompile(`(?i)^[^\p{L}\d]*(phase \d+[^:]*):?\s*(.*)$`)
	phaseNumRe = regexp.MustCompile(`\d+`)
	goalRe     = regexp.MustCompile(`(?i)\*\*Goal:\*\*\s*(.+)`)
	timelineRe = regexp.MustCompile(`(?i)\*\*Timeline:\*\*\s*(.+)`)
)

type phaseHeading struct {
	index    int
	raw      string
	title    string
	subtitle string
}

// phaseHeadingAt matches "Phase N..." headings of level two or deeper.
func phaseHeadingAt(lines []line, i int) (phaseHeading, bool) {
	level, text, ok := heading(lines[i])
	if !ok || level < 2 {
		return phaseHeading{}, false
	}
	m := phaseRe.FindStringSubmatch(text)
	if m == nil {
		return phaseHeading{}, false
	}
	return phaseHeading{
		index:    i,
		raw:      text,
		title:    strings.TrimSpace(m[1]),
		subtitle: strings.TrimSpace(m[2]),
	}, true
}

// glyphStatus reads the completion glyph of a heading.
func glyphStatus(text string) taskgen.Status {
	switch {
	case strings.Contains(text, doneGlyph):
		return taskgen.StatusCompleted
	case strings.Contains(text, progressGlyph):
		return taskgen.StatusInProgress
	default:
		return taskgen.StatusNew
	}
}

func (g *Generator) phases(lines []line) []taskgen.Item {
	var headings []phaseHeading
	for i := range lines {
		if h, ok := phaseHeadingAt(lines, i); ok {
			headings = append(headings, h)
		}
	}

	var epics []taskgen.Item
	for n, h := range headings {
		end := len(lines)
		if n+1 < len(headings) {
			end = headings[n+1].index
		}
		body := lines[h.index+1 : end]

		title, ok := taskgen.SanitizeTitle(withSubtitle(h.title, h.subtitle))
		if !ok {
			continue
		}
		epics = append(epics, taskgen.Item{
			Kind:  taskgen.KindEpic,
			Title: title,
			Description: taskgen.Describe(phaseDescription(h.subtitle, body), taskgen.Meta{
				Source: "Roadmap Analysis",
				Files:  []string{g.Path},
			}),
			Status: glyphStatus(h.raw),
			Tags:   g.Tagger.Tags(h.title+" "+h.subtitle, "phase-"+phaseNumRe.FindString(h.title)),
			Source: taskgen.SourceRoadmap,
		})
	}
	return epics
}

func withSubtitle(title, subtitle string) string {
	if subtitle == "" {
		return title
	}
	return title + ": " + subtitle
}

func firstMatch(re *regexp.Regexp, lines []line) string {
	for _, l := range lines {
		if l.fenced {
			continue
		}
		if m := re.FindStringSubmatch(l.text); m != nil {
			return strings.TrimSpace(m[1])
		}
	}
	return ""
}

func phaseDescription(subtitle string, body []line) string {
	var parts []string
	if subtitle != "" {
		parts = append(parts, subtitle)
	}
	if goal := firstMatch(goalRe, body); goal != "" {
		parts = append(parts, "**Goal:** "+goal)
	}
	if timeline := firstMatch(timelineRe, body); timeline != "" {
		parts = append(parts, "**Timeline:** "+timeline)
	}
	if items := bullets(body); len(items) > 0 {
		parts = append(parts, "**Key Features:**\n"+bulletList(items, maxPhaseBullets))
	}
	return strings.Join(parts, "\n\n")
}

func bulletList(items []string, limit int) string {
	if len(items) > limit {
		items = items[:limit]
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- " + it)
	}
	return b.String()
}

// Feature headings that name sections rather than work.
var featureDenylist = []string{
	"phase", "next steps", "what we built", "features implemented", "key features",
	"current state", "success criteria", "technical details", "for solo", "for multi",
	"real-world", "the breakthrough", "results achieved", "key insights", "the vision",
	"architectural revolution", "meta-achievement", "universal questions", "agent core",
	"intelligence features", "task generation", "documentation", "integration",
	"benefits", "impact", "lessons learned", "foundation", "success", "architecture",
}

var workIndicators = []string{
	"implement", "create", "build", "add", "develop", "design",
	"refactor", "fix", "update", "improve", "enhance", "optimize",
	"integrate", "deploy", "test", "configure", "setup", "install",
	"generator", "analyzer", "parser", "handler", "manager", "service",
	"api", "database", "interface", "component", "module", "system",
	"authentication", "authorization", "validation", "migration",
}

var featureRe = regexp.MustCompile(`^[^\p{L}\d]*([^:]+):?\s*(.*)$`)

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func (g *Generator) features(lines []line) []taskgen.Item {
	var stories []taskgen.Item
	for i := range lines {
		if len(stories) == maxFeatures {
			break
		}
		level, text, ok := heading(lines[i])
		if !ok || level != 4 {
			continue
		}
		m := featureRe.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		title, subtitle := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		lowerTitle := strings.ToLower(title)
		if containsAny(lowerTitle, featureDenylist) || utf8.RuneCountInString(title) < minCandidateTitle {
			continue
		}
		if !containsAny(lowerTitle, workIndicators) && !containsAny(strings.ToLower(subtitle), workIndicators) {
			continue
		}

		clean, ok := taskgen.SanitizeTitle(withSubtitle(title, subtitle))
		if !ok {
			continue
		}
		stories = append(stories, taskgen.Item{
			Kind:  taskgen.KindUserStory,
			Title: clean,
			Description: taskgen.Describe(featureDescription(subtitle, featureBody(lines, i)), taskgen.Meta{
				Source: "Roadmap Feature Definition",
				Files:  []string{g.Path},
			}),
			Status: featureStatus(text),
			Tags:   g.Tagger.Tags(title, "feature"),
			Source: taskgen.SourceRoadmap,
		})
	}
	return stories
}

func featureStatus(text string) taskgen.Status {
	if strings.Contains(text, doneGlyph) {
		return taskgen.StatusCompleted
	}
	return taskgen.StatusNew
}

// featureBody is everything up to the next heading of level four or
// higher. Without one, the body is capped at featureBodyCap characters.
func featureBody(lines []line, at int) []line {
	for j := at + 1; j < len(lines); j++ {
		if level, _, ok := heading(lines[j]); ok && level <= 4 {
			return lines[at+1 : j]
		}
	}
	text := join(lines[at+1:])
	if utf8.RuneCountInString(text) > featureBodyCap {
		text = string([]rune(text)[:featureBodyCap])
	}
	return scan(text)
}

func featureDescription(subtitle string, body []line) string {
	var parts []string
	if subtitle != "" {
		parts = append(parts, subtitle)
	}
	if items := bullets(body); len(items) > 0 {
		parts = append(parts, "**Implementation:**\n"+bulletList(items, maxFeatureBullets))
	}
	if blocks := codeBlocks(body); len(blocks) > 0 {
		code := blocks[0]
		if utf8.RuneCountInString(code) > codeExcerptCap {
			code = string([]rune(code)[:codeExcerptCap])
		}
		parts = append(parts, "**Technical Details:**\n```\n"+code+"\n```")
	}
	return strings.Join(parts, "\n\n")
}

type actionPattern struct {
	re *regexp.Regexp
	// checkbox patterns capture the mark first
	checkbox bool
}

// Passes run in this order over the whole document.
var actionPatterns = []actionPattern{
	{re: regexp.MustCompile(`^\s*[-*]\s+\[([ xX])\]\s+(.+)$`), checkbox: true},
	{re: regexp.MustCompile(`(?i)^\s*[-*]\s+(?:TODO:?|FIXME:?|ACTION:|NEXT:)\s+(.+)$`)},
	{re: regexp.MustCompile(`^\s*\d+\.\s+\*\*(.+?)\*\*:\s+(.+)$`)},
}

var (
	statusWords = []string{
		"solid", "success", "ready", "complete", "working",
		"architecture", "experience", "preservation", "creation",
		"management", "tracking", "visibility",
	}
	actionVerbRe = regexp.MustCompile(`(?i)implement|create|add|fix|refactor|test`)
)

// actionable rejects fragments, headings and vague status phrases that
// carry no action verb.
func actionable(title string) bool {
	if utf8.RuneCountInString(title) < minCandidateTitle || strings.Contains(title, "##") {
		return false
	}
	if containsAny(strings.ToLower(title), statusWords) && !actionVerbRe.MatchString(title) {
		return false
	}
	return true
}

func (g *Generator) actionItems(lines []line) []taskgen.Item {
	var tasks []taskgen.Item
	for _, p := range actionPatterns {
		for _, l := range lines {
			if l.fenced {
				continue
			}
			m := p.re.FindStringSubmatch(l.text)
			if m == nil {
				continue
			}
			status := taskgen.StatusNew
			groups := m[1:]
			if p.checkbox {
				if m[1] != " " {
					status = taskgen.StatusCompleted
				}
				groups = m[2:]
			}
			title := strings.TrimSpace(groups[0])
			detail := title
			if len(groups) > 1 {
				detail = strings.TrimSpace(groups[1])
			}
			if !actionable(title) {
				continue
			}
			clean, ok := taskgen.SanitizeTitle(title)
			if !ok {
				continue
			}
			tasks = append(tasks, taskgen.Item{
				Kind:        taskgen.KindTask,
				Title:       clean,
				Description: taskgen.Describe(detail, taskgen.Meta{Source: "Roadmap Action Items"}),
				Status:      status,
				Tags:        g.Tagger.Tags(title, "action-item"),
				Source:      taskgen.SourceRoadmap,
			})
		}
	}
	if len(tasks) > maxActionItems {
		tasks = tasks[:maxActionItems]
	}
	return tasks
}
