// Package gitgen turns repository history into epics (one per busy
// development phase), user stories (one per feature branch) and tasks (one
// per significant commit, or one summary per busy day).
package gitgen

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jorge-barreto/taigagen/internal/gitlog"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

const (
	minPhaseCommits   = 2
	epicCommitSample  = 8
	dailyCommitSample = 5
	maxTasks          = 20
	maxTopics         = 3
	maxTaskTitle      = 80
	longMessage       = 30
)

// History produces the repository analysis.
type History interface {
	Analyze(ctx context.Context) *gitlog.Analysis
}

// Generator implements taskgen.Generator over git history.
type Generator struct {
	History History
	Tagger  taskgen.Tagger
}

// New returns a Generator for the repository at dir.
func New(dir string, tagger taskgen.Tagger) *Generator {
	return &Generator{History: gitlog.NewAnalyzer(dir), Tagger: tagger}
}

// Name implements taskgen.Generator.
func (g *Generator) Name() string { return "git history" }

// Generate implements taskgen.Generator. Unreadable history produces an
// empty bundle and a warning, not an error.
func (g *Generator) Generate(ctx context.Context) (taskgen.Bundle, error) {
	an := g.History.Analyze(ctx)
	for _, d := range an.Diagnostics {
		ux.Warn("%s", d)
	}
	return taskgen.Bundle{
		Epics:       g.phaseEpics(an.Phases),
		UserStories: g.featureStories(an.Branches),
		Tasks:       g.commitTasks(an.Commits),
	}, nil
}

func (g *Generator) phaseEpics(phases []gitlog.Phase) []taskgen.Item {
	var epics []taskgen.Item
	for _, p := range phases {
		if len(p.Commits) < minPhaseCommits {
			continue
		}
		sample := p.Commits
		if len(sample) > epicCommitSample {
			sample = sample[:epicCommitSample]
		}
		base := fmt.Sprintf("Development phase containing %d commits.\n\n"+
			"This phase represents completed work in the %s area of the project.",
			len(p.Commits), strings.ToLower(p.Name))
		epics = append(epics, taskgen.Item{
			Kind:        taskgen.KindEpic,
			Title:       "Epic: " + p.Name,
			Description: taskgen.Describe(base, taskgen.Meta{Source: "Git History Analysis", Commits: sample}),
			Status:      taskgen.StatusCompleted,
			Tags:        g.Tagger.Tags(p.Name, "epic-git-phase"),
			Source:      taskgen.SourceGit,
			Commits:     taskgen.Hashes(p.Commits),
		})
	}
	return epics
}

var (
	branchPrefixRe = regexp.MustCompile(`^(feature/|feat/|develop)`)
	titleCaser     = cases.Title(language.Und, cases.NoLower)
)

// FeatureName turns a branch name into a title-cased feature name.
func FeatureName(branch string) string {
	name := branchPrefixRe.ReplaceAllString(branch, "")
	name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
	return titleCaser.String(strings.TrimSpace(name))
}

func (g *Generator) featureStories(branches []gitlog.Branch) []taskgen.Item {
	var stories []taskgen.Item
	for _, b := range gitlog.FeatureBranches(branches) {
		name := FeatureName(b.Name)
		if name == "" {
			name = b.Name
		}
		base := fmt.Sprintf("Feature branch representing completed functionality.\n\n"+
			"This feature was developed on branch `%s`", b.Name)
		if b.Date != "" {
			base += " and completed on " + b.Date
		}
		base += "."
		stories = append(stories, taskgen.Item{
			Kind:        taskgen.KindUserStory,
			Title:       "Feature: " + name,
			Description: taskgen.Describe(base, taskgen.Meta{Source: "Git Branch Analysis", Date: b.Date}),
			Status:      taskgen.StatusCompleted,
			Tags:        g.Tagger.Tags(name, "feature-branch"),
			Source:      taskgen.SourceGit,
		})
	}
	return stories
}

// Patterns are matched against the lowercased message.
var (
	minorPatterns = compile(
		`^(fix|fixed) typo`, `^update`, `^minor`, `^small`, `^cleanup`, `^style`,
		`^comment`, `^remove comment`, `^formatting`, `^lint`, `test file`, `debug`, `wip`,
	)
	significantPatterns = compile(
		`^(add|added|implement|create|build)`, `^(fix|fixed|resolve|solve)`, `^(feature|feat)`,
		`^(refactor|restructure)`, `^(improve|enhance|optimize)`, `complete`, `finish`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Significant reports whether a commit message describes real work. The
// denylist is checked first and always wins.
func Significant(message string) bool {
	lower := strings.ToLower(message)
	if matchAny(minorPatterns, lower) {
		return false
	}
	return matchAny(significantPatterns, lower) || utf8.RuneCountInString(message) > longMessage
}

type dateGroup struct {
	date    string
	commits []gitlog.Commit
}

// groupByDate keeps dates in the order they are first seen.
func groupByDate(commits []gitlog.Commit) []dateGroup {
	var groups []dateGroup
	index := make(map[string]int)
	for _, c := range commits {
		i, ok := index[c.Date]
		if !ok {
			i = len(groups)
			index[c.Date] = i
			groups = append(groups, dateGroup{date: c.Date})
		}
		groups[i].commits = append(groups[i].commits, c)
	}
	return groups
}

func (g *Generator) commitTasks(commits []gitlog.Commit) []taskgen.Item {
	var significant []gitlog.Commit
	for _, c := range commits {
		if Significant(c.Message) {
			significant = append(significant, c)
		}
	}

	var tasks []taskgen.Item
	for _, grp := range groupByDate(significant) {
		if len(tasks) == maxTasks {
			break
		}
		if len(grp.commits) == 1 {
			tasks = append(tasks, g.commitTask(grp.date, grp.commits[0]))
			continue
		}
		tasks = append(tasks, g.dailySummary(grp))
	}
	return tasks
}

func (g *Generator) commitTask(date string, c gitlog.Commit) taskgen.Item {
	base := fmt.Sprintf("Significant development work completed on %s.\n\n**Commit Message:** %s", date, c.Message)
	return taskgen.Item{
		Kind:  taskgen.KindTask,
		Title: CommitTitle(c.Message),
		Description: taskgen.Describe(base, taskgen.Meta{
			Source:  "Git Commit Analysis",
			Date:    c.Date,
			Author:  c.Author,
			Commits: []gitlog.Commit{c},
		}),
		Status:  taskgen.StatusCompleted,
		Tags:    g.Tagger.Tags(c.Message, "git-commit"),
		Author:  c.Author,
		Source:  taskgen.SourceGit,
		Commits: []string{c.Hash},
	}
}

func (g *Generator) dailySummary(grp dateGroup) taskgen.Item {
	sample := grp.commits
	if len(sample) > dailyCommitSample {
		sample = sample[:dailyCommitSample]
	}
	topics := Topics(grp.commits)
	label := strings.Join(topics, ", ")
	if label == "" {
		label = grp.date
	}
	base := fmt.Sprintf("Multiple development tasks completed on %s.\n\nTotal commits: %d", grp.date, len(grp.commits))
	return taskgen.Item{
		Kind:  taskgen.KindTask,
		Title: truncateTitle("Daily Development: " + label),
		Description: taskgen.Describe(base, taskgen.Meta{
			Source:  "Git Daily Summary",
			Date:    grp.date,
			Commits: sample,
		}),
		Status:  taskgen.StatusCompleted,
		Tags:    g.Tagger.Tags(strings.Join(topics, " "), "daily-summary"),
		Author:  soleAuthor(grp.commits),
		Source:  taskgen.SourceGit,
		Commits: taskgen.Hashes(grp.commits),
	}
}

// soleAuthor is the author when every commit of the day has the same one.
func soleAuthor(commits []gitlog.Commit) string {
	author := commits[0].Author
	for _, c := range commits[1:] {
		if c.Author != author {
			return ""
		}
	}
	return author
}

var topicTable = []struct {
	name    string
	pattern *regexp.Regexp
}{
	{"Authentication", regexp.MustCompile(`auth|login|logout|jwt|token|oauth`)},
	{"API", regexp.MustCompile(`\bapis?\b|endpoint`)},
	{"Database", regexp.MustCompile(`database|model|migration`)},
	{"Frontend", regexp.MustCompile(`\bui\b|frontend`)},
	{"Testing", regexp.MustCompile(`test`)},
	{"Deployment", regexp.MustCompile(`deploy|build`)},
	{"Bug Fixes", regexp.MustCompile(`fix|bug`)},
	{"Features", regexp.MustCompile(`feature|implement`)},
}

// Topics names up to three themes of a day's commits, in first-seen order.
func Topics(commits []gitlog.Commit) []string {
	var topics []string
	seen := make(map[string]bool)
	for _, c := range commits {
		lower := strings.ToLower(c.Message)
		for _, t := range topicTable {
			if !seen[t.name] && t.pattern.MatchString(lower) {
				seen[t.name] = true
				topics = append(topics, t.name)
			}
		}
	}
	if len(topics) > maxTopics {
		topics = topics[:maxTopics]
	}
	return topics
}

var conventionalPrefixRe = regexp.MustCompile(`(?i)^(feat|feature|fix|add|implement|create):\s*`)

// CommitTitle turns a commit subject into a task title: the conventional
// prefix is dropped, the first letter capitalized and the result bounded.
func CommitTitle(message string) string {
	s := conventionalPrefixRe.ReplaceAllString(strings.TrimSpace(message), "")
	if s == "" {
		s = strings.TrimSpace(message)
	}
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToUpper(r)) + s[size:]
	return truncateTitle(s)
}

func truncateTitle(s string) string {
	if utf8.RuneCountInString(s) <= maxTaskTitle {
		return s
	}
	return string([]rune(s)[:maxTaskTitle-3]) + "..."
}
