// Package codereview scans a project tree for missing tests, missing
// documentation, risky patterns and long functions, and proposes the work
// to fix them.
package codereview

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

const (
	maxStories       = 15
	maxTasks         = 20
	maxTestTasks     = 10
	maxDocTasks      = 5
	maxSecurityTasks = 5
	docStoryMinFiles = 10
)

// Generator implements taskgen.Generator over a project tree.
type Generator struct {
	Fs      afero.Fs
	Root    string
	Profile discovery.Profile
	Tagger  taskgen.Tagger
}

// New returns a Generator over the OS filesystem.
func New(root string, profile discovery.Profile, tagger taskgen.Tagger) (*Generator, error) {
	return NewWithFs(afero.NewOsFs(), root, profile, tagger)
}

// NewWithFs resolves root to an absolute path and checks that it is a
// directory.
func NewWithFs(fs afero.Fs, root string, profile discovery.Profile, tagger taskgen.Tagger) (*Generator, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project path %s: %w", root, err)
	}
	info, err := fs.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("project path does not exist: %s", abs)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", abs)
	}
	return &Generator{Fs: fs, Root: abs, Profile: profile, Tagger: tagger}, nil
}

// Name implements taskgen.Generator.
func (g *Generator) Name() string { return "code review" }

// Generate implements taskgen.Generator.
func (g *Generator) Generate(ctx context.Context) (taskgen.Bundle, error) {
	m, err := g.Analyze(ctx)
	if err != nil {
		return taskgen.Bundle{}, fmt.Errorf("scanning %s: %w", g.Root, err)
	}
	return g.Synthesize(m), nil
}

type work struct {
	stories []taskgen.Item
	tasks   []taskgen.Item
}

func (w *work) story(title, description string, tags []string) {
	w.stories = append(w.stories, newItem(taskgen.KindUserStory, title, description, tags))
}

func (w *work) task(title, description string, tags []string) {
	w.tasks = append(w.tasks, newItem(taskgen.KindTask, title, description, tags))
}

func newItem(kind taskgen.Kind, title, description string, tags []string) taskgen.Item {
	return taskgen.Item{
		Kind:        kind,
		Title:       title,
		Description: description,
		Status:      taskgen.StatusNew,
		Tags:        tags,
		Source:      taskgen.SourceCodeReview,
	}
}

// Synthesize turns metrics into stories and tasks. Categories are emitted
// in a fixed order (tests, docs, security, complexity, framework) and the
// caps keep the earliest ones.
func (g *Generator) Synthesize(m Metrics) taskgen.Bundle {
	var w work
	g.testWork(&w, m)
	g.docWork(&w, m)
	g.securityWork(&w, m)
	g.qualityWork(&w, m)
	g.frameworkWork(&w)

	if len(w.stories) > maxStories {
		w.stories = w.stories[:maxStories]
	}
	if len(w.tasks) > maxTasks {
		w.tasks = w.tasks[:maxTasks]
	}
	return taskgen.Bundle{UserStories: w.stories, Tasks: w.tasks}
}

const testingStory = "As a developer, I would like to have a comprehensive testing infrastructure so that I can ensure code quality and prevent regressions"

func (g *Generator) testWork(w *work, m Metrics) {
	var files []string
	missingDir := false
	for _, f := range m.FilesWithoutTests {
		if f == NoTestDirectory {
			missingDir = true
			continue
		}
		files = append(files, f)
	}

	if missingDir {
		w.story(testingStory, taskgen.Describe(
			"**User Story:** "+testingStory+".\n\n"+
				"**Current State:** No test directory found\n\n"+
				"**Acceptance Criteria:**\n"+
				"- Set up testing framework (Jest, PHPUnit, pytest, etc.)\n"+
				"- Create test directory structure\n"+
				"- Add test scripts to package.json/composer.json\n"+
				"- Configure CI/CD for automated testing\n\n"+
				"**Priority:** High - Testing is essential for code quality",
			taskgen.Meta{Source: "Code Review Analysis", Files: []string{"Project Root"}},
		), g.Tagger.Tags("testing infrastructure urgent", "testing-infrastructure"))
	}

	if len(files) > maxTestTasks {
		files = files[:maxTestTasks]
	}
	for _, f := range files {
		name := filepath.Base(f)
		w.task("Add tests for "+name, taskgen.Describe(
			fmt.Sprintf("Create unit tests for %s\n\n**File:** %s\n**Test Coverage:** 0%%\n"+
				"**Suggested Tests:**\n- Happy path scenarios\n- Edge cases\n- Error handling", name, f),
			taskgen.Meta{Source: "Code Review Analysis", Files: []string{f}},
		), g.Tagger.Tags("testing improvement", "testing"))
	}
}

const docsStory = "As a developer, I would like comprehensive code documentation so that new team members can understand the codebase quickly"

func (g *Generator) docWork(w *work, m Metrics) {
	if len(m.FilesWithoutDocs) > docStoryMinFiles {
		w.story(docsStory, taskgen.Describe(
			"**User Story:** "+docsStory+".\n\n"+
				fmt.Sprintf("**Current State:** %d files lack proper documentation\n\n", len(m.FilesWithoutDocs))+
				"**Acceptance Criteria:**\n"+
				"- Add JSDoc/PHPDoc/docstrings to all public functions\n"+
				"- Document complex algorithms and business logic\n"+
				"- Add inline comments for non-obvious code\n"+
				"- Generate API documentation",
			taskgen.Meta{Source: "Code Review Analysis", Files: []string{"Multiple files - see individual tasks"}},
		), g.Tagger.Tags("documentation improvement", "documentation"))
	}

	files := m.FilesWithoutDocs
	if len(files) > maxDocTasks {
		files = files[:maxDocTasks]
	}
	for _, f := range files {
		name := filepath.Base(f)
		w.task("Document "+name, taskgen.Describe(
			"Add documentation to "+name,
			taskgen.Meta{Source: "Code Review Analysis", Files: []string{f}},
		), g.Tagger.Tags("documentation", "documentation"))
	}
}

const securityStory = "As a security-conscious developer, I would like all critical security vulnerabilities fixed so that the application is protected from attacks"

func (g *Generator) securityWork(w *work, m Metrics) {
	var critical, high []SecurityIssue
	for _, is := range m.SecurityIssues {
		switch is.Severity {
		case SeverityCritical:
			critical = append(critical, is)
		case SeverityHigh:
			high = append(high, is)
		}
	}

	if len(critical) > 0 {
		var lines, files []string
		for _, is := range critical {
			lines = append(lines, fmt.Sprintf("- %s in %s", is.Issue, filepath.Base(is.File)))
			files = append(files, is.File)
		}
		w.story(securityStory, taskgen.Describe(
			"**User Story:** "+securityStory+".\n\n"+
				fmt.Sprintf("**Critical Issues Found:** %d\n\n", len(critical))+
				"**Issues:**\n"+strings.Join(lines, "\n"),
			taskgen.Meta{Source: "Security Analysis", Files: files},
		), []string{"security", "critical", "bug"})
	}

	if len(high) > maxSecurityTasks {
		high = high[:maxSecurityTasks]
	}
	for _, is := range high {
		w.task("Security: Fix "+is.Issue, taskgen.Describe(
			fmt.Sprintf("Fix %s in %s", is.Issue, filepath.Base(is.File)),
			taskgen.Meta{Source: "Security Analysis", Files: []string{is.File}},
		), []string{"security", "high-priority"})
	}
}

const refactorStory = "As a maintainer, I would like complex functions refactored into smaller, more manageable pieces so that the code is easier to understand and maintain"

func (g *Generator) qualityWork(w *work, m Metrics) {
	if len(m.ComplexityIssues) == 0 {
		return
	}
	w.story(refactorStory, taskgen.Describe(
		"**User Story:** "+refactorStory+".\n\n"+
			fmt.Sprintf("**Files with complexity issues:** %d\n\n", len(m.ComplexityIssues))+
			"**Acceptance Criteria:**\n"+
			"- Break down large functions into smaller ones\n"+
			"- Extract reusable logic\n"+
			"- Improve code readability\n"+
			"- Follow Single Responsibility Principle",
		taskgen.Meta{Source: "Code Quality Analysis", Files: m.ComplexityIssues},
	), g.Tagger.Tags("refactoring improvement", "refactoring"))
}

func (g *Generator) frameworkWork(w *work) {
	meta := taskgen.Meta{Source: "Framework Best Practices"}
	switch {
	case g.Profile.Type == "laravel":
		w.task("Implement Laravel Policies",
			taskgen.Describe("Add authorization policies for models using Laravel Policy classes", meta),
			[]string{"laravel", "security", "medium-priority"})
		w.task("Add Form Request Validation",
			taskgen.Describe("Extract validation logic into Form Request classes", meta),
			[]string{"laravel", "validation", "low-priority"})
	case strings.Contains(g.Profile.Type, "react"):
		w.task("Add PropTypes/TypeScript Validation",
			taskgen.Describe("Add prop validation to all React components", meta),
			[]string{"react", "validation", "medium-priority"})
	}
}
