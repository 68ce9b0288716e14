package codereview

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

// tree writes files under /repo. A trailing "/" creates an empty directory.
func tree(t *testing.T, files map[string]string) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	if err := fs.MkdirAll("/repo", 0o755); err != nil {
		t.Fatal(err)
	}
	for name, content := range files {
		path := "/repo/" + name
		if strings.HasSuffix(name, "/") {
			if err := fs.MkdirAll(path, 0o755); err != nil {
				t.Fatal(err)
			}
			continue
		}
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return fs
}

func newGenerator(t *testing.T, fs afero.Fs, projectType string) *Generator {
	t.Helper()
	g, err := NewWithFs(fs, "/repo", discovery.Profile{Type: projectType}, taskgen.Tagger{})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func analyze(t *testing.T, g *Generator) Metrics {
	t.Helper()
	m, err := g.Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func TestAnalyze_MissingTestDirectory(t *testing.T) {
	fs := tree(t, map[string]string{"src/cart.js": "/** Cart */\nexport const cart = []\n"})
	m := analyze(t, newGenerator(t, fs, "node"))

	if !slices.Contains(m.FilesWithoutTests, NoTestDirectory) {
		t.Fatalf("marker missing: %v", m.FilesWithoutTests)
	}
	if !slices.Contains(m.FilesWithoutTests, "/repo/src/cart.js") {
		t.Fatalf("file missing: %v", m.FilesWithoutTests)
	}
	if m.TotalFiles != 1 || m.LinesOfCode != 3 {
		t.Fatalf("totals = %d files, %d lines", m.TotalFiles, m.LinesOfCode)
	}
}

func TestAnalyze_TestConventions(t *testing.T) {
	fs := tree(t, map[string]string{
		"src/a.js":      "/** a */",
		"src/a.test.js": "/** t */",
		"src/b.js":      "/** b */",
		"tests/b.js":    "/** mirror */",
		"src/c.js":      "/** c */",
	})
	m := analyze(t, newGenerator(t, fs, "node"))
	if !slices.Equal(m.FilesWithoutTests, []string{"/repo/src/c.js"}) {
		t.Fatalf("without tests = %v", m.FilesWithoutTests)
	}
}

func TestAnalyze_MirrorStaysInsideRoot(t *testing.T) {
	fs := afero.NewMemMapFs()
	for path, content := range map[string]string{
		"/work/src/proj/lib/x.js":   "/** x */",
		"/work/tests/proj/lib/x.js": "/** outside the root */",
		"/work/src/proj/src/y.js":   "/** y */",
		"/work/src/proj/tests/y.js": "/** mirror */",
	} {
		if err := afero.WriteFile(fs, path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	g, err := NewWithFs(fs, "/work/src/proj", discovery.Profile{Type: "node"}, taskgen.Tagger{})
	if err != nil {
		t.Fatal(err)
	}
	m := analyze(t, g)
	if !slices.Equal(m.FilesWithoutTests, []string{"/work/src/proj/lib/x.js"}) {
		t.Fatalf("without tests = %v", m.FilesWithoutTests)
	}
}

func TestAnalyze_SkipsDependencyHiddenAndBackupDirs(t *testing.T) {
	fs := tree(t, map[string]string{
		"node_modules/lib/x.js": "",
		"vendor/y.js":           "",
		".cache/z.js":           "",
		"backup-2/old.js":       "",
		"site_backup/old.js":    "",
		"src/app.js":            "",
		"src/readme.md":         "",
		"test/":                 "",
	})
	m := analyze(t, newGenerator(t, fs, "node"))
	if m.TotalFiles != 1 {
		t.Fatalf("total = %d", m.TotalFiles)
	}
	if slices.Contains(m.FilesWithoutTests, NoTestDirectory) {
		t.Fatal("test/ should count as a test directory")
	}
}

func TestAnalyze_ExtensionsFollowProjectType(t *testing.T) {
	fs := tree(t, map[string]string{"app.py": "", "main.go": "", "index.php": ""})
	if n := analyze(t, newGenerator(t, fs, "python")).TotalFiles; n != 1 {
		t.Fatalf("python total = %d", n)
	}
	if n := analyze(t, newGenerator(t, fs, "docker")).TotalFiles; n != 3 {
		t.Fatalf("default total = %d", n)
	}
}

func TestAnalyze_SecurityIssues(t *testing.T) {
	fs := tree(t, map[string]string{
		"config.php": "<?php\n$password = 'hunter2';\n",
		"query.php":  "<?php\n$q = $_GET['id'] . \" SELECT * FROM users\";\n",
		"run.php":    "<?php eval($code);",
		"clean.php":  "<?php /** ok */ echo 1;",
	})
	m := analyze(t, newGenerator(t, fs, "laravel"))
	var got []string
	for _, is := range m.SecurityIssues {
		got = append(got, fmt.Sprintf("%s:%s:%s", is.File, is.Issue, is.Severity))
	}
	want := []string{
		"/repo/config.php:Hardcoded Credentials:high",
		"/repo/query.php:SQL Injection Risk:critical",
		"/repo/run.php:Eval Usage:high",
	}
	if !slices.Equal(got, want) {
		t.Fatalf("issues = %v", got)
	}
}

func TestAnalyze_DependencyIssues(t *testing.T) {
	fs := tree(t, map[string]string{
		"package.json":  `{"scripts": {"build": "x", "test": "y"}}`,
		"composer.json": `{"require": {}}`,
	})
	m := analyze(t, newGenerator(t, fs, "node"))
	if !slices.Equal(m.DependencyIssues, []string{"Missing npm scripts", "Missing composer autoload"}) {
		t.Fatalf("issues = %v", m.DependencyIssues)
	}

	fs = tree(t, map[string]string{
		"package.json":  `{"scripts": {"a": "", "b": "", "c": ""}}`,
		"composer.json": `not json`,
	})
	if m := analyze(t, newGenerator(t, fs, "node")); len(m.DependencyIssues) != 0 {
		t.Fatalf("issues = %v", m.DependencyIssues)
	}
}

func TestDocumented(t *testing.T) {
	tests := []struct {
		path, content string
		want          bool
	}{
		{"a.js", "/**\n * Adds.\n */\nfunction add() {}", true},
		{"a.ts", "// plain comment", false},
		{"a.py", "def f():\n    '''Doc.'''\n", true},
		{"a.py", "# comment", false},
		{"a.go", "package a", true},
	}
	for _, tt := range tests {
		if got := Documented(tt.path, tt.content); got != tt.want {
			t.Errorf("Documented(%q, %q) = %v", tt.path, tt.content, got)
		}
	}
}

func TestComplex(t *testing.T) {
	long := "function big() {\n" + strings.Repeat("  total += 1;\n", 55) + "}\n"
	if !Complex(long) {
		t.Fatal("long function not flagged")
	}
	short := "function small() {\n" + strings.Repeat("  x = 1;\n", 10) + "}\n" + strings.Repeat("x = 1;\n", 80)
	if Complex(short) {
		t.Fatal("short function flagged")
	}
}

func TestSkipDir(t *testing.T) {
	for _, name := range []string{"node_modules", ".git", ".cache", "backup", "old-backup", "backup-3", "*backup 1", "x.backup"} {
		if !SkipDir(name) {
			t.Errorf("SkipDir(%q) = false", name)
		}
	}
	for _, name := range []string{"src", "app", "tests", "lib"} {
		if SkipDir(name) {
			t.Errorf("SkipDir(%q) = true", name)
		}
	}
}

func TestNewWithFs_ValidatesRoot(t *testing.T) {
	fs := tree(t, map[string]string{"file.txt": "x"})
	if _, err := NewWithFs(fs, "/missing", discovery.Profile{}, taskgen.Tagger{}); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Fatalf("err = %v", err)
	}
	if _, err := NewWithFs(fs, "/repo/file.txt", discovery.Profile{}, taskgen.Tagger{}); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Fatalf("err = %v", err)
	}
}

func TestSynthesize_OrderAndCaps(t *testing.T) {
	var m Metrics
	m.FilesWithoutTests = append(m.FilesWithoutTests, NoTestDirectory)
	for i := 0; i < 12; i++ {
		m.FilesWithoutTests = append(m.FilesWithoutTests, fmt.Sprintf("/repo/src/f%d.php", i))
		m.FilesWithoutDocs = append(m.FilesWithoutDocs, fmt.Sprintf("/repo/src/f%d.php", i))
	}
	m.SecurityIssues = []SecurityIssue{
		{File: "/repo/q.php", Issue: "SQL Injection Risk", Severity: SeverityCritical},
		{File: "/repo/c.php", Issue: "Hardcoded Credentials", Severity: SeverityHigh},
	}
	m.ComplexityIssues = []string{"/repo/big.php"}

	g := &Generator{Profile: discovery.Profile{Type: "laravel"}}
	b := g.Synthesize(m)

	if len(b.Epics) != 0 {
		t.Fatal("code review never produces epics")
	}
	if len(b.UserStories) != 4 {
		t.Fatalf("stories = %d", len(b.UserStories))
	}
	wantStories := []string{testingStory, docsStory, securityStory, refactorStory}
	for i, s := range b.UserStories {
		if s.Title != wantStories[i] {
			t.Errorf("story %d = %q", i, s.Title)
		}
	}
	// 10 test tasks + 5 doc tasks + 1 security task + 2 framework tasks.
	if len(b.Tasks) != 18 {
		t.Fatalf("tasks = %d", len(b.Tasks))
	}
	if b.Tasks[0].Title != "Add tests for f0.php" || b.Tasks[10].Title != "Document f0.php" {
		t.Fatalf("titles = %q, %q", b.Tasks[0].Title, b.Tasks[10].Title)
	}
	if b.Tasks[15].Title != "Security: Fix Hardcoded Credentials" || b.Tasks[17].Title != "Add Form Request Validation" {
		t.Fatalf("titles = %q, %q", b.Tasks[15].Title, b.Tasks[17].Title)
	}
	if !strings.Contains(b.UserStories[2].Description, "- SQL Injection Risk in q.php") {
		t.Fatalf("security description = %q", b.UserStories[2].Description)
	}
	for _, it := range b.All() {
		if it.Status != taskgen.StatusNew || it.Source != taskgen.SourceCodeReview {
			t.Fatalf("item = %+v", it)
		}
	}
}

func TestSynthesize_TaskCap(t *testing.T) {
	var m Metrics
	for i := 0; i < 10; i++ {
		m.FilesWithoutTests = append(m.FilesWithoutTests, fmt.Sprintf("/r/t%d.js", i))
	}
	for i := 0; i < 8; i++ {
		m.FilesWithoutDocs = append(m.FilesWithoutDocs, fmt.Sprintf("/r/d%d.js", i))
		m.SecurityIssues = append(m.SecurityIssues, SecurityIssue{File: "/r/s.js", Issue: fmt.Sprintf("Issue %d", i), Severity: SeverityHigh})
	}
	b := (&Generator{Profile: discovery.Profile{Type: "react"}}).Synthesize(m)
	if len(b.Tasks) != 20 {
		t.Fatalf("tasks = %d", len(b.Tasks))
	}
	if slices.ContainsFunc(b.Tasks, func(it taskgen.Item) bool { return it.Title == "Add PropTypes/TypeScript Validation" }) {
		t.Fatal("framework task should have been cut by the cap")
	}
	if len(b.UserStories) != 0 {
		t.Fatalf("stories = %d", len(b.UserStories))
	}
}

func TestGenerate(t *testing.T) {
	fs := tree(t, map[string]string{"src/cart.js": "export const cart = []\n"})
	b, err := newGenerator(t, fs, "react").Generate(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var titles []string
	for _, it := range b.All() {
		titles = append(titles, it.Title)
	}
	want := []string{testingStory, "Add tests for cart.js", "Document cart.js", "Add PropTypes/TypeScript Validation"}
	if !slices.Equal(titles, want) {
		t.Fatalf("titles = %v", titles)
	}
}

func TestAnalyze_Cancelled(t *testing.T) {
	fs := tree(t, map[string]string{"a.js": ""})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := newGenerator(t, fs, "node").Analyze(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
