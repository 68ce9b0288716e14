package codereview

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"
)

// NoTestDirectory marks a project without a conventional test directory in
// Metrics.FilesWithoutTests.
const NoTestDirectory = "NO_TEST_DIRECTORY"

// Severity of a security finding.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
)

// SecurityIssue is one pattern hit in one file.
type SecurityIssue struct {
	File     string   `json:"file"`
	Issue    string   `json:"issue"`
	Severity Severity `json:"severity"`
}

// Metrics aggregates one scan of a project tree.
type Metrics struct {
	TotalFiles        int             `json:"total_files"`
	LinesOfCode       int             `json:"lines_of_code"`
	FilesWithoutTests []string        `json:"files_without_tests"`
	FilesWithoutDocs  []string        `json:"files_without_docs"`
	SecurityIssues    []SecurityIssue `json:"security_issues"`
	ComplexityIssues  []string        `json:"complexity_issues"`
	DependencyIssues  []string        `json:"dependency_issues"`
}

const (
	securityScanLimit = 100
	maxFunctionLines  = 50
)

var defaultExtensions = []string{".js", ".ts", ".jsx", ".tsx", ".php", ".py", ".java", ".go", ".rb"}

// extensionsByType is keyed by discovery.Profile.Type.
var extensionsByType = map[string][]string{
	"laravel": {".php", ".blade.php"},
	"react":   {".js", ".jsx", ".ts", ".tsx"},
	"vue":     {".js", ".vue", ".ts"},
	"node":    {".js", ".ts", ".mjs"},
	"python":  {".py"},
	"django":  {".py", ".html"},
}

func extensionsFor(projectType string) []string {
	if exts, ok := extensionsByType[strings.ToLower(projectType)]; ok {
		return exts
	}
	return defaultExtensions
}

var skipDirs = map[string]bool{
	"node_modules": true, "vendor": true, "dist": true, "build": true, ".git": true,
	".idea": true, ".vscode": true, "coverage": true, ".next": true, "out": true,
	"__pycache__": true, "venv": true, "env": true, ".pytest_cache": true,
}

var backupDirRe = regexp.MustCompile(`^\*backup|backup$|^backup|\.backup|backup-\d+`)

// SkipDir reports whether a directory is never scanned: dependency and
// build output, hidden directories and backups.
func SkipDir(name string) bool {
	return skipDirs[name] || strings.HasPrefix(name, ".") || backupDirRe.MatchString(name)
}

func within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// sourceFiles walks the tree under root in lexical order.
func (g *Generator) sourceFiles(ctx context.Context) ([]string, error) {
	exts := extensionsFor(g.Profile.Type)
	var files []string
	err := afero.Walk(g.Fs, g.Root, func(path string, info os.FileInfo, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable entries are skipped.
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !within(g.Root, path) {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if info.IsDir() {
			if path != g.Root && SkipDir(info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if info.Mode().IsRegular() && hasExtension(info.Name(), exts) {
			files = append(files, path)
		}
		return nil
	})
	if errors.Is(err, filepath.SkipDir) {
		err = nil
	}
	return files, err
}

func hasExtension(name string, exts []string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

var testableExtRe = regexp.MustCompile(`\.(js|ts|jsx|tsx|php|py)$`)

// hasTest looks for a sibling .test/.spec file or a mirror under tests/.
// The directory swap only looks below the root, never at the root's own path.
func (g *Generator) hasTest(path string) bool {
	candidates := []string{
		testableExtRe.ReplaceAllString(path, ".test.$1"),
		testableExtRe.ReplaceAllString(path, ".spec.$1"),
	}
	if rel, err := filepath.Rel(g.Root, path); err == nil {
		rel = "/" + filepath.ToSlash(rel)
		for _, dir := range []string{"/src/", "/app/"} {
			if swapped := strings.Replace(rel, dir, "/tests/", 1); swapped != rel {
				candidates = append(candidates, filepath.Join(g.Root, filepath.FromSlash(swapped)))
			}
		}
	}
	for _, c := range candidates {
		if c == path {
			continue
		}
		if ok, _ := afero.Exists(g.Fs, c); ok {
			return true
		}
	}
	return false
}

var (
	blockDocRe  = regexp.MustCompile(`(?s)/\*\*.*?\*/`)
	pyDocRe     = regexp.MustCompile(`(?s)""".*?"""|'''.*?'''`)
	docPatterns = map[string]*regexp.Regexp{
		".js": blockDocRe, ".ts": blockDocRe, ".jsx": blockDocRe, ".tsx": blockDocRe,
		".php": blockDocRe, ".py": pyDocRe,
	}
)

// Documented reports whether content carries at least one doc block for its
// language. Languages without a known pattern count as documented.
func Documented(path, content string) bool {
	re, ok := docPatterns[filepath.Ext(path)]
	if !ok {
		return true
	}
	return re.MatchString(content)
}

var functionStartRe = regexp.MustCompile(`function\s+\w+|=>\s*\{|^\s*\w+\s*\(`)

// Complex reports whether a function-looking line is followed by more than
// fifty lines before a closing brace. Nesting is not tracked.
func Complex(content string) bool {
	length := 0
	inFunction := false
	for _, l := range strings.Split(content, "\n") {
		if functionStartRe.MatchString(l) {
			inFunction = true
			length = 0
		}
		if inFunction {
			length++
			if length > maxFunctionLines {
				return true
			}
		}
		if inFunction && strings.Contains(l, "}") {
			inFunction = false
		}
	}
	return false
}

var securityChecks = []struct {
	name     string
	pattern  *regexp.Regexp
	severity Severity
}{
	{"Hardcoded Credentials", regexp.MustCompile(`(?i)(password|api_key|secret)\s*=\s*['"]`), SeverityHigh},
	{"SQL Injection Risk", regexp.MustCompile(`(?i)\$_(GET|POST|REQUEST)\[.*?\].*?(SELECT|INSERT|UPDATE|DELETE)`), SeverityCritical},
	{"Eval Usage", regexp.MustCompile(`\beval\s*\(`), SeverityHigh},
}

var testDirs = []string{"tests", "test", "__tests__", "spec"}

// Analyze scans the project tree. Files that cannot be read are skipped.
func (g *Generator) Analyze(ctx context.Context) (Metrics, error) {
	m := Metrics{
		FilesWithoutTests: []string{},
		FilesWithoutDocs:  []string{},
		SecurityIssues:    []SecurityIssue{},
		ComplexityIssues:  []string{},
		DependencyIssues:  []string{},
	}
	files, err := g.sourceFiles(ctx)
	if err != nil {
		return m, err
	}
	m.TotalFiles = len(files)

	for i, path := range files {
		data, err := afero.ReadFile(g.Fs, path)
		if err != nil {
			continue
		}
		content := string(data)
		m.LinesOfCode += strings.Count(content, "\n") + 1

		rel, _ := filepath.Rel(g.Root, path)
		if !g.hasTest(path) && !strings.Contains(rel, "test") {
			m.FilesWithoutTests = append(m.FilesWithoutTests, path)
		}
		if !Documented(path, content) {
			m.FilesWithoutDocs = append(m.FilesWithoutDocs, path)
		}
		if Complex(content) {
			m.ComplexityIssues = append(m.ComplexityIssues, path)
		}
		if i < securityScanLimit {
			for _, c := range securityChecks {
				if c.pattern.MatchString(content) {
					m.SecurityIssues = append(m.SecurityIssues, SecurityIssue{File: path, Issue: c.name, Severity: c.severity})
				}
			}
		}
	}

	if !g.hasTestDirectory() {
		m.FilesWithoutTests = append(m.FilesWithoutTests, NoTestDirectory)
	}
	m.DependencyIssues = append(m.DependencyIssues, g.dependencyIssues()...)
	return m, nil
}

func (g *Generator) hasTestDirectory() bool {
	for _, d := range testDirs {
		if ok, _ := afero.Exists(g.Fs, filepath.Join(g.Root, d)); ok {
			return true
		}
	}
	return false
}

const minManifestScripts = 3

// dependencyIssues checks manifest structure. Invalid JSON is ignored.
func (g *Generator) dependencyIssues() []string {
	var issues []string
	if manifest, ok := g.readJSON("package.json"); ok {
		scripts, _ := manifest["scripts"].(map[string]any)
		if len(scripts) < minManifestScripts {
			issues = append(issues, "Missing npm scripts")
		}
	}
	if manifest, ok := g.readJSON("composer.json"); ok {
		if !truthy(manifest["autoload"]) {
			issues = append(issues, "Missing composer autoload")
		}
	}
	return issues
}

func (g *Generator) readJSON(name string) (map[string]any, bool) {
	data, err := afero.ReadFile(g.Fs, filepath.Join(g.Root, name))
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case float64:
		return v != 0
	default:
		return true
	}
}
