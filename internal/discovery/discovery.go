// Package discovery fingerprints a project directory: its framework, the
// documentation it carries and the manifests and config files at its root.
package discovery

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/afero"

	"github.com/jorge-barreto/taigagen/internal/soft"
)

// Unknown project type and framework labels.
const (
	UnknownType      = "unknown"
	UnknownFramework = "Unknown"
)

// Profile describes what was found at a project root.
type Profile struct {
	Type               string   `json:"type"`
	Framework          string   `json:"framework"`
	HasVersionControl  bool     `json:"has_version_control"`
	HasRoadmap         bool     `json:"has_roadmap"`
	RoadmapFiles       []string `json:"roadmap_files"`
	DocumentationFiles []string `json:"documentation_files"`
	PackageFiles       []string `json:"package_files"`
	ConfigFiles        []string `json:"config_files"`
}

func emptyProfile() Profile {
	return Profile{
		Type:               UnknownType,
		Framework:          UnknownFramework,
		RoadmapFiles:       []string{},
		DocumentationFiles: []string{},
		PackageFiles:       []string{},
		ConfigFiles:        []string{},
	}
}

type signature struct {
	typ        string
	framework  string
	indicators []string
}

// minIndicators is how many indicators of a signature must be present.
const minIndicators = 2

// signatures are tried in order; the first with enough indicators wins.
var signatures = []signature{
	{"laravel", "Laravel", []string{"artisan", "composer.json", "app/Http", "routes/web.php"}},
	{"react", "React", []string{"package.json", "src/App.js", "public/index.html"}},
	{"vue", "Vue.js", []string{"package.json", "vue.config.js", "src/main.js"}},
	{"node", "Node.js", []string{"package.json", "server.js", "app.js", "index.js"}},
	{"python", "Python", []string{"requirements.txt", "setup.py", "main.py", "app.py"}},
	{"docker", "Docker", []string{"Dockerfile", "docker-compose.yml"}},
}

var fallbackSignatures = []struct {
	file      string
	typ       string
	framework string
}{
	{"package.json", "javascript", "JavaScript"},
	{"composer.json", "php", "PHP"},
}

// Names are matched anywhere in the file name, so MY_ROADMAP.md counts.
var docPatterns = compileAll(
	`(?i)readme\.md$`,
	`(?i)roadmap\.md$`,
	`(?i)project[_-]?roadmap\.md$`,
	`(?i)changelog\.md$`,
	`(?i)todo\.md$`,
	`(?i)features\.md$`,
	`(?i)architecture\.md$`,
	`(?i)design\.md$`,
)

var roadmapName = regexp.MustCompile(`(?i)roadmap|todo|features`)

var packageFileNames = []string{
	"package.json", "composer.json", "requirements.txt", "Pipfile", "Cargo.toml", "go.mod",
}

var configFileNames = []string{
	"webpack.config.js", "vite.config.js", "next.config.js", "nuxt.config.js",
	"vue.config.js", "angular.json", ".env", ".env.example",
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}

// Analyzer inspects the directory Root on Fs.
type Analyzer struct {
	Fs   afero.Fs
	Root string
}

// New returns an Analyzer over the real filesystem.
func New(root string) *Analyzer {
	return &Analyzer{Fs: afero.NewOsFs(), Root: root}
}

// Discover builds the profile. An unreadable root yields an empty profile
// of unknown type and a diagnostic.
func (a *Analyzer) Discover() soft.Result[Profile] {
	entries, err := afero.ReadDir(a.Fs, a.Root)
	if err != nil {
		return soft.Degraded(emptyProfile(), fmt.Sprintf("reading project directory: %v", err))
	}
	listing := make(map[string]bool, len(entries))
	var names []string
	for _, e := range entries {
		listing[e.Name()] = true
		names = append(names, e.Name())
	}

	p := emptyProfile()
	p.Type, p.Framework = a.detectType(listing)
	p.HasVersionControl = listing[".git"]
	p.DocumentationFiles = matchDocs(names)
	for _, doc := range p.DocumentationFiles {
		if roadmapName.MatchString(doc) {
			p.RoadmapFiles = append(p.RoadmapFiles, filepath.Join(a.Root, doc))
		}
	}
	p.HasRoadmap = len(p.RoadmapFiles) > 0
	p.PackageFiles = present(listing, packageFileNames)
	p.ConfigFiles = present(listing, configFileNames)
	return soft.OK(p)
}

func (a *Analyzer) detectType(listing map[string]bool) (string, string) {
	for _, sig := range signatures {
		hits := 0
		for _, ind := range sig.indicators {
			if a.hasIndicator(listing, ind) {
				hits++
			}
		}
		if hits >= minIndicators {
			return sig.typ, sig.framework
		}
	}
	for _, fb := range fallbackSignatures {
		if listing[fb.file] {
			return fb.typ, fb.framework
		}
	}
	return UnknownType, UnknownFramework
}

// hasIndicator checks nested paths on disk and plain names against the
// top-level listing.
func (a *Analyzer) hasIndicator(listing map[string]bool, ind string) bool {
	if strings.Contains(ind, "/") {
		ok, err := afero.Exists(a.Fs, filepath.Join(a.Root, filepath.FromSlash(ind)))
		return err == nil && ok
	}
	return listing[ind]
}

func matchDocs(names []string) []string {
	docs := []string{}
	for _, name := range names {
		for _, re := range docPatterns {
			if re.MatchString(name) {
				docs = append(docs, name)
				break
			}
		}
	}
	return docs
}

func present(listing map[string]bool, candidates []string) []string {
	found := []string{}
	for _, name := range candidates {
		if listing[name] {
			found = append(found, name)
		}
	}
	return found
}
