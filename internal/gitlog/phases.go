package gitlog

import (
	"regexp"
	"strings"
)

// OtherPhase collects commits that match no phase pattern.
const OtherPhase = "Other"

// Phase is a named group of commits.
type Phase struct {
	Name    string   `json:"name"`
	Commits []Commit `json:"commits"`
}

type phaseRule struct {
	name    string
	pattern *regexp.Regexp
}

func rule(name string, alternatives ...string) phaseRule {
	return phaseRule{
		name:    name,
		pattern: regexp.MustCompile(`(?i)` + strings.Join(alternatives, "|")),
	}
}

// phaseTable is evaluated top to bottom; the first matching rule wins.
var phaseTable = []phaseRule{
	rule("Authentication & Authorization", "auth", "login", "token", "sanctum", "jwt", "permission", "role", "policy"),
	rule("Core Features", "feature", "implement", `add.*feature`, `new.*functionality`),
	rule("Database & Models", "model", "migration", "schema", "database", "eloquent", "seed", "factory"),
	rule("API Development", "api", "endpoint", "route", "controller", "request", "response", "rest"),
	rule("Frontend Integration", "frontend", "ui", "component", "view", "template", "css", "js", "react", "vue"),
	rule("Testing & Quality", "test", "spec", "coverage", "quality", "lint", "format", "phpunit", "jest"),
	rule("Performance & Optimization", "performance", "optimize", "cache", "queue", "speed", "memory", `n\+1`),
	rule("Deployment & Infrastructure", "deploy", "docker", `ci/cd`, "build", "production", "staging", "env", "config"),
	rule("Bug Fixes & Maintenance", "fix", "bug", "hotfix", "patch", "repair", "resolve", "issue"),
	rule("Documentation", "doc", "readme", "comment", "documentation", "guide", "wiki"),
}

// PhaseNames lists the classification phases in evaluation order, followed
// by OtherPhase.
func PhaseNames() []string {
	names := make([]string, 0, len(phaseTable)+1)
	for _, r := range phaseTable {
		names = append(names, r.name)
	}
	return append(names, OtherPhase)
}

// Classify returns the phase a commit message belongs to.
func Classify(message string) string {
	for _, r := range phaseTable {
		if r.pattern.MatchString(message) {
			return r.name
		}
	}
	return OtherPhase
}

// BucketByPhase assigns every commit to exactly one phase. Phases come back
// in table order, Other last, and empty phases are omitted.
func BucketByPhase(commits []Commit) []Phase {
	buckets := make(map[string][]Commit)
	for _, c := range commits {
		name := Classify(c.Message)
		buckets[name] = append(buckets[name], c)
	}
	var phases []Phase
	for _, name := range PhaseNames() {
		if cs := buckets[name]; len(cs) > 0 {
			phases = append(phases, Phase{Name: name, Commits: cs})
		}
	}
	return phases
}
