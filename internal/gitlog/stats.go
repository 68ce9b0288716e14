package gitlog

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

const (
	// epicPhaseThreshold is the minimum phase size that earns a suggested epic.
	epicPhaseThreshold = 3
	epicCommitLimit    = 10
	contributorLimit   = 5
)

// Contributor is an author with their commit count.
type Contributor struct {
	Name    string `json:"name"`
	Commits int    `json:"commits"`
}

// TopContributors returns the n authors with the most commits. Authors with
// equal counts keep the order in which they first appear in commits.
// Commits without an author are not counted.
func TopContributors(commits []Commit, n int) []Contributor {
	var order []string
	counts := make(map[string]int)
	for _, c := range commits {
		if c.Author == "" {
			continue
		}
		if _, ok := counts[c.Author]; !ok {
			order = append(order, c.Author)
		}
		counts[c.Author]++
	}
	out := make([]Contributor, 0, len(order))
	for _, name := range order {
		out = append(out, Contributor{Name: name, Commits: counts[name]})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Commits > out[j].Commits })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// IsFeatureBranch reports whether a branch name looks like feature work.
func IsFeatureBranch(name string) bool {
	return strings.Contains(name, "feature/") ||
		strings.Contains(name, "feat/") ||
		strings.Contains(name, "develop")
}

// FeatureBranches filters branches down to feature-style names.
func FeatureBranches(branches []Branch) []Branch {
	var out []Branch
	for _, b := range branches {
		if IsFeatureBranch(b.Name) {
			out = append(out, b)
		}
	}
	return out
}

// EpicSuggestion is a candidate epic derived from history alone.
type EpicSuggestion struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Commits     []Commit `json:"commits,omitempty"`
	Status      string   `json:"status"`
	Tags        []string `json:"tags"`
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

func slug(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

// SuggestEpics proposes one epic per phase with at least three commits and
// one per feature branch.
func SuggestEpics(phases []Phase, branches []Branch) []EpicSuggestion {
	var out []EpicSuggestion
	for _, p := range phases {
		if len(p.Commits) < epicPhaseThreshold {
			continue
		}
		commits := p.Commits
		if len(commits) > epicCommitLimit {
			commits = commits[:epicCommitLimit]
		}
		out = append(out, EpicSuggestion{
			Title:       p.Name,
			Description: phaseSummary(p),
			Commits:     commits,
			Status:      "completed",
			Tags:        []string{slug(p.Name), "git-history"},
		})
	}
	for _, b := range FeatureBranches(branches) {
		name := strings.Replace(b.Name, "feature/", "", 1)
		name = strings.NewReplacer("-", " ", "_", " ").Replace(name)
		out = append(out, EpicSuggestion{
			Title:       "Feature: " + name,
			Description: "Feature branch: " + b.Name,
			Status:      "completed",
			Tags:        []string{"feature-branch", "git-history"},
		})
	}
	return out
}

func phaseSummary(p Phase) string {
	return fmt.Sprintf("%s phase containing %d commits", p.Name, len(p.Commits))
}

// Stats summarizes a repository's history.
type Stats struct {
	TotalCommits      int            `json:"total_commits"`
	TotalBranches     int            `json:"total_branches"`
	Phases            int            `json:"phases"`
	Earliest          string         `json:"earliest,omitempty"`
	Latest            string         `json:"latest,omitempty"`
	TopContributors   []Contributor  `json:"top_contributors"`
	PhaseDistribution map[string]int `json:"phase_distribution"`
}

// Analysis is everything read from one repository.
type Analysis struct {
	Commits     []Commit
	Branches    []Branch
	Phases      []Phase
	Diagnostics []string
}

// Analyze collects commits and branches and buckets the commits into phases.
// It never fails; problems are reported through Diagnostics.
func (a *Analyzer) Analyze(ctx context.Context) *Analysis {
	commits := a.CollectCommits(ctx)
	branches := a.CollectBranches(ctx)
	an := &Analysis{
		Commits:  commits.Value,
		Branches: branches.Value,
		Phases:   BucketByPhase(commits.Value),
	}
	for _, d := range []string{commits.Diagnostic, branches.Diagnostic} {
		if d != "" {
			an.Diagnostics = append(an.Diagnostics, d)
		}
	}
	return an
}

// Statistics derives summary numbers. The log is newest first, so the last
// commit is the earliest.
func (an *Analysis) Statistics() Stats {
	st := Stats{
		TotalCommits:      len(an.Commits),
		TotalBranches:     len(an.Branches),
		Phases:            len(an.Phases),
		TopContributors:   TopContributors(an.Commits, contributorLimit),
		PhaseDistribution: make(map[string]int, len(an.Phases)),
	}
	if n := len(an.Commits); n > 0 {
		st.Earliest = an.Commits[n-1].Date
		st.Latest = an.Commits[0].Date
	}
	for _, p := range an.Phases {
		st.PhaseDistribution[p.Name] = len(p.Commits)
	}
	return st
}
