// Package gitlog reads commit and branch history from a git repository and
// classifies it into development phases.
package gitlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/jorge-barreto/taigagen/internal/soft"
)

// Commit is one entry of the repository log.
type Commit struct {
	Hash    string `json:"hash"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Author  string `json:"author"`
}

// Branch is a local or remote branch with its last commit date.
type Branch struct {
	Name string `json:"name"`
	Date string `json:"date"`
}

var (
	logArgs    = []string{"--no-pager", "log", "--pretty=format:%h|%ad|%s|%an", "--date=short", "--all"}
	branchArgs = []string{"branch", "-a", "--format=%(refname:short)|%(committerdate:short)"}
)

const remotePrefix = "origin/"

// Analyzer reads history from the repository at Dir.
type Analyzer struct {
	Dir    string
	Runner Runner
}

// NewAnalyzer returns an Analyzer that shells out to git.
func NewAnalyzer(dir string) *Analyzer {
	return &Analyzer{Dir: dir, Runner: ExecRunner{}}
}

// CollectCommits returns every commit reachable from any ref, newest first.
// A failing git invocation yields an empty, degraded result.
func (a *Analyzer) CollectCommits(ctx context.Context) soft.Result[[]Commit] {
	out, err := a.Runner.Run(ctx, a.Dir, logArgs...)
	if err != nil {
		return soft.Degraded([]Commit{}, fmt.Sprintf("reading git log: %v", err))
	}
	return soft.OK(parseCommits(out))
}

// CollectBranches returns local and remote branches with the remote prefix
// stripped. Symbolic and detached refs are skipped, as are duplicates.
func (a *Analyzer) CollectBranches(ctx context.Context) soft.Result[[]Branch] {
	out, err := a.Runner.Run(ctx, a.Dir, branchArgs...)
	if err != nil {
		return soft.Degraded([]Branch{}, fmt.Sprintf("reading git branches: %v", err))
	}
	return soft.OK(parseBranches(out))
}

func parseCommits(out string) []Commit {
	commits := []Commit{}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "|")
		if len(parts) < 3 {
			continue
		}
		c := Commit{
			Hash: strings.TrimSpace(parts[0]),
			Date: strings.TrimSpace(parts[1]),
		}
		// The subject may itself contain the separator; the author is always last.
		if len(parts) == 3 {
			c.Message = strings.TrimSpace(parts[2])
		} else {
			c.Message = strings.TrimSpace(strings.Join(parts[2:len(parts)-1], "|"))
			c.Author = strings.TrimSpace(parts[len(parts)-1])
		}
		if c.Hash == "" || c.Message == "" {
			continue
		}
		commits = append(commits, c)
	}
	return commits
}

func parseBranches(out string) []Branch {
	branches := []Branch{}
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, "|", 2)
		name := strings.TrimPrefix(strings.TrimSpace(parts[0]), remotePrefix)
		if name == "" || name == "origin" || strings.HasPrefix(name, "HEAD") || strings.HasPrefix(name, "(") {
			continue
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		b := Branch{Name: name}
		if len(parts) == 2 {
			b.Date = strings.TrimSpace(parts[1])
		}
		branches = append(branches, b)
	}
	return branches
}
