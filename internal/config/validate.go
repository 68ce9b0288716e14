package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Validate checks the plan for errors and sets defaults. A relative
// project-dir is made absolute against baseDir.
func Validate(p *Plan, baseDir string) error {
	if strings.TrimSpace(p.ProjectDir) == "" {
		return fmt.Errorf("config: 'project-dir' is required")
	}
	if !filepath.IsAbs(p.ProjectDir) {
		p.ProjectDir = filepath.Join(baseDir, p.ProjectDir)
	}
	abs, err := filepath.Abs(p.ProjectDir)
	if err != nil {
		return fmt.Errorf("config: project-dir %q: %w", p.ProjectDir, err)
	}
	p.ProjectDir = abs
	info, err := os.Stat(p.ProjectDir)
	if err != nil {
		return fmt.Errorf("config: project-dir %q not found", p.ProjectDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("config: project-dir %q is not a directory", p.ProjectDir)
	}

	hasProject := strings.TrimSpace(p.Tracker.Project) != ""
	hasCreate := p.Tracker.Create != nil
	switch {
	case hasProject && hasCreate:
		return fmt.Errorf("config: tracker: 'project' and 'create' cannot be combined")
	case !hasProject && !hasCreate:
		return fmt.Errorf("config: tracker: one of 'project' or 'create' is required")
	case hasCreate && strings.TrimSpace(p.Tracker.Create.Name) == "":
		return fmt.Errorf("config: tracker: create.name is required")
	}

	if !p.Sources.Git && p.Sources.Roadmap == "" && !p.Sources.CodeReview {
		return fmt.Errorf("config: sources: at least one source must be enabled")
	}

	delays := []struct {
		name string
		v    *time.Duration
		def  time.Duration
	}{
		{"epic", &p.Delays.Epic, DefaultDelays.Epic},
		{"story", &p.Delays.Story, DefaultDelays.Story},
		{"task", &p.Delays.Task, DefaultDelays.Task},
		{"generator", &p.Delays.Generator, DefaultDelays.Generator},
	}
	for _, d := range delays {
		if *d.v < 0 {
			return fmt.Errorf("config: delays: %s must be >= 0", d.name)
		}
		if *d.v == 0 {
			*d.v = d.def
		}
	}
	return nil
}
