// Package wizard walks a user through the questions of an interactive run
// and turns the answers into a config.Plan.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/pipeline"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

var (
	ErrNoProjects       = errors.New("No accessible Taiga projects found")
	ErrInvalidSelection = errors.New("Invalid project selection")
)

// Projects lists the tracker projects the user can pick from.
type Projects interface {
	ListProjects(ctx context.Context) ([]taiga.Project, error)
}

// Wizard asks for the project directory, the sources to use and the target
// project, in that order.
type Wizard struct {
	Prompt   *Prompter
	Projects Projects
	// Discover profiles the chosen directory.
	Discover func(dir string) discovery.Profile
	// Getwd resolves an empty directory answer.
	Getwd func() (string, error)
}

// Run asks every question and returns a validated plan.
func (w *Wizard) Run(ctx context.Context) (*config.Plan, error) {
	var plan config.Plan

	w.Prompt.Printf("%sProject discovery%s\n\n", ux.Bold, ux.Reset)
	dir, err := w.Prompt.Ask(ctx, "Project directory (Enter for the current directory):")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		getwd := w.Getwd
		if getwd == nil {
			getwd = os.Getwd
		}
		if dir, err = getwd(); err != nil {
			return nil, err
		}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("project path does not exist: %s", dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("project path is not a directory: %s", dir)
	}
	plan.ProjectDir = dir

	if err := w.askSources(ctx, &plan); err != nil {
		return nil, err
	}
	if err := w.askProject(ctx, &plan); err != nil {
		return nil, err
	}

	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	if err := config.Validate(&plan, wd); err != nil {
		return nil, err
	}
	return &plan, nil
}

func (w *Wizard) askSources(ctx context.Context, plan *config.Plan) error {
	discover := w.Discover
	if discover == nil {
		discover = pipeline.Discover
	}
	profile := discover(plan.ProjectDir)
	framework := profile.Framework
	if framework == "" {
		framework = "Generic"
	}
	w.Prompt.Printf("\n%sDetected:%s %s project\n%sFramework:%s %s\n\n",
		ux.Green, ux.Reset, profile.Type, ux.Green, ux.Reset, framework)

	var err error
	if profile.HasVersionControl {
		if plan.Sources.Git, err = w.Prompt.Confirm(ctx, "Analyze git history for completed tasks?"); err != nil {
			return err
		}
	}
	if profile.HasRoadmap {
		use, err := w.Prompt.Confirm(ctx, "Found roadmap file. Use it for future tasks?")
		if err != nil {
			return err
		}
		if use {
			plan.Sources.Roadmap = config.RoadmapAuto
		}
	}
	if plan.Sources.CodeReview, err = w.Prompt.Confirm(ctx, "Generate code review tasks?"); err != nil {
		return err
	}
	custom, err := w.Prompt.Ask(ctx, "Custom roadmap file path (optional):")
	if err != nil {
		return err
	}
	if custom != "" {
		plan.Sources.Roadmap = custom
	}
	return nil
}

func (w *Wizard) askProject(ctx context.Context, plan *config.Plan) error {
	w.Prompt.Printf("\n%sConnecting to Taiga...%s\n", ux.Dim, ux.Reset)
	projects, err := w.Projects.ListProjects(ctx)
	if err != nil {
		return fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		return ErrNoProjects
	}

	w.Prompt.Printf("\nAvailable Taiga projects:\n")
	w.Prompt.Printf("  0. Create a new project\n")
	for i, p := range projects {
		w.Prompt.Printf("  %d. %s (%s)\n", i+1, p.Name, p.Slug)
	}
	choice, err := w.Prompt.Ask(ctx, fmt.Sprintf("\nSelect project (0-%d):", len(projects)))
	if err != nil {
		return err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 0 || n > len(projects) {
		return ErrInvalidSelection
	}

	if n > 0 {
		selected := projects[n-1]
		plan.Tracker.Project = strconv.Itoa(selected.ID)
		w.Prompt.Printf("%sSelected:%s %s\n", ux.Green, ux.Reset, selected.Name)
		return nil
	}

	name, err := w.Prompt.Ask(ctx, "New project name:")
	if err != nil {
		return err
	}
	if name == "" {
		return ErrInvalidSelection
	}
	desc, err := w.Prompt.Ask(ctx, "Description (optional):")
	if err != nil {
		return err
	}
	private, err := w.Prompt.Confirm(ctx, "Private project?")
	if err != nil {
		return err
	}
	plan.Tracker.Create = &config.NewProject{Name: name, Description: desc, Private: private}
	return nil
}

// SelectProject lists projects and asks for one by its 1-based number.
func SelectProject(ctx context.Context, p *Prompter, projects []taiga.Project) (*taiga.Project, error) {
	if len(projects) == 0 {
		return nil, ErrNoProjects
	}
	p.Printf("Available projects:\n")
	for i, pr := range projects {
		p.Printf("  %d. %s (%s)\n", i+1, pr.Name, pr.Slug)
	}
	choice, err := p.Ask(ctx, "\nSelect project number:")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(choice)
	if err != nil || n < 1 || n > len(projects) {
		return nil, ErrInvalidSelection
	}
	return &projects[n-1], nil
}
