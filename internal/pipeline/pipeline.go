// Package pipeline wires a run together: it builds the generators a Plan
// asks for, previews what they produce and submits their bundles to Taiga
// one source at a time.
package pipeline

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/jorge-barreto/taigagen/internal/codereview"
	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/gitgen"
	"github.com/jorge-barreto/taigagen/internal/logging"
	"github.com/jorge-barreto/taigagen/internal/report"
	"github.com/jorge-barreto/taigagen/internal/roadmap"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

// Tracker is the part of the Taiga client a run needs.
type Tracker interface {
	taskgen.Tracker
	ResolveProject(ctx context.Context, ref string) (*taiga.Project, error)
	CreateProject(ctx context.Context, p taiga.NewProject) (*taiga.Project, error)
	UserStoryStatuses(ctx context.Context, projectID int) ([]taiga.Status, error)
	Members(ctx context.Context, projectID int) ([]taiga.Member, error)
}

var lookPath = exec.LookPath

// Preflight checks that the binaries the enabled sources need are on PATH.
func Preflight(p *config.Plan) error {
	if !p.Sources.Git {
		return nil
	}
	if _, err := lookPath("git"); err != nil {
		return fmt.Errorf("required binary not found in PATH: git")
	}
	return nil
}

// Discover profiles the project directory, warning about anything that
// could not be read.
func Discover(dir string) discovery.Profile {
	res := discovery.New(dir).Discover()
	if res.Degraded() {
		ux.Warn("%s", res.Diagnostic)
	}
	return res.Value
}

// Build creates the generators of a plan in their fixed order: git
// history, roadmap, code review. A source that cannot be set up is
// reported and left out.
func Build(p *config.Plan, profile discovery.Profile) []taskgen.Generator {
	tagger := taskgen.Tagger{Framework: profile.Framework}
	var gens []taskgen.Generator
	if p.Sources.Git {
		gens = append(gens, gitgen.New(p.ProjectDir, tagger))
	}
	if p.Sources.Roadmap != "" {
		if path := p.RoadmapPath(profile.RoadmapFiles); path != "" {
			gens = append(gens, roadmap.New(path, tagger))
		} else {
			ux.SourceSkip("roadmap", "no roadmap file found")
		}
	}
	if p.Sources.CodeReview {
		g, err := codereview.New(p.ProjectDir, profile, tagger)
		if err != nil {
			ux.SourceFail("code review", err.Error())
		} else {
			gens = append(gens, g)
		}
	}
	return gens
}

// ResolveTarget finds or creates the project items go into and loads its
// statuses and members.
func ResolveTarget(ctx context.Context, tr Tracker, t config.Tracker) (*taiga.Project, taskgen.Target, error) {
	var (
		project *taiga.Project
		err     error
	)
	if t.Create != nil {
		project, err = tr.CreateProject(ctx, taiga.NewProject{
			Name:        t.Create.Name,
			Description: t.Create.Description,
			IsPrivate:   t.Create.Private,
		})
		if err != nil {
			return nil, taskgen.Target{}, fmt.Errorf("creating project %q: %w", t.Create.Name, err)
		}
	} else {
		project, err = tr.ResolveProject(ctx, t.Project)
		if err != nil {
			return nil, taskgen.Target{}, fmt.Errorf("resolving project %q: %w", t.Project, err)
		}
	}

	statuses, err := tr.UserStoryStatuses(ctx, project.ID)
	if err != nil {
		return nil, taskgen.Target{}, fmt.Errorf("loading statuses of project %d: %w", project.ID, err)
	}
	members := project.Members
	if len(members) == 0 {
		if members, err = tr.Members(ctx, project.ID); err != nil {
			return nil, taskgen.Target{}, fmt.Errorf("loading members of project %d: %w", project.ID, err)
		}
	}
	return project, taskgen.Target{ProjectID: project.ID, Statuses: statuses, Members: members}, nil
}

type planned struct {
	gen    taskgen.Generator
	bundle taskgen.Bundle
	err    error
}

// Runner previews and executes a list of generators.
type Runner struct {
	Generators []taskgen.Generator
	Tracker    Tracker
	Delays     config.Delays
	Logger     *logging.Logger
	Report     *report.Report
	Sleep      taskgen.Sleeper

	planned   []planned
	previewed bool
}

func (r *Runner) logger() *logging.Logger {
	if r.Logger == nil {
		return logging.NopLogger()
	}
	return r.Logger
}

func (r *Runner) sleep(ctx context.Context, d time.Duration) error {
	if r.Sleep != nil {
		return r.Sleep(ctx, d)
	}
	return taskgen.Sleep(ctx, d)
}

// Preview runs every generator once and returns the planned counts. A
// generator error is reported and that source is left out of Execute.
func (r *Runner) Preview(ctx context.Context) ([]ux.PreviewRow, error) {
	r.planned = r.planned[:0]
	r.previewed = true
	var rows []ux.PreviewRow
	for _, g := range r.Generators {
		if err := ctx.Err(); err != nil {
			return rows, err
		}
		b, err := g.Generate(ctx)
		r.planned = append(r.planned, planned{gen: g, bundle: b, err: err})
		if err != nil {
			ux.SourceFail(g.Name(), err.Error())
			r.logger().Warn("generator failed", "source", g.Name(), "error", err.Error())
			continue
		}
		r.logger().Info("generated", "source", g.Name(),
			"epics", len(b.Epics), "stories", len(b.UserStories), "tasks", len(b.Tasks))
		rows = append(rows, ux.PreviewRow{
			Source:  g.Name(),
			Epics:   len(b.Epics),
			Stories: len(b.UserStories),
			Tasks:   len(b.Tasks),
		})
	}
	return rows, nil
}

// Execute submits the previewed bundles into target, strictly one source
// after another with the generator delay in between. Preview runs first if
// it has not. Only cancellation stops the run early.
func (r *Runner) Execute(ctx context.Context, target taskgen.Target) ([]ux.SummaryRow, error) {
	if !r.previewed {
		if _, err := r.Preview(ctx); err != nil {
			return nil, err
		}
	}

	var runnable []planned
	for _, p := range r.planned {
		if p.err == nil {
			runnable = append(runnable, p)
		}
	}

	var rows []ux.SummaryRow
	for i, p := range runnable {
		name := p.gen.Name()
		ux.SourceHeader(i, len(runnable), name)
		if r.Report != nil {
			r.Report.Start(name, p.bundle.Len())
		}

		engine := &taskgen.Engine{
			Tracker: r.Tracker,
			Target:  target,
			Delays:  r.Delays.Engine(),
			Sleep:   r.Sleep,
			Logger:  r.logger().WithSource(name),
		}
		start := time.Now()
		sum, err := engine.Execute(ctx, p.bundle)
		if r.Report != nil {
			r.Report.Finish(name, sum, err)
		}
		rows = append(rows, ux.SummaryRow{Source: name, Created: len(sum.Created), Failed: len(sum.Failed)})
		if err != nil {
			ux.SourceFail(name, err.Error())
			return rows, err
		}
		ux.SourceComplete(name, sum.String(), time.Since(start))

		if i < len(runnable)-1 {
			if err := r.sleep(ctx, r.Delays.Generator); err != nil {
				return rows, err
			}
		}
	}
	return rows, nil
}
