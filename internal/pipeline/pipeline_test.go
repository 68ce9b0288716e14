package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/report"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

type fakeGen struct {
	name   string
	bundle taskgen.Bundle
	err    error
	calls  int
}

func (g *fakeGen) Name() string { return g.name }

func (g *fakeGen) Generate(context.Context) (taskgen.Bundle, error) {
	g.calls++
	return g.bundle, g.err
}

type fakeTracker struct {
	project  *taiga.Project
	created  []taiga.NewUserStory
	newProj  []taiga.NewProject
	failOn   string
	members  []taiga.Member
	statuses []taiga.Status
}

func (f *fakeTracker) CreateUserStory(_ context.Context, us taiga.NewUserStory) (*taiga.UserStory, error) {
	if us.Subject == f.failOn {
		return nil, errors.New("rejected")
	}
	f.created = append(f.created, us)
	return &taiga.UserStory{ID: len(f.created), Subject: us.Subject}, nil
}

func (f *fakeTracker) ResolveProject(_ context.Context, ref string) (*taiga.Project, error) {
	if f.project == nil || (ref != f.project.Slug && ref != "7") {
		return nil, errors.New("not found")
	}
	return f.project, nil
}

func (f *fakeTracker) CreateProject(_ context.Context, p taiga.NewProject) (*taiga.Project, error) {
	f.newProj = append(f.newProj, p)
	return &taiga.Project{ID: 99, Name: p.Name, Slug: "new-slug"}, nil
}

func (f *fakeTracker) UserStoryStatuses(context.Context, int) ([]taiga.Status, error) {
	return f.statuses, nil
}

func (f *fakeTracker) Members(context.Context, int) ([]taiga.Member, error) {
	return f.members, nil
}

func item(kind taskgen.Kind, title string) taskgen.Item {
	return taskgen.Item{Kind: kind, Title: title, Status: taskgen.StatusNew}
}

func noSleep(slept *[]time.Duration) taskgen.Sleeper {
	return func(_ context.Context, d time.Duration) error {
		if slept != nil {
			*slept = append(*slept, d)
		}
		return nil
	}
}

func TestPreflight(t *testing.T) {
	orig := lookPath
	defer func() { lookPath = orig }()

	lookPath = func(string) (string, error) { return "", errors.New("missing") }
	if err := Preflight(&config.Plan{Sources: config.Sources{Git: true}}); err == nil {
		t.Fatal("expected error when git is missing")
	}
	if err := Preflight(&config.Plan{Sources: config.Sources{CodeReview: true}}); err != nil {
		t.Fatalf("git not needed: %v", err)
	}

	lookPath = func(string) (string, error) { return "/usr/bin/git", nil }
	if err := Preflight(&config.Plan{Sources: config.Sources{Git: true}}); err != nil {
		t.Fatal(err)
	}
}

func TestBuild_Order(t *testing.T) {
	dir := t.TempDir()
	roadmapPath := filepath.Join(dir, "ROADMAP.md")
	if err := os.WriteFile(roadmapPath, []byte("# Plan\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	plan := &config.Plan{
		ProjectDir: dir,
		Sources:    config.Sources{Git: true, Roadmap: config.RoadmapAuto, CodeReview: true},
	}
	gens := Build(plan, discovery.Profile{RoadmapFiles: []string{roadmapPath}})

	var names []string
	for _, g := range gens {
		names = append(names, g.Name())
	}
	if !slices.Equal(names, []string{"git history", "roadmap", "code review"}) {
		t.Fatalf("names = %v", names)
	}
}

func TestBuild_SkipsUnavailableSources(t *testing.T) {
	plan := &config.Plan{
		ProjectDir: filepath.Join(t.TempDir(), "gone"),
		Sources:    config.Sources{Roadmap: config.RoadmapAuto, CodeReview: true},
	}
	if gens := Build(plan, discovery.Profile{}); len(gens) != 0 {
		t.Fatalf("gens = %d", len(gens))
	}
}

func TestResolveTarget_Existing(t *testing.T) {
	tr := &fakeTracker{
		project:  &taiga.Project{ID: 7, Slug: "shop"},
		members:  []taiga.Member{{ID: 3, Username: "ana"}},
		statuses: []taiga.Status{{ID: 1, Name: "New"}, {ID: 2, Name: "Done", IsClosed: true}},
	}
	project, target, err := ResolveTarget(context.Background(), tr, config.Tracker{Project: "shop"})
	if err != nil {
		t.Fatal(err)
	}
	if project.ID != 7 || target.ProjectID != 7 {
		t.Fatalf("project = %+v target = %+v", project, target)
	}
	if len(target.Members) != 1 || len(target.Statuses) != 2 {
		t.Fatalf("target = %+v", target)
	}
	if _, _, err := ResolveTarget(context.Background(), tr, config.Tracker{Project: "other"}); err == nil {
		t.Fatal("expected error for unknown project")
	}
}

func TestResolveTarget_Create(t *testing.T) {
	tr := &fakeTracker{}
	project, target, err := ResolveTarget(context.Background(), tr, config.Tracker{
		Create: &config.NewProject{Name: "Fresh", Description: "d", Private: true},
	})
	if err != nil {
		t.Fatal(err)
	}
	if project.ID != 99 || target.ProjectID != 99 {
		t.Fatalf("project = %+v", project)
	}
	if len(tr.newProj) != 1 || !tr.newProj[0].IsPrivate || tr.newProj[0].Name != "Fresh" {
		t.Fatalf("create calls = %+v", tr.newProj)
	}
}

func TestRunner_PreviewAndExecute(t *testing.T) {
	git := &fakeGen{name: "git history", bundle: taskgen.Bundle{
		Epics:       []taskgen.Item{item(taskgen.KindEpic, "Checkout epic")},
		UserStories: []taskgen.Item{item(taskgen.KindUserStory, "Checkout story")},
	}}
	broken := &fakeGen{name: "roadmap", err: errors.New("reading roadmap: boom")}
	review := &fakeGen{name: "code review", bundle: taskgen.Bundle{
		Tasks: []taskgen.Item{item(taskgen.KindTask, "Add tests for cart.js"), item(taskgen.KindTask, "Document cart.js")},
	}}

	tr := &fakeTracker{failOn: "Document cart.js"}
	var slept []time.Duration
	rep := report.New(false)
	r := &Runner{
		Generators: []taskgen.Generator{git, broken, review},
		Tracker:    tr,
		Delays:     config.DefaultDelays,
		Report:     rep,
		Sleep:      noSleep(&slept),
	}

	preview, err := r.Preview(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(preview) != 2 || preview[0].Epics != 1 || preview[1].Tasks != 2 {
		t.Fatalf("preview = %+v", preview)
	}

	rows, err := r.Execute(context.Background(), taskgen.Target{ProjectID: 7})
	if err != nil {
		t.Fatal(err)
	}
	if git.calls != 1 || review.calls != 1 {
		t.Fatal("Execute should reuse the preview bundles")
	}
	if len(rows) != 2 || rows[0].Created != 2 || rows[1].Created != 1 || rows[1].Failed != 1 {
		t.Fatalf("rows = %+v", rows)
	}
	if len(tr.created) != 3 || tr.created[0].Project != 7 {
		t.Fatalf("created = %+v", tr.created)
	}
	if !slices.Contains(slept, config.DefaultDelays.Generator) {
		t.Fatalf("no pause between sources: %v", slept)
	}
	if created, failed := rep.Totals(); created != 3 || failed != 1 {
		t.Fatalf("report totals = %d/%d", created, failed)
	}
}

func TestRunner_ExecuteWithoutPreview(t *testing.T) {
	g := &fakeGen{name: "roadmap", bundle: taskgen.Bundle{
		UserStories: []taskgen.Item{item(taskgen.KindUserStory, "Phase 1: Foundation")},
	}}
	tr := &fakeTracker{}
	var slept []time.Duration
	r := &Runner{Generators: []taskgen.Generator{g}, Tracker: tr, Delays: config.DefaultDelays, Sleep: noSleep(&slept)}
	if _, err := r.Execute(context.Background(), taskgen.Target{ProjectID: 1}); err != nil {
		t.Fatal(err)
	}
	if g.calls != 1 || len(tr.created) != 1 {
		t.Fatalf("calls = %d created = %d", g.calls, len(tr.created))
	}
	if slices.Contains(slept, config.DefaultDelays.Generator) {
		t.Fatal("no pause expected after the last source")
	}
}

func TestRunner_Cancelled(t *testing.T) {
	g := &fakeGen{name: "git history", bundle: taskgen.Bundle{
		Tasks: []taskgen.Item{item(taskgen.KindTask, "Fix login redirect")},
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Generators: []taskgen.Generator{g}, Tracker: &fakeTracker{}, Sleep: noSleep(nil)}
	if _, err := r.Execute(ctx, taskgen.Target{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
}
