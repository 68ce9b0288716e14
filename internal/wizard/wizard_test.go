package wizard

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/taiga"
)

type fakeProjects []taiga.Project

func (f fakeProjects) ListProjects(context.Context) ([]taiga.Project, error) {
	return f, nil
}

func newWizard(input string, projects fakeProjects, profile discovery.Profile) (*Wizard, *bytes.Buffer) {
	var out bytes.Buffer
	return &Wizard{
		Prompt:   NewPrompter(strings.NewReader(input), &out),
		Projects: projects,
		Discover: func(string) discovery.Profile { return profile },
	}, &out
}

func lines(answers ...string) string {
	return strings.Join(answers, "\n") + "\n"
}

var shop = fakeProjects{{ID: 4, Name: "Shop", Slug: "shop"}, {ID: 9, Name: "Blog", Slug: "blog"}}

func TestRun_SelectExisting(t *testing.T) {
	dir := t.TempDir()
	w, out := newWizard(
		lines(dir, "y", "y", "n", "", "2"),
		shop,
		discovery.Profile{Type: "node", HasVersionControl: true, HasRoadmap: true},
	)
	plan, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if plan.Tracker.Project != "9" || plan.Tracker.Create != nil {
		t.Fatalf("tracker = %+v", plan.Tracker)
	}
	if !plan.Sources.Git || plan.Sources.Roadmap != config.RoadmapAuto || plan.Sources.CodeReview {
		t.Fatalf("sources = %+v", plan.Sources)
	}
	if plan.Delays != config.DefaultDelays {
		t.Fatalf("delays = %+v", plan.Delays)
	}
	if !strings.Contains(out.String(), "0. Create a new project") || !strings.Contains(out.String(), "2. Blog (blog)") {
		t.Fatalf("output = %q", out.String())
	}
	if !strings.Contains(out.String(), "Framework:"+"\x1b[0m Generic") {
		t.Fatalf("framework fallback missing: %q", out.String())
	}
}

func TestRun_CreateProject(t *testing.T) {
	dir := t.TempDir()
	w, _ := newWizard(
		lines(dir, "y", "docs/PLAN.md", "0", "Fresh", "Imported", "y"),
		shop,
		discovery.Profile{Type: "generic"},
	)
	plan, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := config.NewProject{Name: "Fresh", Description: "Imported", Private: true}
	if plan.Tracker.Create == nil || *plan.Tracker.Create != want {
		t.Fatalf("create = %+v", plan.Tracker.Create)
	}
	if plan.Sources.Git || !plan.Sources.CodeReview || plan.Sources.Roadmap != "docs/PLAN.md" {
		t.Fatalf("sources = %+v", plan.Sources)
	}
}

func TestRun_EmptyDirUsesWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	w, _ := newWizard(lines("", "y", "", "1"), shop, discovery.Profile{})
	w.Getwd = func() (string, error) { return dir, nil }
	plan, err := w.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if plan.ProjectDir != dir {
		t.Fatalf("dir = %q", plan.ProjectDir)
	}
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name     string
		input    string
		projects fakeProjects
		want     string
	}{
		{"missing dir", lines(filepath.Join(dir, "gone")), shop, "project path does not exist"},
		{"no projects", lines(dir, "y", ""), nil, ErrNoProjects.Error()},
		{"out of range", lines(dir, "y", "", "3"), shop, ErrInvalidSelection.Error()},
		{"not a number", lines(dir, "y", "", "shop"), shop, ErrInvalidSelection.Error()},
		{"no sources", lines(dir, "n", "", "1"), shop, "at least one source"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := newWizard(tt.input, tt.projects, discovery.Profile{})
			_, err := w.Run(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestPrompter(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("  Yes \nlast"), &out)
	ok, err := p.Confirm(context.Background(), "Continue?")
	if err != nil || !ok {
		t.Fatalf("confirm = %v, %v", ok, err)
	}
	if out.String() != "Continue? (y/N): " {
		t.Fatalf("out = %q", out.String())
	}
	got, err := p.Ask(context.Background(), "Name:")
	if err != nil || got != "last" {
		t.Fatalf("ask = %q, %v", got, err)
	}
	if _, err := p.Ask(context.Background(), "More:"); !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v", err)
	}
}

func TestPrompter_Cancelled(t *testing.T) {
	r, w := io.Pipe()
	defer w.Close()
	p := NewPrompter(r, io.Discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Ask(ctx, "Name:"); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}

	go func() { _, _ = io.WriteString(w, "ana\n") }()
	got, err := p.Ask(context.Background(), "Name:")
	if err != nil || got != "ana" {
		t.Fatalf("answer after cancel = %q, %v", got, err)
	}
}

func TestSelectProject(t *testing.T) {
	p := NewPrompter(strings.NewReader(lines("2")), io.Discard)
	got, err := SelectProject(context.Background(), p, shop)
	if err != nil || got.Slug != "blog" {
		t.Fatalf("got = %+v, %v", got, err)
	}

	p = NewPrompter(strings.NewReader(lines("0")), io.Discard)
	if _, err := SelectProject(context.Background(), p, shop); !errors.Is(err, ErrInvalidSelection) {
		t.Fatalf("err = %v", err)
	}
	if _, err := SelectProject(context.Background(), p, nil); !errors.Is(err, ErrNoProjects) {
		t.Fatalf("err = %v", err)
	}
}
