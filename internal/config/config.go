package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

// DefaultFile is the run config written by `taigagen init`.
const DefaultFile = "taigagen.yaml"

// RoadmapAuto selects the first roadmap file found at the project root.
const RoadmapAuto = "auto"

// NewProject describes a project to create instead of selecting one.
type NewProject struct {
	Name        string `yaml:"name" toml:"name"`
	Description string `yaml:"description" toml:"description"`
	Private     bool   `yaml:"private" toml:"private"`
}

// Tracker names the target project: an existing one, or one to create.
type Tracker struct {
	// Project is a numeric id or a slug.
	Project string      `yaml:"project" toml:"project"`
	Create  *NewProject `yaml:"create" toml:"create"`
}

// Sources selects which generators run.
type Sources struct {
	Git bool `yaml:"git" toml:"git"`
	// Roadmap is a path relative to the project dir, RoadmapAuto, or empty.
	Roadmap    string `yaml:"roadmap" toml:"roadmap"`
	CodeReview bool   `yaml:"code-review" toml:"code-review"`
}

// Delays are pauses after each created item and between sources.
type Delays struct {
	Epic      time.Duration `yaml:"epic" toml:"epic"`
	Story     time.Duration `yaml:"story" toml:"story"`
	Task      time.Duration `yaml:"task" toml:"task"`
	Generator time.Duration `yaml:"generator" toml:"generator"`
}

// DefaultDelays are the pauses between tracker calls.
var DefaultDelays = Delays{
	Epic:      taskgen.DefaultDelays.Epic,
	Story:     taskgen.DefaultDelays.Story,
	Task:      taskgen.DefaultDelays.Task,
	Generator: time.Second,
}

// Engine returns the per-item delays.
func (d Delays) Engine() taskgen.Delays {
	return taskgen.Delays{Epic: d.Epic, Story: d.Story, Task: d.Task}
}

// Plan is everything one run needs. The wizard and config files both
// produce one; nothing changes it after Validate.
type Plan struct {
	ProjectDir string  `yaml:"project-dir" toml:"project-dir"`
	Tracker    Tracker `yaml:"tracker" toml:"tracker"`
	Sources    Sources `yaml:"sources" toml:"sources"`
	Delays     Delays  `yaml:"delays" toml:"delays"`
}

// Load reads a YAML or TOML (by extension) run config and returns a
// validated Plan. A relative project-dir is resolved against the directory
// holding the file.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var p Plan
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		md, err := toml.Decode(string(data), &p)
		if err != nil {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("config: %s: unknown key %q", path, undecoded[0].String())
		}
	} else {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: parsing %s: %w", path, err)
		}
	}
	if err := Validate(&p, filepath.Dir(path)); err != nil {
		return nil, err
	}
	return &p, nil
}

// RoadmapPath resolves the roadmap source against the discovered roadmap
// files (absolute paths). It returns "" when the roadmap source is off or
// "auto" found nothing.
func (p *Plan) RoadmapPath(discovered []string) string {
	switch p.Sources.Roadmap {
	case "":
		return ""
	case RoadmapAuto:
		if len(discovered) == 0 {
			return ""
		}
		return discovered[0]
	}
	if filepath.IsAbs(p.Sources.Roadmap) {
		return p.Sources.Roadmap
	}
	return filepath.Join(p.ProjectDir, p.Sources.Roadmap)
}

// Fields lists the plan for confirmation prompts.
func (p *Plan) Fields() [][2]string {
	target := p.Tracker.Project
	if p.Tracker.Create != nil {
		target = "new project " + p.Tracker.Create.Name
	}
	roadmap := p.Sources.Roadmap
	if roadmap == "" {
		roadmap = "off"
	}
	return [][2]string{
		{"Project dir", p.ProjectDir},
		{"Taiga project", target},
		{"Git history", onOff(p.Sources.Git)},
		{"Roadmap", roadmap},
		{"Code review", onOff(p.Sources.CodeReview)},
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
