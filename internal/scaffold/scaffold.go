// Package scaffold writes a starter run config for a project.
package scaffold

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

const yamlTemplate = `# Run with: taigagen run --config %[1]s --dry-run
project-dir: .

tracker:
  # Numeric id or slug of an existing Taiga project.
  project: my-project
  # Or create a new project instead (remove 'project' above):
  # create:
  #   name: My Project
  #   description: Imported by taigagen
  #   private: false

sources:
  git: %[2]t
  # A path relative to project-dir, "auto" for the first roadmap file found,
  # or "" to skip.
  roadmap: %[3]q
  code-review: true

delays:
  epic: 500ms
  story: 400ms
  task: 300ms
  generator: 1s
`

const tomlTemplate = `# Run with: taigagen run --config %[1]s --dry-run
project-dir = "."

[tracker]
# Numeric id or slug of an existing Taiga project.
project = "my-project"
# Or create a new project instead (remove 'project' above):
# [tracker.create]
# name = "My Project"
# description = "Imported by taigagen"
# private = false

[sources]
git = %[2]t
# A path relative to project-dir, "auto" for the first roadmap file found,
# or "" to skip.
roadmap = %[3]q
code-review = true

[delays]
epic = "500ms"
story = "400ms"
task = "300ms"
generator = "1s"
`

const envTemplate = `TAIGA_API_URL=https://api.taiga.io/api/v1
TAIGA_USERNAME=
TAIGA_PASSWORD=
`

// Init writes a run config named name into targetDir, enabling the sources
// profile found. A ".toml" name selects TOML. It also writes .env.example
// when the directory has none.
func Init(targetDir, name string, profile discovery.Profile) ([]string, error) {
	if name == "" {
		name = config.DefaultFile
	}
	configPath := filepath.Join(targetDir, name)
	if _, err := os.Stat(configPath); err == nil {
		return nil, fmt.Errorf("%s already exists in %s", name, targetDir)
	}

	roadmap := ""
	if profile.HasRoadmap {
		roadmap = config.RoadmapAuto
	}
	tmpl := yamlTemplate
	if filepath.Ext(name) == ".toml" {
		tmpl = tomlTemplate
	}
	body := fmt.Sprintf(tmpl, name, profile.HasVersionControl, roadmap)
	if err := os.WriteFile(configPath, []byte(body), 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", name, err)
	}
	written := []string{name}

	envPath := filepath.Join(targetDir, ".env.example")
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		if err := os.WriteFile(envPath, []byte(envTemplate), 0o644); err != nil {
			return written, fmt.Errorf("writing .env.example: %w", err)
		}
		written = append(written, ".env.example")
	}
	return written, nil
}

// PrintSuccess reports what Init wrote.
func PrintSuccess(name string, written []string) {
	fmt.Printf("\n%s%s✓ Initialized %s%s\n\n", ux.Bold, ux.Green, name, ux.Reset)
	fmt.Printf("  Created:\n")
	for _, f := range written {
		fmt.Printf("    %s%s%s\n", ux.Cyan, f, ux.Reset)
	}
	fmt.Printf("\n  Next steps:\n")
	fmt.Printf("    1. Set %stracker.project%s to your Taiga project\n", ux.Cyan, ux.Reset)
	fmt.Printf("    2. Copy %s.env.example%s to %s.env%s and fill in your credentials\n", ux.Cyan, ux.Reset, ux.Cyan, ux.Reset)
	fmt.Printf("    3. Run %staigagen run --config %s --dry-run%s to preview\n\n", ux.Cyan, name, ux.Reset)
}
