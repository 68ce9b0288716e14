package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/subosito/gotenv"
	cli "github.com/urfave/cli/v3"

	"github.com/jorge-barreto/taigagen/internal/assign"
	"github.com/jorge-barreto/taigagen/internal/bridge"
	"github.com/jorge-barreto/taigagen/internal/codereview"
	"github.com/jorge-barreto/taigagen/internal/config"
	"github.com/jorge-barreto/taigagen/internal/discovery"
	"github.com/jorge-barreto/taigagen/internal/docs"
	"github.com/jorge-barreto/taigagen/internal/doctor"
	"github.com/jorge-barreto/taigagen/internal/gitlog"
	"github.com/jorge-barreto/taigagen/internal/logging"
	"github.com/jorge-barreto/taigagen/internal/pipeline"
	"github.com/jorge-barreto/taigagen/internal/report"
	"github.com/jorge-barreto/taigagen/internal/scaffold"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
	"github.com/jorge-barreto/taigagen/internal/ux"
	"github.com/jorge-barreto/taigagen/internal/wizard"
)

var version = "dev"

const defaultEnvFile = ".env"

func main() {
	// Flag env sources are read while parsing, so the env file has to be
	// loaded before Run.
	if err := loadEnvFile(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}

	app := &cli.Command{
		Name:        "taigagen",
		Usage:       "Fill a Taiga project with work items from git history, roadmaps and code review",
		Description: "Run 'taigagen docs' for documentation on sources, config files and submission.",
		Version:     version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Value: taiga.DefaultBaseURL, Usage: "Taiga API base URL", Sources: cli.EnvVars("TAIGA_API_URL")},
			&cli.StringFlag{Name: "username", Usage: "Taiga username", Sources: cli.EnvVars("TAIGA_USERNAME")},
			&cli.StringFlag{Name: "password", Usage: "Taiga password", Sources: cli.EnvVars("TAIGA_PASSWORD")},
			&cli.StringFlag{Name: "env-file", Value: defaultEnvFile, Usage: "Load variables from this file first"},
			&cli.StringFlag{Name: "debug-log", Usage: "Write a JSON debug log to this file"},
		},
		Action: wizardAction,
		Commands: []*cli.Command{
			wizardCmd(),
			runCmd(),
			discoverCmd(),
			projectsCmd(),
			storiesCmd(),
			assignCmd(),
			bridgeCmd(),
			initCmd(),
			doctorCmd(),
			docsCmd(),
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%serror:%s %v\n", ux.Red, ux.Reset, err)
		os.Exit(1)
	}
}

// loadEnvFile loads --env-file (or .env). A missing default file is fine;
// a missing file that was asked for is not. Variables already set win.
func loadEnvFile(args []string) error {
	path, explicit := defaultEnvFile, false
	for i, a := range args {
		if a == "--env-file" && i+1 < len(args) {
			path, explicit = args[i+1], true
			break
		}
		if v, ok := strings.CutPrefix(a, "--env-file="); ok {
			path, explicit = v, true
			break
		}
	}
	if err := gotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func newLogger(cmd *cli.Command) (*logging.Logger, error) {
	return logging.NewLogger(cmd.String("debug-log"), "debug")
}

func credentials(cmd *cli.Command) taiga.Credentials {
	return taiga.Credentials{Username: cmd.String("username"), Password: cmd.String("password")}
}

func newClient(cmd *cli.Command, logger *logging.Logger) *taiga.Client {
	return taiga.New(cmd.String("api-url"), credentials(cmd), taiga.WithLogger(logger))
}

func withSignals(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)
}

func wizardCmd() *cli.Command {
	return &cli.Command{
		Name:   "wizard",
		Usage:  "Answer a few questions, preview, and fill a project (default)",
		Action: wizardAction,
	}
}

func wizardAction(ctx context.Context, cmd *cli.Command) error {
	ctx, stop := withSignals(ctx)
	defer stop()

	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}
	defer logger.Close()
	client := newClient(cmd, logger)

	fmt.Printf("%sTaiga project generator%s\n\n", ux.Bold, ux.Reset)
	prompt := wizard.NewPrompter(os.Stdin, os.Stdout)
	w := &wizard.Wizard{Prompt: prompt, Projects: client}
	plan, err := w.Run(ctx)
	if err != nil {
		return err
	}
	return execute(ctx, client, logger, plan, runOptions{prompt: prompt})
}

type runOptions struct {
	dryRun     bool
	reportPath string
	// prompt asks before anything is created; nil means go ahead.
	prompt *wizard.Prompter
}

func execute(ctx context.Context, client *taiga.Client, logger *logging.Logger, plan *config.Plan, opts runOptions) error {
	if err := pipeline.Preflight(plan); err != nil {
		return err
	}
	fmt.Println(ux.RenderFields("Run plan", plan.Fields()))

	rep := report.New(opts.dryRun)
	logger = logger.WithRun(rep.RunID)
	logger.Info("run started", "project_dir", plan.ProjectDir, "dry_run", opts.dryRun)

	profile := pipeline.Discover(plan.ProjectDir)
	r := &pipeline.Runner{
		Generators: pipeline.Build(plan, profile),
		Tracker:    client,
		Delays:     plan.Delays,
		Logger:     logger,
		Report:     rep,
	}
	if len(r.Generators) == 0 {
		return fmt.Errorf("none of the enabled sources could be set up")
	}

	ux.Heading("Preview")
	preview, err := r.Preview(ctx)
	if err != nil {
		return err
	}
	fmt.Println(ux.RenderPreview(preview))

	if opts.dryRun {
		ux.Info("Dry run: nothing was sent to Taiga.")
		return nil
	}
	if opts.prompt != nil {
		ok, err := opts.prompt.Confirm(ctx, "Proceed with population?")
		if err != nil {
			return err
		}
		if !ok {
			ux.Info("Population cancelled.")
			return nil
		}
	}

	project, target, err := pipeline.ResolveTarget(ctx, client, plan.Tracker)
	if err != nil {
		return err
	}
	url := taiga.ProjectURL(project.Slug)
	rep.SetProject(project.ID, url)
	ux.Info("Target: %s (%s)", project.Name, url)

	rows, runErr := r.Execute(ctx, target)
	rep.Close()
	if opts.reportPath != "" {
		if err := rep.Write(opts.reportPath); err != nil {
			ux.Warn("%v", err)
		} else {
			ux.Info("Report written to %s", opts.reportPath)
		}
	}
	fmt.Println(ux.RenderSummary(rows, url))
	created, failed := rep.Totals()
	ux.Success(created, failed)
	logger.Info("run finished", "created", created, "failed", failed)
	return runErr
}

func runCmd() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Fill a project from a run config file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Value: config.DefaultFile, Usage: "Run config (.yaml or .toml)"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Preview without creating anything"},
			&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask before creating items"},
			&cli.StringFlag{Name: "report", Usage: "Write a JSON report of every item to this file"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			plan, err := config.Load(cmd.String("config"))
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			ctx, stop := withSignals(ctx)
			defer stop()

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			opts := runOptions{dryRun: cmd.Bool("dry-run"), reportPath: cmd.String("report")}
			if !cmd.Bool("yes") {
				opts.prompt = wizard.NewPrompter(os.Stdin, os.Stdout)
			}
			return execute(ctx, newClient(cmd, logger), logger, plan, opts)
		},
	}
}

type discoverOutput struct {
	Profile        discovery.Profile       `json:"profile"`
	History        *gitlog.Stats           `json:"history,omitempty"`
	Epics          []gitlog.EpicSuggestion `json:"suggested_epics,omitempty"`
	FrameworkHints []string                `json:"framework_hints,omitempty"`
	CodeReview     *codereview.Metrics     `json:"code_review,omitempty"`
}

func discoverCmd() *cli.Command {
	return &cli.Command{
		Name:      "discover",
		Usage:     "Show what taigagen finds in a project directory",
		ArgsUsage: "[dir]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "code-review", Usage: "Also scan the source tree"},
			&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := cmd.Args().First()
			if dir == "" {
				dir = "."
			}
			info, err := os.Stat(dir)
			if err != nil {
				return fmt.Errorf("project path does not exist: %s", dir)
			}
			if !info.IsDir() {
				return fmt.Errorf("project path is not a directory: %s", dir)
			}

			out := discoverOutput{Profile: pipeline.Discover(dir)}
			out.FrameworkHints = discovery.SuggestedTasks(out.Profile)
			if out.Profile.HasVersionControl {
				an := gitlog.NewAnalyzer(dir).Analyze(ctx)
				for _, d := range an.Diagnostics {
					ux.Warn("%s", d)
				}
				st := an.Statistics()
				out.History = &st
				out.Epics = gitlog.SuggestEpics(an.Phases, an.Branches)
			}
			if cmd.Bool("code-review") {
				g, err := codereview.New(dir, out.Profile, taskgen.Tagger{Framework: out.Profile.Framework})
				if err != nil {
					return err
				}
				m, err := g.Analyze(ctx)
				if err != nil {
					return err
				}
				out.CodeReview = &m
			}

			if cmd.Bool("json") {
				data, err := json.MarshalIndent(out, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(data))
				return nil
			}
			printDiscovery(out)
			return nil
		},
	}
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func printDiscovery(out discoverOutput) {
	p := out.Profile
	framework := p.Framework
	if framework == "" {
		framework = "Generic"
	}
	fmt.Println(ux.RenderFields("Project", [][2]string{
		{"Type", p.Type},
		{"Framework", framework},
		{"Version control", fmt.Sprint(p.HasVersionControl)},
		{"Roadmap files", orNone(p.RoadmapFiles)},
		{"Documentation", orNone(p.DocumentationFiles)},
		{"Package files", orNone(p.PackageFiles)},
		{"Config files", orNone(p.ConfigFiles)},
	}))

	if h := out.History; h != nil {
		fields := [][2]string{
			{"Commits", ux.Count(h.TotalCommits)},
			{"Branches", ux.Count(h.TotalBranches)},
			{"Phases", ux.Count(h.Phases)},
			{"Span", h.Earliest + " to " + h.Latest},
		}
		for _, c := range h.TopContributors {
			fields = append(fields, [2]string{"Contributor", fmt.Sprintf("%s (%s)", c.Name, ux.Count(c.Commits))})
		}
		fmt.Println(ux.RenderFields("History", fields))
	}
	if len(out.Epics) > 0 {
		ux.Heading("Suggested epics")
		for _, e := range out.Epics {
			ux.Info("%s: %s", e.Title, e.Description)
		}
	}
	if len(out.FrameworkHints) > 0 {
		ux.Heading("Framework hints")
		for _, h := range out.FrameworkHints {
			ux.Info("%s", h)
		}
	}
	if m := out.CodeReview; m != nil {
		fmt.Println(ux.RenderFields("Code review", [][2]string{
			{"Files", ux.Count(m.TotalFiles)},
			{"Lines", ux.Count(m.LinesOfCode)},
			{"Without tests", ux.Count(len(m.FilesWithoutTests))},
			{"Without docs", ux.Count(len(m.FilesWithoutDocs))},
			{"Security issues", ux.Count(len(m.SecurityIssues))},
			{"Long functions", ux.Count(len(m.ComplexityIssues))},
			{"Dependency issues", orNone(m.DependencyIssues)},
		}))
	}
}

func projectsCmd() *cli.Command {
	return &cli.Command{
		Name:  "projects",
		Usage: "List the Taiga projects you are a member of",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			projects, err := newClient(cmd, logger).ListProjects(ctx)
			if err != nil {
				return err
			}
			if len(projects) == 0 {
				return wizard.ErrNoProjects
			}
			for i, p := range projects {
				fmt.Printf("  %d. %s (%s)  %s%s%s\n", i+1, p.Name, p.Slug, ux.Dim, taiga.ProjectURL(p.Slug), ux.Reset)
			}
			return nil
		},
	}
}

func storiesCmd() *cli.Command {
	return &cli.Command{
		Name:      "stories",
		Usage:     "Show the user stories of a project",
		ArgsUsage: "<project id or slug>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ref := cmd.Args().First()
			if ref == "" {
				return fmt.Errorf("project argument is required")
			}
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()
			client := newClient(cmd, logger)

			project, err := client.ResolveProject(ctx, ref)
			if err != nil {
				return err
			}
			stories, err := client.UserStories(ctx, project.ID)
			if err != nil {
				return err
			}
			statuses, err := client.UserStoryStatuses(ctx, project.ID)
			if err != nil {
				return err
			}
			names := make(map[int]string, len(statuses))
			for _, s := range statuses {
				names[s.ID] = s.Name
			}

			assigned := 0
			for _, us := range stories {
				owner := ux.Yellow + "unassigned" + ux.Reset
				if us.AssignedTo != nil {
					assigned++
					owner = "assigned"
				}
				fmt.Printf("  #%-5d %s [%s] %s\n", us.Ref, us.Subject, names[us.Status], owner)
			}
			fmt.Println(ux.RenderFields(project.Name, [][2]string{
				{"User stories", ux.Count(len(stories))},
				{"Assigned", ux.Count(assigned)},
				{"Assignment rate", ux.Percent(assigned, len(stories))},
				{"URL", taiga.ProjectURL(project.Slug)},
			}))
			return nil
		},
	}
}

func assignCmd() *cli.Command {
	return &cli.Command{
		Name:  "assign",
		Usage: "Assign every unassigned user story of a project",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "project", Usage: "Project id or slug (asks when empty)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			ctx, stop := withSignals(ctx)
			defer stop()

			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()
			client := newClient(cmd, logger)
			prompt := wizard.NewPrompter(os.Stdin, os.Stdout)

			fmt.Printf("%sBulk assignment%s\n\n", ux.Bold, ux.Reset)
			if _, err := client.CurrentUser(ctx); err != nil {
				return fmt.Errorf("connecting to Taiga: %w", err)
			}

			var project *taiga.Project
			if ref := cmd.String("project"); ref != "" {
				project, err = client.ResolveProject(ctx, ref)
			} else {
				var projects []taiga.Project
				if projects, err = client.ListProjects(ctx); err == nil {
					project, err = wizard.SelectProject(ctx, prompt, projects)
				}
			}
			if err != nil {
				return err
			}
			ux.Info("Selected: %s", project.Name)

			a := &assign.Assigner{Tracker: client, Prompt: prompt, Delay: assign.DefaultDelay, Logger: logger}
			res, err := a.Run(ctx, project)
			if err != nil {
				return err
			}
			if res.Cancelled {
				ux.Info("Operation cancelled.")
				return nil
			}
			if res.Assigned+res.Failed > 0 {
				fmt.Print(assign.Summary(res, project))
			}
			return nil
		},
	}
}

func bridgeCmd() *cli.Command {
	return &cli.Command{
		Name:  "bridge",
		Usage: "Serve Taiga tools over stdio for assistants",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			logger, err := newLogger(cmd)
			if err != nil {
				return err
			}
			defer logger.Close()

			url := cmd.String("api-url")
			connect := func(creds taiga.Credentials) bridge.Tracker {
				return taiga.New(url, creds, taiga.WithLogger(logger))
			}
			return bridge.New(connect, credentials(cmd), logger).Serve(version)
		},
	}
}

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Write a starter run config for the current directory",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Value: "yaml", Usage: "yaml or toml"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir, err := os.Getwd()
			if err != nil {
				return err
			}
			var name string
			switch cmd.String("format") {
			case "yaml":
				name = config.DefaultFile
			case "toml":
				name = "taigagen.toml"
			default:
				return fmt.Errorf("unknown format %q (want yaml or toml)", cmd.String("format"))
			}
			written, err := scaffold.Init(dir, name, pipeline.Discover(dir))
			if err != nil {
				return err
			}
			scaffold.PrintSuccess(name, written)
			return nil
		},
	}
}

func doctorCmd() *cli.Command {
	return &cli.Command{
		Name:      "doctor",
		Usage:     "Explain the failures recorded in a run report",
		ArgsUsage: "<report.json>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("report path is required (write one with 'taigagen run --report FILE')")
			}
			rep, err := report.Load(path)
			if err != nil {
				return err
			}
			doctor.Write(os.Stdout, rep)
			return nil
		},
	}
}

func docsCmd() *cli.Command {
	return &cli.Command{
		Name:      "docs",
		Usage:     "Show documentation",
		ArgsUsage: "[topic]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				fmt.Print("\nAvailable topics:\n\n")
				for _, t := range docs.All() {
					fmt.Printf("  %-14s %s\n", t.Name, t.Summary)
				}
				fmt.Println("\nRun 'taigagen docs <topic>' to read a topic.")
				return nil
			}
			t, err := docs.Get(name)
			if err != nil {
				return err
			}
			fmt.Print(t.Content)
			return nil
		},
	}
}
