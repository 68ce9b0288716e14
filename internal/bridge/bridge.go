// Package bridge exposes the Taiga client as tools over a stdio tool-call
// protocol, so an assistant can read and write tracker items directly.
package bridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jorge-barreto/taigagen/internal/logging"
	"github.com/jorge-barreto/taigagen/internal/taiga"
)

// Tracker is the Taiga client surface the tools call.
type Tracker interface {
	Authenticate(ctx context.Context) error
	CurrentUser(ctx context.Context) (*taiga.User, error)
	ListProjects(ctx context.Context) ([]taiga.Project, error)
	ResolveProject(ctx context.Context, ref string) (*taiga.Project, error)
	CreateProject(ctx context.Context, p taiga.NewProject) (*taiga.Project, error)
	UserStories(ctx context.Context, projectID int) ([]taiga.UserStory, error)
	CreateUserStory(ctx context.Context, us taiga.NewUserStory) (*taiga.UserStory, error)
	UserStoryStatuses(ctx context.Context, projectID int) ([]taiga.Status, error)
	TaskStatuses(ctx context.Context, projectID int) ([]taiga.Status, error)
	Tasks(ctx context.Context, projectID, userStoryID int) ([]taiga.Task, error)
	CreateTask(ctx context.Context, t taiga.NewTask) (*taiga.Task, error)
}

// Connector builds a Tracker for a set of credentials.
type Connector func(creds taiga.Credentials) Tracker

// Bridge owns the current tracker connection. The authenticate tool can
// replace it with one for different credentials.
type Bridge struct {
	mu       sync.Mutex
	tracker  Tracker
	connect  Connector
	defaults taiga.Credentials
	logger   *logging.Logger
}

// New returns a bridge connected with the default credentials.
func New(connect Connector, defaults taiga.Credentials, logger *logging.Logger) *Bridge {
	if logger == nil {
		logger = logging.NopLogger()
	}
	return &Bridge{tracker: connect(defaults), connect: connect, defaults: defaults, logger: logger}
}

func (b *Bridge) current() Tracker {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.tracker
}

// Server registers every tool on a new server.
func (b *Bridge) Server(version string) *server.MCPServer {
	s := server.NewMCPServer(
		"taigagen",
		version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	project := mcp.WithString("projectIdentifier", mcp.Required(), mcp.Description("Project ID or slug"))
	tags := mcp.WithArray("tags", mcp.Description("Tags"), mcp.Items(map[string]any{"type": "string"}))
	status := mcp.WithString("status", mcp.Description(`Status name (e.g. "New", "In progress")`))

	s.AddTool(mcp.NewTool("authenticate",
		mcp.WithDescription("Authenticate with Taiga; falls back to the configured credentials"),
		mcp.WithString("username", mcp.Description("Taiga username")),
		mcp.WithString("password", mcp.Description("Taiga password")),
	), b.authenticate)

	s.AddTool(mcp.NewTool("listProjects",
		mcp.WithDescription("List the projects the user is a member of"),
	), b.listProjects)

	s.AddTool(mcp.NewTool("getProject",
		mcp.WithDescription("Show one project"),
		project,
	), b.getProject)

	s.AddTool(mcp.NewTool("createProject",
		mcp.WithDescription("Create a project"),
		mcp.WithString("name", mcp.Required(), mcp.Description("Project name")),
		mcp.WithString("description", mcp.Description("Project description")),
		mcp.WithBoolean("private", mcp.Description("Create as a private project")),
	), b.createProject)

	s.AddTool(mcp.NewTool("listUserStories",
		mcp.WithDescription("List the user stories of a project"),
		project,
	), b.listUserStories)

	s.AddTool(mcp.NewTool("createUserStory",
		mcp.WithDescription("Create a user story"),
		project,
		mcp.WithString("subject", mcp.Required(), mcp.Description("User story title")),
		mcp.WithString("description", mcp.Description("User story description")),
		status,
		tags,
	), b.createUserStory)

	s.AddTool(mcp.NewTool("listTasks",
		mcp.WithDescription("List the tasks of a project, optionally of one user story"),
		project,
		mcp.WithString("userStoryIdentifier", mcp.Description("User story ID or #ref")),
	), b.listTasks)

	s.AddTool(mcp.NewTool("createTask",
		mcp.WithDescription("Create a task under a user story"),
		project,
		mcp.WithString("userStoryIdentifier", mcp.Required(), mcp.Description("User story ID or #ref")),
		mcp.WithString("subject", mcp.Required(), mcp.Description("Task title")),
		mcp.WithString("description", mcp.Description("Task description")),
		status,
		tags,
	), b.createTask)

	s.AddTool(mcp.NewTool("listStatuses",
		mcp.WithDescription("List the workflow statuses of a project"),
		project,
		mcp.WithString("kind", mcp.Description("userstory or task"), mcp.Enum("userstory", "task")),
	), b.listStatuses)

	return s
}

// Serve runs the tools over stdin/stdout until the input closes.
func (b *Bridge) Serve(version string) error {
	return server.ServeStdio(b.Server(version))
}

func failure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("Failed to %s: %v", action, err))
}

func (b *Bridge) authenticate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	creds := taiga.Credentials{
		Username: req.GetString("username", b.defaults.Username),
		Password: req.GetString("password", b.defaults.Password),
	}
	if !creds.Complete() {
		return mcp.NewToolResultError("Username and password are required. Provide them or set TAIGA_USERNAME and TAIGA_PASSWORD."), nil
	}
	t := b.connect(creds)
	if err := t.Authenticate(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}
	user, err := t.CurrentUser(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Authentication failed: %v", err)), nil
	}
	b.mu.Lock()
	b.tracker = t
	b.mu.Unlock()
	b.logger.Info("bridge authenticated", "user", user.Username)
	return mcp.NewToolResultText(fmt.Sprintf("Successfully authenticated as %s (%s).", user.FullName, user.Username)), nil
}

func (b *Bridge) listProjects(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	projects, err := b.current().ListProjects(ctx)
	if err != nil {
		return failure("list projects", err), nil
	}
	var sb strings.Builder
	sb.WriteString("Your Taiga Projects:\n")
	for _, p := range projects {
		fmt.Fprintf(&sb, "\n- %s (ID: %d, Slug: %s)", p.Name, p.ID, p.Slug)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (b *Bridge) getProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := b.current().ResolveProject(ctx, ref)
	if err != nil {
		return failure("get project details", err), nil
	}
	desc := p.Description
	if desc == "" {
		desc = "No description"
	}
	return mcp.NewToolResultText(fmt.Sprintf(
		"Project Details:\n\nName: %s\nID: %d\nSlug: %s\nDescription: %s\nTotal Members: %d\nURL: %s",
		p.Name, p.ID, p.Slug, desc, len(p.Members), taiga.ProjectURL(p.Slug))), nil
}

func (b *Bridge) createProject(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	p, err := b.current().CreateProject(ctx, taiga.NewProject{
		Name:        name,
		Description: req.GetString("description", ""),
		IsPrivate:   req.GetBool("private", false),
	})
	if err != nil {
		return failure("create project", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Project created successfully!\n\nName: %s\nID: %d\nSlug: %s\nURL: %s",
		p.Name, p.ID, p.Slug, taiga.ProjectURL(p.Slug))), nil
}

func statusNames(statuses []taiga.Status) map[int]string {
	names := make(map[int]string, len(statuses))
	for _, s := range statuses {
		names[s.ID] = s.Name
	}
	return names
}

// statusID finds a status by case-insensitive name; 0 lets the tracker pick
// its default.
func statusID(statuses []taiga.Status, name string) int {
	for _, s := range statuses {
		if strings.EqualFold(s.Name, name) {
			return s.ID
		}
	}
	return 0
}

func (b *Bridge) listUserStories(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := b.current()
	p, err := t.ResolveProject(ctx, ref)
	if err != nil {
		return failure("list user stories", err), nil
	}
	stories, err := t.UserStories(ctx, p.ID)
	if err != nil {
		return failure("list user stories", err), nil
	}
	if len(stories) == 0 {
		return mcp.NewToolResultText("No user stories found in this project."), nil
	}
	statuses, err := t.UserStoryStatuses(ctx, p.ID)
	if err != nil {
		return failure("list user stories", err), nil
	}
	names := statusNames(statuses)

	var sb strings.Builder
	sb.WriteString("User Stories in Project:\n")
	for _, us := range stories {
		status := names[us.Status]
		if status == "" {
			status = "Unknown"
		}
		fmt.Fprintf(&sb, "\n- #%d: %s (Status: %s)", us.Ref, us.Subject, status)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (b *Bridge) createUserStory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subject, err := req.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := b.current()
	p, err := t.ResolveProject(ctx, ref)
	if err != nil {
		return failure("create user story", err), nil
	}
	us := taiga.NewUserStory{
		Project:     p.ID,
		Subject:     subject,
		Description: req.GetString("description", ""),
		Tags:        req.GetStringSlice("tags", nil),
	}
	if name := req.GetString("status", ""); name != "" {
		statuses, err := t.UserStoryStatuses(ctx, p.ID)
		if err != nil {
			return failure("create user story", err), nil
		}
		us.Status = statusID(statuses, name)
	}
	created, err := t.CreateUserStory(ctx, us)
	if err != nil {
		return failure("create user story", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("User story created successfully!\n\nSubject: %s\nReference: #%d\nProject: %s",
		created.Subject, created.Ref, p.Name)), nil
}

// storyID accepts a numeric id or a "#ref" of a story in the project.
func storyID(ctx context.Context, t Tracker, projectID int, ident string) (int, error) {
	if ref, ok := strings.CutPrefix(ident, "#"); ok {
		stories, err := t.UserStories(ctx, projectID)
		if err != nil {
			return 0, err
		}
		for _, us := range stories {
			if strconv.Itoa(us.Ref) == ref {
				return us.ID, nil
			}
		}
		return 0, fmt.Errorf("user story with reference %s not found", ident)
	}
	id, err := strconv.Atoi(ident)
	if err != nil {
		return 0, fmt.Errorf("invalid user story identifier %q", ident)
	}
	return id, nil
}

func (b *Bridge) listTasks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := b.current()
	p, err := t.ResolveProject(ctx, ref)
	if err != nil {
		return failure("list tasks", err), nil
	}
	var story int
	if ident := req.GetString("userStoryIdentifier", ""); ident != "" {
		if story, err = storyID(ctx, t, p.ID, ident); err != nil {
			return failure("list tasks", err), nil
		}
	}
	tasks, err := t.Tasks(ctx, p.ID, story)
	if err != nil {
		return failure("list tasks", err), nil
	}
	if len(tasks) == 0 {
		return mcp.NewToolResultText("No tasks found."), nil
	}
	statuses, err := t.TaskStatuses(ctx, p.ID)
	if err != nil {
		return failure("list tasks", err), nil
	}
	names := statusNames(statuses)

	var sb strings.Builder
	sb.WriteString("Tasks:\n")
	for _, task := range tasks {
		status := names[task.Status]
		if status == "" {
			status = "Unknown"
		}
		fmt.Fprintf(&sb, "\n- #%d: %s (Status: %s)", task.Ref, task.Subject, status)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (b *Bridge) createTask(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ident, err := req.RequireString("userStoryIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	subject, err := req.RequireString("subject")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := b.current()
	p, err := t.ResolveProject(ctx, ref)
	if err != nil {
		return failure("create task", err), nil
	}
	story, err := storyID(ctx, t, p.ID, ident)
	if err != nil {
		return failure("create task", err), nil
	}
	task := taiga.NewTask{
		Project:     p.ID,
		UserStory:   story,
		Subject:     subject,
		Description: req.GetString("description", ""),
		Tags:        req.GetStringSlice("tags", nil),
	}
	if name := req.GetString("status", ""); name != "" {
		statuses, err := t.TaskStatuses(ctx, p.ID)
		if err != nil {
			return failure("create task", err), nil
		}
		task.Status = statusID(statuses, name)
	}
	created, err := t.CreateTask(ctx, task)
	if err != nil {
		return failure("create task", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Task created successfully!\n\nSubject: %s\nReference: #%d\nProject: %s\nUser Story: %d",
		created.Subject, created.Ref, p.Name, story)), nil
}

func (b *Bridge) listStatuses(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ref, err := req.RequireString("projectIdentifier")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t := b.current()
	p, err := t.ResolveProject(ctx, ref)
	if err != nil {
		return failure("list statuses", err), nil
	}
	kind := req.GetString("kind", "userstory")
	var statuses []taiga.Status
	switch kind {
	case "userstory":
		statuses, err = t.UserStoryStatuses(ctx, p.ID)
	case "task":
		statuses, err = t.TaskStatuses(ctx, p.ID)
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown status kind %q", kind)), nil
	}
	if err != nil {
		return failure("list statuses", err), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Statuses (%s):\n", kind)
	for _, s := range statuses {
		closed := ""
		if s.IsClosed {
			closed = " [closed]"
		}
		fmt.Fprintf(&sb, "\n- %s (ID: %d)%s", s.Name, s.ID, closed)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
