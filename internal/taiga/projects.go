package taiga

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// CurrentUser returns the authenticated account.
func (c *Client) CurrentUser(ctx context.Context) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &u); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	return &u, nil
}

// ListProjects returns the projects the authenticated user is a member of.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	me, err := c.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	var projects []Project
	q := url.Values{"member": {strconv.Itoa(me.ID)}}
	if err := c.do(ctx, http.MethodGet, "/projects", q, nil, &projects); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	return projects, nil
}

// CreateProject creates a project. A zero CreationTemplate means template 1.
func (c *Client) CreateProject(ctx context.Context, p NewProject) (*Project, error) {
	if p.CreationTemplate == 0 {
		p.CreationTemplate = 1
	}
	var out Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, p, &out); err != nil {
		return nil, fmt.Errorf("creating project %q: %w", p.Name, err)
	}
	return &out, nil
}

// GetProject fetches a project with its members.
func (c *Client) GetProject(ctx context.Context, id int) (*Project, error) {
	var p Project
	if err := c.do(ctx, http.MethodGet, "/projects/"+strconv.Itoa(id), nil, nil, &p); err != nil {
		return nil, fmt.Errorf("fetching project %d: %w", id, err)
	}
	return &p, nil
}

// GetProjectBySlug fetches a project by its slug.
func (c *Client) GetProjectBySlug(ctx context.Context, slug string) (*Project, error) {
	var p Project
	q := url.Values{"slug": {slug}}
	if err := c.do(ctx, http.MethodGet, "/projects/by_slug", q, nil, &p); err != nil {
		return nil, fmt.Errorf("fetching project %q: %w", slug, err)
	}
	return &p, nil
}

// ResolveProject accepts a numeric id or a slug.
func (c *Client) ResolveProject(ctx context.Context, ref string) (*Project, error) {
	if id, err := strconv.Atoi(ref); err == nil {
		return c.GetProject(ctx, id)
	}
	return c.GetProjectBySlug(ctx, ref)
}

// Members returns the members of a project.
func (c *Client) Members(ctx context.Context, projectID int) ([]Member, error) {
	p, err := c.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	return p.Members, nil
}

// UserStoryStatuses lists the user-story statuses of a project.
func (c *Client) UserStoryStatuses(ctx context.Context, projectID int) ([]Status, error) {
	var out []Status
	q := url.Values{"project": {strconv.Itoa(projectID)}}
	if err := c.do(ctx, http.MethodGet, "/userstory-statuses", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing user story statuses: %w", err)
	}
	return out, nil
}

// TaskStatuses lists the task statuses of a project.
func (c *Client) TaskStatuses(ctx context.Context, projectID int) ([]Status, error) {
	var out []Status
	q := url.Values{"project": {strconv.Itoa(projectID)}}
	if err := c.do(ctx, http.MethodGet, "/task-statuses", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing task statuses: %w", err)
	}
	return out, nil
}
