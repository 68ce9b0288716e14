package taiga

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// UserStories lists every user story of a project.
func (c *Client) UserStories(ctx context.Context, projectID int) ([]UserStory, error) {
	var out []UserStory
	q := url.Values{"project": {strconv.Itoa(projectID)}}
	if err := c.do(ctx, http.MethodGet, "/userstories", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing user stories: %w", err)
	}
	return out, nil
}

// GetUserStory fetches one user story, including its current version.
func (c *Client) GetUserStory(ctx context.Context, id int) (*UserStory, error) {
	var us UserStory
	if err := c.do(ctx, http.MethodGet, "/userstories/"+strconv.Itoa(id), nil, nil, &us); err != nil {
		return nil, fmt.Errorf("fetching user story %d: %w", id, err)
	}
	return &us, nil
}

// CreateUserStory creates a user story.
func (c *Client) CreateUserStory(ctx context.Context, us NewUserStory) (*UserStory, error) {
	var out UserStory
	if err := c.do(ctx, http.MethodPost, "/userstories", nil, us, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type assignPatch struct {
	AssignedTo int `json:"assigned_to"`
	Version    int `json:"version"`
}

// AssignUserStory sets the assignee of a user story. The tracker rejects
// patches that do not echo the current version, so it is read first.
func (c *Client) AssignUserStory(ctx context.Context, id, userID int) (*UserStory, error) {
	current, err := c.GetUserStory(ctx, id)
	if err != nil {
		return nil, err
	}
	var out UserStory
	body := assignPatch{AssignedTo: userID, Version: current.Version}
	if err := c.do(ctx, http.MethodPatch, "/userstories/"+strconv.Itoa(id), nil, body, &out); err != nil {
		return nil, fmt.Errorf("assigning user story %d: %w", id, err)
	}
	return &out, nil
}

// Tasks lists the tasks of a project, optionally only those of one story.
func (c *Client) Tasks(ctx context.Context, projectID, userStoryID int) ([]Task, error) {
	var out []Task
	q := url.Values{"project": {strconv.Itoa(projectID)}}
	if userStoryID != 0 {
		q.Set("user_story", strconv.Itoa(userStoryID))
	}
	if err := c.do(ctx, http.MethodGet, "/tasks", q, nil, &out); err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	return out, nil
}

// CreateTask creates a task.
func (c *Client) CreateTask(ctx context.Context, t NewTask) (*Task, error) {
	var out Task
	if err := c.do(ctx, http.MethodPost, "/tasks", nil, t, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
