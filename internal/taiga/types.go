package taiga

import (
	"encoding/json"
)

// User is the authenticated account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Member is a project member as embedded in the project detail payload.
type Member struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

// Project is a tracker project.
type Project struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	Slug        string   `json:"slug"`
	Description string   `json:"description"`
	IsPrivate   bool     `json:"is_private"`
	Members     []Member `json:"members,omitempty"`
}

// NewProject is the body of POST /projects.
type NewProject struct {
	Name             string `json:"name"`
	Description      string `json:"description"`
	IsPrivate        bool   `json:"is_private"`
	CreationTemplate int    `json:"creation_template"`
}

// Status is a user-story or task workflow status.
type Status struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	IsClosed bool   `json:"is_closed"`
	Order    int    `json:"order"`
}

// Tags decodes both plain string tags and the [name, color] pairs the API
// returns on read.
type Tags []string

// UnmarshalJSON implements json.Unmarshaler.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Tags, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err == nil {
			out = append(out, s)
			continue
		}
		var pair []*string
		if err := json.Unmarshal(r, &pair); err != nil {
			return err
		}
		if len(pair) > 0 && pair[0] != nil {
			out = append(out, *pair[0])
		}
	}
	*t = out
	return nil
}

// UserStory is a user story as returned by the API.
type UserStory struct {
	ID          int    `json:"id"`
	Ref         int    `json:"ref"`
	Project     int    `json:"project"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      int    `json:"status"`
	AssignedTo  *int   `json:"assigned_to"`
	Tags        Tags   `json:"tags"`
	Version     int    `json:"version"`
}

// NewUserStory is the body of POST /userstories. Zero status and assignee
// are omitted so the tracker applies its defaults.
type NewUserStory struct {
	Project     int      `json:"project"`
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Status      int      `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	AssignedTo  int      `json:"assigned_to,omitempty"`
}

// Task is a task as returned by the API.
type Task struct {
	ID          int    `json:"id"`
	Ref         int    `json:"ref"`
	Project     int    `json:"project"`
	UserStory   *int   `json:"user_story"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Status      int    `json:"status"`
	AssignedTo  *int   `json:"assigned_to"`
	Tags        Tags   `json:"tags"`
}

// NewTask is the body of POST /tasks.
type NewTask struct {
	Project     int      `json:"project"`
	UserStory   int      `json:"user_story,omitempty"`
	Subject     string   `json:"subject"`
	Description string   `json:"description,omitempty"`
	Status      int      `json:"status,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	AssignedTo  int      `json:"assigned_to,omitempty"`
}
