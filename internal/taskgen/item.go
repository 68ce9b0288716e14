// Package taskgen defines the work items produced by generators and the
// engine that submits them to the tracker.
package taskgen

import "context"

// Kind is the tier of a work item.
type Kind string

const (
	KindEpic      Kind = "epic"
	KindUserStory Kind = "user-story"
	KindTask      Kind = "task"
)

// Label is the human-readable kind name.
func (k Kind) Label() string {
	switch k {
	case KindEpic:
		return "epic"
	case KindUserStory:
		return "user story"
	default:
		return "task"
	}
}

// Status is the lifecycle state a generator infers for an item.
type Status string

const (
	StatusNew        Status = "new"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
)

// Sources an item can come from.
const (
	SourceGit        = "git"
	SourceRoadmap    = "roadmap"
	SourceCodeReview = "code-review"
)

// Item is one proposed work item.
type Item struct {
	Kind        Kind     `json:"kind"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Status      Status   `json:"status"`
	Tags        []string `json:"tags"`
	Author      string   `json:"author,omitempty"`
	Source      string   `json:"source,omitempty"`
	Commits     []string `json:"commits,omitempty"`
}

// Bundle is the full output of one generator.
type Bundle struct {
	Epics       []Item `json:"epics"`
	UserStories []Item `json:"user_stories"`
	Tasks       []Item `json:"tasks"`
}

// All returns every item in submission order: epics, stories, then tasks.
func (b Bundle) All() []Item {
	all := make([]Item, 0, b.Len())
	all = append(all, b.Epics...)
	all = append(all, b.UserStories...)
	return append(all, b.Tasks...)
}

// Len is the total item count.
func (b Bundle) Len() int {
	return len(b.Epics) + len(b.UserStories) + len(b.Tasks)
}

// Generator turns one source into a Bundle. Implementations never talk to
// the tracker.
type Generator interface {
	Name() string
	Generate(ctx context.Context) (Bundle, error)
}
