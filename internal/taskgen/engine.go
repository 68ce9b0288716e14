package taskgen

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jorge-barreto/taigagen/internal/logging"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

// Tracker is the part of the tracker client the engine needs.
type Tracker interface {
	CreateUserStory(ctx context.Context, us taiga.NewUserStory) (*taiga.UserStory, error)
}

// Delays are the pauses after each successful submission, per kind.
type Delays struct {
	Epic  time.Duration
	Story time.Duration
	Task  time.Duration
}

// DefaultDelays keep the tracker's rate limiter quiet.
var DefaultDelays = Delays{
	Epic:  500 * time.Millisecond,
	Story: 400 * time.Millisecond,
	Task:  300 * time.Millisecond,
}

func (d Delays) after(k Kind) time.Duration {
	switch k {
	case KindEpic:
		return d.Epic
	case KindUserStory:
		return d.Story
	default:
		return d.Task
	}
}

// Target is the project items are submitted into.
type Target struct {
	ProjectID int
	Statuses  []taiga.Status
	Members   []taiga.Member
}

// Outcome is the result of submitting one item.
type Outcome struct {
	Kind    Kind   `json:"kind"`
	Title   string `json:"title"`
	StoryID int    `json:"story_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Summary collects the outcomes of one Execute call.
type Summary struct {
	Created []Outcome `json:"created"`
	Failed  []Outcome `json:"failed"`
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Engine submits bundles to the tracker one item at a time. Every item is
// created as a user story because the tracker's task endpoint needs a parent
// story id the generators cannot know.
type Engine struct {
	Tracker Tracker
	Target  Target
	Delays  Delays
	Sleep   Sleeper
	Logger  *logging.Logger
}

// Execute submits every item of b in order. A failed item is recorded and
// skipped; only cancellation of ctx stops the loop early.
func (e *Engine) Execute(ctx context.Context, b Bundle) (Summary, error) {
	sleep := e.Sleep
	if sleep == nil {
		sleep = Sleep
	}
	logger := e.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	done := DoneStatusID(e.Target.Statuses)
	fresh := NewStatusID(e.Target.Statuses)

	var sum Summary
	for _, it := range b.All() {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		title, ok := SubmittableTitle(it.Title)
		if !ok {
			out := Outcome{Kind: it.Kind, Title: it.Title, Error: "empty title after sanitization"}
			sum.Failed = append(sum.Failed, out)
			ux.ItemFailed(it.Kind.Label(), it.Title, out.Error)
			continue
		}

		status := fresh
		if it.Status == StatusCompleted {
			status = done
		}
		req := taiga.NewUserStory{
			Project:     e.Target.ProjectID,
			Subject:     title,
			Description: it.Description,
			Status:      status,
			Tags:        it.Tags,
			AssignedTo:  ResolveAssignee(e.Target.Members, it.Author),
		}

		us, err := e.Tracker.CreateUserStory(ctx, req)
		if err != nil {
			out := Outcome{Kind: it.Kind, Title: title, Error: err.Error()}
			sum.Failed = append(sum.Failed, out)
			ux.ItemFailed(it.Kind.Label(), title, out.Error)
			logger.Warn("create failed", "kind", string(it.Kind), "title", title, "error", out.Error)
			continue
		}

		out := Outcome{Kind: it.Kind, Title: title}
		if us != nil {
			out.StoryID = us.ID
		}
		sum.Created = append(sum.Created, out)
		ux.ItemCreated(it.Kind.Label(), title)
		logger.Debug("created", "kind", string(it.Kind), "title", title, "story_id", out.StoryID)

		if err := sleep(ctx, e.Delays.after(it.Kind)); err != nil {
			return sum, err
		}
	}
	return sum, nil
}

// DoneStatusID is the first status named like "done" or marked closed, or 0.
func DoneStatusID(statuses []taiga.Status) int {
	for _, s := range statuses {
		if strings.Contains(strings.ToLower(s.Name), "done") || s.IsClosed {
			return s.ID
		}
	}
	return 0
}

// NewStatusID is the first status named like "new" or ordered first, or 0.
func NewStatusID(statuses []taiga.Status) int {
	for _, s := range statuses {
		if strings.Contains(strings.ToLower(s.Name), "new") || s.Order == 0 {
			return s.ID
		}
	}
	return 0
}

// ResolveAssignee picks the member an item should be assigned to. A sole
// member gets everything; otherwise the author is matched, case-insensitively,
// against full name, username and email. Zero means unassigned.
func ResolveAssignee(members []taiga.Member, author string) int {
	if len(members) == 1 {
		return members[0].ID
	}
	a := strings.ToLower(strings.TrimSpace(author))
	if a == "" {
		return 0
	}
	for _, m := range members {
		for _, field := range []string{m.FullName, m.Username, m.Email} {
			f := strings.ToLower(strings.TrimSpace(field))
			if nameMatches(f, a) {
				return m.ID
			}
		}
	}
	return 0
}

// minMatchLength is the shortest name allowed to match as a substring.
const minMatchLength = 4

func nameMatches(field, author string) bool {
	switch {
	case field == "":
		return false
	case field == author:
		return true
	case utf8.RuneCountInString(author) >= minMatchLength && strings.Contains(field, author):
		return true
	}
	return utf8.RuneCountInString(field) >= minMatchLength && strings.Contains(author, field)
}

// String summarizes counts, e.g. "12 created, 1 failed".
func (s Summary) String() string {
	return fmt.Sprintf("%d created, %d failed", len(s.Created), len(s.Failed))
}
