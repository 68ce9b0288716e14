// Package assign gives every unassigned user story of a project an owner.
package assign

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jorge-barreto/taigagen/internal/logging"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
	"github.com/jorge-barreto/taigagen/internal/ux"
	"github.com/jorge-barreto/taigagen/internal/wizard"
)

// DefaultDelay is the pause after each successful patch.
const DefaultDelay = 300 * time.Millisecond

// Tracker is the part of the Taiga client reassignment needs.
type Tracker interface {
	Members(ctx context.Context, projectID int) ([]taiga.Member, error)
	UserStories(ctx context.Context, projectID int) ([]taiga.UserStory, error)
	AssignUserStory(ctx context.Context, id, userID int) (*taiga.UserStory, error)
}

// Result counts what a run did.
type Result struct {
	Assignee        taiga.Member
	Total           int
	AlreadyAssigned int
	Assigned        int
	Failed          int
	Cancelled       bool
}

// Rate is the share of stories with an owner after the run.
func (r Result) Rate() string {
	return ux.Percent(r.AlreadyAssigned+r.Assigned, r.Total)
}

// Assigner asks before changing anything.
type Assigner struct {
	Tracker Tracker
	Prompt  *wizard.Prompter
	Delay   time.Duration
	Sleep   taskgen.Sleeper
	Logger  *logging.Logger
}

func displayName(m taiga.Member) string {
	if m.FullName != "" {
		return m.FullName
	}
	return m.Username
}

// Run assigns the unassigned stories of project to its sole member, or to
// the first member once the user agrees. Declining any question ends the
// run with Cancelled set.
func (a *Assigner) Run(ctx context.Context, project *taiga.Project) (Result, error) {
	var res Result
	sleep := a.Sleep
	if sleep == nil {
		sleep = taskgen.Sleep
	}
	logger := a.Logger
	if logger == nil {
		logger = logging.NopLogger()
	}
	p := a.Prompt

	members, err := a.Tracker.Members(ctx, project.ID)
	if err != nil {
		return res, fmt.Errorf("loading members: %w", err)
	}
	p.Printf("Team size: %d member(s)\n", len(members))
	for _, m := range members {
		p.Printf("   - %s (%s)\n", displayName(m), m.Email)
	}
	if len(members) == 0 {
		return res, fmt.Errorf("no team members found in project %s", project.Name)
	}
	if len(members) > 1 {
		p.Printf("\n%sThis project has multiple members.%s\n", ux.Yellow, ux.Reset)
		ok, err := p.Confirm(ctx, "Assign ALL unassigned stories to the first member?")
		if err != nil {
			return res, err
		}
		if !ok {
			res.Cancelled = true
			return res, nil
		}
	}
	res.Assignee = members[0]
	p.Printf("\nTarget assignee: %s\n", displayName(res.Assignee))

	stories, err := a.Tracker.UserStories(ctx, project.ID)
	if err != nil {
		return res, fmt.Errorf("loading user stories: %w", err)
	}
	var unassigned []taiga.UserStory
	for _, s := range stories {
		if s.AssignedTo == nil {
			unassigned = append(unassigned, s)
		}
	}
	res.Total = len(stories)
	res.AlreadyAssigned = len(stories) - len(unassigned)
	p.Printf("   Total user stories: %d\n   Already assigned: %d\n   Unassigned: %d\n",
		res.Total, res.AlreadyAssigned, len(unassigned))
	if len(unassigned) == 0 {
		p.Printf("\n%sAll stories are already assigned. Nothing to do.%s\n", ux.Green, ux.Reset)
		return res, nil
	}

	for i, s := range unassigned {
		p.Printf("   %d. %s\n", i+1, s.Subject)
	}
	ok, err := p.Confirm(ctx, fmt.Sprintf("\nAssign %d stories to %s?", len(unassigned), displayName(res.Assignee)))
	if err != nil {
		return res, err
	}
	if !ok {
		res.Cancelled = true
		return res, nil
	}

	for _, s := range unassigned {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if _, err := a.Tracker.AssignUserStory(ctx, s.ID, res.Assignee.ID); err != nil {
			res.Failed++
			p.Printf("  %s✗ Failed to assign: %s%s\n     Error: %s\n", ux.Red, s.Subject, ux.Reset, err)
			logger.Warn("assign failed", "story_id", s.ID, "error", err.Error())
			continue
		}
		res.Assigned++
		p.Printf("  %s✓%s Assigned: %s\n", ux.Green, ux.Reset, s.Subject)
		if err := sleep(ctx, a.Delay); err != nil {
			return res, err
		}
	}
	return res, nil
}

// Summary renders the closing block of a run.
func Summary(res Result, project *taiga.Project) string {
	rule := strings.Repeat("=", 50)
	var b strings.Builder
	fmt.Fprintf(&b, "\n%s\nSummary:\n", rule)
	fmt.Fprintf(&b, "   Successfully assigned: %s\n", ux.Count(res.Assigned))
	fmt.Fprintf(&b, "   Failed: %s\n", ux.Count(res.Failed))
	fmt.Fprintf(&b, "   New assignment rate: %s\n", res.Rate())
	fmt.Fprintf(&b, "%s\n\nView project: %s\n", rule, taiga.ProjectURL(project.Slug))
	return b.String()
}
