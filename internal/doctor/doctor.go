// Package doctor explains why items in a saved run report failed.
package doctor

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/jorge-barreto/taigagen/internal/report"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
	"github.com/jorge-barreto/taigagen/internal/ux"
)

// Cause is a failure class with the fix to try.
type Cause struct {
	Name string
	Hint string
}

var (
	CauseAuth = Cause{"Authentication or permission",
		"Check TAIGA_USERNAME and TAIGA_PASSWORD, and that the account may edit the project."}
	CauseRateLimit = Cause{"Rate limited",
		"Raise the delays in the run config and re-run the affected source."}
	CauseRejected = Cause{"Rejected by Taiga",
		"Fix these titles or descriptions in the source and submit them by hand."}
	CauseMissing = Cause{"Project or status not found",
		"Check tracker.project and that the project still exists."}
	CauseServer = Cause{"Taiga server error",
		"Try again later; the items themselves are probably fine."}
	CauseNetwork = Cause{"Network",
		"Check --api-url and connectivity."}
	CauseInterrupted = Cause{"Interrupted",
		"The run was stopped; items after this point were never sent."}
	CauseEmptyTitle = Cause{"Empty title",
		"The title was only emoji or markdown. Reword it in the source."}
	CauseOther = Cause{"Other", "See the error text."}
)

var statusRe = regexp.MustCompile(`status (\d{3})`)

// Classify maps one recorded error message to a Cause.
func Classify(msg string) Cause {
	lower := strings.ToLower(msg)
	if m := statusRe.FindStringSubmatch(lower); m != nil {
		code, _ := strconv.Atoi(m[1])
		switch {
		case code == 401 || code == 403:
			return CauseAuth
		case code == 404:
			return CauseMissing
		case code == 429:
			return CauseRateLimit
		case code >= 500:
			return CauseServer
		case code >= 400:
			return CauseRejected
		}
	}
	switch {
	case strings.Contains(lower, "empty title"):
		return CauseEmptyTitle
	case strings.Contains(lower, "context canceled"):
		return CauseInterrupted
	case strings.Contains(lower, "credentials"), strings.Contains(lower, "auth"):
		return CauseAuth
	case strings.Contains(lower, "deadline exceeded"), strings.Contains(lower, "timeout"),
		strings.Contains(lower, "connection refused"), strings.Contains(lower, "no such host"):
		return CauseNetwork
	}
	return CauseOther
}

// Finding is a group of failures sharing a cause.
type Finding struct {
	Cause Cause
	Items []taskgen.Outcome
}

// Diagnose groups every failed item of rep by cause, largest group first.
// Source-level errors count as one failure each.
func Diagnose(rep *report.Report) []Finding {
	index := map[string]int{}
	var out []Finding
	add := func(o taskgen.Outcome) {
		c := Classify(o.Error)
		i, ok := index[c.Name]
		if !ok {
			i = len(out)
			index[c.Name] = i
			out = append(out, Finding{Cause: c})
		}
		out[i].Items = append(out[i].Items, o)
	}
	for _, o := range rep.Failed() {
		add(o)
	}
	for _, s := range rep.Sources {
		if s.Error != "" {
			add(taskgen.Outcome{Title: "source " + s.Source, Error: s.Error})
		}
	}
	slices.SortStableFunc(out, func(a, b Finding) int { return len(b.Items) - len(a.Items) })
	return out
}

// Write prints a diagnosis of rep to w.
func Write(w io.Writer, rep *report.Report) {
	created, failed := rep.Totals()
	fmt.Fprintf(w, "\n%s%s══ Doctor: run %s ══%s\n", ux.Bold, ux.Cyan, rep.RunID, ux.Reset)
	if rep.ProjectURL != "" {
		fmt.Fprintf(w, "  Project: %s\n", rep.ProjectURL)
	}
	fmt.Fprintf(w, "  Created: %d  Failed: %d\n", created, failed)

	findings := Diagnose(rep)
	if len(findings) == 0 {
		fmt.Fprintf(w, "\n  %sNothing failed in this run.%s\n", ux.Green, ux.Reset)
		return
	}
	for _, f := range findings {
		fmt.Fprintf(w, "\n  %s%s%s (%d)\n", ux.Yellow, f.Cause.Name, ux.Reset, len(f.Items))
		for _, o := range f.Items {
			fmt.Fprintf(w, "    - %s\n      %s%s%s\n", o.Title, ux.Dim, o.Error, ux.Reset)
		}
		fmt.Fprintf(w, "    → %s\n", f.Cause.Hint)
	}
	fmt.Fprintln(w)
}
