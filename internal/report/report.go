// Package report records what a run did, per source, and writes it as JSON
// so failed items can be reviewed and resubmitted by hand.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"

	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

type SourceReport struct {
	Source   string          `json:"source"`
	Start    time.Time       `json:"start"`
	End      time.Time       `json:"end,omitempty"`
	Duration string          `json:"duration,omitempty"`
	Planned  int             `json:"planned"`
	Error    string          `json:"error,omitempty"`
	Summary  taskgen.Summary `json:"summary"`
}

type Report struct {
	mu         sync.Mutex
	RunID      string         `json:"run_id"`
	ProjectID  int            `json:"project_id,omitempty"`
	ProjectURL string         `json:"project_url,omitempty"`
	DryRun     bool           `json:"dry_run"`
	Started    time.Time      `json:"started"`
	Finished   time.Time      `json:"finished,omitempty"`
	Sources    []SourceReport `json:"sources"`

	now func() time.Time
}

// New starts a report with a fresh run id.
func New(dryRun bool) *Report {
	return NewWithClock(dryRun, time.Now)
}

// NewWithClock is New with an injectable clock.
func NewWithClock(dryRun bool, now func() time.Time) *Report {
	return &Report{
		RunID:   uuid.NewString(),
		DryRun:  dryRun,
		Started: now(),
		Sources: []SourceReport{},
		now:     now,
	}
}

// SetProject records the target project.
func (r *Report) SetProject(id int, url string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ProjectID = id
	r.ProjectURL = url
}

// Start opens an entry for source with the number of items it planned.
func (r *Report) Start(source string, planned int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Sources = append(r.Sources, SourceReport{Source: source, Start: r.now(), Planned: planned})
}

// Finish closes the most recent open entry for source.
func (r *Report) Finish(source string, sum taskgen.Summary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.Sources) - 1; i >= 0; i-- {
		s := &r.Sources[i]
		if s.Source != source || !s.End.IsZero() {
			continue
		}
		s.End = r.now()
		s.Duration = formatDuration(s.End.Sub(s.Start))
		s.Summary = sum
		if err != nil {
			s.Error = err.Error()
		}
		return
	}
}

// Close stamps the end of the run.
func (r *Report) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Finished = r.now()
}

// Totals sums created and failed items over all sources.
func (r *Report) Totals() (created, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.Sources {
		created += len(s.Summary.Created)
		failed += len(s.Summary.Failed)
	}
	return created, failed
}

// Failed lists every failed item, in submission order.
func (r *Report) Failed() []taskgen.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []taskgen.Outcome
	for _, s := range r.Sources {
		out = append(out, s.Summary.Failed...)
	}
	return out
}

// Write saves the report to path atomically.
func (r *Report) Write(path string) error {
	r.mu.Lock()
	data, err := json.MarshalIndent(r, "", "  ")
	r.mu.Unlock()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(afero.NewOsFs(), path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", path, err)
	}
	return nil
}

// Load reads a report written by Write.
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r := &Report{now: time.Now}
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("parsing report %s: %w", path, err)
	}
	return r, nil
}

func formatDuration(d time.Duration) string {
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %02ds", m, s)
}
