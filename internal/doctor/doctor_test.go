package doctor

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jorge-barreto/taigagen/internal/report"
	"github.com/jorge-barreto/taigagen/internal/taiga"
	"github.com/jorge-barreto/taigagen/internal/taskgen"
)

func TestClassify(t *testing.T) {
	apiErr := func(code int) string {
		return (&taiga.APIError{Method: "POST", Path: "/userstories", StatusCode: code, Message: "nope"}).Error()
	}
	tests := []struct {
		msg  string
		want Cause
	}{
		{apiErr(401), CauseAuth},
		{apiErr(403), CauseAuth},
		{apiErr(404), CauseMissing},
		{apiErr(429), CauseRateLimit},
		{apiErr(400), CauseRejected},
		{apiErr(502), CauseServer},
		{"empty title after sanitization", CauseEmptyTitle},
		{"context canceled", CauseInterrupted},
		{taiga.ErrMissingCredentials.Error(), CauseAuth},
		{`Post "https://x/api": dial tcp: connection refused`, CauseNetwork},
		{"something odd", CauseOther},
	}
	for _, tt := range tests {
		if got := Classify(tt.msg); got != tt.want {
			t.Errorf("Classify(%q) = %q, want %q", tt.msg, got.Name, tt.want.Name)
		}
	}
}

func sampleReport() *report.Report {
	clock := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	rep := report.NewWithClock(false, func() time.Time { return clock })
	rep.SetProject(7, "https://tree.taiga.io/project/shop")

	rep.Start("git", 3)
	rep.Finish("git", taskgen.Summary{
		Created: []taskgen.Outcome{{Kind: taskgen.KindEpic, Title: "Database", StoryID: 1}},
		Failed: []taskgen.Outcome{
			{Kind: taskgen.KindTask, Title: "🚀", Error: "empty title after sanitization"},
			{Kind: taskgen.KindTask, Title: "Fix login", Error: "taiga POST /userstories: status 429: slow down"},
		},
	}, nil)
	rep.Start("roadmap", 2)
	rep.Finish("roadmap", taskgen.Summary{
		Failed: []taskgen.Outcome{{Kind: taskgen.KindUserStory, Title: "Search", Error: "taiga POST /userstories: status 429: slow down"}},
	}, errors.New("context canceled"))
	rep.Close()
	return rep
}

func TestDiagnose(t *testing.T) {
	findings := Diagnose(sampleReport())
	if len(findings) != 3 {
		t.Fatalf("findings = %+v", findings)
	}
	if findings[0].Cause != CauseRateLimit || len(findings[0].Items) != 2 {
		t.Fatalf("largest group = %+v", findings[0])
	}
	if findings[1].Cause != CauseEmptyTitle || findings[2].Cause != CauseInterrupted {
		t.Fatalf("order = %q, %q", findings[1].Cause.Name, findings[2].Cause.Name)
	}
	if findings[2].Items[0].Title != "source roadmap" {
		t.Fatalf("source error = %+v", findings[2].Items[0])
	}
}

func TestWrite_FromSavedReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	if err := sampleReport().Write(path); err != nil {
		t.Fatal(err)
	}
	rep, err := report.Load(path)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	Write(&buf, rep)
	out := buf.String()
	for _, want := range []string{"Created: 1  Failed: 3", "Rate limited", "Fix login", "Raise the delays", "shop"} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWrite_NothingFailed(t *testing.T) {
	rep := report.New(false)
	rep.Close()
	var buf bytes.Buffer
	Write(&buf, rep)
	if !strings.Contains(buf.String(), "Nothing failed") {
		t.Fatalf("out = %q", buf.String())
	}
}
