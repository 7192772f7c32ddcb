package ui

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"
)

func TestJobList_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := JobList(nil).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(buf.String(), "No jobs yet") {
		t.Errorf("expected empty-state message, got:\n%s", buf.String())
	}
}

func TestJobList_Rows(t *testing.T) {
	end := time.Date(2024, 1, 1, 12, 0, 30, 0, time.UTC)
	jobs := []JobListItem{
		{
			ID:          "0123456789abcdef",
			State:       "completed",
			TrackPath:   "tracks/<ring>.json",
			Strategy:    "hillclimb",
			Round:       40,
			Iterations:  40,
			BestTime:    28.5,
			InitialTime: 29,
			StartTime:   end.Add(-30 * time.Second),
			EndTime:     &end,
		},
		{ID: "pending-job", State: "pending", Iterations: 10, StartTime: end},
	}

	var buf bytes.Buffer
	if err := JobList(jobs).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		"<code>01234567</code>",
		"tracks/&lt;ring&gt;.json",
		"40/40",
		"28.500 s",
		"0.500 s",
		"30s",
		"/api/v1/jobs/0123456789abcdef/speed.png",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if strings.Contains(html, "/api/v1/jobs/pending-job/line.svg") {
		t.Error("pending job without results should not link artifacts")
	}
}

func TestJobListItem_Improvement(t *testing.T) {
	if got := (JobListItem{BestTime: 5}).Improvement(); got != 0 {
		t.Errorf("Improvement without initial time = %v, want 0", got)
	}
	if got := (JobListItem{BestTime: 5, InitialTime: 6}).Improvement(); got != 1 {
		t.Errorf("Improvement = %v, want 1", got)
	}
}
