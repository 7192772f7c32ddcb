package server

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
	"github.com/cwbudde/racingline/internal/store"
	"github.com/cwbudde/racingline/internal/track"
)

// writeRingTrack saves a small ring track and returns its path.
func writeRingTrack(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.json")
	if err := track.Save(path, track.Ring(0, 0, 100, 110, 64, 0.2)); err != nil {
		t.Fatalf("Failed to save track: %v", err)
	}
	return path
}

func testJobConfig(trackPath string, iterations int) JobConfig {
	return JobConfig{
		TrackPath:  trackPath,
		Vehicle:    sim.DefaultVehicle(),
		Scale:      0.2,
		Iterations: iterations,
		Seed:       42,
		Strategy:   "hillclimb",
	}
}

func TestRunJob_Success(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig(writeRingTrack(t), 5))

	if err := runJob(context.Background(), jm, nil, job.ID); err != nil {
		t.Fatalf("runJob should succeed: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCompleted {
		t.Errorf("Job should be completed, got %s", updated.State)
	}
	if updated.BestTime <= 0 || updated.InitialTime <= 0 {
		t.Errorf("lap times not set: best %f, initial %f", updated.BestTime, updated.InitialTime)
	}
	if updated.BestTime > updated.InitialTime {
		t.Errorf("BestTime %f slower than InitialTime %f", updated.BestTime, updated.InitialTime)
	}
	if len(updated.BestPath) < geom.MinTrackPoints {
		t.Errorf("BestPath has %d points", len(updated.BestPath))
	}
	if updated.Round < 1 || updated.Round > 5 {
		t.Errorf("Round = %d, want 1..5", updated.Round)
	}
	if updated.EndTime == nil {
		t.Error("EndTime should be set")
	}
	if updated.Track == nil {
		t.Error("Track should be kept on the job")
	}
}

func TestRunJob_InvalidTrack(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig("/nonexistent/track.json", 5))

	if err := runJob(context.Background(), jm, nil, job.ID); err == nil {
		t.Error("runJob should fail with invalid track path")
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateFailed {
		t.Errorf("Job should be failed, got %s", updated.State)
	}
	if updated.Error == "" {
		t.Error("Error message should be set")
	}
}

func TestRunJob_NotFound(t *testing.T) {
	if err := runJob(context.Background(), NewJobManager(), nil, "missing"); err == nil {
		t.Error("runJob should fail for unknown job")
	}
}

func TestRunJob_Cancellation(t *testing.T) {
	jm := NewJobManager()
	job := jm.CreateJob(testJobConfig(writeRingTrack(t), 1000))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := runJob(ctx, jm, nil, job.ID); err != nil {
		t.Fatalf("cancelled run should not be an error: %v", err)
	}

	updated, _ := jm.GetJob(job.ID)
	if updated.State != StateCancelled {
		t.Errorf("Job should be cancelled, got %s", updated.State)
	}
	if updated.Round != 0 {
		t.Errorf("Round = %d, want 0", updated.Round)
	}
	if updated.BestTime != updated.InitialTime {
		t.Error("cancelled before any round, best line should be the centerline")
	}
}

func TestRunJob_Checkpoints(t *testing.T) {
	st, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore: %v", err)
	}

	jm := NewJobManager()
	config := testJobConfig(writeRingTrack(t), 4)
	config.CheckpointInterval = 2
	job := jm.CreateJob(config)

	if err := runJob(context.Background(), jm, st, job.ID); err != nil {
		t.Fatalf("runJob failed: %v", err)
	}
	updated, _ := jm.GetJob(job.ID)

	cp, err := st.LoadCheckpoint(job.ID)
	if err != nil {
		t.Fatalf("LoadCheckpoint: %v", err)
	}
	if cp.BestTime != updated.BestTime {
		t.Errorf("checkpoint BestTime = %f, job BestTime = %f", cp.BestTime, updated.BestTime)
	}
	if cp.Round != updated.Round {
		t.Errorf("checkpoint Round = %d, job Round = %d", cp.Round, updated.Round)
	}

	entries, err := store.ReadTrace(st.BaseDir(), job.ID)
	if err != nil {
		t.Fatalf("ReadTrace: %v", err)
	}
	if len(entries) != updated.Round {
		t.Errorf("trace has %d entries, want %d", len(entries), updated.Round)
	}
	for i, e := range entries {
		if e.Round != i+1 {
			t.Errorf("entry %d has round %d", i, e.Round)
		}
	}
}

func TestRunJob_StartLine(t *testing.T) {
	trackPath := writeRingTrack(t)

	jm := NewJobManager()
	first := jm.CreateJob(testJobConfig(trackPath, 5))
	if err := runJob(context.Background(), jm, nil, first.ID); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	done, _ := jm.GetJob(first.ID)

	second := jm.CreateJob(testJobConfig(trackPath, 1))
	jm.UpdateJob(second.ID, func(j *Job) { j.BestPath = done.BestPath })
	if err := runJob(context.Background(), jm, nil, second.ID); err != nil {
		t.Fatalf("seeded run failed: %v", err)
	}

	resumed, _ := jm.GetJob(second.ID)
	if resumed.BestTime > done.BestTime+1e-9 {
		t.Errorf("seeded run got %f, slower than its start %f", resumed.BestTime, done.BestTime)
	}
}
