package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/store"
	"github.com/cwbudde/racingline/internal/track"
)

// progressInterval throttles SSE progress events.
const progressInterval = 250 * time.Millisecond

// runJob executes an optimization job. When checkpointStore is not nil a
// checkpoint is saved every CheckpointInterval rounds and once at the end,
// and the per-round trace is kept if the store supports it.
func runJob(ctx context.Context, jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}

	if err := jm.UpdateJob(jobID, func(j *Job) { j.State = StateRunning }); err != nil {
		return err
	}
	slog.Info("Starting job", "job_id", jobID, "track", job.Config.TrackPath, "strategy", job.Config.Strategy)

	tr := job.Track
	if tr == nil {
		var err error
		if tr, err = track.Load(job.Config.TrackPath); err != nil {
			markJobFailed(jm, jobID, err)
			return err
		}
	}
	cfg := job.Config
	if cfg.Scale == 0 {
		cfg.Scale = tr.Scale
	}
	jm.UpdateJob(jobID, func(j *Job) {
		j.Track = tr
		j.Config.Scale = cfg.Scale
	})

	var trace store.TraceSink
	if tracer, ok := checkpointStore.(store.Tracer); ok {
		var err error
		if trace, err = tracer.OpenTrace(jobID); err != nil {
			slog.Warn("Trace disabled", "job_id", jobID, "error", err)
			trace = nil
		} else {
			defer trace.Close()
		}
	}

	var lastEvent time.Time
	opts := line.Options{
		Iterations: cfg.Iterations,
		Strategy:   line.Strategy(cfg.Strategy),
		Seed:       cfg.Seed,
		OnProgress: func(p line.Progress) {
			jm.UpdateJob(jobID, func(j *Job) {
				j.Round = p.Round
				j.BestTime = p.BestTime
				j.InitialTime = p.InitialTime
				j.Accepted += p.Accepted
				if p.BestPath != nil {
					j.BestPath = p.BestPath
				}
			})
			if trace != nil {
				entry := store.TraceEntry{Round: p.Round, LapTime: p.BestTime, Accepted: p.Accepted, Timestamp: time.Now()}
				if err := trace.Write(entry); err != nil {
					slog.Warn("Failed to write trace entry", "job_id", jobID, "error", err)
				}
			}
			if checkpointStore != nil && cfg.CheckpointInterval > 0 && p.Round > 0 && p.Round%cfg.CheckpointInterval == 0 {
				if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
					slog.Error("Failed to save checkpoint", "job_id", jobID, "error", err)
				}
			}
			if time.Since(lastEvent) >= progressInterval {
				lastEvent = time.Now()
				broadcastJob(jm, jobID)
			}
		},
	}
	if job.BestPath != nil {
		opts.Start = job.BestPath
	}

	start := time.Now()
	res, err := line.OptimizeLine(ctx, tr.Left, tr.Right, cfg.Vehicle, cfg.Scale, opts)
	if err != nil {
		markJobFailed(jm, jobID, err)
		return err
	}
	elapsed := time.Since(start)

	endTime := time.Now()
	state := StateCompleted
	if res.Cancelled {
		state = StateCancelled
	}
	err = jm.UpdateJob(jobID, func(j *Job) {
		j.State = state
		j.BestPath = res.BestPath
		j.BestTime = res.BestTime
		j.InitialTime = res.InitialTime
		j.Round = res.Rounds
		j.Accepted = res.Accepted
		j.EndTime = &endTime
	})
	if err != nil {
		return err
	}

	if checkpointStore != nil {
		if err := saveCheckpoint(jm, checkpointStore, jobID); err != nil {
			slog.Error("Failed to save final checkpoint", "job_id", jobID, "error", err)
		}
	}

	slog.Info("Job finished",
		"job_id", jobID,
		"state", state,
		"elapsed", elapsed,
		"rounds", res.Rounds,
		"initial_time", res.InitialTime,
		"best_time", res.BestTime,
		"evaluations", res.Evaluations,
	)
	broadcastJob(jm, jobID)
	return nil
}

// broadcastJob sends the job's current progress to SSE subscribers.
func broadcastJob(jm *JobManager, jobID string) {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return
	}
	jm.broadcaster.Broadcast(newProgressEvent(job))
}

// markJobFailed marks a job as failed with an error message
func markJobFailed(jm *JobManager, jobID string, err error) {
	endTime := time.Now()
	jm.UpdateJob(jobID, func(j *Job) {
		j.State = StateFailed
		j.Error = err.Error()
		j.EndTime = &endTime
	})
	slog.Error("Job failed", "job_id", jobID, "error", err)
	broadcastJob(jm, jobID)
}

// saveCheckpoint saves a checkpoint for the given job
func saveCheckpoint(jm *JobManager, checkpointStore store.Store, jobID string) error {
	job, exists := jm.GetJob(jobID)
	if !exists {
		return fmt.Errorf("job not found: %s", jobID)
	}
	if len(job.BestPath) < geom.MinTrackPoints {
		slog.Debug("Skipping checkpoint, no line yet", "job_id", jobID)
		return nil
	}

	checkpoint := store.NewCheckpoint(jobID, job.BestPath, job.BestTime, job.InitialTime, job.Round, job.Config)
	if err := checkpoint.Validate(); err != nil {
		return fmt.Errorf("invalid checkpoint: %w", err)
	}
	if err := checkpointStore.SaveCheckpoint(jobID, checkpoint); err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}

	slog.Info("Checkpoint saved", "job_id", jobID, "round", job.Round, "best_time", job.BestTime)
	return nil
}
