package store

import (
	"fmt"
	"math"
	"time"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
)

// JobConfig is the persisted copy of a job's settings. It lives here rather
// than in the server package to avoid an import cycle.
type JobConfig struct {
	TrackPath          string            `json:"trackPath"`
	Vehicle            sim.VehicleParams `json:"vehicle"`
	Scale              float64           `json:"scale"`
	Iterations         int               `json:"iterations"`
	Seed               int64             `json:"seed"`
	Strategy           string            `json:"strategy"`                     // hillclimb, mayfly
	CheckpointInterval int               `json:"checkpointInterval,omitempty"` // rounds between checkpoints (0 = final only)
}

// Checkpoint is a saved optimization state.
//
// Only the best line is stored, not the random source or optimizer
// population. A resumed run starts a fresh search seeded with BestPath, so it
// never gets slower but does not replay the original run exactly.
type Checkpoint struct {
	JobID string `json:"jobId"`

	// BestPath is the fastest racing line found so far, in track units.
	BestPath geom.Path `json:"bestPath"`

	// BestTime is the lap time of BestPath in seconds.
	BestTime float64 `json:"bestTime"`

	// InitialTime is the lap time of the smoothed centerline.
	InitialTime float64 `json:"initialTime"`

	// Round is the number of completed search rounds.
	Round int `json:"round"`

	Timestamp time.Time `json:"timestamp"`

	// Config is checked against the resuming job's config.
	Config JobConfig `json:"config"`
}

// CheckpointInfo is checkpoint metadata without the line itself.
type CheckpointInfo struct {
	JobID       string    `json:"jobId"`
	BestTime    float64   `json:"bestTime"`
	InitialTime float64   `json:"initialTime"`
	Round       int       `json:"round"`
	Points      int       `json:"points"`
	Timestamp   time.Time `json:"timestamp"`
	Strategy    string    `json:"strategy"`
	TrackPath   string    `json:"trackPath"`
}

// NewCheckpoint creates a checkpoint stamped with the current time.
func NewCheckpoint(jobID string, bestPath geom.Path, bestTime, initialTime float64, round int, config JobConfig) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		BestPath:    bestPath,
		BestTime:    bestTime,
		InitialTime: initialTime,
		Round:       round,
		Timestamp:   time.Now(),
		Config:      config,
	}
}

// ToInfo converts a full Checkpoint to CheckpointInfo.
func (c *Checkpoint) ToInfo() CheckpointInfo {
	return CheckpointInfo{
		JobID:       c.JobID,
		BestTime:    c.BestTime,
		InitialTime: c.InitialTime,
		Round:       c.Round,
		Points:      len(c.BestPath),
		Timestamp:   c.Timestamp,
		Strategy:    c.Config.Strategy,
		TrackPath:   c.Config.TrackPath,
	}
}

// Validate checks if the checkpoint has valid data.
func (c *Checkpoint) Validate() error {
	if c.JobID == "" {
		return &ValidationError{Field: "JobID", Reason: "cannot be empty"}
	}
	if len(c.BestPath) < geom.MinTrackPoints {
		return &ValidationError{
			Field:  "BestPath",
			Reason: fmt.Sprintf("needs at least %d points, has %d", geom.MinTrackPoints, len(c.BestPath)),
		}
	}
	for i, p := range c.BestPath {
		if !p.IsFinite() {
			return &ValidationError{Field: "BestPath", Reason: fmt.Sprintf("point %d is not finite", i)}
		}
	}
	if c.BestTime <= 0 || math.IsInf(c.BestTime, 0) || math.IsNaN(c.BestTime) {
		return &ValidationError{Field: "BestTime", Reason: "must be positive and finite"}
	}
	if c.InitialTime < c.BestTime {
		return &ValidationError{Field: "InitialTime", Reason: "cannot be below BestTime"}
	}
	if c.Round < 0 {
		return &ValidationError{Field: "Round", Reason: "cannot be negative"}
	}
	if c.Timestamp.IsZero() {
		return &ValidationError{Field: "Timestamp", Reason: "cannot be zero"}
	}
	if c.Config.TrackPath == "" {
		return &ValidationError{Field: "Config.TrackPath", Reason: "cannot be empty"}
	}
	if c.Config.Strategy == "" {
		return &ValidationError{Field: "Config.Strategy", Reason: "cannot be empty"}
	}
	if c.Config.Iterations < 0 {
		return &ValidationError{Field: "Config.Iterations", Reason: "cannot be negative"}
	}
	if err := sim.ValidateScale(c.Config.Scale); err != nil {
		return &ValidationError{Field: "Config.Scale", Reason: "must be positive"}
	}
	return nil
}

// ValidationError represents a checkpoint validation error.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation error: " + e.Field + " " + e.Reason
}

// IsCompatible reports whether a job with config may resume from c. The track,
// scale and vehicle must match, since they define the lap time being
// minimized. Strategy, iterations and seed may differ.
func (c *Checkpoint) IsCompatible(config JobConfig) error {
	if c.Config.TrackPath != config.TrackPath {
		return &CompatibilityError{
			Field:    "TrackPath",
			Expected: c.Config.TrackPath,
			Actual:   config.TrackPath,
		}
	}
	if c.Config.Scale != config.Scale {
		return &CompatibilityError{
			Field:    "Scale",
			Expected: fmt.Sprintf("%g", c.Config.Scale),
			Actual:   fmt.Sprintf("%g", config.Scale),
		}
	}
	if c.Config.Vehicle != config.Vehicle {
		return &CompatibilityError{
			Field:    "Vehicle",
			Expected: fmt.Sprintf("%+v", c.Config.Vehicle),
			Actual:   fmt.Sprintf("%+v", config.Vehicle),
		}
	}
	return nil
}

// CompatibilityError represents a checkpoint compatibility error.
type CompatibilityError struct {
	Field    string
	Expected string
	Actual   string
}

func (e *CompatibilityError) Error() string {
	return "compatibility error: " + e.Field + " mismatch (expected " + e.Expected + ", got " + e.Actual + ")"
}
