package store

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/racingline/internal/geom"
)

func TestCheckpoint_JSONSerialization(t *testing.T) {
	original := createTestCheckpoint("json-job")
	original.Timestamp = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	for _, key := range []string{`"jobId"`, `"bestPath"`, `"bestTime"`, `"trackPath"`, `"tyreMu"`} {
		if !strings.Contains(string(data), key) {
			t.Errorf("Serialized checkpoint missing %s", key)
		}
	}

	var decoded Checkpoint
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !decoded.Timestamp.Equal(original.Timestamp) || decoded.Config != original.Config {
		t.Errorf("Decoded %+v, want %+v", decoded, original)
	}
}

func TestCheckpoint_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Checkpoint)
		field  string // empty means valid
	}{
		{"valid", func(*Checkpoint) {}, ""},
		{"empty job id", func(c *Checkpoint) { c.JobID = "" }, "JobID"},
		{"nil path", func(c *Checkpoint) { c.BestPath = nil }, "BestPath"},
		{"short path", func(c *Checkpoint) { c.BestPath = c.BestPath[:3] }, "BestPath"},
		{"nan point", func(c *Checkpoint) { c.BestPath[1] = geom.Pt(math.NaN(), 0) }, "BestPath"},
		{"zero time", func(c *Checkpoint) { c.BestTime = 0 }, "BestTime"},
		{"inf time", func(c *Checkpoint) { c.BestTime = math.Inf(1) }, "BestTime"},
		{"initial below best", func(c *Checkpoint) { c.InitialTime = 1 }, "InitialTime"},
		{"negative round", func(c *Checkpoint) { c.Round = -1 }, "Round"},
		{"zero timestamp", func(c *Checkpoint) { c.Timestamp = time.Time{} }, "Timestamp"},
		{"no track", func(c *Checkpoint) { c.Config.TrackPath = "" }, "Config.TrackPath"},
		{"no strategy", func(c *Checkpoint) { c.Config.Strategy = "" }, "Config.Strategy"},
		{"negative iterations", func(c *Checkpoint) { c.Config.Iterations = -2 }, "Config.Iterations"},
		{"zero scale", func(c *Checkpoint) { c.Config.Scale = 0 }, "Config.Scale"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := createTestCheckpoint("validate-job")
			tt.mutate(c)
			err := c.Validate()
			if tt.field == "" {
				if err != nil {
					t.Errorf("Expected valid checkpoint, got %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestCheckpoint_IsCompatible(t *testing.T) {
	c := createTestCheckpoint("compat-job")

	same := c.Config
	same.Strategy = "mayfly"
	same.Iterations = 10
	same.Seed = 9
	if err := c.IsCompatible(same); err != nil {
		t.Errorf("Search settings should not affect compatibility: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*JobConfig)
		field  string
	}{
		{"track", func(j *JobConfig) { j.TrackPath = "tracks/other.json" }, "TrackPath"},
		{"scale", func(j *JobConfig) { j.Scale = 0.25 }, "Scale"},
		{"vehicle", func(j *JobConfig) { j.Vehicle.TyreMu = 1.1 }, "Vehicle"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := c.Config
			tt.mutate(&cfg)
			err := c.IsCompatible(cfg)
			var ce *CompatibilityError
			if !errors.As(err, &ce) {
				t.Fatalf("Expected CompatibilityError, got %v", err)
			}
			if ce.Field != tt.field {
				t.Errorf("Field = %s, want %s", ce.Field, tt.field)
			}
			if !strings.Contains(ce.Error(), tt.field) {
				t.Errorf("Error message %q should name the field", ce.Error())
			}
		})
	}
}

func TestCheckpoint_ToInfo(t *testing.T) {
	c := createTestCheckpoint("info-job")
	info := c.ToInfo()

	if info.JobID != "info-job" || info.BestTime != c.BestTime || info.InitialTime != c.InitialTime {
		t.Errorf("Unexpected info %+v", info)
	}
	if info.Points != len(c.BestPath) || info.Round != c.Round {
		t.Errorf("Points/Round = %d/%d", info.Points, info.Round)
	}
	if info.TrackPath != c.Config.TrackPath || info.Strategy != c.Config.Strategy {
		t.Errorf("Config fields not copied: %+v", info)
	}
}

func TestNewCheckpoint(t *testing.T) {
	before := time.Now()
	c := NewCheckpoint("new-job", testPath(), 5.5, 6.0, 10, createTestCheckpoint("x").Config)

	if c.JobID != "new-job" || c.BestTime != 5.5 || c.InitialTime != 6.0 || c.Round != 10 {
		t.Errorf("Unexpected checkpoint %+v", c)
	}
	if c.Timestamp.Before(before) {
		t.Error("Timestamp should be set to now")
	}
	if err := c.Validate(); err != nil {
		t.Errorf("New checkpoint invalid: %v", err)
	}
}
