// Package config loads optional run configuration files. Every field is a
// pointer so a partial file only overrides what it names.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/sim"
)

// RunConfig is the JSON run configuration.
type RunConfig struct {
	// Vehicle params
	MassKg            *float64 `json:"mass_kg,omitempty"`
	EnginePowerW      *float64 `json:"engine_power_w,omitempty"`
	MaxBrakeAccelMps2 *float64 `json:"max_brake_accel_mps2,omitempty"`
	TyreMu            *float64 `json:"tyre_mu,omitempty"`
	TopSpeedMps       *float64 `json:"top_speed_mps,omitempty"`

	// Scale overrides the track file's meters-per-unit when set.
	Scale *float64 `json:"scale,omitempty"`

	// Search params
	Iterations    *int     `json:"iterations,omitempty"`
	Seed          *int64   `json:"seed,omitempty"`
	Strategy      *string  `json:"strategy,omitempty"`
	Spacing       *float64 `json:"spacing,omitempty"`
	ControlPoints *int     `json:"control_points,omitempty"`
	PopSize       *int     `json:"pop_size,omitempty"`

	CheckpointInterval *int `json:"checkpoint_interval,omitempty"`
}

const (
	DefaultIterations         = 500
	DefaultCheckpointInterval = 50
)

func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrInt64(v int64) *int64       { return &v }
func ptrString(v string) *string    { return &v }

// Default returns a config with every field populated.
func Default() *RunConfig {
	v := sim.DefaultVehicle()
	return &RunConfig{
		MassKg:             ptrFloat64(v.MassKg),
		EnginePowerW:       ptrFloat64(v.EnginePowerW),
		MaxBrakeAccelMps2:  ptrFloat64(v.MaxBrakeAccelMps2),
		TyreMu:             ptrFloat64(v.TyreMu),
		TopSpeedMps:        ptrFloat64(v.TopSpeedMps),
		Iterations:         ptrInt(DefaultIterations),
		Seed:               ptrInt64(1),
		Strategy:           ptrString(string(line.StrategyHillClimb)),
		Spacing:            ptrFloat64(line.DefaultSpacing),
		ControlPoints:      ptrInt(line.DefaultControlPoints),
		PopSize:            ptrInt(line.DefaultPopSize),
		CheckpointInterval: ptrInt(DefaultCheckpointInterval),
	}
}

// Load reads a config file. Fields omitted from the file stay nil and fall
// back to defaults in the Get* methods.
func Load(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &RunConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that are set.
func (c *RunConfig) Validate() error {
	if err := c.Vehicle().Validate(); err != nil {
		return err
	}
	if c.Scale != nil {
		if err := sim.ValidateScale(*c.Scale); err != nil {
			return err
		}
	}
	if c.Iterations != nil && *c.Iterations < 0 {
		return fmt.Errorf("iterations must be non-negative, got %d", *c.Iterations)
	}
	if c.Strategy != nil {
		switch line.Strategy(*c.Strategy) {
		case line.StrategyHillClimb, line.StrategyMayfly:
		default:
			return fmt.Errorf("unknown strategy %q", *c.Strategy)
		}
	}
	if c.Spacing != nil && *c.Spacing <= 0 {
		return fmt.Errorf("spacing must be positive, got %f", *c.Spacing)
	}
	if c.CheckpointInterval != nil && *c.CheckpointInterval < 0 {
		return fmt.Errorf("checkpoint_interval must be non-negative, got %d", *c.CheckpointInterval)
	}
	return nil
}

// Vehicle returns the vehicle parameters with defaults filled in.
func (c *RunConfig) Vehicle() sim.VehicleParams {
	v := sim.DefaultVehicle()
	if c.MassKg != nil {
		v.MassKg = *c.MassKg
	}
	if c.EnginePowerW != nil {
		v.EnginePowerW = *c.EnginePowerW
	}
	if c.MaxBrakeAccelMps2 != nil {
		v.MaxBrakeAccelMps2 = *c.MaxBrakeAccelMps2
	}
	if c.TyreMu != nil {
		v.TyreMu = *c.TyreMu
	}
	if c.TopSpeedMps != nil {
		v.TopSpeedMps = *c.TopSpeedMps
	}
	return v
}

// GetScale returns the configured scale, or trackScale when unset.
func (c *RunConfig) GetScale(trackScale float64) float64 {
	if c.Scale == nil {
		return trackScale
	}
	return *c.Scale
}

func (c *RunConfig) GetIterations() int {
	if c.Iterations == nil {
		return DefaultIterations
	}
	return *c.Iterations
}

func (c *RunConfig) GetSeed() int64 {
	if c.Seed == nil {
		return 1
	}
	return *c.Seed
}

func (c *RunConfig) GetStrategy() line.Strategy {
	if c.Strategy == nil {
		return line.StrategyHillClimb
	}
	return line.Strategy(*c.Strategy)
}

func (c *RunConfig) GetCheckpointInterval() int {
	if c.CheckpointInterval == nil {
		return DefaultCheckpointInterval
	}
	return *c.CheckpointInterval
}

// LineOptions converts the search fields to line.Options. Unset fields are
// left zero so line applies its own defaults.
func (c *RunConfig) LineOptions() line.Options {
	opts := line.Options{
		Iterations: c.GetIterations(),
		Seed:       c.GetSeed(),
		Strategy:   c.GetStrategy(),
	}
	if c.Spacing != nil {
		opts.Spacing = *c.Spacing
	}
	if c.ControlPoints != nil {
		opts.ControlPoints = *c.ControlPoints
	}
	if c.PopSize != nil {
		opts.PopSize = *c.PopSize
	}
	return opts
}

// Merge returns a copy of c with every field set in o taking precedence.
func (c *RunConfig) Merge(o *RunConfig) *RunConfig {
	out := *c
	if o == nil {
		return &out
	}
	if o.MassKg != nil {
		out.MassKg = o.MassKg
	}
	if o.EnginePowerW != nil {
		out.EnginePowerW = o.EnginePowerW
	}
	if o.MaxBrakeAccelMps2 != nil {
		out.MaxBrakeAccelMps2 = o.MaxBrakeAccelMps2
	}
	if o.TyreMu != nil {
		out.TyreMu = o.TyreMu
	}
	if o.TopSpeedMps != nil {
		out.TopSpeedMps = o.TopSpeedMps
	}
	if o.Scale != nil {
		out.Scale = o.Scale
	}
	if o.Iterations != nil {
		out.Iterations = o.Iterations
	}
	if o.Seed != nil {
		out.Seed = o.Seed
	}
	if o.Strategy != nil {
		out.Strategy = o.Strategy
	}
	if o.Spacing != nil {
		out.Spacing = o.Spacing
	}
	if o.ControlPoints != nil {
		out.ControlPoints = o.ControlPoints
	}
	if o.PopSize != nil {
		out.PopSize = o.PopSize
	}
	if o.CheckpointInterval != nil {
		out.CheckpointInterval = o.CheckpointInterval
	}
	return &out
}
