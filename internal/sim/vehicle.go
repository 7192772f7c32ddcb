// Package sim estimates lap time for a closed racing line with a
// point-mass vehicle: a lateral-grip speed cap from curvature, a forward
// acceleration pass and a few backward braking passes.
package sim

import (
	"fmt"
	"math"
)

// VehicleParams describes the simulated vehicle. Values are copied into every
// call, so a caller may mutate its own copy while a simulation runs.
type VehicleParams struct {
	// MassKg is carried for callers and future force models; the simulator
	// does not read it.
	MassKg            float64 `json:"massKg"`
	EnginePowerW      float64 `json:"enginePowerW"`
	MaxBrakeAccelMps2 float64 `json:"maxBrakeAccelMps2"`
	TyreMu            float64 `json:"tyreMu"`
	TopSpeedMps       float64 `json:"topSpeedMps"`
}

// DefaultVehicle returns a rental-kart sized vehicle.
func DefaultVehicle() VehicleParams {
	return VehicleParams{
		MassKg:            160,
		EnginePowerW:      8500,
		MaxBrakeAccelMps2: 7.5,
		TyreMu:            1.6,
		TopSpeedMps:       22,
	}
}

// ForwardAccel returns the constant acceleration cap used by the forward pass.
// It is min(P / max(1, P/1000), 3.5) m/s^2, independent of speed.
func (v VehicleParams) ForwardAccel() float64 {
	return math.Min(v.EnginePowerW/math.Max(1, v.EnginePowerW/1e3), maxForwardAccel)
}

// Validate checks that every parameter the simulator reads is positive and
// finite. Simulate itself does not call it.
func (v VehicleParams) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"EnginePowerW", v.EnginePowerW},
		{"MaxBrakeAccelMps2", v.MaxBrakeAccelMps2},
		{"TyreMu", v.TyreMu},
		{"TopSpeedMps", v.TopSpeedMps},
	}
	for _, f := range fields {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ParamError{Field: f.name, Reason: "must be finite"}
		}
		if f.value <= 0 {
			return &ParamError{Field: f.name, Reason: "must be positive"}
		}
	}
	if v.MassKg < 0 || math.IsNaN(v.MassKg) {
		return &ParamError{Field: "MassKg", Reason: "cannot be negative"}
	}
	return nil
}

// ValidateScale checks a meters-per-unit scale factor.
func ValidateScale(scale float64) error {
	if math.IsNaN(scale) || math.IsInf(scale, 0) || scale <= 0 {
		return &ParamError{Field: "Scale", Reason: fmt.Sprintf("must be positive and finite, got %g", scale)}
	}
	return nil
}

// ErrInvalidParameter is returned for out-of-range vehicle or scale values.
// Use errors.Is(err, ErrInvalidParameter) to check for it.
var ErrInvalidParameter = &ParamError{}

// ParamError names the rejected parameter.
type ParamError struct {
	Field  string
	Reason string
}

func (e *ParamError) Error() string {
	if e.Field == "" {
		return "invalid parameter"
	}
	return "invalid parameter: " + e.Field + " " + e.Reason
}

func (e *ParamError) Is(target error) bool {
	_, ok := target.(*ParamError)
	return ok
}
