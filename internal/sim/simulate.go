package sim

import (
	"math"

	"github.com/cwbudde/racingline/internal/geom"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

const (
	gravity = 9.81 // m/s^2

	maxForwardAccel = 3.5  // m/s^2
	minCurvature    = 1e-8 // 1/m; below this a point counts as straight
	minGripSpeedSq  = 0.5  // m^2/s^2 floor under the grip speed limit
	minTimingSpeed  = 0.1  // m/s floor when converting distance to time

	// BrakePasses is the number of backward braking sweeps. Braking limits
	// propagate one sweep per loop wrap, so more sweeps tighten the result.
	BrakePasses = 3
)

// SpeedProfile is the simulator output for one lap. It is recomputed from a
// path on every call and never updated in place.
type SpeedProfile struct {
	// LapTime is the total lap time in seconds.
	LapTime float64 `json:"lapTime"`
	// Speed is the simulated speed at each path point, m/s.
	Speed []float64 `json:"speed"`
	// Dist[i] is the length of the segment from point i to point i+1 (the
	// last entry closes the loop), meters.
	Dist []float64 `json:"dist"`
	// SpeedLimit is the lateral-grip cap at each point, m/s.
	SpeedLimit []float64 `json:"speedLimit"`
}

// Simulate runs the lap-time model over path treated as a closed loop. scale
// converts path units to meters. It fails only when path has fewer than two
// points; out-of-range parameters propagate as non-finite numbers, callers
// that want to reject them use VehicleParams.Validate.
func Simulate(path geom.Path, params VehicleParams, scale float64) (*SpeedProfile, error) {
	if err := geom.RequirePoints("simulate", path, geom.MinGeometryPoints); err != nil {
		return nil, err
	}
	n := len(path)

	dist := make([]float64, n)
	for i := 0; i < n; i++ {
		dist[i] = path[i].Distance(path[(i+1)%n]) * scale
	}

	vTop := params.TopSpeedMps
	limit := make([]float64, n)
	for i, c := range geom.Curvature(path) {
		k := math.Abs(c.Kappa) / scale
		if k > minCurvature {
			limit[i] = math.Sqrt(math.Max(minGripSpeedSq, params.TyreMu*gravity/k))
		} else {
			limit[i] = vTop
		}
		limit[i] = math.Min(limit[i], vTop)
	}

	v := make([]float64, n)
	v[0] = math.Min(limit[0], vTop)
	accel := params.ForwardAccel()
	for i := 1; i < n; i++ {
		reach := math.Sqrt(v[i-1]*v[i-1] + 2*accel*dist[i-1])
		v[i] = math.Min(math.Min(limit[i], reach), vTop)
	}

	brake := params.MaxBrakeAccelMps2
	for pass := 0; pass < BrakePasses; pass++ {
		for i := n - 2; i >= 0; i-- {
			allow := math.Sqrt(v[i+1]*v[i+1] + 2*brake*dist[i])
			if v[i] > allow {
				v[i] = math.Max(0, allow)
			}
		}
	}

	var total float64
	for i := 0; i < n; i++ {
		total += dist[i] / math.Max(minTimingSpeed, v[i])
	}

	return &SpeedProfile{
		LapTime:    total,
		Speed:      v,
		Dist:       dist,
		SpeedLimit: limit,
	}, nil
}

// Summary is a compact description of a speed profile.
type Summary struct {
	LapTime   float64 `json:"lapTime"`
	LapLength float64 `json:"lapLength"`
	MinSpeed  float64 `json:"minSpeed"`
	MaxSpeed  float64 `json:"maxSpeed"`
	MeanSpeed float64 `json:"meanSpeed"`
	AvgSpeed  float64 `json:"avgSpeed"` // lap length / lap time
}

// Summary computes speed statistics. MeanSpeed is distance weighted.
func (p *SpeedProfile) Summary() Summary {
	if p == nil || len(p.Speed) == 0 {
		return Summary{}
	}
	length := floats.Sum(p.Dist)
	s := Summary{
		LapTime:   p.LapTime,
		LapLength: length,
		MinSpeed:  floats.Min(p.Speed),
		MaxSpeed:  floats.Max(p.Speed),
	}
	if length > 0 {
		s.MeanSpeed = stat.Mean(p.Speed, p.Dist)
	} else {
		s.MeanSpeed = stat.Mean(p.Speed, nil)
	}
	if p.LapTime > 0 {
		s.AvgSpeed = length / p.LapTime
	}
	return s
}

// CumulativeDistance returns the distance from the start to each point.
func (p *SpeedProfile) CumulativeDistance() []float64 {
	out := make([]float64, len(p.Dist))
	for i := 1; i < len(out); i++ {
		out[i] = out[i-1] + p.Dist[i-1]
	}
	return out
}
