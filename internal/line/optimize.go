// Package line builds the initial centerline between two track edges and
// searches for a faster racing line inside the track corridor.
package line

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/cwbudde/racingline/internal/corridor"
	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
)

// problem is the immutable search frame plus the scoring function.
type problem struct {
	base     geom.Path
	normals  []geom.Vec
	corridor corridor.Corridor
	// search is corridor with its sample-to-sample steps smoothed out. Every
	// candidate is clamped into it.
	search   corridor.Corridor
	kernel   []float64 // raised-cosine weights of one displacement
	params   sim.VehicleParams
	scale    float64
	resmooth int
}

// searchWindow is the half-width of the bounds smoothing window, in units of
// Options.Spacing.
const searchWindow = 4

func newProblem(g *Geometry, corr corridor.Corridor, params sim.VehicleParams, scale float64, opts Options) *problem {
	n := len(g.Centerline)
	spacing := geom.LoopLength(g.Centerline) / float64(n)
	samples := func(d float64) int {
		if spacing <= 0 {
			return 0
		}
		return min(int(math.Round(d/spacing)), (n-1)/2)
	}
	return &problem{
		base:     g.Centerline,
		normals:  g.Normals,
		corridor: corr,
		search:   corr.Smooth(samples(searchWindow * opts.Spacing)),
		kernel:   raisedCosine(samples(opts.BumpRadius)),
		params:   params,
		scale:    scale,
		resmooth: opts.ResmoothIters,
	}
}

// raisedCosine returns 2h+1 weights falling from 1 at the center towards 0
// at both ends.
func raisedCosine(h int) []float64 {
	h = max(h, 0)
	w := make([]float64, 2*h+1)
	for j := -h; j <= h; j++ {
		w[j+h] = 0.5 * (1 + math.Cos(math.Pi*float64(j)/float64(h+1)))
	}
	return w
}

// score simulates path and returns its lap time, or +Inf when the simulator
// rejects it.
func (pb *problem) score(path geom.Path) (*sim.SpeedProfile, float64) {
	prof, err := sim.Simulate(path, pb.params, pb.scale)
	if err != nil || math.IsNaN(prof.LapTime) {
		return nil, math.Inf(1)
	}
	return prof, prof.LapTime
}

// displace returns a copy of offsets with sample i moved by step and its
// neighbours dragged along by the kernel, wrapping around the loop.
func (pb *problem) displace(offsets []float64, i int, step float64) []float64 {
	n := len(offsets)
	h := len(pb.kernel) / 2
	out := append([]float64(nil), offsets...)
	for j, w := range pb.kernel {
		k := ((i+j-h)%n + n) % n
		out[k] += step * w
	}
	return out
}

// settle re-smooths offsets around the loop, clamps them into the search
// corridor and returns them with the path they describe. Everything happens
// in the base index space, so zero offsets settle to the centerline itself.
func (pb *problem) settle(offsets []float64) ([]float64, geom.Path) {
	s := offsets
	for k := 0; k < pb.resmooth; k++ {
		s = smoothLoop(s)
	}
	s = pb.search.Clamp(s)
	return s, geom.Offset(pb.base, pb.normals, s)
}

// smoothLoop applies one 1/4, 1/2, 1/4 pass to the closed sequence v.
func smoothLoop(v []float64) []float64 {
	n := len(v)
	out := make([]float64, n)
	for i := range v {
		out[i] = 0.25*v[(i-1+n)%n] + 0.5*v[i] + 0.25*v[(i+1)%n]
	}
	return out
}

// project measures raw against the base normals and clamps the offsets into
// the search corridor. A raw path with one point per base sample is measured
// pointwise; any other path is first resampled to the base count by arc
// length and then settled.
func (pb *problem) project(raw geom.Path) ([]float64, geom.Path) {
	rs := raw
	if len(raw) != len(pb.base) {
		rs = geom.ResampleCount(raw, len(pb.base))
	}
	offsets := make([]float64, len(pb.base))
	for j := range pb.base {
		offsets[j] = geom.Project(rs[j], pb.base[j], pb.normals[j])
	}
	if len(raw) != len(pb.base) {
		return pb.settle(offsets)
	}
	offsets = pb.search.Clamp(offsets)
	return offsets, geom.Offset(pb.base, pb.normals, offsets)
}

// OptimizeLine searches for a racing line between the open edges left and
// right that minimizes simulated lap time. params and scale are copied for the
// whole run.
//
// The edges are paired by arc-length fraction: both are resampled at
// Options.Spacing and then to a common point count before their midpoints form
// the centerline, so edges sampled at different densities still line up.
//
// The returned line is never slower than the smoothed centerline. When ctx is
// cancelled the search stops at the next round boundary and returns the best
// line found so far with Result.Cancelled set and a nil error.
func OptimizeLine(ctx context.Context, left, right geom.Path, params sim.VehicleParams, scale float64, opts Options) (*Result, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := sim.ValidateScale(scale); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	g, err := Centerline(left, right, opts.Spacing, opts.CenterSmoothIters)
	if err != nil {
		return nil, err
	}
	corr, err := corridor.Build(g.Left, g.Right, g.Centerline)
	if err != nil {
		return nil, fmt.Errorf("building corridor: %w", err)
	}

	pb := newProblem(g, corr, params, scale, opts)

	initialProfile, initialTime := pb.score(pb.base)
	if initialProfile == nil {
		return nil, fmt.Errorf("simulating centerline: lap time is not a number")
	}

	res := &Result{
		Strategy:    opts.Strategy,
		BestPath:    pb.base.Clone(),
		BestTime:    initialTime,
		InitialTime: initialTime,
		Profile:     initialProfile,
		Centerline:  pb.base,
		Corridor:    corr,
		Evaluations: 1,
	}
	offsets := make([]float64, len(pb.base))

	if len(opts.Start) >= geom.MinGeometryPoints {
		startOffsets, startPath := pb.project(opts.Start)
		prof, t := pb.score(startPath)
		res.Evaluations++
		if t < res.BestTime {
			offsets = startOffsets
			res.BestPath = startPath
			res.BestTime = t
			res.Profile = prof
		}
		slog.Debug("Seeded from start line", "start_time", t, "used", t == res.BestTime)
	}

	slog.Info("Starting line optimization",
		"strategy", opts.Strategy,
		"points", len(pb.base),
		"iterations", opts.Iterations,
		"initial_time", initialTime,
	)

	switch opts.Strategy {
	case StrategyHillClimb:
		hillClimb(ctx, pb, opts, res, offsets)
	case StrategyMayfly:
		globalSearch(ctx, pb, opts, res)
	default:
		return nil, fmt.Errorf("unknown strategy: %s", opts.Strategy)
	}

	slog.Info("Line optimization complete",
		"strategy", opts.Strategy,
		"rounds", res.Rounds,
		"accepted", res.Accepted,
		"initial_time", res.InitialTime,
		"best_time", res.BestTime,
		"early_stopped", res.EarlyStopped,
		"cancelled", res.Cancelled,
	)
	return res, nil
}

func newRand(opts Options) *rand.Rand {
	if opts.Rand != nil {
		return opts.Rand
	}
	return rand.New(rand.NewSource(opts.Seed))
}

// hillClimb runs the single-point perturbation search from offsets and
// updates res in place with every accepted candidate. A candidate displaces
// one sample, drags its neighbours along and is settled before scoring.
func hillClimb(ctx context.Context, pb *problem, opts Options, res *Result, offsets []float64) {
	rng := newRand(opts)
	n := len(pb.base)

	conv := DefaultConvergenceConfig()
	conv.GraceRounds = opts.StallGraceRounds
	tracker := NewConvergenceTracker(conv)
	tracker.Seed(res.BestTime)

	for round := 0; round < opts.Iterations; round++ {
		if ctx.Err() != nil {
			res.Cancelled = true
			return
		}

		anneal := minAnneal + (1-minAnneal)*(1-float64(round)/float64(opts.Iterations))
		accepted := 0
		for try := 0; try < opts.TriesPerRound; try++ {
			i := rng.Intn(n)
			span := math.Min(pb.search[i].Width(), opts.MaxStep)
			step := (rng.Float64()*2 - 1) * span * anneal

			settled, path := pb.settle(pb.displace(offsets, i, step))

			prof, t := pb.score(path)
			res.Evaluations++
			if t < res.BestTime {
				offsets = settled
				res.BestPath = path
				res.BestTime = t
				res.Profile = prof
				res.Accepted++
				accepted++
			}
		}
		res.Rounds = round + 1

		slog.Debug("Round complete", "round", round+1, "accepted", accepted, "best_time", res.BestTime)
		if opts.OnProgress != nil {
			opts.OnProgress(Progress{
				Round:       round + 1,
				Rounds:      opts.Iterations,
				Fraction:    float64(round+1) / float64(opts.Iterations),
				BestTime:    res.BestTime,
				InitialTime: res.InitialTime,
				Accepted:    accepted,
				BestPath:    res.BestPath,
			})
		}

		if tracker.Update(round, res.BestTime) {
			res.EarlyStopped = true
			return
		}
	}
}
