package line

import (
	"context"
	"log/slog"
	"math"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/opt"
)

// offsetCurve maps a vector of control values in [-1, 1] to per-sample
// lateral offsets. Control values are spaced evenly around the loop and eased
// into each other with a smoothstep; -1 is the search corridor's Min and +1
// its Max.
type offsetCurve struct {
	pb       *problem
	controls int
}

func (oc offsetCurve) offsets(x []float64) []float64 {
	n := len(oc.pb.base)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		f := float64(i) * float64(oc.controls) / float64(n)
		k := int(f)
		s := f - float64(k)
		s = s * s * (3 - 2*s)
		u := x[k%oc.controls]*(1-s) + x[(k+1)%oc.controls]*s
		u = math.Max(-1, math.Min(1, u))
		b := oc.pb.search[i]
		out[i] = b.Min + (u+1)/2*b.Width()
	}
	return out
}

func (oc offsetCurve) path(x []float64) geom.Path {
	return geom.Offset(oc.pb.base, oc.pb.normals, oc.offsets(x))
}

// globalSearch runs a population optimizer over an offset curve. The best
// decoded line replaces the centerline only if it is strictly faster.
func globalSearch(ctx context.Context, pb *problem, opts Options, res *Result) {
	if opts.Iterations == 0 {
		return
	}

	optimizer := opts.Optimizer
	if optimizer == nil {
		optimizer = opt.NewMayfly(opts.Iterations, opts.PopSize, opts.Seed)
	}
	oc := offsetCurve{pb: pb, controls: opts.ControlPoints}

	evals := 0
	bestSeen := res.BestTime
	eval := func(x []float64) float64 {
		if ctx.Err() != nil {
			return math.Inf(1)
		}
		_, t := pb.score(oc.path(x))
		evals++
		if t < bestSeen {
			bestSeen = t
		}
		if evals%opts.PopSize == 0 && opts.OnProgress != nil {
			round := min(evals/opts.PopSize, opts.Iterations)
			opts.OnProgress(Progress{
				Round:       round,
				Rounds:      opts.Iterations,
				Fraction:    float64(round) / float64(opts.Iterations),
				BestTime:    math.Min(bestSeen, res.BestTime),
				InitialTime: res.InitialTime,
			})
		}
		return t
	}

	dim := opts.ControlPoints
	lower := make([]float64, dim)
	upper := make([]float64, dim)
	for i := range lower {
		lower[i] = -1
		upper[i] = 1
	}

	slog.Debug("Starting population search", "controls", dim, "pop_size", opts.PopSize)
	x, _ := optimizer.Run(eval, lower, upper, dim)
	res.Evaluations += evals
	res.Rounds = min(evals/opts.PopSize, opts.Iterations)
	if ctx.Err() != nil {
		res.Cancelled = true
	}

	if len(x) == dim {
		path := oc.path(x)
		if prof, t := pb.score(path); t < res.BestTime {
			res.BestPath = path
			res.BestTime = t
			res.Profile = prof
			res.Accepted++
		}
	}

	if opts.OnProgress != nil {
		opts.OnProgress(Progress{
			Round:       opts.Iterations,
			Rounds:      opts.Iterations,
			Fraction:    1,
			BestTime:    res.BestTime,
			InitialTime: res.InitialTime,
			BestPath:    res.BestPath,
		})
	}
}
