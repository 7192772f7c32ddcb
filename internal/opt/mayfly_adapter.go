package opt

import (
	"log/slog"
	"math/rand"

	"github.com/cwbudde/mayfly"
)

// MayflyAdapter wraps the mayfly library to conform to Optimizer.
type MayflyAdapter struct {
	maxIters int
	popSize  int
	seed     int64
}

// NewMayfly creates a mayfly optimizer. popSize below 20 is raised to 20, the
// smallest population the library accepts.
func NewMayfly(maxIters, popSize int, seed int64) Optimizer {
	return &MayflyAdapter{
		maxIters: maxIters,
		popSize:  max(popSize, 20),
		seed:     seed,
	}
}

// Run executes the mayfly optimization. The library takes scalar bounds, so
// the box is collapsed to [min(lower), max(upper)] and candidates are clipped
// back into the per-dimension box before eval sees them.
func (m *MayflyAdapter) Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64) {
	lo, hi := lower[0], upper[0]
	for i := 1; i < dim; i++ {
		lo = min(lo, lower[i])
		hi = max(hi, upper[i])
	}
	clipped := func(x []float64) float64 {
		return eval(clip(x, lower, upper))
	}

	config := mayfly.NewDefaultConfig()
	config.ObjectiveFunc = clipped
	config.ProblemSize = dim
	config.MaxIterations = m.maxIters
	config.NPop = m.popSize
	config.LowerBound = lo
	config.UpperBound = hi
	config.Rand = rand.New(rand.NewSource(m.seed))

	result, err := mayfly.Optimize(config)
	if err != nil {
		slog.Warn("Mayfly optimization failed, returning box center", "error", err)
		center := make([]float64, dim)
		for i := range center {
			center[i] = (lower[i] + upper[i]) / 2
		}
		return center, eval(center)
	}

	best := clip(result.GlobalBest.Position, lower, upper)
	return best, result.GlobalBest.Cost
}

func clip(x, lower, upper []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = min(max(v, lower[i]), upper[i])
	}
	return out
}
