// Package opt adapts population-based optimizers to a single box-bounded
// minimization interface.
package opt

// Optimizer minimizes a scalar function over a box.
type Optimizer interface {
	// Run minimizes eval over dim parameters with per-dimension bounds
	// lower/upper. It returns the best parameters and their cost.
	Run(eval func([]float64) float64, lower, upper []float64, dim int) ([]float64, float64)
}
