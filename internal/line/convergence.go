package line

import (
	"log/slog"
	"math"
)

// ConvergenceConfig controls when a search gives up on idle rounds.
type ConvergenceConfig struct {
	// Enabled controls whether early stopping is active.
	Enabled bool

	// Patience is the number of consecutive rounds without a significant
	// improvement that ends the search.
	Patience int

	// GraceRounds is the number of rounds that always run, whatever the
	// stall count says.
	GraceRounds int

	// Threshold is the minimum relative lap-time improvement that counts as
	// progress. Zero means any strict improvement.
	Threshold float64
}

// DefaultConvergenceConfig stops after the first fully idle round once the
// grace period has passed.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		Enabled:     true,
		Patience:    1,
		GraceRounds: DefaultStallGraceRounds,
		Threshold:   0,
	}
}

// ConvergenceTracker records the best lap time per round and detects stalls.
type ConvergenceTracker struct {
	config      ConvergenceConfig
	timeHistory []float64
	bestTime    float64
	staleCount  int
}

// NewConvergenceTracker creates a tracker with the given config.
func NewConvergenceTracker(config ConvergenceConfig) *ConvergenceTracker {
	return &ConvergenceTracker{
		config:   config,
		bestTime: math.Inf(1),
	}
}

// Update records the best lap time after round (0-based) and returns true if
// the search should stop.
func (c *ConvergenceTracker) Update(round int, bestTime float64) bool {
	prev := c.bestTime
	c.timeHistory = append(c.timeHistory, bestTime)
	if bestTime < c.bestTime {
		c.bestTime = bestTime
	}
	if !c.config.Enabled {
		return false
	}

	improved := bestTime < prev
	if improved && c.config.Threshold > 0 && !math.IsInf(prev, 1) {
		improved = (prev-bestTime)/prev >= c.config.Threshold
	}
	if improved {
		c.staleCount = 0
		return false
	}

	c.staleCount++
	if c.staleCount >= c.config.Patience && round > c.config.GraceRounds {
		slog.Debug("Search stalled",
			"round", round,
			"stale_count", c.staleCount,
			"best_time", c.bestTime,
		)
		return true
	}
	return false
}

// Seed sets the baseline lap time without counting a round.
func (c *ConvergenceTracker) Seed(t float64) {
	c.bestTime = t
}

// BestTime returns the best lap time seen so far.
func (c *ConvergenceTracker) BestTime() float64 {
	return c.bestTime
}

// History returns the per-round best lap times.
func (c *ConvergenceTracker) History() []float64 {
	return append([]float64{}, c.timeHistory...)
}

// StaleCount returns the current number of rounds without improvement.
func (c *ConvergenceTracker) StaleCount() int {
	return c.staleCount
}
