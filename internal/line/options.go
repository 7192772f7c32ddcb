package line

import (
	"math/rand"

	"github.com/cwbudde/racingline/internal/corridor"
	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/opt"
	"github.com/cwbudde/racingline/internal/sim"
)

// Strategy selects the search algorithm.
type Strategy string

const (
	// StrategyHillClimb perturbs one point at a time and keeps strict
	// improvements.
	StrategyHillClimb Strategy = "hillclimb"
	// StrategyMayfly searches a low-dimensional offset curve with the mayfly
	// metaheuristic.
	StrategyMayfly Strategy = "mayfly"
)

// Default tuning values.
const (
	DefaultSpacing           = 3.0
	DefaultCenterSmoothIters = 3
	DefaultTriesPerRound     = 30
	DefaultMaxStep           = 60.0
	DefaultResmoothIters     = 2
	DefaultStallGraceRounds  = 30
	DefaultBumpSpacings      = 16
	DefaultControlPoints     = 24
	DefaultPopSize           = 20

	minAnneal = 0.08
)

// Options configures OptimizeLine. The zero value of each field selects its
// default, except Iterations where zero means "score the centerline only".
type Options struct {
	Iterations int
	Strategy   Strategy

	// Seed initializes the random source when Rand is nil.
	Seed int64
	// Rand, when set, is used directly. It must not be shared with another
	// goroutine while OptimizeLine runs.
	Rand *rand.Rand

	Spacing           float64 // edge resampling spacing, path units
	CenterSmoothIters int     // Chaikin passes on the initial centerline
	TriesPerRound     int
	MaxStep           float64 // cap on the perturbation range, path units
	ResmoothIters     int     // smoothing passes after each perturbation
	BumpRadius        float64 // how far a perturbation spreads, path units
	StallGraceRounds  int     // rounds before an idle round may stop the search

	// ControlPoints and PopSize only apply to StrategyMayfly.
	ControlPoints int
	PopSize       int
	// Optimizer overrides the mayfly adapter (StrategyMayfly only).
	Optimizer opt.Optimizer

	// Start, when set, seeds the search with a previously found line. It is
	// mapped onto the centerline's index space and used only if it is faster
	// than the centerline.
	Start geom.Path

	// OnProgress is called synchronously after every round.
	OnProgress func(Progress)
}

// DefaultOptions returns Options for a hill-climb of the given length.
func DefaultOptions(iterations int) Options {
	return Options{Iterations: iterations}.withDefaults()
}

func (o Options) withDefaults() Options {
	if o.Strategy == "" {
		o.Strategy = StrategyHillClimb
	}
	if o.Spacing <= 0 {
		o.Spacing = DefaultSpacing
	}
	if o.CenterSmoothIters <= 0 {
		o.CenterSmoothIters = DefaultCenterSmoothIters
	}
	if o.TriesPerRound <= 0 {
		o.TriesPerRound = DefaultTriesPerRound
	}
	if o.MaxStep <= 0 {
		o.MaxStep = DefaultMaxStep
	}
	if o.ResmoothIters <= 0 {
		o.ResmoothIters = DefaultResmoothIters
	}
	if o.BumpRadius <= 0 {
		o.BumpRadius = DefaultBumpSpacings * o.Spacing
	}
	if o.StallGraceRounds <= 0 {
		o.StallGraceRounds = DefaultStallGraceRounds
	}
	if o.ControlPoints <= 0 {
		o.ControlPoints = DefaultControlPoints
	}
	if o.PopSize <= 0 {
		o.PopSize = DefaultPopSize
	}
	if o.Iterations < 0 {
		o.Iterations = 0
	}
	return o
}

// Progress is reported after every round.
type Progress struct {
	Round    int     `json:"round"`    // rounds completed
	Rounds   int     `json:"rounds"`   // round budget
	Fraction float64 `json:"fraction"` // Round/Rounds in [0, 1]
	BestTime float64 `json:"bestTime"`
	// InitialTime is the lap time of the centerline.
	InitialTime float64 `json:"initialTime"`
	Accepted    int     `json:"accepted"` // improvements in this round
	// BestPath is the incumbent line. Callers must not modify it.
	BestPath geom.Path `json:"-"`
}

// Result is the outcome of OptimizeLine.
type Result struct {
	Strategy    Strategy          `json:"strategy"`
	BestPath    geom.Path         `json:"bestPath"`
	BestTime    float64           `json:"bestTime"`
	InitialTime float64           `json:"initialTime"`
	Profile     *sim.SpeedProfile `json:"profile"`

	Centerline geom.Path         `json:"centerline"`
	Corridor   corridor.Corridor `json:"corridor"`

	Rounds       int  `json:"rounds"`   // rounds completed
	Accepted     int  `json:"accepted"` // total accepted candidates
	Evaluations  int  `json:"evaluations"`
	EarlyStopped bool `json:"earlyStopped"`
	Cancelled    bool `json:"cancelled"`
}

// Improvement returns InitialTime - BestTime in seconds.
func (r *Result) Improvement() float64 {
	return r.InitialTime - r.BestTime
}
