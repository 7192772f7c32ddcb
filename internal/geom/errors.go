package geom

import "fmt"

// ErrInsufficientPoints is returned when a path has fewer points than an
// operation needs. Use errors.Is(err, ErrInsufficientPoints) to check for it.
var ErrInsufficientPoints = &InsufficientPointsError{}

// Minimum point counts.
const (
	MinGeometryPoints = 2 // distance, curvature, simulation
	MinTrackPoints    = 5 // centerline construction and optimization
)

// InsufficientPointsError reports which operation rejected a path and why.
type InsufficientPointsError struct {
	Op   string
	Have int
	Need int
}

func (e *InsufficientPointsError) Error() string {
	if e.Op == "" {
		return "insufficient points"
	}
	return fmt.Sprintf("%s: insufficient points (have %d, need %d)", e.Op, e.Have, e.Need)
}

func (e *InsufficientPointsError) Is(target error) bool {
	_, ok := target.(*InsufficientPointsError)
	return ok
}

// RequirePoints returns an *InsufficientPointsError when path has fewer than
// need points.
func RequirePoints(op string, path Path, need int) error {
	if len(path) < need {
		return &InsufficientPointsError{Op: op, Have: len(path), Need: need}
	}
	return nil
}
