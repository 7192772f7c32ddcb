// Package geom holds the planar path primitives used by the lap simulator and
// the line optimizer: points, polylines, resampling, Chaikin smoothing and
// discrete signed curvature.
//
// Two path conventions coexist. Track edges are open polylines (no implicit
// segment from the last point back to the first). The centerline and the
// racing line are closed loops: the successor of the last point is the first.
// Functions say which convention they use.
package geom

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Vec is a 2D direction or displacement.
type Vec = r2.Vec

// Point is a position in track coordinates (pixels or meters, see the scale
// factor carried by the caller).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Pt returns the point (x, y).
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%g, %g)", p.X, p.Y)
}

// Vec returns p as a vector from the origin.
func (p Point) Vec() Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Sub returns the vector from o to p.
func (p Point) Sub(o Point) Vec {
	return r2.Sub(p.Vec(), o.Vec())
}

// Translate returns p moved by v.
func (p Point) Translate(v Vec) Point {
	q := r2.Add(p.Vec(), v)
	return Point{X: q.X, Y: q.Y}
}

// Lerp linearly interpolates between p (t=0) and o (t=1).
func (p Point) Lerp(o Point, t float64) Point {
	return Point{
		X: p.X + (o.X-p.X)*t,
		Y: p.Y + (o.Y-p.Y)*t,
	}
}

// Midpoint returns the point halfway between p and o.
func (p Point) Midpoint(o Point) Point {
	return p.Lerp(o, 0.5)
}

// Distance returns the Euclidean distance between p and o.
func (p Point) Distance(o Point) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return a.Distance(b)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

// unitOr normalizes v. A zero-length v is divided by 1 instead, so the result
// stays finite (and is the zero vector).
func unitOr(v Vec) Vec {
	n := r2.Norm(v)
	if n == 0 {
		n = 1
	}
	return r2.Scale(1/n, v)
}

// perp rotates v by +90 degrees.
func perp(v Vec) Vec {
	return r2.Vec{X: -v.Y, Y: v.X}
}
