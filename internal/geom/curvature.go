package geom

import "gonum.org/v1/gonum/spatial/r2"

// CurvatureSample is the discrete curvature estimate at one path point.
type CurvatureSample struct {
	// Kappa is the signed curvature in inverse path units. Positive values
	// turn counter-clockwise in a y-up frame.
	Kappa float64
	// Tangent is the unit direction of travel through the point.
	Tangent Vec
}

// Curvature estimates signed curvature at every point of p treated as a
// closed loop. With d1 = p[i]-p[i-1] and d2 = p[i+1]-p[i]:
//
//	kappa = cross(d1, d2) / (|d1| |d2| (|d1| + |d2|))
//
// A zero denominator is replaced by 1, which yields kappa 0 because the cross
// product is also 0 in that case. The tangent is the normalized mean of d1
// and d2; a zero mean is left unnormalized.
func Curvature(p Path) []CurvatureSample {
	n := len(p)
	out := make([]CurvatureSample, n)
	for i := 0; i < n; i++ {
		p0 := p[(i-1+n)%n]
		p1 := p[i]
		p2 := p[(i+1)%n]

		d1 := p1.Sub(p0)
		d2 := p2.Sub(p1)
		l1 := r2.Norm(d1)
		l2 := r2.Norm(d2)

		denom := l1 * l2 * (l1 + l2)
		if denom == 0 {
			denom = 1
		}
		out[i] = CurvatureSample{
			Kappa:   r2.Cross(d1, d2) / denom,
			Tangent: unitOr(r2.Scale(0.5, r2.Add(d1, d2))),
		}
	}
	return out
}
