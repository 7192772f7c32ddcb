package geom

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Path is an ordered sequence of points. Whether it is open or closed is a
// property of how it is used, not of the value.
type Path []Point

// Clone returns an independent copy of p.
func (p Path) Clone() Path {
	if p == nil {
		return nil
	}
	out := make(Path, len(p))
	copy(out, p)
	return out
}

// Length returns the arc length of p as an open polyline.
func Length(p Path) float64 {
	var total float64
	for i := 1; i < len(p); i++ {
		total += p[i].Distance(p[i-1])
	}
	return total
}

// LoopLength returns the arc length of p as a closed loop, including the
// segment from the last point back to the first.
func LoopLength(p Path) float64 {
	if len(p) < 2 {
		return 0
	}
	return Length(p) + p[len(p)-1].Distance(p[0])
}

// cumulative returns the running arc length at every vertex of an open path.
func cumulative(p Path) []float64 {
	d := make([]float64, len(p))
	for i := 1; i < len(p); i++ {
		d[i] = d[i-1] + p[i].Distance(p[i-1])
	}
	return d
}

// sampleAt returns the point at arc length t along the open path p, given its
// cumulative distances d. Searching restarts from *j, which callers advance
// monotonically.
func sampleAt(p Path, d []float64, t float64, j *int) Point {
	for *j < len(d)-2 && d[*j+1] < t {
		*j++
	}
	seg := d[*j+1] - d[*j]
	if seg == 0 {
		seg = 1
	}
	return p[*j].Lerp(p[*j+1], (t-d[*j])/seg)
}

// Resample walks p as an OPEN polyline and returns points spaced uniformly by
// arc length. The output has max(2, round(total/spacing))+1 points and always
// keeps both endpoints. Paths with fewer than 2 points, or a non-positive
// spacing, are returned as a copy.
func Resample(p Path, spacing float64) Path {
	if len(p) < 2 || spacing <= 0 {
		return p.Clone()
	}
	d := cumulative(p)
	total := d[len(d)-1]
	n := max(2, int(math.Round(total/spacing)))

	out := make(Path, 0, n+1)
	j := 0
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n) * total
		out = append(out, sampleAt(p, d, t, &j))
	}
	return out
}

// ResampleLoop resamples p as a CLOSED loop, including the closing segment.
// The result has max(2, round(total/spacing)) points and does not repeat the
// first point at the end.
func ResampleLoop(p Path, spacing float64) Path {
	if len(p) < 2 || spacing <= 0 {
		return p.Clone()
	}
	closed := append(p.Clone(), p[0])
	out := Resample(closed, spacing)
	return out[:len(out)-1]
}

// ResampleCount resamples the open polyline p to exactly n points at uniform
// arc-length fractions. Both endpoints are kept. Paths with fewer than 2
// points, or n < 2, are returned as a copy.
func ResampleCount(p Path, n int) Path {
	if len(p) < 2 || n < 2 {
		return p.Clone()
	}
	d := cumulative(p)
	total := d[len(d)-1]

	out := make(Path, 0, n)
	j := 0
	for i := 0; i < n; i++ {
		t := float64(i) / float64(n-1) * total
		out = append(out, sampleAt(p, d, t, &j))
	}
	return out
}

// Smooth applies Chaikin corner cutting to p as an open polyline: each segment
// [p0, p1] is replaced by the points at 25% and 75%, and both endpoints are
// retained. Each iteration turns n points into 2n. Paths with fewer than 3
// points are returned as a copy.
func Smooth(p Path, iterations int) Path {
	if len(p) < 3 {
		return p.Clone()
	}
	cur := p.Clone()
	for k := 0; k < iterations; k++ {
		next := make(Path, 0, 2*len(cur))
		next = append(next, cur[0])
		for i := 0; i < len(cur)-1; i++ {
			p0, p1 := cur[i], cur[i+1]
			next = append(next, p0.Lerp(p1, 0.25), p0.Lerp(p1, 0.75))
		}
		next = append(next, cur[len(cur)-1])
		cur = next
	}
	return cur
}

// Midline pairs left[i] with right[i] and returns their midpoints, up to the
// shorter of the two.
func Midline(left, right Path) Path {
	n := min(len(left), len(right))
	out := make(Path, n)
	for i := 0; i < n; i++ {
		out[i] = left[i].Midpoint(right[i])
	}
	return out
}

// Normals returns the unit left-hand normal at every point of the closed loop
// p, from the central difference p[i+1]-p[i-1] rotated by +90 degrees. A
// zero-length difference yields the zero vector.
func Normals(p Path) []Vec {
	n := len(p)
	out := make([]Vec, n)
	for i := 0; i < n; i++ {
		t := p[(i+1)%n].Sub(p[(i-1+n)%n])
		out[i] = perp(unitOr(t))
	}
	return out
}

// Offset returns a new path with p[i] moved by offsets[i] along normals[i].
func Offset(p Path, normals []Vec, offsets []float64) Path {
	out := make(Path, len(p))
	for i := range p {
		out[i] = p[i].Translate(r2.Scale(offsets[i], normals[i]))
	}
	return out
}

// Project returns the signed distance of q from base along the unit vector n.
func Project(q, base Point, n Vec) float64 {
	return r2.Dot(q.Sub(base), n)
}

// Sharpness sums the absolute turning angle at every interior vertex of the
// open polyline p. Smoothing never increases it.
func Sharpness(p Path) float64 {
	var total float64
	for i := 1; i < len(p)-1; i++ {
		a := p[i].Sub(p[i-1])
		b := p[i+1].Sub(p[i])
		if r2.Norm(a) == 0 || r2.Norm(b) == 0 {
			continue
		}
		total += math.Abs(math.Atan2(r2.Cross(a, b), r2.Dot(a, b)))
	}
	return total
}
