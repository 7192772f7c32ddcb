// Package corridor derives per-sample lateral limits for a racing line from
// the two track edges.
package corridor

import (
	"math"

	"github.com/cwbudde/racingline/internal/geom"
)

// Bounds is the allowed lateral offset range at one centerline sample,
// measured along that sample's normal. Min <= 0 <= Max is not guaranteed when
// the edges and the centerline were resampled independently.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Width returns Max - Min.
func (b Bounds) Width() float64 {
	return b.Max - b.Min
}

// Clamp limits offset to [Min, Max].
func (b Bounds) Clamp(offset float64) float64 {
	return math.Max(b.Min, math.Min(b.Max, offset))
}

// Contains reports whether offset lies within the bounds.
func (b Bounds) Contains(offset float64) bool {
	return offset >= b.Min && offset <= b.Max
}

// Corridor holds one Bounds per centerline sample.
type Corridor []Bounds

// Build computes the corridor around center. For each sample i the normal is
// the closed-loop central difference of center rotated by 90 degrees, the
// matching edge samples are left[round(i*len(left)/len(center))] and the same
// for right, and the bounds are the projections of (edge - center) onto the
// normal, ordered.
//
// The result is tied to the geometry it was built from; it is not rebuilt as
// the racing line moves.
func Build(left, right, center geom.Path) (Corridor, error) {
	for _, in := range []struct {
		name string
		path geom.Path
	}{{"corridor: left edge", left}, {"corridor: right edge", right}, {"corridor: centerline", center}} {
		if err := geom.RequirePoints(in.name, in.path, geom.MinGeometryPoints); err != nil {
			return nil, err
		}
	}

	normals := geom.Normals(center)
	out := make(Corridor, len(center))
	for i, c := range center {
		lp := left[edgeIndex(i, len(left), len(center))]
		rp := right[edgeIndex(i, len(right), len(center))]
		dl := geom.Project(lp, c, normals[i])
		dr := geom.Project(rp, c, normals[i])
		out[i] = Bounds{Min: math.Min(dl, dr), Max: math.Max(dl, dr)}
	}
	return out, nil
}

// edgeIndex maps centerline index i onto an edge by proportion. Rounding can
// land one past the end; that case is pinned to the last sample.
func edgeIndex(i, edgeLen, centerLen int) int {
	j := int(math.Round(float64(i) * float64(edgeLen) / float64(centerLen)))
	return min(j, edgeLen-1)
}

// Clamp returns offsets limited to the corridor, sample by sample.
func (c Corridor) Clamp(offsets []float64) []float64 {
	out := make([]float64, len(offsets))
	for i, o := range offsets {
		out[i] = c[i].Clamp(o)
	}
	return out
}

// MeanWidth returns the average corridor width.
func (c Corridor) MeanWidth() float64 {
	if len(c) == 0 {
		return 0
	}
	var sum float64
	for _, b := range c {
		sum += b.Width()
	}
	return sum / float64(len(c))
}

// Smooth returns c with both bounds averaged twice over a circular window of
// 2k+1 samples. The averages are then pulled inward by the largest amount they
// overshoot the raw bounds anywhere, so each smoothed range lies inside its
// raw range. When k < 1 or the result would be empty somewhere, a copy of c is
// returned.
func (c Corridor) Smooth(k int) Corridor {
	n := len(c)
	out := make(Corridor, n)
	copy(out, c)
	if k < 1 || n < 3 {
		return out
	}

	lo := make([]float64, n)
	hi := make([]float64, n)
	for i, b := range c {
		lo[i], hi[i] = b.Min, b.Max
	}
	lo = boxMean(boxMean(lo, k), k)
	hi = boxMean(boxMean(hi, k), k)

	var dlo, dhi float64
	for i, b := range c {
		dlo = math.Max(dlo, b.Min-lo[i])
		dhi = math.Max(dhi, hi[i]-b.Max)
	}
	for i, b := range c {
		s := Bounds{
			Min: math.Max(b.Min, lo[i]+dlo),
			Max: math.Min(b.Max, hi[i]-dhi),
		}
		if s.Min > s.Max {
			copy(out, c)
			return out
		}
		out[i] = s
	}
	return out
}

// boxMean averages v over a circular window of 2k+1 samples.
func boxMean(v []float64, k int) []float64 {
	n := len(v)
	k = min(k, (n-1)/2)
	w := float64(2*k + 1)
	var sum float64
	for j := -k; j <= k; j++ {
		sum += v[(j%n+n)%n]
	}
	out := make([]float64, n)
	for i := range v {
		out[i] = sum / w
		sum += v[(i+k+1)%n] - v[(i-k+n)%n]
	}
	return out
}
