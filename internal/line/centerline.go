package line

import (
	"fmt"

	"github.com/cwbudde/racingline/internal/geom"
)

// Geometry is the fixed frame a search runs in: the paired edges, the
// smoothed centerline and its normals.
type Geometry struct {
	Left       geom.Path
	Right      geom.Path
	Centerline geom.Path
	Normals    []geom.Vec
}

// Centerline builds the initial line from two open track edges. Both edges are
// resampled at spacing, brought to a common point count by arc-length
// fraction, paired into midpoints and Chaikin smoothed smoothIters times.
func Centerline(left, right geom.Path, spacing float64, smoothIters int) (*Geometry, error) {
	if err := geom.RequirePoints("centerline: left edge", left, geom.MinTrackPoints); err != nil {
		return nil, err
	}
	if err := geom.RequirePoints("centerline: right edge", right, geom.MinTrackPoints); err != nil {
		return nil, err
	}

	l := geom.Resample(left, spacing)
	r := geom.Resample(right, spacing)
	if err := geom.RequirePoints("centerline: resampled left edge", l, geom.MinTrackPoints); err != nil {
		return nil, err
	}
	if err := geom.RequirePoints("centerline: resampled right edge", r, geom.MinTrackPoints); err != nil {
		return nil, err
	}

	// Index pairing needs matching arc-length fractions, otherwise the
	// longer edge drifts ahead of the shorter one.
	n := min(len(l), len(r))
	l = geom.ResampleCount(l, n)
	r = geom.ResampleCount(r, n)

	center := geom.Smooth(geom.Midline(l, r), smoothIters)
	for i, p := range center {
		if !p.IsFinite() {
			return nil, fmt.Errorf("centerline: non-finite point at index %d", i)
		}
	}

	return &Geometry{
		Left:       l,
		Right:      r,
		Centerline: center,
		Normals:    geom.Normals(center),
	}, nil
}
