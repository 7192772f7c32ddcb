// Package track loads, saves and generates track definitions: two open edge
// polylines plus the meters-per-unit scale they were traced at.
package track

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/cwbudde/racingline/internal/geom"
)

// Track is the on-disk track format.
type Track struct {
	Name  string    `json:"name,omitempty"`
	Scale float64   `json:"scale"` // meters per unit
	Left  geom.Path `json:"left"`
	Right geom.Path `json:"right"`
}

// ValidationError reports a malformed track.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid track: " + e.Field + " " + e.Reason
}

// Validate checks that both edges have enough finite points and that the
// scale is usable.
func (t *Track) Validate() error {
	if t.Scale <= 0 || math.IsNaN(t.Scale) || math.IsInf(t.Scale, 0) {
		return &ValidationError{Field: "scale", Reason: "must be positive"}
	}
	for _, e := range []struct {
		name string
		path geom.Path
	}{{"left", t.Left}, {"right", t.Right}} {
		if len(e.path) < geom.MinTrackPoints {
			return &ValidationError{
				Field:  e.name,
				Reason: fmt.Sprintf("needs at least %d points, has %d", geom.MinTrackPoints, len(e.path)),
			}
		}
		for i, p := range e.path {
			if !p.IsFinite() {
				return &ValidationError{Field: e.name, Reason: fmt.Sprintf("point %d is not finite", i)}
			}
		}
	}
	return nil
}

// Load reads and validates a track file.
func Load(path string) (*Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read track: %w", err)
	}
	var t Track
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse track %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Save writes t as indented JSON, creating parent directories.
func Save(path string, t *Track) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create track directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize track: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write track: %w", err)
	}
	return nil
}

// Ring returns a circular track centered on (cx, cy). Each edge is an open
// polyline of n+1 points whose last point repeats the first, so the edge
// covers the full lap. Left is the inner edge for counter-clockwise travel.
func Ring(cx, cy, inner, outer float64, n int, scale float64) *Track {
	edge := func(r float64) geom.Path {
		out := make(geom.Path, n+1)
		for i := 0; i <= n; i++ {
			th := 2 * math.Pi * float64(i%n) / float64(n)
			out[i] = geom.Pt(cx+r*math.Cos(th), cy+r*math.Sin(th))
		}
		return out
	}
	return &Track{
		Name:  fmt.Sprintf("ring %g-%g", inner, outer),
		Scale: scale,
		Left:  edge(inner),
		Right: edge(outer),
	}
}

// Straight returns a straight two-edge strip along +x of the given length and
// width with n points per edge. Left is y=0, right is y=width.
func Straight(length, width float64, n int, scale float64) *Track {
	edge := func(y float64) geom.Path {
		out := make(geom.Path, n)
		for i := 0; i < n; i++ {
			out[i] = geom.Pt(length*float64(i)/float64(n-1), y)
		}
		return out
	}
	return &Track{
		Name:  fmt.Sprintf("straight %gx%g", length, width),
		Scale: scale,
		Left:  edge(0),
		Right: edge(width),
	}
}

// Calibrate returns the meters-per-unit scale implied by two points a known
// real-world distance apart.
func Calibrate(a, b geom.Point, meters float64) (float64, error) {
	if meters <= 0 || math.IsNaN(meters) {
		return 0, &ValidationError{Field: "meters", Reason: "must be positive"}
	}
	d := geom.Distance(a, b)
	if d == 0 {
		return 0, &ValidationError{Field: "points", Reason: "must be distinct"}
	}
	return meters / d, nil
}
