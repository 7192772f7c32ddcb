package track

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/racingline/internal/geom"
)

func TestRing(t *testing.T) {
	tr := Ring(0, 0, 100, 110, 64, 0.2)
	if len(tr.Left) != 65 || len(tr.Right) != 65 {
		t.Fatalf("edge lengths %d/%d, want 65", len(tr.Left), len(tr.Right))
	}
	if tr.Left[0] != tr.Left[64] {
		t.Error("ring edge should end where it starts")
	}
	for i, p := range tr.Right {
		if r := math.Hypot(p.X, p.Y); math.Abs(r-110) > 1e-9 {
			t.Errorf("right point %d radius %f", i, r)
		}
	}
	if err := tr.Validate(); err != nil {
		t.Errorf("ring invalid: %v", err)
	}
}

func TestStraight(t *testing.T) {
	tr := Straight(100, 8, 11, 1)
	if tr.Left[10] != geom.Pt(100, 0) || tr.Right[0] != geom.Pt(0, 8) {
		t.Errorf("unexpected endpoints %v %v", tr.Left[10], tr.Right[0])
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Track)
		wantErr bool
	}{
		{"valid", func(*Track) {}, false},
		{"zero scale", func(tr *Track) { tr.Scale = 0 }, true},
		{"short left", func(tr *Track) { tr.Left = tr.Left[:4] }, true},
		{"nan point", func(tr *Track) { tr.Right[2].X = math.NaN() }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := Straight(50, 5, 10, 0.5)
			tt.mutate(tr)
			err := tr.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracks", "ring.json")
	want := Ring(10, 20, 50, 60, 16, 0.25)

	if err := Save(path, want); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Name != want.Name || got.Scale != want.Scale {
		t.Errorf("metadata mismatch: %+v", got)
	}
	if len(got.Left) != len(want.Left) || got.Left[3] != want.Left[3] {
		t.Error("left edge did not round-trip")
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte("{not json"), 0644)
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed JSON")
	}

	short := filepath.Join(dir, "short.json")
	os.WriteFile(short, []byte(`{"scale":1,"left":[{"x":0,"y":0}],"right":[]}`), 0644)
	if _, err := Load(short); err == nil {
		t.Error("expected validation error")
	} else if _, ok := err.(*ValidationError); !ok {
		t.Errorf("expected *ValidationError, got %T", err)
	}
}

func TestCalibrate(t *testing.T) {
	scale, err := Calibrate(geom.Pt(0, 0), geom.Pt(30, 40), 10)
	if err != nil {
		t.Fatalf("Calibrate failed: %v", err)
	}
	if scale != 0.2 {
		t.Errorf("scale = %f, want 0.2", scale)
	}

	if _, err := Calibrate(geom.Pt(1, 1), geom.Pt(1, 1), 10); err == nil {
		t.Error("expected error for coincident points")
	}
	if _, err := Calibrate(geom.Pt(0, 0), geom.Pt(1, 0), -3); err == nil {
		t.Error("expected error for negative distance")
	}
}
