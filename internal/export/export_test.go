package export

import (
	"bytes"
	"encoding/xml"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
)

func square() geom.Path {
	return geom.Path{geom.Pt(10, 10), geom.Pt(110, 10), geom.Pt(110, 110), geom.Pt(10, 110), geom.Pt(10, 10.5)}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	line := geom.Path{geom.Pt(1, 2), geom.Pt(3.14159, 4)}
	require.NoError(t, WriteCSV(&buf, line, []float64{5, 6.5}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "index,x_px,y_px,speed_mps", lines[0])
	assert.Equal(t, "0,1.000,2.000,5.000", lines[1])
	assert.Equal(t, "1,3.142,4.000,6.500", lines[2])
}

func TestWriteCSV_NoSpeed(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, geom.Path{geom.Pt(0, 0)}, nil))
	assert.Contains(t, buf.String(), "0,0.000,0.000,\n")
}

func TestReadCSV(t *testing.T) {
	var buf bytes.Buffer
	want := square()
	require.NoError(t, WriteCSV(&buf, want, nil))

	got, err := ReadCSV(&buf)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	for i := range want {
		assert.InDelta(t, want[i].X, got[i].X, 1e-3)
		assert.InDelta(t, want[i].Y, got[i].Y, 1e-3)
	}
}

func TestReadCSV_Errors(t *testing.T) {
	for name, body := range map[string]string{
		"empty":      "",
		"bad header": "a,b,c\n",
		"bad number": "index,x_px,y_px,speed_mps\n0,abc,1,\n",
		"short row":  "index,x_px,y_px,speed_mps\n0,1\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(body))
			assert.Error(t, err)
		})
	}
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	left := geom.Path{geom.Pt(0, 0), geom.Pt(50, 0)}
	right := geom.Path{geom.Pt(0, 20), geom.Pt(50, 20)}
	line := geom.Path{geom.Pt(0, 10), geom.Pt(50.5, 10)}
	require.NoError(t, WriteSVG(&buf, left, right, line))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<svg xmlns="http://www.w3.org/2000/svg" width="61" height="30">`))
	assert.Contains(t, out, `points="0,0 50,0" stroke="#d9534f"`)
	assert.Contains(t, out, `points="0,20 50,20" stroke="#0275d8"`)
	assert.Contains(t, out, `points="0,10 50.5,10" stroke="#2ca02c"`)
	assert.Equal(t, 3, strings.Count(out, "<polyline"))
	assert.True(t, strings.HasSuffix(out, "</svg>\n"))
}

func TestWriteGPX(t *testing.T) {
	var buf bytes.Buffer
	line := geom.Path{geom.Pt(0, 0), geom.Pt(100, 200)}
	require.NoError(t, WriteGPX(&buf, line, 0.5))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `creator="racingline"`)

	var doc gpxFile
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))
	assert.Equal(t, "1.1", doc.Version)
	assert.Equal(t, "Racing Line", doc.Track.Name)
	require.Len(t, doc.Track.Segment.Points, 2)

	pt := doc.Track.Segment.Points[1]
	assert.InDelta(t, 100.0/111320, pt.Lat, 1e-12)
	assert.InDelta(t, 50.0/(40075000.0/360), pt.Lon, 1e-12)
}

func TestToLatLon_Origin(t *testing.T) {
	lat, lon := ToLatLon(geom.Pt(0, 0), 1)
	assert.Zero(t, lat)
	assert.Zero(t, lon)
}

func ringProfile(t *testing.T) *sim.SpeedProfile {
	t.Helper()
	n := 64
	path := make(geom.Path, n)
	for i := range path {
		th := 2 * math.Pi * float64(i) / float64(n)
		path[i] = geom.Pt(100*math.Cos(th), 100*math.Sin(th))
	}
	prof, err := sim.Simulate(path, sim.DefaultVehicle(), 0.2)
	require.NoError(t, err)
	return prof
}

func TestWriteSpeedPNG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpeedPNG(&buf, ringProfile(t), "ring"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG\r\n\x1a\n")), "output is not a PNG")
}

func TestWriteSpeedHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSpeedHTML(&buf, ringProfile(t), "ring lap"))
	out := buf.String()
	assert.Contains(t, out, "<html")
	assert.Contains(t, out, "ring lap")
	assert.Contains(t, out, "grip limit")
}

func TestSpeedExports_EmptyProfile(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, WriteSpeedPNG(&buf, nil, "x"))
	assert.Error(t, WriteSpeedHTML(&buf, &sim.SpeedProfile{}, "x"))
}
