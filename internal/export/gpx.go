package export

import (
	"encoding/xml"
	"io"

	"github.com/cwbudde/racingline/internal/geom"
)

// GPXCreator is written into the creator attribute of every GPX file.
const GPXCreator = "racingline"

const (
	metersPerDegLat = 111320.0
	metersPerDegLon = 40075000.0 / 360
)

type gpxFile struct {
	XMLName xml.Name `xml:"gpx"`
	Version string   `xml:"version,attr"`
	Creator string   `xml:"creator,attr"`
	Track   gpxTrack `xml:"trk"`
}

type gpxTrack struct {
	Name    string     `xml:"name"`
	Segment gpxSegment `xml:"trkseg"`
}

type gpxSegment struct {
	Points []gpxPoint `xml:"trkpt"`
}

type gpxPoint struct {
	Lat float64 `xml:"lat,attr"`
	Lon float64 `xml:"lon,attr"`
}

// WriteGPX writes line as a single GPX track using a flat-earth projection
// anchored at (0, 0): y maps to latitude and x to longitude.
func WriteGPX(w io.Writer, line geom.Path, scale float64) error {
	doc := gpxFile{
		Version: "1.1",
		Creator: GPXCreator,
		Track:   gpxTrack{Name: "Racing Line"},
	}
	doc.Track.Segment.Points = make([]gpxPoint, len(line))
	for i, p := range line {
		lat, lon := ToLatLon(p, scale)
		doc.Track.Segment.Points[i] = gpxPoint{Lat: lat, Lon: lon}
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// ToLatLon projects a track point in path units to degrees.
func ToLatLon(p geom.Point, scale float64) (lat, lon float64) {
	return p.Y * scale / metersPerDegLat, p.X * scale / metersPerDegLon
}
