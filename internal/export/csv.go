// Package export writes racing lines and speed traces to interchange and
// image formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/cwbudde/racingline/internal/geom"
)

var csvHeader = []string{"index", "x_px", "y_px", "speed_mps"}

// WriteCSV writes one row per line point. speed may be nil, in which case the
// speed column is left empty.
func WriteCSV(w io.Writer, line geom.Path, speed []float64) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for i, p := range line {
		s := ""
		if i < len(speed) {
			s = strconv.FormatFloat(speed[i], 'f', 3, 64)
		}
		row := []string{
			strconv.Itoa(i),
			strconv.FormatFloat(p.X, 'f', 3, 64),
			strconv.FormatFloat(p.Y, 'f', 3, 64),
			s,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a file written by WriteCSV and returns the line points.
func ReadCSV(r io.Reader) (geom.Path, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read line CSV: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("line CSV is empty")
	}
	if len(rows[0]) < 3 || rows[0][1] != csvHeader[1] || rows[0][2] != csvHeader[2] {
		return nil, fmt.Errorf("unexpected line CSV header %v", rows[0])
	}

	out := make(geom.Path, 0, len(rows)-1)
	for n, row := range rows[1:] {
		if len(row) < 3 {
			return nil, fmt.Errorf("line CSV row %d: want at least 3 fields, got %d", n+2, len(row))
		}
		x, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("line CSV row %d: %w", n+2, err)
		}
		y, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("line CSV row %d: %w", n+2, err)
		}
		out = append(out, geom.Pt(x, y))
	}
	return out, nil
}
