package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/racingline/internal/export"
	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/track"
)

// writeArtifacts writes every export of res into outDir and returns the
// written paths.
func writeArtifacts(outDir string, tr *track.Track, res *line.Result, scale float64, title string) ([]string, error) {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(w io.Writer) error
	}{
		{"line.csv", func(w io.Writer) error { return export.WriteCSV(w, res.BestPath, res.Profile.Speed) }},
		{"line.svg", func(w io.Writer) error { return export.WriteSVG(w, tr.Left, tr.Right, res.BestPath) }},
		{"line.gpx", func(w io.Writer) error { return export.WriteGPX(w, res.BestPath, scale) }},
		{"speed.png", func(w io.Writer) error { return export.WriteSpeedPNG(w, res.Profile, title) }},
		{"speed.html", func(w io.Writer) error { return export.WriteSpeedHTML(w, res.Profile, title) }},
	}

	var written []string
	for _, wr := range writers {
		path := filepath.Join(outDir, wr.name)
		if err := writeFile(path, wr.write); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writeFile(path string, write func(w io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// printResult prints the one-line run summary.
func printResult(w io.Writer, res *line.Result) {
	s := res.Profile.Summary()
	fmt.Fprintf(w, "Lap time: %.3f s -> %.3f s (%.3f s faster, %d rounds, %d accepted)\n",
		res.InitialTime, res.BestTime, res.Improvement(), res.Rounds, res.Accepted)
	fmt.Fprintf(w, "Speed: min %.1f m/s, max %.1f m/s, mean %.1f m/s over %.1f m\n",
		s.MinSpeed, s.MaxSpeed, s.MeanSpeed, s.LapLength)
}
