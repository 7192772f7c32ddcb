package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/cwbudde/racingline/internal/export"
	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
)

// artifact renders one downloadable view of a job's best line.
type artifact struct {
	contentType string
	render      func(w io.Writer, job *Job) error
}

var artifacts = map[string]artifact{
	"line.csv": {"text/csv; charset=utf-8", func(w io.Writer, job *Job) error {
		prof, err := jobProfile(job)
		if err != nil {
			return err
		}
		return export.WriteCSV(w, job.BestPath, prof.Speed)
	}},
	"line.svg": {"image/svg+xml", func(w io.Writer, job *Job) error {
		var left, right geom.Path
		if job.Track != nil {
			left, right = job.Track.Left, job.Track.Right
		}
		return export.WriteSVG(w, left, right, job.BestPath)
	}},
	"line.gpx": {"application/gpx+xml", func(w io.Writer, job *Job) error {
		return export.WriteGPX(w, job.BestPath, job.Config.Scale)
	}},
	"speed.png": {"image/png", func(w io.Writer, job *Job) error {
		prof, err := jobProfile(job)
		if err != nil {
			return err
		}
		return export.WriteSpeedPNG(w, prof, fmt.Sprintf("Job %s", shortID(job.ID)))
	}},
	"speed.html": {"text/html; charset=utf-8", func(w io.Writer, job *Job) error {
		prof, err := jobProfile(job)
		if err != nil {
			return err
		}
		return export.WriteSpeedHTML(w, prof, fmt.Sprintf("Job %s", shortID(job.ID)))
	}},
}

// jobProfile re-simulates the job's best line.
func jobProfile(job *Job) (*sim.SpeedProfile, error) {
	return sim.Simulate(job.BestPath, job.Config.Vehicle, job.Config.Scale)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// handleArtifact serves GET /api/v1/jobs/:id/<name>.
func (s *Server) handleArtifact(w http.ResponseWriter, r *http.Request, jobID, name string) {
	a, ok := artifacts[name]
	if !ok {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}
	if len(job.BestPath) < geom.MinGeometryPoints {
		http.Error(w, "No results yet", http.StatusNotFound)
		return
	}

	var buf bytes.Buffer
	if err := a.render(&buf, job); err != nil {
		slog.Error("Failed to render artifact", "job_id", jobID, "artifact", name, "error", err)
		http.Error(w, fmt.Sprintf("Failed to render %s: %v", name, err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("Cache-Control", "no-cache")
	if r.URL.Query().Get("download") != "" {
		w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	}
	w.Write(buf.Bytes())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
