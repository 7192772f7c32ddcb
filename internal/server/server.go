// Package server exposes racing-line optimization jobs over HTTP with SSE
// progress streams and a small HTML job list.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cwbudde/racingline/internal/line"
	"github.com/cwbudde/racingline/internal/sim"
	"github.com/cwbudde/racingline/internal/store"
	"github.com/cwbudde/racingline/internal/track"
)

// DefaultIterations is used when a job request leaves iterations at zero.
const DefaultIterations = 500

// Server represents the HTTP server
type Server struct {
	jobManager *JobManager
	store      store.Store
	addr       string
	server     *http.Server

	// baseCtx parents every job context so Shutdown can stop workers.
	baseCtx  context.Context
	stopJobs context.CancelFunc
}

// NewServer creates a server. checkpointStore may be nil, which disables
// checkpoints, traces and resume.
func NewServer(addr string, checkpointStore store.Store) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		jobManager: NewJobManager(),
		store:      checkpointStore,
		addr:       addr,
		baseCtx:    ctx,
		stopJobs:   cancel,
	}
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the routed handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/api/v1/jobs", s.handleJobs)
	mux.HandleFunc("/api/v1/jobs/", s.handleJobsWithID)
	mux.HandleFunc("/api/v1/checkpoints", s.handleListCheckpoints)

	return s.loggingMiddleware(s.corsMiddleware(mux))
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	slog.Info("Starting HTTP server", "addr", s.addr)
	return s.server.ListenAndServe()
}

// Shutdown cancels running jobs and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down HTTP server")
	s.jobManager.CancelAll()
	s.stopJobs()
	return s.server.Shutdown(ctx)
}

// handleJobs handles /api/v1/jobs
func (s *Server) handleJobs(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateJob(w, r)
	case http.MethodGet:
		s.handleListJobs(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleJobsWithID handles /api/v1/jobs/:id/*
func (s *Server) handleJobsWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/jobs/")
	parts := strings.Split(path, "/")
	if len(parts) == 0 || parts[0] == "" {
		http.Error(w, "Job ID required", http.StatusBadRequest)
		return
	}
	jobID := parts[0]

	sub := ""
	if len(parts) > 1 {
		sub = parts[1]
	}

	switch sub {
	case "", "status":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleGetJobStatus(w, r, jobID)
	case "cancel":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleCancelJob(w, r, jobID)
	case "resume":
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleResumeJob(w, r, jobID)
	case "stream":
		s.handleJobStream(w, r, jobID)
	default:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		s.handleArtifact(w, r, jobID, sub)
	}
}

// resolveConfig fills defaults into config and checks it. It returns the
// loaded track so the worker does not read it twice.
func resolveConfig(config *JobConfig) (*track.Track, error) {
	if config.TrackPath == "" {
		return nil, fmt.Errorf("trackPath is required")
	}
	tr, err := track.Load(config.TrackPath)
	if err != nil {
		return nil, err
	}

	if config.Vehicle == (sim.VehicleParams{}) {
		config.Vehicle = sim.DefaultVehicle()
	}
	if err := config.Vehicle.Validate(); err != nil {
		return nil, err
	}
	if config.Scale == 0 {
		config.Scale = tr.Scale
	}
	if err := sim.ValidateScale(config.Scale); err != nil {
		return nil, err
	}
	if config.Iterations <= 0 {
		config.Iterations = DefaultIterations
	}
	if config.Strategy == "" {
		config.Strategy = string(line.StrategyHillClimb)
	}
	switch line.Strategy(config.Strategy) {
	case line.StrategyHillClimb, line.StrategyMayfly:
	default:
		return nil, fmt.Errorf("unknown strategy: %s", config.Strategy)
	}
	if config.CheckpointInterval < 0 {
		return nil, fmt.Errorf("checkpointInterval cannot be negative")
	}
	return tr, nil
}

// startJob registers a job and launches its worker. start, when non-nil,
// seeds the search.
func (s *Server) startJob(config JobConfig, tr *track.Track, start *store.Checkpoint) *Job {
	job := s.jobManager.CreateJob(config)

	ctx, cancel := context.WithCancel(s.baseCtx)
	s.jobManager.setCancel(job.ID, cancel)
	s.jobManager.UpdateJob(job.ID, func(j *Job) {
		j.Track = tr
		if start != nil {
			j.BestPath = start.BestPath.Clone()
			j.BestTime = start.BestTime
			j.InitialTime = start.InitialTime
		}
	})

	go func() {
		defer cancel()
		runJob(ctx, s.jobManager, s.store, job.ID)
	}()

	job, _ = s.jobManager.GetJob(job.ID)
	return job
}

// handleCreateJob handles POST /api/v1/jobs
func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var config JobConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}

	tr, err := resolveConfig(&config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	writeJSON(w, http.StatusCreated, s.startJob(config, tr, nil))
}

// handleResumeJob handles POST /api/v1/jobs/:id/resume. It starts a new job
// seeded from the stored checkpoint of :id. An optional JSON body overrides
// the search settings; the track, scale and vehicle must stay compatible.
func (s *Server) handleResumeJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if s.store == nil {
		http.Error(w, "Checkpoints are disabled", http.StatusNotFound)
		return
	}
	cp, err := s.store.LoadCheckpoint(jobID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Checkpoint not found", http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	config := cp.Config
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, fmt.Sprintf("Invalid JSON: %v", err), http.StatusBadRequest)
		return
	}
	if err := cp.IsCompatible(config); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}
	tr, err := resolveConfig(&config)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	slog.Info("Resuming from checkpoint", "from_job_id", jobID, "round", cp.Round, "best_time", cp.BestTime)
	writeJSON(w, http.StatusCreated, s.startJob(config, tr, cp))
}

// handleCancelJob handles POST /api/v1/jobs/:id/cancel
func (s *Server) handleCancelJob(w http.ResponseWriter, r *http.Request, jobID string) {
	err := s.jobManager.Cancel(jobID)
	switch {
	case errors.Is(err, ErrJobFinished):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	job, _ := s.jobManager.GetJob(jobID)
	writeJSON(w, http.StatusAccepted, job)
}

// handleListJobs handles GET /api/v1/jobs. Lines are left out of the listing.
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	jobs := s.jobManager.ListJobs()
	for _, job := range jobs {
		job.BestPath = nil
	}
	writeJSON(w, http.StatusOK, jobs)
}

// handleGetJobStatus handles GET /api/v1/jobs/:id/status
func (s *Server) handleGetJobStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	job, exists := s.jobManager.GetJob(jobID)
	if !exists {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	var elapsed time.Duration
	if job.EndTime != nil {
		elapsed = job.EndTime.Sub(job.StartTime)
	} else {
		elapsed = time.Since(job.StartTime)
	}

	var improvement float64
	if job.InitialTime > 0 {
		improvement = job.InitialTime - job.BestTime
	}

	response := map[string]interface{}{
		"id":          job.ID,
		"state":       job.State,
		"config":      job.Config,
		"bestTime":    job.BestTime,
		"initialTime": job.InitialTime,
		"improvement": improvement,
		"round":       job.Round,
		"accepted":    job.Accepted,
		"points":      len(job.BestPath),
		"elapsed":     elapsed.Seconds(),
		"startTime":   job.StartTime,
		"endTime":     job.EndTime,
		"error":       job.Error,
	}
	writeJSON(w, http.StatusOK, response)
}

// handleListCheckpoints handles GET /api/v1/checkpoints
func (s *Server) handleListCheckpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.store == nil {
		writeJSON(w, http.StatusOK, []store.CheckpointInfo{})
		return
	}
	infos, err := s.store.ListCheckpoints()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, infos)
}

// corsMiddleware adds CORS headers
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		slog.Debug("HTTP request", "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}
