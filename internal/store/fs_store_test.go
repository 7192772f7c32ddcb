package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/racingline/internal/geom"
	"github.com/cwbudde/racingline/internal/sim"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store, tempDir
}

func testPath() geom.Path {
	return geom.Path{
		geom.Pt(105, 0), geom.Pt(0, 105), geom.Pt(-105, 0), geom.Pt(0, -105), geom.Pt(104, -1),
	}
}

// createTestCheckpoint creates a checkpoint with test data.
func createTestCheckpoint(jobID string) *Checkpoint {
	return &Checkpoint{
		JobID:       jobID,
		BestPath:    testPath(),
		BestTime:    5.91,
		InitialTime: 5.99,
		Round:       120,
		Timestamp:   time.Now(),
		Config: JobConfig{
			TrackPath:  "tracks/ring.json",
			Vehicle:    sim.DefaultVehicle(),
			Scale:      0.2,
			Iterations: 500,
			Seed:       42,
			Strategy:   "hillclimb",
		},
	}
}

func TestNewFSStore(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(base)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != base {
		t.Errorf("BaseDir = %s, want %s", store.BaseDir(), base)
	}
	if _, err := os.Stat(base); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveLoadCheckpoint(t *testing.T) {
	store, tempDir := setupTestStore(t)

	jobID := "test-job-123"
	checkpoint := createTestCheckpoint(jobID)
	if err := store.SaveCheckpoint(jobID, checkpoint); err != nil {
		t.Fatalf("SaveCheckpoint failed: %v", err)
	}

	expectedPath := filepath.Join(tempDir, "jobs", jobID, "checkpoint.json")
	if _, err := os.Stat(expectedPath); os.IsNotExist(err) {
		t.Fatalf("Checkpoint file was not created at %s", expectedPath)
	}
	if _, err := os.Stat(expectedPath + ".tmp"); !os.IsNotExist(err) {
		t.Error("Temp file should have been renamed away")
	}

	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestTime != checkpoint.BestTime || loaded.Round != checkpoint.Round {
		t.Errorf("Loaded %+v, want %+v", loaded, checkpoint)
	}
	if len(loaded.BestPath) != len(checkpoint.BestPath) || loaded.BestPath[2] != checkpoint.BestPath[2] {
		t.Errorf("BestPath did not round-trip: %v", loaded.BestPath)
	}
	if loaded.Config.Vehicle != checkpoint.Config.Vehicle {
		t.Errorf("Vehicle = %+v, want %+v", loaded.Config.Vehicle, checkpoint.Config.Vehicle)
	}
	if err := loaded.Validate(); err != nil {
		t.Errorf("Loaded checkpoint is invalid: %v", err)
	}
}

func TestSaveCheckpoint_BadArgs(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveCheckpoint("", createTestCheckpoint("x")); err == nil {
		t.Error("Expected error for empty jobID")
	}
	if err := store.SaveCheckpoint("job", nil); err == nil {
		t.Error("Expected error for nil checkpoint")
	}
}

func TestSaveCheckpoint_Overwrite(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "overwrite-job"
	first := createTestCheckpoint(jobID)
	if err := store.SaveCheckpoint(jobID, first); err != nil {
		t.Fatalf("First save failed: %v", err)
	}

	second := createTestCheckpoint(jobID)
	second.BestTime = 5.5
	second.Round = 300
	if err := store.SaveCheckpoint(jobID, second); err != nil {
		t.Fatalf("Second save failed: %v", err)
	}

	loaded, err := store.LoadCheckpoint(jobID)
	if err != nil {
		t.Fatalf("LoadCheckpoint failed: %v", err)
	}
	if loaded.BestTime != 5.5 || loaded.Round != 300 {
		t.Errorf("Expected overwritten values, got time=%f round=%d", loaded.BestTime, loaded.Round)
	}
}

func TestLoadCheckpoint_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadCheckpoint("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.JobID != "missing" {
		t.Errorf("Expected NotFoundError for 'missing', got %v", err)
	}

	if _, err := store.LoadCheckpoint(""); err == nil {
		t.Error("Expected error for empty jobID")
	}
}

func TestLoadCheckpoint_Corrupted(t *testing.T) {
	store, _ := setupTestStore(t)

	dir := store.JobDir("broken")
	os.MkdirAll(dir, 0755)
	os.WriteFile(filepath.Join(dir, "checkpoint.json"), []byte("{"), 0644)

	if _, err := store.LoadCheckpoint("broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestListCheckpoints(t *testing.T) {
	store, tempDir := setupTestStore(t)

	infos, err := store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints on empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("Expected no checkpoints, got %d", len(infos))
	}

	for i := 0; i < 3; i++ {
		jobID := fmt.Sprintf("job-%d", i)
		if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
			t.Fatalf("SaveCheckpoint failed: %v", err)
		}
	}
	// A directory without checkpoint.json and a stray file are ignored.
	os.MkdirAll(filepath.Join(tempDir, "jobs", "empty-dir"), 0755)
	os.WriteFile(filepath.Join(tempDir, "jobs", "stray.txt"), []byte("x"), 0644)

	infos, err = store.ListCheckpoints()
	if err != nil {
		t.Fatalf("ListCheckpoints failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 checkpoints, got %d", len(infos))
	}
	for _, info := range infos {
		if info.Points != len(testPath()) || info.Strategy != "hillclimb" {
			t.Errorf("Unexpected info %+v", info)
		}
	}
}

func TestDeleteCheckpoint(t *testing.T) {
	store, _ := setupTestStore(t)

	jobID := "delete-me"
	store.SaveCheckpoint(jobID, createTestCheckpoint(jobID))
	if _, err := store.SaveArtifact(jobID, "line.svg", []byte("<svg/>")); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	if err := store.DeleteCheckpoint(jobID); err != nil {
		t.Fatalf("DeleteCheckpoint failed: %v", err)
	}
	if _, err := os.Stat(store.JobDir(jobID)); !os.IsNotExist(err) {
		t.Error("Job directory should be gone")
	}
	if err := store.DeleteCheckpoint(jobID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
	if err := store.DeleteCheckpoint(""); err == nil {
		t.Error("Expected error for empty jobID")
	}
}

func TestSaveArtifact(t *testing.T) {
	store, _ := setupTestStore(t)

	path, err := store.SaveArtifact("job", "line.csv", []byte("index,x_px,y_px,speed_mps\n"))
	if err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "index,x_px,y_px,speed_mps\n" {
		t.Errorf("Artifact content = %q, err = %v", data, err)
	}

	for _, name := range []string{"", "../escape.txt", "sub/dir.txt"} {
		if _, err := store.SaveArtifact("job", name, nil); err == nil {
			t.Errorf("Expected error for artifact name %q", name)
		}
	}
}

func TestConcurrentSave(t *testing.T) {
	store, _ := setupTestStore(t)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			jobID := fmt.Sprintf("concurrent-%d", i)
			if err := store.SaveCheckpoint(jobID, createTestCheckpoint(jobID)); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("Concurrent save failed: %v", err)
	}
	infos, _ := store.ListCheckpoints()
	if len(infos) != 10 {
		t.Errorf("Expected 10 checkpoints, got %d", len(infos))
	}
}
