package store

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore implements Store on a single SQLite database. Besides
// checkpoints it keeps per-round trace rows, which makes run history
// queryable across jobs.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and migrates it to the
// latest schema. Use ":memory:" for a throwaway store.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// An in-memory database lives only as long as its connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to configure sqlite: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrateUp() error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	// m is not closed: closing it would close s.db.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	slog.Debug("SQLite schema ready", "version", version, "dirty", dirty)
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SaveCheckpoint inserts or replaces the checkpoint for jobID.
func (s *SQLiteStore) SaveCheckpoint(jobID string, checkpoint *Checkpoint) error {
	if jobID == "" {
		return fmt.Errorf("jobID cannot be empty")
	}
	if checkpoint == nil {
		return fmt.Errorf("checkpoint cannot be nil")
	}

	body, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("failed to serialize checkpoint: %w", err)
	}
	_, err = s.db.Exec(`
		INSERT INTO checkpoints (job_id, best_time, initial_time, round, points, strategy, track_path, created_at, body)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (job_id) DO UPDATE SET
			best_time = excluded.best_time,
			initial_time = excluded.initial_time,
			round = excluded.round,
			points = excluded.points,
			strategy = excluded.strategy,
			track_path = excluded.track_path,
			created_at = excluded.created_at,
			body = excluded.body`,
		jobID,
		checkpoint.BestTime,
		checkpoint.InitialTime,
		checkpoint.Round,
		len(checkpoint.BestPath),
		checkpoint.Config.Strategy,
		checkpoint.Config.TrackPath,
		checkpoint.Timestamp.UTC().Format(time.RFC3339Nano),
		string(body),
	)
	if err != nil {
		return fmt.Errorf("failed to save checkpoint: %w", err)
	}
	slog.Debug("Checkpoint saved", "job_id", jobID, "store", "sqlite", "round", checkpoint.Round)
	return nil
}

// LoadCheckpoint returns the checkpoint for jobID or ErrNotFound.
func (s *SQLiteStore) LoadCheckpoint(jobID string) (*Checkpoint, error) {
	var body string
	err := s.db.QueryRow(`SELECT body FROM checkpoints WHERE job_id = ?`, jobID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{JobID: jobID}
	} else if err != nil {
		return nil, fmt.Errorf("failed to query checkpoint: %w", err)
	}

	var checkpoint Checkpoint
	if err := json.Unmarshal([]byte(body), &checkpoint); err != nil {
		return nil, fmt.Errorf("failed to deserialize checkpoint: %w", err)
	}
	return &checkpoint, nil
}

// ListCheckpoints returns checkpoint metadata, newest first, without decoding
// the stored lines.
func (s *SQLiteStore) ListCheckpoints() ([]CheckpointInfo, error) {
	rows, err := s.db.Query(`
		SELECT job_id, best_time, initial_time, round, points, strategy, track_path, created_at
		FROM checkpoints
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list checkpoints: %w", err)
	}
	defer rows.Close()

	infos := []CheckpointInfo{}
	for rows.Next() {
		var info CheckpointInfo
		var created string
		if err := rows.Scan(&info.JobID, &info.BestTime, &info.InitialTime, &info.Round,
			&info.Points, &info.Strategy, &info.TrackPath, &created); err != nil {
			return nil, fmt.Errorf("failed to scan checkpoint row: %w", err)
		}
		if info.Timestamp, err = time.Parse(time.RFC3339Nano, created); err != nil {
			slog.Warn("Bad checkpoint timestamp", "job_id", info.JobID, "value", created)
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// DeleteCheckpoint removes the checkpoint and trace rows for jobID.
func (s *SQLiteStore) DeleteCheckpoint(jobID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM checkpoints WHERE job_id = ?`, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return &NotFoundError{JobID: jobID}
	}
	if _, err := tx.Exec(`DELETE FROM trace_entries WHERE job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to delete trace: %w", err)
	}
	return tx.Commit()
}

// AppendTrace records one round of a job's search.
func (s *SQLiteStore) AppendTrace(jobID string, entry TraceEntry) error {
	_, err := s.db.Exec(`
		INSERT OR REPLACE INTO trace_entries (job_id, round, lap_time, accepted, logged_at)
		VALUES (?, ?, ?, ?, ?)`,
		jobID, entry.Round, entry.LapTime, entry.Accepted, entry.Timestamp.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to append trace entry: %w", err)
	}
	return nil
}

// Trace returns a job's trace entries ordered by round.
func (s *SQLiteStore) Trace(jobID string) ([]TraceEntry, error) {
	rows, err := s.db.Query(`
		SELECT round, lap_time, accepted, logged_at
		FROM trace_entries
		WHERE job_id = ?
		ORDER BY round`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query trace: %w", err)
	}
	defer rows.Close()

	var entries []TraceEntry
	for rows.Next() {
		var e TraceEntry
		var logged string
		if err := rows.Scan(&e.Round, &e.LapTime, &e.Accepted, &logged); err != nil {
			return nil, fmt.Errorf("failed to scan trace row: %w", err)
		}
		e.Timestamp, _ = time.Parse(time.RFC3339Nano, logged)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// BestForTrack returns the fastest stored checkpoint for a track, or
// ErrNotFound.
func (s *SQLiteStore) BestForTrack(trackPath string) (*Checkpoint, error) {
	var jobID string
	err := s.db.QueryRow(`
		SELECT job_id FROM checkpoints
		WHERE track_path = ?
		ORDER BY best_time ASC
		LIMIT 1`, trackPath).Scan(&jobID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{}
	} else if err != nil {
		return nil, fmt.Errorf("failed to query best checkpoint: %w", err)
	}
	return s.LoadCheckpoint(jobID)
}

type sqliteTrace struct {
	s     *SQLiteStore
	jobID string
}

func (t sqliteTrace) Write(entry TraceEntry) error { return t.s.AppendTrace(t.jobID, entry) }
func (t sqliteTrace) Close() error                 { return nil }

// OpenTrace returns a sink that writes trace rows for jobID.
func (s *SQLiteStore) OpenTrace(jobID string) (TraceSink, error) {
	if jobID == "" {
		return nil, fmt.Errorf("jobID cannot be empty")
	}
	return sqliteTrace{s: s, jobID: jobID}, nil
}
