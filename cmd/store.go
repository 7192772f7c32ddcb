package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/cwbudde/racingline/internal/store"
)

// Store backends selectable with --store.
const (
	storeFS     = "fs"
	storeSQLite = "sqlite"
)

// openStore opens the checkpoint store under dataDir. The returned closer
// must be called when done.
func openStore(dataDir, kind string) (store.Store, io.Closer, error) {
	switch kind {
	case "", storeFS:
		s, err := store.NewFSStore(dataDir)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create checkpoint store: %w", err)
		}
		return s, nopCloser{}, nil
	case storeSQLite:
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		s, err := store.OpenSQLite(filepath.Join(dataDir, "racingline.db"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open checkpoint database: %w", err)
		}
		return s, s, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q (want %s or %s)", kind, storeFS, storeSQLite)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
