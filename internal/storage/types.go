package storage

import (
	"errors"
	"time"
)

var (
	// ErrNoSnapshot means no snapshot exists yet (first run).
	ErrNoSnapshot = errors.New("no snapshot")

	// ErrCorruptSnapshot wraps a snapshot that exists but cannot be decoded.
	// Callers degrade to empty state; this is never fatal.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)

// Config configures storage.
//
// Driver values:
//   - "file": single-document JSON backend (default when empty)
//   - "sqlite": SQLite database file (optional build tag)
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default
}
