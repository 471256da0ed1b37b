package storage

import (
	"context"
	"errors"
	"strings"

	"subwatch/internal/registry"
	logx "subwatch/pkg/logx"
)

// Store is the snapshot persistence API used by the dispatch service.
//
// Save rewrites the whole document; Load is called once at startup.
type Store interface {
	Load(ctx context.Context) (*registry.Snapshot, error)
	Save(ctx context.Context, snap *registry.Snapshot) error
	Close() error
}

// Open initializes the configured store. An empty driver selects "file".
func Open(cfg Config, log logx.Logger) (Store, error) {
	if log.IsZero() {
		log = logx.Nop()
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	switch driver {
	case "", "file":
		return openFile(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	default:
		return nil, errors.New("unknown storage driver: " + driver)
	}
}
