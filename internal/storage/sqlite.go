//go:build sqlite
// +build sqlite

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"subwatch/internal/registry"
	logx "subwatch/pkg/logx"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS subscriptions (
	subscriber TEXT NOT NULL,
	topic      TEXT NOT NULL,
	PRIMARY KEY (subscriber, topic)
);
CREATE TABLE IF NOT EXISTS seen_posts (
	topic   TEXT    NOT NULL,
	seq     INTEGER NOT NULL,
	post_id TEXT    NOT NULL,
	PRIMARY KEY (topic, seq)
);
`

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	path := cfg.Path
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		ms := cfg.BusyTimeout.Milliseconds()
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", ms))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &sqliteStore{db: db, log: log}, nil
}

func (s *sqliteStore) Load(ctx context.Context) (*registry.Snapshot, error) {
	snap := registry.EmptySnapshot()

	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT (SELECT COUNT(*) FROM subscriptions) + (SELECT COUNT(*) FROM seen_posts)`,
	).Scan(&n); err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, ErrNoSnapshot
	}

	rows, err := s.db.QueryContext(ctx, `SELECT subscriber, topic FROM subscriptions ORDER BY subscriber, topic`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var sub, topic string
		if err := rows.Scan(&sub, &topic); err != nil {
			_ = rows.Close()
			return nil, err
		}
		snap.Subscriptions[sub] = append(snap.Subscriptions[sub], topic)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, err
	}
	_ = rows.Close()

	rows, err = s.db.QueryContext(ctx, `SELECT topic, post_id FROM seen_posts ORDER BY topic, seq`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var topic, id string
		if err := rows.Scan(&topic, &id); err != nil {
			return nil, err
		}
		snap.SeenPosts[topic] = append(snap.SeenPosts[topic], id)
	}
	return snap, rows.Err()
}

// Save rewrites both tables in one transaction. The snapshot is small
// (bounded windows, low subscriber counts), so replace-all keeps the
// document semantics of the file driver without diff bookkeeping.
func (s *sqliteStore) Save(ctx context.Context, snap *registry.Snapshot) error {
	if snap == nil {
		snap = registry.EmptySnapshot()
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subscriptions`); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM seen_posts`); err != nil {
		return err
	}
	for sub, topics := range snap.Subscriptions {
		for _, t := range topics {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO subscriptions(subscriber, topic) VALUES(?, ?)`, sub, t); err != nil {
				return err
			}
		}
	}
	for topic, ids := range snap.SeenPosts {
		for i, id := range ids {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO seen_posts(topic, seq, post_id) VALUES(?, ?, ?)`, topic, i, id); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
