package storage

// Package storage persists the bot's snapshot (subscriptions + seen posts).
//
// It currently supports:
//   - "file": single JSON document, written atomically (default)
//   - "sqlite": SQLite database file (optional build tag)
