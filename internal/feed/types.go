package feed

import (
	"context"
	"time"
)

// Item is one feed entry, newest-post metadata only.
type Item struct {
	ID          string // reddit fullname, e.g. "t3_abc123"
	Title       string
	Author      string
	Link        string
	PublishedAt time.Time
}

// Source fetches the newest items for a topic. Implementations should treat
// failures as transient: the poll loop logs an error and moves on, and the
// core never sees fetch errors (a failed topic just yields zero items this
// cycle).
type Source interface {
	FetchItems(ctx context.Context, topic string, limit int) ([]Item, error)
}
