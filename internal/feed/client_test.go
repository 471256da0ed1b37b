package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logx "subwatch/pkg/logx"
)

const listingBody = `{
  "data": {
    "children": [
      {"data": {"name": "t3_b", "title": "second", "author": "bob",
                "permalink": "/r/golang/comments/b/", "created_utc": 1700000100}},
      {"data": {"name": "t3_a", "title": "first", "author": "alice",
                "permalink": "/r/golang/comments/a/", "created_utc": 1700000000}}
    ]
  }
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:    srv.URL,
		RatePerSec: 1000,
		RetryMax:   1,
	}, logx.Nop())
}

func TestFetchItemsDecodesListing(t *testing.T) {
	t.Parallel()
	var gotPath, gotUA string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotUA = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(listingBody))
	})

	items, err := c.FetchItems(context.Background(), "GoLang", 25)
	if err != nil {
		t.Fatalf("FetchItems: %v", err)
	}
	if gotPath != "/r/golang/new.json" {
		t.Fatalf("path = %q, want /r/golang/new.json", gotPath)
	}
	if gotUA == "" {
		t.Fatal("no User-Agent sent")
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
	// Listing order preserved (newest first, as reddit returns it).
	if items[0].ID != "t3_b" || items[1].ID != "t3_a" {
		t.Fatalf("unexpected order: %v, %v", items[0].ID, items[1].ID)
	}
	if items[1].Author != "alice" || items[1].Title != "first" {
		t.Fatalf("unexpected item: %+v", items[1])
	}
	if want := time.Unix(1700000000, 0).UTC(); !items[1].PublishedAt.Equal(want) {
		t.Fatalf("PublishedAt = %v, want %v", items[1].PublishedAt, want)
	}
	if items[0].Link == "" {
		t.Fatal("empty link")
	}
}

func TestFetchItemsRetriesServerErrors(t *testing.T) {
	t.Parallel()
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(listingBody))
	})

	items, err := c.FetchItems(context.Background(), "golang", 25)
	if err != nil {
		t.Fatalf("FetchItems after retry: %v", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
	if len(items) != 2 {
		t.Fatalf("items = %d, want 2", len(items))
	}
}

func TestFetchItemsPermanentOnClientError(t *testing.T) {
	t.Parallel()
	var calls int
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusNotFound)
	})

	if _, err := c.FetchItems(context.Background(), "nosuchsub", 25); err == nil {
		t.Fatal("expected error for 404")
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1 (no retry on 4xx)", calls)
	}
}

func TestFetchItemsMalformedBody(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})
	if _, err := c.FetchItems(context.Background(), "golang", 25); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestFetchItemsEmptyTopic(t *testing.T) {
	t.Parallel()
	c := NewClient(Config{}, logx.Nop())
	if _, err := c.FetchItems(context.Background(), "  ", 25); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestFetchItemsSkipsEntriesWithoutID(t *testing.T) {
	t.Parallel()
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"children":[{"data":{"title":"no name"}}]}}`))
	})
	items, err := c.FetchItems(context.Background(), "golang", 25)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Fatalf("items = %d, want 0", len(items))
	}
}
