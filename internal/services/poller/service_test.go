package poller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"subwatch/internal/feed"
	"subwatch/internal/services/dispatch"
	logx "subwatch/pkg/logx"
)

type fakeSource struct {
	mu      sync.Mutex
	items   map[string][]feed.Item
	failing map[string]bool
	fetches []string
}

func (f *fakeSource) FetchItems(ctx context.Context, topic string, limit int) ([]feed.Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches = append(f.fetches, topic)
	if f.failing[topic] {
		return nil, errors.New("fetch refused")
	}
	return f.items[topic], nil
}

type fakeDispatcher struct {
	mu      sync.Mutex
	topics  []string
	offered []string // "topic/id" in offer order
}

func (f *fakeDispatcher) AllTopics() []string { return f.topics }

func (f *fakeDispatcher) Offer(ctx context.Context, topic string, item feed.Item) (dispatch.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offered = append(f.offered, topic+"/"+item.ID)
	return dispatch.Delivered, nil
}

func TestRunCycleOffersOldestFirst(t *testing.T) {
	t.Parallel()
	src := &fakeSource{items: map[string][]feed.Item{
		// Newest-first, as the reddit listing arrives.
		"golang": {{ID: "t3_new"}, {ID: "t3_mid"}, {ID: "t3_old"}},
	}}
	disp := &fakeDispatcher{topics: []string{"golang"}}
	s := New(Config{Enabled: true}, src, disp, logx.Nop())

	s.runCycle(context.Background())

	want := []string{"golang/t3_old", "golang/t3_mid", "golang/t3_new"}
	if len(disp.offered) != len(want) {
		t.Fatalf("offered = %v, want %v", disp.offered, want)
	}
	for i := range want {
		if disp.offered[i] != want[i] {
			t.Fatalf("offered[%d] = %q, want %q", i, disp.offered[i], want[i])
		}
	}
}

func TestRunCycleFetchFailureSkipsTopicOnly(t *testing.T) {
	t.Parallel()
	src := &fakeSource{
		items:   map[string][]feed.Item{"rust": {{ID: "t3_r"}}},
		failing: map[string]bool{"golang": true},
	}
	disp := &fakeDispatcher{topics: []string{"golang", "rust"}}
	s := New(Config{Enabled: true}, src, disp, logx.Nop())

	s.runCycle(context.Background())

	if len(src.fetches) != 2 {
		t.Fatalf("fetches = %v, want both topics attempted", src.fetches)
	}
	if len(disp.offered) != 1 || disp.offered[0] != "rust/t3_r" {
		t.Fatalf("offered = %v, want [rust/t3_r]", disp.offered)
	}
}

func TestRunCycleNoTopics(t *testing.T) {
	t.Parallel()
	src := &fakeSource{}
	disp := &fakeDispatcher{}
	s := New(Config{Enabled: true}, src, disp, logx.Nop())

	s.runCycle(context.Background())
	if len(src.fetches) != 0 {
		t.Fatalf("fetches = %v, want none", src.fetches)
	}
}

func TestStartDisabled(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: false}, &fakeSource{}, &fakeDispatcher{}, logx.Nop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start disabled: %v", err)
	}
	if err := s.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestStartRejectsBadSchedule(t *testing.T) {
	t.Parallel()
	s := New(Config{Enabled: true, Schedule: "bogus"}, &fakeSource{}, &fakeDispatcher{}, logx.Nop())
	if err := s.Start(context.Background()); err == nil {
		t.Fatal("Start with invalid schedule succeeded")
	}
}
