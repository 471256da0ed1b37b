package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"subwatch/internal/feed"
	"subwatch/internal/services/dispatch"
	logx "subwatch/pkg/logx"
)

// Config controls the poll loop.
type Config struct {
	Enabled    bool
	Schedule   string // cron spec or Go duration; default "@every 2m"
	FetchLimit int    // newest items per topic per cycle; default 25
}

func (c Config) withDefaults() Config {
	if c.Schedule == "" {
		c.Schedule = "@every 2m"
	}
	if c.FetchLimit <= 0 {
		c.FetchLimit = 25
	}
	return c
}

// Dispatcher is the slice of the dispatch service the poller needs.
type Dispatcher interface {
	AllTopics() []string
	Offer(ctx context.Context, topic string, item feed.Item) (dispatch.Outcome, error)
}

type Service struct {
	mu sync.Mutex

	cfg    Config
	log    logx.Logger
	source feed.Source
	disp   Dispatcher

	parser cron.Parser
	c      *cron.Cron

	runCtx    context.Context
	runCancel context.CancelFunc

	// running guards against overlapping cycles: a slow cycle makes the next
	// tick a no-op instead of stacking fetches.
	running atomic.Bool
}

func New(cfg Config, source feed.Source, disp Dispatcher, log logx.Logger) *Service {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		cfg:    cfg.withDefaults(),
		log:    log,
		source: source,
		disp:   disp,
		// SecondOptional allows both 5-field and 6-field (with seconds) cron specs.
		parser: cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor),
	}
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		s.log.Info("poller disabled")
		return nil
	}
	if s.c != nil {
		return nil
	}

	spec, err := ParseSchedule(s.cfg.Schedule)
	if err != nil {
		return err
	}

	s.runCtx, s.runCancel = context.WithCancel(ctx)
	runCtx := s.runCtx

	s.c = cron.New(cron.WithParser(s.parser))
	if _, err := s.c.AddFunc(spec, func() { s.runCycle(runCtx) }); err != nil {
		s.c = nil
		s.runCancel()
		return err
	}
	s.c.Start()
	s.log.Info("poller started",
		logx.String("schedule", spec),
		logx.Int("fetch_limit", s.cfg.FetchLimit))
	return nil
}

func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.c
	cancel := s.runCancel
	s.c = nil
	s.runCancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if c == nil {
		return nil
	}
	stopped := c.Stop()
	select {
	case <-stopped.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runCycle fetches every subscribed topic once and offers each item.
// A cycle may be cancelled between topics, never mid-item.
func (s *Service) runCycle(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Debug("previous poll cycle still running; skipping tick")
		return
	}
	defer s.running.Store(false)

	start := time.Now()
	topics := s.disp.AllTopics()
	if len(topics) == 0 {
		s.log.Debug("no subscribed topics; nothing to poll")
		return
	}

	var offered, delivered int
	for _, topic := range topics {
		if ctx.Err() != nil {
			return
		}
		items, err := s.source.FetchItems(ctx, topic, s.cfg.FetchLimit)
		if err != nil {
			// A failed topic yields zero items this cycle; the core never
			// sees fetch errors.
			s.log.Warn("fetch failed", logx.String("topic", topic), logx.Err(err))
			continue
		}

		// Listings arrive newest-first; offer oldest-first so the recency
		// window evicts in publish order.
		for i := len(items) - 1; i >= 0; i-- {
			out, err := s.disp.Offer(ctx, topic, items[i])
			if err != nil {
				s.log.Warn("offer persisted with error",
					logx.String("topic", topic), logx.Err(err))
			}
			offered++
			if out.Sent() {
				delivered++
			}
		}
	}

	s.log.Debug("poll cycle finished",
		logx.Int("topics", len(topics)),
		logx.Int("offered", offered),
		logx.Int("delivered", delivered),
		logx.Duration("dur", time.Since(start)))
}
