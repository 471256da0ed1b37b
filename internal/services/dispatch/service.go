package dispatch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"

	"subwatch/internal/feed"
	"subwatch/internal/registry"
	"subwatch/internal/storage"
	"subwatch/internal/transport"
	logx "subwatch/pkg/logx"
)

// Service owns the bot's state: the subscription registry, the per-topic
// dedup windows, and the save-on-mutation policy.
//
// The bot's command handlers and the poll loop both mutate through here, so
// one mutex guards the combined {registry, dedup, save} critical section:
// the snapshot is a single document covering both structures, and a save
// interleaved with a half-applied mutation would persist a torn view.
//
// A failed save is logged and returned but never rolls back memory; the next
// successful save rewrites the full snapshot, so transient write failures
// self-heal.
type Service struct {
	mu sync.Mutex

	log   logx.Logger
	subs  *registry.Subscriptions
	seen  *registry.DedupIndex
	store storage.Store

	sender  transport.Sender
	limiter *rate.Limiter
}

func New(cfg Config, subs *registry.Subscriptions, seen *registry.DedupIndex, store storage.Store, log logx.Logger) *Service {
	cfg = cfg.withDefaults()
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Service{
		log:     log,
		subs:    subs,
		seen:    seen,
		store:   store,
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.RatePerSec),
	}
}

// SetSender wires the transport after construction. The command surface and
// the fan-out share one adapter, so the adapter is built against this
// service and attached here.
func (s *Service) SetSender(sender transport.Sender) {
	s.mu.Lock()
	s.sender = sender
	s.mu.Unlock()
}

// Subscribe adds the relation and persists. changed=false means the
// subscription already existed (no save happens).
func (s *Service) Subscribe(ctx context.Context, subscriber, topic string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subs.Subscribe(subscriber, topic) {
		return false, nil
	}
	return true, s.saveLocked(ctx)
}

func (s *Service) Unsubscribe(ctx context.Context, subscriber, topic string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subs.Unsubscribe(subscriber, topic) {
		return false, nil
	}
	return true, s.saveLocked(ctx)
}

func (s *Service) UnsubscribeAll(ctx context.Context, subscriber string) (changed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.subs.UnsubscribeAll(subscriber) {
		return false, nil
	}
	return true, s.saveLocked(ctx)
}

func (s *Service) Topics(subscriber string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.TopicsOf(subscriber)
}

func (s *Service) AllTopics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subs.AllTopics()
}

func (s *Service) HasSeen(topic, itemID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seen.HasSeen(topic, itemID)
}

// Offer runs one item through the delivery state machine:
// duplicate -> drop; no subscribers -> mark seen, drop; otherwise fan out.
//
// The lock covers dedup + resolve + save only. Sends run outside it: the
// transport is independently slow I/O and must not stall command handling.
// Per-subscriber send failures are logged and isolated; they never unmark
// the item as seen.
func (s *Service) Offer(ctx context.Context, topic string, item feed.Item) (Outcome, error) {
	topic = registry.NormalizeID(topic)

	s.mu.Lock()
	if !s.seen.Offer(topic, item.ID) {
		s.mu.Unlock()
		return Duplicate, nil
	}
	saveErr := s.saveLocked(ctx)
	targets := s.subs.SubscribersOf(topic)
	sender := s.sender
	s.mu.Unlock()

	if len(targets) == 0 || sender == nil {
		s.log.Debug("no subscribers; item marked seen",
			logx.String("topic", topic), logx.String("item", item.ID))
		return NoSubscribers, saveErr
	}

	convs, err := sender.ConversationsFor(ctx, targets)
	if err != nil {
		s.log.Warn("conversation resolution failed",
			logx.String("topic", topic), logx.Err(err))
		return NoSubscribers, saveErr
	}

	text := formatItem(topic, item)
	sent, failed := 0, 0
	for _, conv := range convs {
		if err := s.limiter.Wait(ctx); err != nil {
			return Delivered, saveErr
		}
		if _, err := conv.Send(ctx, text); err != nil {
			failed++
			s.log.Warn("send failed",
				logx.String("topic", topic),
				logx.String("item", item.ID),
				logx.String("subscriber", conv.SubscriberID),
				logx.Err(err))
			continue
		}
		sent++
	}

	s.log.Info("item dispatched",
		logx.String("topic", topic),
		logx.String("item", item.ID),
		logx.Int("sent", sent),
		logx.Int("failed", failed))
	return Delivered, saveErr
}

// saveLocked persists the current snapshot. Callers hold s.mu.
func (s *Service) saveLocked(ctx context.Context) error {
	snap := &registry.Snapshot{
		Subscriptions: s.subs.Export(),
		SeenPosts:     s.seen.Export(),
	}
	if err := s.store.Save(ctx, snap); err != nil {
		s.log.Warn("snapshot save failed; memory state kept", logx.Err(err))
		return err
	}
	return nil
}
