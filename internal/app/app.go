package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/coreos/go-systemd/v22/daemon"

	"subwatch/internal/config"
	"subwatch/internal/feed"
	"subwatch/internal/registry"
	"subwatch/internal/services/dispatch"
	"subwatch/internal/services/poller"
	"subwatch/internal/storage"
	"subwatch/internal/transport/telegram"
	logx "subwatch/pkg/logx"
)

// App wires config -> logging -> storage -> state -> transports and owns
// their lifecycles.
type App struct {
	cfgMgr *config.Manager
	logSvc *logx.Service
	log    logx.Logger

	store storage.Store
	disp  *dispatch.Service
	poll  *poller.Service
	tg    *telegram.Adapter

	watchCancel context.CancelFunc
}

func New(cfgPath string) (*App, error) {
	mgr := config.NewManager(cfgPath)
	cfg, err := mgr.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logSvc, log := logx.New(logx.Config{
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.ConsoleEnabled(),
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	})
	mgr.SetLogger(log.With(logx.String("comp", "config")))
	mgr.SetValidator(func(ctx context.Context, cfg *config.Config) error {
		return config.Validate(cfg)
	})

	a := &App{cfgMgr: mgr, logSvc: logSvc, log: log}
	if err := a.build(cfg); err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(cfg *config.Config) error {
	busyTimeout, err := config.ParseDurationField("storage.busy_timeout", cfg.Storage.BusyTimeout)
	if err != nil {
		return err
	}
	store, err := storage.Open(storage.Config{
		Driver:      cfg.Storage.Driver,
		Path:        cfg.Storage.Path,
		BusyTimeout: busyTimeout,
	}, a.log.With(logx.String("comp", "storage")))
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	a.store = store

	subs, seen := a.restoreState(context.Background())

	a.disp = dispatch.New(
		dispatch.Config{RatePerSec: cfg.Dispatch.RatePerSec},
		subs, seen, store,
		a.log.With(logx.String("comp", "dispatch")),
	)

	pollTimeout, err := config.ParseDurationField("telegram.poll_timeout", cfg.Telegram.PollTimeout)
	if err != nil {
		return err
	}
	tg, err := telegram.New(telegram.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: pollTimeout,
	}, a.disp, a.log.With(logx.String("comp", "telegram")))
	if err != nil {
		return fmt.Errorf("telegram adapter: %w", err)
	}
	a.tg = tg
	a.disp.SetSender(tg)

	redditTimeout, err := config.ParseDurationField("reddit.timeout", cfg.Reddit.Timeout)
	if err != nil {
		return err
	}
	source := feed.NewClient(feed.Config{
		BaseURL:    cfg.Reddit.BaseURL,
		UserAgent:  cfg.Reddit.UserAgent,
		Timeout:    redditTimeout,
		RatePerSec: cfg.Reddit.RatePerSec,
		RetryMax:   cfg.Reddit.RetryMax,
	}, a.log.With(logx.String("comp", "feed")))

	a.poll = poller.New(poller.Config{
		Enabled:    cfg.Poller.IsEnabled(),
		Schedule:   cfg.Poller.Schedule,
		FetchLimit: cfg.Poller.FetchLimit,
	}, source, a.disp, a.log.With(logx.String("comp", "poller")))

	return nil
}

// restoreState loads the snapshot once. Missing snapshot: start empty and
// write an empty document. Corrupt snapshot: log and start empty; the next
// mutation rewrites it. Neither case is fatal.
func (a *App) restoreState(ctx context.Context) (*registry.Subscriptions, *registry.DedupIndex) {
	snap, err := a.store.Load(ctx)
	switch {
	case err == nil:
		subs := registry.RestoreSubscriptions(snap.Subscriptions)
		seen := registry.RestoreDedupIndex(snap.SeenPosts)
		a.log.Info("snapshot restored",
			logx.Int("subscribers", len(snap.Subscriptions)),
			logx.Int("topics_with_history", len(snap.SeenPosts)))
		return subs, seen
	case errors.Is(err, storage.ErrNoSnapshot):
		a.log.Info("no snapshot found; starting empty")
		if err := a.store.Save(ctx, registry.EmptySnapshot()); err != nil {
			a.log.Warn("initial empty snapshot write failed", logx.Err(err))
		}
	default:
		a.log.Warn("snapshot load failed; starting empty", logx.Err(err))
	}
	return registry.NewSubscriptions(), registry.NewDedupIndex()
}

func (a *App) Start(ctx context.Context) error {
	if err := a.tg.Start(ctx); err != nil {
		return err
	}
	if err := a.poll.Start(ctx); err != nil {
		_ = a.tg.Stop(context.Background())
		return err
	}

	// Config hot reload: re-apply logging on change. Poll/transport settings
	// take effect on restart.
	wctx, cancel := context.WithCancel(ctx)
	a.watchCancel = cancel
	updates := a.cfgMgr.Subscribe(1)
	go func() { _ = a.cfgMgr.Watch(wctx) }()
	go func() {
		for {
			select {
			case <-wctx.Done():
				return
			case cfg, ok := <-updates:
				if !ok || cfg == nil {
					return
				}
				a.logSvc.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.ConsoleEnabled(),
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
				a.log.Info("logging config applied")
			}
		}
	}()

	// No-op outside systemd.
	_, _ = daemon.SdNotify(false, daemon.SdNotifyReady)
	a.log.Info("started")
	return nil
}

func (a *App) Stop(ctx context.Context) error {
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.poll != nil {
		_ = a.poll.Stop(ctx)
	}
	if a.tg != nil {
		_ = a.tg.Stop(ctx)
	}
	// No final flush needed: every mutation saved synchronously.
	if a.store != nil {
		_ = a.store.Close()
	}
	a.log.Info("stopped")
	if a.logSvc != nil {
		_ = a.logSvc.Close()
	}
	return nil
}
