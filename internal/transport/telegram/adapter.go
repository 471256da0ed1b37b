package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	tele "gopkg.in/telebot.v4"

	"subwatch/internal/registry"
	"subwatch/internal/transport"
	logx "subwatch/pkg/logx"
)

type Config struct {
	Token       string
	PollTimeout time.Duration
}

// Adapter wraps telebot: it long-polls for subscription commands and
// implements transport.Sender for the dispatch fan-out.
type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot

	runMu   sync.Mutex
	running bool
	done    chan struct{}
}

func New(cfg Config, reg Registry, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	timeout := cfg.PollTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	b, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	a := &Adapter{cfg: cfg, log: log, bot: b}
	a.registerHandlers(reg)
	return a, nil
}

func (a *Adapter) Start(ctx context.Context) error {
	a.runMu.Lock()
	if a.running {
		a.runMu.Unlock()
		return nil
	}
	a.running = true
	a.done = make(chan struct{})
	done := a.done
	a.runMu.Unlock()

	// Stop telebot when the app context is cancelled.
	go func() {
		<-ctx.Done()
		a.bot.Stop()
	}()

	// Start blocks until Stop() is called; run it on its own goroutine.
	go func() {
		defer close(done)
		a.log.Info("polling started")
		a.bot.Start()
		a.log.Info("polling stopped")
	}()

	return nil
}

func (a *Adapter) Stop(ctx context.Context) error {
	a.runMu.Lock()
	wasRunning := a.running
	a.running = false
	done := a.done
	a.runMu.Unlock()

	if !wasRunning {
		return nil
	}

	// telebot Stop is expected to be fast; run it async just in case.
	go a.bot.Stop()

	// Grace window: keep shutdown snappy even if getUpdates is mid long-poll.
	grace := 2 * time.Second
	if dl, ok := ctx.Deadline(); ok {
		if rem := time.Until(dl); rem > 0 && rem < grace {
			grace = rem
		}
	}
	t := time.NewTimer(grace)
	defer t.Stop()
	select {
	case <-done:
	case <-t.C:
		a.log.Warn("telegram stop timed out")
	case <-ctx.Done():
	}
	return nil
}

// ConversationsFor maps subscriber identities (decimal chat IDs) to send
// closures. Identities that do not parse as chat IDs are unmatchable and
// silently skipped, the transport-level "unknown subscriber" case.
func (a *Adapter) ConversationsFor(ctx context.Context, subscribers []string) ([]transport.Conversation, error) {
	_ = ctx
	out := make([]transport.Conversation, 0, len(subscribers))
	for _, sub := range subscribers {
		chatID, err := strconv.ParseInt(strings.TrimSpace(sub), 10, 64)
		if err != nil {
			a.log.Debug("unmatchable subscriber identity", logx.String("subscriber", sub))
			continue
		}
		out = append(out, transport.Conversation{
			SubscriberID: sub,
			Send:         a.sendFunc(chatID),
		})
	}
	return out, nil
}

func (a *Adapter) sendFunc(chatID int64) func(ctx context.Context, text string) (string, error) {
	return func(ctx context.Context, text string) (string, error) {
		// telebot sends have no context plumbing; honor cancellation up front.
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chat := &tele.Chat{ID: chatID}
		msg, err := a.bot.Send(chat, text, &tele.SendOptions{
			DisableWebPagePreview: true,
		})
		if err != nil {
			return "", err
		}
		return strconv.Itoa(msg.ID), nil
	}
}

// subscriberID resolves a chat to the opaque subscriber identity the core
// tracks. Best-effort: a nil chat maps to the unmatchable sentinel.
func subscriberID(chat *tele.Chat) string {
	if chat == nil {
		return transport.UnknownSubscriber
	}
	return registry.NormalizeID(strconv.FormatInt(chat.ID, 10))
}
