package telegram

import (
	"context"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"subwatch/internal/transport"
	logx "subwatch/pkg/logx"
)

// Registry is the slice of the dispatch service the command surface needs.
type Registry interface {
	Subscribe(ctx context.Context, subscriber, topic string) (bool, error)
	Unsubscribe(ctx context.Context, subscriber, topic string) (bool, error)
	UnsubscribeAll(ctx context.Context, subscriber string) (bool, error)
	Topics(subscriber string) []string
	AllTopics() []string
}

const helpText = `subwatch - subreddit notifier

/subscribe <subreddit> - get new posts from a subreddit
/unsubscribe <subreddit> - stop notifications for one subreddit
/unsubscribeall - stop all notifications
/subscriptions - list your subscriptions
/topics - list all subreddits anyone here watches`

const handlerTimeout = 10 * time.Second

func (a *Adapter) registerHandlers(reg Registry) {
	a.bot.Handle("/start", func(c tele.Context) error {
		return c.Send(helpText)
	})
	a.bot.Handle("/help", func(c tele.Context) error {
		return c.Send(helpText)
	})

	a.bot.Handle("/subscribe", func(c tele.Context) error {
		sub := subscriberID(c.Chat())
		topic, ok := topicArg(c)
		if !ok {
			return c.Send("Usage: /subscribe <subreddit>")
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		added, err := reg.Subscribe(ctx, sub, topic)
		a.logMutation("subscribe", sub, topic, err)
		if !added {
			return c.Send(fmt.Sprintf("You are already subscribed to r/%s.", topic))
		}
		return c.Send(fmt.Sprintf("Subscribed to r/%s. New posts will show up here.", topic))
	})

	a.bot.Handle("/unsubscribe", func(c tele.Context) error {
		sub := subscriberID(c.Chat())
		topic, ok := topicArg(c)
		if !ok {
			return c.Send("Usage: /unsubscribe <subreddit>")
		}
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		removed, err := reg.Unsubscribe(ctx, sub, topic)
		a.logMutation("unsubscribe", sub, topic, err)
		if !removed {
			return c.Send(fmt.Sprintf("You were not subscribed to r/%s.", topic))
		}
		return c.Send(fmt.Sprintf("Unsubscribed from r/%s.", topic))
	})

	a.bot.Handle("/unsubscribeall", func(c tele.Context) error {
		sub := subscriberID(c.Chat())
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()
		removed, err := reg.UnsubscribeAll(ctx, sub)
		a.logMutation("unsubscribe_all", sub, "", err)
		if !removed {
			return c.Send("You had no subscriptions.")
		}
		return c.Send("All subscriptions removed.")
	})

	a.bot.Handle("/subscriptions", func(c tele.Context) error {
		topics := reg.Topics(subscriberID(c.Chat()))
		if len(topics) == 0 {
			return c.Send("You have no subscriptions. Try /subscribe <subreddit>.")
		}
		return c.Send("Your subscriptions:\n" + formatTopicList(topics))
	})

	a.bot.Handle("/topics", func(c tele.Context) error {
		topics := reg.AllTopics()
		if len(topics) == 0 {
			return c.Send("Nobody is watching any subreddit yet.")
		}
		return c.Send("Watched subreddits:\n" + formatTopicList(topics))
	})
}

// logMutation reports persistence failures on mutating commands. The
// in-memory change sticks either way; the reply to the user stays positive.
func (a *Adapter) logMutation(action, sub, topic string, err error) {
	if err == nil {
		return
	}
	a.log.Warn("command applied but snapshot save failed",
		logx.String("action", action),
		logx.String("subscriber", sub),
		logx.String("topic", topic),
		logx.Err(err))
}

// topicArg extracts and sanitizes the subreddit argument. Accepts bare
// names, "r/name" and "/r/name"; rejects empties and names with spaces.
func topicArg(c tele.Context) (string, bool) {
	m := c.Message()
	if m == nil {
		return "", false
	}
	raw := strings.TrimSpace(m.Payload)
	raw = strings.TrimPrefix(raw, "/")
	raw = strings.TrimPrefix(raw, "r/")
	if raw == "" || strings.ContainsAny(raw, " \t") {
		return "", false
	}
	return raw, true
}

func formatTopicList(topics []string) string {
	var b strings.Builder
	for _, t := range topics {
		b.WriteString("- r/")
		b.WriteString(t)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var _ transport.Sender = (*Adapter)(nil)
