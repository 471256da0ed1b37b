package dispatch

// Config controls the dispatch service.
type Config struct {
	// RatePerSec caps outgoing sends across all subscribers (default 20;
	// Telegram's global bot limit is 30 messages/sec).
	RatePerSec int
}

func (c Config) withDefaults() Config {
	if c.RatePerSec <= 0 {
		c.RatePerSec = 20
	}
	return c
}

// Outcome is the terminal state of one offer.
type Outcome int

const (
	// Duplicate: the item was already within the topic's recency window.
	Duplicate Outcome = iota
	// NoSubscribers: the item is newly seen but nobody is subscribed.
	// It stays marked seen; delivery is at-most-once, not at-least-once.
	NoSubscribers
	// Delivered: every resolved subscriber got a send attempt.
	Delivered
)

func (o Outcome) String() string {
	switch o {
	case Duplicate:
		return "duplicate"
	case NoSubscribers:
		return "no_subscribers"
	case Delivered:
		return "delivered"
	default:
		return "unknown"
	}
}

// Sent reports whether the offer resulted in a fan-out.
func (o Outcome) Sent() bool { return o == Delivered }
