package transport

import "context"

// UnknownSubscriber is the sentinel a sender returns when a conversation
// cannot be mapped to a subscriber identity. The core never matches it.
const UnknownSubscriber = "unknown"

// Conversation is one reachable subscriber endpoint. Send returns a
// transport-specific message ID.
type Conversation struct {
	SubscriberID string
	Send         func(ctx context.Context, text string) (string, error)
}

// Sender resolves subscriber identities to live conversations for fan-out.
// Subscribers with no reachable conversation are silently absent from the
// result; delivery to them is skipped, not retried.
type Sender interface {
	ConversationsFor(ctx context.Context, subscribers []string) ([]Conversation, error)
}
