// Package registry holds the bot's durable in-memory state: who is
// subscribed to which subreddit, and which post IDs have already been
// delivered per subreddit.
//
// The types here are pure data structures. They do no locking and no I/O;
// the dispatch service owns the mutex and the save-on-mutation policy so
// that subscriptions and seen-post windows always persist as one document.
package registry
