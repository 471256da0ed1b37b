package registry

import (
	"sort"
	"strings"
)

// NormalizeID lowercases and trims an opaque subscriber/topic identity.
// Every entry point goes through this so mixed-case IDs never persist.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}

// Subscriptions maps subscriber -> set of topics.
//
// A subscriber with zero topics is removed entirely; no empty-set entries
// survive a mutation.
type Subscriptions struct {
	subs map[string]map[string]struct{}
}

func NewSubscriptions() *Subscriptions {
	return &Subscriptions{subs: make(map[string]map[string]struct{})}
}

// Subscribe adds the relation and reports whether it was newly added.
func (r *Subscriptions) Subscribe(subscriber, topic string) bool {
	subscriber = NormalizeID(subscriber)
	topic = NormalizeID(topic)
	if subscriber == "" || topic == "" {
		return false
	}
	set, ok := r.subs[subscriber]
	if !ok {
		set = make(map[string]struct{})
		r.subs[subscriber] = set
	}
	if _, dup := set[topic]; dup {
		return false
	}
	set[topic] = struct{}{}
	return true
}

// Unsubscribe removes the relation and reports whether it existed.
func (r *Subscriptions) Unsubscribe(subscriber, topic string) bool {
	subscriber = NormalizeID(subscriber)
	topic = NormalizeID(topic)
	set, ok := r.subs[subscriber]
	if !ok {
		return false
	}
	if _, has := set[topic]; !has {
		return false
	}
	delete(set, topic)
	if len(set) == 0 {
		delete(r.subs, subscriber)
	}
	return true
}

// UnsubscribeAll drops every subscription of the subscriber and reports
// whether there was anything to drop.
func (r *Subscriptions) UnsubscribeAll(subscriber string) bool {
	subscriber = NormalizeID(subscriber)
	if _, ok := r.subs[subscriber]; !ok {
		return false
	}
	delete(r.subs, subscriber)
	return true
}

// TopicsOf returns the subscriber's topics sorted; empty for unknown subscribers.
func (r *Subscriptions) TopicsOf(subscriber string) []string {
	set := r.subs[NormalizeID(subscriber)]
	out := make([]string, 0, len(set))
	for t := range set {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AllTopics returns the union of every subscriber's topics, sorted.
func (r *Subscriptions) AllTopics() []string {
	seen := make(map[string]struct{})
	for _, set := range r.subs {
		for t := range set {
			seen[t] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// SubscribersOf returns every subscriber of topic, sorted. Sorting is
// stronger than the contract needs (stable within a call) but keeps fan-out
// order deterministic in logs and tests.
func (r *Subscriptions) SubscribersOf(topic string) []string {
	topic = NormalizeID(topic)
	var out []string
	for sub, set := range r.subs {
		if _, ok := set[topic]; ok {
			out = append(out, sub)
		}
	}
	sort.Strings(out)
	return out
}
