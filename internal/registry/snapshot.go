package registry

import "sort"

// Snapshot is the sole durable representation of the bot's state, one JSON
// document covering both structures:
//
//	{ "subscriptions": { "<subscriber>": ["<topic>", ...] },
//	  "seenPosts":     { "<topic>": ["<post id>", ...] } }
//
// Seen-post sequences are oldest-first, matching RecencySet.Items().
type Snapshot struct {
	Subscriptions map[string][]string `json:"subscriptions"`
	SeenPosts     map[string][]string `json:"seenPosts"`
}

func EmptySnapshot() *Snapshot {
	return &Snapshot{
		Subscriptions: map[string][]string{},
		SeenPosts:     map[string][]string{},
	}
}

// Export serializes the current subscriptions, topics sorted per subscriber.
func (r *Subscriptions) Export() map[string][]string {
	out := make(map[string][]string, len(r.subs))
	for sub, set := range r.subs {
		topics := make([]string, 0, len(set))
		for t := range set {
			topics = append(topics, t)
		}
		sort.Strings(topics)
		out[sub] = topics
	}
	return out
}

// RestoreSubscriptions rebuilds the registry from a snapshot mapping,
// normalizing every ID on the way in. Empty topic lists are dropped.
func RestoreSubscriptions(snap map[string][]string) *Subscriptions {
	r := NewSubscriptions()
	for sub, topics := range snap {
		for _, t := range topics {
			r.Subscribe(sub, t)
		}
	}
	return r
}

// Export serializes every topic window oldest-first.
func (d *DedupIndex) Export() map[string][]string {
	out := make(map[string][]string, len(d.windows))
	for topic, w := range d.windows {
		out[topic] = w.Items()
	}
	return out
}

// RestoreDedupIndex rebuilds the index from a snapshot mapping. Restored
// windows use RestoredWindowCapacity; replay keeps the newest entries if a
// persisted sequence is somehow longer than that.
func RestoreDedupIndex(snap map[string][]string) *DedupIndex {
	d := NewDedupIndex()
	for topic, items := range snap {
		topic = NormalizeID(topic)
		if topic == "" {
			continue
		}
		d.windows[topic] = RestoreRecencySet(items, RestoredWindowCapacity)
	}
	return d
}
