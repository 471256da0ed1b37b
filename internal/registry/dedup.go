package registry

// Window capacities. Freshly-tracked topics keep a small window; windows
// restored from a snapshot get a much larger one, since previously-active
// topics carry real history. DefaultWindowCapacity is the generic fallback
// for callers that have no opinion.
const (
	DefaultWindowCapacity  = 100
	FreshWindowCapacity    = 50
	RestoredWindowCapacity = 1000
)

// DedupIndex keeps one bounded recency window of delivered post IDs per topic.
type DedupIndex struct {
	windows map[string]*RecencySet[string]

	// freshCapacity is the window size for topics first seen at delivery time.
	freshCapacity int
}

func NewDedupIndex() *DedupIndex {
	return &DedupIndex{
		windows:       make(map[string]*RecencySet[string]),
		freshCapacity: FreshWindowCapacity,
	}
}

// Offer records itemID as delivered for topic and reports whether it was new.
// A false return means the item is a duplicate within the topic's window.
func (d *DedupIndex) Offer(topic, itemID string) bool {
	topic = NormalizeID(topic)
	if topic == "" || itemID == "" {
		return false
	}
	w, ok := d.windows[topic]
	if !ok {
		w = NewRecencySet[string](d.freshCapacity)
		d.windows[topic] = w
	}
	return w.Add(itemID)
}

// HasSeen is a pure lookup with no side effects.
func (d *DedupIndex) HasSeen(topic, itemID string) bool {
	w, ok := d.windows[NormalizeID(topic)]
	return ok && w.Has(itemID)
}
