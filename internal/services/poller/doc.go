// Package poller drives the periodic fetch-and-offer cycle: on every tick it
// walks the set of subscribed topics, pulls the newest items per topic, and
// offers each item to the dispatch service (which handles dedup and fan-out).
package poller
