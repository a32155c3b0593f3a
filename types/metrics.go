package types

// This file defines how the cache reports what it is doing.

/*
Metrics is an interface that defines what the cache wants to measure.
Each method represents an event in the cache lifecycle and carries the namespace
(feed, ticker, context) so hit ratios can be told apart per cache.
*/
type Metrics interface {

	// Hit is called when the cache returns a valid value.
	Hit(namespace string)

	// Miss is called when the key is absent or stale.
	Miss(namespace string)

	// Expire is called when a stale entry is evicted on read.
	Expire(namespace string)

	// Invalidate is called when an entry is removed explicitly.
	Invalidate(namespace string)
}

/*
NoopMetrics is a "do nothing" implementation of Metrics.

Callers that do not care about metrics still get a working cache
without nil checks sprinkled everywhere.
*/
type NoopMetrics struct{}

func (NoopMetrics) Hit(string)        {}
func (NoopMetrics) Miss(string)       {}
func (NoopMetrics) Expire(string)     {}
func (NoopMetrics) Invalidate(string) {}
