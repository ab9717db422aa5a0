// Package usage counts generation calls and tokens for the running process.
package usage

import (
	"context"
	"sync"

	"digitaldemocracy/internal/logging"
)

type contextKey struct{}

// Tracker aggregates generation usage in memory. A nil *Tracker ignores Track.
type Tracker struct {
	mu     sync.Mutex
	events []Event
	stats  Stats
	limit  int // max events kept; aggregates keep counting past it
}

// DefaultEventLimit bounds the retained event history.
const DefaultEventLimit = 256

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{
		limit: DefaultEventLimit,
		stats: Stats{
			ByProvider:  make(map[string]Counts),
			ByModel:     make(map[string]Counts),
			ByOperation: make(map[string]Counts),
		},
	}
}

// Track records one call.
func (t *Tracker) Track(e Event) {
	if t == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stats.Total.Add(e)
	addToMap(t.stats.ByProvider, e.Provider, e)
	addToMap(t.stats.ByModel, e.Model, e)
	addToMap(t.stats.ByOperation, e.Operation, e)

	t.events = append(t.events, e)
	if len(t.events) > t.limit {
		t.events = t.events[len(t.events)-t.limit:]
	}
	logging.APIDebug("usage: %s/%s op=%s in=%d out=%d failed=%v",
		e.Provider, e.Model, e.Operation, e.InputTokens, e.OutputTokens, e.Failed)
}

// Stats returns a copy of the aggregated stats.
func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	stats := t.stats
	stats.ByProvider = copyCountsMap(stats.ByProvider)
	stats.ByModel = copyCountsMap(stats.ByModel)
	stats.ByOperation = copyCountsMap(stats.ByOperation)
	return stats
}

// Events returns the retained events, oldest first.
func (t *Tracker) Events() []Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Event(nil), t.events...)
}

func copyCountsMap(src map[string]Counts) map[string]Counts {
	if src == nil {
		return nil
	}
	dst := make(map[string]Counts, len(src))
	for key, counts := range src {
		dst[key] = counts
	}
	return dst
}

func addToMap(m map[string]Counts, key string, e Event) {
	if key == "" {
		key = "unknown"
	}
	entry := m[key]
	entry.Add(e)
	m[key] = entry
}

// Context Helpers

// NewContext returns a new context carrying the tracker.
func NewContext(ctx context.Context, t *Tracker) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the tracker from the context.
func FromContext(ctx context.Context) *Tracker {
	val := ctx.Value(contextKey{})
	if val == nil {
		return nil
	}
	return val.(*Tracker)
}
