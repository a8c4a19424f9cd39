// Package cache implements the TTL-gated state cache described in spec.md
// §4.7: a small map keyed by operation (and VFO, folded into the key string)
// holding the last-fetched value and when it was fetched.
//
// TTLCache carries no lock of its own. spec.md §5 places the cache under the
// controller's own mutex ("the cache is owned by the controller and guarded
// by the same lock"), so a second lock here would just be redundant
// bookkeeping around every call. Callers that aren't already serializing
// through some other lock must add their own.
package cache

import "time"

// Clock lets tests control the passage of time without sleeping.
type Clock func() time.Time

type entry struct {
	value any
	at    time.Time
}

// TTLCache holds the most recent value per key, gated by how long ago it was
// fetched.
type TTLCache struct {
	entries map[string]entry
	now     Clock
}

// New returns an empty cache using the real wall clock.
func New() *TTLCache {
	return &TTLCache{entries: make(map[string]entry), now: time.Now}
}

// NewWithClock returns an empty cache driven by clock, for tests that need
// to control elapsed time without sleeping.
func NewWithClock(clock Clock) *TTLCache {
	return &TTLCache{entries: make(map[string]entry), now: clock}
}

// Get returns the cached value for key if it was fetched within maxAge;
// otherwise it calls fetch, stores the result (on success), and returns
// that. A maxAge of zero always calls fetch.
func (c *TTLCache) Get(key string, maxAge time.Duration, fetch func() (any, error)) (any, error) {
	now := c.now()
	if maxAge > 0 {
		if e, ok := c.entries[key]; ok && now.Sub(e.at) <= maxAge {
			return e.value, nil
		}
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.entries[key] = entry{value: v, at: now}
	return v, nil
}

// Put stores value for key directly, without going through fetch. Used by
// mutating operations that already know the new state (e.g. a successful
// SetFrequency can seed GetFrequency's entry instead of forcing a reread).
func (c *TTLCache) Put(key string, value any) {
	c.entries[key] = entry{value: value, at: c.now()}
}

// Invalidate drops key, forcing the next Get to call fetch.
func (c *TTLCache) Invalidate(key string) {
	delete(c.entries, key)
}

// InvalidateAll drops every entry, used on disconnect/reconnect.
func (c *TTLCache) InvalidateAll() {
	c.entries = make(map[string]entry)
}

// Len reports the number of live entries, for tests and CacheStatistics.
func (c *TTLCache) Len() int {
	return len(c.entries)
}
