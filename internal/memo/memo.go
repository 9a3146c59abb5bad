// Package memo memoizes analytics results keyed by a caller string and the
// content fingerprint of the input dataset, with time-based expiry.
package memo

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sync/atomic"
	"time"

	"github.com/coocood/freecache"
)

const megabyte = 1024 * 1024

// Cache stores JSON-encoded results in a freecache arena. A nil *Cache is
// valid and never caches.
type Cache struct {
	fc     *freecache.Cache
	ttl    time.Duration
	log    *slog.Logger
	hits   atomic.Int64
	misses atomic.Int64
}

// Stats is a point-in-time view of cache usage.
type Stats struct {
	Entries int64 `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

// New creates a cache of sizeMB megabytes whose entries live for ttl by default,
// with the whole-second resolution described on WithTTL. A ttl of zero or less
// means entries never expire.
func New(sizeMB int, ttl time.Duration, logger *slog.Logger) *Cache {
	return newCache(sizeMB, ttl, nil, logger)
}

func newCache(sizeMB int, ttl time.Duration, timer freecache.Timer, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	size := max(sizeMB, 1) * megabyte
	c := &Cache{ttl: ttl, log: logger}
	if timer != nil {
		c.fc = freecache.NewCacheCustomTimer(size, timer)
	} else {
		c.fc = freecache.NewCache(size)
	}
	return c
}

type options struct {
	ttl time.Duration
}

// Option adjusts a single GetOrCompute call.
type Option func(*options)

// WithTTL overrides the cache's default time-to-live for one entry. Expiry is
// tracked in whole seconds: ttl is rounded up, and an entry stored late in a
// second may expire up to a second early or live up to a second past ttl.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) { o.ttl = ttl }
}

type envelope struct {
	Ref   Fingerprint     `json:"ref"`
	Value json.RawMessage `json:"value"`
}

// GetOrCompute returns the cached value for key when it was computed from the
// same ref and has not expired; otherwise it calls compute, stores and returns
// the result. A value that cannot be encoded, or is too large for the arena, is
// returned uncached.
func GetOrCompute[T any](c *Cache, key string, ref Fingerprint, compute func() T, opts ...Option) T {
	if c == nil {
		return compute()
	}
	o := options{ttl: c.ttl}
	for _, opt := range opts {
		opt(&o)
	}

	if v, ok := lookup[T](c, key, ref); ok {
		c.hits.Add(1)
		return v
	}
	c.misses.Add(1)

	v := compute()
	c.store(key, ref, v, o.ttl)
	return v
}

func lookup[T any](c *Cache, key string, ref Fingerprint) (T, bool) {
	var v T
	raw, err := c.fc.Get([]byte(key))
	if err != nil {
		return v, false
	}
	var e envelope
	if err := json.Unmarshal(raw, &e); err != nil {
		c.log.Warn("discarding unreadable cache entry", "key", key, "error", err)
		c.fc.Del([]byte(key))
		return v, false
	}
	if e.Ref != ref {
		return v, false
	}
	if err := json.Unmarshal(e.Value, &v); err != nil {
		c.log.Warn("discarding cache entry of unexpected type", "key", key, "error", err)
		c.fc.Del([]byte(key))
		return v, false
	}
	return v, true
}

func (c *Cache) store(key string, ref Fingerprint, v any, ttl time.Duration) {
	value, err := json.Marshal(v)
	if err != nil {
		c.log.Warn("cache value not encodable", "key", key, "error", err)
		return
	}
	data, err := json.Marshal(envelope{Ref: ref, Value: value})
	if err != nil {
		c.log.Warn("cache entry not encodable", "key", key, "error", err)
		return
	}
	if err := c.fc.Set([]byte(key), data, expireSeconds(ttl)); err != nil {
		if errors.Is(err, freecache.ErrLargeEntry) || errors.Is(err, freecache.ErrLargeKey) {
			c.log.Debug("cache entry too large", "key", key, "bytes", len(data))
			return
		}
		c.log.Warn("writing cache entry", "key", key, "error", err)
	}
}

// expireSeconds rounds ttl up to whole seconds; freecache treats 0 as no expiry.
func expireSeconds(ttl time.Duration) int {
	if ttl <= 0 {
		return 0
	}
	return int(math.Ceil(ttl.Seconds()))
}

// Clear drops every entry.
func (c *Cache) Clear() {
	if c == nil {
		return
	}
	c.fc.Clear()
	c.log.Debug("analytics cache cleared")
}

// Stats reports entry count and lookup outcomes since creation.
func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{
		Entries: c.fc.EntryCount(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
	}
}
