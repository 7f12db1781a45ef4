// Package cache implements the two-tier fact-check result cache: an
// in-process map in front of a namespaced persistent key/value store.
// The in-memory tier is authoritative for the current process; the
// persistent tier survives restarts and is trimmed by an oldest-first
// eviction policy.
package cache

import (
	"context"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/factlens/factlens/internal/telemetry"
	"github.com/factlens/factlens/internal/verdict"
)

// persistTimeout bounds the detached write to the persistent tier.
const persistTimeout = 5 * time.Second

// Entry is one cached fact-check result. Entries are immutable once
// written; a repeated Put for the same key replaces the entry wholesale.
type Entry struct {
	Key        string          `json:"key"`
	ResultText string          `json:"result_text"`
	Status     verdict.Verdict `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
}

// Store is the persistent tier consumed by the cache: a namespaced
// key/value store with list-all support. Implementations serialize their
// own writes; concurrent sets to the same key are last-write-wins.
type Store interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry) error
	Remove(ctx context.Context, keys ...string) error
	List(ctx context.Context) ([]Entry, error)
}

// Cache is the two-tier result cache. Safe for concurrent use.
type Cache struct {
	store  Store
	logger *log.Logger

	mu  sync.RWMutex
	mem map[string]Entry

	// persistWG lets tests wait for fire-and-forget writes.
	persistWG sync.WaitGroup
}

func New(store Store, logger *log.Logger) *Cache {
	if logger == nil {
		logger = log.New(log.Writer(), "[CACHE] ", log.LstdFlags)
	}
	return &Cache{store: store, logger: logger, mem: make(map[string]Entry)}
}

// Get returns the cached entry for key. The in-memory tier is checked
// first; a persistent hit is promoted into memory before returning.
func (c *Cache) Get(ctx context.Context, key string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.mem[key]
	c.mu.RUnlock()
	if ok {
		telemetry.CacheLookupsTotal.WithLabelValues("memory_hit").Inc()
		return e, true
	}

	e, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Printf("persistent lookup for %q failed: %v", key, err)
		telemetry.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Entry{}, false
	}
	if !ok {
		telemetry.CacheLookupsTotal.WithLabelValues("miss").Inc()
		return Entry{}, false
	}

	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()
	telemetry.CacheLookupsTotal.WithLabelValues("store_hit").Inc()
	return e, true
}

// Put writes the entry to the in-memory tier synchronously and to the
// persistent tier in the background. A persistent-store failure is logged,
// never surfaced: the in-memory tier stays authoritative for this process,
// so Get(key) immediately after Put(key) always sees the write.
func (c *Cache) Put(ctx context.Context, key, resultText string, status verdict.Verdict) Entry {
	e := Entry{
		Key:        key,
		ResultText: resultText,
		Status:     status,
		CreatedAt:  time.Now().UTC(),
	}

	c.mu.Lock()
	c.mem[key] = e
	c.mu.Unlock()

	c.persistWG.Add(1)
	go func() {
		defer c.persistWG.Done()
		// Detached from the caller's context: the result is already
		// computed and returned, persistence is best effort.
		pctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := c.store.Set(pctx, key, e); err != nil {
			c.logger.Printf("persist of %q failed: %v", key, err)
		}
	}()
	return e
}

// EvictOldest trims the persistent tier to maxEntries, removing the
// entries with the smallest CreatedAt first, ties broken by key order.
// Eviction decisions may be slightly stale relative to concurrent Puts;
// the cap is a soft bound, not a correctness invariant. Returns the number
// of entries removed.
func (c *Cache) EvictOldest(ctx context.Context, maxEntries int) (int, error) {
	if maxEntries <= 0 {
		return 0, nil
	}
	entries, err := c.store.List(ctx)
	if err != nil {
		return 0, err
	}
	if len(entries) <= maxEntries {
		return 0, nil
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].CreatedAt.Equal(entries[j].CreatedAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})

	victims := entries[:len(entries)-maxEntries]
	keys := make([]string, len(victims))
	for i, e := range victims {
		keys[i] = e.Key
	}
	if err := c.store.Remove(ctx, keys...); err != nil {
		return 0, err
	}

	c.mu.Lock()
	for _, k := range keys {
		delete(c.mem, k)
	}
	c.mu.Unlock()

	telemetry.CacheEvictionsTotal.Add(float64(len(keys)))
	c.logger.Printf("evicted %d oldest entries (cap %d)", len(keys), maxEntries)
	return len(keys), nil
}

// Clear empties the in-memory tier and removes every persisted entry in
// the cache's namespace.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	c.mem = make(map[string]Entry)
	c.mu.Unlock()

	entries, err := c.store.List(ctx)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	keys := make([]string, len(entries))
	for i, e := range entries {
		keys[i] = e.Key
	}
	return c.store.Remove(ctx, keys...)
}

// Wait blocks until pending background persists have finished. Intended
// for tests and orderly shutdown.
func (c *Cache) Wait() { c.persistWG.Wait() }
