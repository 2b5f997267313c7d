// Package cache holds parsed documents, tables of contents and graphs for a
// bounded time.
package cache

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/singleflight"

	"github.com/hpungsan/ldspec/internal/htmldoc"
	"github.com/hpungsan/ldspec/internal/rdfgraph"
	"github.com/hpungsan/ldspec/internal/toc"
)

// DefaultTTL is used when a Cache is created with a non-positive TTL.
const DefaultTTL = 24 * time.Hour

// Kind tags the artifact stored under a key.
type Kind string

const (
	KindDocument Kind = "doc"
	KindTOC      Kind = "toc"
	KindGraph    Kind = "graph"
)

// Artifact is a cached value. Exactly one field matching Kind is set.
type Artifact struct {
	Kind     Kind
	Document *htmldoc.Document
	TOC      []toc.Entry
	Graph    *rdfgraph.Graph
}

func DocumentArtifact(doc *htmldoc.Document) Artifact {
	return Artifact{Kind: KindDocument, Document: doc}
}

func TOCArtifact(entries []toc.Entry) Artifact {
	return Artifact{Kind: KindTOC, TOC: entries}
}

func GraphArtifact(g *rdfgraph.Graph) Artifact {
	return Artifact{Kind: KindGraph, Graph: g}
}

// Key builds the cache key for an artifact of kind derived from identity.
func Key(kind Kind, identity string) string {
	return string(kind) + ":" + identity
}

type entry struct {
	value    Artifact
	storedAt time.Time
}

// Metrics counts cache activity.
type Metrics struct {
	Hits      prometheus.Counter
	Misses    prometheus.Counter
	Evictions prometheus.Counter
}

// NewMetrics creates the cache counters and registers them on reg when reg
// is non-nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ldspec_cache_hits_total",
			Help: "Cache lookups served from memory.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ldspec_cache_misses_total",
			Help: "Cache lookups that required a load.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ldspec_cache_evictions_total",
			Help: "Entries dropped after their TTL elapsed.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Hits, m.Misses, m.Evictions)
	}
	return m
}

// Cache maps keys to artifacts with a fixed TTL. Expired entries are removed
// when they are next read. Safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time
	group   singleflight.Group
	metrics *Metrics
	// gen advances on every Clear so in-flight loads started before it are
	// not stored.
	gen uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithMetrics records hits, misses and evictions on m.
func WithMetrics(m *Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New creates a Cache. A non-positive ttl selects DefaultTTL.
func New(ttl time.Duration, opts ...Option) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = NewMetrics(nil)
	}
	return c
}

// TTL returns the entry lifetime.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Get returns the artifact for key if present and fresh.
func (c *Cache) Get(key string) (Artifact, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Artifact{}, false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		delete(c.entries, key)
		c.metrics.Evictions.Inc()
		return Artifact{}, false
	}
	return e.value, true
}

// Set stores value under key, replacing any previous entry.
func (c *Cache) Set(key string, value Artifact) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{value: value, storedAt: c.now()}
}

// Clear removes every entry. Loads already running when Clear is called
// still return their result but do not store it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
	c.gen++
}

// Len returns the number of stored entries, including expired ones not yet
// evicted.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *Cache) generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// setIfGeneration stores value only when no Clear happened since gen was read.
func (c *Cache) setIfGeneration(key string, value Artifact, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.entries[key] = entry{value: value, storedAt: c.now()}
	}
}

// GetOrLoad returns the cached artifact for key or runs load to produce it.
// Concurrent misses for one key share a single load. Failed loads are not
// cached.
//
// load receives a context detached from ctx's cancellation, so one caller
// giving up does not fail the others waiting on the same key. A caller whose
// ctx ends first returns ctx.Err() while the load carries on for the rest.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (Artifact, error)) (Artifact, error) {
	if v, ok := c.Get(key); ok {
		c.metrics.Hits.Inc()
		return v, nil
	}
	c.metrics.Misses.Inc()

	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		gen := c.generation()
		art, err := load(loadCtx)
		if err != nil {
			return nil, err
		}
		c.setIfGeneration(key, art, gen)
		return art, nil
	})

	select {
	case <-ctx.Done():
		return Artifact{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Artifact{}, res.Err
		}
		return res.Val.(Artifact), nil
	}
}
