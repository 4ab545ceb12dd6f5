// Package memo holds process-lifetime results that are expensive to compute.
// Concurrent first callers share a single load; only successful results are
// kept, so a failed load is retried by the next caller.
package memo

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/sells-group/occupancy-map/internal/metrics"
)

// Loader computes a value on a cache miss.
type Loader[T any] func(ctx context.Context) (T, error)

// Cell memoizes a single value.
type Cell[T any] struct {
	name  string
	mu    sync.RWMutex
	ready bool
	val   T
	group singleflight.Group
}

// NewCell creates an empty cell. name labels the cell's cache metrics.
func NewCell[T any](name string) *Cell[T] {
	return &Cell[T]{name: name}
}

// Peek returns the stored value without loading.
func (c *Cell[T]) Peek() (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.val, c.ready
}

// Get returns the stored value, running load when the cell is empty. The
// second return reports whether the value was already stored.
func (c *Cell[T]) Get(ctx context.Context, load Loader[T]) (T, bool, error) {
	if v, ok := c.Peek(); ok {
		metrics.RecordCacheHit(c.name)
		return v, true, nil
	}
	metrics.RecordCacheMiss(c.name)

	res, err, _ := c.group.Do(c.name, func() (any, error) {
		// A caller that lost the race to a finished load lands here.
		if v, ok := c.Peek(); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.val, c.ready = v, true
		c.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return res.(T), false, nil
}

// Group memoizes one value per string key.
type Group[T any] struct {
	name    string
	mu      sync.RWMutex
	entries map[string]T
	group   singleflight.Group
}

// NewGroup creates an empty keyed cache. name labels its cache metrics.
func NewGroup[T any](name string) *Group[T] {
	return &Group[T]{name: name, entries: make(map[string]T)}
}

// Peek returns the value stored under key without loading.
func (g *Group[T]) Peek(key string) (T, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	v, ok := g.entries[key]
	return v, ok
}

// Len returns the number of stored keys.
func (g *Group[T]) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.entries)
}

// Get returns the value for key, running load once per key on a miss.
func (g *Group[T]) Get(ctx context.Context, key string, load Loader[T]) (T, error) {
	if v, ok := g.Peek(key); ok {
		metrics.RecordCacheHit(g.name)
		return v, nil
	}
	metrics.RecordCacheMiss(g.name)

	res, err, _ := g.group.Do(key, func() (any, error) {
		if v, ok := g.Peek(key); ok {
			return v, nil
		}
		v, err := load(ctx)
		if err != nil {
			return nil, err
		}
		g.mu.Lock()
		g.entries[key] = v
		g.mu.Unlock()
		return v, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return res.(T), nil
}
