package cache

import (
	"context"
	"sync"

	mandel "github.com/marben/mandelview"
)

// DefaultMemoryEntries bounds a Memory cache when no size is configured.
const DefaultMemoryEntries = 32

// Memory is an in-process Cache holding at most a fixed number of matrices.
// When full, the oldest entry is evicted.
type Memory struct {
	mu      sync.Mutex
	limit   int
	entries map[string]*mandel.Matrix
	order   []string
}

// NewMemory returns a Memory cache holding up to limit matrices.
func NewMemory(limit int) *Memory {
	if limit <= 0 {
		limit = DefaultMemoryEntries
	}
	return &Memory{limit: limit, entries: make(map[string]*mandel.Matrix, limit)}
}

func (c *Memory) Get(_ context.Context, key string) (*mandel.Matrix, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.entries[key]
	return m, ok, nil
}

func (c *Memory) Put(_ context.Context, key string, m *mandel.Matrix) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		c.entries[key] = m
		return nil
	}
	for len(c.order) >= c.limit {
		delete(c.entries, c.order[0])
		c.order = c.order[1:]
	}
	c.entries[key] = m
	c.order = append(c.order, key)
	return nil
}

// Len returns the number of stored matrices.
func (c *Memory) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
