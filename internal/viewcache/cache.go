// Package viewcache keeps client-facing list views of a user's library and
// applies status changes to them optimistically, before the server write
// confirms. It is a latency optimization with no durability of its own: every
// mutation ends by marking the touched views stale so the next read goes back
// to the server.
package viewcache

import (
	"context"
	"sync"

	"playlater/internal/entity"
)

// Key identifies one cached list view (for example one filter combination).
type Key string

// Notifier receives the user-facing outcome of a mutation. Implementations
// must not block.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type Cache struct {
	mu        sync.Mutex
	lists     map[Key][]entity.LibraryItem
	stale     map[Key]bool
	refetches map[Key]context.CancelFunc
	notifier  Notifier
}

func New(notifier Notifier) *Cache {
	return &Cache{
		lists:     make(map[Key][]entity.LibraryItem),
		stale:     make(map[Key]bool),
		refetches: make(map[Key]context.CancelFunc),
		notifier:  notifier,
	}
}

// SetList stores a freshly fetched view and clears its stale mark.
func (c *Cache) SetList(key Key, items []entity.LibraryItem) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lists[key] = append([]entity.LibraryItem(nil), items...)
	delete(c.stale, key)
	delete(c.refetches, key)
}

// List returns a copy of the cached view, if any.
func (c *Cache) List(key Key) ([]entity.LibraryItem, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	items, ok := c.lists[key]
	if !ok {
		return nil, false
	}
	return append([]entity.LibraryItem(nil), items...), true
}

// Stale reports whether the view must be refetched before use.
func (c *Cache) Stale(key Key) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale[key]
}

// BeginRefetch derives a cancellable context for a read refetch of key and
// registers it so a later mutation can cancel it. Mutation calls themselves
// are never registered here; only reads are cancellable.
func (c *Cache) BeginRefetch(ctx context.Context, key Key) context.Context {
	refetchCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	if prev, ok := c.refetches[key]; ok {
		prev()
	}
	c.refetches[key] = cancel
	c.mu.Unlock()
	return refetchCtx
}

// Invalidate marks views stale without touching their contents.
func (c *Cache) Invalidate(keys ...Key) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		if _, ok := c.lists[key]; ok {
			c.stale[key] = true
		}
	}
}

func (c *Cache) cancelRefetchesLocked(keys []Key) {
	for _, key := range keys {
		if cancel, ok := c.refetches[key]; ok {
			cancel()
			delete(c.refetches, key)
		}
	}
}
