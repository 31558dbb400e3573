package cache

import (
	"sync"
	"time"
)

// MemoryStore is an in-memory key-value store with sliding expiration.
// Every successful Get pushes the item's expiry forward by the store TTL.
type MemoryStore[V any] struct {
	mu    sync.RWMutex
	items map[string]*memoryItem[V]
	ttl   time.Duration

	stop     chan struct{}
	stopOnce sync.Once
}

type memoryItem[V any] struct {
	value      V
	expireTime time.Time
}

// NewMemoryStore creates a new in-memory store. A cleanup goroutine removes
// expired items every cleanupInterval until Close is called.
func NewMemoryStore[V any](ttl, cleanupInterval time.Duration) *MemoryStore[V] {
	if cleanupInterval <= 0 {
		cleanupInterval = 5 * time.Minute
	}
	store := &MemoryStore[V]{
		items: make(map[string]*memoryItem[V]),
		ttl:   ttl,
		stop:  make(chan struct{}),
	}

	// Start cleanup goroutine to remove expired items
	go store.cleanupExpired(cleanupInterval)

	return store
}

// Set stores a value with the store TTL
func (ms *MemoryStore[V]) Set(key string, value V) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	ms.items[key] = &memoryItem[V]{
		value:      value,
		expireTime: time.Now().Add(ms.ttl),
	}
}

// Get retrieves a value by key and refreshes its expiry
func (ms *MemoryStore[V]) Get(key string) (V, bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	var zero V
	item, exists := ms.items[key]
	if !exists {
		return zero, false
	}

	// Check if expired
	now := time.Now()
	if now.After(item.expireTime) {
		delete(ms.items, key)
		return zero, false
	}

	item.expireTime = now.Add(ms.ttl)
	return item.value, true
}

// Delete removes a key and reports whether it was present
func (ms *MemoryStore[V]) Delete(key string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	_, exists := ms.items[key]
	delete(ms.items, key)
	return exists
}

// Len returns the number of unexpired items
func (ms *MemoryStore[V]) Len() int {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, item := range ms.items {
		if !now.After(item.expireTime) {
			n++
		}
	}
	return n
}

// Close stops the cleanup goroutine
func (ms *MemoryStore[V]) Close() {
	ms.stopOnce.Do(func() { close(ms.stop) })
}

// cleanupExpired periodically removes expired items
func (ms *MemoryStore[V]) cleanupExpired(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ms.stop:
			return
		case <-ticker.C:
			ms.mu.Lock()
			now := time.Now()
			for key, item := range ms.items {
				if now.After(item.expireTime) {
					delete(ms.items, key)
				}
			}
			ms.mu.Unlock()
		}
	}
}
