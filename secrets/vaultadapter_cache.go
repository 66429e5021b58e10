package secrets

import (
	"container/list"
	"context"
	"sync"
)

// CachingVaultAdapter wraps a backend VaultAdapter with an in-memory LRU
// cache: write-through on Put, read-through on Get, cache-and-backend
// eviction on Delete. Thread-safe via RWMutex.
type CachingVaultAdapter struct {
	backend  VaultAdapter
	capacity int

	mu    sync.RWMutex
	cache map[string]*list.Element
	lru   *list.List
}

type cacheEntry struct {
	cacheKey string
	secret   Secret
}

// NewCachingVaultAdapter wraps backend with an LRU cache of the given
// capacity (a non-positive value defaults to 100).
func NewCachingVaultAdapter(backend VaultAdapter, capacity int) *CachingVaultAdapter {
	if capacity <= 0 {
		capacity = 100
	}
	return &CachingVaultAdapter{
		backend:  backend,
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		lru:      list.New(),
	}
}

func cacheKeyFor(vault, shm string) string { return vault + "/" + shm }

// GetSecret checks the cache before falling back to the backend.
func (c *CachingVaultAdapter) GetSecret(ctx context.Context, shm string, opts PutOptions) (Secret, error) {
	key := cacheKeyFor(opts.Vault, shm)

	c.mu.RLock()
	if elem, ok := c.cache[key]; ok {
		secret := cloneSecret(elem.Value.(*cacheEntry).secret)
		c.mu.RUnlock()
		c.mu.Lock()
		if elem, ok := c.cache[key]; ok {
			c.lru.MoveToFront(elem)
		}
		c.mu.Unlock()
		return secret, nil
	}
	c.mu.RUnlock()

	secret, err := c.backend.GetSecret(ctx, shm, opts)
	if err != nil {
		return Secret{}, err
	}

	c.mu.Lock()
	c.addToCache(key, secret)
	c.mu.Unlock()
	return secret, nil
}

// PutSecret writes through to the backend, then updates the cache.
func (c *CachingVaultAdapter) PutSecret(ctx context.Context, secret Secret, opts PutOptions) error {
	if err := c.backend.PutSecret(ctx, secret, opts); err != nil {
		return err
	}
	c.mu.Lock()
	c.addToCache(cacheKeyFor(opts.Vault, secret.UniqueID), secret)
	c.mu.Unlock()
	return nil
}

// DeleteSecret removes from the cache, then the backend.
func (c *CachingVaultAdapter) DeleteSecret(ctx context.Context, secret Secret, opts PutOptions) error {
	return c.DeleteSecretByKey(ctx, secret.UniqueID, opts)
}

// DeleteSecretByKey removes shm from the cache, then the backend.
func (c *CachingVaultAdapter) DeleteSecretByKey(ctx context.Context, shm string, opts PutOptions) error {
	key := cacheKeyFor(opts.Vault, shm)
	c.mu.Lock()
	c.removeFromCache(key)
	c.mu.Unlock()
	return c.backend.DeleteSecretByKey(ctx, shm, opts)
}

// DeleteVault invalidates every cached entry for opts.Vault, then delegates
// to the backend.
func (c *CachingVaultAdapter) DeleteVault(ctx context.Context, opts PutOptions) error {
	prefix := opts.Vault + "/"
	c.mu.Lock()
	for key := range c.cache {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			c.removeFromCache(key)
		}
	}
	c.mu.Unlock()
	return c.backend.DeleteVault(ctx, opts)
}

// addToCache must be called with the write lock held.
func (c *CachingVaultAdapter) addToCache(key string, secret Secret) {
	if elem, ok := c.cache[key]; ok {
		elem.Value.(*cacheEntry).secret = cloneSecret(secret)
		c.lru.MoveToFront(elem)
		return
	}
	if len(c.cache) >= c.capacity {
		c.evictLRU()
	}
	elem := c.lru.PushFront(&cacheEntry{cacheKey: key, secret: cloneSecret(secret)})
	c.cache[key] = elem
}

// removeFromCache must be called with the write lock held.
func (c *CachingVaultAdapter) removeFromCache(key string) {
	if elem, ok := c.cache[key]; ok {
		c.lru.Remove(elem)
		delete(c.cache, key)
	}
}

// evictLRU must be called with the write lock held.
func (c *CachingVaultAdapter) evictLRU() {
	back := c.lru.Back()
	if back == nil {
		return
	}
	entry := back.Value.(*cacheEntry)
	c.lru.Remove(back)
	delete(c.cache, entry.cacheKey)
}

var _ VaultAdapter = (*CachingVaultAdapter)(nil)
