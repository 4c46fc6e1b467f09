package mocks

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	sharedCache "github.com/davicafu/backoffice/internal/shared/infra/platform/cache"
)

// DummyCache guarda JSON en un mapa, sin TTL. Cuenta los Set para que los
// tests puedan verificar escrituras.
type DummyCache struct {
	store    map[string][]byte
	counters map[string]int64
	sets     int
	mu       sync.RWMutex
}

var _ sharedCache.VersionedCache = (*DummyCache)(nil)

func NewDummyCache() *DummyCache {
	return &DummyCache{store: make(map[string][]byte), counters: make(map[string]int64)}
}

func (c *DummyCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, ok := c.store[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *DummyCache) Set(ctx context.Context, key string, val interface{}, ttlSecs int) error {
	data, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = data
	c.sets++
	return nil
}

func (c *DummyCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	return nil
}

// Keys devuelve las claves con el prefijo dado.
func (c *DummyCache) Keys(prefix string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []string
	for k := range c.store {
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out
}

func (c *DummyCache) Sets() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sets
}

func (c *DummyCache) Incr(ctx context.Context, key string) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

func (c *DummyCache) Current(ctx context.Context, key string) (int64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counters[key], nil
}
