package cache

import (
	"context"
	"path"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a process-local LRU with a fixed TTL. The ttl argument of Set
// is ignored in favour of the TTL given at construction.
type MemoryCache struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryCache(size int, ttl time.Duration) *MemoryCache {
	if size <= 0 {
		size = 1024
	}
	return &MemoryCache{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := m.lru.Get(key)
	if !ok {
		return nil, ErrNotFound
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)
	m.lru.Add(key, stored)
	return nil
}

func (m *MemoryCache) DeletePattern(_ context.Context, pattern string) (int, error) {
	deleted := 0
	for _, key := range m.lru.Keys() {
		ok, err := path.Match(pattern, key)
		if err != nil {
			return deleted, err
		}
		if ok && m.lru.Remove(key) {
			deleted++
		}
	}
	return deleted, nil
}

func (m *MemoryCache) Ping(context.Context) error { return nil }

func (m *MemoryCache) Enabled() bool { return true }

func (m *MemoryCache) Close() error {
	m.lru.Purge()
	return nil
}
