package application

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/davicafu/backoffice/internal/listing/domain"
)

// LRUStore guarda las entradas en memoria con límite de tamaño y TTL.
type LRUStore struct {
	lru *expirable.LRU[string, domain.CacheEntry]
}

var _ domain.EntryStore = (*LRUStore)(nil)

// NewLRUStore crea el store; size 0 no limita la cantidad y ttl 0 no vence.
func NewLRUStore(size int, ttl time.Duration) *LRUStore {
	return &LRUStore{lru: expirable.NewLRU[string, domain.CacheEntry](size, nil, ttl)}
}

func (s *LRUStore) Get(key string) (domain.CacheEntry, bool) {
	return s.lru.Get(key)
}

func (s *LRUStore) Set(key string, entry domain.CacheEntry) {
	s.lru.Add(key, entry)
}

func (s *LRUStore) Invalidate(key string) {
	s.lru.Remove(key)
}

func (s *LRUStore) Len() int {
	return s.lru.Len()
}
