package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
	sharedCache "github.com/davicafu/backoffice/internal/shared/infra/platform/cache"
)

const opTimeout = 500 * time.Millisecond

// EntryStore guarda las entradas del listado en una caché compartida (Redis
// o la versión en memoria). Un error de la caché cuenta como miss.
type EntryStore struct {
	cache  sharedCache.Cache
	prefix string
	ttl    int
	log    *zap.Logger
}

var _ domain.EntryStore = (*EntryStore)(nil)

// NewEntryStore usa ttl para cada entrada; 0 deja el TTL por defecto de la caché.
func NewEntryStore(cache sharedCache.Cache, prefix string, ttl time.Duration, log *zap.Logger) *EntryStore {
	return &EntryStore{cache: cache, prefix: prefix, ttl: int(ttl / time.Second), log: log}
}

func (s *EntryStore) Get(key string) (domain.CacheEntry, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var entry domain.CacheEntry
	ok, err := s.cache.Get(ctx, s.prefix+key, &entry)
	if err != nil {
		s.log.Warn("entry cache read failed", zap.String("key", key), zap.Error(err))
		return domain.CacheEntry{}, false
	}
	return entry, ok
}

func (s *EntryStore) Set(key string, entry domain.CacheEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, s.prefix+key, entry, s.ttl); err != nil {
		s.log.Warn("entry cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *EntryStore) Invalidate(key string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	if err := s.cache.Delete(ctx, s.prefix+key); err != nil {
		s.log.Warn("entry cache delete failed", zap.String("key", key), zap.Error(err))
	}
}
