package application

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/resource/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	sharedEvents "github.com/davicafu/backoffice/internal/shared/events"
	sharedCache "github.com/davicafu/backoffice/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/backoffice/internal/shared/infra/utils"
)

// ListResult es una página del listado, antes de armar los enlaces next/previous.
type ListResult struct {
	Count    int             `json:"count"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
	Results  []domain.Record `json:"results"`
}

func (r ListResult) HasNext() bool {
	return r.Page*r.PageSize < r.Count
}

func (r ListResult) HasPrevious() bool {
	return r.Page > 1
}

// ResourceService define los casos de uso de la API de recursos: listado
// filtrado con caché de respuestas y escrituras con evento de outbox.
type ResourceService struct {
	registry *sharedDomain.Registry
	repo     domain.DocumentRepository
	cache    sharedCache.VersionedCache
	cacheTTL int
	pageSize int
	stats    *RequestLogger
	log      *zap.Logger
}

type Option func(*ResourceService)

// WithCache activa la caché de listados. ttl en segundos.
func WithCache(c sharedCache.VersionedCache, ttl int) Option {
	return func(s *ResourceService) {
		s.cache = c
		s.cacheTTL = ttl
	}
}

func WithPageSize(n int) Option {
	return func(s *ResourceService) { s.pageSize = n }
}

func WithRequestLogger(l *RequestLogger) Option {
	return func(s *ResourceService) { s.stats = l }
}

func NewResourceService(registry *sharedDomain.Registry, repo domain.DocumentRepository, log *zap.Logger, opts ...Option) *ResourceService {
	s := &ResourceService{
		registry: registry,
		repo:     repo,
		cacheTTL: 60,
		pageSize: domain.DefaultPageSize,
		log:      log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ---------------- Claves de caché ----------------

// Las escrituras no borran claves: suben la generación del recurso y las
// claves viejas vencen solas.
func generationKey(resource string) string {
	return "gen:" + resource
}

func recordCacheKey(resource, id string) string {
	return "doc:" + resource + ":" + id
}

func listCacheKey(resource string, gen int64, q domain.ListQuery) string {
	return fmt.Sprintf("list:%s:v%d:%s", resource, gen, q.CacheKey())
}

func (s *ResourceService) generation(ctx context.Context, resource string) (int64, bool) {
	if s.cache == nil {
		return 0, false
	}
	gen, err := s.cache.Current(ctx, generationKey(resource))
	if err != nil {
		s.log.Warn("Cache generation read failed", zap.String("resource", resource), zap.Error(err))
		return 0, false
	}
	return gen, true
}

func (s *ResourceService) bumpGeneration(resource string) {
	if s.cache == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if _, err := s.cache.Incr(ctx, generationKey(resource)); err != nil {
		s.log.Warn("⚠️ Cache generation bump failed", zap.String("resource", resource), zap.Error(err))
	}
}

// ---------------- Lectura ----------------

func (s *ResourceService) config(resource string) (sharedDomain.ResourceConfig, error) {
	return s.registry.Get(resource)
}

// List resuelve un pedido de listado. Una página fuera de rango devuelve
// ErrInvalidPage, salvo la primera.
func (s *ResourceService) List(ctx context.Context, resource string, values url.Values) (ListResult, error) {
	start := time.Now()
	cfg, err := s.config(resource)
	if err != nil {
		return ListResult{}, err
	}
	q, err := domain.ParseListQuery(cfg, values, s.pageSize)
	if err != nil {
		return ListResult{}, err
	}

	gen, cacheable := s.generation(ctx, resource)
	key := listCacheKey(resource, gen, q)
	if cacheable {
		var cached ListResult
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			s.record(q, cached, start, 200)
			return cached, nil
		}
	}

	recs, total, err := s.repo.List(ctx, q)
	if err != nil {
		s.log.Error("Failed to list records", zap.String("resource", resource), zap.Error(err))
		return ListResult{}, err
	}
	if q.Page.Page > 1 && q.Page.Offset() >= total {
		s.record(q, ListResult{Count: total, Page: q.Page.Page}, start, 404)
		return ListResult{}, fmt.Errorf("%w: page %d", domain.ErrInvalidPage, q.Page.Page)
	}

	res := ListResult{Count: total, Page: q.Page.Page, PageSize: q.Page.Size, Results: recs}
	if cacheable {
		sharedCache.AsyncCacheSet(s.cache, key, res, s.cacheTTL, s.log)
	}
	s.record(q, res, start, 200)
	return res, nil
}

func (s *ResourceService) record(q domain.ListQuery, res ListResult, start time.Time, status int) {
	s.stats.Record(domain.RequestStat{
		Resource:  q.Resource,
		Query:     q.CacheKey(),
		Page:      q.Page.Page,
		Results:   len(res.Results),
		Count:     res.Count,
		Latency:   time.Since(start),
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
}

// Get obtiene un registro con reintentos; ErrRecordNotFound no se reintenta.
func (s *ResourceService) Get(ctx context.Context, resource, id string) (domain.Record, error) {
	if _, err := s.config(resource); err != nil {
		return nil, err
	}
	if s.cache != nil {
		var cached domain.Record
		if hit, _ := s.cache.Get(ctx, recordCacheKey(resource, id), &cached); hit {
			return cached, nil
		}
	}

	var rec domain.Record
	var notFound error
	err := sharedUtils.Retry(ctx, 3, 100*time.Millisecond, func() error {
		var errRetry error
		rec, errRetry = s.repo.Get(ctx, resource, id)
		if errors.Is(errRetry, domain.ErrRecordNotFound) {
			notFound = errRetry
			return nil
		}
		return errRetry
	})
	if notFound != nil {
		s.log.Debug("Record not found", zap.String("resource", resource), zap.String("id", id))
		return nil, notFound
	}
	if err != nil {
		s.log.Error("Failed to fetch record", zap.String("resource", resource), zap.String("id", id), zap.Error(err))
		return nil, err
	}
	if s.cache != nil {
		sharedCache.AsyncCacheSet(s.cache, recordCacheKey(resource, id), rec, s.cacheTTL, s.log)
	}
	return rec, nil
}

// ---------------- Escritura ----------------

func (s *ResourceService) Create(ctx context.Context, resource string, data domain.Record) (domain.Record, error) {
	if _, err := s.config(resource); err != nil {
		return nil, err
	}
	if data == nil {
		return nil, domain.ErrInvalidRecord
	}

	evt := sharedDomain.NewOutboxEvent(sharedEvents.ResourceCreated, resource)
	rec, err := s.repo.Create(ctx, resource, data, evt)
	if err != nil {
		s.log.Error("Failed to create record", zap.String("resource", resource), zap.Error(err))
		return nil, err
	}
	s.bumpGeneration(resource)
	s.log.Info("Record created", zap.String("resource", resource), zap.String("id", rec.ID()))
	return rec, nil
}

func (s *ResourceService) Update(ctx context.Context, resource, id string, patch domain.Record) (domain.Record, error) {
	if _, err := s.config(resource); err != nil {
		return nil, err
	}
	if patch == nil {
		return nil, domain.ErrInvalidRecord
	}

	evt := sharedDomain.NewOutboxEvent(sharedEvents.ResourceUpdated, resource)
	rec, err := s.repo.Update(ctx, resource, id, patch, evt)
	if err != nil {
		return nil, err
	}
	s.bumpGeneration(resource)
	if s.cache != nil {
		sharedCache.AsyncCacheSet(s.cache, recordCacheKey(resource, id), rec, s.cacheTTL, s.log)
	}
	return rec, nil
}

func (s *ResourceService) Delete(ctx context.Context, resource, id string) error {
	if _, err := s.config(resource); err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent(sharedEvents.ResourceDeleted, resource)
	if err := s.repo.Delete(ctx, resource, id, evt); err != nil {
		return err
	}
	s.bumpGeneration(resource)
	if s.cache != nil {
		sharedCache.AsyncCacheDelete(s.cache, recordCacheKey(resource, id), s.log)
	}
	return nil
}

// Resources devuelve los nombres de recurso publicados.
func (s *ResourceService) Resources() []string {
	return s.registry.Names()
}
