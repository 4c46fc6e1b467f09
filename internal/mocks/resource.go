package mocks

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/backoffice/internal/resource/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

type MockDocumentRepository struct {
	mock.Mock
}

var _ domain.DocumentRepository = (*MockDocumentRepository)(nil)

func (m *MockDocumentRepository) List(ctx context.Context, q domain.ListQuery) ([]domain.Record, int, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]domain.Record)
	return recs, args.Int(1), args.Error(2)
}

func (m *MockDocumentRepository) Get(ctx context.Context, resource, id string) (domain.Record, error) {
	args := m.Called(ctx, resource, id)
	rec, _ := args.Get(0).(domain.Record)
	return rec, args.Error(1)
}

func (m *MockDocumentRepository) Create(ctx context.Context, resource string, data domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	args := m.Called(ctx, resource, data, evt)
	rec, _ := args.Get(0).(domain.Record)
	return rec, args.Error(1)
}

func (m *MockDocumentRepository) Update(ctx context.Context, resource, id string, patch domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	args := m.Called(ctx, resource, id, patch, evt)
	rec, _ := args.Get(0).(domain.Record)
	return rec, args.Error(1)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, resource, id string, evt sharedDomain.OutboxEvent) error {
	args := m.Called(ctx, resource, id, evt)
	return args.Error(0)
}

// RequestLogSink guarda en memoria los lotes recibidos.
type RequestLogSink struct {
	mu      sync.Mutex
	batches [][]domain.RequestStat
}

var _ domain.RequestLogRepository = (*RequestLogSink)(nil)

func (s *RequestLogSink) LogBatch(ctx context.Context, stats []domain.RequestStat) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches = append(s.batches, append([]domain.RequestStat(nil), stats...))
	return nil
}

func (s *RequestLogSink) Batches() [][]domain.RequestStat {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.RequestStat(nil), s.batches...)
}

// Total cuenta las estadísticas de todos los lotes.
func (s *RequestLogSink) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, b := range s.batches {
		n += len(b)
	}
	return n
}
