package mocks

import (
	"context"
	"fmt"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/davicafu/backoffice/internal/listing/domain"
)

type FetchCall struct {
	Path  string
	Query string
	Page  int
}

// FakeFetcher responde con Respond y registra cada llamada. Si Gate no es
// nil, cada descarga espera a recibir de Gate antes de responder.
type FakeFetcher struct {
	mu      sync.Mutex
	calls   []FetchCall
	Respond func(FetchCall) (domain.Page, error)
	Gate    chan struct{}
	Started chan FetchCall
}

var _ domain.PageFetcher = (*FakeFetcher)(nil)

func (f *FakeFetcher) FetchPage(ctx context.Context, path, query string, page int) (domain.Page, error) {
	call := FetchCall{Path: path, Query: query, Page: page}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()

	if f.Started != nil {
		f.Started <- call
	}
	if f.Gate != nil {
		select {
		case <-f.Gate:
		case <-ctx.Done():
			return domain.Page{}, ctx.Err()
		}
	}
	return f.Respond(call)
}

func (f *FakeFetcher) Calls() []FetchCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]FetchCall(nil), f.calls...)
}

// Paged simula un listado de total registros (ids 1..total) en páginas de size.
func Paged(total, size int) func(FetchCall) (domain.Page, error) {
	return func(call FetchCall) (domain.Page, error) {
		return PageOf(call.Page, total, size), nil
	}
}

func PageOf(page, total, size int) domain.Page {
	var out domain.Page
	for id := (page-1)*size + 1; id <= total && id <= page*size; id++ {
		out.Results = append(out.Results, domain.Record{"id": float64(id)})
	}
	if page*size < total {
		next := fmt.Sprintf("http://api.test/api/x/?page=%d", page+1)
		out.Next = &next
	}
	count := total
	out.Count = &count
	return out
}

// MockRecordWriter es el mock de testify para las escrituras REST.
type MockRecordWriter struct {
	mock.Mock
}

var _ domain.RecordWriter = (*MockRecordWriter)(nil)

func (m *MockRecordWriter) Create(ctx context.Context, path string, rec domain.Record) (domain.Record, error) {
	args := m.Called(ctx, path, rec)
	out, _ := args.Get(0).(domain.Record)
	return out, args.Error(1)
}

func (m *MockRecordWriter) Update(ctx context.Context, path, id string, patch domain.Record) (domain.Record, error) {
	args := m.Called(ctx, path, id, patch)
	out, _ := args.Get(0).(domain.Record)
	return out, args.Error(1)
}

func (m *MockRecordWriter) Delete(ctx context.Context, path, id string) error {
	args := m.Called(ctx, path, id)
	return args.Error(0)
}
