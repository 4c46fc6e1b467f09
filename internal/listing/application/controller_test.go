package application

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
	"github.com/davicafu/backoffice/internal/mocks"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

func newTestController(t *testing.T, resource string, f *mocks.FakeFetcher, opts Options) *Controller {
	t.Helper()
	if opts.Debounce == 0 {
		opts.Debounce = -1
	}
	c, err := NewController(sharedDomain.DefaultRegistry(), resource, f, NewLRUStore(0, 0), zap.NewNop(), opts)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func ids(rs []domain.Record) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID()
	}
	return out
}

func strPtr(s string) *string { return &s }

func TestNewController_UnknownResource(t *testing.T) {
	_, err := NewController(sharedDomain.DefaultRegistry(), "facturas", &mocks.FakeFetcher{}, NewLRUStore(0, 0), zap.NewNop(), Options{})
	assert.ErrorIs(t, err, sharedDomain.ErrUnknownResource)
}

func TestController_LoadAndPaginateUntilExhausted(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(25, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()

	assert.Equal(t, domain.StateEmpty, c.State())
	require.NoError(t, c.Load(ctx))
	assert.Equal(t, domain.StateReady, c.State())
	assert.Len(t, c.Items(), 10)
	assert.True(t, c.HasMore())

	require.NoError(t, c.FetchNextPage(ctx))
	require.NoError(t, c.FetchNextPage(ctx))
	assert.Len(t, c.Items(), 25)
	assert.Equal(t, domain.StateExhausted, c.State())
	assert.False(t, c.HasMore())

	// agotada: no hay más llamadas
	require.NoError(t, c.FetchNextPage(ctx))

	calls := f.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/api/documentos/", calls[0].Path)
	assert.Equal(t, "ordering=-fecha_documento", calls[0].Query)
	assert.Equal(t, []int{1, 2, 3}, []int{calls[0].Page, calls[1].Page, calls[2].Page})
}

func TestController_LoadUsesStoreOnSecondCall(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(5, 10)}
	c := newTestController(t, "proveedores", f, Options{})

	require.NoError(t, c.Load(context.Background()))
	require.NoError(t, c.Load(context.Background()))
	assert.Len(t, f.Calls(), 1)
	assert.Equal(t, domain.StateExhausted, c.State())
}

func TestController_ConcurrentLoadsShareOneRequest(t *testing.T) {
	gate := make(chan struct{})
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10), Gate: gate, Started: make(chan mocks.FetchCall, 4)}
	c := newTestController(t, "documentos", f, Options{})

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, c.Load(context.Background()))
		}()
	}
	<-f.Started
	assert.True(t, c.IsLoading())
	assert.Equal(t, domain.StateLoading, c.State())
	close(gate)
	wg.Wait()

	assert.Len(t, f.Calls(), 1)
	assert.False(t, c.IsLoading())
}

func TestController_NextPageIsNotReentrant(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	gate := make(chan struct{})
	f.Gate = gate
	f.Started = make(chan mocks.FetchCall, 4)

	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(ctx) }()
	<-f.Started

	assert.True(t, c.IsFetchingMore())
	assert.False(t, c.IsLoading())
	assert.Equal(t, domain.StateFetchingMore, c.State())

	// el segundo pedido vuelve enseguida sin red
	require.NoError(t, c.FetchNextPage(ctx))

	close(gate)
	require.NoError(t, <-done)
	assert.Len(t, f.Calls(), 2)
	assert.Len(t, c.Items(), 20)
	assert.Equal(t, domain.StateReady, c.State())
}

func TestController_SharedStoreAppliesNextPageOnce(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	store := NewLRUStore(0, 0)
	open := func() *Controller {
		c, err := NewController(sharedDomain.DefaultRegistry(), "documentos", f, store, zap.NewNop(), Options{Debounce: -1})
		require.NoError(t, err)
		t.Cleanup(c.Close)
		return c
	}
	a, b := open(), open()
	ctx := context.Background()
	require.NoError(t, a.Load(ctx))
	require.NoError(t, b.Load(ctx))
	require.Len(t, f.Calls(), 1)

	gate := make(chan struct{})
	f.Gate = gate
	f.Started = make(chan mocks.FetchCall, 4)

	var wg sync.WaitGroup
	for _, c := range []*Controller{a, b} {
		wg.Add(1)
		go func(c *Controller) {
			defer wg.Done()
			assert.NoError(t, c.FetchNextPage(ctx))
		}(c)
	}
	<-f.Started
	<-f.Started
	close(gate)
	wg.Wait()

	entry, ok := a.Entry()
	require.True(t, ok)
	assert.Len(t, entry.Pages, 2)
	assert.Len(t, entry.Items(), 20)
	assert.Equal(t, "20", entry.Items()[19].ID())
	assert.Equal(t, ids(a.Items()), ids(b.Items()))

	// la siguiente sigue por la página 3
	f.Gate = nil
	require.NoError(t, b.FetchNextPage(ctx))
	calls := f.Calls()
	assert.Equal(t, 3, calls[len(calls)-1].Page)
	assert.Len(t, a.Items(), 30)
}

func TestController_InitialLoadFailureThenRetry(t *testing.T) {
	fail := true
	f := &mocks.FakeFetcher{Respond: func(call mocks.FetchCall) (domain.Page, error) {
		if fail {
			return domain.Page{}, errors.New("502 bad gateway")
		}
		return mocks.PageOf(call.Page, 3, 10), nil
	}}
	c := newTestController(t, "pagos", f, Options{})

	err := c.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Equal(t, domain.StateFailed, c.State())
	assert.Error(t, c.Err())
	assert.Nil(t, c.Items())

	fail = false
	require.NoError(t, c.Load(context.Background()))
	assert.Equal(t, domain.StateExhausted, c.State())
	assert.NoError(t, c.Err())
	assert.Len(t, f.Calls(), 2)
}

func TestController_NextPageFailureKeepsPages(t *testing.T) {
	failures := 1
	f := &mocks.FakeFetcher{Respond: func(call mocks.FetchCall) (domain.Page, error) {
		if call.Page == 2 && failures > 0 {
			failures--
			return domain.Page{}, errors.New("timeout")
		}
		return mocks.PageOf(call.Page, 30, 10), nil
	}}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	assert.Error(t, c.FetchNextPage(ctx))
	assert.Equal(t, domain.StateReady, c.State())
	assert.Len(t, c.Items(), 10)

	require.NoError(t, c.FetchNextPage(ctx))
	assert.Len(t, c.Items(), 20)
}

func TestController_MutationsWithoutEntryAreNoops(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(3, 10)}
	c := newTestController(t, "documentos", f, Options{})

	assert.False(t, c.AddItem(domain.Record{"id": 1}))
	assert.False(t, c.UpdateItem(domain.Record{"id": 1}))
	assert.False(t, c.DeleteItem("1"))
	assert.Nil(t, c.Items())
	assert.Empty(t, f.Calls())
}

func twoRecordPage(call mocks.FetchCall) (domain.Page, error) {
	switch call.Page {
	case 1:
		return domain.Page{
			Results: []domain.Record{{"id": 1.0, "nombre": "A"}, {"id": 2.0, "nombre": "B"}},
			Next:    strPtr("http://api.test/api/x/?page=2"),
		}, nil
	default:
		return domain.Page{Results: []domain.Record{{"id": 3.0, "nombre": "C"}}}, nil
	}
}

func TestController_AddItemPrependsWithoutNetwork(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: twoRecordPage}
	c := newTestController(t, "documentos", f, Options{})
	require.NoError(t, c.Load(context.Background()))

	require.True(t, c.AddItem(domain.Record{"id": 4.0, "nombre": "D"}))

	entry, ok := c.Entry()
	require.True(t, ok)
	assert.Equal(t, []string{"4", "1", "2"}, ids(entry.Pages[0].Results))
	assert.Equal(t, "http://api.test/api/x/?page=2", entry.NextURL())
	assert.Equal(t, uint64(1), entry.Mutations)
	assert.Len(t, f.Calls(), 1)
}

func TestController_UpdateAndDelete(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: twoRecordPage}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.FetchNextPage(ctx))

	require.True(t, c.UpdateItem(domain.Record{"id": 3, "nombre": "C2"}))
	entry, _ := c.Entry()
	assert.Equal(t, "C2", entry.Pages[1].Results[0]["nombre"])

	before := entry.Items()
	mutations := entry.Mutations
	assert.False(t, c.UpdateItem(domain.Record{"id": 99, "nombre": "Z"}))
	assert.False(t, c.DeleteItem("99"))
	entry, _ = c.Entry()
	assert.Equal(t, before, entry.Items())
	assert.Equal(t, mutations, entry.Mutations)

	require.True(t, c.DeleteItem("3"))
	entry, _ = c.Entry()
	assert.Len(t, entry.Pages, 2)
	assert.Empty(t, entry.Pages[1].Results)
	assert.Equal(t, []string{"1", "2"}, ids(entry.Items()))
	assert.Equal(t, domain.StateExhausted, c.State())
}

func TestController_KeyChangeSwitchesEntry(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	first := c.Key()

	c.SetFilters([]sharedDomain.Filter{sharedDomain.NewFilter("proveedor", sharedDomain.OpContains, "Gomez")})
	second := c.Key()
	assert.NotEqual(t, first.String(), second.String())
	assert.Equal(t, "proveedor__nombre_fantasia_pila__icontains=Gomez&ordering=-fecha_documento", second.Query)
	assert.Equal(t, domain.StateEmpty, c.State())

	// una mutación sobre la clave nueva no toca la vieja
	assert.False(t, c.AddItem(domain.Record{"id": 500}))

	c.SetFilters(nil)
	assert.Equal(t, first.String(), c.Key().String())
	assert.Len(t, c.Items(), 10)
	assert.Len(t, f.Calls(), 1)
}

func TestController_StaleResponseLandsInItsOwnKey(t *testing.T) {
	gate := make(chan struct{})
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10), Gate: gate, Started: make(chan mocks.FetchCall, 4)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- c.Load(ctx) }()
	<-f.Started

	c.SetSort("numero", false)
	close(gate)
	require.NoError(t, <-done)

	assert.Nil(t, c.Items())
	assert.Equal(t, domain.StateEmpty, c.State())

	c.SetSort("fecha_documento", true)
	assert.Len(t, c.Items(), 10)
}

func TestController_MutationDuringNextPageIsMerged(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	gate := make(chan struct{})
	f.Gate = gate
	f.Started = make(chan mocks.FetchCall, 4)
	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(ctx) }()
	<-f.Started

	require.True(t, c.AddItem(domain.Record{"id": 11.0, "local": true}))
	// 15 y 12 todavía no llegaron: la lista no cambia pero la página en
	// vuelo las recibe igual
	assert.False(t, c.UpdateItem(domain.Record{"id": 15.0, "x": "local"}))
	assert.False(t, c.DeleteItem("12"))

	close(gate)
	require.NoError(t, <-done)

	entry, ok := c.Entry()
	require.True(t, ok)
	require.Len(t, entry.Pages, 2)
	assert.Equal(t, "11", entry.Pages[0].Results[0].ID())
	assert.Equal(t, []string{"13", "14", "15", "16", "17", "18", "19", "20"}, ids(entry.Pages[1].Results))
	assert.Equal(t, "local", entry.Pages[1].Results[2]["x"])
	assert.Len(t, entry.Items(), 19)
	assert.Equal(t, uint64(1), entry.Mutations)
}

func TestController_RefetchReplaysLocalAdds(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.FetchNextPage(ctx))

	gate := make(chan struct{})
	f.Gate = gate
	f.Started = make(chan mocks.FetchCall, 4)
	done := make(chan error, 1)
	go func() { done <- c.Refetch(ctx) }()
	<-f.Started

	require.True(t, c.AddItem(domain.Record{"id": 99.0}))
	close(gate)
	require.NoError(t, <-done)

	entry, _ := c.Entry()
	require.Len(t, entry.Pages, 1)
	assert.Equal(t, "99", entry.Pages[0].Results[0].ID())
	assert.Len(t, entry.Pages[0].Results, 11)
	assert.Equal(t, uint64(1), entry.Mutations)
}

func TestController_InvalidateDropsEntryAndInflightResult(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(30, 10)}
	c := newTestController(t, "documentos", f, Options{})
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	gate := make(chan struct{})
	f.Gate = gate
	f.Started = make(chan mocks.FetchCall, 4)
	done := make(chan error, 1)
	go func() { done <- c.FetchNextPage(ctx) }()
	<-f.Started

	c.Invalidate()
	close(gate)
	require.NoError(t, <-done)

	assert.Equal(t, domain.StateEmpty, c.State())
	assert.Nil(t, c.Items())

	f.Gate = nil
	require.NoError(t, c.Load(ctx))
	assert.Len(t, c.Items(), 10)
}

func TestController_DebouncedSearchSingleTransition(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(3, 10)}
	c := newTestController(t, "registros", f, Options{Debounce: 40 * time.Millisecond})

	var mu sync.Mutex
	var keys []domain.QueryKey
	c.OnKeyChange(func(k domain.QueryKey) {
		mu.Lock()
		keys = append(keys, k)
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(keys)
	}

	for _, s := range []string{"g", "go", "gom", "gome", "gomez"} {
		c.SetSearch(s)
	}
	assert.Equal(t, "gomez", c.Search())

	require.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, count())
	assert.Equal(t, "gomez", c.Key().Search)
	assert.Equal(t, "ordering=-fecha_reg&search=gomez", c.Key().Query)
}

func TestController_DebouncedFiltersSingleTransition(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(3, 10)}
	c := newTestController(t, "documentos", f, Options{Debounce: 40 * time.Millisecond})

	var mu sync.Mutex
	var keys []domain.QueryKey
	c.OnKeyChange(func(k domain.QueryKey) {
		mu.Lock()
		keys = append(keys, k)
		mu.Unlock()
	})
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(keys)
	}

	for _, v := range []string{"G", "Go", "Gomez"} {
		c.SetFilters([]sharedDomain.Filter{sharedDomain.NewFilter("proveedor", sharedDomain.OpContains, v)})
	}
	assert.Equal(t, "Gomez", c.Filters()[0].Value)

	require.Eventually(t, func() bool { return count() == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, 1, count())
	assert.Equal(t, "proveedor__nombre_fantasia_pila__icontains=Gomez&ordering=-fecha_documento", c.Key().Query)
	assert.Empty(t, f.Calls())
}

func TestController_SortIsImmediateFiltersWait(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(3, 10)}
	c := newTestController(t, "documentos", f, Options{Debounce: time.Hour})

	changes := 0
	c.OnKeyChange(func(domain.QueryKey) { changes++ })

	s := c.ToggleSort("proveedor")
	assert.Equal(t, "proveedor__nombre_fantasia_pila", s.Field)
	assert.True(t, s.Desc)
	assert.Equal(t, 1, changes)

	c.SetFilters([]sharedDomain.Filter{sharedDomain.NewFilter("serie", sharedDomain.OpEquals, "A")})
	assert.Equal(t, 1, changes)
	assert.Len(t, c.Filters(), 1)
	assert.NotContains(t, c.Key().Query, "serie")

	c.Flush()
	assert.Equal(t, 2, changes)
	assert.Equal(t, "serie=A&ordering=-proveedor__nombre_fantasia_pila", c.Key().Query)
}

func TestController_AutoLoadOnKeyChange(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(12, 10)}
	c := newTestController(t, "documentos", f, Options{AutoLoad: true})

	c.SetSort("numero", false)
	require.Eventually(t, func() bool { return len(c.Items()) == 10 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, "ordering=numero", f.Calls()[0].Query)
}

func TestController_InitialFiltersAndSort(t *testing.T) {
	f := &mocks.FakeFetcher{Respond: mocks.Paged(1, 10)}
	c := newTestController(t, "presupuestos", f, Options{
		Filters: []sharedDomain.Filter{{ID: "url-filter-0", Field: "estado", Operator: sharedDomain.OpEquals, Value: "2"}},
		Search:  "cemento",
	})
	assert.Equal(t, "estado=2&ordering=-fecha&search=cemento", c.Key().Query)
}
