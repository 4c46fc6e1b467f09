package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/davicafu/backoffice/internal/listing/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	"github.com/davicafu/backoffice/internal/shared/infra/platform/query"
)

const DefaultDebounce = 600 * time.Millisecond

type Options struct {
	// Debounce aplica a filtros y búsqueda; el orden cambia al instante.
	// Negativo desactiva la espera.
	Debounce       time.Duration
	SentinelOffset int
	Filters        []sharedDomain.Filter
	Search         string
	// Sort nil usa el orden inicial del recurso.
	Sort *query.Sort
	// AutoLoad descarga la página 1 cada vez que cambia la clave.
	AutoLoad bool
}

// Controller maneja un listado: compila la clave a partir de filtros,
// búsqueda y orden, descarga páginas y aplica mutaciones optimistas.
// Es seguro para uso concurrente.
type Controller struct {
	cfg      sharedDomain.ResourceConfig
	registry *sharedDomain.Registry
	fetcher  domain.PageFetcher
	store    domain.EntryStore
	log      *zap.Logger

	mu             sync.Mutex
	filters        []sharedDomain.Filter
	search         string
	appliedFilters []sharedDomain.Filter
	appliedSearch  string
	sort           query.Sort
	key            domain.QueryKey
	keys           map[string]*keyState
	listeners      []func(domain.QueryKey)
	autoLoad       bool

	group     singleflight.Group
	filterDeb *Debouncer[[]sharedDomain.Filter]
	searchDeb *Debouncer[string]
	sentinel  *Sentinel

	bg     context.Context
	cancel context.CancelFunc
}

func NewController(
	registry *sharedDomain.Registry,
	resource string,
	fetcher domain.PageFetcher,
	store domain.EntryStore,
	log *zap.Logger,
	opts Options,
) (*Controller, error) {
	cfg, err := registry.Get(resource)
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:            cfg,
		registry:       registry,
		fetcher:        fetcher,
		store:          store,
		log:            log.With(zap.String("resource", resource)),
		filters:        cloneFilters(opts.Filters),
		search:         opts.Search,
		appliedFilters: cloneFilters(opts.Filters),
		appliedSearch:  opts.Search,
		keys:           make(map[string]*keyState),
		autoLoad:       opts.AutoLoad,
	}
	if opts.Sort != nil {
		c.sort = *opts.Sort
	} else {
		field, desc := registry.InitialSort(cfg)
		c.sort = query.Sort{Field: field, Desc: desc}
	}
	c.key = c.buildKey()
	c.bg, c.cancel = context.WithCancel(context.Background())

	wait := opts.Debounce
	if wait == 0 {
		wait = DefaultDebounce
	}
	if wait < 0 {
		wait = 0
	}
	c.filterDeb = NewDebouncer(wait, c.applyFilters)
	c.searchDeb = NewDebouncer(wait, c.applySearch)

	offset := opts.SentinelOffset
	if offset <= 0 {
		offset = cfg.Offset()
	}
	c.sentinel = NewSentinel(offset, c)

	return c, nil
}

// Close detiene los debouncers y las cargas automáticas pendientes.
func (c *Controller) Close() {
	c.filterDeb.Stop()
	c.searchDeb.Stop()
	c.cancel()
}

func (c *Controller) Resource() sharedDomain.ResourceConfig { return c.cfg }

func (c *Controller) Sentinel() *Sentinel { return c.sentinel }

// OnKeyChange registra fn para cada cambio efectivo de clave.
func (c *Controller) OnKeyChange(fn func(domain.QueryKey)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// ---------------- Entrada del usuario ----------------

func (c *Controller) SetFilters(filters []sharedDomain.Filter) {
	v := cloneFilters(filters)
	c.mu.Lock()
	c.filters = v
	c.mu.Unlock()
	c.filterDeb.Set(v)
}

// Filters devuelve los filtros tal como los editó el usuario, aunque todavía
// no se hayan aplicado.
func (c *Controller) Filters() []sharedDomain.Filter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return cloneFilters(c.filters)
}

func (c *Controller) SetSearch(search string) {
	c.mu.Lock()
	c.search = search
	c.mu.Unlock()
	c.searchDeb.Set(search)
}

func (c *Controller) Search() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.search
}

// Flush aplica ya los filtros y la búsqueda pendientes.
func (c *Controller) Flush() {
	c.filterDeb.Flush()
	c.searchDeb.Flush()
}

func (c *Controller) SetSort(field string, desc bool) {
	c.mu.Lock()
	c.sort = query.Sort{Field: field, Desc: desc}
	key, changed := c.rekey()
	c.mu.Unlock()
	c.keyChanged(key, changed)
}

// ToggleSort es el clic sobre el encabezado de una columna.
func (c *Controller) ToggleSort(column string) query.Sort {
	c.mu.Lock()
	field, desc := c.registry.ToggleSort(c.sort.Field, c.sort.Desc, column)
	c.sort = query.Sort{Field: field, Desc: desc}
	s := c.sort
	key, changed := c.rekey()
	c.mu.Unlock()
	c.keyChanged(key, changed)
	return s
}

func (c *Controller) Sort() query.Sort {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sort
}

func (c *Controller) Key() domain.QueryKey {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.key
}

func (c *Controller) applyFilters(v []sharedDomain.Filter) {
	c.mu.Lock()
	c.appliedFilters = v
	key, changed := c.rekey()
	c.mu.Unlock()
	c.keyChanged(key, changed)
}

func (c *Controller) applySearch(v string) {
	c.mu.Lock()
	c.appliedSearch = v
	key, changed := c.rekey()
	c.mu.Unlock()
	c.keyChanged(key, changed)
}

func (c *Controller) buildKey() domain.QueryKey {
	return domain.QueryKey{
		Resource: c.cfg.Name,
		Query:    query.Compile(c.appliedFilters, c.appliedSearch, c.sort, c.registry.FieldNames()),
		Filters:  cloneFilters(c.appliedFilters),
		Search:   c.appliedSearch,
		Sort:     c.sort.Field,
		Desc:     c.sort.Desc,
	}
}

// rekey recalcula la clave. Requiere c.mu.
func (c *Controller) rekey() (domain.QueryKey, bool) {
	next := c.buildKey()
	if next.String() == c.key.String() {
		c.key = next
		return next, false
	}
	c.key = next
	return next, true
}

func (c *Controller) keyChanged(key domain.QueryKey, changed bool) {
	if !changed {
		return
	}
	c.log.Debug("query key changed", zap.String("key", key.String()))

	c.mu.Lock()
	listeners := make([]func(domain.QueryKey), len(c.listeners))
	copy(listeners, c.listeners)
	auto := c.autoLoad
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(key)
	}
	if auto {
		go func() {
			if err := c.load(c.bg, key); err != nil {
				c.log.Warn("auto load failed", zap.Error(err))
			}
		}()
	}
}

// ---------------- Descargas ----------------

// Load descarga la página 1 de la clave actual si no está en el store.
// Llamadas concurrentes para la misma clave comparten la petición.
func (c *Controller) Load(ctx context.Context) error {
	return c.load(ctx, c.Key())
}

func (c *Controller) load(ctx context.Context, key domain.QueryKey) error {
	id := key.String()
	if _, ok := c.store.Get(id); ok {
		return nil
	}
	_, err, _ := c.group.Do(id, func() (interface{}, error) {
		return nil, c.fetchFirst(ctx, key)
	})
	return err
}

func (c *Controller) fetchFirst(ctx context.Context, key domain.QueryKey) error {
	id := key.String()

	c.mu.Lock()
	if _, ok := c.store.Get(id); ok {
		c.mu.Unlock()
		return nil
	}
	st := c.state(id)
	st.loading = true
	st.err = nil
	st.epoch++
	epoch := st.epoch
	mark := st.begin()
	c.mu.Unlock()

	page, err := c.fetcher.FetchPage(ctx, c.cfg.Path, key.Query, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	st.loading = false
	ops := st.since(mark)
	st.end(mark)

	if err != nil {
		st.err = err
		c.log.Warn("initial load failed", zap.String("key", id), zap.Error(err))
		return fmt.Errorf("load %s: %w", id, err)
	}
	defer c.release(id)
	if st.epoch != epoch {
		return nil
	}

	c.store.Set(id, domain.CacheEntry{
		Key:       id,
		Pages:     []domain.Page{replay(page, ops, true)},
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

// FetchNextPage agrega la página indicada por el "next" de la última. No
// hace nada sin entrada, con la lista agotada o con otra descarga en vuelo.
func (c *Controller) FetchNextPage(ctx context.Context) error {
	c.mu.Lock()
	key := c.key
	id := key.String()
	entry, ok := c.store.Get(id)
	if !ok {
		c.mu.Unlock()
		return nil
	}
	st := c.state(id)
	n, more := query.NextPage(entry.NextURL())
	if st.busy() || !more {
		c.release(id)
		c.mu.Unlock()
		return nil
	}
	st.fetchingMore = true
	epoch := st.epoch
	mark := st.begin()
	c.mu.Unlock()

	page, err := c.fetcher.FetchPage(ctx, c.cfg.Path, key.Query, n)

	c.mu.Lock()
	defer c.mu.Unlock()
	st.fetchingMore = false
	ops := st.since(mark)
	st.end(mark)
	defer c.release(id)

	if err != nil {
		c.log.Warn("next page failed", zap.String("key", id), zap.Int("page", n), zap.Error(err))
		return fmt.Errorf("fetch page %d of %s: %w", n, id, err)
	}
	if st.epoch != epoch {
		return nil
	}
	entry, ok = c.store.Get(id)
	if !ok {
		return nil
	}
	// con un store compartido otro controlador pudo agregar esta página antes
	if cur, more := query.NextPage(entry.NextURL()); !more || cur != n {
		c.log.Debug("next page already applied", zap.String("key", id), zap.Int("page", n))
		return nil
	}

	pages := make([]domain.Page, 0, len(entry.Pages)+1)
	pages = append(pages, entry.Pages...)
	entry.Pages = append(pages, replay(page, ops, false))
	entry.UpdatedAt = time.Now().UTC()
	c.store.Set(id, entry)
	return nil
}

// Refetch vuelve a descargar la página 1 y reemplaza la entrada. Las
// mutaciones hechas durante la descarga se reaplican sobre la respuesta.
func (c *Controller) Refetch(ctx context.Context) error {
	c.mu.Lock()
	key := c.key
	id := key.String()
	st := c.state(id)
	if st.busy() {
		c.mu.Unlock()
		return nil
	}
	st.refetching = true
	st.epoch++
	epoch := st.epoch
	mark := st.begin()
	c.mu.Unlock()

	page, err := c.fetcher.FetchPage(ctx, c.cfg.Path, key.Query, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	st.refetching = false
	ops := st.since(mark)
	st.end(mark)
	defer c.release(id)

	if err != nil {
		c.log.Warn("refetch failed", zap.String("key", id), zap.Error(err))
		return fmt.Errorf("refetch %s: %w", id, err)
	}
	if st.epoch != epoch {
		return nil
	}

	var mutations uint64
	if prev, ok := c.store.Get(id); ok {
		mutations = prev.Mutations
	}
	c.store.Set(id, domain.CacheEntry{
		Key:       id,
		Pages:     []domain.Page{replay(page, ops, true)},
		Mutations: mutations,
		UpdatedAt: time.Now().UTC(),
	})
	return nil
}

// Invalidate descarta la entrada de la clave actual. Las descargas en vuelo
// para esa clave se ignoran al volver.
func (c *Controller) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.key.String()
	c.store.Invalidate(id)
	if st, ok := c.keys[id]; ok {
		st.epoch++
		st.err = nil
		c.release(id)
	}
}

// ---------------- Lectura ----------------

func (c *Controller) Entry() (domain.CacheEntry, bool) {
	return c.store.Get(c.Key().String())
}

// Items devuelve los registros de todas las páginas cargadas.
func (c *Controller) Items() []domain.Record {
	entry, ok := c.Entry()
	if !ok {
		return nil
	}
	return entry.Items()
}

func (c *Controller) State() domain.State {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.key.String()
	entry, ok := c.store.Get(id)
	st := c.keys[id]
	switch {
	case !ok && st != nil && st.loading:
		return domain.StateLoading
	case !ok && st != nil && st.err != nil:
		return domain.StateFailed
	case !ok:
		return domain.StateEmpty
	case st != nil && st.fetchingMore:
		return domain.StateFetchingMore
	}
	if _, more := query.NextPage(entry.NextURL()); !more {
		return domain.StateExhausted
	}
	return domain.StateReady
}

// Err es el error de la última carga inicial fallida de la clave actual.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.keys[c.key.String()]; ok {
		return st.err
	}
	return nil
}

func (c *Controller) IsLoading() bool {
	return c.flag(func(st *keyState) bool { return st.loading })
}

func (c *Controller) IsFetchingMore() bool {
	return c.flag(func(st *keyState) bool { return st.fetchingMore })
}

// Busy indica cualquier descarga en vuelo para la clave actual.
func (c *Controller) Busy() bool {
	return c.flag(func(st *keyState) bool { return st.busy() })
}

func (c *Controller) flag(fn func(*keyState) bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.keys[c.key.String()]
	return ok && fn(st)
}

// ---------------- Scroll ----------------

func (c *Controller) Len() int {
	entry, ok := c.Entry()
	if !ok {
		return 0
	}
	n := 0
	for _, p := range entry.Pages {
		n += len(p.Results)
	}
	return n
}

// HasMore indica si la última página trae un "next" utilizable.
func (c *Controller) HasMore() bool {
	entry, ok := c.Entry()
	if !ok {
		return false
	}
	_, more := query.NextPage(entry.NextURL())
	return more
}

func (c *Controller) LoadMore(ctx context.Context) error {
	return c.FetchNextPage(ctx)
}

func (c *Controller) SentinelIndex() int {
	return c.sentinel.Index()
}

// Observe recibe del host la visibilidad de la fila index.
func (c *Controller) Observe(ctx context.Context, index int, intersecting bool) (bool, error) {
	return c.sentinel.Observe(ctx, index, intersecting)
}

// ---------------- helpers ----------------

// state devuelve (o crea) el estado transitorio de id. Requiere c.mu.
func (c *Controller) state(id string) *keyState {
	st, ok := c.keys[id]
	if !ok {
		st = newKeyState()
		c.keys[id] = st
	}
	return st
}

// release borra el estado de id si ya no tiene nada en curso. Requiere c.mu.
func (c *Controller) release(id string) {
	if st, ok := c.keys[id]; ok && st.idle() {
		delete(c.keys, id)
	}
}

func cloneFilters(in []sharedDomain.Filter) []sharedDomain.Filter {
	if in == nil {
		return nil
	}
	return append([]sharedDomain.Filter(nil), in...)
}
