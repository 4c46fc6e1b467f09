package domain

import (
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	"github.com/davicafu/backoffice/internal/shared/infra/platform/query"
)

// ---------------- Lookups ----------------

type Lookup string

const (
	LookupExact      Lookup = "exact"
	LookupIExact     Lookup = "iexact"
	LookupIContains  Lookup = "icontains"
	LookupContains   Lookup = "contains"
	LookupStartsWith Lookup = "startswith"
	LookupEndsWith   Lookup = "endswith"
	LookupIsNull     Lookup = "isnull"
	LookupGt         Lookup = "gt"
	LookupGte        Lookup = "gte"
	LookupLt         Lookup = "lt"
	LookupLte        Lookup = "lte"
)

var lookups = map[Lookup]struct{}{
	LookupExact: {}, LookupIExact: {}, LookupIContains: {}, LookupContains: {},
	LookupStartsWith: {}, LookupEndsWith: {}, LookupIsNull: {},
	LookupGt: {}, LookupGte: {}, LookupLt: {}, LookupLte: {},
}

const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
	ParamOrdering = "ordering"
	ParamSearch   = "search"
	ParamFormat   = "format"
)

var segmentRe = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// ---------------- Criterion ----------------

// Criterion es una condición sobre un camino dentro del documento JSON.
// Para isnull, Value es "true" o "false".
type Criterion struct {
	Path   []string
	Lookup Lookup
	Value  string
}

// ParseCriterion interpreta un parámetro "a__b__lookup=valor". Sin lookup
// conocido al final, el lookup es exact y todos los segmentos son camino.
func ParseCriterion(key, value string) (Criterion, error) {
	parts := strings.Split(key, "__")
	c := Criterion{Lookup: LookupExact, Value: value}
	if len(parts) > 1 {
		if _, ok := lookups[Lookup(parts[len(parts)-1])]; ok {
			c.Lookup = Lookup(parts[len(parts)-1])
			parts = parts[:len(parts)-1]
		}
	}
	path, err := ParsePath(parts)
	if err != nil {
		return Criterion{}, err
	}
	c.Path = path

	if c.Lookup == LookupIsNull {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return Criterion{}, fmt.Errorf("%w: isnull needs a boolean, got %q", ErrInvalidLookup, value)
		}
		c.Value = strconv.FormatBool(b)
	}
	return c, nil
}

// ParsePath valida los segmentos de un camino.
func ParsePath(parts []string) ([]string, error) {
	if len(parts) == 0 {
		return nil, fmt.Errorf("%w: empty field", ErrInvalidLookup)
	}
	for _, p := range parts {
		if !segmentRe.MatchString(p) {
			return nil, fmt.Errorf("%w: bad field segment %q", ErrInvalidLookup, p)
		}
	}
	return parts, nil
}

// IsNull indica el sentido de un criterio isnull.
func (c Criterion) IsNull() bool {
	return c.Value == "true"
}

// IsID indica si el camino es la clave primaria del documento.
func IsID(path []string) bool {
	return len(path) == 1 && path[0] == "id"
}

// ---------------- ListQuery ----------------

type OrderBy struct {
	Path []string
	Desc bool
}

// ListQuery es un pedido de listado ya validado.
type ListQuery struct {
	Resource     string
	Criteria     []Criterion
	Search       string
	SearchFields [][]string
	Ordering     []OrderBy
	Page         query.PagePagination
}

const (
	DefaultPageSize = 30
	MaxPageSize     = 1000
)

// ParseListQuery separa los parámetros reservados de los filtros. Los
// errores de filtros envuelven ErrInvalidLookup y los de página ErrInvalidPage.
func ParseListQuery(cfg sharedDomain.ResourceConfig, values url.Values, pageSize int) (ListQuery, error) {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	q := ListQuery{
		Resource: cfg.Name,
		Search:   strings.TrimSpace(values.Get(ParamSearch)),
		Page:     query.PagePagination{Page: 1, Size: pageSize},
	}

	if v := values.Get(ParamPage); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return ListQuery{}, fmt.Errorf("%w: %q", ErrInvalidPage, v)
		}
		q.Page.Page = n
	}
	if v := values.Get(ParamPageSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			q.Page.Size = min(n, MaxPageSize)
		}
	}

	if q.Search != "" {
		for _, f := range cfg.SearchFields {
			path, err := ParsePath(strings.Split(f, "__"))
			if err != nil {
				return ListQuery{}, err
			}
			q.SearchFields = append(q.SearchFields, path)
		}
	}

	for _, s := range query.ParseOrdering(values.Get(ParamOrdering)) {
		path, err := ParsePath(strings.Split(s.Field, "__"))
		if err != nil {
			return ListQuery{}, err
		}
		q.Ordering = append(q.Ordering, OrderBy{Path: path, Desc: s.Desc})
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch k {
		case ParamPage, ParamPageSize, ParamOrdering, ParamSearch, ParamFormat:
			continue
		}
		for _, v := range values[k] {
			// un filtro vacío no filtra
			if v == "" {
				continue
			}
			c, err := ParseCriterion(k, v)
			if err != nil {
				return ListQuery{}, err
			}
			q.Criteria = append(q.Criteria, c)
		}
	}
	return q, nil
}

// CacheKey es una forma canónica del pedido: mismo listado, misma clave.
func (q ListQuery) CacheKey() string {
	v := url.Values{}
	for _, c := range q.Criteria {
		k := strings.Join(c.Path, "__") + "__" + string(c.Lookup)
		v.Add(k, c.Value)
	}
	if q.Search != "" {
		v.Set(ParamSearch, q.Search)
	}
	order := make([]string, 0, len(q.Ordering))
	for _, o := range q.Ordering {
		order = append(order, query.Sort{Field: strings.Join(o.Path, "__"), Desc: o.Desc}.String())
	}
	if len(order) > 0 {
		v.Set(ParamOrdering, strings.Join(order, ","))
	}
	v.Set(ParamPage, strconv.Itoa(q.Page.Page))
	v.Set(ParamPageSize, strconv.Itoa(q.Page.Size))
	return q.Resource + "?" + v.Encode()
}
