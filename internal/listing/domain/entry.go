package domain

import (
	"time"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

type Record = sharedDomain.Record

// Page es una respuesta de la API tal cual llega: resultados más la URL de
// la página siguiente (nil en la última).
type Page struct {
	Count    *int     `json:"count,omitempty"`
	Next     *string  `json:"next"`
	Previous *string  `json:"previous,omitempty"`
	Results  []Record `json:"results"`
}

// QueryKey identifica una partición de la caché. Dos claves son iguales si
// y solo si compilan al mismo query para el mismo recurso.
type QueryKey struct {
	Resource string                `json:"resource"`
	Query    string                `json:"query"`
	Filters  []sharedDomain.Filter `json:"filters,omitempty"`
	Search   string                `json:"search,omitempty"`
	Sort     string                `json:"sort,omitempty"`
	Desc     bool                  `json:"desc,omitempty"`
}

func (k QueryKey) String() string {
	return k.Resource + "?" + k.Query
}

// CacheEntry son las páginas acumuladas para una clave. Mutations cuenta las
// mutaciones optimistas aplicadas desde que se creó la entrada.
type CacheEntry struct {
	Key       string    `json:"key"`
	Pages     []Page    `json:"pages"`
	Mutations uint64    `json:"mutations"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Items aplana las páginas en orden.
func (e CacheEntry) Items() []Record {
	n := 0
	for _, p := range e.Pages {
		n += len(p.Results)
	}
	out := make([]Record, 0, n)
	for _, p := range e.Pages {
		out = append(out, p.Results...)
	}
	return out
}

// NextURL es el "next" de la última página, o "" si no hay más.
func (e CacheEntry) NextURL() string {
	if len(e.Pages) == 0 {
		return ""
	}
	if next := e.Pages[len(e.Pages)-1].Next; next != nil {
		return *next
	}
	return ""
}

// ---------------- Estado ----------------

type State int

const (
	StateEmpty State = iota
	StateLoading
	StateReady
	StateFetchingMore
	StateExhausted
	StateFailed
)

var stateNames = [...]string{"EMPTY", "LOADING", "READY", "FETCHING_MORE", "EXHAUSTED", "FAILED"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}
