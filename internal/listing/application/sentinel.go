package application

import (
	"context"
	"sync"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// ScrollList es lo que el sentinel necesita del listado.
type ScrollList interface {
	Len() int
	HasMore() bool
	Busy() bool
	LoadMore(ctx context.Context) error
}

// Sentinel marca la fila que, al volverse visible, pide la página siguiente.
// La fila es la que está offset posiciones antes del final de la lista.
type Sentinel struct {
	offset int
	list   ScrollList

	mu      sync.Mutex
	target  int
	visible bool
}

func NewSentinel(offset int, list ScrollList) *Sentinel {
	if offset <= 0 {
		offset = sharedDomain.DefaultSentinelOffset
	}
	return &Sentinel{offset: offset, list: list, target: -1}
}

// Index es la posición de la fila sentinel, nunca negativa.
func (s *Sentinel) Index() int {
	return indexFor(s.list.Len(), s.offset)
}

func indexFor(n, offset int) int {
	if i := n - offset; i > 0 {
		return i
	}
	return 0
}

// IsSentinel indica si el host debe observar la fila i.
func (s *Sentinel) IsSentinel(i int) bool {
	n := s.list.Len()
	return n > 0 && i == indexFor(n, s.offset)
}

// Observe procesa un cambio de visibilidad reportado por el host. Pide la
// página siguiente una sola vez por transición de no visible a visible, y
// solo si hay más páginas y nada en vuelo. Devuelve true si disparó la carga.
func (s *Sentinel) Observe(ctx context.Context, index int, intersecting bool) (bool, error) {
	n := s.list.Len()
	target := indexFor(n, s.offset)

	s.mu.Lock()
	if target != s.target {
		// la lista creció: es otra fila, arranca como no visible
		s.target = target
		s.visible = false
	}
	if n == 0 || index != target {
		s.mu.Unlock()
		return false, nil
	}
	was := s.visible
	s.visible = intersecting
	s.mu.Unlock()

	if !intersecting || was {
		return false, nil
	}
	if !s.list.HasMore() || s.list.Busy() {
		return false, nil
	}
	return true, s.list.LoadMore(ctx)
}
