package application

import "github.com/davicafu/backoffice/internal/listing/domain"

// keyState es el estado transitorio de una clave: qué descargas están en
// vuelo y qué mutaciones hubo desde que empezaron. No se persiste en el store.
type keyState struct {
	loading      bool
	fetchingMore bool
	refetching   bool
	err          error

	// epoch cambia cuando la entrada se descarta o se reemplaza; una
	// respuesta con epoch viejo no se escribe.
	epoch uint64

	seq      uint64
	ops      []domain.Mutation
	inflight map[uint64]int
}

func newKeyState() *keyState {
	return &keyState{inflight: make(map[uint64]int)}
}

func (s *keyState) busy() bool {
	return s.loading || s.fetchingMore || s.refetching
}

// begin registra una descarga y devuelve la marca contra la que se
// comparan las mutaciones posteriores.
func (s *keyState) begin() uint64 {
	s.inflight[s.seq]++
	return s.seq
}

func (s *keyState) end(mark uint64) {
	s.inflight[mark]--
	if s.inflight[mark] <= 0 {
		delete(s.inflight, mark)
	}
	s.prune()
}

// record numera la mutación y la guarda solo si hay descargas que puedan
// pisarla.
func (s *keyState) record(m domain.Mutation) {
	s.seq++
	m.Seq = s.seq
	if len(s.inflight) > 0 {
		s.ops = append(s.ops, m)
	}
}

// since devuelve las mutaciones posteriores a mark, en orden.
func (s *keyState) since(mark uint64) []domain.Mutation {
	var out []domain.Mutation
	for _, m := range s.ops {
		if m.Seq > mark {
			out = append(out, m)
		}
	}
	return out
}

func (s *keyState) prune() {
	if len(s.inflight) == 0 {
		s.ops = nil
		return
	}
	oldest := s.seq
	for mark := range s.inflight {
		if mark < oldest {
			oldest = mark
		}
	}
	kept := s.ops[:0]
	for _, m := range s.ops {
		if m.Seq > oldest {
			kept = append(kept, m)
		}
	}
	s.ops = kept
}

func (s *keyState) idle() bool {
	return !s.busy() && s.err == nil && len(s.inflight) == 0 && len(s.ops) == 0
}

func replay(page domain.Page, ops []domain.Mutation, prepend bool) domain.Page {
	if len(ops) == 0 {
		return page
	}
	pages := []domain.Page{page}
	for _, m := range ops {
		pages = m.Apply(pages, prepend)
	}
	return pages[0]
}
