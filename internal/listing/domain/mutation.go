package domain

// Las funciones de este archivo no modifican su entrada: devuelven páginas
// nuevas y comparten los registros que no cambian. Ninguna toca Next.

// PrependItem agrega rec al principio de la primera página.
func PrependItem(pages []Page, rec Record) []Page {
	if len(pages) == 0 {
		return []Page{{Results: []Record{rec}}}
	}
	out := append([]Page(nil), pages...)
	first := out[0]
	results := make([]Record, 0, len(first.Results)+1)
	results = append(results, rec)
	first.Results = append(results, first.Results...)
	out[0] = first
	return out
}

// ReplaceItem reemplaza en su lugar cada registro con el mismo id.
func ReplaceItem(pages []Page, rec Record) []Page {
	id := rec.ID()
	out := append([]Page(nil), pages...)
	for i, p := range out {
		for j, r := range p.Results {
			if r.ID() != id {
				continue
			}
			results := append([]Record(nil), p.Results...)
			results[j] = rec
			p.Results = results
			out[i] = p
		}
	}
	return out
}

// RemoveItem quita el id de todas las páginas. Las páginas vacías se conservan.
func RemoveItem(pages []Page, id string) []Page {
	out := append([]Page(nil), pages...)
	for i, p := range out {
		results := make([]Record, 0, len(p.Results))
		for _, r := range p.Results {
			if r.ID() != id {
				results = append(results, r)
			}
		}
		p.Results = results
		out[i] = p
	}
	return out
}

func ContainsItem(pages []Page, id string) bool {
	for _, p := range pages {
		for _, r := range p.Results {
			if r.ID() == id {
				return true
			}
		}
	}
	return false
}

// ---------------- Journal ----------------

type MutationKind int

const (
	MutationAdd MutationKind = iota
	MutationUpdate
	MutationDelete
)

// Mutation es una mutación optimista registrada para reaplicarla sobre
// páginas que llegan después.
type Mutation struct {
	Seq    uint64
	Kind   MutationKind
	Record Record
	ID     string
}

// Apply aplica la mutación sobre páginas recién descargadas. Con prepend,
// un alta ausente se inserta al principio (recarga de la página 1); sin él,
// un alta que ya vino del servidor se descarta porque la lista local ya la
// tiene en la primera página.
func (m Mutation) Apply(pages []Page, prepend bool) []Page {
	switch m.Kind {
	case MutationAdd:
		id := m.Record.ID()
		if prepend {
			if ContainsItem(pages, id) {
				return ReplaceItem(pages, m.Record)
			}
			return PrependItem(pages, m.Record)
		}
		return RemoveItem(pages, id)
	case MutationUpdate:
		return ReplaceItem(pages, m.Record)
	case MutationDelete:
		return RemoveItem(pages, m.ID)
	}
	return pages
}
