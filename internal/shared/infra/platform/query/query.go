package query

import "strings"

// ---------- Paginación / ordenamiento ----------

// PagePagination es la paginación por número de página de la API (page, page_size).
type PagePagination struct {
	Page int
	Size int
}

func (p PagePagination) Offset() int {
	return (p.Page - 1) * p.Size
}

// Sort indica campo y dirección. Field vacío significa sin orden.
type Sort struct {
	Field string // ej. "fecha_documento", "proveedor__nombre_fantasia_pila"
	Desc  bool
}

// String devuelve el valor de ordering: "-campo" si es descendente.
func (s Sort) String() string {
	if s.Field == "" {
		return ""
	}
	if s.Desc {
		return "-" + s.Field
	}
	return s.Field
}

// ParseOrdering interpreta "a,-b" como lista de Sort.
func ParseOrdering(v string) []Sort {
	var out []Sort
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" || part == "-" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			out = append(out, Sort{Field: part[1:], Desc: true})
		} else {
			out = append(out, Sort{Field: part})
		}
	}
	return out
}
