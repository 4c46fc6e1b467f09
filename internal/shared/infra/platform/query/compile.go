package query

import (
	"net/url"
	"strconv"
	"strings"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// Compile traduce filtros, búsqueda y orden al query string que entiende la
// API. Los valores van sin escapar; Encode se encarga al armar la URL.
// No valida operadores: uno desconocido se trata como equals.
func Compile(filters []sharedDomain.Filter, search string, sort Sort, names sharedDomain.FieldNameMap) string {
	parts := make([]string, 0, len(filters)+2)
	for _, f := range filters {
		parts = append(parts, fragment(f, names))
	}
	if sort.Field != "" {
		parts = append(parts, "ordering="+sort.String())
	}
	if search != "" {
		parts = append(parts, "search="+search)
	}
	return strings.Join(parts, "&")
}

func fragment(f sharedDomain.Filter, names sharedDomain.FieldNameMap) string {
	suffix := names.Suffix(f.Field)
	switch f.Operator {
	case sharedDomain.OpContains:
		return f.Field + suffix + "__icontains=" + f.Value
	case sharedDomain.OpStartsWith:
		return f.Field + suffix + "__startswith=" + f.Value
	case sharedDomain.OpEndsWith:
		return f.Field + suffix + "__endswith=" + f.Value
	// isnull y los comparadores van sobre el campo sin sufijo.
	case sharedDomain.OpIsEmpty:
		return f.Field + "__isnull=true"
	case sharedDomain.OpIsNotEmpty:
		return f.Field + "__isnull=false"
	case sharedDomain.OpGreaterThan:
		return f.Field + "__gt=" + f.Value
	case sharedDomain.OpLessThan:
		return f.Field + "__lt=" + f.Value
	default:
		return f.Field + suffix + "=" + f.Value
	}
}

// WithPage agrega el número de página al query compilado.
func WithPage(compiled string, page int) string {
	p := "page=" + strconv.Itoa(page)
	if compiled == "" {
		return p
	}
	return compiled + "&" + p
}

// Encode escapa clave y valor de cada fragmento conservando el orden.
// Un fragmento sin "=" queda como clave con valor vacío.
func Encode(compiled string) string {
	if compiled == "" {
		return ""
	}
	parts := strings.Split(compiled, "&")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		key, value, _ := strings.Cut(part, "=")
		out = append(out, url.QueryEscape(key)+"="+url.QueryEscape(value))
	}
	return strings.Join(out, "&")
}

// NextPage extrae el parámetro page de la URL "next" que devuelve el servidor.
// Devuelve false si no hay URL o no trae un número de página utilizable.
func NextPage(next string) (int, bool) {
	if next == "" {
		return 0, false
	}
	u, err := url.Parse(next)
	if err != nil {
		return 0, false
	}
	n, err := strconv.Atoi(u.Query().Get("page"))
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}
