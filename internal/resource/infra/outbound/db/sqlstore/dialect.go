package sqlstore

import (
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/davicafu/backoffice/internal/resource/domain"
)

// Dialect traduce caminos JSON y lookups a SQL de cada motor. Los segmentos
// de camino ya vienen validados (letras, dígitos y guión bajo), por eso se
// pueden escribir literales dentro de la expresión.
type Dialect interface {
	Name() string
	Placeholder() sq.PlaceholderFormat
	// Text es el valor del camino como texto.
	Text(path []string) string
	// Number es el valor del camino como número, NULL si no lo es.
	Number(path []string) string
	// Order es la expresión de ordenamiento del camino.
	Order(path []string) string
	// JSON envuelve el placeholder de un documento serializado.
	JSON() string
	// Contains, StartsWith y EndsWith son sensibles a mayúsculas.
	Contains(expr string, v string) sq.Sqlizer
	StartsWith(expr string, v string) sq.Sqlizer
	EndsWith(expr string, v string) sq.Sqlizer
	Schema() []string
}

// ---------------- SQLite ----------------

type SQLite struct{}

func (SQLite) Name() string                      { return "sqlite" }
func (SQLite) Placeholder() sq.PlaceholderFormat { return sq.Question }

func sqlitePath(path []string) string {
	var b strings.Builder
	b.WriteString("'$")
	for _, p := range path {
		b.WriteString(`."`)
		b.WriteString(p)
		b.WriteString(`"`)
	}
	b.WriteString("'")
	return b.String()
}

func (SQLite) raw(path []string) string {
	if domain.IsID(path) {
		return "id"
	}
	return "json_extract(data, " + sqlitePath(path) + ")"
}

func (d SQLite) Text(path []string) string {
	return "CAST(" + d.raw(path) + " AS TEXT)"
}

func (d SQLite) Number(path []string) string {
	if domain.IsID(path) {
		return "id"
	}
	return "(CASE WHEN json_type(data, " + sqlitePath(path) + ") IN ('integer','real') THEN " + d.raw(path) + " END)"
}

func (d SQLite) Order(path []string) string { return d.raw(path) }
func (SQLite) JSON() string                 { return "?" }

func (SQLite) Contains(expr, v string) sq.Sqlizer {
	return sq.Expr("instr("+expr+", ?) > 0", v)
}

func (SQLite) StartsWith(expr, v string) sq.Sqlizer {
	return sq.Expr("substr("+expr+", 1, length(?)) = ?", v, v)
}

func (SQLite) EndsWith(expr, v string) sq.Sqlizer {
	return sq.Expr("substr("+expr+", -length(?)) = ?", v, v)
}

func (SQLite) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			resource TEXT NOT NULL,
			data TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS documents_resource_idx ON documents (resource, id)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id TEXT PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT 0
		)`,
	}
}

// ---------------- PostgreSQL ----------------

type Postgres struct{}

func (Postgres) Name() string                      { return "postgres" }
func (Postgres) Placeholder() sq.PlaceholderFormat { return sq.Dollar }

func pgPath(path []string) string {
	return "'{" + strings.Join(path, ",") + "}'"
}

func (Postgres) Text(path []string) string {
	if domain.IsID(path) {
		return "id::text"
	}
	return "(data #>> " + pgPath(path) + ")"
}

func (Postgres) Number(path []string) string {
	if domain.IsID(path) {
		return "id::numeric"
	}
	p := pgPath(path)
	return "(CASE WHEN jsonb_typeof(data #> " + p + ") = 'number' THEN (data #>> " + p + ")::numeric END)"
}

func (Postgres) Order(path []string) string {
	if domain.IsID(path) {
		return "id"
	}
	return "(data #> " + pgPath(path) + ")"
}

func (Postgres) JSON() string { return "CAST(? AS jsonb)" }

func (Postgres) Contains(expr, v string) sq.Sqlizer {
	return sq.Expr("strpos("+expr+", ?) > 0", v)
}

func (Postgres) StartsWith(expr, v string) sq.Sqlizer {
	return sq.Expr("left("+expr+", char_length(?)) = ?", v, v)
}

func (Postgres) EndsWith(expr, v string) sq.Sqlizer {
	return sq.Expr("right("+expr+", char_length(?)) = ?", v, v)
}

func (Postgres) Schema() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id BIGSERIAL PRIMARY KEY,
			resource TEXT NOT NULL,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS documents_resource_idx ON documents (resource, id)`,
		`CREATE TABLE IF NOT EXISTS outbox (
			id UUID PRIMARY KEY,
			aggregate_type TEXT NOT NULL,
			aggregate_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			payload JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			processed BOOLEAN NOT NULL DEFAULT false
		)`,
	}
}

// ---------------- Condiciones ----------------

func escapeLike(v string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(v)
}

// Condition traduce un criterio a SQL del dialecto.
func Condition(d Dialect, c domain.Criterion) (sq.Sqlizer, error) {
	text := d.Text(c.Path)
	switch c.Lookup {
	case domain.LookupExact:
		return sq.Expr(text+" = ?", c.Value), nil
	case domain.LookupIExact:
		return sq.Expr("LOWER("+text+") = LOWER(?)", c.Value), nil
	case domain.LookupIContains:
		return iContains(text, c.Value), nil
	case domain.LookupContains:
		return d.Contains(text, c.Value), nil
	case domain.LookupStartsWith:
		return d.StartsWith(text, c.Value), nil
	case domain.LookupEndsWith:
		return d.EndsWith(text, c.Value), nil
	case domain.LookupIsNull:
		if c.IsNull() {
			return sq.Expr(text + " IS NULL"), nil
		}
		return sq.Expr(text + " IS NOT NULL"), nil
	case domain.LookupGt, domain.LookupGte, domain.LookupLt, domain.LookupLte:
		return compare(d, c), nil
	default:
		return nil, domain.ErrInvalidLookup
	}
}

func iContains(text, v string) sq.Sqlizer {
	return sq.Expr("LOWER("+text+") LIKE LOWER(?) ESCAPE '\\'", "%"+escapeLike(v)+"%")
}

var compareOps = map[domain.Lookup]string{
	domain.LookupGt:  ">",
	domain.LookupGte: ">=",
	domain.LookupLt:  "<",
	domain.LookupLte: "<=",
}

// compare usa comparación numérica si el valor es un número y de texto si
// no (las fechas ISO comparan bien como texto).
func compare(d Dialect, c domain.Criterion) sq.Sqlizer {
	op := compareOps[c.Lookup]
	if n, err := strconv.ParseFloat(c.Value, 64); err == nil {
		return sq.Expr(d.Number(c.Path)+" "+op+" ?", n)
	}
	return sq.Expr(d.Text(c.Path)+" "+op+" ?", c.Value)
}

// Search es el OR de icontains sobre los campos de búsqueda.
func Search(d Dialect, fields [][]string, term string) sq.Sqlizer {
	or := sq.Or{}
	for _, f := range fields {
		or = append(or, iContains(d.Text(f), term))
	}
	return or
}
