package domain

import (
	"net/url"
	"strconv"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// DetailParam es el parámetro de los links a un registro puntual.
const DetailParam = "detalle"

type URLFilterOptions struct {
	Fields    []string
	Operators map[string]sharedDomain.Operator
}

func DefaultURLFilterOptions() URLFilterOptions {
	return URLFilterOptions{
		Fields: []string{"estado", "proveedor", "cliente_proyecto"},
		Operators: map[string]sharedDomain.Operator{
			"estado":           sharedDomain.OpEquals,
			"proveedor":        sharedDomain.OpContains,
			"cliente_proyecto": sharedDomain.OpContains,
		},
	}
}

// FiltersFromQuery arma los filtros iniciales de un link compartido. Los ids
// son estables para que dos lecturas del mismo link den la misma clave.
func FiltersFromQuery(values url.Values, opts URLFilterOptions) []sharedDomain.Filter {
	var out []sharedDomain.Filter
	for i, field := range opts.Fields {
		v := values.Get(field)
		if v == "" {
			continue
		}
		op, ok := opts.Operators[field]
		if !ok {
			op = sharedDomain.OpEquals
		}
		out = append(out, sharedDomain.Filter{
			ID:       "url-filter-" + strconv.Itoa(i),
			Field:    field,
			Operator: op,
			Value:    v,
		})
	}

	if v := values.Get(DetailParam); v != "" && !hasField(out, "id") {
		out = append(out, sharedDomain.Filter{
			ID:       "url-filter-detalle",
			Field:    "id",
			Operator: sharedDomain.OpEquals,
			Value:    v,
		})
	}
	return out
}

// FiltersToQuery escribe en values los filtros sincronizables, reemplazando
// los que hubiera. Los demás parámetros se conservan.
func FiltersToQuery(values url.Values, filters []sharedDomain.Filter, opts URLFilterOptions) url.Values {
	out := url.Values{}
	for k, v := range values {
		out[k] = append([]string(nil), v...)
	}
	for _, field := range opts.Fields {
		out.Del(field)
	}
	out.Del(DetailParam)

	for _, f := range filters {
		if contains(opts.Fields, f.Field) {
			out.Set(f.Field, f.Value)
		}
		if f.Field == "id" {
			out.Set(DetailParam, f.Value)
		}
	}
	return out
}

func hasField(filters []sharedDomain.Filter, field string) bool {
	for _, f := range filters {
		if f.Field == field {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
