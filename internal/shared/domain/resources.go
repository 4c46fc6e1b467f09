package domain

import (
	"errors"
	"fmt"
)

var ErrUnknownResource = errors.New("unknown resource")

// DefaultSentinelOffset es la distancia al final de la lista a la que se
// dispara la carga de la página siguiente.
const DefaultSentinelOffset = 10

// FieldNameMap traduce un campo lógico al sufijo de lookup que espera la API
// (p. ej. proveedor -> __nombre_fantasia_pila).
type FieldNameMap map[string]string

func (m FieldNameMap) Suffix(field string) string {
	return m[field]
}

// Qualified devuelve el campo con su sufijo, tal como se usa en ordering.
func (m FieldNameMap) Qualified(field string) string {
	return field + m[field]
}

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// ResourceConfig es la configuración estática de un listado.
type ResourceConfig struct {
	Name    string
	Path    string
	Fields  []FilterField
	Columns []Column
	// Campo lógico de orden inicial; vacío usa la primera columna.
	DefaultSort    string
	SentinelOffset int
	// Paths de lookup (a__b) sobre los que el servidor aplica search.
	SearchFields []string
	// OnCreate ajusta el registro devuelto por la API antes de insertarlo en la lista.
	OnCreate func(Record) Record
}

func (c ResourceConfig) Field(id string) (FilterField, bool) {
	for _, f := range c.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return FilterField{}, false
}

func (c ResourceConfig) Offset() int {
	if c.SentinelOffset > 0 {
		return c.SentinelOffset
	}
	return DefaultSentinelOffset
}

// ---------------- Registry ----------------

type Registry struct {
	names     FieldNameMap
	resources map[string]ResourceConfig
	order     []string
}

func NewRegistry(names FieldNameMap, cfgs ...ResourceConfig) *Registry {
	r := &Registry{names: names, resources: make(map[string]ResourceConfig, len(cfgs))}
	for _, c := range cfgs {
		if c.Path == "" {
			c.Path = "/api/" + c.Name + "/"
		}
		if _, dup := r.resources[c.Name]; !dup {
			r.order = append(r.order, c.Name)
		}
		r.resources[c.Name] = c
	}
	return r
}

func (r *Registry) Get(name string) (ResourceConfig, error) {
	c, ok := r.resources[name]
	if !ok {
		return ResourceConfig{}, fmt.Errorf("%w: %q", ErrUnknownResource, name)
	}
	return c, nil
}

// Names devuelve los recursos en orden de registro.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) FieldNames() FieldNameMap {
	return r.names
}

// InitialSort devuelve el campo (ya con sufijo) y la dirección con la que
// abre el listado: más reciente primero.
func (r *Registry) InitialSort(c ResourceConfig) (string, bool) {
	if c.DefaultSort != "" {
		return c.DefaultSort, true
	}
	if len(c.Columns) == 0 {
		return "", false
	}
	return r.names.Qualified(c.Columns[0].Key), true
}

// ToggleSort reproduce el ciclo de clic en el encabezado: columna nueva ->
// desc, misma columna desc -> asc, misma columna asc -> sin orden.
func (r *Registry) ToggleSort(currentField string, currentDesc bool, column string) (string, bool) {
	target := r.names.Qualified(column)
	if currentField != target {
		return target, true
	}
	if currentDesc {
		return target, false
	}
	return "", false
}
