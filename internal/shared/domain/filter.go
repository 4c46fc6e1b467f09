package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ---------------- Tipos de campo ----------------

type FieldType string

const (
	FieldText   FieldType = "text"
	FieldSelect FieldType = "select"
	FieldNumber FieldType = "number"
	FieldDate   FieldType = "date"
)

// Option es una opción de un campo tipo select.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterField describe un atributo filtrable de un recurso. Es inmutable.
type FilterField struct {
	ID      string    `json:"id"`
	Label   string    `json:"label"`
	Type    FieldType `json:"type"`
	Options []Option  `json:"options,omitempty"`
}

// ---------------- Operadores ----------------

type Operator string

const (
	OpEquals      Operator = "equals"
	OpContains    Operator = "contains"
	OpStartsWith  Operator = "startsWith"
	OpEndsWith    Operator = "endsWith"
	OpIsEmpty     Operator = "isEmpty"
	OpIsNotEmpty  Operator = "isNotEmpty"
	OpGreaterThan Operator = "greaterThan"
	OpLessThan    Operator = "lessThan"
)

var allOperators = []Operator{
	OpEquals, OpContains, OpStartsWith, OpEndsWith,
	OpIsEmpty, OpIsNotEmpty, OpGreaterThan, OpLessThan,
}

// El primer operador de cada lista es el que se usa al agregar un filtro nuevo.
var operatorsByType = map[FieldType][]Operator{
	FieldText:   {OpContains, OpEquals, OpStartsWith, OpEndsWith, OpIsEmpty, OpIsNotEmpty},
	FieldSelect: {OpEquals, OpIsEmpty, OpIsNotEmpty},
	FieldNumber: {OpEquals, OpIsEmpty, OpIsNotEmpty, OpGreaterThan, OpLessThan},
	FieldDate:   {OpEquals, OpIsEmpty, OpIsNotEmpty},
}

var (
	ErrUnknownOperator = errors.New("unknown operator")
	ErrInvalidOperator = errors.New("operator not valid for field type")
	ErrUnknownField    = errors.New("unknown filter field")
)

// ParseOperator valida un operador recibido como texto (flags, query params).
func ParseOperator(s string) (Operator, error) {
	for _, op := range allOperators {
		if string(op) == s {
			return op, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownOperator, s)
}

// OperatorsFor devuelve los operadores permitidos para un tipo de campo.
func OperatorsFor(t FieldType) []Operator {
	return append([]Operator(nil), operatorsByType[t]...)
}

// Allows indica si el operador pertenece al conjunto válido del tipo.
func (t FieldType) Allows(op Operator) bool {
	for _, candidate := range operatorsByType[t] {
		if candidate == op {
			return true
		}
	}
	return false
}

// ---------------- Filter ----------------

// Filter es una cláusula agregada por el usuario. El ID solo da identidad
// estable al reordenar o editar; no tiene significado de negocio.
type Filter struct {
	ID       string   `json:"id"`
	Field    string   `json:"field"`
	Operator Operator `json:"operator"`
	Value    string   `json:"value"`
}

func NewFilter(field string, op Operator, value string) Filter {
	return Filter{ID: uuid.NewString(), Field: field, Operator: op, Value: value}
}

// NewFilterFor arma el filtro por defecto para un campo: primer operador
// válido y, para selects, la primera opción.
func NewFilterFor(f FilterField) Filter {
	var value string
	if f.Type == FieldSelect && len(f.Options) > 0 {
		value = f.Options[0].Value
	}
	var op Operator
	if ops := operatorsByType[f.Type]; len(ops) > 0 {
		op = ops[0]
	}
	return NewFilter(f.ID, op, value)
}

// ValidateFilters comprueba que cada filtro apunte a un campo conocido y use
// un operador válido para su tipo. El compilador de queries no lo invoca.
func ValidateFilters(fields []FilterField, filters []Filter) error {
	byID := make(map[string]FilterField, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}
	for _, flt := range filters {
		field, ok := byID[flt.Field]
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownField, flt.Field)
		}
		if !field.Type.Allows(flt.Operator) {
			return fmt.Errorf("%w: %s on %s field %q", ErrInvalidOperator, flt.Operator, field.Type, field.ID)
		}
	}
	return nil
}
