package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperatorsFor_DefaultsPerType(t *testing.T) {
	assert.Equal(t, OpContains, OperatorsFor(FieldText)[0])
	assert.Equal(t, OpEquals, OperatorsFor(FieldSelect)[0])
	assert.Equal(t, OpEquals, OperatorsFor(FieldNumber)[0])
	assert.True(t, FieldNumber.Allows(OpGreaterThan))
	assert.False(t, FieldDate.Allows(OpGreaterThan))
	assert.False(t, FieldSelect.Allows(OpContains))
}

func TestNewFilterFor(t *testing.T) {
	f := NewFilterFor(FilterField{ID: "estado", Type: FieldSelect, Options: estadoOptions})
	assert.Equal(t, "estado", f.Field)
	assert.Equal(t, OpEquals, f.Operator)
	assert.Equal(t, "1", f.Value)
	assert.NotEmpty(t, f.ID)

	other := NewFilterFor(FilterField{ID: "proveedor", Type: FieldText})
	assert.NotEqual(t, f.ID, other.ID)
	assert.Equal(t, OpContains, other.Operator)
}

func TestValidateFilters(t *testing.T) {
	reg := DefaultRegistry()
	cfg, err := reg.Get("presupuestos")
	require.NoError(t, err)

	assert.NoError(t, ValidateFilters(cfg.Fields, []Filter{NewFilter("monto", OpGreaterThan, "10")}))
	assert.ErrorIs(t, ValidateFilters(cfg.Fields, []Filter{NewFilter("estado", OpContains, "x")}), ErrInvalidOperator)
	assert.ErrorIs(t, ValidateFilters(cfg.Fields, []Filter{NewFilter("nope", OpEquals, "x")}), ErrUnknownField)
}

func TestParseOperator(t *testing.T) {
	op, err := ParseOperator("startsWith")
	require.NoError(t, err)
	assert.Equal(t, OpStartsWith, op)

	_, err = ParseOperator("like")
	assert.ErrorIs(t, err, ErrUnknownOperator)
}

func TestRecordID_NormalisesNumbers(t *testing.T) {
	var fromJSON Record
	require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &fromJSON))

	assert.Equal(t, "42", fromJSON.ID())
	assert.Equal(t, "42", Record{"id": int64(42)}.ID())
	assert.Equal(t, "42", Record{"id": "42"}.ID())
	assert.Equal(t, "", Record{}.ID())
}

func TestRegistry(t *testing.T) {
	reg := DefaultRegistry()
	assert.Len(t, reg.Names(), 12)
	assert.Equal(t, "presupuestos", reg.Names()[0])

	_, err := reg.Get("facturas")
	assert.ErrorIs(t, err, ErrUnknownResource)

	reg2, _ := reg.Get("registros")
	assert.Equal(t, 25, reg2.Offset())
	assert.Equal(t, "/api/registros/", reg2.Path)

	docs, _ := reg.Get("documentos")
	assert.Equal(t, DefaultSentinelOffset, docs.Offset())

	field, desc := reg.InitialSort(docs)
	assert.Equal(t, "fecha_documento", field)
	assert.True(t, desc)

	prov, _ := reg.Get("proveedores")
	field, _ = reg.InitialSort(prov)
	assert.Equal(t, "razon_social", field)

	pres, _ := reg.Get("presupuestos")
	field, _ = reg.InitialSort(pres)
	assert.Equal(t, "fecha", field)
	created := pres.OnCreate(Record{"id": 1})
	assert.Equal(t, "Cargado", created["estado"])
}

func TestToggleSort_Cycle(t *testing.T) {
	reg := DefaultRegistry()

	field, desc := reg.ToggleSort("fecha", true, "proveedor")
	assert.Equal(t, "proveedor__nombre_fantasia_pila", field)
	assert.True(t, desc)

	field, desc = reg.ToggleSort(field, desc, "proveedor")
	assert.Equal(t, "proveedor__nombre_fantasia_pila", field)
	assert.False(t, desc)

	field, desc = reg.ToggleSort(field, desc, "proveedor")
	assert.Equal(t, "", field)
	assert.False(t, desc)

	field, desc = reg.ToggleSort(field, desc, "proveedor")
	assert.Equal(t, "proveedor__nombre_fantasia_pila", field)
	assert.True(t, desc)
}
