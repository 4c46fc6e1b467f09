package query

import (
	"testing"

	"github.com/stretchr/testify/assert"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

var names = sharedDomain.FieldNameMap{
	"proveedor":        "__nombre_fantasia_pila",
	"cliente_proyecto": "__cliente_proyecto",
}

func flt(field string, op sharedDomain.Operator, value string) sharedDomain.Filter {
	return sharedDomain.Filter{ID: "f", Field: field, Operator: op, Value: value}
}

func TestCompile_Operators(t *testing.T) {
	cases := []struct {
		name   string
		filter sharedDomain.Filter
		want   string
	}{
		{"contains con sufijo", flt("proveedor", sharedDomain.OpContains, "Gomez"), "proveedor__nombre_fantasia_pila__icontains=Gomez"},
		{"startsWith", flt("cliente_proyecto", sharedDomain.OpStartsWith, "Obra"), "cliente_proyecto__cliente_proyecto__startswith=Obra"},
		{"endsWith sin sufijo", flt("numero", sharedDomain.OpEndsWith, "12"), "numero__endswith=12"},
		{"isEmpty ignora valor y sufijo", flt("proveedor", sharedDomain.OpIsEmpty, "x"), "proveedor__isnull=true"},
		{"isNotEmpty", flt("proveedor", sharedDomain.OpIsNotEmpty, ""), "proveedor__isnull=false"},
		{"greaterThan sin sufijo", flt("proveedor", sharedDomain.OpGreaterThan, "5"), "proveedor__gt=5"},
		{"lessThan", flt("monto", sharedDomain.OpLessThan, "100"), "monto__lt=100"},
		{"equals con sufijo", flt("proveedor", sharedDomain.OpEquals, "ACME"), "proveedor__nombre_fantasia_pila=ACME"},
		{"operador desconocido cae en equals", flt("estado", "between", "1"), "estado=1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Compile([]sharedDomain.Filter{tc.filter}, "", Sort{}, names))
		})
	}
}

func TestCompile_OrderingAndSearch(t *testing.T) {
	filters := []sharedDomain.Filter{
		flt("estado", sharedDomain.OpEquals, "1"),
		flt("monto", sharedDomain.OpGreaterThan, "10"),
	}

	got := Compile(filters, "cemento", Sort{Field: "fecha", Desc: false}, names)
	assert.Equal(t, "estado=1&monto__gt=10&ordering=fecha&search=cemento", got)

	got = Compile(nil, "", Sort{Field: "fecha", Desc: true}, names)
	assert.Equal(t, "ordering=-fecha", got)

	assert.Equal(t, "", Compile(nil, "", Sort{}, names))
	assert.Equal(t, "search=a", Compile(nil, "a", Sort{}, names))
}

func TestCompile_EndToEnd(t *testing.T) {
	filters := []sharedDomain.Filter{flt("proveedor", sharedDomain.OpContains, "Gomez")}
	got := Compile(filters, "", Sort{Field: "fecha_documento", Desc: true}, sharedDomain.DefaultRegistry().FieldNames())
	assert.Equal(t, "proveedor__nombre_fantasia_pila__icontains=Gomez&ordering=-fecha_documento", got)
}

func TestCompile_IsDeterministic(t *testing.T) {
	filters := []sharedDomain.Filter{
		flt("proveedor", sharedDomain.OpContains, "a"),
		flt("cliente_proyecto", sharedDomain.OpEquals, "b"),
	}
	first := Compile(filters, "s", Sort{Field: "x"}, names)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Compile(filters, "s", Sort{Field: "x"}, names))
	}
}

func TestNextPage(t *testing.T) {
	n, ok := NextPage("http://api.local/api/documentos/?ordering=-fecha&page=3")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = NextPage("")
	assert.False(t, ok)

	_, ok = NextPage("http://api.local/api/documentos/?ordering=-fecha")
	assert.False(t, ok)

	_, ok = NextPage("http://api.local/api/documentos/?page=abc")
	assert.False(t, ok)
}

func TestWithPageAndEncode(t *testing.T) {
	assert.Equal(t, "page=1", WithPage("", 1))
	assert.Equal(t, "search=a&page=2", WithPage("search=a", 2))

	assert.Equal(t,
		"proveedor__icontains=Gomez+Hijos&a%C3%B1omes_imputacion_gasto=2024%2F01",
		Encode("proveedor__icontains=Gomez Hijos&añomes_imputacion_gasto=2024/01"),
	)
}

func TestParseOrdering(t *testing.T) {
	assert.Equal(t, []Sort{{Field: "fecha", Desc: true}, {Field: "id"}}, ParseOrdering("-fecha, id"))
	assert.Nil(t, ParseOrdering(""))
	assert.Equal(t, "-fecha", Sort{Field: "fecha", Desc: true}.String())
	assert.Equal(t, "", Sort{Desc: true}.String())
}
