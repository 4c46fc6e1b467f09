package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	"github.com/davicafu/backoffice/internal/shared/infra/platform/query"
)

// parseFilter interpreta "campo:operador:valor". El valor puede contener ':'.
func parseFilter(cfg sharedDomain.ResourceConfig, s string) (sharedDomain.Filter, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 {
		return sharedDomain.Filter{}, fmt.Errorf("filter %q: expected field:operator[:value]", s)
	}
	op, err := sharedDomain.ParseOperator(parts[1])
	if err != nil {
		return sharedDomain.Filter{}, err
	}
	var value string
	if len(parts) == 3 {
		value = parts[2]
	}
	f := sharedDomain.NewFilter(parts[0], op, value)
	if err := sharedDomain.ValidateFilters(cfg.Fields, []sharedDomain.Filter{f}); err != nil {
		return sharedDomain.Filter{}, err
	}
	return f, nil
}

// parseSort acepta "campo" o "-campo"; vacío es nil.
func parseSort(s string) *query.Sort {
	sorts := query.ParseOrdering(s)
	if len(sorts) == 0 {
		return nil
	}
	return &sorts[0]
}

// cell muestra un valor de columna. Las relaciones se muestran por el campo
// que usa el filtro (ej. proveedor.nombre_fantasia_pila).
func cell(v any, suffix string) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		if t {
			return "Sí"
		}
		return "No"
	case map[string]any:
		if key := strings.TrimPrefix(suffix, "__"); key != "" {
			if inner, ok := t[key]; ok {
				return cell(inner, "")
			}
		}
	}
	b, _ := json.Marshal(v)
	return string(b)
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func renderTable(w io.Writer, cfg sharedDomain.ResourceConfig, names sharedDomain.FieldNameMap, items []sharedDomain.Record) error {
	headers := []string{"ID"}
	for _, col := range cfg.Columns {
		headers = append(headers, col.Label)
	}

	rows := make([][]string, 0, len(items))
	for _, rec := range items {
		row := []string{rec.ID()}
		for _, col := range cfg.Columns {
			row = append(row, cell(rec[col.Key], names.Suffix(col.Key)))
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...).
		Rows(rows...)
	_, err := fmt.Fprintln(w, t.Render())
	return err
}
