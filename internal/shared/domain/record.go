package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Record es una fila opaca devuelta por la API. Solo se inspecciona "id".
type Record map[string]any

// ID normaliza el identificador: la API lo envía como número JSON, los
// eventos y la URL como texto, y ambos tienen que compararse igual.
func (r Record) ID() string {
	return IDString(r["id"])
}

// Clone copia el primer nivel del registro.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func IDString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(id), 'f', -1, 32)
	case int:
		return strconv.Itoa(id)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case int64:
		return strconv.FormatInt(id, 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case json.Number:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}
