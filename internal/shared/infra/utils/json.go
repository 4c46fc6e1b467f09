package utils

import (
	"encoding/json"

	"go.uber.org/zap"
)

// UnmarshalAndHandle decodifica data en T y, si no falla, se lo pasa a handler.
// Devuelve false cuando el payload no se pudo decodificar.
func UnmarshalAndHandle[T any](log *zap.Logger, data json.RawMessage, handler func(T)) bool {
	var evt T
	if err := json.Unmarshal(data, &evt); err != nil {
		log.Warn("Failed to unmarshal event data", zap.Error(err))
		return false
	}
	handler(evt)
	return true
}
