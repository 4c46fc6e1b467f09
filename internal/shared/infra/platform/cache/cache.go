package cache

import (
	"context"
)

// Cache es una caché clave-valor que serializa en JSON.
type Cache interface {
	// Get rellena dest (un puntero) y devuelve true en un hit.
	Get(ctx context.Context, key string, dest interface{}) (bool, error)

	// Set guarda val con un TTL en segundos; 0 usa el TTL por defecto de la implementación.
	Set(ctx context.Context, key string, val interface{}, ttlSecs int) error

	Delete(ctx context.Context, key string) error
}

// Counter es un contador atómico compartido. Se usa para versionar claves
// en lugar de borrar por prefijo.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Current(ctx context.Context, key string) (int64, error)
}

// VersionedCache junta ambas capacidades; las dos implementaciones del
// paquete la cumplen.
type VersionedCache interface {
	Cache
	Counter
}
