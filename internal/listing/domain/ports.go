package domain

import "context"

// PageFetcher descarga una página de un listado. query es el string compilado
// (sin escapar) y page empieza en 1.
type PageFetcher interface {
	FetchPage(ctx context.Context, path, query string, page int) (Page, error)
}

// RecordWriter hace las escrituras REST que preceden a una mutación optimista.
type RecordWriter interface {
	Create(ctx context.Context, path string, rec Record) (Record, error)
	Update(ctx context.Context, path, id string, patch Record) (Record, error)
	Delete(ctx context.Context, path, id string) error
}

// EntryStore guarda las entradas por clave. Las implementaciones pueden
// descartar entradas por tiempo o tamaño; un Get posterior devuelve false.
type EntryStore interface {
	Get(key string) (CacheEntry, bool)
	Set(key string, entry CacheEntry)
	Invalidate(key string)
}
