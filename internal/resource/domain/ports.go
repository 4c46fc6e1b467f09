package domain

import (
	"context"
	"errors"
	"time"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

type Record = sharedDomain.Record

// ---------- Errores de dominio ----------
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrInvalidLookup  = errors.New("invalid lookup")
	ErrInvalidPage    = errors.New("invalid page")
	ErrInvalidRecord  = errors.New("invalid record")
)

// ---------- Interfaces (Ports) ----------

// DocumentRepository guarda los registros de todos los recursos como
// documentos JSON. Las escrituras guardan el evento de outbox en la misma
// transacción; el repositorio completa AggregateID y Payload.
type DocumentRepository interface {
	// List devuelve la página pedida y el total de registros que cumplen el filtro.
	List(ctx context.Context, q ListQuery) ([]Record, int, error)

	// Debe devolver ErrRecordNotFound si no existe.
	Get(ctx context.Context, resource, id string) (Record, error)

	// Create asigna el id y devuelve el registro guardado.
	Create(ctx context.Context, resource string, data Record, evt sharedDomain.OutboxEvent) (Record, error)

	// Update mezcla patch sobre el documento (primer nivel). ErrRecordNotFound si no existe.
	Update(ctx context.Context, resource, id string, patch Record, evt sharedDomain.OutboxEvent) (Record, error)

	// Debe devolver ErrRecordNotFound si no existe.
	Delete(ctx context.Context, resource, id string, evt sharedDomain.OutboxEvent) error
}

// RequestStat es una fila del log de consultas de listado.
type RequestStat struct {
	Resource  string
	Query     string
	Page      int
	Results   int
	Count     int
	Latency   time.Duration
	Status    int
	CreatedAt time.Time
}

// RequestLogRepository escribe lotes de estadísticas (ClickHouse).
type RequestLogRepository interface {
	LogBatch(ctx context.Context, stats []RequestStat) error
}
