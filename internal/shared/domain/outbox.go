package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// OutboxEvent es un cambio de un documento pendiente de publicar en el broker.
type OutboxEvent struct {
	ID            uuid.UUID `json:"id"`
	AggregateType string    `json:"aggregate_type"` // nombre del recurso, ej. "documentos"
	AggregateID   string    `json:"aggregate_id"`
	EventType     string    `json:"event_type"` // ej. "resource.updated"
	Payload       Record    `json:"payload"`
	CreatedAt     time.Time `json:"created_at"`
	Processed     bool      `json:"processed"`
}

func NewOutboxEvent(eventType, resource string) OutboxEvent {
	return OutboxEvent{
		ID:            uuid.New(),
		AggregateType: resource,
		EventType:     eventType,
		CreatedAt:     time.Now().UTC(),
	}
}

// OutboxRepository es lo único que necesita el relayer de la tabla outbox.
type OutboxRepository interface {
	FetchPendingOutbox(ctx context.Context, limit int) ([]OutboxEvent, error)
	MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error
}
