package events

import (
	"encoding/json"
	"time"
)

const (
	ResourceCreated = "resource.created"
	ResourceUpdated = "resource.updated"
	ResourceDeleted = "resource.deleted"
)

// DefaultTopic es el topic de Kafka (o del bus en memoria) del change feed.
const DefaultTopic = "backoffice.changes"

// IntegrationEvent es el mensaje que viaja por el change feed.
type IntegrationEvent struct {
	Type      string          `json:"type"`
	Resource  string          `json:"resource"`
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// PartitionKey mantiene en orden los cambios de un mismo documento.
func (e IntegrationEvent) PartitionKey() string {
	return e.Resource + ":" + e.ID
}
