package events

import (
	"context"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/backoffice/internal/shared/events"
	sharedUtils "github.com/davicafu/backoffice/internal/shared/infra/utils"
)

// ChangeApplier recibe los cambios ya decodificados; lo cumple application.Hub.
type ChangeApplier interface {
	Apply(evt sharedEvents.IntegrationEvent) int
}

// ChangeConsumer traduce los mensajes del change feed en mutaciones sobre
// los listados abiertos.
type ChangeConsumer struct {
	applier ChangeApplier
	log     *zap.Logger
}

func NewChangeConsumer(applier ChangeApplier, log *zap.Logger) *ChangeConsumer {
	return &ChangeConsumer{applier: applier, log: log}
}

func (c *ChangeConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	sharedUtils.UnmarshalAndHandle[sharedEvents.IntegrationEvent](c.log, payload, func(evt sharedEvents.IntegrationEvent) {
		switch evt.Type {
		case sharedEvents.ResourceCreated, sharedEvents.ResourceUpdated, sharedEvents.ResourceDeleted:
		default:
			c.log.Warn("Unknown event type", zap.String("type", evt.Type), zap.String("key", key))
			return
		}
		if evt.Resource == "" || evt.ID == "" {
			c.log.Warn("Change without resource or id", zap.String("key", key))
			return
		}

		n := c.applier.Apply(evt)
		c.log.Debug("🔄 cambio aplicado",
			zap.String("type", evt.Type),
			zap.String("resource", evt.Resource),
			zap.String("id", evt.ID),
			zap.Int("lists", n),
		)
	})
}
