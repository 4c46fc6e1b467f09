package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
	sharedEvents "github.com/davicafu/backoffice/internal/shared/events"
	sharedBus "github.com/davicafu/backoffice/internal/shared/infra/platform/bus"
)

// Worker publica en el change feed las filas pendientes de la outbox.
type Worker struct {
	repo      sharedDomain.OutboxRepository
	publisher sharedBus.EventBus
	interval  time.Duration
	batchSize int
	log       *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:      repo,
		publisher: publisher,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
	}
}

// Start corre el polling hasta que se cancele el contexto.
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido.")
			return
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

// ProcessBatch publica hasta batchSize eventos y devuelve cuántos quedaron marcados.
func (w *Worker) ProcessBatch(ctx context.Context) int {
	pending, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return 0
	}
	if len(pending) > 0 {
		w.log.Info(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(pending)))
	}

	done := 0
	for _, evt := range pending {
		if w.publishAndMark(ctx, evt) {
			done++
		}
	}
	return done
}

// ToIntegrationEvent traduce una fila de outbox al mensaje del change feed.
func ToIntegrationEvent(evt sharedDomain.OutboxEvent) (sharedEvents.IntegrationEvent, error) {
	out := sharedEvents.IntegrationEvent{
		Type:      evt.EventType,
		Resource:  evt.AggregateType,
		ID:        evt.AggregateID,
		Timestamp: evt.CreatedAt,
	}
	if evt.Payload != nil {
		data, err := json.Marshal(evt.Payload)
		if err != nil {
			return out, err
		}
		out.Data = data
	}
	return out, nil
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) bool {
	msg, err := ToIntegrationEvent(evt)
	if err != nil {
		w.log.Error("Error al codificar payload del evento", zap.String("event_id", evt.ID.String()), zap.Error(err))
		return false
	}

	if err := w.publisher.Publish(ctx, msg); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		// queda pendiente y se reintenta en el próximo tick
		return false
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return false
	}
	w.log.Debug("✅ Evento publicado y marcado",
		zap.String("event_id", evt.ID.String()),
		zap.String("type", evt.EventType),
		zap.String("resource", evt.AggregateType),
	)
	return true
}
