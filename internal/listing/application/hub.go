package application

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
	sharedEvents "github.com/davicafu/backoffice/internal/shared/events"
)

// Hub reparte los cambios del change feed entre los controllers abiertos de
// cada recurso.
type Hub struct {
	mu    sync.RWMutex
	ctrls map[string]map[*Controller]struct{}
	log   *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{ctrls: make(map[string]map[*Controller]struct{}), log: log}
}

// Register suscribe ctrl a los cambios de su recurso. La función devuelta
// lo desuscribe.
func (h *Hub) Register(ctrl *Controller) func() {
	name := ctrl.Resource().Name
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.ctrls[name] == nil {
		h.ctrls[name] = make(map[*Controller]struct{})
	}
	h.ctrls[name][ctrl] = struct{}{}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.ctrls[name], ctrl)
	}
}

// Apply aplica el evento y devuelve a cuántos controllers les cambió la lista.
func (h *Hub) Apply(evt sharedEvents.IntegrationEvent) int {
	h.mu.RLock()
	targets := make([]*Controller, 0, len(h.ctrls[evt.Resource]))
	for c := range h.ctrls[evt.Resource] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()
	if len(targets) == 0 {
		return 0
	}

	var rec domain.Record
	if evt.Type != sharedEvents.ResourceDeleted {
		if err := json.Unmarshal(evt.Data, &rec); err != nil {
			h.log.Warn("change without a decodable record",
				zap.String("type", evt.Type),
				zap.String("resource", evt.Resource),
				zap.Error(err),
			)
			return 0
		}
		if rec == nil {
			rec = domain.Record{}
		}
		if rec.ID() == "" {
			rec["id"] = evt.ID
		}
	}

	applied := 0
	for _, c := range targets {
		var ok bool
		switch evt.Type {
		case sharedEvents.ResourceCreated:
			ok = c.AddItemIfAbsent(rec)
		case sharedEvents.ResourceUpdated:
			ok = c.UpdateItem(rec)
		case sharedEvents.ResourceDeleted:
			ok = c.DeleteItem(evt.ID)
		default:
			h.log.Debug("ignoring change type", zap.String("type", evt.Type))
			return 0
		}
		if ok {
			applied++
		}
	}
	return applied
}
