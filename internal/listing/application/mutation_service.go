package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/listing/domain"
)

// MutationService hace la escritura REST y, si sale bien, aplica la misma
// mutación sobre la lista abierta sin volver a descargarla.
type MutationService struct {
	writer domain.RecordWriter
	log    *zap.Logger
}

func NewMutationService(writer domain.RecordWriter, log *zap.Logger) *MutationService {
	return &MutationService{writer: writer, log: log}
}

func (s *MutationService) Create(ctx context.Context, ctrl *Controller, values domain.Record) (domain.Record, error) {
	cfg := ctrl.Resource()
	created, err := s.writer.Create(ctx, cfg.Path, values)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", cfg.Name, err)
	}
	if cfg.OnCreate != nil {
		created = cfg.OnCreate(created)
	}
	if !ctrl.AddItem(created) {
		s.log.Debug("created record not added, list not loaded", zap.String("resource", cfg.Name))
	}
	return created, nil
}

func (s *MutationService) Update(ctx context.Context, ctrl *Controller, id string, patch domain.Record) (domain.Record, error) {
	cfg := ctrl.Resource()
	updated, err := s.writer.Update(ctx, cfg.Path, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", cfg.Name, id, err)
	}
	ctrl.UpdateItem(updated)
	return updated, nil
}

func (s *MutationService) Delete(ctx context.Context, ctrl *Controller, id string) error {
	cfg := ctrl.Resource()
	if err := s.writer.Delete(ctx, cfg.Path, id); err != nil {
		return fmt.Errorf("delete %s/%s: %w", cfg.Name, id, err)
	}
	ctrl.DeleteItem(id)
	return nil
}
