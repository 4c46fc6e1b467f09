package application

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/davicafu/backoffice/internal/resource/domain"
)

// RequestLogger junta estadísticas de listados y las escribe en lotes. Un
// RequestLogger nil no registra nada.
type RequestLogger struct {
	repo      domain.RequestLogRepository
	ch        chan domain.RequestStat
	batchSize int
	interval  time.Duration
	log       *zap.Logger
}

func NewRequestLogger(repo domain.RequestLogRepository, batchSize int, interval time.Duration, log *zap.Logger) *RequestLogger {
	if batchSize <= 0 {
		batchSize = 100
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &RequestLogger{
		repo:      repo,
		ch:        make(chan domain.RequestStat, batchSize*4),
		batchSize: batchSize,
		interval:  interval,
		log:       log,
	}
}

// Record encola sin bloquear; con la cola llena la estadística se descarta.
func (l *RequestLogger) Record(stat domain.RequestStat) {
	if l == nil {
		return
	}
	select {
	case l.ch <- stat:
	default:
		l.log.Debug("Request log queue full, dropping stat", zap.String("resource", stat.Resource))
	}
}

// Start escribe un lote al llenarse o en cada intervalo, hasta que se cancele
// el contexto. Lo pendiente se escribe antes de salir.
func (l *RequestLogger) Start(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	batch := make([]domain.RequestStat, 0, l.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 {
			return
		}
		if err := l.repo.LogBatch(ctx, batch); err != nil {
			l.log.Warn("⚠️ Request log batch failed", zap.Int("size", len(batch)), zap.Error(err))
		}
		batch = batch[:0]
	}

	for {
		select {
		case <-ctx.Done():
		drain:
			for {
				select {
				case s := <-l.ch:
					batch = append(batch, s)
				default:
					break drain
				}
			}
			finalCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			flush(finalCtx)
			cancel()
			return
		case s := <-l.ch:
			batch = append(batch, s)
			if len(batch) >= l.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		}
	}
}
