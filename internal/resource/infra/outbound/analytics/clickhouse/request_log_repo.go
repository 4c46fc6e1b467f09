package clickhouse

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"github.com/davicafu/backoffice/internal/resource/domain"
)

// RequestLogRepo implementa domain.RequestLogRepository para ClickHouse.
type RequestLogRepo struct {
	db *sql.DB
}

// NewRequestLogRepo abre la conexión y verifica que el servidor responda.
func NewRequestLogRepo(addr string, dbName string) (*RequestLogRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
	})

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}
	return &RequestLogRepo{db: conn}, nil
}

// InitSchema crea la tabla del log de listados si no existe.
func (r *RequestLogRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS list_requests (
			resource    LowCardinality(String),
			query       String,
			page        UInt32,
			results     UInt32,
			total       UInt64,
			latency_ms  Float64,
			status      UInt16,
			created_at  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(created_at)
		ORDER BY (resource, created_at);
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// LogBatch inserta el lote entero en una transacción; si una fila falla no
// se guarda ninguna.
func (r *RequestLogRepo) LogBatch(ctx context.Context, stats []domain.RequestStat) error {
	if len(stats) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO list_requests (resource, query, page, results, total, latency_ms, status, created_at)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, s := range stats {
		if _, err := stmt.ExecContext(ctx,
			s.Resource,
			s.Query,
			uint32(s.Page),
			uint32(s.Results),
			uint64(s.Count),
			float64(s.Latency.Microseconds())/1000,
			uint16(s.Status),
			s.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to exec statement for %s: %w", s.Resource, err)
		}
	}
	return tx.Commit()
}

func (r *RequestLogRepo) Close() error {
	return r.db.Close()
}

var _ domain.RequestLogRepository = (*RequestLogRepo)(nil)
