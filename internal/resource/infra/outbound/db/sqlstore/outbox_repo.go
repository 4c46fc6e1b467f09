package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// OutboxRepo implementa sharedDomain.OutboxRepository sobre la tabla outbox
// de SQLite o PostgreSQL.
type OutboxRepo struct {
	db *sql.DB
	d  Dialect
}

func NewOutboxRepo(db *sql.DB, d Dialect) *OutboxRepo {
	return &OutboxRepo{db: db, d: d}
}

// FetchPendingOutbox obtiene los eventos no procesados en orden de creación.
func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	rows, err := sq.StatementBuilder.PlaceholderFormat(r.d.Placeholder()).
		Select("id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at").
		From("outbox").
		Where(sq.Eq{"processed": false}).
		OrderBy("created_at").
		Limit(uint64(limit)).
		RunWith(r.db).
		QueryContext(ctx)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []sharedDomain.OutboxEvent
	for rows.Next() {
		var evt sharedDomain.OutboxEvent
		var idStr string
		var payload []byte

		if err := rows.Scan(&idStr, &evt.AggregateType, &evt.AggregateID, &evt.EventType, &payload, &evt.CreatedAt); err != nil {
			return nil, err
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		evt.ID = id

		if err := json.Unmarshal(payload, &evt.Payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", evt.ID, err)
		}
		events = append(events, evt)
	}
	return events, rows.Err()
}

// MarkOutboxProcessed marca un evento como procesado.
func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := sq.StatementBuilder.PlaceholderFormat(r.d.Placeholder()).
		Update("outbox").
		Set("processed", true).
		Where(sq.Eq{"id": id.String()}).
		RunWith(r.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// Verificación en tiempo de compilación.
var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)
