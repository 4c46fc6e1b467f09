package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/davicafu/backoffice/internal/resource/domain"
	sharedDomain "github.com/davicafu/backoffice/internal/shared/domain"
)

// DocumentRepo guarda los registros de todos los recursos en una sola tabla
// documents (resource, data JSON). Sirve para SQLite y PostgreSQL.
type DocumentRepo struct {
	db *sql.DB
	d  Dialect
}

var _ domain.DocumentRepository = (*DocumentRepo)(nil)

func NewDocumentRepo(db *sql.DB, d Dialect) *DocumentRepo {
	return &DocumentRepo{db: db, d: d}
}

// Open abre la base según el driver ("sqlite" o "postgres") y devuelve su dialecto.
func Open(driver, dsn string) (*sql.DB, Dialect, error) {
	switch driver {
	case "sqlite":
		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, nil, err
		}
		// SQLite serializa las escrituras; una conexión evita SQLITE_BUSY
		// y mantiene viva una base ":memory:".
		db.SetMaxOpenConns(1)
		return db, SQLite{}, nil
	case "postgres":
		db, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, nil, err
		}
		return db, Postgres{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown sql driver %q", driver)
	}
}

// InitSchema crea las tablas si no existen.
func InitSchema(ctx context.Context, db *sql.DB, d Dialect) error {
	for _, stmt := range d.Schema() {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init %s schema: %w", d.Name(), err)
		}
	}
	return nil
}

func (r *DocumentRepo) builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(r.d.Placeholder())
}

// ------------------ Lectura ------------------

func (r *DocumentRepo) where(q domain.ListQuery) (sq.And, error) {
	conds := sq.And{sq.Eq{"resource": q.Resource}}
	for _, c := range q.Criteria {
		cond, err := Condition(r.d, c)
		if err != nil {
			return nil, err
		}
		conds = append(conds, cond)
	}
	if q.Search != "" && len(q.SearchFields) > 0 {
		conds = append(conds, Search(r.d, q.SearchFields, q.Search))
	}
	return conds, nil
}

func (r *DocumentRepo) orderBy(q domain.ListQuery) []string {
	out := make([]string, 0, len(q.Ordering)+1)
	tiebreak := "id DESC"
	for _, o := range q.Ordering {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		out = append(out, r.d.Order(o.Path)+" "+dir)
		if domain.IsID(o.Path) {
			tiebreak = ""
		}
	}
	if tiebreak != "" {
		out = append(out, tiebreak)
	}
	return out
}

// BuildList devuelve el SELECT de la página y el COUNT del mismo filtro.
func (r *DocumentRepo) BuildList(q domain.ListQuery) (sq.SelectBuilder, sq.SelectBuilder, error) {
	where, err := r.where(q)
	if err != nil {
		return sq.SelectBuilder{}, sq.SelectBuilder{}, err
	}
	count := r.builder().Select("COUNT(*)").From("documents").Where(where)
	page := r.builder().
		Select("id", "data").
		From("documents").
		Where(where).
		OrderBy(r.orderBy(q)...).
		Limit(uint64(q.Page.Size)).
		Offset(uint64(q.Page.Offset()))
	return page, count, nil
}

func (r *DocumentRepo) List(ctx context.Context, q domain.ListQuery) ([]domain.Record, int, error) {
	page, count, err := r.BuildList(q)
	if err != nil {
		return nil, 0, err
	}

	var total int
	if err := count.RunWith(r.db).QueryRowContext(ctx).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", q.Resource, err)
	}
	if total == 0 {
		return []domain.Record{}, 0, nil
	}

	query, args, err := page.ToSql()
	if err != nil {
		return nil, 0, err
	}
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", q.Resource, err)
	}
	defer rows.Close()

	out := make([]domain.Record, 0, q.Page.Size)
	for rows.Next() {
		rec, err := scanDocument(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanDocument decodifica data y le agrega el id de la fila.
func scanDocument(s scanner) (domain.Record, error) {
	var id int64
	var data []byte
	if err := s.Scan(&id, &data); err != nil {
		return nil, err
	}
	rec := domain.Record{}
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("invalid JSON in document %d: %w", id, err)
	}
	rec["id"] = id
	return rec, nil
}

func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n < 1 {
		return 0, domain.ErrRecordNotFound
	}
	return n, nil
}

func (r *DocumentRepo) Get(ctx context.Context, resource, id string) (domain.Record, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}
	row := r.builder().
		Select("id", "data").
		From("documents").
		Where(sq.Eq{"resource": resource, "id": n}).
		RunWith(r.db).
		QueryRowContext(ctx)

	rec, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	return rec, err
}

// ------------------ Escrituras ------------------

func encodeData(rec domain.Record) ([]byte, error) {
	data := rec.Clone()
	delete(data, "id")
	return json.Marshal(data)
}

// Create inserta documento y evento en transacción.
func (r *DocumentRepo) Create(ctx context.Context, resource string, data domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	body, err := encodeData(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	var id int64
	err = r.builder().
		Insert("documents").
		Columns("resource", "data", "created_at", "updated_at").
		Values(resource, sq.Expr(r.d.JSON(), string(body)), now, now).
		Suffix("RETURNING id").
		RunWith(tx).
		QueryRowContext(ctx).
		Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", resource, err)
	}

	rec := data.Clone()
	rec["id"] = id
	evt.AggregateID = strconv.FormatInt(id, 10)
	evt.Payload = rec
	if err := r.insertOutboxTx(ctx, tx, evt); err != nil {
		return nil, err
	}
	return rec, tx.Commit()
}

// Update mezcla patch sobre el documento y crea el evento en transacción.
func (r *DocumentRepo) Update(ctx context.Context, resource, id string, patch domain.Record, evt sharedDomain.OutboxEvent) (domain.Record, error) {
	n, err := parseID(id)
	if err != nil {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	sel := r.builder().
		Select("id", "data").
		From("documents").
		Where(sq.Eq{"resource": resource, "id": n})
	if r.d.Name() == "postgres" {
		sel = sel.Suffix("FOR UPDATE")
	}
	rec, err := scanDocument(sel.RunWith(tx).QueryRowContext(ctx))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}

	for k, v := range patch {
		if k != "id" {
			rec[k] = v
		}
	}
	body, err := encodeData(rec)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidRecord, err)
	}

	_, err = r.builder().
		Update("documents").
		Set("data", sq.Expr(r.d.JSON(), string(body))).
		Set("updated_at", time.Now().UTC()).
		Where(sq.Eq{"resource": resource, "id": n}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", resource, id, err)
	}

	evt.AggregateID = id
	evt.Payload = rec
	if err := r.insertOutboxTx(ctx, tx, evt); err != nil {
		return nil, err
	}
	return rec, tx.Commit()
}

// Delete elimina el documento y crea el evento (sin payload) en transacción.
func (r *DocumentRepo) Delete(ctx context.Context, resource, id string, evt sharedDomain.OutboxEvent) error {
	n, err := parseID(id)
	if err != nil {
		return err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := r.builder().
		Delete("documents").
		Where(sq.Eq{"resource": resource, "id": n}).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return err
	}
	rows, _ := res.RowsAffected()
	if rows == 0 {
		return domain.ErrRecordNotFound
	}

	evt.AggregateID = id
	evt.Payload = nil
	if err := r.insertOutboxTx(ctx, tx, evt); err != nil {
		return err
	}
	return tx.Commit()
}

// ------------------ Helper DRY para insertar en outbox ------------------

func (r *DocumentRepo) insertOutboxTx(ctx context.Context, tx *sql.Tx, evt sharedDomain.OutboxEvent) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}
	_, err = r.builder().
		Insert("outbox").
		Columns("id", "aggregate_type", "aggregate_id", "event_type", "payload", "created_at", "processed").
		Values(evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, sq.Expr(r.d.JSON(), string(payload)), evt.CreatedAt, false).
		RunWith(tx).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
