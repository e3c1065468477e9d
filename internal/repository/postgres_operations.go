package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresOperationsRepository operations_log over lib/pq.
type PostgresOperationsRepository struct {
	db *sql.DB
}

func NewPostgresOperationsRepository(db *sql.DB) *PostgresOperationsRepository {
	return &PostgresOperationsRepository{db: db}
}

var _ OperationsRepository = (*PostgresOperationsRepository)(nil)

const selectOperation = `
	SELECT
		o.id::text,
		o.operation_date,
		o.batch,
		o.operation_role,
		o.start_time,
		o.end_time,
		COALESCE(o.started_by_user_id::text, ''),
		COALESCE(su.name, ''),
		COALESCE(o.completed_by_user_id::text, ''),
		COALESCE(cu.name, ''),
		o.total_orders,
		o.on_time_deliveries,
		o.created_at,
		o.updated_at
	FROM operations_log o
	LEFT JOIN users su ON su.id = o.started_by_user_id
	LEFT JOIN users cu ON cu.id = o.completed_by_user_id
`

type rowScanner interface {
	Scan(dest ...any) error
}

// rowQuerier is satisfied by *sql.DB and *sql.Tx.
type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func scanOperation(row rowScanner) (*domain.OperationRecord, error) {
	var rec domain.OperationRecord
	var start, end sql.NullTime
	var total, onTime sql.NullInt64

	if err := row.Scan(
		&rec.ID,
		&rec.OperationDate,
		&rec.Batch,
		&rec.Role,
		&start,
		&end,
		&rec.StartedByID,
		&rec.StartedBy,
		&rec.CompletedByID,
		&rec.CompletedBy,
		&total,
		&onTime,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	); err != nil {
		return nil, err
	}

	rec.OperationDate = civilDate(rec.OperationDate)
	if start.Valid {
		t := start.Time
		rec.StartTime = &t
	}
	if end.Valid {
		t := end.Time
		rec.EndTime = &t
	}
	if total.Valid {
		v := int(total.Int64)
		rec.TotalOrders = &v
	}
	if onTime.Valid {
		v := int(onTime.Int64)
		rec.OnTimeDeliveries = &v
	}
	return &rec, nil
}

func (r *PostgresOperationsRepository) GetOperation(ctx context.Context, key domain.OperationKey) (*domain.OperationRecord, error) {
	return getOperation(ctx, r.db, key)
}

func getOperation(ctx context.Context, q rowQuerier, key domain.OperationKey) (*domain.OperationRecord, error) {
	query := selectOperation + `
		WHERE o.operation_date = $1 AND o.batch = $2 AND o.operation_role = $3
	`
	rec, err := scanOperation(q.QueryRowContext(ctx, query, dateParam(key.Date), key.Batch, key.Role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get operation: %w", err)
	}
	return rec, nil
}

func (r *PostgresOperationsRepository) ListOperations(ctx context.Context, date time.Time, batch string) ([]*domain.OperationRecord, error) {
	query := selectOperation + `
		WHERE o.operation_date = $1 AND o.batch = $2
		ORDER BY o.created_at
	`
	return r.list(ctx, query, dateParam(date), batch)
}

func (r *PostgresOperationsRepository) ListOperationsByDate(ctx context.Context, date time.Time) ([]*domain.OperationRecord, error) {
	query := selectOperation + `
		WHERE o.operation_date = $1
		ORDER BY o.batch, o.created_at
	`
	return r.list(ctx, query, dateParam(date))
}

func (r *PostgresOperationsRepository) list(ctx context.Context, query string, args ...any) ([]*domain.OperationRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	defer rows.Close()

	out := []*domain.OperationRecord{}
	for rows.Next() {
		rec, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan operation: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list operations: %w", err)
	}
	return out, nil
}

func (r *PostgresOperationsRepository) ClaimStart(ctx context.Context, key domain.OperationKey, userID string, at time.Time) (*domain.OperationRecord, bool, error) {
	// The unique constraint arbitrates concurrent inserts; the WHERE clause
	// turns a conflicting row into a no-op unless it is still pending.
	query := `
		INSERT INTO operations_log (
			id, operation_date, day_of_week, month, year, batch, operation_role,
			start_time, started_by_user_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $8, $8)
		ON CONFLICT (operation_date, batch, operation_role)
		DO UPDATE SET
			start_time = EXCLUDED.start_time,
			started_by_user_id = EXCLUDED.started_by_user_id,
			updated_at = EXCLUDED.updated_at
		WHERE operations_log.start_time IS NULL
		RETURNING id::text
	`

	// The claim and its read-back commit together so a failed read never
	// leaves a start behind.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin start transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id string
	err = tx.QueryRowContext(ctx, query,
		uuid.NewString(),
		dateParam(key.Date),
		key.Date.Weekday().String(),
		key.Date.Month().String(),
		key.Date.Year(),
		key.Batch,
		key.Role,
		at,
		userID,
	).Scan(&id)

	claimed := true
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to start operation: %w", err)
		}
		claimed = false
	}

	rec, err := getOperation(ctx, tx, key)
	if err != nil {
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit start: %w", err)
	}
	return rec, claimed, nil
}

func (r *PostgresOperationsRepository) Complete(ctx context.Context, key domain.OperationKey, userID string, at time.Time, stats *domain.DeliveryStats) (*domain.OperationRecord, bool, error) {
	query := `
		UPDATE operations_log
		SET end_time = $4,
			completed_by_user_id = $5,
			total_orders = $6,
			on_time_deliveries = $7,
			updated_at = $4
		WHERE operation_date = $1 AND batch = $2 AND operation_role = $3
			AND start_time IS NOT NULL AND end_time IS NULL
		RETURNING id::text
	`

	var total, onTime any
	if stats != nil {
		total, onTime = stats.TotalOrders, stats.OnTimeDeliveries
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin completion transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var id string
	err = tx.QueryRowContext(ctx, query,
		dateParam(key.Date), key.Batch, key.Role, at, userID, total, onTime,
	).Scan(&id)

	completed := true
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, fmt.Errorf("failed to complete operation: %w", err)
		}
		completed = false
	}

	rec, err := getOperation(ctx, tx, key)
	if err != nil {
		if errors.Is(err, ErrNotFound) && !completed {
			return nil, false, nil
		}
		return nil, false, err
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit completion: %w", err)
	}
	return rec, completed, nil
}

func (r *PostgresOperationsRepository) CountProgress(ctx context.Context, date time.Time, batch string) (int, int, error) {
	query := `
		SELECT COUNT(start_time), COUNT(end_time)
		FROM operations_log
		WHERE operation_date = $1 AND batch = $2
	`
	var started, completed int
	if err := r.db.QueryRowContext(ctx, query, dateParam(date), batch).Scan(&started, &completed); err != nil {
		return 0, 0, fmt.Errorf("failed to count batch progress: %w", err)
	}
	return started, completed, nil
}

func (r *PostgresOperationsRepository) InitializeBatch(ctx context.Context, date time.Time, batch string, roles []string) (int, error) {
	query := `
		INSERT INTO operations_log (operation_date, day_of_week, month, year, batch, operation_role)
		SELECT $1, $2, $3, $4, $5, role
		FROM unnest($6::text[]) AS role
		ON CONFLICT (operation_date, batch, operation_role) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		dateParam(date),
		date.Weekday().String(),
		date.Month().String(),
		date.Year(),
		batch,
		pq.Array(roles),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to initialize batch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to initialize batch: %w", err)
	}
	return int(n), nil
}
