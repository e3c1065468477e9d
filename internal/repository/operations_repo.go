package repository

import (
	"context"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
)

// OperationsRepository stores one record per (date, batch, role).
// Every mutating method is a single atomic write.
type OperationsRepository interface {
	// GetOperation returns ErrNotFound when the slot has no record.
	GetOperation(ctx context.Context, key domain.OperationKey) (*domain.OperationRecord, error)

	// ListOperations returns every record of a batch on a date.
	ListOperations(ctx context.Context, date time.Time, batch string) ([]*domain.OperationRecord, error)

	// ListOperationsByDate returns every record on a date, ordered by batch.
	ListOperationsByDate(ctx context.Context, date time.Time) ([]*domain.OperationRecord, error)

	// ClaimStart sets start_time only if it is still null, creating the
	// record when absent. claimed=false means someone else already started
	// it; the returned record is then the current one.
	ClaimStart(ctx context.Context, key domain.OperationKey, userID string, at time.Time) (rec *domain.OperationRecord, claimed bool, err error)

	// Complete sets end_time only if start_time is set and end_time is null.
	// completed=false returns the current record, or nil when absent.
	Complete(ctx context.Context, key domain.OperationKey, userID string, at time.Time, stats *domain.DeliveryStats) (rec *domain.OperationRecord, completed bool, err error)

	// CountProgress counts records with start_time and with end_time set.
	CountProgress(ctx context.Context, date time.Time, batch string) (started, completed int, err error)

	// InitializeBatch inserts pending records for roles that have none and
	// reports how many were created.
	InitializeBatch(ctx context.Context, date time.Time, batch string, roles []string) (int, error)
}
