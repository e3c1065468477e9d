package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"

	"github.com/google/uuid"
)

// MemoryOperationsRepo serves the API when the DB is disabled.
// The mutex plays the role of the unique constraint.
type MemoryOperationsRepo struct {
	mu      sync.RWMutex
	records map[string]*domain.OperationRecord
	seq     int64
	order   map[string]int64
	users   UsersRepository
}

// NewMemoryOperationsRepo resolves display names through users when non-nil.
func NewMemoryOperationsRepo(users UsersRepository) *MemoryOperationsRepo {
	return &MemoryOperationsRepo{
		records: map[string]*domain.OperationRecord{},
		order:   map[string]int64{},
		users:   users,
	}
}

var _ OperationsRepository = (*MemoryOperationsRepo)(nil)

func memKey(date time.Time, batch, role string) string {
	return dateParam(date) + "|" + batch + "|" + role
}

func (r *MemoryOperationsRepo) GetOperation(ctx context.Context, key domain.OperationKey) (*domain.OperationRecord, error) {
	r.mu.RLock()
	rec, ok := r.records[memKey(key.Date, key.Batch, key.Role)]
	var cp domain.OperationRecord
	if ok {
		cp = copyRecord(rec)
	}
	r.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	r.resolveNames(ctx, &cp)
	return &cp, nil
}

func (r *MemoryOperationsRepo) ListOperations(ctx context.Context, date time.Time, batch string) ([]*domain.OperationRecord, error) {
	return r.filter(ctx, func(rec *domain.OperationRecord) bool {
		return rec.OperationDate.Equal(civilDate(date)) && rec.Batch == batch
	}), nil
}

func (r *MemoryOperationsRepo) ListOperationsByDate(ctx context.Context, date time.Time) ([]*domain.OperationRecord, error) {
	return r.filter(ctx, func(rec *domain.OperationRecord) bool {
		return rec.OperationDate.Equal(civilDate(date))
	}), nil
}

func (r *MemoryOperationsRepo) filter(ctx context.Context, keep func(*domain.OperationRecord) bool) []*domain.OperationRecord {
	r.mu.RLock()
	type entry struct {
		rec domain.OperationRecord
		seq int64
	}
	var entries []entry
	for k, rec := range r.records {
		if keep(rec) {
			entries = append(entries, entry{rec: copyRecord(rec), seq: r.order[k]})
		}
	}
	r.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].rec.Batch != entries[j].rec.Batch {
			return entries[i].rec.Batch < entries[j].rec.Batch
		}
		return entries[i].seq < entries[j].seq
	})

	out := make([]*domain.OperationRecord, 0, len(entries))
	for i := range entries {
		rec := entries[i].rec
		r.resolveNames(ctx, &rec)
		out = append(out, &rec)
	}
	return out
}

func (r *MemoryOperationsRepo) ClaimStart(ctx context.Context, key domain.OperationKey, userID string, at time.Time) (*domain.OperationRecord, bool, error) {
	r.mu.Lock()
	k := memKey(key.Date, key.Batch, key.Role)
	rec, ok := r.records[k]
	if !ok {
		rec = r.insertLocked(k, key, at)
	}
	claimed := rec.StartTime == nil
	if claimed {
		t := at
		rec.StartTime = &t
		rec.StartedByID = userID
		rec.UpdatedAt = at
	}
	cp := copyRecord(rec)
	r.mu.Unlock()

	r.resolveNames(ctx, &cp)
	return &cp, claimed, nil
}

func (r *MemoryOperationsRepo) Complete(ctx context.Context, key domain.OperationKey, userID string, at time.Time, stats *domain.DeliveryStats) (*domain.OperationRecord, bool, error) {
	r.mu.Lock()
	rec, ok := r.records[memKey(key.Date, key.Batch, key.Role)]
	if !ok {
		r.mu.Unlock()
		return nil, false, nil
	}
	completed := rec.StartTime != nil && rec.EndTime == nil
	if completed {
		t := at
		rec.EndTime = &t
		rec.CompletedByID = userID
		rec.UpdatedAt = at
		if stats != nil {
			total, onTime := stats.TotalOrders, stats.OnTimeDeliveries
			rec.TotalOrders = &total
			rec.OnTimeDeliveries = &onTime
		}
	}
	cp := copyRecord(rec)
	r.mu.Unlock()

	r.resolveNames(ctx, &cp)
	return &cp, completed, nil
}

func (r *MemoryOperationsRepo) CountProgress(_ context.Context, date time.Time, batch string) (int, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var started, completed int
	for _, rec := range r.records {
		if !rec.OperationDate.Equal(civilDate(date)) || rec.Batch != batch {
			continue
		}
		if rec.StartTime != nil {
			started++
		}
		if rec.EndTime != nil {
			completed++
		}
	}
	return started, completed, nil
}

func (r *MemoryOperationsRepo) InitializeBatch(_ context.Context, date time.Time, batch string, roles []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	created := 0
	for _, role := range roles {
		k := memKey(date, batch, role)
		if _, ok := r.records[k]; ok {
			continue
		}
		r.insertLocked(k, domain.OperationKey{Date: date, Batch: batch, Role: role}, now)
		created++
	}
	return created, nil
}

func (r *MemoryOperationsRepo) insertLocked(k string, key domain.OperationKey, at time.Time) *domain.OperationRecord {
	rec := &domain.OperationRecord{
		ID:            uuid.NewString(),
		OperationDate: civilDate(key.Date),
		Batch:         key.Batch,
		Role:          key.Role,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	r.seq++
	r.records[k] = rec
	r.order[k] = r.seq
	return rec
}

func (r *MemoryOperationsRepo) resolveNames(ctx context.Context, rec *domain.OperationRecord) {
	if r.users == nil {
		return
	}
	if rec.StartedByID != "" {
		if u, err := r.users.GetUserByID(ctx, rec.StartedByID); err == nil {
			rec.StartedBy = u.Name
		}
	}
	if rec.CompletedByID != "" {
		if u, err := r.users.GetUserByID(ctx, rec.CompletedByID); err == nil {
			rec.CompletedBy = u.Name
		}
	}
}

func copyRecord(rec *domain.OperationRecord) domain.OperationRecord {
	cp := *rec
	if rec.StartTime != nil {
		t := *rec.StartTime
		cp.StartTime = &t
	}
	if rec.EndTime != nil {
		t := *rec.EndTime
		cp.EndTime = &t
	}
	if rec.TotalOrders != nil {
		v := *rec.TotalOrders
		cp.TotalOrders = &v
	}
	if rec.OnTimeDeliveries != nil {
		v := *rec.OnTimeDeliveries
		cp.OnTimeDeliveries = &v
	}
	return cp
}
