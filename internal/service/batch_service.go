package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/repository"
	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"
	"github.com/Emzykings/PallyOps-Tracker/internal/store"

	"go.uber.org/zap"
)

// BatchService aggregates role records into batch and day status.
type BatchService interface {
	ListBatches(ctx context.Context, date string) (*domain.BatchList, error)
	GetBatch(ctx context.Context, date, batch string) (*domain.BatchDetail, error)
	GetBatchRoles(ctx context.Context, date, batch string) (*domain.BatchRoles, error)
	InitializeBatch(ctx context.Context, date, batch string) (*InitializeResult, error)
	DailySummary(ctx context.Context, date string) (*domain.DailySummary, error)
	DailyReport(ctx context.Context, date string) (*DailyReport, error)
}

type InitializeResult struct {
	OperationDate string `json:"operation_date"`
	Batch         string `json:"batch"`
	Created       int    `json:"created"`
	TotalRoles    int    `json:"total_roles"`
}

// DailyReport is everything the spreadsheet export renders.
type DailyReport struct {
	Summary *domain.DailySummary
	Batches []domain.BatchRoles
}

type batchService struct {
	repo     repository.OperationsRepository
	calendar *schedule.Calendar
	roles    *schedule.RoleSequence
	cache    store.KV
	cacheTTL time.Duration
	logger   *zap.Logger
}

// NewBatchService caches past-day summaries in cache when it is non-nil.
func NewBatchService(
	repo repository.OperationsRepository,
	calendar *schedule.Calendar,
	roles *schedule.RoleSequence,
	cache store.KV,
	cacheTTL time.Duration,
	logger *zap.Logger,
) BatchService {
	return &batchService{
		repo:     repo,
		calendar: calendar,
		roles:    roles,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
	}
}

// resolveDate defaults an empty date to today in the operating timezone.
func (s *batchService) resolveDate(date string) (time.Time, error) {
	if strings.TrimSpace(date) == "" {
		return s.calendar.Today(), nil
	}
	return parseOperationDate(date)
}

func (s *batchService) resolveBatch(date time.Time, batch string) (string, error) {
	b, err := normalizeBatch(batch)
	if err != nil {
		return "", err
	}
	if !schedule.IsBatchAvailable(date, b) {
		return "", newError(KindNotAvailable, fmt.Sprintf("Batch %s is not available for this date. Available batches: %s",
			b, strings.Join(schedule.AvailableBatches(date), ", ")))
	}
	return b, nil
}

func (s *batchService) batchStatus(ctx context.Context, date time.Time, batch string) (domain.BatchStatus, error) {
	started, completed, err := s.repo.CountProgress(ctx, date, batch)
	if err != nil {
		return domain.BatchStatus{}, err
	}
	return domain.NewBatchStatus(batch, started, completed, s.roles.Len()), nil
}

func (s *batchService) ListBatches(ctx context.Context, date string) (*domain.BatchList, error) {
	d, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	out := &domain.BatchList{
		OperationDate:   schedule.FormatDate(d),
		DayOfWeek:       d.Weekday().String(),
		IsRestrictedDay: schedule.IsRestrictedDay(d),
		IsReadOnly:      s.calendar.IsReadOnly(d),
	}
	for _, b := range schedule.AvailableBatches(d) {
		st, err := s.batchStatus(ctx, d, b)
		if err != nil {
			return nil, s.transient("list batches", d, err)
		}
		out.Batches = append(out.Batches, st)
	}
	return out, nil
}

func (s *batchService) GetBatch(ctx context.Context, date, batch string) (*domain.BatchDetail, error) {
	d, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	b, err := s.resolveBatch(d, batch)
	if err != nil {
		return nil, err
	}
	st, err := s.batchStatus(ctx, d, b)
	if err != nil {
		return nil, s.transient("get batch", d, err)
	}
	return &domain.BatchDetail{
		BatchStatus:   st,
		OperationDate: schedule.FormatDate(d),
		DayOfWeek:     d.Weekday().String(),
		IsReadOnly:    s.calendar.IsReadOnly(d),
	}, nil
}

func (s *batchService) GetBatchRoles(ctx context.Context, date, batch string) (*domain.BatchRoles, error) {
	d, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}
	b, err := s.resolveBatch(d, batch)
	if err != nil {
		return nil, err
	}
	br, err := s.batchRoles(ctx, d, b)
	if err != nil {
		return nil, s.transient("get batch roles", d, err)
	}
	return br, nil
}

func (s *batchService) batchRoles(ctx context.Context, d time.Time, b string) (*domain.BatchRoles, error) {
	recs, err := s.repo.ListOperations(ctx, d, b)
	if err != nil {
		return nil, err
	}
	byRole := make(map[string]*domain.OperationRecord, len(recs))
	var started, completed int
	for _, r := range recs {
		byRole[r.Role] = r
		if r.IsStarted() {
			started++
		}
		if r.IsCompleted() {
			completed++
		}
	}

	roles := make([]domain.RoleStatus, 0, s.roles.Len())
	for i, role := range s.roles.Roles() {
		roles = append(roles, domain.NewRoleStatus(role, i+1, byRole[role], s.calendar.Location()))
	}

	return &domain.BatchRoles{
		BatchDetail: domain.BatchDetail{
			BatchStatus:   domain.NewBatchStatus(b, started, completed, s.roles.Len()),
			OperationDate: schedule.FormatDate(d),
			DayOfWeek:     d.Weekday().String(),
			IsReadOnly:    s.calendar.IsReadOnly(d),
		},
		Month: d.Month().String(),
		Year:  d.Year(),
		Roles: roles,
	}, nil
}

func (s *batchService) InitializeBatch(ctx context.Context, date, batch string) (*InitializeResult, error) {
	d, err := parseOperationDate(date)
	if err != nil {
		return nil, err
	}
	b, err := s.resolveBatch(d, batch)
	if err != nil {
		return nil, err
	}
	if s.calendar.IsReadOnly(d) {
		return nil, newError(KindReadOnly, MsgReadOnlyDate)
	}

	n, err := s.repo.InitializeBatch(ctx, d, b, s.roles.Roles())
	if err != nil {
		return nil, s.transient("initialize batch", d, err)
	}
	s.logger.Info("Batch initialized",
		zap.String("operation_date", schedule.FormatDate(d)),
		zap.String("batch", b),
		zap.Int("created", n),
	)
	return &InitializeResult{
		OperationDate: schedule.FormatDate(d),
		Batch:         b,
		Created:       n,
		TotalRoles:    s.roles.Len(),
	}, nil
}

func (s *batchService) DailySummary(ctx context.Context, date string) (*domain.DailySummary, error) {
	d, err := s.resolveDate(date)
	if err != nil {
		return nil, err
	}

	// Past dates are read-only, so their summaries cannot change.
	cacheable := s.cache != nil && s.calendar.IsReadOnly(d)
	key := "pallyops:summary:" + schedule.FormatDate(d)
	if cacheable {
		if sum, ok := s.cachedSummary(ctx, key); ok {
			return sum, nil
		}
	}

	sum, err := s.summarize(ctx, d)
	if err != nil {
		return nil, s.transient("daily summary", d, err)
	}

	if cacheable {
		if raw, err := json.Marshal(sum); err == nil {
			if err := s.cache.Set(ctx, key, string(raw), s.cacheTTL); err != nil {
				s.logger.Warn("Failed to cache daily summary", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return sum, nil
}

func (s *batchService) cachedSummary(ctx context.Context, key string) (*domain.DailySummary, bool) {
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, store.ErrMiss) {
			s.logger.Warn("Failed to read summary cache", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	var sum domain.DailySummary
	if err := json.Unmarshal([]byte(raw), &sum); err != nil {
		s.logger.Warn("Discarding corrupt summary cache entry", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return &sum, true
}

func (s *batchService) summarize(ctx context.Context, d time.Time) (*domain.DailySummary, error) {
	batches := schedule.AvailableBatches(d)
	sum := &domain.DailySummary{
		OperationDate: schedule.FormatDate(d),
		DayOfWeek:     d.Weekday().String(),
		TotalBatches:  len(batches),
		TotalRoles:    len(batches) * s.roles.Len(),
	}

	var totalOrders, onTime int
	for _, b := range batches {
		st, err := s.batchStatus(ctx, d, b)
		if err != nil {
			return nil, err
		}
		sum.Batches = append(sum.Batches, st)
		sum.CompletedRoles += st.CompletedCount
		if st.Status == domain.BatchGreen {
			sum.CompletedBatches++
		}

		driver, err := s.repo.GetOperation(ctx, domain.OperationKey{Date: d, Batch: b, Role: s.roles.Terminal()})
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				continue
			}
			return nil, err
		}
		if driver.TotalOrders != nil {
			totalOrders += *driver.TotalOrders
		}
		if driver.OnTimeDeliveries != nil {
			onTime += *driver.OnTimeDeliveries
		}
	}

	sum.OverallProgress = domain.Percent(sum.CompletedRoles, sum.TotalRoles)
	if totalOrders > 0 {
		pct := domain.Percent(onTime, totalOrders)
		sum.TotalOrdersDelivered = &totalOrders
		sum.TotalOnTimeDeliveries = &onTime
		sum.OverallOnTimePercentage = &pct
	}
	return sum, nil
}

func (s *batchService) DailyReport(ctx context.Context, date string) (*DailyReport, error) {
	sum, err := s.DailySummary(ctx, date)
	if err != nil {
		return nil, err
	}
	d, err := schedule.ParseDate(sum.OperationDate)
	if err != nil {
		return nil, transient(err)
	}

	report := &DailyReport{Summary: sum}
	for _, b := range schedule.AvailableBatches(d) {
		br, err := s.batchRoles(ctx, d, b)
		if err != nil {
			return nil, s.transient("daily report", d, err)
		}
		report.Batches = append(report.Batches, *br)
	}
	return report, nil
}

func (s *batchService) transient(action string, d time.Time, err error) error {
	s.logger.Error("Failed to "+action,
		zap.String("operation_date", schedule.FormatDate(d)),
		zap.Error(err),
	)
	return transient(err)
}
