package service

import (
	"context"
	"errors"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/events"
	"github.com/Emzykings/PallyOps-Tracker/internal/repository"
	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"

	"go.uber.org/zap"
)

// OperationService is the timing engine: it starts and ends role
// operations and computes the advisory ordering warnings.
type OperationService interface {
	Start(ctx context.Context, req StartRequest) (*OperationResult, error)
	End(ctx context.Context, req EndRequest) (*OperationResult, error)
	EndDriver(ctx context.Context, req EndDriverRequest) (*OperationResult, error)
	Get(ctx context.Context, date, batch, role string) (*domain.OperationView, error)
	CheckPrevious(ctx context.Context, date, batch, role string) (*domain.PreviousRoleCheck, error)
}

type StartRequest struct {
	OperationDate string
	Batch         string
	Role          string
	ActorID       string // resolved from the session, never from the body
}

type EndRequest = StartRequest

type EndDriverRequest struct {
	OperationDate    string
	Batch            string
	TotalOrders      int
	OnTimeDeliveries int
	ActorID          string
}

type OperationResult struct {
	Operation domain.OperationView `json:"operation"`
	Warning   *string              `json:"warning"`
}

type operationService struct {
	repo      repository.OperationsRepository
	calendar  *schedule.Calendar
	roles     *schedule.RoleSequence
	publisher events.Publisher
	logger    *zap.Logger
}

func NewOperationService(
	repo repository.OperationsRepository,
	calendar *schedule.Calendar,
	roles *schedule.RoleSequence,
	publisher events.Publisher,
	logger *zap.Logger,
) OperationService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &operationService{
		repo:      repo,
		calendar:  calendar,
		roles:     roles,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *operationService) slot(date, batch, role string) (domain.OperationKey, error) {
	d, err := parseOperationDate(date)
	if err != nil {
		return domain.OperationKey{}, err
	}
	b, err := normalizeBatch(batch)
	if err != nil {
		return domain.OperationKey{}, err
	}
	if err := validateRole(s.roles, role); err != nil {
		return domain.OperationKey{}, err
	}
	return domain.OperationKey{Date: d, Batch: b, Role: role}, nil
}

func (s *operationService) Start(ctx context.Context, req StartRequest) (*OperationResult, error) {
	if req.ActorID == "" {
		return nil, newError(KindUnauthorized, MsgInvalidToken)
	}
	key, err := s.slot(req.OperationDate, req.Batch, req.Role)
	if err != nil {
		return nil, err
	}
	if g := CanStart(key.Date, key.Batch, s.calendar.IsReadOnly(key.Date)); !g.Allowed {
		s.reject("start", key, req.ActorID, g)
		return nil, g.Err()
	}

	now := s.calendar.Now()
	rec, claimed, err := s.repo.ClaimStart(ctx, key, req.ActorID, now)
	if err != nil {
		s.logger.Error("Failed to start operation", append(keyFields(key), zap.Error(err))...)
		return nil, transient(err)
	}
	if !claimed {
		startedBy := rec.StartedBy
		if startedBy == "" {
			startedBy = rec.StartedByID
		}
		s.logger.Warn("Operation start rejected",
			append(keyFields(key),
				zap.String("user_id", req.ActorID),
				zap.String("reason", string(KindAlreadyStarted)),
				zap.String("started_by", startedBy),
			)...,
		)
		var startedAt *time.Time
		if rec.StartTime != nil {
			t := rec.StartTime.In(s.calendar.Location())
			startedAt = &t
		}
		return nil, &Error{
			Kind:      KindAlreadyStarted,
			Message:   MsgAlreadyStarted,
			StartedBy: startedBy,
			StartedAt: startedAt,
		}
	}

	var warning *string
	if prev, ok := s.roles.Previous(key.Role); ok {
		done, err := s.roleCompleted(ctx, domain.OperationKey{Date: key.Date, Batch: key.Batch, Role: prev})
		if err != nil {
			// the start is already committed; only the advisory warning is lost
			s.logger.Error("Failed to check previous role", append(keyFields(key), zap.String("previous_role", prev), zap.Error(err))...)
		} else if !done {
			w := previousRoleWarning(prev)
			warning = &w
		}
	}

	s.logger.Info("Operation started", append(keyFields(key), zap.String("user_id", req.ActorID))...)
	s.publish(ctx, events.TypeOperationStarted, rec, req.ActorID, now, warning)

	return &OperationResult{Operation: rec.View(s.calendar.Location()), Warning: warning}, nil
}

func (s *operationService) End(ctx context.Context, req EndRequest) (*OperationResult, error) {
	if req.ActorID == "" {
		return nil, newError(KindUnauthorized, MsgInvalidToken)
	}
	key, err := s.slot(req.OperationDate, req.Batch, req.Role)
	if err != nil {
		return nil, err
	}
	if s.roles.IsTerminal(key.Role) {
		return nil, newError(KindValidation, MsgDriverNeedsEndDriver)
	}
	return s.complete(ctx, key, req.ActorID, nil)
}

func (s *operationService) EndDriver(ctx context.Context, req EndDriverRequest) (*OperationResult, error) {
	if req.ActorID == "" {
		return nil, newError(KindUnauthorized, MsgInvalidToken)
	}
	key, err := s.slot(req.OperationDate, req.Batch, s.roles.Terminal())
	if err != nil {
		return nil, err
	}
	if g := CheckDeliveryStats(req.TotalOrders, req.OnTimeDeliveries); !g.Allowed {
		return nil, g.Err()
	}
	stats := &domain.DeliveryStats{TotalOrders: req.TotalOrders, OnTimeDeliveries: req.OnTimeDeliveries}
	return s.complete(ctx, key, req.ActorID, stats)
}

func (s *operationService) complete(ctx context.Context, key domain.OperationKey, actorID string, stats *domain.DeliveryStats) (*OperationResult, error) {
	if s.calendar.IsReadOnly(key.Date) {
		g := deny(KindReadOnly, MsgReadOnlyDate)
		s.reject("end", key, actorID, g)
		return nil, g.Err()
	}

	now := s.calendar.Now()
	rec, completed, err := s.repo.Complete(ctx, key, actorID, now, stats)
	if err != nil {
		s.logger.Error("Failed to complete operation", append(keyFields(key), zap.Error(err))...)
		return nil, transient(err)
	}
	if !completed {
		g := CanEnd(rec)
		if g.Allowed {
			// claim lost without a visible reason; treat as a retryable race
			return nil, transient(errors.New("completion claim not applied"))
		}
		s.reject("end", key, actorID, g)
		return nil, g.Err()
	}

	var warning *string
	if stats != nil {
		pending, err := s.incompleteRoles(ctx, key.Date, key.Batch)
		if err != nil {
			s.logger.Error("Failed to check remaining roles", append(keyFields(key), zap.Error(err))...)
		} else if len(pending) > 0 {
			w := incompleteRolesWarning(pending)
			warning = &w
		}
	}

	s.logger.Info("Operation completed", append(keyFields(key), zap.String("user_id", actorID))...)
	s.publish(ctx, events.TypeOperationCompleted, rec, actorID, now, warning)

	return &OperationResult{Operation: rec.View(s.calendar.Location()), Warning: warning}, nil
}

func (s *operationService) Get(ctx context.Context, date, batch, role string) (*domain.OperationView, error) {
	key, err := s.slot(date, batch, role)
	if err != nil {
		return nil, err
	}
	rec, err := s.repo.GetOperation(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(KindNotFound, MsgOperationNotFound)
		}
		return nil, transient(err)
	}
	v := rec.View(s.calendar.Location())
	return &v, nil
}

func (s *operationService) CheckPrevious(ctx context.Context, date, batch, role string) (*domain.PreviousRoleCheck, error) {
	key, err := s.slot(date, batch, role)
	if err != nil {
		return nil, err
	}

	out := &domain.PreviousRoleCheck{CurrentRole: key.Role, IsPreviousCompleted: true}
	prev, ok := s.roles.Previous(key.Role)
	if !ok {
		return out, nil
	}
	out.PreviousRole = &prev

	done, err := s.roleCompleted(ctx, domain.OperationKey{Date: key.Date, Batch: key.Batch, Role: prev})
	if err != nil {
		return nil, transient(err)
	}
	if !done {
		msg := previousRoleWarning(prev) + ". Continue anyway?"
		out.IsPreviousCompleted = false
		out.ShowWarning = true
		out.WarningMessage = &msg
	}
	return out, nil
}

// roleCompleted treats an absent record as not completed.
func (s *operationService) roleCompleted(ctx context.Context, key domain.OperationKey) (bool, error) {
	rec, err := s.repo.GetOperation(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return rec.IsCompleted(), nil
}

// incompleteRoles lists non-terminal roles of a batch without a completed record.
func (s *operationService) incompleteRoles(ctx context.Context, date time.Time, batch string) ([]string, error) {
	recs, err := s.repo.ListOperations(ctx, date, batch)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(recs))
	for _, r := range recs {
		if r.IsCompleted() {
			done[r.Role] = true
		}
	}
	var pending []string
	for _, role := range s.roles.NonTerminal() {
		if !done[role] {
			pending = append(pending, role)
		}
	}
	return pending, nil
}

func (s *operationService) publish(ctx context.Context, typ string, rec *domain.OperationRecord, actorID string, at time.Time, warning *string) {
	ev := events.OperationEvent{
		Type:             typ,
		OperationID:      rec.ID,
		OperationDate:    schedule.FormatDate(rec.OperationDate),
		Batch:            rec.Batch,
		Role:             rec.Role,
		ActorID:          actorID,
		OccurredAt:       at,
		TotalOrders:      rec.TotalOrders,
		OnTimeDeliveries: rec.OnTimeDeliveries,
	}
	if warning != nil {
		ev.Warning = *warning
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Failed to publish operation event",
			zap.String("type", typ),
			zap.String("operation_id", rec.ID),
			zap.Error(err),
		)
	}
}

func (s *operationService) reject(action string, key domain.OperationKey, actorID string, g GuardResult) {
	s.logger.Warn("Operation "+action+" rejected",
		append(keyFields(key),
			zap.String("user_id", actorID),
			zap.String("reason", string(g.Kind)),
		)...,
	)
}

func keyFields(key domain.OperationKey) []zap.Field {
	return []zap.Field{
		zap.String("operation_date", schedule.FormatDate(key.Date)),
		zap.String("batch", key.Batch),
		zap.String("role", key.Role),
	}
}
