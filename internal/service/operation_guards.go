package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"
)

// Guards are pure precondition checks; none of them touch storage.

type GuardResult struct {
	Allowed bool
	Kind    ErrorKind
	Reason  string
}

func (r GuardResult) Err() error {
	if r.Allowed {
		return nil
	}
	return newError(r.Kind, r.Reason)
}

func allow() GuardResult { return GuardResult{Allowed: true} }

func deny(kind ErrorKind, reason string) GuardResult {
	return GuardResult{Kind: kind, Reason: reason}
}

// CanStart: batch offered on the date, then date not in the past.
func CanStart(date time.Time, batch string, readOnly bool) GuardResult {
	if !schedule.IsBatchAvailable(date, batch) {
		return deny(KindNotAvailable, MsgBatchNotAvailable)
	}
	if readOnly {
		return deny(KindReadOnly, MsgReadOnlyDate)
	}
	return allow()
}

// CanEnd inspects the current record after a failed completion claim.
func CanEnd(rec *domain.OperationRecord) GuardResult {
	switch {
	case rec.IsCompleted():
		return deny(KindAlreadyCompleted, MsgAlreadyCompleted)
	case !rec.IsStarted():
		return deny(KindNotStarted, MsgNotStarted)
	default:
		return allow()
	}
}

// CheckDeliveryStats requires 0 <= onTime <= total.
func CheckDeliveryStats(total, onTime int) GuardResult {
	if total < 0 || onTime < 0 {
		return deny(KindValidation, MsgNegativeOrders)
	}
	if onTime > total {
		return deny(KindValidation, MsgInvalidOrdersCount)
	}
	return allow()
}

func previousRoleWarning(prev string) string {
	return fmt.Sprintf("Previous operation '%s' not completed yet", prev)
}

func incompleteRolesWarning(roles []string) string {
	return "Roles not completed: " + strings.Join(roles, ", ")
}
