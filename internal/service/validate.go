package service

import (
	"strings"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"
)

const (
	minOperationYear = 2024
	maxOperationYear = 2100
)

func parseOperationDate(s string) (time.Time, error) {
	d, err := schedule.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, &Error{Kind: KindValidation, Message: err.Error()}
	}
	if d.Year() < minOperationYear || d.Year() > maxOperationYear {
		return time.Time{}, newError(KindValidation, "Operation date must be between 2024 and 2100")
	}
	return d, nil
}

// normalizeBatch trims and upper-cases before checking the batch alphabet.
func normalizeBatch(s string) (string, error) {
	b := strings.ToUpper(strings.TrimSpace(s))
	if !schedule.IsValidBatch(b) {
		return "", newError(KindValidation, MsgInvalidBatch)
	}
	return b, nil
}

func validateRole(roles *schedule.RoleSequence, role string) error {
	if !roles.Contains(role) {
		return newError(KindValidation, MsgInvalidRole)
	}
	return nil
}
