package domain

import (
	"math"
	"time"
)

// OperationStatus is derived from the two timestamps, never stored.
type OperationStatus string

const (
	StatusPending    OperationStatus = "PENDING"
	StatusInProgress OperationStatus = "IN_PROGRESS"
	StatusCompleted  OperationStatus = "COMPLETED"
)

// OperationRecord is one role's timing state for one (date, batch) slot.
type OperationRecord struct {
	ID            string
	OperationDate time.Time // civil date, midnight UTC
	Batch         string
	Role          string
	StartTime     *time.Time
	EndTime       *time.Time

	StartedByID   string
	StartedBy     string // display name
	CompletedByID string
	CompletedBy   string

	TotalOrders      *int
	OnTimeDeliveries *int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// OperationKey addresses exactly one record.
type OperationKey struct {
	Date  time.Time
	Batch string
	Role  string
}

// DeliveryStats are reported only when the driver role completes.
type DeliveryStats struct {
	TotalOrders      int
	OnTimeDeliveries int
}

func (r *OperationRecord) IsStarted() bool   { return r != nil && r.StartTime != nil }
func (r *OperationRecord) IsCompleted() bool { return r != nil && r.EndTime != nil }

func (r *OperationRecord) Status() OperationStatus {
	switch {
	case r.IsCompleted():
		return StatusCompleted
	case r.IsStarted():
		return StatusInProgress
	default:
		return StatusPending
	}
}

// DurationMinutes is the elapsed whole minutes; nil until both timestamps exist.
func (r *OperationRecord) DurationMinutes() *int {
	if r.StartTime == nil || r.EndTime == nil {
		return nil
	}
	m := int(r.EndTime.Sub(*r.StartTime) / time.Minute)
	return &m
}

// OnTimePercentage is nil unless orders were delivered.
func (r *OperationRecord) OnTimePercentage() *float64 {
	if r.TotalOrders == nil || r.OnTimeDeliveries == nil || *r.TotalOrders <= 0 {
		return nil
	}
	p := Percent(*r.OnTimeDeliveries, *r.TotalOrders)
	return &p
}

// Percent is round(100*part/whole, 2); 0 when whole is 0.
func Percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)*100/float64(whole)*100) / 100
}

// OperationView is the JSON projection of a record.
type OperationView struct {
	ID               string          `json:"id"`
	OperationDate    string          `json:"operation_date"`
	DayOfWeek        string          `json:"day_of_week"`
	Month            string          `json:"month"`
	Year             int             `json:"year"`
	Batch            string          `json:"batch"`
	Role             string          `json:"operation_role"`
	Status           OperationStatus `json:"status"`
	StartTime        *time.Time      `json:"start_time"`
	EndTime          *time.Time      `json:"end_time"`
	DurationMinutes  *int            `json:"duration_minutes"`
	TotalOrders      *int            `json:"total_orders"`
	OnTimeDeliveries *int            `json:"on_time_deliveries"`
	OnTimePercentage *float64        `json:"on_time_percentage"`
	StartedBy        *string         `json:"started_by"`
	CompletedBy      *string         `json:"completed_by"`
}

// View renders timestamps in loc.
func (r *OperationRecord) View(loc *time.Location) OperationView {
	return OperationView{
		ID:               r.ID,
		OperationDate:    r.OperationDate.Format("2006-01-02"),
		DayOfWeek:        r.OperationDate.Weekday().String(),
		Month:            r.OperationDate.Month().String(),
		Year:             r.OperationDate.Year(),
		Batch:            r.Batch,
		Role:             r.Role,
		Status:           r.Status(),
		StartTime:        inLocation(r.StartTime, loc),
		EndTime:          inLocation(r.EndTime, loc),
		DurationMinutes:  r.DurationMinutes(),
		TotalOrders:      r.TotalOrders,
		OnTimeDeliveries: r.OnTimeDeliveries,
		OnTimePercentage: r.OnTimePercentage(),
		StartedBy:        optional(r.StartedBy),
		CompletedBy:      optional(r.CompletedBy),
	}
}

func inLocation(t *time.Time, loc *time.Location) *time.Time {
	if t == nil {
		return nil
	}
	if loc == nil {
		v := *t
		return &v
	}
	v := t.In(loc)
	return &v
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
