package domain

import "time"

// BatchColor is the traffic-light state of a batch.
type BatchColor string

const (
	BatchRed    BatchColor = "RED"
	BatchYellow BatchColor = "YELLOW"
	BatchGreen  BatchColor = "GREEN"
)

// ColorFor evaluates RED, then GREEN, then YELLOW.
func ColorFor(started, completed, totalRoles int) BatchColor {
	if started == 0 {
		return BatchRed
	}
	if completed >= totalRoles {
		return BatchGreen
	}
	return BatchYellow
}

type BatchStatus struct {
	Batch              string     `json:"batch"`
	Status             BatchColor `json:"status"`
	StartedCount       int        `json:"started_count"`
	CompletedCount     int        `json:"completed_count"`
	TotalRoles         int        `json:"total_roles"`
	ProgressPercentage float64    `json:"progress_percentage"`
}

func NewBatchStatus(batch string, started, completed, totalRoles int) BatchStatus {
	return BatchStatus{
		Batch:              batch,
		Status:             ColorFor(started, completed, totalRoles),
		StartedCount:       started,
		CompletedCount:     completed,
		TotalRoles:         totalRoles,
		ProgressPercentage: Percent(completed, totalRoles),
	}
}

// BatchList is every batch offered on one date.
type BatchList struct {
	OperationDate   string        `json:"operation_date"`
	DayOfWeek       string        `json:"day_of_week"`
	IsRestrictedDay bool          `json:"is_restricted_day"`
	IsReadOnly      bool          `json:"is_readonly"`
	Batches         []BatchStatus `json:"batches"`
}

type BatchDetail struct {
	BatchStatus
	OperationDate string `json:"operation_date"`
	DayOfWeek     string `json:"day_of_week"`
	IsReadOnly    bool   `json:"is_readonly"`
}

// RoleStatus is one slot of a batch in sequence order; Order is 1-based.
type RoleStatus struct {
	Role             string          `json:"role"`
	Order            int             `json:"order"`
	Status           OperationStatus `json:"status"`
	StartTime        *time.Time      `json:"start_time"`
	EndTime          *time.Time      `json:"end_time"`
	DurationMinutes  *int            `json:"duration_minutes"`
	StartedBy        *string         `json:"started_by"`
	CompletedBy      *string         `json:"completed_by"`
	TotalOrders      *int            `json:"total_orders,omitempty"`
	OnTimeDeliveries *int            `json:"on_time_deliveries,omitempty"`
	OnTimePercentage *float64        `json:"on_time_percentage,omitempty"`
}

// NewRoleStatus treats a nil record as a pending slot.
func NewRoleStatus(role string, order int, rec *OperationRecord, loc *time.Location) RoleStatus {
	rs := RoleStatus{Role: role, Order: order, Status: StatusPending}
	if rec == nil {
		return rs
	}
	v := rec.View(loc)
	rs.Status = v.Status
	rs.StartTime = v.StartTime
	rs.EndTime = v.EndTime
	rs.DurationMinutes = v.DurationMinutes
	rs.StartedBy = v.StartedBy
	rs.CompletedBy = v.CompletedBy
	rs.TotalOrders = v.TotalOrders
	rs.OnTimeDeliveries = v.OnTimeDeliveries
	rs.OnTimePercentage = v.OnTimePercentage
	return rs
}

type BatchRoles struct {
	BatchDetail
	Month string       `json:"month"`
	Year  int          `json:"year"`
	Roles []RoleStatus `json:"roles"`
}

// DailySummary rolls every batch of a date up. Delivery figures are nil
// until at least one order is reported.
type DailySummary struct {
	OperationDate           string        `json:"operation_date"`
	DayOfWeek               string        `json:"day_of_week"`
	TotalBatches            int           `json:"total_batches"`
	CompletedBatches        int           `json:"completed_batches"`
	TotalRoles              int           `json:"total_roles"`
	CompletedRoles          int           `json:"completed_roles"`
	OverallProgress         float64       `json:"overall_progress"`
	TotalOrdersDelivered    *int          `json:"total_orders_delivered"`
	TotalOnTimeDeliveries   *int          `json:"total_on_time_deliveries"`
	OverallOnTimePercentage *float64      `json:"overall_on_time_percentage"`
	Batches                 []BatchStatus `json:"batches"`
}

// PreviousRoleCheck is the pre-flight verdict for starting a role.
type PreviousRoleCheck struct {
	CurrentRole         string  `json:"current_role"`
	PreviousRole        *string `json:"previous_role"`
	IsPreviousCompleted bool    `json:"is_previous_completed"`
	ShowWarning         bool    `json:"show_warning"`
	WarningMessage      *string `json:"warning_message"`
}
