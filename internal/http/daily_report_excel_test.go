package httpapi

import (
	"bytes"
	"net/http"
	"testing"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/domain"
	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestGenerateDailyReport(t *testing.T) {
	start := time.Date(2024, 1, 17, 8, 0, 0, 0, time.UTC)
	end := start.Add(95 * time.Minute)
	total, onTime, minutes := 150, 142, 95
	pct := 94.67
	name := "Ada Obi"

	report := &service.DailyReport{
		Summary: &domain.DailySummary{
			OperationDate:           "2024-01-17",
			TotalBatches:            1,
			TotalRoles:              11,
			CompletedRoles:          1,
			OverallProgress:         9.09,
			TotalOrdersDelivered:    &total,
			TotalOnTimeDeliveries:   &onTime,
			OverallOnTimePercentage: &pct,
			Batches:                 []domain.BatchStatus{domain.NewBatchStatus("A", 1, 1, 11)},
		},
		Batches: []domain.BatchRoles{{
			BatchDetail: domain.BatchDetail{BatchStatus: domain.NewBatchStatus("A", 1, 1, 11)},
			Roles: []domain.RoleStatus{
				{Role: "Driver", Order: 11, Status: domain.StatusCompleted, StartTime: &start, EndTime: &end,
					DurationMinutes: &minutes, StartedBy: &name, TotalOrders: &total,
					OnTimeDeliveries: &onTime, OnTimePercentage: &pct},
				{Role: "Procurement", Order: 1, Status: domain.StatusPending},
			},
		}},
	}

	data, err := GenerateDailyReport(report)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{batchesSheet, rolesSheet}, f.GetSheetList())

	rows, err := f.GetRows(batchesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, BatchesExportHeader, rows[0])
	assert.Equal(t, []string{"A", "YELLOW", "1", "1", "11", "9.09"}, rows[1])
	assert.Equal(t, "Total", rows[2][0])

	rows, err = f.GetRows(rolesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, RolesExportHeader, rows[0])
	assert.Equal(t, "Driver", rows[1][2])
	assert.Equal(t, "2024-01-17 08:00:00", rows[1][4])
	assert.Equal(t, "95", rows[1][6])
	assert.Equal(t, "94.67", rows[1][11])
	assert.Equal(t, []string{"A", "1", "Procurement", "PENDING"}, rows[2])
	assert.Equal(t, "150", rows[3][9])
}

func TestExportRoute(t *testing.T) {
	api := newTestAPI(t, apiOptions{})
	token := api.register(t, "Ada Obi", "ada@pally.ng")

	rec := api.do(t, http.MethodGet, "/api/v1/batches/summary/export?operation_date=2024-01-15", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "pallyops-2024-01-15.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(rolesSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1+3*11, "Monday offers three batches")
}
