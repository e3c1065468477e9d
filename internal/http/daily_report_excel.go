package httpapi

import (
	"bytes"
	"fmt"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"github.com/xuri/excelize/v2"
)

const (
	batchesSheet = "Batches"
	rolesSheet   = "Roles"
)

var BatchesExportHeader = []string{
	"Batch",
	"Status",
	"Started",
	"Completed",
	"Total Roles",
	"Progress %",
}

var RolesExportHeader = []string{
	"Batch",
	"Order",
	"Role",
	"Status",
	"Start Time",
	"End Time",
	"Duration (min)",
	"Started By",
	"Completed By",
	"Total Orders",
	"On-time",
	"On-time %",
}

// GenerateDailyReport renders a day's batches and roles as an xlsx workbook.
func GenerateDailyReport(report *service.DailyReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(batchesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(rolesSheet); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	sum := report.Summary
	batchRows := make([][]any, 0, len(sum.Batches)+1)
	for _, b := range sum.Batches {
		batchRows = append(batchRows, []any{
			b.Batch, string(b.Status), b.StartedCount, b.CompletedCount, b.TotalRoles, b.ProgressPercentage,
		})
	}
	batchRows = append(batchRows, []any{
		"Total", fmt.Sprintf("%d/%d batches complete", sum.CompletedBatches, sum.TotalBatches),
		nil, sum.CompletedRoles, sum.TotalRoles, sum.OverallProgress,
	})
	if err := writeSheet(f, batchesSheet, BatchesExportHeader, batchRows, headerStyle,
		[]float64{10, 24, 10, 12, 12, 12}); err != nil {
		return nil, err
	}

	var roleRows [][]any
	for _, br := range report.Batches {
		for _, rs := range br.Roles {
			roleRows = append(roleRows, []any{
				br.Batch, rs.Order, rs.Role, string(rs.Status),
				timeCell(rs.StartTime), timeCell(rs.EndTime),
				intCell(rs.DurationMinutes), strCell(rs.StartedBy), strCell(rs.CompletedBy),
				intCell(rs.TotalOrders), intCell(rs.OnTimeDeliveries), floatCell(rs.OnTimePercentage),
			})
		}
	}
	if sum.TotalOrdersDelivered != nil {
		roleRows = append(roleRows, []any{
			"Total", nil, nil, nil, nil, nil, nil, nil, nil,
			*sum.TotalOrdersDelivered, intCell(sum.TotalOnTimeDeliveries), floatCell(sum.OverallOnTimePercentage),
		})
	}
	if err := writeSheet(f, rolesSheet, RolesExportHeader, roleRows, headerStyle,
		[]float64{8, 8, 24, 14, 20, 20, 14, 20, 20, 14, 10, 10}); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write to buffer: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, headers []string, rows [][]any, headerStyle int, widths []float64) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("failed to set header cell %s: %w", cell, err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return fmt.Errorf("failed to set header style: %w", err)
		}
	}
	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("failed to set cell %s: %w", cell, err)
			}
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func timeCell(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.Format("2006-01-02 15:04:05")
}

func intCell(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func floatCell(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func strCell(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}
