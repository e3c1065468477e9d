package httpapi

import (
	"fmt"
	"net/http"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"go.uber.org/zap"
)

type BatchesHandler struct {
	batches service.BatchService
	logger  *zap.Logger
}

func NewBatchesHandler(batches service.BatchService, logger *zap.Logger) *BatchesHandler {
	return &BatchesHandler{batches: batches, logger: logger}
}

func operationDate(r *http.Request) string {
	return r.URL.Query().Get("operation_date")
}

func (h *BatchesHandler) List(w http.ResponseWriter, r *http.Request) {
	res, err := h.batches.ListBatches(r.Context(), operationDate(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *BatchesHandler) Get(w http.ResponseWriter, r *http.Request, batch string) {
	res, err := h.batches.GetBatch(r.Context(), operationDate(r), batch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *BatchesHandler) Roles(w http.ResponseWriter, r *http.Request, batch string) {
	res, err := h.batches.GetBatchRoles(r.Context(), operationDate(r), batch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *BatchesHandler) Initialize(w http.ResponseWriter, r *http.Request, batch string) {
	res, err := h.batches.InitializeBatch(r.Context(), operationDate(r), batch)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	msg := fmt.Sprintf("Batch %s initialized with %d new roles", res.Batch, res.Created)
	writeJSON(w, http.StatusOK, OkMessage(res, msg, nil))
}

func (h *BatchesHandler) DailySummary(w http.ResponseWriter, r *http.Request) {
	res, err := h.batches.DailySummary(r.Context(), operationDate(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

// Export streams the day's report as an xlsx workbook.
func (h *BatchesHandler) Export(w http.ResponseWriter, r *http.Request) {
	report, err := h.batches.DailyReport(r.Context(), operationDate(r))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	data, err := GenerateDailyReport(report)
	if err != nil {
		h.logger.Error("GenerateDailyReport failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, Fail(fmt.Sprintf("failed to generate export: %v", err)))
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=pallyops-%s.xlsx", report.Summary.OperationDate))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
