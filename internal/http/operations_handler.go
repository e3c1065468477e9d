package httpapi

import (
	"net/http"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"go.uber.org/zap"
)

type OperationsHandler struct {
	ops    service.OperationService
	logger *zap.Logger
}

func NewOperationsHandler(ops service.OperationService, logger *zap.Logger) *OperationsHandler {
	return &OperationsHandler{ops: ops, logger: logger}
}

type operationBody struct {
	OperationDate string `json:"operation_date"`
	Batch         string `json:"batch"`
	Role          string `json:"role"`
}

type endDriverBody struct {
	OperationDate    string `json:"operation_date"`
	Batch            string `json:"batch"`
	TotalOrders      *int   `json:"total_orders"`
	OnTimeDeliveries *int   `json:"on_time_deliveries"`
}

func actorID(r *http.Request) string {
	if u, ok := UserFrom(r.Context()); ok {
		return u.ID
	}
	return ""
}

func (h *OperationsHandler) Start(w http.ResponseWriter, r *http.Request) {
	var body operationBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	res, err := h.ops.Start(r.Context(), service.StartRequest{
		OperationDate: body.OperationDate,
		Batch:         body.Batch,
		Role:          body.Role,
		ActorID:       actorID(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(res, "Operation started successfully", res.Warning))
}

func (h *OperationsHandler) End(w http.ResponseWriter, r *http.Request) {
	var body operationBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	res, err := h.ops.End(r.Context(), service.EndRequest{
		OperationDate: body.OperationDate,
		Batch:         body.Batch,
		Role:          body.Role,
		ActorID:       actorID(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(res, "Operation completed successfully", res.Warning))
}

func (h *OperationsHandler) EndDriver(w http.ResponseWriter, r *http.Request) {
	var body endDriverBody
	if err := readBodyJSON(r, maxBodyBytes, &body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	if body.TotalOrders == nil || body.OnTimeDeliveries == nil {
		writeBadRequest(w, "Total orders is required for Driver role")
		return
	}
	res, err := h.ops.EndDriver(r.Context(), service.EndDriverRequest{
		OperationDate:    body.OperationDate,
		Batch:            body.Batch,
		TotalOrders:      *body.TotalOrders,
		OnTimeDeliveries: *body.OnTimeDeliveries,
		ActorID:          actorID(r),
	})
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(res, "Operation completed successfully", res.Warning))
}

func (h *OperationsHandler) CheckPrevious(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := h.ops.CheckPrevious(r.Context(), q.Get("operation_date"), q.Get("batch"), q.Get("role"))
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}

func (h *OperationsHandler) Get(w http.ResponseWriter, r *http.Request, date, batch, role string) {
	res, err := h.ops.Get(r.Context(), date, batch, role)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(res))
}
