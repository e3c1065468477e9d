package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"go.uber.org/zap"
)

var kindStatus = map[service.ErrorKind]int{
	service.KindValidation:       http.StatusUnprocessableEntity,
	service.KindNotAvailable:     http.StatusBadRequest,
	service.KindReadOnly:         http.StatusForbidden,
	service.KindAlreadyStarted:   http.StatusConflict,
	service.KindNotStarted:       http.StatusBadRequest,
	service.KindAlreadyCompleted: http.StatusConflict,
	service.KindNotFound:         http.StatusNotFound,
	service.KindUnauthorized:     http.StatusUnauthorized,
	service.KindConflict:         http.StatusConflict,
	service.KindTransient:        http.StatusServiceUnavailable,
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind service.ErrorKind) int {
	if s, ok := kindStatus[kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}

// writeError renders err in the envelope. Transient causes are logged
// but never echoed to the client.
func writeError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error) {
	kind := service.KindOf(err)
	detail := ErrorDetail{Error: string(kind)}
	msg := service.MsgTemporaryFailure

	var e *service.Error
	if errors.As(err, &e) {
		msg = e.Message
		if e.Kind == service.KindAlreadyStarted {
			detail.StartedBy = e.StartedBy
			if e.StartedAt != nil {
				detail.StartedAt = e.StartedAt.Format(time.RFC3339)
			}
		}
	}
	if kind == service.KindTransient {
		logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("request_id", RequestIDFrom(r.Context())),
			zap.Error(err),
		)
	}
	if kind == service.KindUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}

	writeJSON(w, StatusFor(kind), Result[any]{Code: ResultError, Type: "error", Message: msg, Result: detail})
}

func writeBadRequest(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, Result[any]{
		Code: ResultError, Type: "error", Message: message,
		Result: ErrorDetail{Error: string(service.KindValidation)},
	})
}
