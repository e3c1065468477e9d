package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/Emzykings/PallyOps-Tracker/internal/schedule"

	"go.uber.org/zap"
)

// HealthCheck is one readiness dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type ServiceInfo struct {
	Name     string
	Version  string
	Debug    bool
	Database string // "postgres" or "memory"
	Cache    string // "redis" or "memory"
}

type HealthHandler struct {
	info     ServiceInfo
	checks   []HealthCheck
	calendar *schedule.Calendar
	roles    *schedule.RoleSequence
	logger   *zap.Logger
}

func NewHealthHandler(info ServiceInfo, checks []HealthCheck, calendar *schedule.Calendar, roles *schedule.RoleSequence, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{info: info, checks: checks, calendar: calendar, roles: roles, logger: logger}
}

func (h *HealthHandler) Live(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"status":    "healthy",
		"service":   h.info.Name,
		"version":   h.info.Version,
		"timestamp": h.calendar.Now().Format(time.RFC3339),
	}))
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]string{}
	ready := true
	for _, c := range h.checks {
		if err := c.Check(ctx); err != nil {
			h.logger.Warn("Readiness check failed", zap.String("check", c.Name), zap.Error(err))
			checks[c.Name] = "unavailable"
			ready = false
			continue
		}
		checks[c.Name] = "ok"
	}

	body := map[string]any{"ready": ready, "checks": checks}
	if !ready {
		writeJSON(w, http.StatusServiceUnavailable, Result[any]{
			Code: ResultError, Type: "error", Message: "service not ready", Result: body,
		})
		return
	}
	writeJSON(w, http.StatusOK, Ok(body))
}

// Info is only served in debug mode.
func (h *HealthHandler) Info(w http.ResponseWriter, r *http.Request) {
	if !h.info.Debug {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	now := h.calendar.Now()
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"service":           h.info.Name,
		"version":           h.info.Version,
		"database":          h.info.Database,
		"cache":             h.info.Cache,
		"timezone":          h.calendar.Location().String(),
		"server_time":       now.Format(time.RFC3339),
		"today":             schedule.FormatDate(h.calendar.Today()),
		"available_batches": schedule.AvailableBatches(h.calendar.Today()),
		"roles":             h.roles.Roles(),
		"driver_role":       h.roles.Terminal(),
	}))
}
