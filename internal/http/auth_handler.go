package httpapi

import (
	"net/http"

	"github.com/Emzykings/PallyOps-Tracker/internal/service"

	"go.uber.org/zap"
)

type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: logger}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	res, err := h.authService.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, OkMessage(res, res.Message, nil))
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginRequest
	if err := readBodyJSON(r, maxBodyBytes, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}
	res, err := h.authService.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage(res, res.Message, nil))
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	if err := h.authService.Logout(r.Context(), tokenFrom(r.Context()), u.ID); err != nil {
		writeError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, OkMessage[any](nil, "Logged out successfully", nil))
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	writeJSON(w, http.StatusOK, Ok(u.View()))
}

// Verify succeeds for any token that passed authentication.
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	u, _ := UserFrom(r.Context())
	writeJSON(w, http.StatusOK, OkMessage(map[string]any{
		"valid":   true,
		"user_id": u.ID,
	}, "Token is valid", nil))
}
