package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/auth"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/provisioning"
	"go.uber.org/zap"
)

// Hirer создает учетную запись и профиль нового сотрудника
type Hirer interface {
	Hire(ctx context.Context, in provisioning.HireInput) (*provisioning.ProvisionedUser, error)
}

// HireHandler обрабатывает найм сотрудников
type HireHandler struct {
	hirer  Hirer
	logger *zap.Logger
}

// NewHireHandler создает handler найма
func NewHireHandler(hirer Hirer, logger *zap.Logger) *HireHandler {
	return &HireHandler{hirer: hirer, logger: logger}
}

// HireResponse ответ на успешный найм
type HireResponse struct {
	Success bool                          `json:"success"`
	Message string                        `json:"message"`
	User    *provisioning.ProvisionedUser `json:"user"`
}

// Hire создает нового пользователя
// POST /api/v1/hires
func (h *HireHandler) Hire(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required", nil)
		return
	}

	var in provisioning.HireInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	in.HiredBy = caller.ID

	user, err := h.hirer.Hire(r.Context(), in)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, HireResponse{
		Success: true,
		Message: "User hired",
		User:    user,
	})
}
