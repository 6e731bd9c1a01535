package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/access"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/auth"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/profile"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProfileSaver применяет изменения профиля
type ProfileSaver interface {
	Save(ctx context.Context, original users.UserProfile, proposed users.ChangeSet, role users.RoleName, isOwnProfile bool) (*profile.Result, error)
}

// ProfileHandler обрабатывает запросы к профилям
type ProfileHandler struct {
	profiles ProfileReader
	saver    ProfileSaver
	logger   *zap.Logger
}

// NewProfileHandler создает handler профилей
func NewProfileHandler(profiles ProfileReader, saver ProfileSaver, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, saver: saver, logger: logger}
}

// AccessResponse editable fields of a profile for the current user
type AccessResponse struct {
	ProfileID     uuid.UUID `json:"profile_id"`
	IsOwnProfile  bool      `json:"is_own_profile"`
	Role          string    `json:"role"`
	AllowedFields []string  `json:"allowed_fields"`
}

// UpdateResponse ответ на сохранение профиля
type UpdateResponse struct {
	Success       bool              `json:"success"`
	Message       string            `json:"message"`
	Profile       users.UserProfile `json:"profile"`
	UpdatedFields []string          `json:"updated_fields"`
}

// Get возвращает профиль
// GET /api/v1/profiles/{id}
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	if caller.ID != target.ID && caller.Role == users.RoleEmployee {
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeInsufficientRights, "Employees can only view their own profile", nil)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, target)
}

// Access возвращает поля, которые текущий пользователь может менять
// GET /api/v1/profiles/{id}/access
func (h *ProfileHandler) Access(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}
	own := caller.ID == target.ID
	httpx.WriteJSON(w, http.StatusOK, AccessResponse{
		ProfileID:     target.ID,
		IsOwnProfile:  own,
		Role:          string(caller.Role),
		AllowedFields: access.AllowedFields(caller.Role, own).Sorted(),
	})
}

// Update сохраняет изменения профиля
// PATCH /api/v1/profiles/{id}
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, target, ok := h.loadTarget(w, r)
	if !ok {
		return
	}

	var proposed users.ChangeSet
	if err := json.NewDecoder(r.Body).Decode(&proposed); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Request body must be a JSON object", nil)
		return
	}

	res, err := h.saver.Save(r.Context(), *target, proposed, caller.Role, caller.ID == target.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, UpdateResponse{
		Success:       true,
		Message:       "Profile updated",
		Profile:       res.Profile,
		UpdatedFields: res.UpdatedFields,
	})
}

func (h *ProfileHandler) loadTarget(w http.ResponseWriter, r *http.Request) (*auth.UserInfo, *users.UserProfile, bool) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required", nil)
		return nil, nil, false
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid profile id", nil)
		return nil, nil, false
	}

	target, err := h.profiles.GetProfileByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return nil, nil, false
	}
	return caller, target, true
}
