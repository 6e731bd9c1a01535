// Package handlers предоставляет HTTP handlers для работы с пользователями
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/identity"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/jwt"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Authenticator проверяет логин и пароль у провайдера учетных записей
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*identity.Identity, error)
}

// ProfileReader читает профиль с денормализованными названиями
type ProfileReader interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (*users.UserProfile, error)
}

// AuthHandler обрабатывает HTTP запросы, связанные с аутентификацией
type AuthHandler struct {
	identities Authenticator
	profiles   ProfileReader
	jwtManager *jwt.Manager
	logger     *zap.Logger
}

// NewAuthHandler создает новый handler для аутентификации
func NewAuthHandler(identities Authenticator, profiles ProfileReader, jwtManager *jwt.Manager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		profiles:   profiles,
		jwtManager: jwtManager,
		logger:     logger,
	}
}

// LoginRequest структура для данных входа из тела запроса
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse структура для ответа на запрос входа
type LoginResponse struct {
	Success bool               `json:"success"`
	Message string             `json:"message"`
	Token   string             `json:"token,omitempty"`
	Profile *users.UserProfile `json:"profile,omitempty"`
}

// Login обрабатывает вход пользователя в систему
// POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid request body", nil)
		return
	}
	if req.Email == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidationError, "Email and password are required", nil)
		return
	}

	ident, err := h.identities.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		writeServiceError(w, h.logger, err)
		return
	}

	profile, err := h.profiles.GetProfileByID(r.Context(), ident.ID)
	if err != nil {
		h.logger.Error("identity has no readable profile", zap.String("identity_id", ident.ID.String()), zap.Error(err))
		writeServiceError(w, h.logger, err)
		return
	}

	role := string(users.RoleEmployee)
	if profile.RoleName != nil && *profile.RoleName != "" {
		role = *profile.RoleName
	}

	token, err := h.jwtManager.GenerateToken(profile.ID, profile.Email, role)
	if err != nil {
		h.logger.Error("failed to generate token", zap.String("email", profile.Email), zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternalServerError, "Could not issue token", nil)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Message: "Logged in",
		Token:   token,
		Profile: profile,
	})
}
