// Package auth предоставляет функции для аутентификации и авторизации
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/jwt"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Ключи для хранения данных в контексте HTTP запроса
type contextKey string

const (
	// Ключ для хранения информации о пользователе в контексте
	UserContextKey contextKey = "user"
)

// UserInfo содержит информацию о текущем пользователе
type UserInfo struct {
	ID      uuid.UUID
	Email   string
	Role    users.RoleName
	Profile *users.UserProfile
}

// UserFromContext извлекает информацию о пользователе из контекста HTTP запроса
func UserFromContext(ctx context.Context) (*UserInfo, bool) {
	user, ok := ctx.Value(UserContextKey).(*UserInfo)
	return user, ok
}

// WithUser кладет пользователя в контекст
func WithUser(ctx context.Context, user *UserInfo) context.Context {
	return context.WithValue(ctx, UserContextKey, user)
}

// ProfileLoader загружает профиль вместе с ключом роли
type ProfileLoader interface {
	GetProfileByID(ctx context.Context, id uuid.UUID) (*users.UserProfile, error)
}

// Middleware предоставляет middleware функции для аутентификации
type Middleware struct {
	jwtManager *jwt.Manager
	profiles   ProfileLoader
	logger     *zap.Logger
}

// NewMiddleware создает новый middleware для аутентификации
func NewMiddleware(jwtManager *jwt.Manager, profiles ProfileLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtManager: jwtManager,
		profiles:   profiles,
		logger:     logger,
	}
}

// Authenticate проверяет JWT токен из заголовка Authorization, заново
// загружает профиль (роль могла измениться после выдачи токена)
// и добавляет информацию о пользователе в контекст запроса
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authorization header is required", nil)
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, "Authorization header must start with 'Bearer '", nil)
			return
		}

		claims, err := m.jwtManager.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidToken, err.Error(), nil)
			return
		}

		// Проверяем, что профиль еще существует
		profile, err := m.profiles.GetProfileByID(r.Context(), claims.ProfileID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeUserNotFound, "Profile not found", nil)
				return
			}
			m.logger.Error("failed to load profile for token", zap.String("profile_id", claims.ProfileID.String()), zap.Error(err))
			httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternalServerError, "Could not verify user", nil)
			return
		}

		role := users.RoleEmployee
		if profile.RoleName != nil && *profile.RoleName != "" {
			role = users.RoleName(*profile.RoleName)
		}

		ctx := WithUser(r.Context(), &UserInfo{
			ID:      profile.ID,
			Email:   profile.Email,
			Role:    role,
			Profile: profile,
		})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole проверяет, что у пользователя есть одна из требуемых ролей
func (m *Middleware) RequireRole(roles ...users.RoleName) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required", nil)
				return
			}

			for _, role := range roles {
				if user.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			httpx.WriteError(w, http.StatusForbidden, httpx.CodeInsufficientRights, "Access denied: insufficient permissions", nil)
		})
	}
}
