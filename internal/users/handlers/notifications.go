package handlers

import (
	"context"
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/auth"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/notifications"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationService уведомления текущего пользователя
type NotificationService interface {
	GetUnreadNotifications(ctx context.Context, userID uuid.UUID) ([]notifications.Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// NotificationHandler обрабатывает запросы к уведомлениям
type NotificationHandler struct {
	service NotificationService
	logger  *zap.Logger
}

// NewNotificationHandler создает handler уведомлений
func NewNotificationHandler(service NotificationService, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{service: service, logger: logger}
}

// Unread GET /api/v1/notifications
func (h *NotificationHandler) Unread(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required", nil)
		return
	}

	list, err := h.service.GetUnreadNotifications(r.Context(), caller.ID)
	if err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, list)
}

// MarkRead POST /api/v1/notifications/{id}/read
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.UserFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeMissingToken, "Authentication required", nil)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeBadRequest, "Invalid notification id", nil)
		return
	}

	if err := h.service.MarkAsRead(r.Context(), caller.ID, id); err != nil {
		writeServiceError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
