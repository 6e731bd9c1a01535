// Package notifications реализует Notification Service
// Уведомления в приложении о результатах найма
package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/provisioning"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// NotificationType тип уведомления
type NotificationType string

const (
	NotificationTypeHire      NotificationType = "hire"
	NotificationTypeSystem    NotificationType = "system"
	NotificationTypeImportant NotificationType = "important"
)

// Notification представляет уведомление для пользователя
type Notification struct {
	ID               uuid.UUID        `db:"id" json:"id"`
	UserID           uuid.UUID        `db:"user_id" json:"user_id"`
	Title            string           `db:"title" json:"title"`
	Message          string           `db:"message" json:"message"`
	Type             NotificationType `db:"type" json:"type"`
	RelatedProfileID *uuid.UUID       `db:"related_profile_id" json:"related_profile_id,omitempty"`
	IsRead           bool             `db:"is_read" json:"is_read"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at"`
}

// Store хранилище уведомлений
type Store interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetUnreadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error)
	MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error
}

// Service предоставляет функции для отправки уведомлений
type Service struct {
	repo   Store
	logger *zap.Logger
}

var _ provisioning.Notifier = (*Service)(nil)

// NewService создает новый сервис уведомлений
func NewService(repo Store, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// NotifyHired сообщает нанимающему пользователю о созданной учетной записи
func (s *Service) NotifyHired(ctx context.Context, hiredBy uuid.UUID, user *provisioning.ProvisionedUser) error {
	profileID := user.ProfileID
	n := &Notification{
		ID:     uuid.New(),
		UserID: hiredBy,
		Title:  fmt.Sprintf("%s hired", user.Name),
		Message: fmt.Sprintf("%s (%s) joined %s as %s with ID %s",
			user.Name, user.Email, user.DepartmentName, user.RoleDisplayName, user.UserID),
		Type:             NotificationTypeHire,
		RelatedProfileID: &profileID,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("ошибка создания уведомления о найме: %w", err)
	}
	s.logger.Debug("hire notification created", zap.String("notification_id", n.ID.String()))
	return nil
}

// NotifyPartialProvisioning оставляет важное уведомление об учетной записи
// без профиля, чтобы оператор мог исправить ее вручную
func (s *Service) NotifyPartialProvisioning(ctx context.Context, hiredBy uuid.UUID, perr *apperrors.PartialProvisioningError) error {
	n := &Notification{
		ID:     uuid.New(),
		UserID: hiredBy,
		Title:  "Hire needs manual follow-up",
		Message: fmt.Sprintf("Account %s (%s) was created but profile %s was not saved: %v",
			perr.IdentityID, perr.Email, perr.UserID, perr.Err),
		Type: NotificationTypeImportant,
	}
	if err := s.repo.CreateNotification(ctx, n); err != nil {
		return fmt.Errorf("ошибка создания уведомления: %w", err)
	}
	return nil
}

// GetUnreadNotifications получает непрочитанные уведомления для пользователя
func (s *Service) GetUnreadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	notifications, err := s.repo.GetUnreadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	if notifications == nil {
		notifications = []Notification{}
	}
	return notifications, nil
}

// MarkAsRead помечает уведомление как прочитанное
func (s *Service) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	return s.repo.MarkAsRead(ctx, userID, notificationID)
}
