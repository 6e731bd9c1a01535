// Package notifications предоставляет доступ к хранению уведомлений
package notifications

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB минимальный интерфейс пула pgx
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository предоставляет доступ к хранению уведомлений
type Repository struct {
	db DB
}

// NewRepository создает новый репозиторий уведомлений
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// CreateNotification создает новое уведомление
func (r *Repository) CreateNotification(ctx context.Context, n *Notification) error {
	query, args, err := psql.Insert("notifications").
		Columns("id", "user_id", "title", "message", "type", "related_profile_id", "is_read").
		Values(n.ID, n.UserID, n.Title, n.Message, n.Type, n.RelatedProfileID, n.IsRead).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&n.CreatedAt); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetUnreadNotifications получает непрочитанные уведомления для пользователя
func (r *Repository) GetUnreadNotifications(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	query, args, err := psql.Select("id", "user_id", "title", "message", "type", "related_profile_id", "is_read", "created_at").
		From("notifications").
		Where(squirrel.Eq{"user_id": userID, "is_read": false}).
		OrderBy("created_at DESC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var notifications []Notification
	if err := pgxscan.Select(ctx, r.db, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to get unread notifications: %w", err)
	}
	return notifications, nil
}

// MarkAsRead помечает уведомление пользователя как прочитанное
func (r *Repository) MarkAsRead(ctx context.Context, userID, notificationID uuid.UUID) error {
	query, args, err := psql.Update("notifications").
		Set("is_read", true).
		Where(squirrel.Eq{"id": notificationID, "user_id": userID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("building update query: %w", err)
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification: %w", apperrors.ErrNotFound)
	}
	return nil
}
