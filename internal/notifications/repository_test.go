package notifications_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/notifications"
	"github.com/google/uuid"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepository_CreateNotification(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := notifications.NewRepository(mockPool)
	created := time.Date(2025, 9, 15, 9, 30, 0, 0, time.UTC)
	n := &notifications.Notification{
		ID:      uuid.New(),
		UserID:  uuid.New(),
		Title:   "Sam Lee hired",
		Message: "welcome",
		Type:    notifications.NotificationTypeHire,
	}
	mockPool.ExpectQuery("INSERT INTO notifications (.+) RETURNING created_at").
		WithArgs(n.ID, n.UserID, n.Title, n.Message, n.Type, n.RelatedProfileID, false).
		WillReturnRows(mockPool.NewRows([]string{"created_at"}).AddRow(created))

	require.NoError(t, repo.CreateNotification(context.Background(), n))
	assert.Equal(t, created, n.CreatedAt)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepository_GetUnreadNotifications(t *testing.T) {
	mockPool, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mockPool.Close()
	repo := notifications.NewRepository(mockPool)
	userID := uuid.New()
	id := uuid.New()
	now := time.Now()
	mockPool.ExpectQuery(regexp.QuoteMeta("FROM notifications WHERE is_read = $1 AND user_id = $2 ORDER BY created_at DESC")).
		WithArgs(false, userID).
		WillReturnRows(mockPool.NewRows([]string{"id", "user_id", "title", "message", "type", "related_profile_id", "is_read", "created_at"}).
			AddRow(id, userID, "t", "m", notifications.NotificationTypeImportant, (*uuid.UUID)(nil), false, now))

	list, err := repo.GetUnreadNotifications(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, id, list[0].ID)
	assert.Equal(t, notifications.NotificationTypeImportant, list[0].Type)
	assert.NoError(t, mockPool.ExpectationsWereMet())
}

func TestRepository_MarkAsRead(t *testing.T) {
	t.Run("Should mark the notification", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := notifications.NewRepository(mockPool)
		userID, id := uuid.New(), uuid.New()
		mockPool.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET is_read = $1 WHERE id = $2 AND user_id = $3")).
			WithArgs(true, id, userID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.MarkAsRead(context.Background(), userID, id))
		assert.NoError(t, mockPool.ExpectationsWereMet())
	})
	t.Run("Should return ErrNotFound for someone else's notification", func(t *testing.T) {
		mockPool, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mockPool.Close()
		repo := notifications.NewRepository(mockPool)
		mockPool.ExpectExec("UPDATE notifications").
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err = repo.MarkAsRead(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}
