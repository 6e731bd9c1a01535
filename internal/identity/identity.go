// Package identity предоставляет доступ к провайдеру учетных записей
// (логин/пароль), отдельному от таблицы профилей.
package identity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Metadata произвольные данные, сохраняемые вместе с учетной записью
type Metadata map[string]any

// Identity учетная запись у провайдера
type Identity struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Metadata  Metadata  `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Provider создает учетные записи и проверяет пароли.
// Удаление учетных записей провайдер не поддерживает.
type Provider interface {
	CreateIdentity(ctx context.Context, email, password string, metadata Metadata) (*Identity, error)
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
}
