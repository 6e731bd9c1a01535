package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

// DB минимальный интерфейс пула pgx
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresProvider хранит учетные записи в таблице auth_users
type PostgresProvider struct {
	db   DB
	cost int
}

// NewPostgresProvider создает провайдер учетных записей поверх Postgres
func NewPostgresProvider(db DB) *PostgresProvider {
	return &PostgresProvider{db: db, cost: bcrypt.DefaultCost}
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// CreateIdentity создает учетную запись с хэшем пароля и метаданными
func (p *PostgresProvider) CreateIdentity(ctx context.Context, email, password string, metadata Metadata) (*Identity, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), p.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ident := &Identity{
		ID:       uuid.New(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Metadata: metadata,
	}

	query, args, err := psql.Insert("auth_users").
		Columns("id", "email", "password_hash", "raw_user_meta_data", "is_active").
		Values(ident.ID, ident.Email, string(hash), map[string]any(metadata), true).
		Suffix("RETURNING created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building insert query: %w", err)
	}

	if err := p.db.QueryRow(ctx, query, args...).Scan(&ident.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrIdentityExists, ident.Email)
		}
		return nil, fmt.Errorf("failed to create identity: %w", err)
	}
	return ident, nil
}

// Authenticate аутентифицирует пользователя по email и паролю
func (p *PostgresProvider) Authenticate(ctx context.Context, email, password string) (*Identity, error) {
	query, args, err := psql.Select("id", "email", "password_hash", "raw_user_meta_data", "created_at", "is_active").
		From("auth_users").
		Where("lower(email) = lower(?)", strings.TrimSpace(email)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var (
		ident    Identity
		hash     string
		isActive bool
	)
	err = p.db.QueryRow(ctx, query, args...).Scan(&ident.ID, &ident.Email, &hash, &ident.Metadata, &ident.CreatedAt, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get identity by email: %w", err)
	}

	// Проверяем, что пользователь активен
	if !isActive {
		return nil, apperrors.ErrAccountDisabled
	}

	// Сравниваем хэш пароля
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	updateQuery, updateArgs, err := psql.Update("auth_users").
		Set("last_login", time.Now()).
		Where(squirrel.Eq{"id": ident.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}
	if _, err := p.db.Exec(ctx, updateQuery, updateArgs...); err != nil {
		return nil, fmt.Errorf("failed to record last login: %w", err)
	}

	return &ident, nil
}
