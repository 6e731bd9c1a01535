// Package users предоставляет доступ к хранению профилей, ролей и отделов
package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ProfileKey колонка, по которой ищется строка профиля при обновлении
type ProfileKey string

const (
	KeyID     ProfileKey = "id"
	KeyEmail  ProfileKey = "email"
	KeyUserID ProfileKey = "user_id"
)

// DB минимальный интерфейс пула pgx, нужный репозиторию
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store is the data surface the profile and provisioning services work
// against. Repository implements it on Postgres.
type Store interface {
	LookupRoleByName(ctx context.Context, name RoleName) (*Role, error)
	LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*Role, error)
	LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error)
	CountProfilesInDepartment(ctx context.Context, departmentID uuid.UUID) (int, error)
	InsertProfile(ctx context.Context, profile *UserProfile) error
	UpdateProfileByKey(ctx context.Context, key ProfileKey, value any, fields ChangeSet) ([]UserProfile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (*UserProfile, error)
}

var _ Store = (*Repository)(nil)

var profileColumns = []string{
	"id", "user_id", "email", "role_id", "department_id", "name", "designation",
	"mobile_no", "alternate_mobile_no", "personal_email", "official_email",
	"date_of_birth", "nationality", "national_id_no", "passport_no", "address",
	"photo_url", "is_first_login", "created_at", "updated_at",
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Repository предоставляет доступ к хранению пользователей
type Repository struct {
	db DB
}

// NewRepository создает новый репозиторий пользователей
func NewRepository(db DB) *Repository {
	return &Repository{db: db}
}

// LookupRoleByName получает роль по стабильному ключу (admin, hr, ...)
func (r *Repository) LookupRoleByName(ctx context.Context, name RoleName) (*Role, error) {
	query, args, err := psql.Select("id", "role_name", "display_name", "is_active").
		From("roles").
		Where(squirrel.Eq{"role_name": string(name)}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	return r.getRole(ctx, query, args)
}

// LookupRoleByID получает роль по ID; activeOnly отбрасывает неактивные роли
func (r *Repository) LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*Role, error) {
	qb := psql.Select("id", "role_name", "display_name", "is_active").
		From("roles").
		Where(squirrel.Eq{"id": id})
	if activeOnly {
		qb = qb.Where(squirrel.Eq{"is_active": true})
	}
	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}
	return r.getRole(ctx, query, args)
}

func (r *Repository) getRole(ctx context.Context, query string, args []any) (*Role, error) {
	var role Role
	if err := pgxscan.Get(ctx, r.db, &role, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("role: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get role: %w", err)
	}
	return &role, nil
}

// LookupDepartmentByID получает отдел вместе с его активным кодом
func (r *Repository) LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	query, args, err := psql.Select("d.id", "d.name", "d.description", "dc.code").
		From("departments d").
		LeftJoin("department_codes dc ON dc.department_id = d.id AND dc.is_active = true").
		Where(squirrel.Eq{"d.id": id}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var dept Department
	if err := pgxscan.Get(ctx, r.db, &dept, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("department: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get department: %w", err)
	}
	return &dept, nil
}

// CountProfilesInDepartment считает профили отдела
func (r *Repository) CountProfilesInDepartment(ctx context.Context, departmentID uuid.UUID) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("user_profiles").
		Where(squirrel.Eq{"department_id": departmentID}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("building count query: %w", err)
	}

	var count int
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count department profiles: %w", err)
	}
	return count, nil
}

// InsertProfile создает строку профиля
func (r *Repository) InsertProfile(ctx context.Context, p *UserProfile) error {
	query, args, err := psql.Insert("user_profiles").
		Columns(
			"id", "user_id", "email", "role_id", "department_id", "name", "designation",
			"mobile_no", "personal_email", "is_first_login",
		).
		Values(
			p.ID, p.UserID, p.Email, p.RoleID, p.DepartmentID, p.Name, p.Designation,
			p.MobileNo, p.PersonalEmail, p.IsFirstLogin,
		).
		Suffix("RETURNING created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building insert query: %w", err)
	}

	if err := r.db.QueryRow(ctx, query, args...).Scan(&p.CreatedAt, &p.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// UpdateProfileByKey выполняет условный UPDATE по одной ключевой колонке
// и возвращает обновленные строки. Пустой результат не считается ошибкой.
func (r *Repository) UpdateProfileByKey(ctx context.Context, key ProfileKey, value any, fields ChangeSet) ([]UserProfile, error) {
	switch key {
	case KeyID, KeyEmail, KeyUserID:
	default:
		return nil, fmt.Errorf("unsupported profile key %q", key)
	}
	if len(fields) == 0 {
		return nil, errors.New("empty change-set")
	}

	query, args, err := psql.Update("user_profiles").
		SetMap(map[string]any(fields)).
		Where(squirrel.Eq{string(key): value}).
		Suffix("RETURNING " + strings.Join(profileColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building update query: %w", err)
	}

	var rows []UserProfile
	if err := pgxscan.Select(ctx, r.db, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to update profile by %s: %w", key, err)
	}
	return rows, nil
}

// GetProfileByID получает профиль с названиями роли и отдела
func (r *Repository) GetProfileByID(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	cols := make([]string, 0, len(profileColumns)+3)
	for _, c := range profileColumns {
		cols = append(cols, "p."+c)
	}
	cols = append(cols,
		"r.role_name AS role_name",
		"r.display_name AS role_display_name",
		"d.name AS department_name",
	)

	query, args, err := psql.Select(cols...).
		From("user_profiles p").
		LeftJoin("roles r ON r.id = p.role_id").
		LeftJoin("departments d ON d.id = p.department_id").
		Where(squirrel.Eq{"p.id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building select query: %w", err)
	}

	var p UserProfile
	if err := pgxscan.Get(ctx, r.db, &p, query, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, fmt.Errorf("profile: %w", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return &p, nil
}
