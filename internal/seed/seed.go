// Package seed загружает справочники ролей и отделов из YAML файла
package seed

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/Masterminds/squirrel"
	"gopkg.in/yaml.v2"
)

// Execer выполняет запросы (*sql.DB подходит)
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Role строка справочника ролей
type Role struct {
	RoleName    string `yaml:"role_name"`
	DisplayName string `yaml:"display_name"`
	IsActive    *bool  `yaml:"is_active"`
}

// Department отдел с двузначным кодом для user_id
type Department struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Code        string `yaml:"code"`
}

// File содержимое seed файла
type File struct {
	Roles       []Role       `yaml:"roles"`
	Departments []Department `yaml:"departments"`
}

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// Совпадает с CHECK department_codes_code_format
var codePattern = regexp.MustCompile(`^[0-9]{1,2}$`)

// Load читает и проверяет seed файл
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse разбирает YAML
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to decode seed file: %w", err)
	}
	for i, r := range f.Roles {
		if strings.TrimSpace(r.RoleName) == "" {
			return nil, fmt.Errorf("roles[%d]: role_name is required", i)
		}
	}
	for i, d := range f.Departments {
		if strings.TrimSpace(d.Name) == "" {
			return nil, fmt.Errorf("departments[%d]: name is required", i)
		}
		if d.Code != "" && !codePattern.MatchString(d.Code) {
			return nil, fmt.Errorf("departments[%d]: code %q must be 1-2 digits", i, d.Code)
		}
	}
	return &f, nil
}

// Apply записывает справочники. Повторный запуск не создает дублей
func Apply(ctx context.Context, db Execer, f *File) error {
	for _, r := range f.Roles {
		active := true
		if r.IsActive != nil {
			active = *r.IsActive
		}
		display := r.DisplayName
		if display == "" {
			display = r.RoleName
		}
		query, args, err := psql.Insert("roles").
			Columns("role_name", "display_name", "is_active").
			Values(r.RoleName, display, active).
			Suffix("ON CONFLICT (role_name) DO UPDATE SET display_name = EXCLUDED.display_name, is_active = EXCLUDED.is_active").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build role query: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to seed role %s: %w", r.RoleName, err)
		}
	}

	for _, d := range f.Departments {
		var description any
		if d.Description != "" {
			description = d.Description
		}
		query, args, err := psql.Insert("departments").
			Columns("name", "description").
			Values(d.Name, description).
			Suffix("ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build department query: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to seed department %s: %w", d.Name, err)
		}

		if d.Code == "" {
			continue
		}
		query, args, err = psql.Insert("department_codes").
			Columns("department_id", "code").
			Select(psql.Select("id").Column("?", d.Code).From("departments").Where(squirrel.Eq{"name": d.Name})).
			Suffix("ON CONFLICT (department_id) WHERE is_active DO NOTHING").
			ToSql()
		if err != nil {
			return fmt.Errorf("failed to build department code query: %w", err)
		}
		if _, err := db.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to seed code for %s: %w", d.Name, err)
		}
	}
	return nil
}
