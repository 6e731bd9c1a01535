package seed_test

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/seed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	query string
	args  []any
}

type recorder struct {
	calls []execCall
	err   error
}

func (r *recorder) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	r.calls = append(r.calls, execCall{query, args})
	return nil, r.err
}

const sample = `
roles:
  - role_name: admin
    display_name: Administrator
  - role_name: legacy
    is_active: false
departments:
  - name: Operations
    code: "03"
  - name: Legal
    description: Contracts
`

func TestParse(t *testing.T) {
	t.Run("Should decode roles and departments", func(t *testing.T) {
		f, err := seed.Parse([]byte(sample))

		require.NoError(t, err)
		require.Len(t, f.Roles, 2)
		assert.Equal(t, "admin", f.Roles[0].RoleName)
		require.NotNil(t, f.Roles[1].IsActive)
		assert.False(t, *f.Roles[1].IsActive)
		assert.Equal(t, "03", f.Departments[0].Code)
	})
	t.Run("Should reject unknown keys and missing names", func(t *testing.T) {
		_, err := seed.Parse([]byte("roles:\n  - role: admin\n"))
		assert.Error(t, err)
		_, err = seed.Parse([]byte("departments:\n  - code: \"01\"\n"))
		assert.Error(t, err)
	})

	t.Run("Should reject department codes that do not fit into user_id", func(t *testing.T) {
		_, err := seed.Parse([]byte("departments:\n  - name: Research\n    code: \"123\"\n"))
		assert.ErrorContains(t, err, "must be 1-2 digits")
		_, err = seed.Parse([]byte("departments:\n  - name: Research\n    code: \"R1\"\n"))
		assert.Error(t, err)
	})
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o600))

	f, err := seed.Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Departments, 2)

	_, err = seed.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApply(t *testing.T) {
	t.Run("Should upsert roles, departments and active codes", func(t *testing.T) {
		f, err := seed.Parse([]byte(sample))
		require.NoError(t, err)
		rec := &recorder{}

		require.NoError(t, seed.Apply(context.Background(), rec, f))

		// 2 роли, 2 отдела, 1 код
		require.Len(t, rec.calls, 5)
		assert.Contains(t, rec.calls[0].query, "INSERT INTO roles")
		assert.Contains(t, rec.calls[0].query, "ON CONFLICT (role_name)")
		assert.Equal(t, []any{"admin", "Administrator", true}, rec.calls[0].args)
		assert.Equal(t, []any{"legacy", "legacy", false}, rec.calls[1].args)
		assert.Contains(t, rec.calls[2].query, "INSERT INTO departments")
		assert.Contains(t, rec.calls[3].query, "INSERT INTO department_codes")
		assert.Contains(t, rec.calls[3].query, "SELECT id")
		assert.Equal(t, []any{"03", "Operations"}, rec.calls[3].args)
		assert.Contains(t, rec.calls[4].query, "INSERT INTO departments")
		assert.Equal(t, []any{"Legal", "Contracts"}, rec.calls[4].args)
	})
	t.Run("Should stop at the first failure", func(t *testing.T) {
		f, err := seed.Parse([]byte(sample))
		require.NoError(t, err)
		rec := &recorder{err: errors.New("permission denied")}

		err = seed.Apply(context.Background(), rec, f)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "admin")
		assert.Len(t, rec.calls, 1)
	})
}
