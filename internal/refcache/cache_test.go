package refcache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/refcache"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSource struct {
	roles       map[uuid.UUID]users.Role
	departments map[uuid.UUID]users.Department
	roleCalls   int
	deptCalls   int
}

func (s *countingSource) LookupRoleByID(_ context.Context, id uuid.UUID, _ bool) (*users.Role, error) {
	s.roleCalls++
	r, ok := s.roles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (s *countingSource) LookupDepartmentByID(_ context.Context, id uuid.UUID) (*users.Department, error) {
	s.deptCalls++
	d, ok := s.departments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *redis.Client, *countingSource, uuid.UUID, uuid.UUID) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	roleID, deptID := uuid.New(), uuid.New()
	code := "03"
	src := &countingSource{
		roles:       map[uuid.UUID]users.Role{roleID: {ID: roleID, RoleName: users.RoleHR, DisplayName: "HR", IsActive: true}},
		departments: map[uuid.UUID]users.Department{deptID: {ID: deptID, Name: "Operations", Code: &code}},
	}
	return mr, rdb, src, roleID, deptID
}

func TestCache_ReadThrough(t *testing.T) {
	t.Run("Should serve repeated lookups from redis", func(t *testing.T) {
		mr, rdb, src, roleID, deptID := setup(t)
		cache := refcache.New(rdb, src, time.Minute, zap.NewNop())
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			role, err := cache.LookupRoleByID(ctx, roleID, false)
			require.NoError(t, err)
			assert.Equal(t, "HR", role.DisplayName)

			dept, err := cache.LookupDepartmentByID(ctx, deptID)
			require.NoError(t, err)
			assert.Equal(t, "03", *dept.Code)
		}

		assert.Equal(t, 1, src.roleCalls)
		assert.Equal(t, 1, src.deptCalls)
		assert.True(t, mr.Exists("hradmin:ref:role:"+roleID.String()))
		assert.Equal(t, time.Minute, mr.TTL("hradmin:ref:department:"+deptID.String()))
	})
	t.Run("Should bypass the cache for active-only lookups", func(t *testing.T) {
		_, rdb, src, roleID, _ := setup(t)
		cache := refcache.New(rdb, src, time.Minute, zap.NewNop())

		for i := 0; i < 2; i++ {
			_, err := cache.LookupRoleByID(context.Background(), roleID, true)
			require.NoError(t, err)
		}
		assert.Equal(t, 2, src.roleCalls)
	})
	t.Run("Should not cache misses", func(t *testing.T) {
		mr, rdb, src, _, _ := setup(t)
		cache := refcache.New(rdb, src, time.Minute, zap.NewNop())
		missing := uuid.New()

		_, err := cache.LookupDepartmentByID(context.Background(), missing)

		assert.True(t, errors.Is(err, apperrors.ErrNotFound))
		assert.Empty(t, mr.Keys())
	})
	t.Run("Should replace corrupt entries from the source", func(t *testing.T) {
		mr, rdb, src, roleID, _ := setup(t)
		cache := refcache.New(rdb, src, time.Minute, zap.NewNop())
		require.NoError(t, mr.Set("hradmin:ref:role:"+roleID.String(), "{not json"))

		role, err := cache.LookupRoleByID(context.Background(), roleID, false)

		require.NoError(t, err)
		assert.Equal(t, users.RoleHR, role.RoleName)
		assert.Equal(t, 1, src.roleCalls)
	})
	t.Run("Should fall back to the source when redis is down", func(t *testing.T) {
		_, _, src, roleID, _ := setup(t)
		down := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", MaxRetries: -1, DialTimeout: 100 * time.Millisecond})
		t.Cleanup(func() { _ = down.Close() })
		cache := refcache.New(down, src, time.Minute, zap.NewNop())

		role, err := cache.LookupRoleByID(context.Background(), roleID, false)

		require.NoError(t, err)
		assert.Equal(t, "HR", role.DisplayName)
	})
	t.Run("Should work without redis", func(t *testing.T) {
		_, _, src, _, deptID := setup(t)
		cache := refcache.New(nil, src, time.Minute, zap.NewNop())

		dept, err := cache.LookupDepartmentByID(context.Background(), deptID)

		require.NoError(t, err)
		assert.Equal(t, "Operations", dept.Name)
		n, err := cache.Purge(context.Background())
		assert.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestCache_Purge(t *testing.T) {
	mr, rdb, src, roleID, deptID := setup(t)
	cache := refcache.New(rdb, src, time.Minute, zap.NewNop())
	ctx := context.Background()
	require.NoError(t, mr.Set("session:abc", "keep"))

	_, err := cache.LookupRoleByID(ctx, roleID, false)
	require.NoError(t, err)
	_, err = cache.LookupDepartmentByID(ctx, deptID)
	require.NoError(t, err)

	removed, err := cache.Purge(ctx)

	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, []string{"session:abc"}, mr.Keys())

	_, err = cache.LookupRoleByID(ctx, roleID, false)
	require.NoError(t, err)
	assert.Equal(t, 2, src.roleCalls)
}
