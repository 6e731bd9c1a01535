package profile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/profile"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type updateCall struct {
	key    users.ProfileKey
	value  any
	fields users.ChangeSet
}

type fakeStore struct {
	mu          sync.Mutex
	roles       map[uuid.UUID]users.Role
	departments map[uuid.UUID]users.Department
	lookupErr   error
	// результат по ключу; отсутствующий ключ дает пустой результат
	results map[users.ProfileKey][]users.UserProfile
	errs    map[users.ProfileKey]error
	calls   []updateCall
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		roles:       map[uuid.UUID]users.Role{},
		departments: map[uuid.UUID]users.Department{},
		results:     map[users.ProfileKey][]users.UserProfile{},
		errs:        map[users.ProfileKey]error{},
	}
}

func (f *fakeStore) LookupRoleByID(_ context.Context, id uuid.UUID, activeOnly bool) (*users.Role, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	r, ok := f.roles[id]
	if !ok || (activeOnly && !r.IsActive) {
		return nil, apperrors.ErrNotFound
	}
	return &r, nil
}

func (f *fakeStore) LookupDepartmentByID(_ context.Context, id uuid.UUID) (*users.Department, error) {
	if f.lookupErr != nil {
		return nil, f.lookupErr
	}
	d, ok := f.departments[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &d, nil
}

func (f *fakeStore) UpdateProfileByKey(_ context.Context, key users.ProfileKey, value any, fields users.ChangeSet) ([]users.UserProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, updateCall{key: key, value: value, fields: fields})
	if err := f.errs[key]; err != nil {
		return nil, err
	}
	return f.results[key], nil
}

type failingRefs struct{}

func (failingRefs) LookupRoleByID(context.Context, uuid.UUID, bool) (*users.Role, error) {
	return nil, errors.New("cache down")
}

func (failingRefs) LookupDepartmentByID(context.Context, uuid.UUID) (*users.Department, error) {
	return nil, errors.New("cache down")
}

func strPtr(s string) *string { return &s }

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func originalProfile() users.UserProfile {
	return users.UserProfile{
		ID:       uuid.MustParse("0b5d3f5e-1111-4a4a-8a8a-000000000001"),
		UserID:   "2025030001",
		Email:    "jane@corp.io",
		Name:     "Jane Doe",
		Address:  strPtr("1 Main St"),
		MobileNo: strPtr("+1 555 000 0000"),
	}
}

func newReconciler(store *fakeStore, opts ...profile.Option) *profile.Reconciler {
	opts = append([]profile.Option{profile.WithClock(func() time.Time { return fixedNow })}, opts...)
	return profile.NewReconciler(store, zap.NewNop(), opts...)
}

func TestReconciler_Save(t *testing.T) {
	t.Run("Should report only changed allowed fields for own employee profile", func(t *testing.T) {
		store := newFakeStore()
		orig := originalProfile()
		store.results[users.KeyID] = []users.UserProfile{orig}

		res, err := newReconciler(store).Save(context.Background(), orig, users.ChangeSet{
			users.FieldName:     "Jane Smith",
			users.FieldMobileNo: "+1 (555) 123-4567",
			users.FieldAddress:  "1 Main St",
			users.FieldRoleID:   uuid.New().String(),
			users.FieldEmail:    "other@corp.io",
		}, users.RoleEmployee, true)

		require.NoError(t, err)
		assert.Equal(t, []string{users.FieldMobileNo, users.FieldName}, res.UpdatedFields)
		assert.Equal(t, "Jane Smith", res.Profile.Name)
		assert.Equal(t, "+1 (555) 123-4567", *res.Profile.MobileNo)
		assert.Equal(t, fixedNow, res.Profile.UpdatedAt)
		assert.Equal(t, orig.Email, res.Profile.Email)

		require.Len(t, store.calls, 1)
		call := store.calls[0]
		assert.Equal(t, users.KeyID, call.key)
		assert.Equal(t, orig.ID, call.value)
		assert.NotContains(t, call.fields, users.FieldRoleID)
		assert.NotContains(t, call.fields, users.FieldEmail)
		assert.Equal(t, fixedNow, call.fields[users.FieldUpdatedAt])
	})

	t.Run("Should reject unknown role_id without writing", func(t *testing.T) {
		store := newFakeStore()
		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldRoleID: uuid.New().String(),
		}, users.RoleAdmin, false)

		var refErr *apperrors.InvalidReferenceError
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "role", refErr.Reference)
		assert.Empty(t, store.calls)
	})

	t.Run("Should reject inactive role and malformed department id", func(t *testing.T) {
		store := newFakeStore()
		inactive := uuid.New()
		store.roles[inactive] = users.Role{ID: inactive, RoleName: "legacy", IsActive: false}

		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldRoleID: inactive.String(),
		}, users.RoleAdmin, false)
		var refErr *apperrors.InvalidReferenceError
		require.ErrorAs(t, err, &refErr)

		_, err = newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldDepartmentID: "not-a-uuid",
		}, users.RoleHR, false)
		require.ErrorAs(t, err, &refErr)
		assert.Equal(t, "department", refErr.Reference)
		assert.Empty(t, store.calls)
	})

	t.Run("Should return ValidationError before touching the store", func(t *testing.T) {
		store := newFakeStore()
		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldName: "  ",
		}, users.RoleEmployee, true)

		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Problems, "Name is required")
		assert.Empty(t, store.calls)
	})

	t.Run("Should fall back to email then user_id", func(t *testing.T) {
		store := newFakeStore()
		orig := originalProfile()
		store.errs[users.KeyID] = errors.New("permission denied")
		store.results[users.KeyUserID] = []users.UserProfile{orig}

		res, err := newReconciler(store).Save(context.Background(), orig, users.ChangeSet{
			users.FieldAddress: "2 Side St",
		}, users.RoleEmployee, true)

		require.NoError(t, err)
		assert.Equal(t, []string{users.FieldAddress}, res.UpdatedFields)
		require.Len(t, store.calls, 3)
		assert.Equal(t, users.KeyID, store.calls[0].key)
		assert.Equal(t, users.KeyEmail, store.calls[1].key)
		assert.Equal(t, orig.Email, store.calls[1].value)
		assert.Equal(t, users.KeyUserID, store.calls[2].key)
		assert.Equal(t, orig.UserID, store.calls[2].value)
	})

	t.Run("Should skip strategies without a key value", func(t *testing.T) {
		store := newFakeStore()
		orig := originalProfile()
		orig.ID = uuid.Nil
		store.results[users.KeyEmail] = []users.UserProfile{orig}

		_, err := newReconciler(store).Save(context.Background(), orig, users.ChangeSet{
			users.FieldAddress: "2 Side St",
		}, users.RoleEmployee, true)

		require.NoError(t, err)
		require.Len(t, store.calls, 1)
		assert.Equal(t, users.KeyEmail, store.calls[0].key)
	})

	t.Run("Should return PersistenceError with the last failure when all strategies fail", func(t *testing.T) {
		store := newFakeStore()
		store.errs[users.KeyID] = errors.New("first failure")
		store.errs[users.KeyUserID] = errors.New("last failure")

		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldAddress: "2 Side St",
		}, users.RoleEmployee, true)

		var perr *apperrors.PersistenceError
		require.ErrorAs(t, err, &perr)
		assert.Contains(t, err.Error(), "last failure")
		assert.ErrorIs(t, perr.Attempts, apperrors.ErrNoRows)
		assert.Len(t, store.calls, 3)
	})

	t.Run("Should write resolved ids and attach display names", func(t *testing.T) {
		store := newFakeStore()
		roleID, deptID := uuid.New(), uuid.New()
		store.roles[roleID] = users.Role{ID: roleID, RoleName: users.RoleManager, DisplayName: "Manager", IsActive: true}
		store.departments[deptID] = users.Department{ID: deptID, Name: "Operations"}
		store.results[users.KeyID] = []users.UserProfile{originalProfile()}

		res, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldRoleID:       roleID.String(),
			users.FieldDepartmentID: deptID.String(),
			users.FieldDateOfBirth:  "1990-05-01",
		}, users.RoleAdmin, false)

		require.NoError(t, err)
		assert.Equal(t, []string{users.FieldDateOfBirth, users.FieldDepartmentID, users.FieldRoleID}, res.UpdatedFields)
		require.NotNil(t, res.Profile.RoleDisplayName)
		assert.Equal(t, "Manager", *res.Profile.RoleDisplayName)
		require.NotNil(t, res.Profile.DepartmentName)
		assert.Equal(t, "Operations", *res.Profile.DepartmentName)

		fields := store.calls[0].fields
		assert.Equal(t, roleID, fields[users.FieldRoleID])
		assert.Equal(t, deptID, fields[users.FieldDepartmentID])
		assert.IsType(t, &time.Time{}, fields[users.FieldDateOfBirth])
	})

	t.Run("Should save even when display name lookup fails", func(t *testing.T) {
		store := newFakeStore()
		roleID := uuid.New()
		store.roles[roleID] = users.Role{ID: roleID, RoleName: users.RoleHR, DisplayName: "HR", IsActive: true}
		store.results[users.KeyID] = []users.UserProfile{originalProfile()}

		res, err := newReconciler(store, profile.WithReferenceReader(failingRefs{})).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldRoleID: roleID.String(),
		}, users.RoleAdmin, false)

		require.NoError(t, err)
		assert.Equal(t, roleID, *res.Profile.RoleID)
		assert.Nil(t, res.Profile.RoleDisplayName)
	})

	t.Run("Should drop previous display names when references change and lookup fails", func(t *testing.T) {
		store := newFakeStore()
		oldRoleID, newRoleID := uuid.New(), uuid.New()
		oldDeptID, newDeptID := uuid.New(), uuid.New()
		store.roles[newRoleID] = users.Role{ID: newRoleID, RoleName: users.RoleHR, DisplayName: "HR", IsActive: true}
		store.departments[newDeptID] = users.Department{ID: newDeptID, Name: "Finance"}

		orig := originalProfile()
		orig.RoleID = &oldRoleID
		orig.RoleName = strPtr(string(users.RoleEmployee))
		orig.RoleDisplayName = strPtr("Employee")
		orig.DepartmentID = &oldDeptID
		orig.DepartmentName = strPtr("Sales")
		store.results[users.KeyID] = []users.UserProfile{orig}

		res, err := newReconciler(store, profile.WithReferenceReader(failingRefs{})).Save(context.Background(), orig, users.ChangeSet{
			users.FieldRoleID:       newRoleID.String(),
			users.FieldDepartmentID: newDeptID.String(),
		}, users.RoleAdmin, false)

		require.NoError(t, err)
		assert.Equal(t, newRoleID, *res.Profile.RoleID)
		assert.Equal(t, newDeptID, *res.Profile.DepartmentID)
		assert.Nil(t, res.Profile.RoleName)
		assert.Nil(t, res.Profile.RoleDisplayName)
		assert.Nil(t, res.Profile.DepartmentName)
		assert.Equal(t, "Sales", *orig.DepartmentName)
	})

	t.Run("Should keep display names when the reference id is unchanged", func(t *testing.T) {
		store := newFakeStore()
		deptID := uuid.New()
		store.departments[deptID] = users.Department{ID: deptID, Name: "Sales"}

		orig := originalProfile()
		orig.DepartmentID = &deptID
		orig.DepartmentName = strPtr("Sales")
		store.results[users.KeyID] = []users.UserProfile{orig}

		res, err := newReconciler(store, profile.WithReferenceReader(failingRefs{})).Save(context.Background(), orig, users.ChangeSet{
			users.FieldDepartmentID: deptID.String(),
		}, users.RoleAdmin, false)

		require.NoError(t, err)
		require.NotNil(t, res.Profile.DepartmentName)
		assert.Equal(t, "Sales", *res.Profile.DepartmentName)
	})

	t.Run("Should wrap non-NotFound lookup errors", func(t *testing.T) {
		store := newFakeStore()
		store.lookupErr = errors.New("connection reset")

		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldRoleID: uuid.New().String(),
		}, users.RoleAdmin, false)

		require.Error(t, err)
		var refErr *apperrors.InvalidReferenceError
		assert.False(t, errors.As(err, &refErr))
		assert.Contains(t, err.Error(), "connection reset")
		assert.Empty(t, store.calls)
	})

	t.Run("Should turn wrong value types into ValidationError", func(t *testing.T) {
		store := newFakeStore()
		_, err := newReconciler(store).Save(context.Background(), originalProfile(), users.ChangeSet{
			users.FieldAddress: 42.0,
		}, users.RoleEmployee, true)

		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Empty(t, store.calls)
	})
}
