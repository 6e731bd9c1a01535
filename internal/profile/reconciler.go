// Package profile applies access-filtered changes to user profiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/access"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Store is the part of users.Store the reconciler needs.
type Store interface {
	LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*users.Role, error)
	LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*users.Department, error)
	UpdateProfileByKey(ctx context.Context, key users.ProfileKey, value any, fields users.ChangeSet) ([]users.UserProfile, error)
}

// keyStrategy locates the profile row by one unique column. Legacy rows do
// not always carry every key, so a strategy is skipped when the original
// profile has no value for it.
type keyStrategy struct {
	key   users.ProfileKey
	value func(p users.UserProfile) (any, bool)
}

var updateStrategies = []keyStrategy{
	{users.KeyID, func(p users.UserProfile) (any, bool) { return p.ID, p.ID != uuid.Nil }},
	{users.KeyEmail, func(p users.UserProfile) (any, bool) { return p.Email, p.Email != "" }},
	{users.KeyUserID, func(p users.UserProfile) (any, bool) { return p.UserID, p.UserID != "" }},
}

// Result is a saved profile and the fields that actually changed.
type Result struct {
	Profile       users.UserProfile `json:"profile"`
	UpdatedFields []string          `json:"updated_fields"`
}

// ReferenceReader serves the display-name lookups done after a write.
type ReferenceReader interface {
	LookupRoleByID(ctx context.Context, id uuid.UUID, activeOnly bool) (*users.Role, error)
	LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*users.Department, error)
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithClock overrides the time source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

// WithReferenceReader serves display-name enrichment from refs (for
// example a cache) instead of the store.
func WithReferenceReader(refs ReferenceReader) Option {
	return func(r *Reconciler) { r.refs = refs }
}

// Reconciler applies profile edits under the access policy.
type Reconciler struct {
	store  Store
	refs   ReferenceReader
	logger *zap.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// NewReconciler creates a reconciler over store.
func NewReconciler(store Store, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:  store,
		refs:   store,
		logger: logger,
		tracer: otel.Tracer("hr-admin/profile"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save validates proposed, filters it through the access policy for role,
// resolves referenced role/department ids and writes the result with the
// first key strategy that matches a row.
func (r *Reconciler) Save(ctx context.Context, original users.UserProfile, proposed users.ChangeSet, role users.RoleName, isOwnProfile bool) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "profile.Save", trace.WithAttributes(
		attribute.String("profile.id", original.ID.String()),
		attribute.String("role", string(role)),
		attribute.Bool("own_profile", isOwnProfile),
	))
	defer span.End()

	res, err := r.save(ctx, original, proposed, role, isOwnProfile)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.Warn("profile save failed",
			zap.String("profile_id", original.ID.String()),
			zap.String("role", string(role)),
			zap.Error(err))
		return nil, err
	}

	r.logger.Info("profile saved",
		zap.String("profile_id", original.ID.String()),
		zap.Strings("updated_fields", res.UpdatedFields))
	return res, nil
}

func (r *Reconciler) save(ctx context.Context, original users.UserProfile, proposed users.ChangeSet, role users.RoleName, isOwnProfile bool) (*Result, error) {
	if err := access.Validate(proposed, role).Err(); err != nil {
		return nil, err
	}

	update := access.FilterChangeSet(proposed, role, isOwnProfile, r.now())

	merged, err := original.Apply(update)
	if err != nil {
		return nil, &apperrors.ValidationError{Problems: []string{err.Error()}}
	}
	changed, err := original.ChangedFields(update)
	if err != nil {
		return nil, &apperrors.ValidationError{Problems: []string{err.Error()}}
	}

	// Пишем типизированные значения, а не строки из запроса
	if update.Has(users.FieldDateOfBirth) {
		update[users.FieldDateOfBirth] = merged.DateOfBirth
	}
	if update.Has(users.FieldIsFirstLogin) {
		update[users.FieldIsFirstLogin] = merged.IsFirstLogin
	}

	var roleID, departmentID *uuid.UUID
	if update.Has(users.FieldRoleID) {
		roleID, err = r.resolveRole(ctx, update[users.FieldRoleID])
		if err != nil {
			return nil, err
		}
		update[users.FieldRoleID] = *roleID
	}
	if update.Has(users.FieldDepartmentID) {
		departmentID, err = r.resolveDepartment(ctx, update[users.FieldDepartmentID])
		if err != nil {
			return nil, err
		}
		update[users.FieldDepartmentID] = *departmentID
	}

	if err := r.write(ctx, original, update); err != nil {
		return nil, err
	}

	// Названия от прежней роли/отдела не должны пережить смену id
	if roleID != nil && !sameID(original.RoleID, roleID) {
		merged.RoleName, merged.RoleDisplayName = nil, nil
	}
	if departmentID != nil && !sameID(original.DepartmentID, departmentID) {
		merged.DepartmentName = nil
	}
	r.enrich(ctx, &merged, roleID, departmentID)

	return &Result{Profile: merged, UpdatedFields: changed}, nil
}

func (r *Reconciler) resolveRole(ctx context.Context, value any) (*uuid.UUID, error) {
	id, err := users.AsUUID(value)
	if err != nil || id == nil {
		return nil, &apperrors.InvalidReferenceError{Reference: "role", Value: fmt.Sprint(value), Err: err}
	}
	if _, err := r.store.LookupRoleByID(ctx, *id, true); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, &apperrors.InvalidReferenceError{Reference: "role", Value: id.String(), Err: err}
		}
		return nil, fmt.Errorf("resolving role %s: %w", id, err)
	}
	return id, nil
}

func (r *Reconciler) resolveDepartment(ctx context.Context, value any) (*uuid.UUID, error) {
	id, err := users.AsUUID(value)
	if err != nil || id == nil {
		return nil, &apperrors.InvalidReferenceError{Reference: "department", Value: fmt.Sprint(value), Err: err}
	}
	if _, err := r.store.LookupDepartmentByID(ctx, *id); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, &apperrors.InvalidReferenceError{Reference: "department", Value: id.String(), Err: err}
		}
		return nil, fmt.Errorf("resolving department %s: %w", id, err)
	}
	return id, nil
}

func sameID(a, b *uuid.UUID) bool {
	return a != nil && b != nil && *a == *b
}

// write tries each key strategy in order and stops at the first one that
// updates at least one row.
func (r *Reconciler) write(ctx context.Context, original users.UserProfile, update users.ChangeSet) error {
	var attempts []error
	for _, s := range updateStrategies {
		value, ok := s.value(original)
		if !ok {
			continue
		}

		rows, err := r.store.UpdateProfileByKey(ctx, s.key, value, update)
		if err != nil {
			attempts = append(attempts, fmt.Errorf("update by %s: %w", s.key, err))
			continue
		}
		if len(rows) == 0 {
			attempts = append(attempts, fmt.Errorf("update by %s: %w", s.key, apperrors.ErrNoRows))
			continue
		}

		if len(attempts) > 0 {
			r.logger.Debug("profile updated by fallback key",
				zap.String("key", string(s.key)),
				zap.Int("failed_attempts", len(attempts)))
		}
		return nil
	}
	return apperrors.NewPersistenceError(attempts)
}

// enrich attaches role and department display names after a write.
// Lookup failures only leave the names out.
func (r *Reconciler) enrich(ctx context.Context, p *users.UserProfile, roleID, departmentID *uuid.UUID) {
	var wg conc.WaitGroup
	if roleID != nil {
		wg.Go(func() {
			role, err := r.refs.LookupRoleByID(ctx, *roleID, false)
			if err != nil {
				r.logger.Warn("role display name unavailable", zap.String("role_id", roleID.String()), zap.Error(err))
				return
			}
			name := string(role.RoleName)
			p.RoleName = &name
			p.RoleDisplayName = &role.DisplayName
		})
	}
	if departmentID != nil {
		wg.Go(func() {
			dept, err := r.refs.LookupDepartmentByID(ctx, *departmentID)
			if err != nil {
				r.logger.Warn("department name unavailable", zap.String("department_id", departmentID.String()), zap.Error(err))
				return
			}
			p.DepartmentName = &dept.Name
		})
	}
	wg.Wait()
}
