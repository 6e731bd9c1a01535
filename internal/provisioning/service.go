// Package provisioning creates a login account and its business profile as
// one logical operation across the identity provider and the profile store.
package provisioning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/access"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/identity"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProvenanceTag marks identities created through the hiring flow.
const ProvenanceTag = "hr_hire"

// Store is the part of users.Store the provisioning flow needs.
type Store interface {
	LookupRoleByName(ctx context.Context, name users.RoleName) (*users.Role, error)
	LookupDepartmentByID(ctx context.Context, id uuid.UUID) (*users.Department, error)
	CountProfilesInDepartment(ctx context.Context, departmentID uuid.UUID) (int, error)
	InsertProfile(ctx context.Context, profile *users.UserProfile) error
}

// IdentityCreator creates login accounts.
type IdentityCreator interface {
	CreateIdentity(ctx context.Context, email, password string, metadata identity.Metadata) (*identity.Identity, error)
}

// Notifier is told about hiring outcomes. Failures are logged and ignored.
type Notifier interface {
	NotifyHired(ctx context.Context, hiredBy uuid.UUID, user *ProvisionedUser) error
	NotifyPartialProvisioning(ctx context.Context, hiredBy uuid.UUID, perr *apperrors.PartialProvisioningError) error
}

// HireInput contains data needed to hire a new user
type HireInput struct {
	Email         string         `json:"email" validate:"required,email"`
	Password      string         `json:"password" validate:"required,min=6"`
	Name          string         `json:"name" validate:"required"`
	RoleName      users.RoleName `json:"role_name" validate:"required"`
	DepartmentID  uuid.UUID      `json:"department_id" validate:"required"`
	Designation   *string        `json:"designation,omitempty"`
	MobileNo      *string        `json:"mobile_no,omitempty"`
	PersonalEmail *string        `json:"personal_email,omitempty"`
	HiredBy       uuid.UUID      `json:"-" validate:"required"`
}

// ProvisionedUser is what the UI shows after a successful hire.
type ProvisionedUser struct {
	ProfileID       uuid.UUID      `json:"id"`
	UserID          string         `json:"user_id"`
	Email           string         `json:"email"`
	Name            string         `json:"name"`
	RoleID          uuid.UUID      `json:"role_id"`
	RoleName        users.RoleName `json:"role_name"`
	RoleDisplayName string         `json:"role_display_name"`
	DepartmentID    uuid.UUID      `json:"department_id"`
	DepartmentName  string         `json:"department_name"`
	DepartmentCode  string         `json:"department_code"`
	HiredAt         time.Time      `json:"hired_at"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for the hiring year and stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithNotifier registers a notifier for hiring outcomes.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// Service provides the hiring flow
type Service struct {
	store      Store
	identities IdentityCreator
	notifier   Notifier
	logger     *zap.Logger
	validate   *validator.Validate
	tracer     trace.Tracer
	hires      metric.Int64Counter
	now        func() time.Time
}

// NewService creates a new provisioning service
func NewService(store Store, identities IdentityCreator, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store:      store,
		identities: identities,
		logger:     logger,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
		tracer:     otel.Tracer("hr-admin/provisioning"),
		now:        time.Now,
	}

	hires, err := otel.Meter("hr-admin/provisioning").Int64Counter(
		"hr_admin.hires",
		metric.WithDescription("Hire attempts by outcome"),
	)
	if err != nil {
		logger.Warn("hire counter unavailable", zap.Error(err))
		hires = noop.Int64Counter{}
	}
	s.hires = hires

	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hire resolves the role and department, generates the composite user id,
// creates the identity account and then the profile row.
//
// The two writes are not atomic. If the profile insert fails after the
// identity was created, Hire returns *apperrors.PartialProvisioningError and
// leaves the identity in place.
//
// The sequence number is count+1 over the department's profiles with no
// lock, so two concurrent hires into one department can produce the same
// user_id. The unique index on user_profiles.user_id then fails the second
// insert, which surfaces as a partial provisioning.
func (s *Service) Hire(ctx context.Context, in HireInput) (*ProvisionedUser, error) {
	ctx, span := s.tracer.Start(ctx, "provisioning.Hire", trace.WithAttributes(
		attribute.String("email", in.Email),
		attribute.String("role_name", string(in.RoleName)),
		attribute.String("department_id", in.DepartmentID.String()),
	))
	defer span.End()

	user, err := s.hire(ctx, in)
	outcome := "success"
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())

		var partial *apperrors.PartialProvisioningError
		if errors.As(err, &partial) {
			outcome = "partial"
			s.logger.Error("hire left identity without profile",
				zap.String("identity_id", partial.IdentityID.String()),
				zap.String("email", partial.Email),
				zap.String("user_id", partial.UserID),
				zap.Error(partial.Err))
			if s.notifier != nil {
				if nerr := s.notifier.NotifyPartialProvisioning(ctx, in.HiredBy, partial); nerr != nil {
					s.logger.Warn("partial provisioning notification failed", zap.Error(nerr))
				}
			}
		} else {
			outcome = "failed"
			s.logger.Warn("hire failed", zap.String("email", in.Email), zap.Error(err))
		}
	}
	s.hires.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	if err != nil {
		return nil, err
	}

	s.logger.Info("user hired",
		zap.String("profile_id", user.ProfileID.String()),
		zap.String("user_id", user.UserID),
		zap.String("email", user.Email))
	if s.notifier != nil {
		if nerr := s.notifier.NotifyHired(ctx, in.HiredBy, user); nerr != nil {
			s.logger.Warn("hire notification failed", zap.Error(nerr))
		}
	}
	return user, nil
}

func (s *Service) hire(ctx context.Context, in HireInput) (*ProvisionedUser, error) {
	// Validating
	if err := s.validateInput(in); err != nil {
		return nil, err
	}

	// ReferencesResolved
	role, dept, err := s.resolveReferences(ctx, in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	priorCount, err := s.store.CountProfilesInDepartment(ctx, dept.ID)
	if err != nil {
		return nil, fmt.Errorf("counting profiles in department %q: %w", dept.Name, err)
	}
	userID, err := ComposeUserID(now.Year(), *dept.Code, priorCount+1)
	if err != nil {
		var rangeErr *apperrors.UserIDRangeError
		if errors.As(err, &rangeErr) {
			rangeErr.DepartmentName = dept.Name
		}
		return nil, err
	}

	// IdentityCreated
	ident, err := s.identities.CreateIdentity(ctx, in.Email, in.Password, s.metadata(in, role, dept, userID, now))
	if err != nil {
		return nil, fmt.Errorf("creating identity for %s: %w", in.Email, err)
	}

	// ProfilePersisted
	profile := &users.UserProfile{
		ID:            ident.ID,
		UserID:        userID,
		Email:         in.Email,
		RoleID:        &role.ID,
		DepartmentID:  &dept.ID,
		Name:          in.Name,
		Designation:   in.Designation,
		MobileNo:      in.MobileNo,
		PersonalEmail: in.PersonalEmail,
		IsFirstLogin:  true,
	}
	if err := s.store.InsertProfile(ctx, profile); err != nil {
		return nil, &apperrors.PartialProvisioningError{
			IdentityID: ident.ID,
			Email:      in.Email,
			UserID:     userID,
			Err:        err,
		}
	}

	return &ProvisionedUser{
		ProfileID:       ident.ID,
		UserID:          userID,
		Email:           in.Email,
		Name:            in.Name,
		RoleID:          role.ID,
		RoleName:        role.RoleName,
		RoleDisplayName: role.DisplayName,
		DepartmentID:    dept.ID,
		DepartmentName:  dept.Name,
		DepartmentCode:  *dept.Code,
		HiredAt:         now,
	}, nil
}

func (s *Service) validateInput(in HireInput) error {
	var problems []string
	if err := s.validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validating hire input: %w", err)
		}
		for _, fe := range verrs {
			problems = append(problems, fmt.Sprintf("%s failed %q check", fe.Field(), fe.Tag()))
		}
	}

	cs := users.ChangeSet{users.FieldName: in.Name}
	if in.MobileNo != nil {
		cs[users.FieldMobileNo] = *in.MobileNo
	}
	if in.PersonalEmail != nil {
		cs[users.FieldPersonalEmail] = *in.PersonalEmail
	}
	if res := access.Validate(cs, in.RoleName); !res.Valid {
		problems = append(problems, res.Errors...)
	}

	if len(problems) > 0 {
		return &apperrors.ValidationError{Problems: problems}
	}
	return nil
}

// resolveReferences looks up the role and the department concurrently.
func (s *Service) resolveReferences(ctx context.Context, in HireInput) (*users.Role, *users.Department, error) {
	var (
		role *users.Role
		dept *users.Department
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := s.store.LookupRoleByName(gctx, in.RoleName)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: %s", apperrors.ErrRoleNotFound, in.RoleName)
			}
			return fmt.Errorf("looking up role %s: %w", in.RoleName, err)
		}
		role = r
		return nil
	})
	g.Go(func() error {
		d, err := s.store.LookupDepartmentByID(gctx, in.DepartmentID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return fmt.Errorf("%w: %s", apperrors.ErrDepartmentNotFound, in.DepartmentID)
			}
			return fmt.Errorf("looking up department %s: %w", in.DepartmentID, err)
		}
		if d.Code == nil || *d.Code == "" {
			return &apperrors.DepartmentCodeMissingError{DepartmentID: d.ID, DepartmentName: d.Name}
		}
		dept = d
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return role, dept, nil
}

func (s *Service) metadata(in HireInput, role *users.Role, dept *users.Department, userID string, now time.Time) identity.Metadata {
	meta := identity.Metadata{
		"name":            in.Name,
		"user_id":         userID,
		"role_name":       string(role.RoleName),
		"role_id":         role.ID.String(),
		"department_name": dept.Name,
		"department_id":   dept.ID.String(),
		"department_code": *dept.Code,
		"hired_by":        in.HiredBy.String(),
		"hired_at":        now.UTC().Format(time.RFC3339),
		"is_first_login":  true,
		"created_via":     ProvenanceTag,
	}
	if in.Designation != nil {
		meta["designation"] = *in.Designation
	}
	if in.MobileNo != nil {
		meta["mobile_no"] = *in.MobileNo
	}
	if in.PersonalEmail != nil {
		meta["personal_email"] = *in.PersonalEmail
	}
	return meta
}
