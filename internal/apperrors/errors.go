// Package apperrors содержит ошибки, общие для сервисов профилей и найма.
package apperrors

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

// Store / lookups
var (
	ErrNotFound = errors.New("not found")
	ErrNoRows   = errors.New("no rows matched")
)

// Provisioning preconditions
var (
	ErrRoleNotFound       = errors.New("role not found")
	ErrDepartmentNotFound = errors.New("department not found")
)

// Auth
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityExists     = errors.New("identity already exists")
	ErrAccountDisabled    = errors.New("account is deactivated")
)

// ValidationError is returned when caller-supplied data fails the access
// policy rules. No store access happens after it.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

// InvalidReferenceError names a role or department id that did not resolve.
type InvalidReferenceError struct {
	Reference string
	Value     string
	Err       error
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("invalid %s reference %q", e.Reference, e.Value)
}

func (e *InvalidReferenceError) Unwrap() error { return e.Err }

// PersistenceError means every update strategy was exhausted.
// Attempts holds every strategy failure, Last the one surfaced to users.
type PersistenceError struct {
	Attempts error
	Last     error
}

// NewPersistenceError folds the per-strategy failures into one error.
func NewPersistenceError(attempts []error) *PersistenceError {
	e := &PersistenceError{Attempts: multierr.Combine(attempts...)}
	if len(attempts) > 0 {
		e.Last = attempts[len(attempts)-1]
	}
	return e
}

func (e *PersistenceError) Error() string {
	if e.Last == nil {
		return "profile update failed: no update strategy applicable"
	}
	return fmt.Sprintf("profile update failed: %v", e.Last)
}

func (e *PersistenceError) Unwrap() error { return e.Last }

// DepartmentCodeMissingError: the department exists but has no active code.
type DepartmentCodeMissingError struct {
	DepartmentID   uuid.UUID
	DepartmentName string
}

func (e *DepartmentCodeMissingError) Error() string {
	return fmt.Sprintf("department %q has no active department code", e.DepartmentName)
}

// UserIDRangeError: the department code or the next sequence number does
// not fit into <year><2-digit code><4-digit sequence>.
type UserIDRangeError struct {
	DepartmentName string
	Code           string
	Sequence       int
}

func (e *UserIDRangeError) Error() string {
	return fmt.Sprintf("cannot compose user_id for department %q: code %q must be 1-2 digits and sequence %d must be within 1..9999",
		e.DepartmentName, e.Code, e.Sequence)
}

// PartialProvisioningError: the identity account exists but its profile row
// could not be written. Needs manual reconciliation by an operator.
type PartialProvisioningError struct {
	IdentityID uuid.UUID
	Email      string
	UserID     string
	Err        error
}

func (e *PartialProvisioningError) Error() string {
	return fmt.Sprintf(
		"identity %s (%s) was created but its profile %s could not be saved; manual reconciliation required: %v",
		e.IdentityID, e.Email, e.UserID, e.Err,
	)
}

func (e *PartialProvisioningError) Unwrap() error { return e.Err }
