// Package access computes which user-profile fields a role may change and
// validates proposed values. It performs no I/O.
package access

import (
	"sort"
	"strings"
	"time"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
)

// FieldSet is a set of profile field names.
type FieldSet map[string]struct{}

func newFieldSet(fields ...string) FieldSet {
	s := make(FieldSet, len(fields))
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// Has reports whether field is in the set.
func (s FieldSet) Has(field string) bool {
	_, ok := s[field]
	return ok
}

// Sorted returns the members in lexical order.
func (s FieldSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for f := range s {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func union(sets ...[]string) FieldSet {
	out := FieldSet{}
	for _, set := range sets {
		for _, f := range set {
			out[f] = struct{}{}
		}
	}
	return out
}

// Field groups. Kept as slices so every AllowedFields call builds a fresh
// set that callers may mutate freely.
var (
	commonFields = []string{
		users.FieldName,
		users.FieldMobileNo,
		users.FieldAlternateMobileNo,
		users.FieldPersonalEmail,
		users.FieldOfficialEmail,
		users.FieldDateOfBirth,
		users.FieldNationality,
		users.FieldNationalIDNo,
		users.FieldPassportNo,
		users.FieldAddress,
		users.FieldPhotoURL,
	}
	adminFields = []string{
		users.FieldDesignation,
		users.FieldDepartmentID,
		users.FieldRoleID,
		users.FieldUserID,
		users.FieldEmail,
		users.FieldIsFirstLogin,
	}
	hrOtherFields = []string{
		users.FieldDesignation,
		users.FieldDepartmentID,
	}
	managerSubordinateFields = []string{
		users.FieldName,
		users.FieldMobileNo,
		users.FieldAlternateMobileNo,
		users.FieldAddress,
	}
)

// AllowedFields returns the fields role may change on a profile.
// Unknown roles get the employee policy.
func AllowedFields(role users.RoleName, isOwnProfile bool) FieldSet {
	switch role {
	case users.RoleAdmin:
		return union(commonFields, adminFields)
	case users.RoleHR:
		if isOwnProfile {
			return union(commonFields)
		}
		return union(commonFields, hrOtherFields)
	case users.RoleManager:
		if isOwnProfile {
			return union(commonFields)
		}
		return union(managerSubordinateFields)
	default:
		if isOwnProfile {
			return union(commonFields)
		}
		return FieldSet{}
	}
}

// CanEditField reports whether role may change field.
func CanEditField(field string, role users.RoleName, isOwnProfile bool) bool {
	return AllowedFields(role, isOwnProfile).Has(field)
}

// FilterChangeSet drops every key role may not change, trims string values
// (blank becomes nil so the column is cleared) and stamps updated_at with now.
func FilterChangeSet(proposed users.ChangeSet, role users.RoleName, isOwnProfile bool, now time.Time) users.ChangeSet {
	allowed := AllowedFields(role, isOwnProfile)
	out := make(users.ChangeSet, len(proposed)+1)
	for field, value := range proposed {
		if !allowed.Has(field) {
			continue
		}
		if s, ok := value.(string); ok {
			s = strings.TrimSpace(s)
			if s == "" {
				out[field] = nil
				continue
			}
			value = s
		}
		out[field] = value
	}
	out[users.FieldUpdatedAt] = now
	return out
}
