package users

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Apply returns a copy of the profile with the change-set applied.
func (p UserProfile) Apply(cs ChangeSet) (UserProfile, error) {
	out := p
	for field, value := range cs {
		if err := out.set(field, value); err != nil {
			return UserProfile{}, fmt.Errorf("field %s: %w", field, err)
		}
	}
	return out, nil
}

// ChangedFields возвращает отсортированный список полей из cs,
// значения которых отличаются от текущих значений профиля.
// updated_at не учитывается.
func (p UserProfile) ChangedFields(cs ChangeSet) ([]string, error) {
	var changed []string
	for field, value := range cs {
		if field == FieldUpdatedAt {
			continue
		}
		next := p
		if err := next.set(field, value); err != nil {
			return nil, fmt.Errorf("field %s: %w", field, err)
		}
		if p.FieldValue(field) != next.FieldValue(field) {
			changed = append(changed, field)
		}
	}
	sort.Strings(changed)
	return changed, nil
}

// FieldValue returns a comparable representation of a profile field:
// nil when the field is empty, otherwise a string or a bool.
func (p UserProfile) FieldValue(field string) any {
	if ptr, ok := p.textField(field); ok {
		if *ptr == nil {
			return nil
		}
		return **ptr
	}
	switch field {
	case FieldName:
		return p.Name
	case FieldEmail:
		return p.Email
	case FieldUserID:
		return p.UserID
	case FieldRoleID:
		return uuidValue(p.RoleID)
	case FieldDepartmentID:
		return uuidValue(p.DepartmentID)
	case FieldDateOfBirth:
		if p.DateOfBirth == nil {
			return nil
		}
		return p.DateOfBirth.Format(DateLayout)
	case FieldIsFirstLogin:
		return p.IsFirstLogin
	case FieldUpdatedAt:
		return p.UpdatedAt.Format(time.RFC3339Nano)
	}
	return nil
}

func (p *UserProfile) textField(field string) (**string, bool) {
	switch field {
	case FieldDesignation:
		return &p.Designation, true
	case FieldMobileNo:
		return &p.MobileNo, true
	case FieldAlternateMobileNo:
		return &p.AlternateMobileNo, true
	case FieldPersonalEmail:
		return &p.PersonalEmail, true
	case FieldOfficialEmail:
		return &p.OfficialEmail, true
	case FieldNationality:
		return &p.Nationality, true
	case FieldNationalIDNo:
		return &p.NationalIDNo, true
	case FieldPassportNo:
		return &p.PassportNo, true
	case FieldAddress:
		return &p.Address, true
	case FieldPhotoURL:
		return &p.PhotoURL, true
	}
	return nil, false
}

func (p *UserProfile) set(field string, value any) error {
	if ptr, ok := p.textField(field); ok {
		s, err := asString(value)
		if err != nil {
			return err
		}
		*ptr = s
		return nil
	}

	switch field {
	case FieldName, FieldEmail, FieldUserID:
		s, err := asString(value)
		if err != nil {
			return err
		}
		var v string
		if s != nil {
			v = *s
		}
		switch field {
		case FieldName:
			p.Name = v
		case FieldEmail:
			p.Email = v
		default:
			p.UserID = v
		}
	case FieldRoleID:
		id, err := AsUUID(value)
		if err != nil {
			return err
		}
		p.RoleID = id
	case FieldDepartmentID:
		id, err := AsUUID(value)
		if err != nil {
			return err
		}
		p.DepartmentID = id
	case FieldDateOfBirth:
		d, err := asDate(value)
		if err != nil {
			return err
		}
		p.DateOfBirth = d
	case FieldIsFirstLogin:
		b, err := asBool(value)
		if err != nil {
			return err
		}
		p.IsFirstLogin = b
	case FieldUpdatedAt:
		t, err := asTime(value)
		if err != nil {
			return err
		}
		p.UpdatedAt = t
	default:
		return fmt.Errorf("unknown profile field")
	}
	return nil
}

func uuidValue(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func asString(value any) (*string, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case string:
		return &v, nil
	case *string:
		return v, nil
	}
	return nil, fmt.Errorf("expected string, got %T", value)
}

// AsUUID converts a change-set value (string, uuid.UUID or nil) to an id.
func AsUUID(value any) (*uuid.UUID, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case uuid.UUID:
		return &v, nil
	case *uuid.UUID:
		return v, nil
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q: %w", v, err)
		}
		return &id, nil
	}
	return nil, fmt.Errorf("expected id, got %T", value)
}

func asDate(value any) (*time.Time, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil
	case time.Time:
		return &v, nil
	case *time.Time:
		return v, nil
	case string:
		t, err := time.Parse(DateLayout, v)
		if err != nil {
			return nil, fmt.Errorf("invalid date %q: %w", v, err)
		}
		return &t, nil
	}
	return nil, fmt.Errorf("expected date, got %T", value)
}

func asBool(value any) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		return strconv.ParseBool(v)
	}
	return false, fmt.Errorf("expected bool, got %T", value)
}

func asTime(value any) (time.Time, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		return time.Parse(time.RFC3339Nano, v)
	}
	return time.Time{}, fmt.Errorf("expected timestamp, got %T", value)
}
