package users

import (
	"time"

	"github.com/google/uuid"
)

// RoleName стабильный ключ роли (roles.role_name)
type RoleName string

const (
	RoleAdmin    RoleName = "admin"
	RoleHR       RoleName = "hr"
	RoleManager  RoleName = "manager"
	RoleEmployee RoleName = "employee"
)

// Profile fields. The names match the user_profiles columns.
const (
	FieldName              = "name"
	FieldMobileNo          = "mobile_no"
	FieldAlternateMobileNo = "alternate_mobile_no"
	FieldPersonalEmail     = "personal_email"
	FieldOfficialEmail     = "official_email"
	FieldDateOfBirth       = "date_of_birth"
	FieldNationality       = "nationality"
	FieldNationalIDNo      = "national_id_no"
	FieldPassportNo        = "passport_no"
	FieldAddress           = "address"
	FieldPhotoURL          = "photo_url"
	FieldDesignation       = "designation"
	FieldDepartmentID      = "department_id"
	FieldRoleID            = "role_id"
	FieldUserID            = "user_id"
	FieldEmail             = "email"
	FieldIsFirstLogin      = "is_first_login"
	FieldUpdatedAt         = "updated_at"
)

// DateLayout формат date_of_birth в запросах и ответах
const DateLayout = "2006-01-02"

// ChangeSet набор изменений профиля: имя поля -> новое значение.
// nil означает очистку поля.
type ChangeSet map[string]any

// Has reports whether the change-set carries the key.
func (c ChangeSet) Has(field string) bool {
	_, ok := c[field]
	return ok
}

// UserProfile represents one employee/admin account
// Соответствует таблице user_profiles
type UserProfile struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	UserID            string     `db:"user_id" json:"user_id"` // <year><dept code><sequence>
	Email             string     `db:"email" json:"email"`
	RoleID            *uuid.UUID `db:"role_id" json:"role_id"`
	DepartmentID      *uuid.UUID `db:"department_id" json:"department_id"`
	Name              string     `db:"name" json:"name"`
	Designation       *string    `db:"designation" json:"designation"`
	MobileNo          *string    `db:"mobile_no" json:"mobile_no"`
	AlternateMobileNo *string    `db:"alternate_mobile_no" json:"alternate_mobile_no"`
	PersonalEmail     *string    `db:"personal_email" json:"personal_email"`
	OfficialEmail     *string    `db:"official_email" json:"official_email"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth"`
	Nationality       *string    `db:"nationality" json:"nationality"`
	NationalIDNo      *string    `db:"national_id_no" json:"national_id_no"`
	PassportNo        *string    `db:"passport_no" json:"passport_no"`
	Address           *string    `db:"address" json:"address"`
	PhotoURL          *string    `db:"photo_url" json:"photo_url"`
	IsFirstLogin      bool       `db:"is_first_login" json:"is_first_login"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`

	// Денормализованные поля, заполняются только при чтении с JOIN
	RoleName        *string `db:"role_name" json:"role_name,omitempty"`
	RoleDisplayName *string `db:"role_display_name" json:"role_display_name,omitempty"`
	DepartmentName  *string `db:"department_name" json:"department_name,omitempty"`
}

// Role represents a row of the roles table
type Role struct {
	ID          uuid.UUID `db:"id" json:"id"`
	RoleName    RoleName  `db:"role_name" json:"role_name"`
	DisplayName string    `db:"display_name" json:"display_name"`
	IsActive    bool      `db:"is_active" json:"is_active"`
}

// Department represents a department together with its active code.
// Code is nil when the department has no active department_codes row.
type Department struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description"`
	Code        *string   `db:"code" json:"code"`
}
