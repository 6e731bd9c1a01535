package access

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/users"
)

const (
	minPhoneDigits = 7
	minPhoneLength = 7
	maxPhoneLength = 20
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^[0-9+\- ().]+$`)
)

// Result is the outcome of Validate.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Err returns the result as a *apperrors.ValidationError, or nil when valid.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &apperrors.ValidationError{Problems: r.Errors}
}

var phoneFields = []struct {
	field string
	label string
}{
	{users.FieldMobileNo, "Mobile number"},
	{users.FieldAlternateMobileNo, "Alternate mobile number"},
}

var emailFields = []struct {
	field string
	label string
}{
	{users.FieldPersonalEmail, "Personal email"},
	{users.FieldOfficialEmail, "Official email"},
}

// Validate checks the proposed values. Every violation is reported.
func Validate(proposed users.ChangeSet, role users.RoleName) Result {
	var problems []string

	if v, ok := proposed[users.FieldName]; ok {
		if s, _ := v.(string); strings.TrimSpace(s) == "" {
			problems = append(problems, "Name is required")
		}
	}

	if mayEditEmail(role) {
		if s, ok := present(proposed, users.FieldEmail); ok && !emailPattern.MatchString(s) {
			problems = append(problems, "Email must look like name@domain.tld")
		}
	}
	for _, f := range emailFields {
		if s, ok := present(proposed, f.field); ok && !emailPattern.MatchString(s) {
			problems = append(problems, f.label+" must look like name@domain.tld")
		}
	}

	// Длину и символы проверяем по исходной строке, без trim
	for _, f := range phoneFields {
		if _, ok := present(proposed, f.field); ok {
			raw, _ := proposed[f.field].(string)
			if msg := checkPhone(raw); msg != "" {
				problems = append(problems, f.label+" "+msg)
			}
		}
	}

	return Result{Valid: len(problems) == 0, Errors: problems}
}

func mayEditEmail(role users.RoleName) bool {
	return CanEditField(users.FieldEmail, role, true) || CanEditField(users.FieldEmail, role, false)
}

// present returns the trimmed string value of field when it is set and
// not blank.
func present(cs users.ChangeSet, field string) (string, bool) {
	v, ok := cs[field]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

func checkPhone(s string) string {
	if n := utf8.RuneCountInString(s); n < minPhoneLength || n > maxPhoneLength {
		return "must be 7 to 20 characters long"
	}
	if !phonePattern.MatchString(s) {
		return "may only contain digits, spaces and + - ( ) ."
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigits {
		return "must contain at least 7 digits"
	}
	return ""
}
