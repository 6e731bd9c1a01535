package provisioning

import (
	"fmt"
	"strings"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
)

const (
	codeWidth   = 2
	maxSequence = 9999
)

// ComposeUserID builds the composite user identifier
// <year><2-digit department code><4-digit sequence>, e.g. 2025030008.
// A code that is not 1-2 digits or a sequence outside 1..9999 would break
// the fixed layout and is rejected with *apperrors.UserIDRangeError.
func ComposeUserID(year int, departmentCode string, sequence int) (string, error) {
	code := strings.TrimSpace(departmentCode)
	if !isDigits(code) || len(code) > codeWidth || sequence < 1 || sequence > maxSequence {
		return "", &apperrors.UserIDRangeError{Code: departmentCode, Sequence: sequence}
	}
	return fmt.Sprintf("%d%s%04d", year, strings.Repeat("0", codeWidth-len(code))+code, sequence), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
