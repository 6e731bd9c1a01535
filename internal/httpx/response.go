// Package httpx содержит общий формат JSON-ответов API
package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse represents a standardized error response structure
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// Error codes
const (
	CodeMissingToken        = "MISSING_TOKEN"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeUserNotFound        = "USER_NOT_FOUND"
	CodeInsufficientRights  = "INSUFFICIENT_PERMISSIONS"
	CodeBadRequest          = "BAD_REQUEST"
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInvalidReference    = "INVALID_REFERENCE"
	CodeResourceNotFound    = "RESOURCE_NOT_FOUND"
	CodeRoleNotFound        = "ROLE_NOT_FOUND"
	CodeDepartmentNotFound  = "DEPARTMENT_NOT_FOUND"
	CodeDepartmentCode      = "DEPARTMENT_CODE_MISSING"
	CodeUserIDRange         = "USER_ID_OUT_OF_RANGE"
	CodeIdentityExists      = "IDENTITY_EXISTS"
	CodeInvalidCredentials  = "INVALID_CREDENTIALS"
	CodeAccountDisabled     = "ACCOUNT_DISABLED"
	CodePersistenceError    = "PERSISTENCE_ERROR"
	CodePartialProvisioning = "PARTIAL_PROVISIONING"
	CodeInternalServerError = "INTERNAL_ERROR"
)

// WriteJSON отправляет ответ в формате JSON
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// WriteError sends a standardized error response
func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
		Code:    code,
		Details: details,
	})
}
