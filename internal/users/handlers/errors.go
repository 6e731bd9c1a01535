package handlers

import (
	"errors"
	"net/http"

	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/apperrors"
	"github.com/Ultrahd-dev/hr-admin-app/backend/internal/httpx"
	"go.uber.org/zap"
)

// writeServiceError переводит ошибку сервиса в HTTP ответ с кодом ошибки
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var (
		validation  *apperrors.ValidationError
		invalidRef  *apperrors.InvalidReferenceError
		persistence *apperrors.PersistenceError
		codeMissing *apperrors.DepartmentCodeMissingError
		partial     *apperrors.PartialProvisioningError
		userIDRange *apperrors.UserIDRangeError
	)

	switch {
	case errors.As(err, &validation):
		httpx.WriteError(w, http.StatusBadRequest, httpx.CodeValidationError, "Validation failed", validation.Problems)
	case errors.As(err, &invalidRef):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeInvalidReference, invalidRef.Error(),
			map[string]string{"reference": invalidRef.Reference, "value": invalidRef.Value})
	case errors.As(err, &partial):
		httpx.WriteError(w, http.StatusBadGateway, httpx.CodePartialProvisioning, partial.Error(),
			map[string]string{
				"identity_id": partial.IdentityID.String(),
				"email":       partial.Email,
				"user_id":     partial.UserID,
			})
	case errors.As(err, &persistence):
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodePersistenceError, persistence.Error(), nil)
	case errors.As(err, &codeMissing):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeDepartmentCode, codeMissing.Error(), nil)
	case errors.As(err, &userIDRange):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeUserIDRange, userIDRange.Error(), nil)
	case errors.Is(err, apperrors.ErrRoleNotFound):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeRoleNotFound, err.Error(), nil)
	case errors.Is(err, apperrors.ErrDepartmentNotFound):
		httpx.WriteError(w, http.StatusUnprocessableEntity, httpx.CodeDepartmentNotFound, err.Error(), nil)
	case errors.Is(err, apperrors.ErrIdentityExists):
		httpx.WriteError(w, http.StatusConflict, httpx.CodeIdentityExists, err.Error(), nil)
	case errors.Is(err, apperrors.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, httpx.CodeInvalidCredentials, "Invalid email or password", nil)
	case errors.Is(err, apperrors.ErrAccountDisabled):
		httpx.WriteError(w, http.StatusForbidden, httpx.CodeAccountDisabled, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, httpx.CodeResourceNotFound, err.Error(), nil)
	default:
		logger.Error("unhandled service error", zap.Error(err))
		httpx.WriteError(w, http.StatusInternalServerError, httpx.CodeInternalServerError, "Internal server error", nil)
	}
}
