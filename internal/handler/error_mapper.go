package handler

import (
	"errors"

	"github.com/forgo/tontine/api/internal/model"
	"github.com/forgo/tontine/api/internal/service"
)

// MapServiceError converts a service error to a ProblemDetails response.
// This centralizes error handling logic for all handlers, ensuring consistent
// HTTP status codes and error codes across the API.
func MapServiceError(err error) *model.ProblemDetails {
	if err == nil {
		return nil
	}

	// ===== Authentication Errors → 401 =====
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return model.NewUnauthorizedError(err.Error())
	case errors.Is(err, service.ErrInvalidRefreshToken),
		errors.Is(err, service.ErrRefreshTokenExpired),
		errors.Is(err, service.ErrRefreshTokenRevoked):
		return model.NewUnauthorizedError(err.Error())

	// ===== Authorization Errors → 403 =====
	case errors.Is(err, service.ErrNotGroupAdmin):
		return model.NewForbiddenErrorWithCode(err.Error(), model.ErrCodeInsufficientPermissions)
	case errors.Is(err, service.ErrNotGroupMember):
		return model.NewForbiddenErrorWithCode(err.Error(), model.ErrCodeNotGroupMember)
	case errors.Is(err, service.ErrAccessDenied):
		return model.NewForbiddenErrorWithCode(err.Error(), model.ErrCodeAccessDenied)
	case errors.Is(err, service.ErrAccountDeactivated):
		return model.NewForbiddenError(err.Error())

	// ===== Not Found Errors → 404 =====
	case errors.Is(err, service.ErrUserNotFound):
		return model.NewNotFoundError("user")
	case errors.Is(err, service.ErrGroupNotFound):
		return model.NewNotFoundError("group")
	case errors.Is(err, service.ErrMemberNotFound):
		return model.NewNotFoundError("member")
	case errors.Is(err, service.ErrContributionNotFound):
		return model.NewNotFoundError("contribution")
	case errors.Is(err, service.ErrPaymentNotFound):
		return model.NewNotFoundError("payment")

	// ===== Conflict Errors → 409 =====
	case errors.Is(err, service.ErrEmailAlreadyExists):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrAlreadyMember):
		return model.NewConflictErrorWithCode(err.Error(), model.ErrCodeAlreadyMember)
	case errors.Is(err, service.ErrGroupFull):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrDuplicateContribution):
		return model.NewConflictErrorWithCode(err.Error(), model.ErrCodeDuplicateContribution)
	case errors.Is(err, service.ErrSettingsLocked):
		return model.NewConflictErrorWithCode(err.Error(), model.ErrCodeSettingsLocked)
	case errors.Is(err, service.ErrConcurrentUpdate):
		return model.NewConflictError(err.Error())
	case errors.Is(err, service.ErrPaymentAlreadySettled):
		return model.NewConflictError(err.Error())

	// ===== Eligibility Gates → 422 =====
	case errors.Is(err, service.ErrKycRequired):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeKYCRequired)
	case errors.Is(err, service.ErrReliabilityTooLow):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeReliabilityTooLow)
	case errors.Is(err, service.ErrGroupNotActive):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeGroupNotActive)
	case errors.Is(err, service.ErrCreatorNotActive):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeCreatorNotActive)

	// ===== State Errors → 422 =====
	case errors.Is(err, service.ErrInvalidStateTransition):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidStateTransition)
	case errors.Is(err, service.ErrPaymentNotSettled):
		return model.NewUnprocessableError(err.Error(), model.ErrCodePaymentNotSettled)
	case errors.Is(err, service.ErrCreatorCannotLeave),
		errors.Is(err, service.ErrCannotRemoveCreator),
		errors.Is(err, service.ErrCreatorRoleLocked):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeCreatorCannotLeave)
	case errors.Is(err, service.ErrInvalidDueDate):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidDueDate)
	case errors.Is(err, service.ErrSelfRoleChange):
		return model.NewUnprocessableError(err.Error(), model.ErrCodeInvalidInput)

	// ===== Validation Errors → 422 =====
	case errors.Is(err, service.ErrInvalidEmail),
		errors.Is(err, service.ErrPasswordRequired),
		errors.Is(err, service.ErrPasswordTooShort),
		errors.Is(err, service.ErrPasswordTooLong):
		return model.NewValidationError([]model.FieldError{{Field: "credentials", Message: err.Error()}})

	case errors.Is(err, service.ErrInvalidDateWindow):
		return model.NewValidationError([]model.FieldError{{Field: "end_date", Message: err.Error()}})
	case errors.Is(err, service.ErrMaxMembersBelowCount):
		return model.NewValidationError([]model.FieldError{{Field: "max_members", Message: err.Error()}})

	// ===== Default → 500 =====
	default:
		return model.NewInternalError("")
	}
}

// MapServiceErrorWithContext converts a service error to a ProblemDetails response
// with additional context about the operation that failed.
func MapServiceErrorWithContext(err error, operation string) *model.ProblemDetails {
	pd := MapServiceError(err)
	if pd != nil && pd.Status == 500 {
		pd.Detail = operation + ": an unexpected error occurred"
	}
	return pd
}
