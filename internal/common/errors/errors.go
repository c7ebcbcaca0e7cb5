package errors

import (
	"fmt"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

// Error codes. The tracker-specific codes are all local validation failures:
// the caller can recover by correcting input, none are fatal to the engine.
const (
	CodeInvalidIdentity = "INVALID_IDENTITY"
	CodeUnknownTask     = "UNKNOWN_TASK"
	CodeNameEmpty       = "NAME_EMPTY"
	CodeNameTooLong     = "NAME_TOO_LONG"
	CodeNameCollision   = "NAME_COLLISION"
	CodeInvalidTimezone = "INVALID_TIMEZONE"

	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeBadRequest    = "BAD_REQUEST"
	CodeInternalError = "INTERNAL_ERROR"
)

// Error constructors
func InvalidIdentity(identity string) *AppError {
	return &AppError{
		Code:    CodeInvalidIdentity,
		Message: "identity must be a non-empty email address",
		Details: identity,
		Status:  400,
	}
}

func UnknownTask(name string) *AppError {
	return &AppError{
		Code:    CodeUnknownTask,
		Message: fmt.Sprintf("task %q is not registered", name),
		Status:  404,
	}
}

func NameEmpty() *AppError {
	return &AppError{
		Code:    CodeNameEmpty,
		Message: "task name must not be empty",
		Status:  400,
	}
}

func NameTooLong(name string, max int) *AppError {
	return &AppError{
		Code:    CodeNameTooLong,
		Message: fmt.Sprintf("task name exceeds %d characters", max),
		Details: name,
		Status:  400,
	}
}

func NameCollision(name string) *AppError {
	return &AppError{
		Code:    CodeNameCollision,
		Message: fmt.Sprintf("task %q already exists", name),
		Status:  409,
	}
}

func InvalidTimezone(tz string) *AppError {
	return &AppError{
		Code:    CodeInvalidTimezone,
		Message: fmt.Sprintf("unrecognized timezone %q", tz),
		Status:  400,
	}
}

func Validation(message string, details string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
		Status:  400,
	}
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  404,
	}
}

func BadRequest(message string) *AppError {
	return &AppError{
		Code:    CodeBadRequest,
		Message: message,
		Status:  400,
	}
}

func Internal(message string, details string) *AppError {
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Details: details,
		Status:  500,
	}
}
