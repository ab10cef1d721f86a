package errors

import (
	stderrors "errors"
	"fmt"

	"wiastat/domain/core"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeDatabaseError   = "DATABASE_ERROR"
	CodeValidationError = "VALIDATION_ERROR"
	CodeNotFound        = "NOT_FOUND"
	CodeInternalError   = "INTERNAL_ERROR"
	CodeInvalidInput    = "INVALID_INPUT"
	CodeStatistics      = "STATISTICS_ERROR"
	CodeIO              = "IO_ERROR"
	CodeTargetExists    = "TARGET_EXISTS"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func DatabaseError(message string, cause error) *AppError {
	return &AppError{Code: CodeDatabaseError, Message: message, Cause: cause}
}

func ValidationError(message string) *AppError {
	return New(CodeValidationError, message)
}

func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Cause:   core.ErrNotFound,
	}
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// StatisticsError reports a comparison that could not be evaluated. The message
// names the comparison so it can be shown to the user as is.
func StatisticsError(comparison string, cause error) *AppError {
	if cause == nil {
		cause = core.ErrTooFewGroups
	}
	return &AppError{
		Code:    CodeStatistics,
		Message: fmt.Sprintf("too few groups for comparison '%s'", comparison),
		Cause:   cause,
	}
}

// IOError wraps a failed read or write of target.
func IOError(target string, cause error) *AppError {
	return &AppError{
		Code:    CodeIO,
		Message: fmt.Sprintf("failed to write %s", target),
		Cause:   cause,
	}
}

// TargetExists reports that target exists and replacing it was not approved.
func TargetExists(target string) *AppError {
	return &AppError{
		Code:    CodeTargetExists,
		Message: fmt.Sprintf("%s already exists", target),
		Cause:   core.ErrTargetExists,
	}
}
