package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is disabled")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrBadRequest       = errors.New("bad request")

	// User errors
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
)

// Application lifecycle errors
var (
	// ErrInvalidState is returned when an operation is not valid for the application's current status
	ErrInvalidState = errors.New("operation not allowed in current application status")
	// ErrInvalidTransition is returned for a status change outside the review graph
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrProfileIncomplete blocks submission until the profile score reaches the threshold
	ErrProfileIncomplete = errors.New("profile is incomplete")

	ErrApplicationNotFound = errors.New("application not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrCourseNotFound      = errors.New("course not found")
	ErrSchoolNotFound      = errors.New("school not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
	ErrRateLimited         = errors.New("rate limit exceeded")
)

// ReasonProfileIncomplete is the machine-readable blocking reason sent to clients
const ReasonProfileIncomplete = "PROFILE_INCOMPLETE"

// ProfileIncompleteError carries the completion score that blocked a submission.
type ProfileIncompleteError struct {
	Score         int
	Threshold     int
	MissingFields []string
}

func (e *ProfileIncompleteError) Error() string {
	msg := fmt.Sprintf("profile completion %d%% is below the required %d%%", e.Score, e.Threshold)
	if len(e.MissingFields) > 0 {
		msg += " (missing: " + strings.Join(e.MissingFields, ", ") + ")"
	}
	return msg
}

// Unwrap lets errors.Is match ErrProfileIncomplete
func (e *ProfileIncompleteError) Unwrap() error {
	return ErrProfileIncomplete
}

// Reason returns the blocking reason code
func (e *ProfileIncompleteError) Reason() string {
	return ReasonProfileIncomplete
}

// NewProfileIncompleteError builds a ProfileIncompleteError
func NewProfileIncompleteError(score, threshold int, missing []string) *ProfileIncompleteError {
	return &ProfileIncompleteError{Score: score, Threshold: threshold, MissingFields: missing}
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewInvalidStateError reports an operation attempted against the wrong status
func NewInvalidStateError(message string) error {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// NewInvalidTransitionError reports a rejected from->to status change
func NewInvalidTransitionError(from, to string) error {
	return &CustomError{
		Err:     ErrInvalidTransition,
		Message: fmt.Sprintf("cannot move application from %s to %s", from, to),
		Details: map[string]interface{}{"from": from, "to": to},
	}
}

// Is returns whether err matches target or any of errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err       error
	Message   string
	StatusMsg string
	Code      string
	Details   map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// Message extracts the user-facing message of err, if it carries one.
func Message(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return ""
}
