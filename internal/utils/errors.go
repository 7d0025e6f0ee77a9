package utils

import (
	"errors"
	"net/http"
)

type AppError struct {
	Code    string
	Message string
	Origin  error // Original error that caused this error, if any
}

func (appErr *AppError) Error() string {
	if appErr.Origin != nil {
		return appErr.Message + ": " + appErr.Origin.Error()
	}
	return appErr.Message
}

func (appErr *AppError) Unwrap() error {
	return appErr.Origin
}

// Standard error codes for the application
const (
	// Resource errors
	ErrNotFound     = "NOT_FOUND"
	ErrDuplicate    = "DUPLICATE"
	ErrInvalidInput = "INVALID_INPUT"

	// Authentication/Authorization errors
	ErrUnauthorized = "UNAUTHORIZED"
	ErrForbidden    = "FORBIDDEN" // User is authenticated but doesn't own the record
	ErrInvalidToken = "INVALID_TOKEN"

	// User-specific errors
	ErrUserNotFound       = "USER_NOT_FOUND"
	ErrUserAlreadyExists  = "USER_ALREADY_EXISTS"
	ErrInvalidCredentials = "INVALID_CREDENTIALS"

	// Post-specific errors
	ErrPostNotFound    = "POST_NOT_FOUND"
	ErrAlreadyLiked    = "ALREADY_LIKED"
	ErrNotLiked        = "NOT_LIKED"
	ErrCommentNotFound = "COMMENT_NOT_FOUND"

	// Profile-specific errors
	ErrProfileNotFound = "PROFILE_NOT_FOUND"

	// Actor communication errors
	ErrActorTimeout = "ACTOR_TIMEOUT"

	ErrDatabase = "database_error"
	ErrInternal = "INTERNAL_ERROR"
)

func NewAppError(code string, message string, originalErr error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Origin:  originalErr,
	}
}

func NewPostNotFoundError() *AppError {
	return &AppError{Code: ErrPostNotFound, Message: "Post not found"}
}

func NewUserNotFoundError(userID string) *AppError {
	return &AppError{
		Code:    ErrUserNotFound,
		Message: "User not found: " + userID,
	}
}

func NewForbiddenError() *AppError {
	return &AppError{Code: ErrForbidden, Message: "User not authorized"}
}

func NewDatabaseError(message string, originalErr error) *AppError {
	return &AppError{Code: ErrDatabase, Message: message, Origin: originalErr}
}

func NewActorTimeoutError(actorName string, originalErr error) *AppError {
	return &AppError{
		Code:    ErrActorTimeout,
		Message: "Actor communication timeout: " + actorName,
		Origin:  originalErr,
	}
}

// AsAppError unwraps err into an AppError if it is, or wraps, one.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// IsErrorCode reports whether err carries the given code.
func IsErrorCode(err error, code string) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}

// IsNotFound reports whether err means the requested record does not exist.
func IsNotFound(err error) bool {
	appErr, ok := AsAppError(err)
	if !ok {
		return false
	}
	switch appErr.Code {
	case ErrNotFound, ErrPostNotFound, ErrUserNotFound, ErrProfileNotFound, ErrCommentNotFound:
		return true
	}
	return false
}

// AppErrorToHTTPStatus converts an AppError code to an HTTP status code.
//
// Ownership failures answer 401 and duplicate/missing likes answer 400, which is
// what the post API has always returned to clients.
func AppErrorToHTTPStatus(errorCode string) int {
	switch errorCode {
	case ErrNotFound, ErrPostNotFound, ErrUserNotFound, ErrProfileNotFound, ErrCommentNotFound:
		return http.StatusNotFound
	case ErrInvalidInput, ErrInvalidCredentials, ErrUserAlreadyExists, ErrAlreadyLiked, ErrNotLiked:
		return http.StatusBadRequest
	case ErrUnauthorized, ErrInvalidToken, ErrForbidden:
		return http.StatusUnauthorized
	case ErrDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
