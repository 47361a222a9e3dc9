package service

import (
	"errors"
	"fmt"
)

// Error is a business failure the HTTP layer can render as-is.
// Two Errors match under errors.Is when their codes match.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

const (
	CodeDuplicateEmail         = "DUPLICATE_USER_EMAIL"
	CodeInvalidCredentials     = "INVALID_CREDENTIALS"
	CodeAuthenticationRequired = "AUTHENTICATION_REQUIRED"
	CodeInvalidToken           = "INVALID_TOKEN"
	CodeUserNotFound           = "USER_NOT_FOUND"
	CodeUnauthorizedUpdate     = "UNAUTHORIZED_USER_UPDATE"
	CodeValidation             = "VALIDATION_ERROR"
	CodeInternal               = "INTERNAL_SERVER_ERROR"
)

var (
	ErrDuplicateEmail         = &Error{Code: CodeDuplicateEmail, Message: "User with this email already exists"}
	ErrInvalidCredentials     = &Error{Code: CodeInvalidCredentials, Message: "Invalid email or password"}
	ErrAuthenticationRequired = &Error{Code: CodeAuthenticationRequired, Message: "Not authenticated"}
	ErrInvalidToken           = &Error{Code: CodeInvalidToken, Message: "Invalid or expired token"}
	ErrUserNotFound           = &Error{Code: CodeUserNotFound, Message: "User not found"}
	ErrUnauthorizedUpdate     = &Error{Code: CodeUnauthorizedUpdate, Message: "You can only update your own user information."}
)

func duplicateEmail(email string) error {
	return &Error{Code: CodeDuplicateEmail, Message: fmt.Sprintf("User with email %s already exists", email)}
}

func userNotFound(id uint) error {
	return &Error{Code: CodeUserNotFound, Message: fmt.Sprintf("User with ID %d not found", id)}
}
