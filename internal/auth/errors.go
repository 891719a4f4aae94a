// internal/auth/errors.go
package auth

import "errors"

// Validation outcomes. Each maps to one stable message through Message.
var (
	ErrFieldsRequired           = errors.New("all fields are required")
	ErrPasswordMismatch         = errors.New("passwords do not match")
	ErrPasswordTooShort         = errors.New("password too short")
	ErrUsernameTaken            = errors.New("username already exists")
	ErrEmailTaken               = errors.New("email already exists")
	ErrCredentialsRequired      = errors.New("username and password are required")
	ErrUnknownUsername          = errors.New("username does not exist")
	ErrIncorrectPassword        = errors.New("incorrect password")
	ErrIncorrectCurrentPassword = errors.New("incorrect current password")
	ErrPasswordUnchanged        = errors.New("new password equals current password")
)

// ErrUserNotFound means the session points at a deleted account.
var ErrUserNotFound = errors.New("user not found")

var messages = map[error]string{
	ErrFieldsRequired:           "All fields are required.",
	ErrPasswordMismatch:         "Passwords do not match.",
	ErrPasswordTooShort:         "Password too short.",
	ErrUsernameTaken:            "Username already exists.",
	ErrEmailTaken:               "Email already exists.",
	ErrCredentialsRequired:      "Username and password are required.",
	ErrUnknownUsername:          "Username does not exist.",
	ErrIncorrectPassword:        "Incorrect password.",
	ErrIncorrectCurrentPassword: "Incorrect current password.",
	ErrPasswordUnchanged:        "New password cannot be the same as current password.",
}

// IsValidation reports whether err is a user-correctable form error rather
// than a storage failure.
func IsValidation(err error) bool {
	for target := range messages {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// Message returns the text shown on the form for a validation error.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return ""
}
