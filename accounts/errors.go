package accounts

import "errors"

// Verification failures carry distinct messages on purpose, matching what
// operators expect to see, while the hash comparison itself stays constant
// time so the distinction never leaks through timing.
var (
	ErrEmptyCredentials = errors.New("username and password must not be empty")
	ErrUsernameTooShort = errors.New("username must have at least 3 characters")
	ErrPasswordTooShort = errors.New("password must have at least 6 characters")
	ErrAccountExists    = errors.New("username already taken")
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountDisabled  = errors.New("account disabled")
	ErrPasswordMismatch = errors.New("incorrect password")
)
