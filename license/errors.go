package license

import "errors"

var (
	ErrNotLicensed      = errors.New("no license file found")
	ErrUsernameMismatch = errors.New("username does not match the license")
	ErrPasswordMismatch = errors.New("incorrect password")
	ErrAccountNotFound  = errors.New("account not found")
	ErrAccountDisabled  = errors.New("account disabled")
	ErrInvalidSnapshot  = errors.New("account data is invalid")
)
