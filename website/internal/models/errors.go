package models

import (
	"errors"
)

var (
	ErrNoRecord = errors.New("models: no matching record found")

	// ErrInvalidCredentials is returned when a login email or password is wrong.
	ErrInvalidCredentials = errors.New("models: invalid credentials")

	// ErrDuplicateEmail is returned when signing up with an email that is taken.
	ErrDuplicateEmail = errors.New("models: duplicate email")
)
