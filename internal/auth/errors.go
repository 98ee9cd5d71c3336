package auth

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCredentials covers every bad username/role/password combination.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnknownAccount is returned when no user matches both username and role.
	ErrUnknownAccount = fmt.Errorf("%w: invalid username or role", ErrInvalidCredentials)
	// ErrWrongPassword is returned when the stored secret does not match.
	ErrWrongPassword = fmt.Errorf("%w: invalid password", ErrInvalidCredentials)
	// ErrUsernameTaken is returned by registration and admin creation on collision.
	ErrUsernameTaken = errors.New("username already exists")
)
