package domain

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrGroupNotFound   = errors.New("group not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateTitle  = errors.New("group title already exists")
	ErrNotInGroup      = errors.New("user not in group")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrSessionInvalid  = errors.New("session user no longer exists")
	ErrInvalidInput    = errors.New("invalid input")
	ErrTooManyRequests = errors.New("too many requests")
)
