package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidDate       = errors.New("invalid date")
	ErrCommandNotAllowed = errors.New("command not allowed")
)
