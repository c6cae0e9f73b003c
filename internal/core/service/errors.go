package service

import "errors"

var (
	ErrNotFound    = errors.New("item not found")
	ErrStorage     = errors.New("storage unavailable")
	ErrAuditLog    = errors.New("audit log append failed")
	ErrInvalidItem = errors.New("invalid item")
	ErrConflict    = errors.New("too many concurrent updates")
)
