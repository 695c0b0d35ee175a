package domain

import "errors"

var (
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidPresence    = errors.New("invalid presence status")
	ErrIdentityIncomplete = errors.New("connection identity incomplete")
)
