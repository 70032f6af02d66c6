package domain

import "errors"

var (
	ErrInvalidID         = errors.New("invalid id")
	ErrInvalidType       = errors.New("invalid operation type")
	ErrInvalidTargetID   = errors.New("invalid target id")
	ErrInvalidTargetType = errors.New("invalid target type")
	ErrInvalidVersion    = errors.New("invalid version")
	ErrMissingClock      = errors.New("missing vector clock")
	ErrMissingServerID   = errors.New("missing server id")
)
