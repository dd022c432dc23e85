package apperrors

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrEntityNotFound       = errors.New("entity not found")
	ErrInvalidDomain        = errors.New("invalid domain")
	ErrInvalidKind          = errors.New("invalid value kind")
	ErrUnknownAttribute     = errors.New("unknown attribute")
	ErrKindConflict         = errors.New("attribute already defined with a different kind")
	ErrKindMismatch         = errors.New("value kind does not match attribute definition")
	ErrArrayIndexRequired   = errors.New("array index required for array attribute")
	ErrArrayIndexNotAllowed = errors.New("array index not allowed for scalar attribute")
	ErrDanglingReference    = errors.New("reference target entity no longer exists")
)
