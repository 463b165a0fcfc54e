package schedules

import "errors"

// Rule failures. Each maps to one HTTP status in the handlers; nothing is
// retried and none of these abort the process.
var (
	ErrMissingField        = errors.New("missing required fields")
	ErrRoleAlreadyAssigned = errors.New("role already assigned for this date")
	ErrDateConflict        = errors.New("another schedule already uses this date")
	ErrNotBookable         = errors.New("slot is not bookable")
	ErrNotFound            = errors.New("schedule not found")
	ErrNotBooked           = errors.New("slot has no booking")
	ErrHasBooking          = errors.New("slot has an active booking")
	ErrInvalidIdentifier   = errors.New("invalid id format")
)
