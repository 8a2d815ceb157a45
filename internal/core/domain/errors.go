package domain

import "errors"

// Sentinel errors for the reservation core. Adapters wrap these with context
// and the HTTP layer maps them to status codes with errors.Is.
var (
	ErrInvalidRange      = errors.New("invalid date range")
	ErrConflict          = errors.New("vehicle already booked for these dates")
	ErrNotFound          = errors.New("not found")
	ErrForbidden         = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPaymentDeclined   = errors.New("payment declined")

	ErrEmailTaken         = errors.New("email already registered")
	ErrPhoneTaken         = errors.New("phone already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidOTP         = errors.New("invalid or expired code")
)
