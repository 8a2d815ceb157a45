package domain

import (
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status is the reservation lifecycle state (persisted as a string).
type Status string

const (
	StatusPendingPayment Status = "pending_payment"
	StatusPaymentFailed  Status = "payment_failed"
	StatusActive         Status = "active"
	StatusCompleted      Status = "completed"
	StatusCancelled      Status = "cancelled"
)

// AllowedTransitions configures the reservation state machine as a directed graph.
// completed and cancelled are terminal.
var AllowedTransitions = map[Status][]Status{
	StatusPendingPayment: {StatusActive, StatusPaymentFailed},
	StatusPaymentFailed:  {StatusActive, StatusPaymentFailed},
	StatusActive:         {StatusCompleted, StatusCancelled},
	StatusCompleted:      {},
	StatusCancelled:      {},
}

// CanTransition reports whether from -> to is an allowed status change.
func CanTransition(from, to Status) bool {
	allowed, ok := AllowedTransitions[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

type Reservation struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	UserID         uuid.UUID `json:"user_id" validate:"required"`
	VehicleID      uuid.UUID `json:"vehicle_id" validate:"required"`
	StartDate      time.Time `json:"start_date" validate:"required"`
	EndDate        time.Time `json:"end_date" validate:"required"`
	Status         Status    `json:"status"`
	TotalCents     int64     `json:"total_cents"`
	PickupLocation string    `json:"pickup_location" validate:"required,max=100"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Apply moves the reservation to a new status, rejecting anything the
// transition graph does not allow.
func (r *Reservation) Apply(to Status) error {
	if !CanTransition(r.Status, to) {
		return ErrInvalidTransition
	}
	r.Status = to
	return nil
}

// DateRange is a half-open [start, end) booking interval.
type DateRange struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// Overlaps applies the half-open interval rule: [aStart, aEnd) and
// [bStart, bEnd) overlap iff aStart < bEnd && aEnd > bStart. A rental ending
// on day D and one starting on day D do not conflict.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// Nights is the whole-day length of [start, end).
func Nights(start, end time.Time) int {
	return int(end.Sub(start) / (24 * time.Hour))
}

// Cost computes the rental total in cents. The total is always recomputed
// server-side; client-supplied amounts are never trusted.
func Cost(priceCents int64, start, end time.Time) (int64, error) {
	nights := Nights(start, end)
	if nights <= 0 {
		return 0, ErrInvalidRange
	}
	return priceCents * int64(nights), nil
}

// ValidateRange rejects empty or inverted ranges and start dates in the past.
func ValidateRange(start, end, today time.Time) error {
	if Nights(start, end) <= 0 {
		return ErrInvalidRange
	}
	if start.Before(today) {
		return ErrInvalidRange
	}
	return nil
}

// NormalizePickup capitalizes the free-text pickup location. The first rune
// is decoded as UTF-8 so non-ASCII locations survive intact.
func NormalizePickup(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ReservationAction is a user-requested terminal transition on an active
// reservation.
type ReservationAction string

const (
	ActionComplete ReservationAction = "complete"
	ActionCancel   ReservationAction = "cancel"
)

// UserStats aggregates a user's rental history for the dashboard.
type UserStats struct {
	TotalRentals    int    `json:"total_rentals"`
	ActiveRentals   int    `json:"active_rentals"`
	PendingRentals  int    `json:"pending_rentals"`
	TotalSpentCents int64  `json:"total_spent_cents"`
	FavoriteType    string `json:"favorite_type"`
}
