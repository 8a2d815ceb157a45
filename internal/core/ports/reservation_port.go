package ports

import (
	"context"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/google/uuid"
)

type ReservationRepository interface {
	// CreateIfAvailable inserts the reservation only if no active reservation
	// for the same vehicle overlaps its half-open date range. The overlap
	// check and the insert run in one transaction under a vehicle-scoped
	// advisory lock; an overlap returns domain.ErrConflict.
	CreateIfAvailable(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error)
	// ActivateIfAvailable re-runs the conflict check under the same lock and
	// flips the reservation to active. Used at payment time, where a pending
	// reservation may have lost its dates to a faster payer.
	ActivateIfAvailable(ctx context.Context, reservation_id uuid.UUID) (*domain.Reservation, error)
	GetReservationByID(ctx context.Context, reservation_id uuid.UUID) (*domain.Reservation, error)
	GetReservationsByUserID(ctx context.Context, user_id uuid.UUID) ([]*domain.Reservation, error)
	UpdateStatus(ctx context.Context, reservation_id uuid.UUID, from, to domain.Status) (*domain.Reservation, error)
	// ListActiveRanges returns the booked ranges of active reservations for
	// the vehicle, ordered by start date.
	ListActiveRanges(ctx context.Context, vehicle_id uuid.UUID) ([]domain.DateRange, error)
	// SweepExpired completes the user's active reservations whose end date is
	// before today and reports how many rows changed. Safe to run redundantly.
	SweepExpired(ctx context.Context, user_id uuid.UUID, today time.Time) (int, error)
	GetUserStats(ctx context.Context, user_id uuid.UUID) (*domain.UserStats, error)
}

type ReservationService interface {
	CreateReservation(ctx context.Context, user_id uuid.UUID, vehicle_id, pickup string, start, end time.Time) (*domain.Reservation, error)
	PayReservation(ctx context.Context, reservation_id string, user_id uuid.UUID, card domain.CardDetails) (*domain.Reservation, error)
	CompleteOrCancel(ctx context.Context, reservation_id string, user_id uuid.UUID, action domain.ReservationAction) (*domain.Reservation, error)
	ListMyReservations(ctx context.Context, user_id uuid.UUID) ([]*domain.Reservation, int, error)
	ListBookedRanges(ctx context.Context, vehicle_id string) ([]domain.DateRange, error)
	GetMyStats(ctx context.Context, user_id uuid.UUID) (*domain.UserStats, error)
}
