package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

type ReservationService struct {
	reservationRepo ports.ReservationRepository
	vehicleRepo     ports.VehicleRepository
	gateway         ports.PaymentGateway
	logger          ports.LoggerPort
	validate        *validator.Validate
	now             func() time.Time
}

func NewReservationService(
	reservationRepo ports.ReservationRepository,
	vehicleRepo ports.VehicleRepository,
	gateway ports.PaymentGateway,
	logger ports.LoggerPort,
	validate *validator.Validate,
) *ReservationService {
	return &ReservationService{
		reservationRepo: reservationRepo,
		vehicleRepo:     vehicleRepo,
		gateway:         gateway,
		logger:          logger,
		validate:        validate,
		now:             time.Now,
	}
}

// today returns the current date at midnight UTC, the granularity all
// reservation ranges are kept in.
func (s *ReservationService) today() time.Time {
	y, m, d := s.now().UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateReservation books the vehicle for [start, end) in pending_payment
// status. The total is recomputed from the vehicle's current daily price;
// whatever total the client may have displayed is ignored.
func (s *ReservationService) CreateReservation(ctx context.Context, userID uuid.UUID, vehicleID, pickup string, start, end time.Time) (*domain.Reservation, error) {
	vehicleUUID, err := uuid.Parse(vehicleID)
	if err != nil {
		s.logger.Error("Invalid UUID format", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}

	if err := domain.ValidateRange(start, end, s.today()); err != nil {
		return nil, err
	}

	vehicle, err := s.vehicleRepo.GetVehicleByID(ctx, vehicleUUID)
	if err != nil {
		s.logger.Error("Failed to get vehicle", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		return nil, err
	}

	totalCents, err := domain.Cost(vehicle.PriceCents, start, end)
	if err != nil {
		return nil, err
	}

	reservation := &domain.Reservation{
		ReservationID:  uuid.New(),
		UserID:         userID,
		VehicleID:      vehicle.VehicleID,
		StartDate:      start,
		EndDate:        end,
		Status:         domain.StatusPendingPayment,
		TotalCents:     totalCents,
		PickupLocation: domain.NormalizePickup(pickup),
	}

	if err := s.validate.Struct(reservation); err != nil {
		s.logger.Error("Reservation validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("validation error: %w", err)
	}

	created, err := s.reservationRepo.CreateIfAvailable(ctx, reservation)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Info("Reservation rejected, dates already booked", map[string]interface{}{
				"vehicle_id": vehicleID,
				"user_id":    userID,
			})
			return nil, err
		}
		s.logger.Error("Failed to create reservation", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
			"user_id":    userID,
		})
		return nil, err
	}

	s.logger.Info("Reservation created", map[string]interface{}{
		"reservation_id": created.ReservationID,
		"vehicle_id":     created.VehicleID,
		"user_id":        created.UserID,
		"total_cents":    created.TotalCents,
	})

	return created, nil
}

// PayReservation runs the payment attempt for a pending or previously failed
// reservation. A gateway decline is a recorded outcome: the reservation is
// moved to payment_failed and ErrPaymentDeclined reported, nothing is rolled
// back. On acceptance the conflict check is re-applied atomically; a pending
// reservation can lose its dates to a faster payer, in which case the second
// payer gets ErrConflict and the reservation is left for manual follow-up.
func (s *ReservationService) PayReservation(ctx context.Context, reservationID string, userID uuid.UUID, card domain.CardDetails) (*domain.Reservation, error) {
	reservationUUID, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID: %w", err)
	}

	reservation, err := s.reservationRepo.GetReservationByID(ctx, reservationUUID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		s.logger.Warn("Payment attempt on foreign reservation", map[string]interface{}{
			"reservation_id": reservationID,
			"owner_id":       reservation.UserID,
			"requester_id":   userID,
		})
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(reservation.Status, domain.StatusActive) {
		return nil, domain.ErrInvalidTransition
	}

	if err := s.validate.Struct(card); err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	if err := s.gateway.Charge(ctx, card, reservation.TotalCents); err != nil {
		if errors.Is(err, domain.ErrPaymentDeclined) {
			failed, updErr := s.reservationRepo.UpdateStatus(ctx, reservationUUID, reservation.Status, domain.StatusPaymentFailed)
			if updErr != nil {
				s.logger.Error("Failed to record declined payment", map[string]interface{}{
					"error":          updErr.Error(),
					"reservation_id": reservationID,
				})
				return nil, updErr
			}
			s.logger.Info("Payment declined", map[string]interface{}{
				"reservation_id": reservationID,
				"user_id":        userID,
			})
			return failed, domain.ErrPaymentDeclined
		}
		s.logger.Error("Payment gateway error", map[string]interface{}{
			"error":          err.Error(),
			"reservation_id": reservationID,
		})
		return nil, err
	}

	activated, err := s.reservationRepo.ActivateIfAvailable(ctx, reservationUUID)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			s.logger.Warn("Activation lost the dates to a concurrent booking", map[string]interface{}{
				"reservation_id": reservationID,
				"user_id":        userID,
			})
		}
		return nil, err
	}

	s.logger.Info("Reservation activated", map[string]interface{}{
		"reservation_id": reservationID,
		"user_id":        userID,
	})

	return activated, nil
}

// CompleteOrCancel applies a user-requested terminal transition. Only the
// owner may act, and only an active reservation can be completed or
// cancelled.
func (s *ReservationService) CompleteOrCancel(ctx context.Context, reservationID string, userID uuid.UUID, action domain.ReservationAction) (*domain.Reservation, error) {
	reservationUUID, err := uuid.Parse(reservationID)
	if err != nil {
		return nil, fmt.Errorf("invalid reservation ID: %w", err)
	}

	var to domain.Status
	switch action {
	case domain.ActionComplete:
		to = domain.StatusCompleted
	case domain.ActionCancel:
		to = domain.StatusCancelled
	default:
		return nil, domain.ErrInvalidTransition
	}

	reservation, err := s.reservationRepo.GetReservationByID(ctx, reservationUUID)
	if err != nil {
		return nil, err
	}
	if reservation.UserID != userID {
		s.logger.Warn("Status change attempt on foreign reservation", map[string]interface{}{
			"reservation_id": reservationID,
			"owner_id":       reservation.UserID,
			"requester_id":   userID,
		})
		return nil, domain.ErrForbidden
	}
	if !domain.CanTransition(reservation.Status, to) {
		return nil, domain.ErrInvalidTransition
	}

	updated, err := s.reservationRepo.UpdateStatus(ctx, reservationUUID, domain.StatusActive, to)
	if err != nil {
		s.logger.Error("Failed to update reservation status", map[string]interface{}{
			"error":          err.Error(),
			"reservation_id": reservationID,
			"to":             string(to),
		})
		return nil, err
	}

	s.logger.Info("Reservation status changed", map[string]interface{}{
		"reservation_id": reservationID,
		"user_id":        userID,
		"status":         string(updated.Status),
	})

	return updated, nil
}

// ListMyReservations returns the user's reservations, newest rental first.
// The expiry sweep runs opportunistically before the read, so an expired
// active reservation is already completed by the time the user sees it.
// The swept count is returned alongside the listing.
func (s *ReservationService) ListMyReservations(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, int, error) {
	swept, err := s.reservationRepo.SweepExpired(ctx, userID, s.today())
	if err != nil {
		s.logger.Error("Expiry sweep failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, 0, err
	}
	if swept > 0 {
		s.logger.Info("Expired reservations completed", map[string]interface{}{
			"user_id": userID,
			"count":   swept,
		})
	}

	reservations, err := s.reservationRepo.GetReservationsByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to list reservations", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, 0, err
	}

	return reservations, swept, nil
}

// ListBookedRanges exposes the occupied spans of a vehicle so date pickers
// can grey them out. Only active reservations occupy dates.
func (s *ReservationService) ListBookedRanges(ctx context.Context, vehicleID string) ([]domain.DateRange, error) {
	vehicleUUID, err := uuid.Parse(vehicleID)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}

	ranges, err := s.reservationRepo.ListActiveRanges(ctx, vehicleUUID)
	if err != nil {
		s.logger.Error("Failed to list booked ranges", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		return nil, err
	}

	return ranges, nil
}

// GetMyStats aggregates the dashboard numbers after running the sweep, so
// the active/completed split is current.
func (s *ReservationService) GetMyStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	if _, err := s.reservationRepo.SweepExpired(ctx, userID, s.today()); err != nil {
		s.logger.Error("Expiry sweep failed", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	stats, err := s.reservationRepo.GetUserStats(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to get user stats", map[string]interface{}{
			"error":   err.Error(),
			"user_id": userID,
		})
		return nil, err
	}

	return stats, nil
}
