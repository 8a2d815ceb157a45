package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const reservationColumns = `reservation_id, user_id, vehicle_id, start_date, end_date, status, total_cents, pickup_location, created_at, updated_at`

type ReservationRepository struct {
	db *sql.DB
}

func NewReservationRepository(db *sql.DB) *ReservationRepository {
	return &ReservationRepository{
		db,
	}
}

// lockVehicle takes a transaction-scoped advisory lock keyed on the vehicle
// id. Every conflict-check-then-write sequence for a vehicle runs under this
// lock, so two concurrent bookings cannot both pass the overlap check.
func lockVehicle(ctx context.Context, tx *sql.Tx, vehicleID uuid.UUID) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, vehicleID.String())
	if err != nil {
		return fmt.Errorf("failed to lock vehicle: %w", err)
	}
	return nil
}

// hasActiveOverlap applies the half-open interval rule against active
// reservations: [start, end) conflicts with [s, e) iff s < end AND e > start.
// Back-to-back rentals (end == next start) pass.
func hasActiveOverlap(ctx context.Context, tx *sql.Tx, vehicleID uuid.UUID, start, end time.Time, exclude uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (
		SELECT 1 FROM reservations
		WHERE vehicle_id = $1
		  AND status = 'active'
		  AND reservation_id <> $2
		  AND start_date < $4
		  AND end_date > $3
	)`

	var exists bool
	err := tx.QueryRowContext(ctx, query, vehicleID, exclude, start, end).Scan(&exists)
	if err != nil {
		return false, err
	}
	return exists, nil
}

func (r *ReservationRepository) CreateIfAvailable(ctx context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if err := lockVehicle(ctx, tx, reservation.VehicleID); err != nil {
		return nil, err
	}

	conflict, err := hasActiveOverlap(ctx, tx, reservation.VehicleID, reservation.StartDate, reservation.EndDate, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.ErrConflict
	}

	query := `INSERT INTO reservations (reservation_id, user_id, vehicle_id, start_date, end_date, status, total_cents, pickup_location)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING reservation_id, created_at, updated_at`

	err = tx.QueryRowContext(ctx, query,
		reservation.ReservationID,
		reservation.UserID,
		reservation.VehicleID,
		reservation.StartDate,
		reservation.EndDate,
		reservation.Status,
		reservation.TotalCents,
		reservation.PickupLocation,
	).Scan(
		&reservation.ReservationID,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23502":
				return nil, fmt.Errorf("required field is missing")
			case "23503":
				return nil, fmt.Errorf("vehicle or user: %w", domain.ErrNotFound)
			default:
				return nil, err
			}
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reservation, nil
}

// ActivateIfAvailable flips a paid reservation to active, re-running the
// overlap check under the vehicle lock. Two users may hold pending
// reservations for the same dates; the first successful payment wins and the
// second gets ErrConflict here.
func (r *ReservationRepository) ActivateIfAvailable(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	reservation := &domain.Reservation{}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1 FOR UPDATE`
	err = tx.QueryRowContext(ctx, query, reservationID).Scan(
		&reservation.ReservationID,
		&reservation.UserID,
		&reservation.VehicleID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.Status,
		&reservation.TotalCents,
		&reservation.PickupLocation,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	if !domain.CanTransition(reservation.Status, domain.StatusActive) {
		return nil, domain.ErrInvalidTransition
	}

	if err := lockVehicle(ctx, tx, reservation.VehicleID); err != nil {
		return nil, err
	}

	conflict, err := hasActiveOverlap(ctx, tx, reservation.VehicleID, reservation.StartDate, reservation.EndDate, reservation.ReservationID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, domain.ErrConflict
	}

	update := `UPDATE reservations SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE reservation_id = $2
		RETURNING status, updated_at`
	err = tx.QueryRowContext(ctx, update, domain.StatusActive, reservationID).Scan(
		&reservation.Status,
		&reservation.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return reservation, nil
}

func (r *ReservationRepository) GetReservationByID(ctx context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1`

	reservation := &domain.Reservation{}
	err := r.db.QueryRowContext(ctx, query, reservationID).Scan(
		&reservation.ReservationID,
		&reservation.UserID,
		&reservation.VehicleID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.Status,
		&reservation.TotalCents,
		&reservation.PickupLocation,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (r *ReservationRepository) GetReservationsByUserID(ctx context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE user_id = $1 ORDER BY start_date DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reservations []*domain.Reservation

	for rows.Next() {
		reservation := &domain.Reservation{}
		err := rows.Scan(
			&reservation.ReservationID,
			&reservation.UserID,
			&reservation.VehicleID,
			&reservation.StartDate,
			&reservation.EndDate,
			&reservation.Status,
			&reservation.TotalCents,
			&reservation.PickupLocation,
			&reservation.CreatedAt,
			&reservation.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		reservations = append(reservations, reservation)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return reservations, nil
}

// UpdateStatus performs a guarded transition: the row is only updated while
// still in the expected from status, so a racing sweep or payment cannot be
// overwritten. A reservation found in another status reports
// ErrInvalidTransition.
func (r *ReservationRepository) UpdateStatus(ctx context.Context, reservationID uuid.UUID, from, to domain.Status) (*domain.Reservation, error) {
	query := `UPDATE reservations SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE reservation_id = $2 AND status = $3
		RETURNING ` + reservationColumns

	reservation := &domain.Reservation{}
	err := r.db.QueryRowContext(ctx, query, to, reservationID, from).Scan(
		&reservation.ReservationID,
		&reservation.UserID,
		&reservation.VehicleID,
		&reservation.StartDate,
		&reservation.EndDate,
		&reservation.Status,
		&reservation.TotalCents,
		&reservation.PickupLocation,
		&reservation.CreatedAt,
		&reservation.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		var exists bool
		if checkErr := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM reservations WHERE reservation_id = $1)`, reservationID,
		).Scan(&exists); checkErr != nil {
			return nil, checkErr
		}
		if exists {
			return nil, domain.ErrInvalidTransition
		}
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return reservation, nil
}

func (r *ReservationRepository) ListActiveRanges(ctx context.Context, vehicleID uuid.UUID) ([]domain.DateRange, error) {
	query := `SELECT start_date, end_date FROM reservations
		WHERE vehicle_id = $1 AND status = 'active'
		ORDER BY start_date ASC`

	rows, err := r.db.QueryContext(ctx, query, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ranges []domain.DateRange

	for rows.Next() {
		var dr domain.DateRange
		if err := rows.Scan(&dr.StartDate, &dr.EndDate); err != nil {
			return nil, err
		}
		ranges = append(ranges, dr)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return ranges, nil
}

// SweepExpired completes active reservations whose end date has passed.
// Running it twice in a row is a no-op the second time.
func (r *ReservationRepository) SweepExpired(ctx context.Context, userID uuid.UUID, today time.Time) (int, error) {
	query := `UPDATE reservations SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE user_id = $2 AND status = $3 AND end_date < $4`

	result, err := r.db.ExecContext(ctx, query, domain.StatusCompleted, userID, domain.StatusActive, today)
	if err != nil {
		return 0, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(rowsAffected), nil
}

func (r *ReservationRepository) GetUserStats(ctx context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	stats := &domain.UserStats{}

	query := `SELECT
		COUNT(*),
		COUNT(*) FILTER (WHERE status = 'active'),
		COUNT(*) FILTER (WHERE status IN ('pending_payment', 'payment_failed')),
		COALESCE(SUM(total_cents) FILTER (WHERE status = 'completed'), 0)
	FROM reservations WHERE user_id = $1`

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&stats.TotalRentals,
		&stats.ActiveRentals,
		&stats.PendingRentals,
		&stats.TotalSpentCents,
	)
	if err != nil {
		return nil, err
	}

	favorite := `SELECT v.category FROM reservations r
		JOIN vehicles v ON v.vehicle_id = r.vehicle_id
		WHERE r.user_id = $1
		GROUP BY v.category
		ORDER BY COUNT(*) DESC, v.category ASC
		LIMIT 1`

	var category string
	err = r.db.QueryRowContext(ctx, favorite, userID).Scan(&category)
	switch {
	case err == sql.ErrNoRows:
		stats.FavoriteType = "N/A"
	case err != nil:
		return nil, err
	default:
		stats.FavoriteType = domain.NormalizePickup(category)
	}

	return stats, nil
}
