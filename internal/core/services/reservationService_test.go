package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var goodCard = domain.CardDetails{
	CardNumber: "4242424242424242",
	Expiry:     "12/30",
	CVV:        "123",
}

func newReservationFixture(t *testing.T) (*ReservationService, *memoryReservationRepo, *domain.Vehicle) {
	t.Helper()

	vehicleRepo := &memoryVehicleRepo{}
	vehicle, err := vehicleRepo.CreateVehicle(context.Background(), &domain.Vehicle{
		VehicleID:    uuid.New(),
		Name:         "City Hatch",
		Category:     domain.Car,
		PriceCents:   2500,
		Seats:        4,
		FuelType:     domain.Petrol,
		Transmission: domain.Automatic,
	})
	if err != nil {
		t.Fatalf("seed vehicle: %v", err)
	}

	reservationRepo := newMemoryReservationRepo()
	svc := NewReservationService(reservationRepo, vehicleRepo, fakeGateway{}, nopLogger{}, validator.New())
	svc.now = func() time.Time { return day(2024, 6, 1) }

	return svc, reservationRepo, vehicle
}

func mustCreate(t *testing.T, svc *ReservationService, userID uuid.UUID, vehicleID string, start, end time.Time) *domain.Reservation {
	t.Helper()
	created, err := svc.CreateReservation(context.Background(), userID, vehicleID, "downtown", start, end)
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	return created
}

func TestCreateReservation(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)
	userID := uuid.New()

	created := mustCreate(t, svc, userID, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	if created.Status != domain.StatusPendingPayment {
		t.Fatalf("expected pending_payment, got %s", created.Status)
	}
	// total comes from the vehicle's price, 4 nights at 25.00
	if created.TotalCents != 10000 {
		t.Fatalf("expected total 10000 cents, got %d", created.TotalCents)
	}
	if created.PickupLocation != "Downtown" {
		t.Fatalf("expected normalized pickup, got %q", created.PickupLocation)
	}
}

func TestCreateReservationInvalidRange(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	cases := []struct {
		name       string
		start, end time.Time
	}{
		{"inverted", day(2024, 6, 10), day(2024, 6, 5)},
		{"zero nights", day(2024, 6, 5), day(2024, 6, 5)},
		{"past start", day(2024, 5, 20), day(2024, 6, 5)},
	}
	for _, tc := range cases {
		if _, err := svc.CreateReservation(ctx, userID, vehicle.VehicleID.String(), "downtown", tc.start, tc.end); !errors.Is(err, domain.ErrInvalidRange) {
			t.Fatalf("%s: expected ErrInvalidRange, got %v", tc.name, err)
		}
	}
	if len(repo.reservations) != 0 {
		t.Fatalf("rejected requests must not leave reservations behind, found %d", len(repo.reservations))
	}
}

func TestCreateReservationConflictsWithActive(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	ctx := context.Background()

	if _, err := repo.CreateIfAvailable(ctx, &domain.Reservation{
		ReservationID:  uuid.New(),
		UserID:         uuid.New(),
		VehicleID:      vehicle.VehicleID,
		StartDate:      day(2024, 6, 3),
		EndDate:        day(2024, 6, 8),
		Status:         domain.StatusActive,
		PickupLocation: "Downtown",
	}); err != nil {
		t.Fatalf("seed active reservation: %v", err)
	}

	if _, err := svc.CreateReservation(ctx, uuid.New(), vehicle.VehicleID.String(), "downtown", day(2024, 6, 5), day(2024, 6, 10)); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for overlapping range, got %v", err)
	}

	// a rental starting the day the active one ends is allowed
	mustCreate(t, svc, uuid.New(), vehicle.VehicleID.String(), day(2024, 6, 8), day(2024, 6, 12))
}

func TestPendingReservationsDoNotBlock(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)

	mustCreate(t, svc, uuid.New(), vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))
	// a second user can hold a pending reservation for the same dates
	mustCreate(t, svc, uuid.New(), vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))
}

func TestPayReservationActivates(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	created := mustCreate(t, svc, userID, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	activated, err := svc.PayReservation(ctx, created.ReservationID.String(), userID, goodCard)
	if err != nil {
		t.Fatalf("PayReservation: %v", err)
	}
	if activated.Status != domain.StatusActive {
		t.Fatalf("expected active, got %s", activated.Status)
	}

	// paying an already active reservation is an invalid transition
	if _, err := svc.PayReservation(ctx, created.ReservationID.String(), userID, goodCard); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestPayReservationDeclineIsRecorded(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	created := mustCreate(t, svc, userID, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	badCard := goodCard
	badCard.CVV = "999"
	failed, err := svc.PayReservation(ctx, created.ReservationID.String(), userID, badCard)
	if !errors.Is(err, domain.ErrPaymentDeclined) {
		t.Fatalf("expected ErrPaymentDeclined, got %v", err)
	}
	if failed.Status != domain.StatusPaymentFailed {
		t.Fatalf("expected payment_failed on returned reservation, got %s", failed.Status)
	}

	stored, err := repo.GetReservationByID(ctx, created.ReservationID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if stored.Status != domain.StatusPaymentFailed {
		t.Fatalf("decline must be persisted, stored status is %s", stored.Status)
	}

	// a failed payment can be retried
	activated, err := svc.PayReservation(ctx, created.ReservationID.String(), userID, goodCard)
	if err != nil {
		t.Fatalf("retry after decline: %v", err)
	}
	if activated.Status != domain.StatusActive {
		t.Fatalf("expected active after retry, got %s", activated.Status)
	}
}

func TestPayReservationForeignUser(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)
	owner := uuid.New()

	created := mustCreate(t, svc, owner, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	if _, err := svc.PayReservation(context.Background(), created.ReservationID.String(), uuid.New(), goodCard); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestPayReservationLastPaymentWins(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	ctx := context.Background()
	first, second := uuid.New(), uuid.New()

	a := mustCreate(t, svc, first, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))
	b := mustCreate(t, svc, second, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	if _, err := svc.PayReservation(ctx, a.ReservationID.String(), first, goodCard); err != nil {
		t.Fatalf("first payment: %v", err)
	}

	// the dates are gone by the time the second user pays
	if _, err := svc.PayReservation(ctx, b.ReservationID.String(), second, goodCard); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict for second payer, got %v", err)
	}

	stored, err := repo.GetReservationByID(ctx, b.ReservationID)
	if err != nil {
		t.Fatalf("GetReservationByID: %v", err)
	}
	if stored.Status != domain.StatusPendingPayment {
		t.Fatalf("losing reservation must stay pending, got %s", stored.Status)
	}
}

func TestCompleteOrCancel(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	created := mustCreate(t, svc, userID, vehicle.VehicleID.String(), day(2024, 6, 1), day(2024, 6, 5))

	// cancelling an unpaid reservation is not part of the lifecycle
	if _, err := svc.CompleteOrCancel(ctx, created.ReservationID.String(), userID, domain.ActionCancel); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition for pending cancel, got %v", err)
	}

	if _, err := svc.PayReservation(ctx, created.ReservationID.String(), userID, goodCard); err != nil {
		t.Fatalf("PayReservation: %v", err)
	}

	if _, err := svc.CompleteOrCancel(ctx, created.ReservationID.String(), uuid.New(), domain.ActionCancel); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden for foreign user, got %v", err)
	}

	cancelled, err := svc.CompleteOrCancel(ctx, created.ReservationID.String(), userID, domain.ActionCancel)
	if err != nil {
		t.Fatalf("CompleteOrCancel: %v", err)
	}
	if cancelled.Status != domain.StatusCancelled {
		t.Fatalf("expected cancelled, got %s", cancelled.Status)
	}

	// cancelled is terminal
	if _, err := svc.CompleteOrCancel(ctx, created.ReservationID.String(), userID, domain.ActionComplete); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition on terminal state, got %v", err)
	}
}

func TestListMyReservationsSweepsExpired(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	// active rental that ended before today (2024-06-01)
	if _, err := repo.CreateIfAvailable(ctx, &domain.Reservation{
		ReservationID:  uuid.New(),
		UserID:         userID,
		VehicleID:      vehicle.VehicleID,
		StartDate:      day(2024, 5, 20),
		EndDate:        day(2024, 5, 25),
		Status:         domain.StatusActive,
		PickupLocation: "Downtown",
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	reservations, swept, err := svc.ListMyReservations(ctx, userID)
	if err != nil {
		t.Fatalf("ListMyReservations: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept reservation, got %d", swept)
	}
	if len(reservations) != 1 || reservations[0].Status != domain.StatusCompleted {
		t.Fatalf("expected the expired rental to read back completed, got %+v", reservations)
	}

	// the sweep is idempotent
	_, swept, err = svc.ListMyReservations(ctx, userID)
	if err != nil {
		t.Fatalf("ListMyReservations: %v", err)
	}
	if swept != 0 {
		t.Fatalf("second sweep must be a no-op, got %d", swept)
	}
}

func TestGetMyStats(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	userID := uuid.New()
	ctx := context.Background()

	seed := []struct {
		status     domain.Status
		start, end time.Time
		total      int64
	}{
		{domain.StatusCompleted, day(2024, 5, 1), day(2024, 5, 3), 5000},
		{domain.StatusActive, day(2024, 6, 2), day(2024, 6, 4), 5000},
		{domain.StatusPendingPayment, day(2024, 6, 10), day(2024, 6, 12), 5000},
	}
	for _, s := range seed {
		if _, err := repo.CreateIfAvailable(ctx, &domain.Reservation{
			ReservationID:  uuid.New(),
			UserID:         userID,
			VehicleID:      vehicle.VehicleID,
			StartDate:      s.start,
			EndDate:        s.end,
			Status:         s.status,
			TotalCents:     s.total,
			PickupLocation: "Downtown",
		}); err != nil {
			t.Fatalf("seed reservation: %v", err)
		}
	}

	stats, err := svc.GetMyStats(ctx, userID)
	if err != nil {
		t.Fatalf("GetMyStats: %v", err)
	}
	if stats.TotalRentals != 3 || stats.ActiveRentals != 1 || stats.PendingRentals != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if stats.TotalSpentCents != 5000 {
		t.Fatalf("expected 5000 cents spent, got %d", stats.TotalSpentCents)
	}
}

// TestConcurrentBookingSingleWinner drives the full book-then-pay flow from
// many goroutines over the same vehicle and fully overlapping dates. The
// repository serializes the conflict check with the write, so exactly one
// flow ends with an active reservation and the rest get ErrConflict.
func TestConcurrentBookingSingleWinner(t *testing.T) {
	svc, _, vehicle := newReservationFixture(t)
	ctx := context.Background()

	const workers = 16
	var wg sync.WaitGroup
	results := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			userID := uuid.New()
			created, err := svc.CreateReservation(ctx, userID, vehicle.VehicleID.String(), "downtown", day(2024, 6, 1), day(2024, 6, 5))
			if err != nil {
				results <- err
				return
			}
			_, err = svc.PayReservation(ctx, created.ReservationID.String(), userID, goodCard)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if wins != 1 {
		t.Fatalf("expected exactly one active reservation, got %d", wins)
	}
	if conflicts != workers-1 {
		t.Fatalf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}

func TestListBookedRanges(t *testing.T) {
	svc, repo, vehicle := newReservationFixture(t)
	ctx := context.Background()
	userID := uuid.New()

	if _, err := repo.CreateIfAvailable(ctx, &domain.Reservation{
		ReservationID:  uuid.New(),
		UserID:         userID,
		VehicleID:      vehicle.VehicleID,
		StartDate:      day(2024, 6, 10),
		EndDate:        day(2024, 6, 12),
		Status:         domain.StatusActive,
		PickupLocation: "Downtown",
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}
	// pending reservations do not occupy dates
	if _, err := repo.CreateIfAvailable(ctx, &domain.Reservation{
		ReservationID:  uuid.New(),
		UserID:         userID,
		VehicleID:      vehicle.VehicleID,
		StartDate:      day(2024, 6, 20),
		EndDate:        day(2024, 6, 22),
		Status:         domain.StatusPendingPayment,
		PickupLocation: "Downtown",
	}); err != nil {
		t.Fatalf("seed reservation: %v", err)
	}

	ranges, err := svc.ListBookedRanges(ctx, vehicle.VehicleID.String())
	if err != nil {
		t.Fatalf("ListBookedRanges: %v", err)
	}
	if len(ranges) != 1 {
		t.Fatalf("expected 1 booked range, got %d", len(ranges))
	}
	if !ranges[0].StartDate.Equal(day(2024, 6, 10)) {
		t.Fatalf("unexpected range start: %v", ranges[0].StartDate)
	}
}
