package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/google/uuid"
)

type nopLogger struct{}

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, map[string]interface{}) {}

var errCacheMiss = errors.New("cache miss")

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (c *memoryCache) Get(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (c *memoryCache) Set(key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
	return nil
}

func (c *memoryCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
	return nil
}

func (c *memoryCache) GetDel(key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.items[key]
	if !ok {
		return nil, errCacheMiss
	}
	delete(c.items, key)
	return v, nil
}

type memoryVehicleRepo struct {
	mu       sync.Mutex
	vehicles []*domain.Vehicle
}

func (r *memoryVehicleRepo) CreateVehicle(_ context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := *vehicle
	v.CreatedAt = time.Now()
	r.vehicles = append(r.vehicles, &v)
	return &v, nil
}

func (r *memoryVehicleRepo) GetVehicleByID(_ context.Context, vehicleID uuid.UUID) (*domain.Vehicle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.vehicles {
		if v.VehicleID == vehicleID {
			copied := *v
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("vehicle: %w", domain.ErrNotFound)
}

func (r *memoryVehicleRepo) ListVehicles(_ context.Context, query ports.CatalogQuery, pageSize int) ([]*domain.Vehicle, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*domain.Vehicle
	for _, v := range r.vehicles {
		switch query.Filter {
		case domain.FilterCar:
			if v.Category != domain.Car {
				continue
			}
		case domain.FilterBike:
			if v.Category != domain.Bike {
				continue
			}
		case domain.FilterElectric:
			if v.FuelType != domain.Electric {
				continue
			}
		}
		if query.Search != "" && !strings.Contains(strings.ToLower(v.Name), strings.ToLower(query.Search)) {
			continue
		}
		matched = append(matched, v)
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].Name < matched[j].Name })

	total := len(matched)
	offset := (query.Page - 1) * pageSize
	if offset >= total {
		return nil, total, nil
	}
	end := offset + pageSize
	if end > total {
		end = total
	}
	return matched[offset:end], total, nil
}

func (r *memoryVehicleRepo) DeleteVehicle(_ context.Context, vehicleID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, v := range r.vehicles {
		if v.VehicleID == vehicleID {
			r.vehicles = append(r.vehicles[:i], r.vehicles[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("vehicle: %w", domain.ErrNotFound)
}

// memoryReservationRepo mirrors the conflict semantics of the Postgres
// repository: only active reservations block, the half-open overlap rule
// applies, and the check-then-write sequence runs under one mutex.
type memoryReservationRepo struct {
	mu           sync.Mutex
	reservations map[uuid.UUID]*domain.Reservation
}

func newMemoryReservationRepo() *memoryReservationRepo {
	return &memoryReservationRepo{reservations: make(map[uuid.UUID]*domain.Reservation)}
}

func (r *memoryReservationRepo) overlapsActive(vehicleID uuid.UUID, start, end time.Time, exclude uuid.UUID) bool {
	for _, res := range r.reservations {
		if res.VehicleID != vehicleID || res.Status != domain.StatusActive || res.ReservationID == exclude {
			continue
		}
		if domain.Overlaps(res.StartDate, res.EndDate, start, end) {
			return true
		}
	}
	return false
}

func (r *memoryReservationRepo) CreateIfAvailable(_ context.Context, reservation *domain.Reservation) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapsActive(reservation.VehicleID, reservation.StartDate, reservation.EndDate, uuid.Nil) {
		return nil, domain.ErrConflict
	}

	res := *reservation
	res.CreatedAt = time.Now()
	res.UpdatedAt = res.CreatedAt
	r.reservations[res.ReservationID] = &res
	copied := res
	return &copied, nil
}

func (r *memoryReservationRepo) ActivateIfAvailable(_ context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res, ok := r.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if !domain.CanTransition(res.Status, domain.StatusActive) {
		return nil, domain.ErrInvalidTransition
	}
	if r.overlapsActive(res.VehicleID, res.StartDate, res.EndDate, res.ReservationID) {
		return nil, domain.ErrConflict
	}

	res.Status = domain.StatusActive
	res.UpdatedAt = time.Now()
	copied := *res
	return &copied, nil
}

func (r *memoryReservationRepo) GetReservationByID(_ context.Context, reservationID uuid.UUID) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	copied := *res
	return &copied, nil
}

func (r *memoryReservationRepo) GetReservationsByUserID(_ context.Context, userID uuid.UUID) ([]*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Reservation
	for _, res := range r.reservations {
		if res.UserID == userID {
			copied := *res
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (r *memoryReservationRepo) UpdateStatus(_ context.Context, reservationID uuid.UUID, from, to domain.Status) (*domain.Reservation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res, ok := r.reservations[reservationID]
	if !ok {
		return nil, fmt.Errorf("reservation: %w", domain.ErrNotFound)
	}
	if res.Status != from {
		return nil, domain.ErrInvalidTransition
	}
	res.Status = to
	res.UpdatedAt = time.Now()
	copied := *res
	return &copied, nil
}

func (r *memoryReservationRepo) ListActiveRanges(_ context.Context, vehicleID uuid.UUID) ([]domain.DateRange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ranges []domain.DateRange
	for _, res := range r.reservations {
		if res.VehicleID == vehicleID && res.Status == domain.StatusActive {
			ranges = append(ranges, domain.DateRange{StartDate: res.StartDate, EndDate: res.EndDate})
		}
	}
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].StartDate.Before(ranges[j].StartDate) })
	return ranges, nil
}

func (r *memoryReservationRepo) SweepExpired(_ context.Context, userID uuid.UUID, today time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	swept := 0
	for _, res := range r.reservations {
		if res.UserID == userID && res.Status == domain.StatusActive && res.EndDate.Before(today) {
			res.Status = domain.StatusCompleted
			res.UpdatedAt = time.Now()
			swept++
		}
	}
	return swept, nil
}

func (r *memoryReservationRepo) GetUserStats(_ context.Context, userID uuid.UUID) (*domain.UserStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &domain.UserStats{FavoriteType: "N/A"}
	for _, res := range r.reservations {
		if res.UserID != userID {
			continue
		}
		stats.TotalRentals++
		switch res.Status {
		case domain.StatusActive:
			stats.ActiveRentals++
		case domain.StatusPendingPayment, domain.StatusPaymentFailed:
			stats.PendingRentals++
		case domain.StatusCompleted:
			stats.TotalSpentCents += res.TotalCents
		}
	}
	return stats, nil
}

// fakeGateway declines any card whose CVV is not "123", like the dummy
// processor adapter.
type fakeGateway struct{}

func (fakeGateway) Charge(_ context.Context, card domain.CardDetails, _ int64) error {
	if card.CVV != "123" {
		return domain.ErrPaymentDeclined
	}
	return nil
}

type memoryUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memoryUserRepo) CreateUser(_ context.Context, user *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, user.Email) {
			return nil, domain.ErrEmailTaken
		}
		if user.Phone != "" && u.Phone == user.Phone {
			return nil, domain.ErrPhoneTaken
		}
	}
	u := *user
	r.users[u.UserID] = &u
	copied := u
	return &copied, nil
}

func (r *memoryUserRepo) GetUserByID(_ context.Context, userID uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (r *memoryUserRepo) GetUserByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (r *memoryUserRepo) GetUserByPhone(_ context.Context, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Phone != "" && u.Phone == phone {
			copied := *u
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
}

func (r *memoryUserRepo) UpdatePhone(_ context.Context, userID uuid.UUID, phone string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	for _, other := range r.users {
		if other.UserID != userID && other.Phone == phone {
			return nil, domain.ErrPhoneTaken
		}
	}
	u.Phone = phone
	copied := *u
	return &copied, nil
}

type fakeTokenService struct{}

func (fakeTokenService) IssueToken(user *domain.User) (string, error) {
	return "token-" + user.UserID.String(), nil
}

func (fakeTokenService) VerifyToken(string) (*domain.TokenPayload, error) {
	return nil, errors.New("not implemented")
}
