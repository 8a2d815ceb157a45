package ports

import (
	"context"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"

	"github.com/google/uuid"
)

// CatalogQuery shapes a catalog listing request. PageSize is fixed by the
// service; callers only choose filter, search text and page number.
type CatalogQuery struct {
	Filter domain.VehicleFilter
	Search string
	Page   int
}

type VehicleRepository interface {
	CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	GetVehicleByID(ctx context.Context, vehicle_id uuid.UUID) (*domain.Vehicle, error)
	// ListVehicles returns one page ordered by name ASC (insertion order,
	// then id, on ties) together with the total match count for pagination.
	ListVehicles(ctx context.Context, query CatalogQuery, pageSize int) ([]*domain.Vehicle, int, error)
	DeleteVehicle(ctx context.Context, vehicle_id uuid.UUID) error
}

type VehicleService interface {
	CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error)
	GetVehicleByID(ctx context.Context, vehicle_id string) (*domain.Vehicle, error)
	ListVehicles(ctx context.Context, filter, search, page string) (*domain.VehiclePage, error)
	DeleteVehicle(ctx context.Context, vehicle_id string) error
}
