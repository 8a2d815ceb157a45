package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type VehicleRepository struct {
	db *sql.DB
}

func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{
		db,
	}
}

func (r *VehicleRepository) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	query := `INSERT INTO vehicles (vehicle_id, name, category, price_cents, seats, fuel_type, transmission, image_url)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    RETURNING vehicle_id, created_at, updated_at`

	err := r.db.QueryRowContext(ctx, query,
		vehicle.VehicleID,
		vehicle.Name,
		vehicle.Category,
		vehicle.PriceCents,
		vehicle.Seats,
		vehicle.FuelType,
		vehicle.Transmission,
		vehicle.ImageURL,
	).Scan(
		&vehicle.VehicleID,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23502":
				return nil, fmt.Errorf("required field is missing")
			case "23514":
				return nil, fmt.Errorf("invalid vehicle attributes")
			default:
				return nil, err
			}
		}
		return nil, err
	}
	return vehicle, nil
}

func (r *VehicleRepository) GetVehicleByID(ctx context.Context, vehicle_id uuid.UUID) (*domain.Vehicle, error) {
	query := `SELECT vehicle_id, name, category, price_cents, seats, fuel_type, transmission, image_url, created_at, updated_at
              FROM vehicles WHERE vehicle_id = $1`

	vehicle := &domain.Vehicle{}
	err := r.db.QueryRowContext(ctx, query, vehicle_id).Scan(
		&vehicle.VehicleID,
		&vehicle.Name,
		&vehicle.Category,
		&vehicle.PriceCents,
		&vehicle.Seats,
		&vehicle.FuelType,
		&vehicle.Transmission,
		&vehicle.ImageURL,
		&vehicle.CreatedAt,
		&vehicle.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("vehicle: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	return vehicle, nil
}

// ListVehicles returns one catalog page ordered by name (insertion order,
// then id, on ties) plus the total match count.
func (r *VehicleRepository) ListVehicles(ctx context.Context, query ports.CatalogQuery, pageSize int) ([]*domain.Vehicle, int, error) {
	where := `WHERE 1=1`
	args := []interface{}{}

	switch query.Filter {
	case domain.FilterCar, domain.FilterBike:
		args = append(args, string(query.Filter))
		where += fmt.Sprintf(" AND category = $%d", len(args))
	case domain.FilterElectric:
		args = append(args, string(domain.Electric))
		where += fmt.Sprintf(" AND fuel_type = $%d", len(args))
	}

	if query.Search != "" {
		args = append(args, "%"+query.Search+"%")
		where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM vehicles ` + where
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, pageSize, (query.Page-1)*pageSize)
	pageQuery := fmt.Sprintf(`SELECT vehicle_id, name, category, price_cents, seats, fuel_type, transmission, image_url, created_at, updated_at
		FROM vehicles %s
		ORDER BY name ASC, created_at ASC, vehicle_id ASC
		LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, pageQuery, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle

	for rows.Next() {
		vehicle := &domain.Vehicle{}
		err := rows.Scan(
			&vehicle.VehicleID,
			&vehicle.Name,
			&vehicle.Category,
			&vehicle.PriceCents,
			&vehicle.Seats,
			&vehicle.FuelType,
			&vehicle.Transmission,
			&vehicle.ImageURL,
			&vehicle.CreatedAt,
			&vehicle.UpdatedAt,
		)
		if err != nil {
			return nil, 0, err
		}
		vehicles = append(vehicles, vehicle)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, err
	}

	return vehicles, total, nil
}

func (r *VehicleRepository) DeleteVehicle(ctx context.Context, vehicle_id uuid.UUID) error {
	query := `DELETE FROM vehicles WHERE vehicle_id = $1`

	result, err := r.db.ExecContext(ctx, query, vehicle_id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return fmt.Errorf("vehicle: %w", domain.ErrNotFound)
	}

	return nil
}
