package domain

import (
	"time"

	"github.com/google/uuid"
)

type VehicleCategory string

const (
	Car  VehicleCategory = "car"
	Bike VehicleCategory = "bike"
)

type FuelType string

const (
	Petrol   FuelType = "petrol"
	Diesel   FuelType = "diesel"
	Electric FuelType = "electric"
	Hybrid   FuelType = "hybrid"
	// Manual fuel type is used for non-motorized bikes
	ManualFuel FuelType = "manual"
)

type Transmission string

const (
	Automatic        Transmission = "automatic"
	ManualGear       Transmission = "manual"
	NoneTransmission Transmission = "none"
)

type Vehicle struct {
	VehicleID    uuid.UUID       `json:"vehicle_id"`
	Name         string          `json:"name" validate:"required,max=100"`
	Category     VehicleCategory `json:"category" validate:"required,oneof=car bike"`
	PriceCents   int64           `json:"price_cents" validate:"required,min=1"`
	Seats        int             `json:"seats" validate:"min=0"`
	FuelType     FuelType        `json:"fuel_type" validate:"required"`
	Transmission Transmission    `json:"transmission" validate:"required"`
	ImageURL     string          `json:"image_url,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// VehicleFilter narrows a catalog listing. "all" is the identity filter,
// "electric" matches on fuel type, "car"/"bike" on category.
type VehicleFilter string

const (
	FilterAll      VehicleFilter = "all"
	FilterCar      VehicleFilter = "car"
	FilterBike     VehicleFilter = "bike"
	FilterElectric VehicleFilter = "electric"
)

func ParseVehicleFilter(s string) VehicleFilter {
	switch VehicleFilter(s) {
	case FilterCar, FilterBike, FilterElectric:
		return VehicleFilter(s)
	default:
		return FilterAll
	}
}

// VehiclePage is one page of the catalog plus pagination metadata.
type VehiclePage struct {
	Vehicles    []*Vehicle `json:"vehicles"`
	HasNext     bool       `json:"has_next"`
	HasPrevious bool       `json:"has_previous"`
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
}
