package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CatalogPageSize is the fixed number of vehicles per catalog page.
const CatalogPageSize = 6

type VehicleService struct {
	vehicleRepo ports.VehicleRepository
	logger      ports.LoggerPort
	validate    *validator.Validate
	cache       ports.CachePort
}

func NewVehicleService(
	vehicleRepo ports.VehicleRepository,
	logger ports.LoggerPort,
	validate *validator.Validate,
	cache ports.CachePort,
) *VehicleService {
	return &VehicleService{
		vehicleRepo: vehicleRepo,
		logger:      logger,
		validate:    validate,
		cache:       cache,
	}
}

func (s *VehicleService) CreateVehicle(ctx context.Context, vehicle *domain.Vehicle) (*domain.Vehicle, error) {
	if err := s.validate.Struct(vehicle); err != nil {
		s.logger.Error("Vehicle validation failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, fmt.Errorf("validation error: %w", err)
	}

	if vehicle.VehicleID == uuid.Nil {
		vehicle.VehicleID = uuid.New()
	}

	created, err := s.vehicleRepo.CreateVehicle(ctx, vehicle)
	if err != nil {
		s.logger.Error("Failed to create vehicle", map[string]interface{}{
			"error": err.Error(),
			"name":  vehicle.Name,
		})
		return nil, err
	}

	s.invalidateCatalogCache()

	s.logger.Info("Vehicle created successfully", map[string]interface{}{
		"vehicle_id": created.VehicleID,
		"name":       created.Name,
	})

	return created, nil
}

func (s *VehicleService) GetVehicleByID(ctx context.Context, vehicleID string) (*domain.Vehicle, error) {
	vehicleUUID, err := uuid.Parse(vehicleID)
	if err != nil {
		s.logger.Error("Invalid UUID format", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		return nil, fmt.Errorf("invalid vehicle ID: %w", err)
	}

	cacheKey := fmt.Sprintf("vehicle:%s", vehicleID)
	cachedData, err := s.cache.Get(cacheKey)
	if err == nil {
		var cachedVehicle domain.Vehicle
		if err := json.Unmarshal(cachedData, &cachedVehicle); err == nil {
			return &cachedVehicle, nil
		}
	}

	vehicle, err := s.vehicleRepo.GetVehicleByID(ctx, vehicleUUID)
	if err != nil {
		s.logger.Error("Failed to get vehicle", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		return nil, err
	}

	vehicleData, err := json.Marshal(vehicle)
	if err != nil {
		s.logger.Warn("Failed to marshal vehicle for cache", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
	} else {
		if err := s.cache.Set(cacheKey, vehicleData, 15*time.Minute); err != nil {
			s.logger.Warn("Failed to cache vehicle", map[string]interface{}{
				"error":      err.Error(),
				"vehicle_id": vehicleID,
			})
		}
	}

	return vehicle, nil
}

// ListVehicles serves the catalog. Non-numeric page values fall back to page 1
// and out-of-range pages clamp to the last page; listing never fails on bad
// pagination input.
func (s *VehicleService) ListVehicles(ctx context.Context, filter, search, page string) (*domain.VehiclePage, error) {
	pageNum, err := strconv.Atoi(page)
	if err != nil || pageNum < 1 {
		pageNum = 1
	}

	query := ports.CatalogQuery{
		Filter: domain.ParseVehicleFilter(filter),
		Search: strings.TrimSpace(search),
		Page:   pageNum,
	}

	cacheKey := fmt.Sprintf("catalog:%s:%s:%d", query.Filter, strings.ToLower(query.Search), query.Page)
	cachedData, err := s.cache.Get(cacheKey)
	if err == nil {
		var cachedPage domain.VehiclePage
		if err := json.Unmarshal(cachedData, &cachedPage); err == nil {
			return &cachedPage, nil
		}
	}

	vehicles, total, err := s.vehicleRepo.ListVehicles(ctx, query, CatalogPageSize)
	if err != nil {
		s.logger.Error("Failed to list vehicles", map[string]interface{}{
			"error":  err.Error(),
			"filter": string(query.Filter),
		})
		return nil, err
	}

	totalPages := (total + CatalogPageSize - 1) / CatalogPageSize
	if totalPages < 1 {
		totalPages = 1
	}

	if query.Page > totalPages {
		// clamp to the last page and refetch
		query.Page = totalPages
		vehicles, total, err = s.vehicleRepo.ListVehicles(ctx, query, CatalogPageSize)
		if err != nil {
			s.logger.Error("Failed to list vehicles", map[string]interface{}{
				"error":  err.Error(),
				"filter": string(query.Filter),
			})
			return nil, err
		}
	}

	result := &domain.VehiclePage{
		Vehicles:    vehicles,
		HasNext:     query.Page < totalPages,
		HasPrevious: query.Page > 1,
		CurrentPage: query.Page,
		TotalPages:  totalPages,
	}

	pageData, err := json.Marshal(result)
	if err == nil {
		if err := s.cache.Set(cacheKey, pageData, time.Minute); err != nil {
			s.logger.Warn("Failed to cache catalog page", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	return result, nil
}

func (s *VehicleService) DeleteVehicle(ctx context.Context, vehicleID string) error {
	vehicleUUID, err := uuid.Parse(vehicleID)
	if err != nil {
		s.logger.Error("Invalid UUID format", map[string]interface{}{
			"vehicle_id": vehicleID,
			"error":      err.Error(),
		})
		return fmt.Errorf("invalid vehicle ID: %w", err)
	}

	if err := s.vehicleRepo.DeleteVehicle(ctx, vehicleUUID); err != nil {
		s.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		return err
	}

	if err := s.cache.Delete(fmt.Sprintf("vehicle:%s", vehicleID)); err != nil {
		s.logger.Warn("Failed to invalidate vehicle cache", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
	}
	s.invalidateCatalogCache()

	s.logger.Info("Vehicle deleted successfully", map[string]interface{}{
		"vehicle_id": vehicleID,
	})

	return nil
}

// invalidateCatalogCache drops the first unfiltered page, the one most likely
// to be stale after a catalog change. Filtered pages expire on their own TTL.
func (s *VehicleService) invalidateCatalogCache() {
	if err := s.cache.Delete(fmt.Sprintf("catalog:%s::%d", domain.FilterAll, 1)); err != nil {
		s.logger.Warn("Failed to invalidate catalog cache", map[string]interface{}{
			"error": err.Error(),
		})
	}
}
