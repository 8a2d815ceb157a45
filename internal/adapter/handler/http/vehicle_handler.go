package http

import (
	"net/http"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VehicleHandler struct {
	vehicleService     ports.VehicleService
	reservationService ports.ReservationService
	logger             ports.LoggerPort
	metrics            ports.MetricsPort
}

type VehicleRequest struct {
	Name         string `json:"name" binding:"required" example:"City Hatch"`
	Category     string `json:"category" binding:"required,oneof=car bike" example:"car"`
	PriceCents   int64  `json:"price_cents" binding:"required,min=1" example:"2500"`
	Seats        int    `json:"seats" example:"5"`
	FuelType     string `json:"fuel_type" binding:"required" example:"petrol"`
	Transmission string `json:"transmission" binding:"required" example:"manual"`
	ImageURL     string `json:"image_url,omitempty" example:"/static/images/city-hatch.png"`
}

type VehicleInfo struct {
	VehicleID    uuid.UUID `json:"vehicle_id"`
	Name         string    `json:"name"`
	Category     string    `json:"category"`
	PriceCents   int64     `json:"price_cents"`
	Seats        int       `json:"seats"`
	FuelType     string    `json:"fuel_type"`
	Transmission string    `json:"transmission"`
	ImageURL     string    `json:"image_url,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

type ListVehiclesResponse struct {
	Vehicles    []VehicleInfo `json:"vehicles"`
	HasNext     bool          `json:"has_next"`
	HasPrevious bool          `json:"has_previous"`
	CurrentPage int           `json:"current_page"`
	TotalPages  int           `json:"total_pages"`
}

type BookedRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func NewVehicleHandler(
	vehicleService ports.VehicleService,
	reservationService ports.ReservationService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *VehicleHandler {
	return &VehicleHandler{
		vehicleService:     vehicleService,
		reservationService: reservationService,
		logger:             logger,
		metrics:            metrics,
	}
}

func vehicleInfo(v *domain.Vehicle) VehicleInfo {
	return VehicleInfo{
		VehicleID:    v.VehicleID,
		Name:         v.Name,
		Category:     string(v.Category),
		PriceCents:   v.PriceCents,
		Seats:        v.Seats,
		FuelType:     string(v.FuelType),
		Transmission: string(v.Transmission),
		ImageURL:     v.ImageURL,
		CreatedAt:    v.CreatedAt,
	}
}

// @Summary List vehicles
// @Description Catalog page with filter, search and pagination
// @Tags vehicles
// @Accept json
// @Produce json
// @Param filter query string false "all | car | bike | electric"
// @Param search query string false "Case-insensitive name substring"
// @Param page query string false "Page number, defaults to 1"
// @Success 200 {object} ListVehiclesResponse "One catalog page"
// @Router /vehicles [get]
func (h *VehicleHandler) ListVehicles(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	page, err := h.vehicleService.ListVehicles(
		c.Request.Context(),
		c.DefaultQuery("filter", "all"),
		c.Query("search"),
		c.DefaultQuery("page", "1"),
	)
	if err != nil {
		h.logger.Error("Failed to list vehicles", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusInternalServerError, "Failed to list vehicles")
		return
	}

	infos := make([]VehicleInfo, len(page.Vehicles))
	for i, v := range page.Vehicles {
		infos[i] = vehicleInfo(v)
	}

	c.JSON(http.StatusOK, ListVehiclesResponse{
		Vehicles:    infos,
		HasNext:     page.HasNext,
		HasPrevious: page.HasPrevious,
		CurrentPage: page.CurrentPage,
		TotalPages:  page.TotalPages,
	})
}

// @Summary Get vehicle
// @Description Vehicle details by ID
// @Tags vehicles
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} VehicleInfo "Vehicle found"
// @Failure 404 {object} errorResponse "Vehicle not found"
// @Router /vehicles/{id} [get]
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	vehicleID := c.Param("id")

	vehicle, err := h.vehicleService.GetVehicleByID(c.Request.Context(), vehicleID)
	if err != nil {
		h.logger.Error("Failed to get vehicle", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		newErrorResponse(c, http.StatusNotFound, "Vehicle not found")
		return
	}

	c.JSON(http.StatusOK, vehicleInfo(vehicle))
}

// @Summary Booked dates
// @Description Active booking ranges for a vehicle, for the date picker
// @Tags vehicles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {array} BookedRange "Occupied ranges, ordered by start"
// @Failure 401 {object} errorResponse "Not authorized"
// @Router /vehicles/{id}/booked-dates [get]
func (h *VehicleHandler) GetBookedDates(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	vehicleID := c.Param("id")

	_, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to GetBookedDates", map[string]interface{}{
			"vehicle_id": vehicleID,
			"ip":         c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	ranges, err := h.reservationService.ListBookedRanges(c.Request.Context(), vehicleID)
	if err != nil {
		h.logger.Error("Failed to get booked dates", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		newErrorResponse(c, statusFromError(err), "Failed to get booked dates")
		return
	}

	booked := make([]BookedRange, len(ranges))
	for i, r := range ranges {
		booked[i] = BookedRange{
			From: r.StartDate.Format(dateLayout),
			To:   r.EndDate.Format(dateLayout),
		}
	}

	c.JSON(http.StatusOK, booked)
}

// @Summary Add vehicle
// @Description Add a vehicle to the catalog (admin only)
// @Tags vehicles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body VehicleRequest true "Vehicle data"
// @Success 201 {object} VehicleInfo "Vehicle created"
// @Failure 400 {object} errorResponse "Invalid request"
// @Failure 403 {object} errorResponse "Admin access required"
// @Router /vehicles [post]
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req VehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	vehicle := &domain.Vehicle{
		Name:         req.Name,
		Category:     domain.VehicleCategory(req.Category),
		PriceCents:   req.PriceCents,
		Seats:        req.Seats,
		FuelType:     domain.FuelType(req.FuelType),
		Transmission: domain.Transmission(req.Transmission),
		ImageURL:     req.ImageURL,
	}

	created, err := h.vehicleService.CreateVehicle(c.Request.Context(), vehicle)
	if err != nil {
		h.logger.Error("Failed to create vehicle", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Failed to create vehicle")
		return
	}

	c.JSON(http.StatusCreated, vehicleInfo(created))
}

// @Summary Remove vehicle
// @Description Remove a vehicle from the catalog (admin only)
// @Tags vehicles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Vehicle ID"
// @Success 200 {object} successResponse "Vehicle removed"
// @Failure 403 {object} errorResponse "Admin access required"
// @Failure 404 {object} errorResponse "Vehicle not found"
// @Router /vehicles/{id} [delete]
func (h *VehicleHandler) DeleteVehicle(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	vehicleID := c.Param("id")

	if err := h.vehicleService.DeleteVehicle(c.Request.Context(), vehicleID); err != nil {
		h.logger.Error("Failed to delete vehicle", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": vehicleID,
		})
		newErrorResponse(c, statusFromError(err), "Failed to delete vehicle")
		return
	}

	c.JSON(http.StatusOK, successResponse{Message: "Vehicle deleted successfully"})
}
