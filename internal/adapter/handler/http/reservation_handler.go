package http

import (
	"net/http"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	reservationService ports.ReservationService
	logger             ports.LoggerPort
	metrics            ports.MetricsPort
}

type ReservationRequest struct {
	VehicleID      string `json:"vehicle_id" binding:"required" example:"5f1e4b54-9d7a-4c59-8f3f-1a2b3c4d5e01"`
	StartDate      string `json:"start_date" binding:"required" example:"2024-06-01"`
	EndDate        string `json:"end_date" binding:"required" example:"2024-06-05"`
	PickupLocation string `json:"pickup_location" binding:"required" example:"downtown"`
}

type PaymentRequest struct {
	CardNumber string `json:"card_number" binding:"required" example:"4111111111111111"`
	Expiry     string `json:"expiry" binding:"required" example:"12/27"`
	CVV        string `json:"cvv" binding:"required" example:"123"`
}

type ActionRequest struct {
	Action string `json:"action" binding:"required,oneof=complete cancel" example:"cancel"`
}

type ReservationInfo struct {
	ReservationID  uuid.UUID `json:"reservation_id"`
	VehicleID      uuid.UUID `json:"vehicle_id"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	Status         string    `json:"status"`
	TotalCents     int64     `json:"total_cents"`
	PickupLocation string    `json:"pickup_location"`
	CreatedAt      time.Time `json:"created_at"`
}

type MyReservationsResponse struct {
	Reservations []ReservationInfo `json:"reservations"`
	Count        int               `json:"count"`
	Completed    int               `json:"completed"` // expired actives swept by this read
}

type StatsResponse struct {
	TotalRentals    int    `json:"total_rentals"`
	ActiveRentals   int    `json:"active_rentals"`
	PendingRentals  int    `json:"pending_rentals"`
	TotalSpentCents int64  `json:"total_spent_cents"`
	FavoriteType    string `json:"favorite_type"`
}

func NewReservationHandler(
	reservationService ports.ReservationService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *ReservationHandler {
	return &ReservationHandler{
		reservationService: reservationService,
		logger:             logger,
		metrics:            metrics,
	}
}

func reservationInfo(r *domain.Reservation) ReservationInfo {
	return ReservationInfo{
		ReservationID:  r.ReservationID,
		VehicleID:      r.VehicleID,
		StartDate:      r.StartDate.Format(dateLayout),
		EndDate:        r.EndDate.Format(dateLayout),
		Status:         string(r.Status),
		TotalCents:     r.TotalCents,
		PickupLocation: r.PickupLocation,
		CreatedAt:      r.CreatedAt,
	}
}

// @Summary Book a vehicle
// @Description Creates a pending_payment reservation for a date range
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body ReservationRequest true "Booking data"
// @Success 201 {object} ReservationInfo "Reservation created, awaiting payment"
// @Failure 400 {object} errorResponse "Invalid date range"
// @Failure 401 {object} errorResponse "Not authorized"
// @Failure 404 {object} errorResponse "Vehicle not found"
// @Failure 409 {object} errorResponse "Dates already booked"
// @Router /reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to CreateReservation", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ReservationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in create reservation", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid start date")
		return
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid end date")
		return
	}

	reservation, err := h.reservationService.CreateReservation(
		c.Request.Context(),
		payload.UserID,
		req.VehicleID,
		req.PickupLocation,
		startDate,
		endDate,
	)
	if err != nil {
		h.logger.Error("Failed to create reservation", map[string]interface{}{
			"error":      err.Error(),
			"vehicle_id": req.VehicleID,
			"user_id":    payload.UserID,
		})
		newErrorResponse(c, statusFromError(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, reservationInfo(reservation))
}

// @Summary Pay for a reservation
// @Description Runs the payment attempt; success activates the reservation
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body PaymentRequest true "Card details"
// @Success 200 {object} ReservationInfo "Reservation activated"
// @Failure 401 {object} errorResponse "Not authorized"
// @Failure 402 {object} errorResponse "Payment declined"
// @Failure 403 {object} errorResponse "Not the owner"
// @Failure 409 {object} errorResponse "Dates lost to another booking"
// @Router /reservations/{id}/pay [post]
func (h *ReservationHandler) PayReservation(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	reservationID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to PayReservation", map[string]interface{}{
			"reservation_id": reservationID,
			"ip":             c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in pay reservation", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	card := domain.CardDetails{
		CardNumber: req.CardNumber,
		Expiry:     req.Expiry,
		CVV:        req.CVV,
	}

	reservation, err := h.reservationService.PayReservation(c.Request.Context(), reservationID, payload.UserID, card)
	if err != nil {
		h.logger.Warn("Payment attempt did not activate reservation", map[string]interface{}{
			"error":          err.Error(),
			"reservation_id": reservationID,
			"user_id":        payload.UserID,
		})
		newErrorResponse(c, statusFromError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, reservationInfo(reservation))
}

// @Summary Complete or cancel
// @Description Applies a terminal transition to an active reservation
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body ActionRequest true "complete or cancel"
// @Success 200 {object} ReservationInfo "New status"
// @Failure 401 {object} errorResponse "Not authorized"
// @Failure 403 {object} errorResponse "Not the owner"
// @Failure 409 {object} errorResponse "Transition not allowed"
// @Router /reservations/{id}/status [post]
func (h *ReservationHandler) UpdateReservationStatus(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	reservationID := c.Param("id")

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to UpdateReservationStatus", map[string]interface{}{
			"reservation_id": reservationID,
			"ip":             c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req ActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	reservation, err := h.reservationService.CompleteOrCancel(
		c.Request.Context(),
		reservationID,
		payload.UserID,
		domain.ReservationAction(req.Action),
	)
	if err != nil {
		h.logger.Warn("Status change rejected", map[string]interface{}{
			"error":          err.Error(),
			"reservation_id": reservationID,
			"user_id":        payload.UserID,
			"action":         req.Action,
		})
		newErrorResponse(c, statusFromError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, reservationInfo(reservation))
}

// @Summary My reservations
// @Description Lists the caller's reservations, newest rental first. Expired
// @Description active rentals are completed by this read.
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} MyReservationsResponse "Reservation list"
// @Failure 401 {object} errorResponse "Not authorized"
// @Router /reservations/my [get]
func (h *ReservationHandler) GetMyReservations(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to GetMyReservations", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	reservations, swept, err := h.reservationService.ListMyReservations(c.Request.Context(), payload.UserID)
	if err != nil {
		h.logger.Error("Failed to list reservations", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID,
		})
		newErrorResponse(c, http.StatusInternalServerError, "Failed to list reservations")
		return
	}

	infos := make([]ReservationInfo, len(reservations))
	for i, r := range reservations {
		infos[i] = reservationInfo(r)
	}

	c.JSON(http.StatusOK, MyReservationsResponse{
		Reservations: infos,
		Count:        len(infos),
		Completed:    swept,
	})
}

// @Summary My rental stats
// @Description Dashboard aggregates for the caller
// @Tags reservations
// @Security BearerAuth
// @Accept json
// @Produce json
// @Success 200 {object} StatsResponse "Aggregated stats"
// @Failure 401 {object} errorResponse "Not authorized"
// @Router /reservations/my/stats [get]
func (h *ReservationHandler) GetMyStats(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		h.logger.Warn("Unauthorized access attempt to GetMyStats", map[string]interface{}{
			"ip": c.ClientIP(),
		})
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	stats, err := h.reservationService.GetMyStats(c.Request.Context(), payload.UserID)
	if err != nil {
		h.logger.Error("Failed to get stats", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID,
		})
		newErrorResponse(c, http.StatusInternalServerError, "Failed to get stats")
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		TotalRentals:    stats.TotalRentals,
		ActiveRentals:   stats.ActiveRentals,
		PendingRentals:  stats.PendingRentals,
		TotalSpentCents: stats.TotalSpentCents,
		FavoriteType:    stats.FavoriteType,
	})
}
