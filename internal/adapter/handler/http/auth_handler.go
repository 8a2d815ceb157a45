package http

import (
	"net/http"
	"time"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthHandler struct {
	userService ports.UserService
	logger      ports.LoggerPort
	metrics     ports.MetricsPort
}

type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required" example:"Ada"`
	LastName  string `json:"last_name" binding:"required" example:"Lovelace"`
	Email     string `json:"email" binding:"required,email" example:"ada@example.com"`
	Password  string `json:"password" binding:"required,min=8"`
	Phone     string `json:"phone,omitempty" example:"+15550100"`
}

type LoginRequest struct {
	Email    string `json:"email,omitempty" example:"ada@example.com"`
	Phone    string `json:"phone,omitempty" example:"+15550100"`
	Password string `json:"password" binding:"required"`
}

type SendOTPRequest struct {
	Phone string `json:"phone" binding:"required" example:"+15550100"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phone" binding:"required" example:"+15550100"`
	Code  string `json:"code" binding:"required,len=4" example:"4831"`
}

type AddPhoneRequest struct {
	Phone string `json:"phone" binding:"required" example:"+15550100"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

type UserInfo struct {
	UserID    uuid.UUID `json:"user_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
}

func NewAuthHandler(
	userService ports.UserService,
	logger ports.LoggerPort,
	metrics ports.MetricsPort,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		logger:      logger,
		metrics:     metrics,
	}
}

func userInfo(u *domain.User) UserInfo {
	return UserInfo{
		UserID:    u.UserID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Phone:     u.Phone,
		Role:      string(u.Role),
	}
}

// @Summary Register
// @Description Creates an account and returns a token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse "Account created"
// @Failure 400 {object} errorResponse "Invalid request"
// @Failure 409 {object} errorResponse "Email or phone already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Failed JSON parse in register", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user := &domain.User{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Role:      domain.AppUser,
	}

	created, token, err := h.userService.Register(c.Request.Context(), user, req.Password)
	if err != nil {
		h.logger.Warn("Registration rejected", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, statusFromError(err), err.Error())
		return
	}

	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: userInfo(created)})
}

// @Summary Login
// @Description Password login with email or phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} AuthResponse "Logged in"
// @Failure 401 {object} errorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	var (
		user  *domain.User
		token string
		err   error
	)
	if req.Phone != "" {
		user, token, err = h.userService.LoginWithPhone(c.Request.Context(), req.Phone, req.Password)
	} else {
		user, token, err = h.userService.LoginWithEmail(c.Request.Context(), req.Email, req.Password)
	}
	if err != nil {
		// one generic message for unknown account and wrong password alike
		newErrorResponse(c, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userInfo(user)})
}

// @Summary Send login code
// @Description Issues a short-lived one-time code for the phone
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SendOTPRequest true "Phone number"
// @Success 200 {object} successResponse "Code sent if the phone is reachable"
// @Failure 400 {object} errorResponse "Invalid request"
// @Router /auth/otp/send [post]
func (h *AuthHandler) SendOTP(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req SendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	if err := h.userService.SendOTP(c.Request.Context(), req.Phone); err != nil {
		h.logger.Error("Failed to send OTP", map[string]interface{}{
			"error": err.Error(),
		})
		newErrorResponse(c, http.StatusInternalServerError, "Failed to send code")
		return
	}

	// same response whether or not the phone belongs to an account
	c.JSON(http.StatusOK, successResponse{Message: "Code sent"})
}

// @Summary Verify login code
// @Description Exchanges a one-time code for a token; codes are single-use
// @Tags auth
// @Accept json
// @Produce json
// @Param request body VerifyOTPRequest true "Phone and code"
// @Success 200 {object} AuthResponse "Logged in"
// @Failure 401 {object} errorResponse "Invalid or expired code"
// @Router /auth/otp/verify [post]
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	var req VerifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, token, err := h.userService.VerifyOTP(c.Request.Context(), req.Phone, req.Code)
	if err != nil {
		newErrorResponse(c, statusFromError(err), "Invalid or expired code")
		return
	}

	c.JSON(http.StatusOK, AuthResponse{Token: token, User: userInfo(user)})
}

// @Summary Add phone
// @Description Attaches a phone number to the caller's account
// @Tags auth
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body AddPhoneRequest true "Phone number"
// @Success 200 {object} UserInfo "Updated account"
// @Failure 401 {object} errorResponse "Not authorized"
// @Failure 409 {object} errorResponse "Phone already registered"
// @Router /auth/phone [post]
func (h *AuthHandler) AddPhone(c *gin.Context) {
	start := time.Now()
	defer func() {
		h.metrics.RecordMetrics(c, start)
	}()

	payload, exists := getAuthPayload(c, authorizationPayloadKey)
	if !exists {
		newErrorResponse(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var req AddPhoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		newErrorResponse(c, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	user, err := h.userService.AddPhone(c.Request.Context(), payload.UserID, req.Phone)
	if err != nil {
		h.logger.Warn("Failed to add phone", map[string]interface{}{
			"error":   err.Error(),
			"user_id": payload.UserID,
		})
		newErrorResponse(c, statusFromError(err), err.Error())
		return
	}

	c.JSON(http.StatusOK, userInfo(user))
}
