package http

import (
	"net/http"
	"strings"

	"github.com/ridenrent/vehicle_rental_service/internal/core/domain"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/gin-gonic/gin"
)

const authorizationPayloadKey = "authorization_payload"

type errorResponse struct {
	Error string `json:"error"`
}

type successResponse struct {
	Message string `json:"message"`
}

func newErrorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}

func getAuthPayload(c *gin.Context, key string) (*domain.TokenPayload, bool) {
	value, exists := c.Get(key)
	if !exists {
		return nil, false
	}
	payload, ok := value.(*domain.TokenPayload)
	return payload, ok
}

// AuthMiddleware verifies the bearer token and stores the payload for the
// handlers downstream.
func AuthMiddleware(tokenService ports.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			newErrorResponse(c, http.StatusUnauthorized, "Authorization header is missing")
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if token == authHeader {
			newErrorResponse(c, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		payload, err := tokenService.VerifyToken(token)
		if err != nil {
			newErrorResponse(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(authorizationPayloadKey, payload)
		c.Next()
	}
}

// AdminMiddleware gates catalog management behind the admin role. Runs after
// AuthMiddleware.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, exists := getAuthPayload(c, authorizationPayloadKey)
		if !exists || payload.Role != domain.Admin {
			newErrorResponse(c, http.StatusForbidden, "Admin access required")
			return
		}
		c.Next()
	}
}
