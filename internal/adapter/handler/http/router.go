package http

import (
	"net/http"

	"github.com/ridenrent/vehicle_rental_service/internal/config"
	"github.com/ridenrent/vehicle_rental_service/internal/core/ports"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type Router struct {
	router *gin.Engine
}

func NewRouter(
	cfg *config.HTTP,
	tokenService ports.TokenService,
	authHandler *AuthHandler,
	vehicleHandler *VehicleHandler,
	reservationHandler *ReservationHandler,
) (*Router, error) {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.AllowedOrigins},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes
	auth := router.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/otp/send", authHandler.SendOTP)
		auth.POST("/otp/verify", authHandler.VerifyOTP)
	}
	authOwned := router.Group("/auth")
	authOwned.Use(AuthMiddleware(tokenService))
	{
		authOwned.POST("/phone", authHandler.AddPhone)
	}

	// Vehicle routes; the catalog itself is public, booked dates need a login
	vehicles := router.Group("/vehicles")
	{
		vehicles.GET("", vehicleHandler.ListVehicles)
		vehicles.GET("/:id", vehicleHandler.GetVehicle)
	}
	vehiclesAuth := router.Group("/vehicles")
	vehiclesAuth.Use(AuthMiddleware(tokenService))
	{
		vehiclesAuth.GET("/:id/booked-dates", vehicleHandler.GetBookedDates)
	}
	vehiclesAdmin := router.Group("/vehicles")
	vehiclesAdmin.Use(AuthMiddleware(tokenService), AdminMiddleware())
	{
		vehiclesAdmin.POST("", vehicleHandler.CreateVehicle)
		vehiclesAdmin.DELETE("/:id", vehicleHandler.DeleteVehicle)
	}

	// Reservation routes
	reservations := router.Group("/reservations")
	reservations.Use(AuthMiddleware(tokenService))
	{
		reservations.POST("", reservationHandler.CreateReservation)
		reservations.GET("/my", reservationHandler.GetMyReservations)
		reservations.GET("/my/stats", reservationHandler.GetMyStats)
		reservations.POST("/:id/pay", reservationHandler.PayReservation)
		reservations.POST("/:id/status", reservationHandler.UpdateReservationStatus)
	}

	return &Router{router: router}, nil
}

func (r *Router) Serve(addr string) error {
	return r.router.Run(addr)
}

func (r *Router) Engine() *gin.Engine {
	return r.router
}
