package routes

import (
	"unicarpool/internal/handlers/driver"
	"unicarpool/internal/handlers/rider"
	handlers "unicarpool/internal/handlers/shared"
	"unicarpool/internal/middleware"
	"unicarpool/internal/models"
	"unicarpool/internal/repositories/interfaces"
	"unicarpool/pkg/websocket"

	"github.com/gin-gonic/gin"
)

// Handlers bundles everything the router mounts.
type Handlers struct {
	Health    *handlers.HealthHandler
	Auth      *handlers.AuthHandler
	User      *handlers.UserHandler
	Rating    *handlers.RatingHandler
	Emergency *handlers.EmergencyHandler
	WebSocket *websocket.Handler

	DriverRides    *driver.RideHandler
	DriverRequests *driver.RideRequestHandler
	DriverReviews  *driver.ReviewHandler

	RiderRides    *rider.RideHandler
	RiderRequests *rider.RideRequestHandler
	RiderReviews  *rider.ReviewHandler
}

type Config struct {
	JWTSecret     string
	WebSocketPath string
	UserRepo      interfaces.UserRepository
	AuthLimiter   *middleware.RateLimiter
}

// Setup mounts the health check at the root and the API under /api/v1.
func Setup(router *gin.Engine, h *Handlers, cfg Config) {
	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	v1.GET("/health", h.Health.Health)

	SetupAuthRoutes(v1, h.Auth, cfg.AuthLimiter)

	authed := v1.Group("")
	authed.Use(middleware.AuthRequired(cfg.JWTSecret))

	SetupUserRoutes(authed, h)
	SetupRatingRoutes(authed, h, cfg.UserRepo)
	SetupDriverRoutes(authed, h, cfg.UserRepo)
	SetupRiderRoutes(authed, h, cfg.UserRepo)

	if h.WebSocket != nil {
		path := cfg.WebSocketPath
		if path == "" {
			path = "/ws"
		}
		authed.GET(path, h.WebSocket.HandleWebSocket)
	}
}

func SetupAuthRoutes(r *gin.RouterGroup, h *handlers.AuthHandler, limiter *middleware.RateLimiter) {
	auth := r.Group("/auth")
	if limiter != nil {
		auth.Use(limiter.Middleware())
	}
	{
		auth.POST("/register", h.Register)
		auth.POST("/verify-code", h.VerifyEmail)
		auth.POST("/verification-code", h.ResendVerificationCode)
		auth.POST("/login", h.Login)
		auth.POST("/recover-password-code", h.RequestPasswordRecovery)
		auth.POST("/recover-password", h.RecoverPassword)
	}
}

func SetupUserRoutes(r *gin.RouterGroup, h *Handlers) {
	user := r.Group("/user")
	{
		user.GET("/profile", h.User.GetProfile)
		user.PUT("/profile", h.User.UpdateProfile)
		user.PUT("/password", h.User.ChangePassword)
		user.POST("/roles", h.User.AddRole)
		user.PUT("/active-role", h.User.SetActiveRole)
		user.GET("/missing-roles", h.User.MissingRoles)
		user.POST("/devices", h.User.RegisterDevice)
		user.GET("/active-ride", h.User.ActiveRide)
		user.POST("/emergency", h.Emergency.TriggerEmergency)
	}
}

func SetupRatingRoutes(r *gin.RouterGroup, h *Handlers, userRepo interfaces.UserRepository) {
	ratings := r.Group("/ratings")
	{
		ratings.GET("/users/:id", h.Rating.ReviewsForUser)
		ratings.GET("/users/:id/stats", h.Rating.RatingStats)
		ratings.GET("/rides/:id/status", h.Rating.ReviewStatus)

		ratings.POST("/driver", middleware.RoleRequired(models.RoleRider, userRepo), h.RiderReviews.SubmitReview)
		ratings.POST("/passenger", middleware.RoleRequired(models.RoleDriver, userRepo), h.DriverReviews.ReviewPassenger)
	}
}

func SetupDriverRoutes(r *gin.RouterGroup, h *Handlers, userRepo interfaces.UserRepository) {
	d := r.Group("/driver")
	d.Use(middleware.RoleRequired(models.RoleDriver, userRepo))
	{
		d.POST("/rides", h.DriverRides.CreateRide)
		d.GET("/rides", h.DriverRides.ListRides)
		d.PUT("/rides/:id/start", h.DriverRides.StartRide)
		d.PUT("/rides/:id/complete", h.DriverRides.CompleteRide)
		d.PUT("/rides/:id/cancel", h.DriverRides.CancelRide)
		d.DELETE("/rides/:id", h.DriverRides.CancelRide)

		d.GET("/ride-requests", h.DriverRequests.ListRequests)
		d.PUT("/ride-requests/:id/accept", h.DriverRequests.Accept)
		d.PUT("/ride-requests/:id/decline", h.DriverRequests.Decline)
		d.PUT("/ride-requests/:id/reject", h.DriverRequests.Decline)

		d.POST("/reviews", h.DriverReviews.ReviewPassenger)
	}
}

func SetupRiderRoutes(r *gin.RouterGroup, h *Handlers, userRepo interfaces.UserRepository) {
	rd := r.Group("/rider")
	rd.Use(middleware.RoleRequired(models.RoleRider, userRepo))
	{
		rd.GET("/rides", h.RiderRides.ListOpenRides)
		rd.GET("/rides/:id", h.RiderRides.GetRide)

		rd.POST("/ride-requests", h.RiderRequests.Submit)
		rd.GET("/ride-requests", h.RiderRequests.ListRequests)
		rd.PUT("/ride-requests/:id/withdraw", h.RiderRequests.Withdraw)
		rd.GET("/bookings", h.RiderRequests.Bookings)

		rd.POST("/reviews", h.RiderReviews.SubmitReview)
	}
}
