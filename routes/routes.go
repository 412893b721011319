package routes

import (
	"net/http"
	"time"

	"servana/handlers"
	"servana/middleware"
	"servana/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// HandlerBundle carries the assembled handlers for route registration.
type HandlerBundle struct {
	Slots    *handlers.SlotHandler
	Bookings *handlers.BookingHandler
	Schedule *handlers.ScheduleHandler
	Policies *handlers.PolicyHandler
}

// RegisterProviderRoutes registers availability and schedule endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/providers")
	{
		// Public: anyone can browse the catalog and open slots.
		api.GET("/:id/services", hb.Slots.ListProviderServicesHandler)
		api.GET("/:id/slots", hb.Slots.GetAvailableSlotsHandler)

		// Schedule management requires authentication.
		protected := api.Group("")
		protected.Use(middleware.JWTAuthMiddleware())
		protected.GET("/:id/schedule", hb.Schedule.GetScheduleHandler)
		protected.PUT("/:id/schedule", hb.Schedule.SetScheduleHandler)
		protected.PUT("/:id/schedule/delivery", hb.Schedule.SetDeliveryMethodsHandler)
		protected.PUT("/:id/schedule/overrides/:date", hb.Schedule.SetDateOverrideHandler)
		protected.DELETE("/:id/schedule/overrides/:date", hb.Schedule.RemoveDateOverrideHandler)
		protected.GET("/:id/bookings", hb.Bookings.ListProviderBookingsHandler)
	}
}

// RegisterBookingRoutes registers the booking lifecycle endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/bookings")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.POST("", hb.Bookings.CreateBookingHandler)
		api.GET("/:id", hb.Bookings.GetBookingHandler)
		api.POST("/:id/confirm", hb.Bookings.ConfirmBookingHandler)
		api.POST("/:id/reject", hb.Bookings.RejectBookingHandler)
		api.POST("/:id/cancel", hb.Bookings.CancelBookingHandler)
		api.POST("/:id/reschedule", hb.Bookings.RescheduleBookingHandler)
	}
}

// RegisterPolicyRoutes registers cancellation policy administration.
func RegisterPolicyRoutes(r *gin.Engine, hb *HandlerBundle) {
	api := r.Group("/api/policies")
	{
		api.Use(middleware.JWTAuthMiddleware())
		api.PUT("/:category", hb.Policies.SetPolicyHandler)
	}
}

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		status := utils.GetHealthStatus()
		code := http.StatusOK
		if !status.Mongo || !status.Redis {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	})
}

// RegisterRoutes sets up CORS and all API routes.
func RegisterRoutes(r *gin.Engine, hb *HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r)
	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPolicyRoutes(r, hb)
}
