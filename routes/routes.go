package routes

import (
	"time"

	"ceremonify/handlers"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterProviderRoutes registers working hours, availability and policy endpoints.
func RegisterProviderRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	api := r.Group("/api/providers/:providerID")
	{
		api.GET("/availability/check", hb.CheckAvailabilityHandler)
		api.GET("/availability", hb.GetAvailabilityHandler)
		api.PUT("/availability", hb.SetAvailabilityHandler)
		api.DELETE("/availability/:day", hb.DeleteAvailabilityHandler)
		api.PUT("/advance-policy", hb.UpdateAdvancePolicyHandler)
	}
}

// RegisterBookingRoutes registers admission, lifecycle and per-booking payment endpoints.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.POST("", hb.CreateBookingHandler)
		bookingGroup.GET("/:bookingID", hb.GetBookingHandler)
		bookingGroup.PATCH("/:bookingID/status", hb.UpdateBookingStatusHandler)

		bookingGroup.GET("/:bookingID/obligation", hb.GetObligationHandler)
		bookingGroup.GET("/:bookingID/payments", hb.ListPaymentsHandler)
		bookingGroup.POST("/:bookingID/payments", hb.InitiatePaymentHandler)
		bookingGroup.POST("/:bookingID/payment-requests", hb.RequestCustomPaymentHandler)
	}
}

// RegisterPaymentRoutes registers retry and gateway callback endpoints.
func RegisterPaymentRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.POST("/api/payments/:paymentID/retry", hb.RetryPaymentHandler)
	r.POST("/api/webhooks/payments", hb.PaymentWebhookHandler)
}

// RegisterHealthRoute registers the health-check and metrics endpoints.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	RegisterProviderRoutes(r, hb)
	RegisterBookingRoutes(r, hb)
	RegisterPaymentRoutes(r, hb)
	RegisterHealthRoute(r, hb)
}
