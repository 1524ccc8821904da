package handlers

import (
	"net/http"

	"ceremonify/services/booking"
	"ceremonify/services/gateway"
	"ceremonify/services/payment"
	"ceremonify/utils"

	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all your endpoint handlers into one struct.
type HandlerBundle struct {
	// Provider endpoints
	CheckAvailabilityHandler   gin.HandlerFunc
	SetAvailabilityHandler     gin.HandlerFunc
	GetAvailabilityHandler     gin.HandlerFunc
	DeleteAvailabilityHandler  gin.HandlerFunc
	UpdateAdvancePolicyHandler gin.HandlerFunc

	// Booking endpoints
	CreateBookingHandler       gin.HandlerFunc
	GetBookingHandler          gin.HandlerFunc
	UpdateBookingStatusHandler gin.HandlerFunc

	// Payment endpoints
	GetObligationHandler        gin.HandlerFunc
	InitiatePaymentHandler      gin.HandlerFunc
	ListPaymentsHandler         gin.HandlerFunc
	RequestCustomPaymentHandler gin.HandlerFunc
	RetryPaymentHandler         gin.HandlerFunc
	PaymentWebhookHandler       gin.HandlerFunc

	HealthHandler gin.HandlerFunc
}

// NewHandlerBundle wires every handler over the booking and payment services.
// health may be nil.
func NewHandlerBundle(bookings booking.BookingService, tracker payment.Tracker, gw gateway.Gateway, health *utils.HealthMonitor) *HandlerBundle {
	providerHandler := NewProviderHandler(bookings)
	bookingHandler := NewBookingHandler(bookings, tracker)
	paymentHandler := NewPaymentHandler(tracker)
	webhookHandler := NewWebhookHandler(gw, tracker)

	return &HandlerBundle{
		CheckAvailabilityHandler:   providerHandler.CheckAvailabilityHandler,
		SetAvailabilityHandler:     providerHandler.SetAvailabilityHandler,
		GetAvailabilityHandler:     providerHandler.GetAvailabilityHandler,
		DeleteAvailabilityHandler:  providerHandler.DeleteAvailabilityHandler,
		UpdateAdvancePolicyHandler: providerHandler.UpdateAdvancePolicyHandler,

		CreateBookingHandler:       bookingHandler.CreateBookingHandler,
		GetBookingHandler:          bookingHandler.GetBookingHandler,
		UpdateBookingStatusHandler: bookingHandler.UpdateBookingStatusHandler,

		GetObligationHandler:        paymentHandler.GetObligationHandler,
		InitiatePaymentHandler:      paymentHandler.InitiatePaymentHandler,
		ListPaymentsHandler:         paymentHandler.ListPaymentsHandler,
		RequestCustomPaymentHandler: paymentHandler.RequestCustomPaymentHandler,
		RetryPaymentHandler:         paymentHandler.RetryPaymentHandler,
		PaymentWebhookHandler:       webhookHandler.PaymentWebhookHandler,

		HealthHandler: healthHandler(health),
	}
}

func healthHandler(monitor *utils.HealthMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		if monitor == nil {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
			return
		}
		status := monitor.Status()
		if !status.Healthy() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "dependencies": status})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "dependencies": status})
	}
}
