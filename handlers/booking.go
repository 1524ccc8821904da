package handlers

import (
	"net/http"

	"ceremonify/models"
	"ceremonify/services/booking"
	"ceremonify/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type BookingHandler struct {
	Service booking.BookingService
	Tracker payment.Tracker
}

func NewBookingHandler(service booking.BookingService, tracker payment.Tracker) *BookingHandler {
	return &BookingHandler{Service: service, Tracker: tracker}
}

func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	logger := getLogger(c)

	var req booking.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}

	b, err := h.Service.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.Info("Booking created", zap.String("bookingId", b.ID), zap.String("providerId", b.ProviderID))
	c.JSON(http.StatusCreated, gin.H{"booking": b})
}

func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	b, err := h.Service.GetBooking(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": b})
}

// UpdateBookingStatusHandler applies one lifecycle transition. A pay-now
// confirmation also returns the payments opened for it.
func (h *BookingHandler) UpdateBookingStatusHandler(c *gin.Context) {
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}
	status, err := models.ParseBookingStatus(body.Status)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}

	ctx := c.Request.Context()
	b, err := h.Service.TransitionBookingStatus(ctx, c.Param("bookingID"), status)
	if err != nil {
		if b != nil && collectionPending(c, err, gin.H{"booking": b}) {
			return
		}
		respondError(c, err)
		return
	}

	resp := gin.H{"booking": b}
	if status == models.BookingConfirmed && b.PaymentPreference == models.PayNow {
		payments, err := h.Tracker.ListPayments(ctx, b.ID)
		if err != nil {
			getLogger(c).Warn("Could not list payments after confirmation", zap.String("bookingId", b.ID), zap.Error(err))
		}
		resp["payments"] = payments
	}
	c.JSON(http.StatusOK, resp)
}
