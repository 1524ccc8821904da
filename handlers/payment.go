package handlers

import (
	"net/http"

	"ceremonify/models"
	"ceremonify/services/booking"
	"ceremonify/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	Tracker payment.Tracker
}

func NewPaymentHandler(tracker payment.Tracker) *PaymentHandler {
	return &PaymentHandler{Tracker: tracker}
}

// GetObligationHandler reports the schedule and what is owed next. Obligation
// is null once the booking is fully paid.
func (h *PaymentHandler) GetObligationHandler(c *gin.Context) {
	ctx := c.Request.Context()
	bookingID := c.Param("bookingID")

	obligation, err := h.Tracker.CurrentObligation(ctx, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	schedule, err := h.Tracker.Schedule(ctx, bookingID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"schedule": schedule, "obligation": obligation})
}

// InitiatePaymentHandler opens a collection for the current milestone.
func (h *PaymentHandler) InitiatePaymentHandler(c *gin.Context) {
	p, err := h.Tracker.InitiatePayment(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		if collectionPending(c, err, nil) {
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

func (h *PaymentHandler) ListPaymentsHandler(c *gin.Context) {
	payments, err := h.Tracker.ListPayments(c.Request.Context(), c.Param("bookingID"))
	if err != nil {
		respondError(c, err)
		return
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// RequestCustomPaymentHandler lets a provider ask for an ad-hoc amount.
func (h *PaymentHandler) RequestCustomPaymentHandler(c *gin.Context) {
	logger := getLogger(c)

	var body struct {
		Amount      int64  `json:"amount" binding:"required"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": string(booking.InvalidRequest), "message": err.Error()})
		return
	}

	bookingID := c.Param("bookingID")
	p, err := h.Tracker.RequestCustomPayment(c.Request.Context(), bookingID, body.Amount, body.Description)
	if err != nil {
		if collectionPending(c, err, nil) {
			return
		}
		respondError(c, err)
		return
	}
	logger.Info("Custom payment requested", zap.String("bookingId", bookingID), zap.String("paymentId", p.ID), zap.Int64("amount", p.Amount))
	c.JSON(http.StatusCreated, gin.H{"payment": p})
}

// RetryPaymentHandler reopens a collection for a payment still pending.
func (h *PaymentHandler) RetryPaymentHandler(c *gin.Context) {
	p, err := h.Tracker.RetryCollection(c.Request.Context(), c.Param("paymentID"))
	if err != nil {
		if collectionPending(c, err, nil) {
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payment": p})
}
