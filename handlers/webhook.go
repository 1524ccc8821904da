package handlers

import (
	"errors"
	"io"
	"net/http"

	"ceremonify/services/gateway"
	"ceremonify/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	maxWebhookBody = 64 << 10

	stripeSignatureHeader  = "Stripe-Signature"
	sandboxSignatureHeader = "X-Sandbox-Signature"
)

type WebhookHandler struct {
	Gateway gateway.Gateway
	Tracker payment.Tracker
}

func NewWebhookHandler(gw gateway.Gateway, tracker payment.Tracker) *WebhookHandler {
	return &WebhookHandler{Gateway: gw, Tracker: tracker}
}

// PaymentWebhookHandler applies a gateway callback. Only a bad signature or
// a store failure is answered with an error status; the gateway redelivers
// on those and nothing else would change on redelivery.
func (h *WebhookHandler) PaymentWebhookHandler(c *gin.Context) {
	logger := getLogger(c)

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalidPayload", "message": err.Error()})
		return
	}
	signature := c.GetHeader(stripeSignatureHeader)
	if signature == "" {
		signature = c.GetHeader(sandboxSignatureHeader)
	}

	result, err := h.Gateway.ParseResult(payload, signature)
	switch {
	case errors.Is(err, gateway.ErrIgnoredEvent):
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	case errors.Is(err, gateway.ErrInvalidSignature):
		logger.Warn("Rejected payment callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalidSignature", "message": err.Error()})
		return
	case err != nil:
		logger.Warn("Unreadable payment callback", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalidPayload", "message": err.Error()})
		return
	}

	p, err := h.Tracker.OnPaymentResult(c.Request.Context(), *result)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": "applied", "paymentId": p.ID, "paymentStatus": p.Status})
	case errors.Is(err, payment.ErrPaymentNotFound),
		errors.Is(err, payment.ErrExceedsRemainingBalance),
		errors.Is(err, payment.ErrPaymentNotPending),
		errors.Is(err, payment.ErrAmountMismatch):
		logger.Warn("Payment callback not applied",
			zap.String("session", result.SessionToken),
			zap.String("paymentId", result.PaymentID),
			zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"status": "rejected", "message": err.Error()})
	default:
		logger.Error("Payment callback failed", zap.String("session", result.SessionToken), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internalError", "message": "callback could not be applied"})
	}
}
