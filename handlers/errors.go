package handlers

import (
	"errors"
	"net/http"

	"ceremonify/database/repository"
	"ceremonify/services/availability"
	"ceremonify/services/booking"
	"ceremonify/services/payment"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var admissionStatus = map[booking.AdmissionKind]int{
	booking.SlotUnavailable:  http.StatusConflict,
	booking.InvalidRange:     http.StatusBadRequest,
	booking.InvalidRequest:   http.StatusBadRequest,
	booking.ProviderNotFound: http.StatusNotFound,
}

// respondError maps service errors onto HTTP replies. Collection failures are
// not errors to the client and are answered by the caller with 202.
func respondError(c *gin.Context, err error) {
	var ae *booking.AdmissionError
	if errors.As(err, &ae) {
		body := gin.H{"error": string(ae.Kind), "message": ae.Message}
		if ae.Date != "" {
			body["date"] = ae.Date
		}
		c.JSON(admissionStatus[ae.Kind], body)
		return
	}

	status, code := http.StatusInternalServerError, "internalError"
	switch {
	case errors.Is(err, availability.ErrInvalidQuery):
		status, code = http.StatusBadRequest, string(booking.InvalidRequest)
	case errors.Is(err, booking.ErrBookingNotFound):
		status, code = http.StatusNotFound, "bookingNotFound"
	case errors.Is(err, payment.ErrPaymentNotFound):
		status, code = http.StatusNotFound, "paymentNotFound"
	case errors.Is(err, repository.ErrNotFound):
		status, code = http.StatusNotFound, "notFound"
	case errors.Is(err, booking.ErrInvalidTransition):
		status, code = http.StatusConflict, "invalidTransition"
	case errors.Is(err, booking.ErrStatusConflict):
		status, code = http.StatusConflict, "statusConflict"
	case errors.Is(err, payment.ErrExceedsRemainingBalance):
		status, code = http.StatusUnprocessableEntity, "exceedsRemainingBalance"
	case errors.Is(err, payment.ErrInvalidAmount):
		status, code = http.StatusBadRequest, "invalidAmount"
	case errors.Is(err, payment.ErrNothingDue):
		status, code = http.StatusConflict, "nothingDue"
	case errors.Is(err, payment.ErrNotPayable):
		status, code = http.StatusConflict, "notPayable"
	case errors.Is(err, payment.ErrPaymentNotPending):
		status, code = http.StatusConflict, "paymentNotPending"
	}

	if status >= http.StatusInternalServerError {
		getLogger(c).Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": code, "message": "An unexpected error occurred"})
		return
	}
	c.JSON(status, gin.H{"error": code, "message": err.Error()})
}

// collectionPending answers 202 when the record was written but the gateway
// could not be reached yet. It reports false for any other error.
func collectionPending(c *gin.Context, err error, body gin.H) bool {
	var ce *payment.CollectionError
	if !errors.As(err, &ce) {
		return false
	}
	getLogger(c).Warn("Collection pending retry", zap.String("bookingId", ce.BookingID), zap.Error(ce.Err))
	if body == nil {
		body = gin.H{}
	}
	if ce.Payment != nil {
		body["payment"] = ce.Payment
	}
	body["paymentPendingRetry"] = true
	body["message"] = "Payment collection could not be opened yet and will be retried"
	c.JSON(http.StatusAccepted, body)
	return true
}
