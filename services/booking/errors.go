package booking

import (
	"errors"
	"fmt"

	"ceremonify/services/payment"
)

type AdmissionKind string

const (
	SlotUnavailable  AdmissionKind = "slotUnavailable"
	InvalidRange     AdmissionKind = "invalidRange"
	InvalidRequest   AdmissionKind = "invalidRequest"
	ProviderNotFound AdmissionKind = "providerNotFound"
)

// AdmissionError rejects a booking before anything is written. Date is the
// first offending day for SlotUnavailable.
type AdmissionError struct {
	Kind    AdmissionKind
	Message string
	Date    string
}

func (e *AdmissionError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func NewAdmissionError(kind AdmissionKind, msg string) error {
	return &AdmissionError{Kind: kind, Message: msg}
}

// IsAdmission reports whether err is an AdmissionError of kind.
func IsAdmission(err error, kind AdmissionKind) bool {
	var ae *AdmissionError
	return errors.As(err, &ae) && ae.Kind == kind
}

var (
	ErrBookingNotFound   = payment.ErrBookingNotFound
	ErrInvalidTransition = errors.New("invalid booking status transition")
	// ErrStatusConflict means the booking changed status while the transition was in flight.
	ErrStatusConflict = errors.New("booking status changed concurrently")
)
