// Package gateway opens payment collections with an external provider and
// turns its callbacks into payment results.
package gateway

import (
	"context"
	"errors"

	"ceremonify/models"
)

var (
	// ErrInvalidSignature is returned when a callback fails verification.
	ErrInvalidSignature = errors.New("invalid callback signature")
	// ErrIgnoredEvent is returned for callbacks that carry no payment outcome.
	ErrIgnoredEvent = errors.New("callback carries no payment result")
)

// CollectionRequest asks for a collection of one payment. Attempt numbers the
// tries for that payment, starting at 1.
type CollectionRequest struct {
	BookingID   string
	PaymentID   string
	PaymentType models.PaymentType
	Amount      int64
	Currency    string
	Description string
	Attempt     int
}

// Session is an open collection point the customer is redirected to.
type Session struct {
	SessionToken string `json:"sessionToken"`
	RedirectURL  string `json:"redirectUrl"`
}

type Outcome string

const (
	OutcomeSucceeded Outcome = "succeeded"
	OutcomeFailed    Outcome = "failed"
)

// PaymentResult is a verified gateway callback. Amount is in whole currency
// units; zero means the gateway did not report one.
type PaymentResult struct {
	SessionToken string  `json:"sessionToken"`
	PaymentID    string  `json:"paymentId"`
	Outcome      Outcome `json:"outcome"`
	Amount       int64   `json:"amount"`
}

type Gateway interface {
	OpenCollection(ctx context.Context, req CollectionRequest) (Session, error)
	ParseResult(payload []byte, signature string) (*PaymentResult, error)
}
