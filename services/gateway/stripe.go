package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
)

// Stripe amounts are in minor units; bookings are priced in whole units.
const minorUnits = 100

// StripeGateway opens Stripe Checkout sessions. stripe.Key must be set by the caller.
type StripeGateway struct {
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
	Logger        *zap.Logger

	// newSession is swapped in tests.
	newSession func(*stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

func NewStripeGateway(webhookSecret, successURL, cancelURL string, logger *zap.Logger) *StripeGateway {
	return &StripeGateway{
		WebhookSecret: webhookSecret,
		SuccessURL:    successURL,
		CancelURL:     cancelURL,
		Logger:        logger,
		newSession:    session.New,
	}
}

func (g *StripeGateway) OpenCollection(ctx context.Context, req CollectionRequest) (Session, error) {
	if req.Amount <= 0 {
		return Session{}, fmt.Errorf("stripe: collection amount must be positive, got %d", req.Amount)
	}
	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(g.SuccessURL),
		CancelURL:         stripe.String(g.CancelURL),
		ClientReferenceID: stripe.String(req.PaymentID),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(strings.ToLower(req.Currency)),
				UnitAmount: stripe.Int64(req.Amount * minorUnits),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(req.Description),
				},
			},
			Quantity: stripe.Int64(1),
		}},
	}
	params.Context = ctx
	params.AddMetadata("booking_id", req.BookingID)
	params.AddMetadata("payment_id", req.PaymentID)
	params.AddMetadata("payment_type", string(req.PaymentType))
	// Stripe replays the first response for a reused key, so every attempt gets its own.
	params.SetIdempotencyKey(fmt.Sprintf("collection-%s-%d", req.PaymentID, req.Attempt))

	cs, err := g.newSession(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}
	g.Logger.Info("Stripe checkout session created",
		zap.String("bookingId", req.BookingID),
		zap.String("paymentId", req.PaymentID),
		zap.String("session", cs.ID))
	return Session{SessionToken: cs.ID, RedirectURL: cs.URL}, nil
}

// ParseResult verifies the Stripe-Signature header and maps checkout events
// onto payment results.
func (g *StripeGateway) ParseResult(payload []byte, signature string) (*PaymentResult, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, g.WebhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	var outcome Outcome
	switch string(event.Type) {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded":
		outcome = OutcomeSucceeded
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		outcome = OutcomeFailed
	default:
		return nil, fmt.Errorf("%w: %s", ErrIgnoredEvent, event.Type)
	}

	var cs stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &cs); err != nil {
		return nil, fmt.Errorf("stripe: failed to decode checkout session: %w", err)
	}
	// Delayed methods complete the session before money moves.
	if string(event.Type) == "checkout.session.completed" && cs.PaymentStatus == stripe.CheckoutSessionPaymentStatusUnpaid {
		return nil, fmt.Errorf("%w: session %s completed unpaid", ErrIgnoredEvent, cs.ID)
	}

	return &PaymentResult{
		SessionToken: cs.ID,
		PaymentID:    cs.Metadata["payment_id"],
		Outcome:      outcome,
		Amount:       cs.AmountTotal / minorUnits,
	}, nil
}
