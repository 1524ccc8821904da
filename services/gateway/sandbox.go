package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SandboxGateway simulates a checkout provider for local runs. Callbacks are
// plain JSON PaymentResults signed with hex(HMAC-SHA256(secret, body)). An
// empty secret rejects every callback.
type SandboxGateway struct {
	Secret  string
	BaseURL string
	Logger  *zap.Logger
}

func NewSandboxGateway(secret, baseURL string, logger *zap.Logger) *SandboxGateway {
	return &SandboxGateway{Secret: secret, BaseURL: baseURL, Logger: logger}
}

func (g *SandboxGateway) OpenCollection(_ context.Context, req CollectionRequest) (Session, error) {
	if req.Amount <= 0 {
		return Session{}, fmt.Errorf("sandbox: collection amount must be positive, got %d", req.Amount)
	}
	token := "cs_sandbox_" + uuid.New().String()
	redirect := g.BaseURL + "?session=" + url.QueryEscape(token)

	g.Logger.Info("Sandbox collection opened",
		zap.String("bookingId", req.BookingID),
		zap.String("paymentId", req.PaymentID),
		zap.Int64("amount", req.Amount),
		zap.String("session", token))
	return Session{SessionToken: token, RedirectURL: redirect}, nil
}

func (g *SandboxGateway) ParseResult(payload []byte, signature string) (*PaymentResult, error) {
	if g.Secret == "" || !hmac.Equal([]byte(signature), []byte(g.Sign(payload))) {
		return nil, ErrInvalidSignature
	}
	var res PaymentResult
	if err := json.Unmarshal(payload, &res); err != nil {
		return nil, fmt.Errorf("sandbox: invalid callback body: %w", err)
	}
	switch res.Outcome {
	case OutcomeSucceeded, OutcomeFailed:
	default:
		return nil, fmt.Errorf("%w: outcome %q", ErrIgnoredEvent, res.Outcome)
	}
	if res.SessionToken == "" && res.PaymentID == "" {
		return nil, fmt.Errorf("sandbox: callback names no session or payment")
	}
	return &res, nil
}

// Sign returns the signature ParseResult expects for payload.
func (g *SandboxGateway) Sign(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(g.Secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}
