package models

import (
	"fmt"
	"time"
)

// AdvancePolicy is a provider's advance-payment rule.
type AdvancePolicy struct {
	RequiresAdvancePayment   bool    `bson:"requires_advance_payment" json:"requiresAdvancePayment"`
	AdvancePaymentPercentage float64 `bson:"advance_payment_percentage" json:"advancePaymentPercentage"`
}

// NewAdvancePolicy validates the percentage range.
func NewAdvancePolicy(required bool, percentage float64) (AdvancePolicy, error) {
	if percentage < 0 || percentage > 100 {
		return AdvancePolicy{}, fmt.Errorf("advancePaymentPercentage must be within [0, 100], got %v", percentage)
	}
	return AdvancePolicy{
		RequiresAdvancePayment:   required,
		AdvancePaymentPercentage: percentage,
	}, nil
}

// Splits reports whether the policy produces a separate advance portion.
func (p AdvancePolicy) Splits() bool {
	return p.RequiresAdvancePayment && p.AdvancePaymentPercentage > 0
}

// Provider is the slice of a provider profile the booking engine reads.
type Provider struct {
	ID            string        `bson:"id" json:"id"`
	Name          string        `bson:"name" json:"name"`
	BasePrice     int64         `bson:"base_price" json:"basePrice"` // per day
	Currency      string        `bson:"currency" json:"currency"`
	AdvancePolicy AdvancePolicy `bson:"advance_policy" json:"advancePolicy"`
	UpdatedAt     time.Time     `bson:"updated_at" json:"updatedAt"`
}
