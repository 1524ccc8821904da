package pricing

import (
	"fmt"
	"math"

	"ceremonify/models"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Pricing holds the monetary terms of a booking.
type Pricing struct {
	TotalAmount   int64 `json:"totalAmount"`
	AdvanceAmount int64 `json:"advanceAmount"`
	FinalAmount   int64 `json:"finalAmount"`
}

// RoundHalfUp rounds to the nearest currency unit, halves away from zero.
func RoundHalfUp(v float64) int64 {
	return decimal.NewFromFloat(v).Round(0).IntPart()
}

// Portion returns round(total * percentage / 100), computed in decimal so
// percentages like 33.33 do not pick up binary rounding error.
func Portion(total int64, percentage float64) int64 {
	return decimal.NewFromInt(total).
		Mul(decimal.NewFromFloat(percentage)).
		Div(hundred).
		Round(0).
		IntPart()
}

// ComputePricing multiplies the daily rate by the booked days and splits the
// total per the provider's advance policy. Advance + Final always equals Total.
func ComputePricing(basePrice int64, totalDays int, policy models.AdvancePolicy) (Pricing, error) {
	if basePrice < 0 {
		return Pricing{}, fmt.Errorf("base price must not be negative, got %d", basePrice)
	}
	if totalDays < 1 {
		return Pricing{}, fmt.Errorf("total days must be at least 1, got %d", totalDays)
	}
	if basePrice > 0 && int64(totalDays) > math.MaxInt64/basePrice {
		return Pricing{}, fmt.Errorf("total for %d days at %d overflows", totalDays, basePrice)
	}
	return Split(basePrice*int64(totalDays), policy)
}

// Split divides a total into advance and final portions.
func Split(total int64, policy models.AdvancePolicy) (Pricing, error) {
	if policy.AdvancePaymentPercentage < 0 || policy.AdvancePaymentPercentage > 100 {
		return Pricing{}, fmt.Errorf("advance percentage %v outside [0, 100]", policy.AdvancePaymentPercentage)
	}
	p := Pricing{TotalAmount: total, FinalAmount: total}
	if policy.RequiresAdvancePayment {
		p.AdvanceAmount = Portion(total, policy.AdvancePaymentPercentage)
		p.FinalAmount = total - p.AdvanceAmount
	}
	return p, nil
}

// MilestoneAmounts prices every milestone of a schedule. All but the last are
// rounded independently; the last takes whatever is left so the amounts sum
// to total exactly.
func MilestoneAmounts(total int64, milestones []models.Milestone) []int64 {
	amounts := make([]int64, len(milestones))
	var allocated int64
	for i, m := range milestones {
		if i == len(milestones)-1 {
			amounts[i] = total - allocated
			break
		}
		amounts[i] = Portion(total, m.Percentage)
		allocated += amounts[i]
	}
	return amounts
}
