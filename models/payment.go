package models

import (
	"fmt"
	"math"
	"time"
)

type PaymentType string

const (
	PaymentAdvance PaymentType = "advance"
	PaymentFinal   PaymentType = "final"
)

type PaymentState string

const (
	PaymentPending   PaymentState = "pending"
	PaymentCompleted PaymentState = "completed"
	PaymentFailed    PaymentState = "failed"
)

// Milestone descriptions used by generated schedules.
const (
	AdvanceDescription = "Advance payment"
	FinalDescription   = "Final payment"
	FullDescription    = "Full payment"
)

const percentageTolerance = 1e-9

// Milestone is one percentage-denominated portion of a booking's total.
type Milestone struct {
	Percentage  float64 `bson:"percentage" json:"percentage"`
	Description string  `bson:"description" json:"description"`
}

// PaymentSchedule tracks which milestone of a booking is due next.
// CurrentMilestone is 1-based; TotalMilestones+1 means fully paid.
type PaymentSchedule struct {
	BookingID            string      `bson:"booking_id" json:"bookingId"`
	TotalMilestones      int         `bson:"total_milestones" json:"totalMilestones"`
	CurrentMilestone     int         `bson:"current_milestone" json:"currentMilestone"`
	Milestones           []Milestone `bson:"milestones" json:"milestones"`
	LastAppliedPaymentID string      `bson:"last_applied_payment_id,omitempty" json:"lastAppliedPaymentId,omitempty"`
	AppliedPaymentIDs    []string    `bson:"applied_payment_ids" json:"-"`
	CreatedAt            time.Time   `bson:"created_at" json:"createdAt"`
	UpdatedAt            time.Time   `bson:"updated_at" json:"updatedAt"`
}

// NewPaymentSchedule validates that percentages are positive and sum to 100.
func NewPaymentSchedule(bookingID string, milestones []Milestone) (*PaymentSchedule, error) {
	if bookingID == "" {
		return nil, fmt.Errorf("bookingId is required")
	}
	if len(milestones) == 0 {
		return nil, fmt.Errorf("schedule needs at least one milestone")
	}
	sum := 0.0
	for i, m := range milestones {
		if m.Percentage <= 0 {
			return nil, fmt.Errorf("milestone %d percentage must be positive, got %v", i+1, m.Percentage)
		}
		sum += m.Percentage
	}
	if math.Abs(sum-100) > percentageTolerance {
		return nil, fmt.Errorf("milestone percentages must sum to 100, got %v", sum)
	}

	now := time.Now()
	return &PaymentSchedule{
		BookingID:         bookingID,
		TotalMilestones:   len(milestones),
		CurrentMilestone:  1,
		Milestones:        append([]Milestone(nil), milestones...),
		AppliedPaymentIDs: []string{},
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// DefaultPaymentSchedule is the 50/50 advance/final schedule.
func DefaultPaymentSchedule(bookingID string) (*PaymentSchedule, error) {
	return NewPaymentSchedule(bookingID, []Milestone{
		{Percentage: 50, Description: AdvanceDescription},
		{Percentage: 50, Description: FinalDescription},
	})
}

// ScheduleForPolicy derives milestones from a provider advance policy.
func ScheduleForPolicy(bookingID string, policy AdvancePolicy) (*PaymentSchedule, error) {
	if !policy.Splits() || policy.AdvancePaymentPercentage >= 100 {
		return NewPaymentSchedule(bookingID, []Milestone{{Percentage: 100, Description: FullDescription}})
	}
	return NewPaymentSchedule(bookingID, []Milestone{
		{Percentage: policy.AdvancePaymentPercentage, Description: AdvanceDescription},
		{Percentage: 100 - policy.AdvancePaymentPercentage, Description: FinalDescription},
	})
}

// FullyPaid reports whether every milestone has been collected.
func (s PaymentSchedule) FullyPaid() bool {
	return s.CurrentMilestone > s.TotalMilestones
}

// Applied reports whether a payment already advanced the schedule.
func (s PaymentSchedule) Applied(paymentID string) bool {
	for _, id := range s.AppliedPaymentIDs {
		if id == paymentID {
			return true
		}
	}
	return false
}

// TypeOf returns the payment type collected for milestone i (1-based).
func (s PaymentSchedule) TypeOf(i int) PaymentType {
	if i >= s.TotalMilestones {
		return PaymentFinal
	}
	return PaymentAdvance
}

// Payment is one collection attempt against a booking.
// Milestone is zero for provider-requested ad-hoc payments.
type Payment struct {
	ID                  string       `bson:"id" json:"id"`
	BookingID           string       `bson:"booking_id" json:"bookingId"`
	Amount              int64        `bson:"amount" json:"amount"`
	RequestedAmount     int64        `bson:"requested_amount" json:"requestedAmount"`
	Currency            string       `bson:"currency" json:"currency"`
	PaymentType         PaymentType  `bson:"payment_type" json:"paymentType"`
	Status              PaymentState `bson:"status" json:"status"`
	IsProviderRequested bool         `bson:"is_provider_requested" json:"isProviderRequested"`
	Description         string       `bson:"description" json:"description"`
	Milestone           int          `bson:"milestone" json:"milestone,omitempty"`
	SessionToken        string       `bson:"session_token,omitempty" json:"sessionToken,omitempty"`
	RedirectURL         string       `bson:"redirect_url,omitempty" json:"redirectUrl,omitempty"`
	CollectionAttempts  int          `bson:"collection_attempts" json:"collectionAttempts,omitempty"`
	CreatedAt           time.Time    `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time    `bson:"updated_at" json:"updatedAt"`
	CompletedAt         *time.Time   `bson:"completed_at,omitempty" json:"completedAt,omitempty"`
}

// Obligation is what the customer currently owes on the schedule.
type Obligation struct {
	BookingID   string      `json:"bookingId"`
	Milestone   int         `json:"milestone"`
	Percentage  float64     `json:"percentage"`
	Description string      `json:"description"`
	Amount      int64       `json:"amount"`
	PaymentType PaymentType `json:"paymentType"`
}
