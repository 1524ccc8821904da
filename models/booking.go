package models

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date layout used for booking ranges.
const DateLayout = "2006-01-02"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingAccepted  BookingStatus = "accepted"
	BookingRejected  BookingStatus = "rejected"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
)

// BlockingStatuses reserve a provider's date/time slot against other bookings.
var BlockingStatuses = []BookingStatus{BookingConfirmed, BookingAccepted, BookingCompleted}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingRejected},
	BookingConfirmed: {BookingCompleted, BookingCancelled},
	BookingAccepted:  {BookingCompleted, BookingCancelled},
}

// Blocks reports whether the status holds the slot.
func (s BookingStatus) Blocks() bool {
	for _, b := range BlockingStatuses {
		if s == b {
			return true
		}
	}
	return false
}

// Terminal reports whether no transition leaves the status.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, to := range bookingTransitions[s] {
		if to == next {
			return true
		}
	}
	return false
}

// ParseBookingStatus validates a status string.
func ParseBookingStatus(v string) (BookingStatus, error) {
	switch s := BookingStatus(v); s {
	case BookingPending, BookingConfirmed, BookingAccepted, BookingRejected, BookingCompleted, BookingCancelled:
		return s, nil
	}
	return "", fmt.Errorf("unknown booking status %q", v)
}

type PaymentPreference string

const (
	PayNow        PaymentPreference = "pay_now"
	PayOnDelivery PaymentPreference = "pay_on_delivery"
)

// Booking payment progress, derived from completed payments.
const (
	PaymentStatusUnpaid        = "unpaid"
	PaymentStatusPartiallyPaid = "partially_paid"
	PaymentStatusPaid          = "paid"
)

// Channel states on a booking.
const (
	ChannelCreated = "created"
	ChannelPending = "pending"
)

// Booking is one row of the booking ledger.
type Booking struct {
	ID                  string            `bson:"id" json:"id"`
	UserID              string            `bson:"user_id" json:"userId"`
	ProviderID          string            `bson:"provider_id" json:"providerId"`
	StartDate           string            `bson:"start_date" json:"startDate"`
	EndDate             string            `bson:"end_date" json:"endDate"`
	TimeSlot            string            `bson:"time_slot" json:"timeSlot"`
	TotalDays           int               `bson:"total_days" json:"totalDays"`
	TotalAmount         int64             `bson:"total_amount" json:"totalAmount"`
	AdvanceAmount       int64             `bson:"advance_amount" json:"advanceAmount"`
	FinalAmount         int64             `bson:"final_amount" json:"finalAmount"`
	Currency            string            `bson:"currency" json:"currency"`
	PaymentPreference   PaymentPreference `bson:"payment_preference" json:"paymentPreference"`
	SpecialRequirements string            `bson:"special_requirements,omitempty" json:"specialRequirements,omitempty"`
	Status              BookingStatus     `bson:"status" json:"status"`
	PaymentStatus       string            `bson:"payment_status" json:"paymentStatus"`
	ChannelStatus       string            `bson:"channel_status" json:"channelStatus"`
	CreatedAt           time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt           time.Time         `bson:"updated_at" json:"updatedAt"`
}

// BookingParams carries the caller-supplied fields of a new booking.
type BookingParams struct {
	UserID              string
	ProviderID          string
	StartDate           string
	EndDate             string
	TimeSlot            string
	SpecialRequirements string
	PaymentPreference   PaymentPreference
}

// DateRange is an inclusive span of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// MaxBookingDays bounds a single booking or availability query.
const MaxBookingDays = 366

const secondsPerDay = 24 * 60 * 60

// ParseDateRange parses and orders-checks a "YYYY-MM-DD" pair.
func ParseDateRange(start, end string) (DateRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return DateRange{}, fmt.Errorf("startDate %q must use YYYY-MM-DD format", start)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return DateRange{}, fmt.Errorf("endDate %q must use YYYY-MM-DD format", end)
	}
	if e.Before(s) {
		return DateRange{}, fmt.Errorf("endDate %s is before startDate %s", end, start)
	}
	r := DateRange{Start: s, End: e}
	if r.Days() > MaxBookingDays {
		return DateRange{}, fmt.Errorf("range %s to %s spans more than %d days", start, end, MaxBookingDays)
	}
	return r, nil
}

// Days returns the number of calendar days in the range, both ends included.
// Both ends are UTC midnights, so whole days divide the Unix difference exactly.
func (r DateRange) Days() int {
	return int((r.End.Unix()-r.Start.Unix())/secondsPerDay) + 1
}

// Dates lists every day of the range in order.
func (r DateRange) Dates() []time.Time {
	dates := make([]time.Time, 0, r.Days())
	for d := r.Start; !d.After(r.End); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// NewBooking validates params and returns a pending booking without pricing.
func NewBooking(p BookingParams) (*Booking, error) {
	if p.UserID == "" {
		return nil, fmt.Errorf("userId is required")
	}
	if p.ProviderID == "" {
		return nil, fmt.Errorf("providerId is required")
	}
	r, err := ParseDateRange(p.StartDate, p.EndDate)
	if err != nil {
		return nil, err
	}
	if _, err := ParseClock(p.TimeSlot); err != nil {
		return nil, fmt.Errorf("invalid timeSlot: %w", err)
	}
	switch p.PaymentPreference {
	case PayNow, PayOnDelivery:
	default:
		return nil, fmt.Errorf("paymentPreference must be %q or %q", PayNow, PayOnDelivery)
	}

	now := time.Now()
	return &Booking{
		UserID:              p.UserID,
		ProviderID:          p.ProviderID,
		StartDate:           p.StartDate,
		EndDate:             p.EndDate,
		TimeSlot:            p.TimeSlot,
		TotalDays:           r.Days(),
		PaymentPreference:   p.PaymentPreference,
		SpecialRequirements: p.SpecialRequirements,
		Status:              BookingPending,
		PaymentStatus:       PaymentStatusUnpaid,
		ChannelStatus:       ChannelPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}, nil
}

// Range returns the booking's parsed date range.
func (b Booking) Range() (DateRange, error) {
	return ParseDateRange(b.StartDate, b.EndDate)
}

// SlotClaim reserves one provider/date/time slot for a blocking booking.
type SlotClaim struct {
	ProviderID string    `bson:"provider_id" json:"providerId"`
	Date       string    `bson:"date" json:"date"`
	TimeSlot   string    `bson:"time_slot" json:"timeSlot"`
	BookingID  string    `bson:"booking_id" json:"bookingId"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// ClaimsFor expands a booking into one claim per day.
func ClaimsFor(b Booking) ([]SlotClaim, error) {
	r, err := b.Range()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	claims := make([]SlotClaim, 0, b.TotalDays)
	for _, d := range r.Dates() {
		claims = append(claims, SlotClaim{
			ProviderID: b.ProviderID,
			Date:       d.Format(DateLayout),
			TimeSlot:   b.TimeSlot,
			BookingID:  b.ID,
			CreatedAt:  now,
		})
	}
	return claims, nil
}
