package models

import (
	"testing"
	"time"
)

func TestNewBookingDerivesDays(t *testing.T) {
	b, err := NewBooking(BookingParams{
		UserID: "u1", ProviderID: "p1",
		StartDate: "2025-06-16", EndDate: "2025-06-18",
		TimeSlot: "10:00", PaymentPreference: PayNow,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	if b.TotalDays != 3 || b.Status != BookingPending || b.ChannelStatus != ChannelPending {
		t.Fatalf("unexpected booking %+v", b)
	}
}

func TestNewBookingValidation(t *testing.T) {
	base := BookingParams{
		UserID: "u1", ProviderID: "p1",
		StartDate: "2025-06-16", EndDate: "2025-06-16",
		TimeSlot: "10:00", PaymentPreference: PayOnDelivery,
	}
	cases := map[string]func(*BookingParams){
		"inverted range": func(p *BookingParams) { p.EndDate = "2025-06-15" },
		"bad date":       func(p *BookingParams) { p.StartDate = "16-06-2025" },
		"bad slot":       func(p *BookingParams) { p.TimeSlot = "9:00" },
		"no user":        func(p *BookingParams) { p.UserID = "" },
		"no preference":  func(p *BookingParams) { p.PaymentPreference = "" },
	}
	for name, mutate := range cases {
		p := base
		mutate(&p)
		if _, err := NewBooking(p); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestParseDateRangeBounds(t *testing.T) {
	r, err := ParseDateRange("2024-01-01", "2024-12-31")
	if err != nil {
		t.Fatalf("leap year range rejected: %v", err)
	}
	if r.Days() != MaxBookingDays || len(r.Dates()) != r.Days() {
		t.Fatalf("Days() = %d, Dates() = %d", r.Days(), len(r.Dates()))
	}

	for _, end := range []string{"2025-01-01", "9999-12-31"} {
		if _, err := ParseDateRange("2024-01-01", end); err == nil {
			t.Errorf("range to %s accepted", end)
		}
	}
	if _, err := ParseDateRange("0001-01-01", "9999-12-31"); err == nil {
		t.Error("multi-millennium range accepted")
	}
}

func TestBookingStatusMachine(t *testing.T) {
	allowed := map[BookingStatus][]BookingStatus{
		BookingPending:   {BookingConfirmed, BookingRejected},
		BookingConfirmed: {BookingCompleted, BookingCancelled},
		BookingAccepted:  {BookingCompleted, BookingCancelled},
	}
	all := []BookingStatus{BookingPending, BookingConfirmed, BookingAccepted, BookingRejected, BookingCompleted, BookingCancelled}
	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				want = want || a == to
			}
			if got := from.CanTransitionTo(to); got != want {
				t.Errorf("%s -> %s: got %v, want %v", from, to, got, want)
			}
		}
	}
	for _, s := range []BookingStatus{BookingRejected, BookingCompleted, BookingCancelled} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	if BookingPending.Blocks() || BookingCancelled.Blocks() || !BookingAccepted.Blocks() {
		t.Error("unexpected blocking set")
	}
}

func TestClaimsForExpandsRange(t *testing.T) {
	b := Booking{ID: "b1", ProviderID: "p1", StartDate: "2025-02-27", EndDate: "2025-03-01", TimeSlot: "10:00", TotalDays: 3}
	claims, err := ClaimsFor(b)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"2025-02-27", "2025-02-28", "2025-03-01"}
	if len(claims) != len(want) {
		t.Fatalf("got %d claims", len(claims))
	}
	for i, c := range claims {
		if c.Date != want[i] || c.BookingID != "b1" {
			t.Errorf("claim %d: %+v", i, c)
		}
	}
}

func TestNewAvailabilitySlot(t *testing.T) {
	if _, err := NewAvailabilitySlot("p1", time.Monday, "17:00", "09:00"); err == nil {
		t.Error("inverted hours accepted")
	}
	if _, err := NewAvailabilitySlot("p1", time.Weekday(7), "09:00", "17:00"); err == nil {
		t.Error("day 7 accepted")
	}
	s, err := NewAvailabilitySlot("p1", time.Sunday, "09:00", "17:00")
	if err != nil {
		t.Fatal(err)
	}
	if !s.Covers(9*60) || !s.Covers(17*60) || s.Covers(17*60+1) {
		t.Error("bounds must be inclusive")
	}
}

func TestPaymentScheduleValidation(t *testing.T) {
	if _, err := NewPaymentSchedule("b1", []Milestone{{Percentage: 60}, {Percentage: 30}}); err == nil {
		t.Error("schedule summing to 90 accepted")
	}
	if _, err := NewPaymentSchedule("b1", []Milestone{{Percentage: 100}, {Percentage: 0}}); err == nil {
		t.Error("zero milestone accepted")
	}
	s, err := ScheduleForPolicy("b1", AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 40})
	if err != nil {
		t.Fatal(err)
	}
	if s.TotalMilestones != 2 || s.Milestones[1].Percentage != 60 || s.TypeOf(1) != PaymentAdvance || s.TypeOf(2) != PaymentFinal {
		t.Fatalf("unexpected schedule %+v", s)
	}
	full, _ := ScheduleForPolicy("b1", AdvancePolicy{})
	if full.TotalMilestones != 1 || full.Milestones[0].Description != FullDescription || full.TypeOf(1) != PaymentFinal {
		t.Fatalf("unexpected full schedule %+v", full)
	}
}
