package availability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	memoryRepo "ceremonify/database/repository/memory"
	"ceremonify/models"
)

// 2025-06-16 is a Monday.
const (
	monday    = "2025-06-16"
	tuesday   = "2025-06-17"
	wednesday = "2025-06-18"
)

func weekdayHours(t *testing.T, store *memoryRepo.Store, days ...time.Weekday) {
	t.Helper()
	for _, d := range days {
		slot, err := models.NewAvailabilitySlot("p1", d, "09:00", "17:00")
		if err != nil {
			t.Fatalf("NewAvailabilitySlot: %v", err)
		}
		if err := store.Availability().Upsert(context.Background(), *slot); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}
}

func confirmedBooking(t *testing.T, store *memoryRepo.Store, id, date, slot string) {
	t.Helper()
	ctx := context.Background()
	b, err := models.NewBooking(models.BookingParams{
		UserID: "u2", ProviderID: "p1", StartDate: date, EndDate: date,
		TimeSlot: slot, PaymentPreference: models.PayOnDelivery,
	})
	if err != nil {
		t.Fatal(err)
	}
	b.ID = id
	if err := store.Bookings().Create(ctx, b); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Bookings().UpdateStatus(ctx, id, models.BookingPending, models.BookingConfirmed); err != nil {
		t.Fatal(err)
	}
}

func TestIsAdmissibleOpenWeek(t *testing.T) {
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Monday, time.Tuesday, time.Wednesday)
	checker := NewChecker(store.Availability(), store.Bookings())

	res, err := checker.IsAdmissible(context.Background(), "p1", monday, wednesday, "10:00")
	if err != nil {
		t.Fatalf("IsAdmissible: %v", err)
	}
	if !res.Admissible {
		t.Fatalf("expected admissible, got %+v", res)
	}
}

func TestIsAdmissibleRejectsBookedDay(t *testing.T) {
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Monday, time.Tuesday, time.Wednesday)
	confirmedBooking(t, store, "existing", tuesday, "10:00")
	checker := NewChecker(store.Availability(), store.Bookings())

	res, err := checker.IsAdmissible(context.Background(), "p1", monday, wednesday, "10:00")
	if err != nil {
		t.Fatalf("IsAdmissible: %v", err)
	}
	if res.Admissible {
		t.Fatal("expected rejection")
	}
	if res.Date != tuesday || !strings.Contains(res.Reason, "Tuesday") {
		t.Fatalf("reason should reference Tuesday, got %+v", res)
	}
}

func TestIsAdmissiblePendingDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Tuesday)
	b, _ := models.NewBooking(models.BookingParams{
		UserID: "u2", ProviderID: "p1", StartDate: tuesday, EndDate: tuesday,
		TimeSlot: "10:00", PaymentPreference: models.PayNow,
	})
	b.ID = "pending"
	store.Bookings().Create(ctx, b)

	res, err := NewChecker(store.Availability(), store.Bookings()).IsAdmissible(ctx, "p1", tuesday, tuesday, "10:00")
	if err != nil || !res.Admissible {
		t.Fatalf("pending booking must not block: %+v %v", res, err)
	}
}

func TestIsAdmissibleWorkingHours(t *testing.T) {
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Monday)
	checker := NewChecker(store.Availability(), store.Bookings())

	cases := []struct {
		slot string
		ok   bool
	}{
		{"08:59", false},
		{"09:00", true},
		{"17:00", true},
		{"17:01", false},
	}
	for _, tc := range cases {
		res, err := checker.IsAdmissible(context.Background(), "p1", monday, monday, tc.slot)
		if err != nil {
			t.Fatalf("%s: %v", tc.slot, err)
		}
		if res.Admissible != tc.ok {
			t.Errorf("slot %s: admissible=%v, want %v (%s)", tc.slot, res.Admissible, tc.ok, res.Reason)
		}
	}
}

func TestIsAdmissibleNoHours(t *testing.T) {
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Monday)

	res, err := NewChecker(store.Availability(), store.Bookings()).IsAdmissible(context.Background(), "p1", monday, tuesday, "10:00")
	if err != nil {
		t.Fatal(err)
	}
	if res.Admissible || res.Reason != "provider unavailable on Tuesday "+tuesday {
		t.Fatalf("unexpected result %+v", res)
	}
}

type countingSlots struct {
	availabilityRepo.AvailabilityRepository
	calls int
	err   error
}

func (s *countingSlots) Get(ctx context.Context, providerID string, day time.Weekday) (*models.AvailabilitySlot, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.AvailabilityRepository.Get(ctx, providerID, day)
}

func TestIsAdmissibleShortCircuits(t *testing.T) {
	store := memoryRepo.NewStore()
	weekdayHours(t, store, time.Tuesday)
	slots := &countingSlots{AvailabilityRepository: store.Availability()}

	res, _ := NewChecker(slots, store.Bookings()).IsAdmissible(context.Background(), "p1", monday, wednesday, "10:00")
	if res.Admissible || res.Date != monday {
		t.Fatalf("expected Monday rejection, got %+v", res)
	}
	if slots.calls != 1 {
		t.Fatalf("expected one store read, got %d", slots.calls)
	}
}

type panicBookings struct{ bookingRepo.BookingRepository }

func (panicBookings) FindBlocking(context.Context, string, string, string) ([]models.Booking, error) {
	panic("store must not be read")
}

func TestIsAdmissibleValidatesFirst(t *testing.T) {
	slots := &countingSlots{err: errors.New("unreachable")}
	checker := NewChecker(slots, panicBookings{})

	for _, q := range [][3]string{
		{wednesday, monday, "10:00"},
		{monday, wednesday, "10am"},
		{"16/06/2025", wednesday, "10:00"},
	} {
		_, err := checker.IsAdmissible(context.Background(), "p1", q[0], q[1], q[2])
		if !errors.Is(err, ErrInvalidQuery) {
			t.Errorf("%v: expected ErrInvalidQuery, got %v", q, err)
		}
	}
	if slots.calls != 0 {
		t.Fatalf("store was read %d times", slots.calls)
	}
}

func TestIsAdmissibleStoreError(t *testing.T) {
	boom := errors.New("connection reset")
	checker := NewChecker(&countingSlots{err: boom}, panicBookings{})

	_, err := checker.IsAdmissible(context.Background(), "p1", monday, monday, "10:00")
	if !errors.Is(err, boom) {
		t.Fatalf("expected store error, got %v", err)
	}
}
