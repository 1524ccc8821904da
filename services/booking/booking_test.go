package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	availabilityRepo "ceremonify/database/repository/availability"
	bookingRepo "ceremonify/database/repository/booking"
	channelRepo "ceremonify/database/repository/channel"
	memoryRepo "ceremonify/database/repository/memory"
	providerRepo "ceremonify/database/repository/provider"
	"ceremonify/models"
	"ceremonify/services/availability"
	"ceremonify/services/gateway"
	"ceremonify/services/payment"
	"ceremonify/services/tasks"

	"go.uber.org/zap"
)

type stubGateway struct {
	fail  error
	calls int
}

func (g *stubGateway) OpenCollection(_ context.Context, req gateway.CollectionRequest) (gateway.Session, error) {
	g.calls++
	if g.fail != nil {
		return gateway.Session{}, g.fail
	}
	return gateway.Session{SessionToken: "cs_" + req.PaymentID, RedirectURL: "https://pay/" + req.PaymentID}, nil
}

func (g *stubGateway) ParseResult([]byte, string) (*gateway.PaymentResult, error) {
	return nil, gateway.ErrIgnoredEvent
}

type recordingScheduler struct {
	mu       sync.Mutex
	channels []string
	payments []tasks.CollectionPayload
}

func (r *recordingScheduler) ScheduleChannelRetry(_ context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels = append(r.channels, bookingID)
	return nil
}

func (r *recordingScheduler) ScheduleCollectionRetry(_ context.Context, p tasks.CollectionPayload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payments = append(r.payments, p)
	return nil
}

type fixture struct {
	store   *memoryRepo.Store
	gw      *stubGateway
	retries *recordingScheduler
	svc     *DefaultBookingService
}

func newFixture(t *testing.T, policy models.AdvancePolicy) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memoryRepo.NewStore()
	f := &fixture{store: store, gw: &stubGateway{}, retries: &recordingScheduler{}}

	tracker := &payment.DefaultTracker{
		Payments:  store.Payments(),
		Bookings:  store.Bookings(),
		Providers: store.Providers(),
		Gateway:   f.gw,
		Retries:   f.retries,
		Logger:    zap.NewNop(),
	}
	f.svc = &DefaultBookingService{
		Bookings:        store.Bookings(),
		Providers:       store.Providers(),
		Channels:        store.Channels(),
		Availability:    store.Availability(),
		Checker:         availability.NewChecker(store.Availability(), store.Bookings()),
		Tracker:         tracker,
		Retries:         f.retries,
		Logger:          zap.NewNop(),
		DefaultCurrency: "usd",
	}

	if err := store.Providers().Save(ctx, &models.Provider{ID: "p1", Name: "Golden Hour Events", BasePrice: 1000, AdvancePolicy: policy}); err != nil {
		t.Fatal(err)
	}
	for _, d := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday} {
		if _, err := f.svc.SetAvailability(ctx, models.AvailabilitySlot{ProviderID: "p1", DayOfWeek: d, StartTime: "09:00", EndTime: "17:00"}); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

// 2025-06-16 is a Monday.
func request(start, end string, pref models.PaymentPreference) CreateBookingRequest {
	return CreateBookingRequest{
		UserID: "u1", ProviderID: "p1", StartDate: start, EndDate: end,
		TimeSlot: "10:00", PaymentPreference: pref,
	}
}

func TestCreateBookingAdmitsOpenRange(t *testing.T) {
	f := newFixture(t, models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 40})

	b, err := f.svc.CreateBooking(context.Background(), request("2025-06-16", "2025-06-18", models.PayNow))
	if err != nil {
		t.Fatalf("CreateBooking: %v", err)
	}
	if b.TotalDays != 3 || b.Status != models.BookingPending {
		t.Fatalf("unexpected booking %+v", b)
	}
	if b.TotalAmount != 3000 || b.AdvanceAmount != 1200 || b.FinalAmount != 1800 || b.Currency != "usd" {
		t.Fatalf("unexpected pricing %+v", b)
	}
	if b.ChannelStatus != models.ChannelCreated {
		t.Fatalf("expected channel created, got %s", b.ChannelStatus)
	}
	if _, err := f.store.Channels().GetByBookingID(context.Background(), b.ID); err != nil {
		t.Fatalf("channel not stored: %v", err)
	}
}

func TestCreateBookingRejectsBookedDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})

	existing, err := f.svc.CreateBooking(ctx, request("2025-06-17", "2025-06-17", models.PayOnDelivery))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, existing.ID, models.BookingConfirmed); err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-18", models.PayNow))
	var ae *AdmissionError
	if !errors.As(err, &ae) || ae.Kind != SlotUnavailable {
		t.Fatalf("expected SlotUnavailable, got %v", err)
	}
	if ae.Date != "2025-06-17" || !strings.Contains(ae.Message, "Tuesday") {
		t.Fatalf("rejection should name Tuesday, got %+v", ae)
	}
}

type panicBookings struct{ bookingRepo.BookingRepository }

func (panicBookings) Create(context.Context, *models.Booking) error { panic("unexpected write") }

func (panicBookings) FindBlocking(context.Context, string, string, string) ([]models.Booking, error) {
	panic("unexpected read")
}

type panicProviders struct{ providerRepo.ProviderRepository }

func (panicProviders) GetByID(context.Context, string) (*models.Provider, error) {
	panic("unexpected read")
}

type panicSlots struct{ availabilityRepo.AvailabilityRepository }

func (panicSlots) Get(context.Context, string, time.Weekday) (*models.AvailabilitySlot, error) {
	panic("unexpected read")
}

func TestCreateBookingValidatesBeforeStoreAccess(t *testing.T) {
	svc := &DefaultBookingService{
		Bookings:  panicBookings{},
		Providers: panicProviders{},
		Checker:   availability.NewChecker(panicSlots{}, panicBookings{}),
		Logger:    zap.NewNop(),
	}

	_, err := svc.CreateBooking(context.Background(), request("2025-06-18", "2025-06-16", models.PayNow))
	if !IsAdmission(err, InvalidRange) {
		t.Fatalf("expected InvalidRange, got %v", err)
	}

	_, err = svc.CreateBooking(context.Background(), request("0001-01-01", "9999-12-31", models.PayNow))
	if !IsAdmission(err, InvalidRange) {
		t.Fatalf("expected InvalidRange for an oversized range, got %v", err)
	}

	bad := request("2025-06-16", "2025-06-16", models.PayNow)
	bad.TimeSlot = "25:00"
	if _, err := svc.CreateBooking(context.Background(), bad); !IsAdmission(err, InvalidRequest) {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
}

func TestCreateBookingUnknownProvider(t *testing.T) {
	f := newFixture(t, models.AdvancePolicy{})
	req := request("2025-06-16", "2025-06-16", models.PayNow)
	req.ProviderID = "nobody"

	if _, err := f.svc.CreateBooking(context.Background(), req); !IsAdmission(err, ProviderNotFound) {
		t.Fatalf("expected ProviderNotFound, got %v", err)
	}
}

type failingChannels struct{ channelRepo.ChannelRepository }

func (failingChannels) Create(context.Context, *models.Channel) error {
	return errors.New("chat backend unavailable")
}

func TestCreateBookingChannelFailureIsDeferred(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})
	f.svc.Channels = failingChannels{f.store.Channels()}

	b, err := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayNow))
	if err != nil {
		t.Fatalf("channel failure must not fail the booking: %v", err)
	}
	if b.ChannelStatus != models.ChannelPending {
		t.Fatalf("expected channel pending, got %s", b.ChannelStatus)
	}
	if len(f.retries.channels) != 1 || f.retries.channels[0] != b.ID {
		t.Fatalf("expected a channel retry, got %v", f.retries.channels)
	}
	pending, _ := f.svc.ListChannelPending(ctx, 10)
	if len(pending) != 1 {
		t.Fatalf("expected one pending channel, got %d", len(pending))
	}

	f.svc.Channels = f.store.Channels()
	if err := f.svc.EnsureChannel(ctx, b.ID); err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	if err := f.svc.EnsureChannel(ctx, b.ID); err != nil {
		t.Fatalf("EnsureChannel must be idempotent: %v", err)
	}
	stored, _ := f.svc.GetBooking(ctx, b.ID)
	if stored.ChannelStatus != models.ChannelCreated {
		t.Fatalf("expected channel created, got %s", stored.ChannelStatus)
	}
}

func TestConfirmPayNowOpensFirstCollection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 40})
	b, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-18", models.PayNow))

	// Policy changes after booking; the first collection follows the current one.
	f.svc.UpdateAdvancePolicy(ctx, "p1", models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 50})

	confirmed, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if confirmed.Status != models.BookingConfirmed {
		t.Fatalf("unexpected status %s", confirmed.Status)
	}
	payments, _ := f.svc.Tracker.ListPayments(ctx, b.ID)
	if len(payments) != 1 || payments[0].RequestedAmount != 1500 || payments[0].SessionToken == "" {
		t.Fatalf("unexpected payments %+v", payments)
	}
}

func TestConfirmPayOnDeliveryOpensNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 40})
	b, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayOnDelivery))

	if _, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed); err != nil {
		t.Fatal(err)
	}
	if f.gw.calls != 0 {
		t.Fatalf("expected no gateway call, got %d", f.gw.calls)
	}
}

func TestConfirmGatewayFailureKeepsConfirmation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 40})
	b, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayNow))
	f.gw.fail = errors.New("gateway timeout")

	confirmed, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed)
	if !errors.Is(err, payment.ErrGatewayUnavailable) {
		t.Fatalf("expected gateway error, got %v", err)
	}
	if confirmed == nil || confirmed.Status != models.BookingConfirmed {
		t.Fatalf("booking must stay confirmed, got %+v", confirmed)
	}
	stored, _ := f.svc.GetBooking(ctx, b.ID)
	if stored.Status != models.BookingConfirmed {
		t.Fatalf("stored status %s", stored.Status)
	}
	if len(f.retries.payments) != 1 {
		t.Fatalf("expected a collection retry, got %v", f.retries.payments)
	}
}

func TestTransitionRules(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})
	b, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayOnDelivery))

	if _, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingCompleted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> completed: %v", err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingAccepted); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending -> accepted: %v", err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingRejected); err != nil {
		t.Fatal(err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("rejected is terminal: %v", err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, "missing", models.BookingConfirmed); !errors.Is(err, ErrBookingNotFound) {
		t.Fatalf("expected ErrBookingNotFound, got %v", err)
	}
}

func TestConcurrentConfirmationsClaimOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})

	var ids []string
	for i := 0; i < 5; i++ {
		b, err := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-17", models.PayOnDelivery))
		if err != nil {
			t.Fatalf("pending bookings must not block each other: %v", err)
		}
		ids = append(ids, b.ID)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      int
		rejected int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_, err := f.svc.TransitionBookingStatus(ctx, id, models.BookingConfirmed)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case IsAdmission(err, SlotUnavailable):
				rejected++
			default:
				t.Errorf("unexpected error %v", err)
			}
		}(id)
	}
	wg.Wait()

	if won != 1 || rejected != len(ids)-1 {
		t.Fatalf("won=%d rejected=%d", won, rejected)
	}
}

func TestCancelReleasesSlot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})
	first, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayOnDelivery))
	second, _ := f.svc.CreateBooking(ctx, request("2025-06-16", "2025-06-16", models.PayOnDelivery))

	f.svc.TransitionBookingStatus(ctx, first.ID, models.BookingConfirmed)
	if _, err := f.svc.TransitionBookingStatus(ctx, second.ID, models.BookingConfirmed); !IsAdmission(err, SlotUnavailable) {
		t.Fatalf("expected SlotUnavailable, got %v", err)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, first.ID, models.BookingCancelled); err != nil {
		t.Fatal(err)
	}
	res, _ := f.svc.CheckAvailability(ctx, "p1", "2025-06-16", "2025-06-16", "10:00")
	if !res.Admissible {
		t.Fatalf("slot should be free again: %+v", res)
	}
	if _, err := f.svc.TransitionBookingStatus(ctx, second.ID, models.BookingConfirmed); err != nil {
		t.Fatalf("confirm after cancel: %v", err)
	}
}

func TestProviderSettingsValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, models.AdvancePolicy{})

	if _, err := f.svc.SetAvailability(ctx, models.AvailabilitySlot{ProviderID: "p1", DayOfWeek: time.Friday, StartTime: "18:00", EndTime: "09:00"}); !IsAdmission(err, InvalidRequest) {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
	if _, err := f.svc.UpdateAdvancePolicy(ctx, "p1", models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 120}); !IsAdmission(err, InvalidRequest) {
		t.Fatalf("expected InvalidRequest, got %v", err)
	}
	if _, err := f.svc.UpdateAdvancePolicy(ctx, "ghost", models.AdvancePolicy{}); !IsAdmission(err, ProviderNotFound) {
		t.Fatalf("expected ProviderNotFound, got %v", err)
	}

	if err := f.svc.DeleteAvailability(ctx, "p1", time.Wednesday); err != nil {
		t.Fatal(err)
	}
	slots, _ := f.svc.ListAvailability(ctx, "p1")
	if len(slots) != 2 || slots[0].DayOfWeek != time.Monday {
		t.Fatalf("unexpected slots %+v", slots)
	}
}
