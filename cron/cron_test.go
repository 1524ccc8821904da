package cron

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	channelRepo "ceremonify/database/repository/channel"
	memoryRepo "ceremonify/database/repository/memory"
	"ceremonify/models"
	"ceremonify/services/availability"
	"ceremonify/services/booking"
	"ceremonify/services/gateway"
	"ceremonify/services/payment"
	"ceremonify/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

type flakyGateway struct{ fail bool }

func (g *flakyGateway) OpenCollection(_ context.Context, req gateway.CollectionRequest) (gateway.Session, error) {
	if g.fail {
		return gateway.Session{}, errors.New("gateway timeout")
	}
	return gateway.Session{SessionToken: "cs_" + req.PaymentID}, nil
}

func (g *flakyGateway) ParseResult([]byte, string) (*gateway.PaymentResult, error) {
	return nil, gateway.ErrIgnoredEvent
}

type toggleChannels struct {
	channelRepo.ChannelRepository
	down bool
}

func (c *toggleChannels) Create(ctx context.Context, ch *models.Channel) error {
	if c.down {
		return errors.New("chat backend unavailable")
	}
	return c.ChannelRepository.Create(ctx, ch)
}

type env struct {
	store    *memoryRepo.Store
	gw       *flakyGateway
	channels *toggleChannels
	bookings *booking.DefaultBookingService
	tracker  *payment.DefaultTracker
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memoryRepo.NewStore()
	e := &env{store: store, gw: &flakyGateway{}, channels: &toggleChannels{ChannelRepository: store.Channels()}}
	e.tracker = &payment.DefaultTracker{
		Payments: store.Payments(), Bookings: store.Bookings(), Providers: store.Providers(),
		Gateway: e.gw, Retries: tasks.NoopScheduler{}, Logger: zap.NewNop(),
	}
	e.bookings = &booking.DefaultBookingService{
		Bookings: store.Bookings(), Providers: store.Providers(), Channels: e.channels,
		Availability: store.Availability(),
		Checker:      availability.NewChecker(store.Availability(), store.Bookings()),
		Tracker:      e.tracker, Retries: tasks.NoopScheduler{}, Logger: zap.NewNop(),
	}
	store.Providers().Save(ctx, &models.Provider{ID: "p1", BasePrice: 500, Currency: "usd",
		AdvancePolicy: models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 20}})
	if _, err := e.bookings.SetAvailability(ctx, models.AvailabilitySlot{ProviderID: "p1", DayOfWeek: time.Monday, StartTime: "08:00", EndTime: "20:00"}); err != nil {
		t.Fatal(err)
	}
	return e
}

func (e *env) book(t *testing.T) *models.Booking {
	t.Helper()
	b, err := e.bookings.CreateBooking(context.Background(), booking.CreateBookingRequest{
		UserID: "u1", ProviderID: "p1", StartDate: "2025-06-16", EndDate: "2025-06-16",
		TimeSlot: "12:00", PaymentPreference: models.PayNow,
	})
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func task(t *testing.T, typ string, payload interface{}) *asynq.Task {
	t.Helper()
	b, err := json.Marshal(payload)
	if err != nil {
		t.Fatal(err)
	}
	return asynq.NewTask(typ, b)
}

func TestHandleChannelEnsure(t *testing.T) {
	e := newEnv(t)
	e.channels.down = true
	b := e.book(t)
	w := &Worker{Bookings: e.bookings, Tracker: e.tracker, Logger: zap.NewNop()}

	if err := w.HandleChannelEnsure(context.Background(), task(t, tasks.TypeChannelEnsure, tasks.ChannelPayload{BookingID: b.ID})); err == nil {
		t.Fatal("expected retryable error while backend is down")
	}
	e.channels.down = false
	if err := w.HandleChannelEnsure(context.Background(), task(t, tasks.TypeChannelEnsure, tasks.ChannelPayload{BookingID: b.ID})); err != nil {
		t.Fatalf("HandleChannelEnsure: %v", err)
	}
	stored, _ := e.bookings.GetBooking(context.Background(), b.ID)
	if stored.ChannelStatus != models.ChannelCreated {
		t.Fatalf("expected channel created, got %s", stored.ChannelStatus)
	}

	err := w.HandleChannelEnsure(context.Background(), task(t, tasks.TypeChannelEnsure, tasks.ChannelPayload{BookingID: "missing"}))
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("unknown booking must skip retry, got %v", err)
	}
}

func TestHandleCollectionOpen(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	b := e.book(t)
	e.gw.fail = true

	if _, err := e.bookings.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed); !errors.Is(err, payment.ErrGatewayUnavailable) {
		t.Fatalf("expected gateway failure, got %v", err)
	}
	payments, _ := e.tracker.ListPayments(ctx, b.ID)
	if len(payments) != 1 || payments[0].SessionToken != "" {
		t.Fatalf("unexpected payments %+v", payments)
	}

	w := &Worker{Bookings: e.bookings, Tracker: e.tracker, Logger: zap.NewNop()}
	payload := tasks.CollectionPayload{BookingID: b.ID, PaymentID: payments[0].ID}
	if err := w.HandleCollectionOpen(ctx, task(t, tasks.TypeCollectionOpen, payload)); err == nil {
		t.Fatal("expected retryable error while the gateway is down")
	}

	e.gw.fail = false
	if err := w.HandleCollectionOpen(ctx, task(t, tasks.TypeCollectionOpen, payload)); err != nil {
		t.Fatalf("HandleCollectionOpen: %v", err)
	}
	p, _ := e.store.Payments().GetPayment(ctx, payments[0].ID)
	if p.SessionToken == "" || p.RequestedAmount != 100 {
		t.Fatalf("unexpected payment %+v", p)
	}

	if err := w.HandleCollectionOpen(ctx, task(t, tasks.TypeCollectionOpen, tasks.CollectionPayload{BookingID: b.ID})); err != nil {
		t.Fatalf("booking-level retry with an open session: %v", err)
	}
	if err := w.HandleCollectionOpen(ctx, asynq.NewTask(tasks.TypeCollectionOpen, []byte("{"))); !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("malformed payload must skip retry, got %v", err)
	}
}

func TestSweepRepairsChannelsAndCollections(t *testing.T) {
	ctx := context.Background()
	e := newEnv(t)
	e.channels.down = true
	b := e.book(t)
	e.gw.fail = true
	e.bookings.TransitionBookingStatus(ctx, b.ID, models.BookingConfirmed)

	e.channels.down = false
	e.gw.fail = false
	s := NewSweeper(e.bookings, e.tracker, e.store.Payments(), zap.NewNop())
	s.now = func() time.Time { return time.Now().Add(time.Hour) }

	channels, collections := s.Sweep(ctx)
	if channels != 1 || collections != 1 {
		t.Fatalf("channels=%d collections=%d", channels, collections)
	}
	channels, collections = s.Sweep(ctx)
	if channels != 0 || collections != 0 {
		t.Fatalf("second sweep should find nothing, got %d/%d", channels, collections)
	}
}

func TestSweeperRejectsBadSchedule(t *testing.T) {
	e := newEnv(t)
	s := NewSweeper(e.bookings, e.tracker, e.store.Payments(), zap.NewNop())
	if err := s.Start("every sometimes"); err == nil {
		t.Fatal("expected invalid schedule error")
	}
}
