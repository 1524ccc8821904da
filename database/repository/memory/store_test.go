package memoryRepo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"
)

func newBooking(t *testing.T, s *Store, id, start, end string) *models.Booking {
	t.Helper()
	b, err := models.NewBooking(models.BookingParams{
		UserID:            "u1",
		ProviderID:        "p1",
		StartDate:         start,
		EndDate:           end,
		TimeSlot:          "14:00",
		PaymentPreference: models.PayNow,
	})
	if err != nil {
		t.Fatalf("NewBooking: %v", err)
	}
	b.ID = id
	if err := s.Bookings().Create(context.Background(), b); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return b
}

func TestUpdateStatusClaimsSlots(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	bookings := s.Bookings()

	newBooking(t, s, "b1", "2025-06-15", "2025-06-17")
	newBooking(t, s, "b2", "2025-06-17", "2025-06-18")

	if _, err := bookings.UpdateStatus(ctx, "b1", models.BookingPending, models.BookingConfirmed); err != nil {
		t.Fatalf("confirm b1: %v", err)
	}
	_, err := bookings.UpdateStatus(ctx, "b2", models.BookingPending, models.BookingConfirmed)
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for overlapping confirm, got %v", err)
	}
	b2, _ := bookings.GetByID(ctx, "b2")
	if b2.Status != models.BookingPending {
		t.Fatalf("b2 should stay pending, got %s", b2.Status)
	}

	if _, err := bookings.UpdateStatus(ctx, "b1", models.BookingConfirmed, models.BookingCancelled); err != nil {
		t.Fatalf("cancel b1: %v", err)
	}
	if _, err := bookings.UpdateStatus(ctx, "b2", models.BookingPending, models.BookingConfirmed); err != nil {
		t.Fatalf("confirm b2 after release: %v", err)
	}
}

func TestUpdateStatusCompareAndSet(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	newBooking(t, s, "b1", "2025-06-15", "2025-06-15")

	_, err := s.Bookings().UpdateStatus(ctx, "b1", models.BookingConfirmed, models.BookingCompleted)
	if !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	_, err = s.Bookings().UpdateStatus(ctx, "missing", models.BookingPending, models.BookingConfirmed)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFindBlockingIgnoresPending(t *testing.T) {
	ctx := context.Background()
	s := NewStore()
	newBooking(t, s, "b1", "2025-06-15", "2025-06-17")

	found, err := s.Bookings().FindBlocking(ctx, "p1", "2025-06-16", "14:00")
	if err != nil || len(found) != 0 {
		t.Fatalf("pending booking must not block: %v %v", found, err)
	}
	if _, err := s.Bookings().UpdateStatus(ctx, "b1", models.BookingPending, models.BookingConfirmed); err != nil {
		t.Fatal(err)
	}
	found, _ = s.Bookings().FindBlocking(ctx, "p1", "2025-06-16", "14:00")
	if len(found) != 1 {
		t.Fatalf("expected one blocking booking, got %d", len(found))
	}
	found, _ = s.Bookings().FindBlocking(ctx, "p1", "2025-06-18", "14:00")
	if len(found) != 0 {
		t.Fatalf("date outside range must not match, got %d", len(found))
	}
}

func TestAdvanceMilestoneIsIdempotent(t *testing.T) {
	ctx := context.Background()
	payments := NewStore().Payments()

	sched, _ := models.DefaultPaymentSchedule("b1")
	if _, err := payments.CreateScheduleIfAbsent(ctx, sched); err != nil {
		t.Fatal(err)
	}

	got, moved, err := payments.AdvanceMilestone(ctx, "b1", "pay-1", 1)
	if err != nil || !moved || got.CurrentMilestone != 2 {
		t.Fatalf("first advance: %+v moved=%v err=%v", got, moved, err)
	}
	got, moved, _ = payments.AdvanceMilestone(ctx, "b1", "pay-1", 2)
	if moved || got.CurrentMilestone != 2 {
		t.Fatalf("replayed payment must not advance: %+v", got)
	}
	got, moved, _ = payments.AdvanceMilestone(ctx, "b1", "pay-2", 2)
	if !moved || got.CurrentMilestone != 3 || got.LastAppliedPaymentID != "pay-2" {
		t.Fatalf("second advance: %+v", got)
	}
	got, moved, _ = payments.AdvanceMilestone(ctx, "b1", "pay-3", 3)
	if moved || !got.FullyPaid() {
		t.Fatalf("fully paid schedule must stay put: %+v", got)
	}
}

func TestAdvanceMilestoneConcurrent(t *testing.T) {
	ctx := context.Background()
	payments := NewStore().Payments()
	sched, _ := models.DefaultPaymentSchedule("b1")
	payments.CreateScheduleIfAbsent(ctx, sched)

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		moved int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := payments.AdvanceMilestone(ctx, "b1", "pay-"+string(rune('a'+i)), 1)
			if err != nil {
				t.Error(err)
				return
			}
			if ok {
				mu.Lock()
				moved++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if moved != 1 {
		t.Fatalf("expected exactly one advance, got %d", moved)
	}
	got, _ := payments.GetSchedule(ctx, "b1")
	if got.CurrentMilestone != 2 {
		t.Fatalf("expected milestone 2, got %d", got.CurrentMilestone)
	}
}

func TestCompletePaymentLedgerBound(t *testing.T) {
	ctx := context.Background()
	payments := NewStore().Payments()

	for _, id := range []string{"pay-1", "pay-2"} {
		err := payments.CreatePayment(ctx, &models.Payment{
			ID: id, BookingID: "b1", RequestedAmount: 600, Status: models.PaymentPending, CreatedAt: time.Now(),
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	if _, changed, err := payments.CompletePayment(ctx, "pay-1", 600, 1000); err != nil || !changed {
		t.Fatalf("first completion: changed=%v err=%v", changed, err)
	}
	if _, changed, err := payments.CompletePayment(ctx, "pay-1", 600, 1000); err != nil || changed {
		t.Fatalf("replayed completion must be a no-op: changed=%v err=%v", changed, err)
	}
	_, _, err := payments.CompletePayment(ctx, "pay-2", 600, 1000)
	if !errors.Is(err, repository.ErrLedgerBound) {
		t.Fatalf("expected ErrLedgerBound, got %v", err)
	}
	total, _ := payments.CollectedTotal(ctx, "b1")
	if total != 600 {
		t.Fatalf("expected 600 collected, got %d", total)
	}
	p, _ := payments.GetPayment(ctx, "pay-2")
	if p.Status != models.PaymentPending {
		t.Fatalf("rejected payment must stay pending, got %s", p.Status)
	}
}

func TestChannelUniquePerBooking(t *testing.T) {
	ctx := context.Background()
	channels := NewStore().Channels()

	if err := channels.Create(ctx, &models.Channel{ID: "c1", BookingID: "b1"}); err != nil {
		t.Fatal(err)
	}
	err := channels.Create(ctx, &models.Channel{ID: "c2", BookingID: "b1"})
	if !errors.Is(err, repository.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestReplaceUntouchedSchedule(t *testing.T) {
	ctx := context.Background()
	payments := NewStore().Payments()
	def, _ := models.DefaultPaymentSchedule("b1")
	payments.CreateScheduleIfAbsent(ctx, def)

	policy, _ := models.ScheduleForPolicy("b1", models.AdvancePolicy{RequiresAdvancePayment: true, AdvancePaymentPercentage: 30})
	got, err := payments.ReplaceUntouchedSchedule(ctx, policy)
	if err != nil || got.Milestones[0].Percentage != 30 {
		t.Fatalf("untouched schedule not replaced: %+v %v", got, err)
	}

	payments.AdvanceMilestone(ctx, "b1", "pay-1", 1)
	full, _ := models.ScheduleForPolicy("b1", models.AdvancePolicy{})
	got, err = payments.ReplaceUntouchedSchedule(ctx, full)
	if err != nil || got.TotalMilestones != 2 || got.CurrentMilestone != 2 {
		t.Fatalf("advanced schedule must be kept: %+v %v", got, err)
	}
}
