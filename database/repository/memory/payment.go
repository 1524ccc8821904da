package memoryRepo

import (
	"context"
	"fmt"
	"time"

	"ceremonify/database/repository"
	"ceremonify/models"
)

type paymentStore struct{ *Store }

func (s *paymentStore) GetSchedule(_ context.Context, bookingID string) (*models.PaymentSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule(bookingID)
}

func (s *paymentStore) schedule(bookingID string) (*models.PaymentSchedule, error) {
	sched, ok := s.schedules[bookingID]
	if !ok {
		return nil, fmt.Errorf("schedule for booking %s: %w", bookingID, repository.ErrNotFound)
	}
	out := copySchedule(sched)
	return &out, nil
}

func (s *paymentStore) CreateScheduleIfAbsent(_ context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.BookingID]; !ok {
		s.schedules[schedule.BookingID] = copySchedule(*schedule)
	}
	return s.schedule(schedule.BookingID)
}

func (s *paymentStore) ReplaceUntouchedSchedule(_ context.Context, schedule *models.PaymentSchedule) (*models.PaymentSchedule, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.schedules[schedule.BookingID]; !ok || (cur.CurrentMilestone == 1 && len(cur.AppliedPaymentIDs) == 0) {
		s.schedules[schedule.BookingID] = copySchedule(*schedule)
	}
	return s.schedule(schedule.BookingID)
}

func (s *paymentStore) AdvanceMilestone(_ context.Context, bookingID, paymentID string, expected int) (*models.PaymentSchedule, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sched, ok := s.schedules[bookingID]
	if !ok {
		return nil, false, fmt.Errorf("schedule for booking %s: %w", bookingID, repository.ErrNotFound)
	}
	if sched.CurrentMilestone != expected || sched.TotalMilestones < expected || sched.Applied(paymentID) {
		out := copySchedule(sched)
		return &out, false, nil
	}

	sched = copySchedule(sched)
	sched.CurrentMilestone++
	sched.LastAppliedPaymentID = paymentID
	sched.AppliedPaymentIDs = append(sched.AppliedPaymentIDs, paymentID)
	sched.UpdatedAt = time.Now()
	s.schedules[bookingID] = sched

	out := copySchedule(sched)
	return &out, true, nil
}

func (s *paymentStore) CreatePayment(_ context.Context, payment *models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.payments[payment.ID]; ok {
		return fmt.Errorf("payment %s: %w", payment.ID, repository.ErrDuplicate)
	}
	if payment.SessionToken != "" {
		for _, p := range s.payments {
			if p.SessionToken == payment.SessionToken {
				return fmt.Errorf("session %s: %w", payment.SessionToken, repository.ErrDuplicate)
			}
		}
	}
	s.payments[payment.ID] = *payment
	s.paymentOrder = append(s.paymentOrder, payment.ID)
	return nil
}

func (s *paymentStore) GetPayment(_ context.Context, id string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", id, repository.ErrNotFound)
	}
	return &p, nil
}

func (s *paymentStore) GetPaymentBySession(_ context.Context, sessionToken string) (*models.Payment, error) {
	return s.first(func(p models.Payment) bool { return sessionToken != "" && p.SessionToken == sessionToken })
}

func (s *paymentStore) FindPendingMilestonePayment(_ context.Context, bookingID string, milestone int) (*models.Payment, error) {
	return s.first(func(p models.Payment) bool {
		return p.BookingID == bookingID && p.Milestone == milestone &&
			!p.IsProviderRequested && p.Status == models.PaymentPending
	})
}

func (s *paymentStore) first(match func(models.Payment) bool) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.paymentOrder {
		if p := s.payments[id]; match(p) {
			return &p, nil
		}
	}
	return nil, fmt.Errorf("payment: %w", repository.ErrNotFound)
}

func (s *paymentStore) list(match func(models.Payment) bool, limit int) []models.Payment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []models.Payment{}
	for _, id := range s.paymentOrder {
		if limit > 0 && len(out) >= limit {
			break
		}
		if p := s.payments[id]; match(p) {
			out = append(out, p)
		}
	}
	return out
}

func (s *paymentStore) ListPayments(_ context.Context, bookingID string) ([]models.Payment, error) {
	return s.list(func(p models.Payment) bool { return p.BookingID == bookingID }, 0), nil
}

func (s *paymentStore) ListStalePending(_ context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	return s.list(func(p models.Payment) bool {
		return p.Status == models.PaymentPending && p.SessionToken == "" && p.CreatedAt.Before(createdBefore)
	}, limit), nil
}

func (s *paymentStore) UpdateSession(_ context.Context, paymentID, sessionToken, redirectURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return fmt.Errorf("payment %s: %w", paymentID, repository.ErrNotFound)
	}
	if p.Status != models.PaymentPending {
		return fmt.Errorf("payment %s is not pending: %w", paymentID, repository.ErrConflict)
	}
	p.SessionToken = sessionToken
	p.RedirectURL = redirectURL
	p.UpdatedAt = time.Now()
	s.payments[paymentID] = p
	return nil
}

func (s *paymentStore) RecordCollectionAttempt(_ context.Context, paymentID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return 0, fmt.Errorf("payment %s: %w", paymentID, repository.ErrNotFound)
	}
	if p.Status != models.PaymentPending {
		return 0, fmt.Errorf("payment %s is not pending: %w", paymentID, repository.ErrConflict)
	}
	p.CollectionAttempts++
	p.UpdatedAt = time.Now()
	s.payments[paymentID] = p
	return p.CollectionAttempts, nil
}

func (s *paymentStore) CompletePayment(_ context.Context, paymentID string, amount, bookingTotal int64) (*models.Payment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, false, fmt.Errorf("payment %s: %w", paymentID, repository.ErrNotFound)
	}
	switch p.Status {
	case models.PaymentCompleted:
		return &p, false, nil
	case models.PaymentPending:
	default:
		return nil, false, fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, repository.ErrConflict)
	}
	if s.collected[p.BookingID] > bookingTotal-amount {
		return nil, false, fmt.Errorf("payment %s of %d: %w", paymentID, amount, repository.ErrLedgerBound)
	}

	now := time.Now()
	p.Status = models.PaymentCompleted
	p.Amount = amount
	p.CompletedAt = &now
	p.UpdatedAt = now
	s.payments[paymentID] = p
	s.collected[p.BookingID] += amount
	return &p, true, nil
}

func (s *paymentStore) FailPayment(_ context.Context, paymentID string) (*models.Payment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s: %w", paymentID, repository.ErrNotFound)
	}
	switch p.Status {
	case models.PaymentFailed:
		return &p, nil
	case models.PaymentPending:
	default:
		return nil, fmt.Errorf("payment %s is %s: %w", paymentID, p.Status, repository.ErrConflict)
	}
	p.Status = models.PaymentFailed
	p.UpdatedAt = time.Now()
	s.payments[paymentID] = p
	return &p, nil
}

func (s *paymentStore) CollectedTotal(_ context.Context, bookingID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.collected[bookingID], nil
}
