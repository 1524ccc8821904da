// Package cron runs the background side of the engine: the asynq worker for
// queued retries and a periodic sweeper for anything the queue missed.
package cron

import (
	"context"
	"time"

	paymentRepo "ceremonify/database/repository/payment"
	"ceremonify/services/booking"
	"ceremonify/services/payment"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const (
	sweepBatch = 100
	// staleAfter is how long a payment may sit without a gateway session before the sweeper retries it.
	staleAfter = 5 * time.Minute
)

// Sweeper periodically retries owed channels and collections that never got a session.
type Sweeper struct {
	Bookings booking.BookingService
	Tracker  payment.Tracker
	Payments paymentRepo.PaymentRepository
	Logger   *zap.Logger

	cron *cron.Cron
	now  func() time.Time
}

func NewSweeper(bookings booking.BookingService, tracker payment.Tracker, payments paymentRepo.PaymentRepository, logger *zap.Logger) *Sweeper {
	cronLogger := cron.PrintfLogger(zap.NewStdLog(logger))
	return &Sweeper{
		Bookings: bookings,
		Tracker:  tracker,
		Payments: payments,
		Logger:   logger,
		cron:     cron.New(cron.WithChain(cron.Recover(cronLogger))),
		now:      time.Now,
	}
}

// Start schedules the sweep with a standard 5-field cron spec, or a descriptor such as "@every 1m".
func (s *Sweeper) Start(schedule string) error {
	if _, err := s.cron.AddFunc(schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("Sweeper started", zap.String("schedule", schedule))
	return nil
}

// Stop waits for a running sweep to finish.
func (s *Sweeper) Stop() context.Context {
	return s.cron.Stop()
}

// Sweep runs one pass and reports how many channels and collections it repaired.
func (s *Sweeper) Sweep(ctx context.Context) (channels, collections int) {
	pending, err := s.Bookings.ListChannelPending(ctx, sweepBatch)
	if err != nil {
		s.Logger.Error("Sweeper failed to list pending channels", zap.Error(err))
	}
	for _, b := range pending {
		if err := s.Bookings.EnsureChannel(ctx, b.ID); err != nil {
			s.Logger.Warn("Sweeper could not create channel", zap.String("bookingId", b.ID), zap.Error(err))
			continue
		}
		channels++
	}

	stale, err := s.Payments.ListStalePending(ctx, s.now().Add(-staleAfter), sweepBatch)
	if err != nil {
		s.Logger.Error("Sweeper failed to list stale payments", zap.Error(err))
	}
	for _, p := range stale {
		if _, err := s.Tracker.RetryCollection(ctx, p.ID); err != nil {
			s.Logger.Warn("Sweeper could not reopen collection", zap.String("paymentId", p.ID), zap.Error(err))
			continue
		}
		collections++
	}

	if channels > 0 || collections > 0 {
		s.Logger.Info("Sweep repaired records", zap.Int("channels", channels), zap.Int("collections", collections))
	}
	return channels, collections
}
