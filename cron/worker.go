package cron

import (
	"context"
	"errors"
	"fmt"

	"ceremonify/services/booking"
	"ceremonify/services/payment"
	"ceremonify/services/tasks"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker executes the retry tasks queued by the booking and payment services.
type Worker struct {
	Bookings booking.BookingService
	Tracker  payment.Tracker
	Logger   *zap.Logger
}

// Mux routes task types to their handlers.
func (w *Worker) Mux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeChannelEnsure, w.HandleChannelEnsure)
	mux.HandleFunc(tasks.TypeCollectionOpen, w.HandleCollectionOpen)
	return mux
}

func (w *Worker) HandleChannelEnsure(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseChannelPayload(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	err = w.Bookings.EnsureChannel(ctx, p.BookingID)
	if errors.Is(err, booking.ErrBookingNotFound) {
		w.Logger.Warn("Dropping channel task for unknown booking", zap.String("bookingId", p.BookingID))
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		w.Logger.Warn("Channel retry failed", zap.String("bookingId", p.BookingID), zap.Error(err))
		return err
	}
	return nil
}

func (w *Worker) HandleCollectionOpen(ctx context.Context, t *asynq.Task) error {
	p, err := tasks.ParseCollectionPayload(t)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if p.PaymentID != "" {
		_, err = w.Tracker.RetryCollection(ctx, p.PaymentID)
	} else {
		err = w.reopenFirstCollection(ctx, p.BookingID)
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, payment.ErrPaymentNotPending), errors.Is(err, payment.ErrNothingDue):
		w.Logger.Info("Collection no longer needed", zap.String("bookingId", p.BookingID), zap.String("paymentId", p.PaymentID))
		return nil
	case errors.Is(err, payment.ErrPaymentNotFound), errors.Is(err, payment.ErrBookingNotFound):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	w.Logger.Warn("Collection retry failed", zap.String("bookingId", p.BookingID), zap.String("paymentId", p.PaymentID), zap.Error(err))
	return err
}

func (w *Worker) reopenFirstCollection(ctx context.Context, bookingID string) error {
	b, err := w.Bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !b.Status.Blocks() || b.Status.Terminal() {
		return nil
	}
	_, err = w.Tracker.OpenFirstCollection(ctx, b)
	return err
}

// NewServer builds the asynq server that runs the worker.
func NewServer(opts asynq.RedisClientOpt, concurrency int, logger *zap.Logger) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 10
	}
	return asynq.NewServer(opts, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{tasks.QueueDefault: 1},
		Logger:      logger.Sugar(),
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			retried, _ := asynq.GetRetryCount(ctx)
			maxRetry, _ := asynq.GetMaxRetry(ctx)
			if retried >= maxRetry {
				logger.Error("Task exhausted retries", zap.String("type", task.Type()), zap.Error(err))
			}
		}),
	})
}
