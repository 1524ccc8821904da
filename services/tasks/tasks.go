// Package tasks defines the background retry tasks and how they are enqueued.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	TypeChannelEnsure     = "booking:channel:ensure"
	TypeCollectionOpen    = "payment:collection:open"
	QueueDefault          = "default"
	defaultMaxRetry       = 8
	defaultRetryFirstWait = 30 * time.Second
)

// ChannelPayload identifies a booking whose communication channel is still owed.
type ChannelPayload struct {
	BookingID string `json:"bookingId"`
}

// CollectionPayload identifies a collection to (re)open. PaymentID is empty
// when the first collection of a booking failed before a payment was stored.
type CollectionPayload struct {
	BookingID string `json:"bookingId"`
	PaymentID string `json:"paymentId,omitempty"`
}

// TaskID keeps at most one live task per target.
func (p CollectionPayload) TaskID() string {
	if p.PaymentID != "" {
		return "collection:payment:" + p.PaymentID
	}
	return "collection:booking:" + p.BookingID
}

func NewChannelTask(bookingID string) (*asynq.Task, []asynq.Option, error) {
	if bookingID == "" {
		return nil, nil, fmt.Errorf("channel task needs a booking id")
	}
	b, err := json.Marshal(ChannelPayload{BookingID: bookingID})
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.TaskID("channel:" + bookingID),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.ProcessIn(defaultRetryFirstWait),
	}
	return asynq.NewTask(TypeChannelEnsure, b), opts, nil
}

func NewCollectionTask(payload CollectionPayload) (*asynq.Task, []asynq.Option, error) {
	if payload.BookingID == "" && payload.PaymentID == "" {
		return nil, nil, fmt.Errorf("collection task needs a booking or payment id")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	opts := []asynq.Option{
		asynq.TaskID(payload.TaskID()),
		asynq.Queue(QueueDefault),
		asynq.MaxRetry(defaultMaxRetry),
		asynq.ProcessIn(defaultRetryFirstWait),
	}
	return asynq.NewTask(TypeCollectionOpen, b), opts, nil
}

func ParseChannelPayload(t *asynq.Task) (ChannelPayload, error) {
	var p ChannelPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeChannelEnsure, err)
	}
	if p.BookingID == "" {
		return p, fmt.Errorf("invalid %s payload: missing bookingId", TypeChannelEnsure)
	}
	return p, nil
}

func ParseCollectionPayload(t *asynq.Task) (CollectionPayload, error) {
	var p CollectionPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return p, fmt.Errorf("invalid %s payload: %w", TypeCollectionOpen, err)
	}
	if p.BookingID == "" && p.PaymentID == "" {
		return p, fmt.Errorf("invalid %s payload: missing ids", TypeCollectionOpen)
	}
	return p, nil
}

// Scheduler queues out-of-band retries for side effects that failed after a commit.
type Scheduler interface {
	ScheduleChannelRetry(ctx context.Context, bookingID string) error
	ScheduleCollectionRetry(ctx context.Context, payload CollectionPayload) error
}

// Enqueuer is the part of *asynq.Client the scheduler needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsynqScheduler enqueues retries on asynq. A retry already queued for the
// same target is not an error.
type AsynqScheduler struct {
	Client Enqueuer
}

func NewAsynqScheduler(client Enqueuer) *AsynqScheduler {
	return &AsynqScheduler{Client: client}
}

func (s *AsynqScheduler) ScheduleChannelRetry(ctx context.Context, bookingID string) error {
	task, opts, err := NewChannelTask(bookingID)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, opts)
}

func (s *AsynqScheduler) ScheduleCollectionRetry(ctx context.Context, payload CollectionPayload) error {
	task, opts, err := NewCollectionTask(payload)
	if err != nil {
		return err
	}
	return s.enqueue(ctx, task, opts)
}

func (s *AsynqScheduler) enqueue(ctx context.Context, task *asynq.Task, opts []asynq.Option) error {
	_, err := s.Client.EnqueueContext(ctx, task, opts...)
	if errors.Is(err, asynq.ErrTaskIDConflict) || errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", task.Type(), err)
	}
	return nil
}

// NoopScheduler drops retries. Used when no queue is configured; the sweeper
// still picks up whatever is left pending.
type NoopScheduler struct{}

func (NoopScheduler) ScheduleChannelRetry(context.Context, string) error { return nil }

func (NoopScheduler) ScheduleCollectionRetry(context.Context, CollectionPayload) error { return nil }
