package tasks

import (
	"context"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

type recordingEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (r *recordingEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.tasks = append(r.tasks, task)
	return &asynq.TaskInfo{Type: task.Type()}, nil
}

func TestCollectionTaskRoundTrip(t *testing.T) {
	task, _, err := NewCollectionTask(CollectionPayload{BookingID: "b1", PaymentID: "pay-1"})
	if err != nil {
		t.Fatal(err)
	}
	if task.Type() != TypeCollectionOpen {
		t.Fatalf("unexpected type %s", task.Type())
	}
	p, err := ParseCollectionPayload(task)
	if err != nil || p.PaymentID != "pay-1" || p.BookingID != "b1" {
		t.Fatalf("unexpected payload %+v %v", p, err)
	}
	if p.TaskID() != "collection:payment:pay-1" {
		t.Fatalf("unexpected task id %s", p.TaskID())
	}
	if (CollectionPayload{BookingID: "b1"}).TaskID() != "collection:booking:b1" {
		t.Fatal("booking-level collection task id")
	}
}

func TestNewTasksRejectEmptyIDs(t *testing.T) {
	if _, _, err := NewChannelTask(""); err == nil {
		t.Error("empty channel task accepted")
	}
	if _, _, err := NewCollectionTask(CollectionPayload{}); err == nil {
		t.Error("empty collection task accepted")
	}
	if _, err := ParseChannelPayload(asynq.NewTask(TypeChannelEnsure, []byte(`{}`))); err == nil {
		t.Error("payload without booking id accepted")
	}
}

func TestSchedulerAbsorbsQueuedDuplicates(t *testing.T) {
	s := NewAsynqScheduler(&recordingEnqueuer{err: asynq.ErrTaskIDConflict})
	if err := s.ScheduleChannelRetry(context.Background(), "b1"); err != nil {
		t.Fatalf("duplicate retry must be absorbed: %v", err)
	}

	boom := errors.New("redis down")
	s = NewAsynqScheduler(&recordingEnqueuer{err: boom})
	if err := s.ScheduleCollectionRetry(context.Background(), CollectionPayload{PaymentID: "p"}); !errors.Is(err, boom) {
		t.Fatalf("expected enqueue error, got %v", err)
	}
}

func TestSchedulerEnqueues(t *testing.T) {
	rec := &recordingEnqueuer{}
	s := NewAsynqScheduler(rec)
	s.ScheduleChannelRetry(context.Background(), "b1")
	s.ScheduleCollectionRetry(context.Background(), CollectionPayload{BookingID: "b1"})

	if len(rec.tasks) != 2 || rec.tasks[0].Type() != TypeChannelEnsure || rec.tasks[1].Type() != TypeCollectionOpen {
		t.Fatalf("unexpected tasks %v", rec.tasks)
	}
}
