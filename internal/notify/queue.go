package notify

import (
	"context"
	"fmt"
)

// JobTypeEmail is the background job type carrying a Message payload.
const JobTypeEmail = "send_email"

type Enqueuer interface {
	Enqueue(ctx context.Context, jobType string, payload any) (string, error)
}

// QueueSender defers delivery to the background worker.
type QueueSender struct {
	queue Enqueuer
}

func NewQueueSender(queue Enqueuer) *QueueSender {
	return &QueueSender{queue: queue}
}

func (s *QueueSender) Send(ctx context.Context, msg Message) error {
	if _, err := s.queue.Enqueue(ctx, JobTypeEmail, msg); err != nil {
		return fmt.Errorf("enqueue email to %s: %w", msg.To, err)
	}
	return nil
}
