package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/booking-engine-api/pkg/jobs"
)

// NotificationJobType tags status-change jobs on the queue.
const NotificationJobType = "status_notification"

// Notification describes a status change the owner should hear about.
type Notification struct {
	TenantID  string `json:"tenant_id"`
	UserID    string `json:"user_id"`
	Subject   string `json:"subject"`
	SubjectID string `json:"subject_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// Notifier delivers notifications. Delivery channels live outside this service.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier records notifications in the structured log.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier constructs a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, note Notification) error {
	n.logger.Info("status notification",
		zap.String("tenant_id", note.TenantID),
		zap.String("user_id", note.UserID),
		zap.String("subject", note.Subject),
		zap.String("subject_id", note.SubjectID),
		zap.String("status", note.Status),
	)
	return nil
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// NotificationService publishes notifications through the background queue so
// delivery never blocks or fails a committed booking.
type NotificationService struct {
	queue  jobEnqueuer
	logger *zap.Logger
}

// NewNotificationService constructs the publisher.
func NewNotificationService(queue jobEnqueuer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{queue: queue, logger: logger}
}

// Publish enqueues n. A nil service or queue drops the notification.
func (s *NotificationService) Publish(n Notification) {
	if s == nil || s.queue == nil {
		return
	}
	if err := s.queue.Enqueue(jobs.Job{Type: NotificationJobType, Payload: n}); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("subject_id", n.SubjectID), zap.Error(err))
	}
}

// NotificationHandler adapts a Notifier to a queue handler.
func NotificationHandler(notifier Notifier) jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		n, ok := job.Payload.(Notification)
		if !ok {
			return fmt.Errorf("unexpected notification payload %T", job.Payload)
		}
		return notifier.Notify(ctx, n)
	}
}
