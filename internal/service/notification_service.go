package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/college-admin-api/internal/models"
	appErrors "github.com/campushq/college-admin-api/pkg/errors"
	"github.com/campushq/college-admin-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	MarkDelivery(ctx context.Context, id string, status models.NotificationStatus, sentAt *time.Time) error
}

// Mailer delivers a notification over email.
type Mailer interface {
	Send(ctx context.Context, userID, title, body string) error
}

// LogMailer is the default mailer; it only logs the delivery. SMTP wiring
// replaces it in deployments that send real mail.
type LogMailer struct {
	Logger *zap.Logger
}

// Send logs the outgoing message.
func (m *LogMailer) Send(ctx context.Context, userID, title, body string) error {
	logger := m.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("email flushed",
		zap.String("user_id", userID),
		zap.String("title", title),
	)
	return nil
}

// NotificationService persists notifications and flushes email copies through
// the background queue.
type NotificationService struct {
	repo   notificationRepository
	mailer Mailer
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService constructs the notification service. Call BindQueue
// before Start on the returned queue.
func NewNotificationService(repo notificationRepository, mailer Mailer, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if mailer == nil {
		mailer = &LogMailer{Logger: logger}
	}
	return &NotificationService{repo: repo, mailer: mailer, logger: logger}
}

// BindQueue attaches the email flush queue.
func (s *NotificationService) BindQueue(queue *jobs.Queue) {
	s.queue = queue
}

// FlushHandler returns the queue handler that delivers queued email copies.
func (s *NotificationService) FlushHandler() jobs.Handler {
	return func(ctx context.Context, job jobs.Job) error {
		n, ok := job.Payload.(*models.Notification)
		if !ok {
			return fmt.Errorf("unexpected payload type %T", job.Payload)
		}
		if err := s.mailer.Send(ctx, n.UserID, n.Title, n.Body); err != nil {
			if markErr := s.repo.MarkDelivery(ctx, n.ID, models.NotificationStatusFailed, nil); markErr != nil {
				s.logger.Warn("failed to mark notification failed", zap.Error(markErr))
			}
			return err
		}
		sentAt := time.Now().UTC()
		return s.repo.MarkDelivery(ctx, n.ID, models.NotificationStatusSent, &sentAt)
	}
}

// Notify persists a notification and enqueues the email flush when requested.
func (s *NotificationService) Notify(ctx context.Context, userID, title, body string, email bool) (*models.Notification, error) {
	if userID == "" || title == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "notification requires a recipient and title")
	}
	n := &models.Notification{
		UserID:    userID,
		Title:     title,
		Body:      body,
		Email:     email,
		Status:    models.NotificationStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}

	if email && s.queue != nil {
		if err := s.queue.Enqueue(jobs.Job{ID: n.ID, Type: "notification.flush", Payload: n}); err != nil {
			s.logger.Warn("failed to enqueue email flush", zap.String("notification_id", n.ID), zap.Error(err))
		}
	}
	return n, nil
}

// Inbox returns a user's notifications.
func (s *NotificationService) Inbox(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notifications")
	}
	return notifications, nil
}
