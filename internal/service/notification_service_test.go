package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/college-admin-api/internal/models"
	"github.com/campushq/college-admin-api/pkg/jobs"
)

type notificationRepoStub struct {
	notifications map[string]*models.Notification
	seq           int
}

func newNotificationRepoStub() *notificationRepoStub {
	return &notificationRepoStub{notifications: map[string]*models.Notification{}}
}

func (r *notificationRepoStub) Create(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		r.seq++
		n.ID = "n-" + string(rune('0'+r.seq))
	}
	clone := *n
	r.notifications[n.ID] = &clone
	return nil
}

func (r *notificationRepoStub) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, n := range r.notifications {
		if n.UserID == userID {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *notificationRepoStub) MarkDelivery(ctx context.Context, id string, status models.NotificationStatus, sentAt *time.Time) error {
	n, ok := r.notifications[id]
	if !ok {
		return errors.New("not found")
	}
	n.Status = status
	n.SentAt = sentAt
	return nil
}

type mailerStub struct {
	sent []string
	err  error
}

func (m *mailerStub) Send(ctx context.Context, userID, title, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, userID)
	return nil
}

func TestNotifyPersistsQueuedNotification(t *testing.T) {
	repo := newNotificationRepoStub()
	svc := NewNotificationService(repo, &mailerStub{}, nil)

	n, err := svc.Notify(context.Background(), "user-1", "Fees due", "Pay semester fees", false)
	require.NoError(t, err)
	assert.Equal(t, models.NotificationStatusQueued, n.Status)
	assert.Len(t, repo.notifications, 1)
}

func TestEmailFlushMarksSent(t *testing.T) {
	repo := newNotificationRepoStub()
	mailer := &mailerStub{}
	svc := NewNotificationService(repo, mailer, nil)

	n, err := svc.Notify(context.Background(), "user-1", "Promotion complete", "You moved to semester 4", true)
	require.NoError(t, err)

	flush := svc.FlushHandler()
	require.NoError(t, flush(context.Background(), jobs.Job{ID: n.ID, Type: "notification.flush", Payload: n}))

	stored := repo.notifications[n.ID]
	assert.Equal(t, models.NotificationStatusSent, stored.Status)
	require.NotNil(t, stored.SentAt)
	assert.Equal(t, []string{"user-1"}, mailer.sent)
}

func TestEmailFlushMarksFailedOnMailerError(t *testing.T) {
	repo := newNotificationRepoStub()
	mailer := &mailerStub{err: errors.New("smtp unavailable")}
	svc := NewNotificationService(repo, mailer, nil)

	n, err := svc.Notify(context.Background(), "user-1", "Clearance decided", "Approved", true)
	require.NoError(t, err)

	flush := svc.FlushHandler()
	require.Error(t, flush(context.Background(), jobs.Job{ID: n.ID, Type: "notification.flush", Payload: n}))
	assert.Equal(t, models.NotificationStatusFailed, repo.notifications[n.ID].Status)
}

func TestNotifyRequiresRecipient(t *testing.T) {
	svc := NewNotificationService(newNotificationRepoStub(), &mailerStub{}, nil)

	_, err := svc.Notify(context.Background(), "", "Title", "Body", false)
	require.Error(t, err)
}
