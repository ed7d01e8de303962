package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, audience models.NotificationAudience, recipientID string) ([]models.Notification, error)
	MarkAsRead(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error
	MarkAllAsRead(ctx context.Context, audience models.NotificationAudience, recipientID string) error
	Delete(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error
	ClearAll(ctx context.Context, audience models.NotificationAudience, recipientID string) error
	UnreadCount(ctx context.Context, audience models.NotificationAudience, recipientID string) (int, error)
}

// NotificationService manages the admin and student inboxes. Entries are
// pushed explicitly by the modules that produce events.
type NotificationService struct {
	repo   notificationRepository
	logger *zap.Logger
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{repo: repo, logger: logger}
}

// PushAdmin adds an entry to the shared admin inbox. Failures are logged, not
// surfaced; a lost notification must never fail the producing operation.
func (s *NotificationService) PushAdmin(ctx context.Context, notifType, title, message string, link *string) {
	n := &models.Notification{
		Audience: models.AudienceAdmin,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Link:     link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to push admin notification", zap.String("type", notifType), zap.Error(err))
	}
}

// PushStudent adds an entry to one student's inbox.
func (s *NotificationService) PushStudent(ctx context.Context, recipientID, notifType, title, message string, link *string) {
	n := &models.Notification{
		Audience:    models.AudienceStudent,
		RecipientID: &recipientID,
		Type:        notifType,
		Title:       title,
		Message:     message,
		Link:        link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to push student notification", zap.String("type", notifType), zap.Error(err))
	}
}

// PushStudentBroadcast adds an entry visible to every student inbox.
func (s *NotificationService) PushStudentBroadcast(ctx context.Context, notifType, title, message string, link *string) {
	n := &models.Notification{
		Audience: models.AudienceStudent,
		Type:     notifType,
		Title:    title,
		Message:  message,
		Link:     link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		s.logger.Warn("failed to push broadcast notification", zap.String("type", notifType), zap.Error(err))
	}
}

// List returns the inbox newest first.
func (s *NotificationService) List(ctx context.Context, audience models.NotificationAudience, recipientID string) ([]models.Notification, error) {
	items, err := s.repo.List(ctx, audience, recipientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, nil
}

// MarkAsRead flags one entry read. Missing ids succeed silently.
func (s *NotificationService) MarkAsRead(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error {
	if err := s.repo.MarkAsRead(ctx, audience, recipientID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllAsRead flags the whole inbox read.
func (s *NotificationService) MarkAllAsRead(ctx context.Context, audience models.NotificationAudience, recipientID string) error {
	if err := s.repo.MarkAllAsRead(ctx, audience, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Delete removes one entry. Missing ids succeed silently.
func (s *NotificationService) Delete(ctx context.Context, audience models.NotificationAudience, recipientID, id string) error {
	if err := s.repo.Delete(ctx, audience, recipientID, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}

// ClearAll empties the inbox.
func (s *NotificationService) ClearAll(ctx context.Context, audience models.NotificationAudience, recipientID string) error {
	if err := s.repo.ClearAll(ctx, audience, recipientID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear notifications")
	}
	return nil
}

// UnreadCount counts unread entries.
func (s *NotificationService) UnreadCount(ctx context.Context, audience models.NotificationAudience, recipientID string) (int, error) {
	count, err := s.repo.UnreadCount(ctx, audience, recipientID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}
