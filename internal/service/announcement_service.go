package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type announcementRepository interface {
	Create(ctx context.Context, a *models.Announcement) error
	GetByID(ctx context.Context, id string) (*models.Announcement, error)
	List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error)
	Publish(ctx context.Context, id string) (int64, error)
	MarkAsRead(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
	UnreadCount(ctx context.Context) (int, error)
}

type studentBroadcaster interface {
	PushStudentBroadcast(ctx context.Context, notifType, title, message string, link *string)
}

// AnnouncementService manages campus announcements and their draft lifecycle.
type AnnouncementService struct {
	repo      announcementRepository
	notifier  studentBroadcaster
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs an AnnouncementService. notifier may be nil.
func NewAnnouncementService(repo announcementRepository, notifier studentBroadcaster, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AnnouncementService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// Create stores a new announcement. Published announcements start flagged new
// and are broadcast to students; drafts wait for PublishDraft.
func (s *AnnouncementService) Create(ctx context.Context, req dto.CreateAnnouncementRequest, createdBy string) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid announcement payload")
	}

	status := req.Status
	if status == "" {
		status = models.AnnouncementStatusPublished
	}
	if status != models.AnnouncementStatusDraft && status != models.AnnouncementStatusPublished {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}

	a := &models.Announcement{
		Title:       req.Title,
		Description: req.Description,
		Category:    TitleCase(req.Category),
		Status:      status,
		IsNew:       status == models.AnnouncementStatusPublished,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}

	if a.Status == models.AnnouncementStatusPublished && s.notifier != nil {
		s.notifier.PushStudentBroadcast(ctx, models.NotifTypeAnnouncement, "New Announcement", a.Title, nil)
	}
	return a, nil
}

// Get returns one announcement by id.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	return a, nil
}

// List returns announcements newest first.
func (s *AnnouncementService) List(ctx context.Context, filter models.AnnouncementFilter) ([]models.Announcement, int, error) {
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	if items == nil {
		items = []models.Announcement{}
	}
	return items, total, nil
}

// ListPublished returns only published announcements, for the student view.
func (s *AnnouncementService) ListPublished(ctx context.Context, page, pageSize int) ([]models.Announcement, int, error) {
	published := models.AnnouncementStatusPublished
	return s.List(ctx, models.AnnouncementFilter{Status: &published, Page: page, PageSize: pageSize})
}

// PublishDraft moves a draft to published. Publishing is one way; ids that
// are missing or already published are silent no-ops and do not broadcast.
func (s *AnnouncementService) PublishDraft(ctx context.Context, id string) error {
	affected, err := s.repo.Publish(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish announcement")
	}
	if affected > 0 && s.notifier != nil {
		title := "New Announcement"
		message := ""
		if a, err := s.repo.GetByID(ctx, id); err == nil {
			message = a.Title
		}
		s.notifier.PushStudentBroadcast(ctx, models.NotifTypeAnnouncement, title, message, nil)
	}
	return nil
}

// MarkAsRead clears the new badge. Missing ids succeed silently.
func (s *AnnouncementService) MarkAsRead(ctx context.Context, id string) error {
	if err := s.repo.MarkAsRead(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark announcement read")
	}
	return nil
}

// Delete removes an announcement. Missing ids succeed silently.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	return nil
}

// UnreadCount counts published announcements still flagged new.
func (s *AnnouncementService) UnreadCount(ctx context.Context) (int, error) {
	count, err := s.repo.UnreadCount(ctx)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread announcements")
	}
	return count, nil
}

// TitleCase uppercases the first letter of each space separated word, so
// category labels display consistently regardless of how they were typed.
func TitleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		runes := []rune(w)
		runes[0] = unicode.ToUpper(runes[0])
		words[i] = string(runes)
	}
	return strings.Join(words, " ")
}
