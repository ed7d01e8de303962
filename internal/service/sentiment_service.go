package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type sentimentRepository interface {
	Create(ctx context.Context, s *models.Sentiment) error
	GetByID(ctx context.Context, id string) (*models.Sentiment, error)
	List(ctx context.Context, filter models.SentimentFilter) ([]models.Sentiment, int, error)
	UpdateStatus(ctx context.Context, id string, status models.SentimentStatus) (int64, error)
	Stats(ctx context.Context, now time.Time) (models.SentimentStats, error)
	MonthlyCounts(ctx context.Context, from time.Time) ([]models.MonthlyCount, error)
}

type adminNotifier interface {
	PushAdmin(ctx context.Context, notifType, title, message string, link *string)
}

// SentimentService manages reviewed feedback records.
type SentimentService struct {
	repo      sentimentRepository
	notifier  adminNotifier
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewSentimentService constructs a SentimentService. notifier may be nil.
func NewSentimentService(repo sentimentRepository, notifier adminNotifier, validate *validator.Validate, logger *zap.Logger) *SentimentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &SentimentService{repo: repo, notifier: notifier, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new record and notifies the admin inbox.
func (s *SentimentService) Create(ctx context.Context, req dto.CreateSentimentRequest) (*models.Sentiment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid sentiment payload")
	}
	if !models.ValidSentimentCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if !models.ValidSentimentPolarity(req.Sentiment) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown sentiment")
	}

	record := &models.Sentiment{
		StudentLabel: req.Student,
		Content:      req.Content,
		Category:     models.SentimentCategory(req.Category),
		Polarity:     models.SentimentPolarity(req.Sentiment),
		Status:       models.StatusOnProcess,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create sentiment")
	}

	if s.notifier != nil {
		s.notifier.PushAdmin(ctx, models.NotifTypeNewSentiment, "New Sentiment Submitted",
			fmt.Sprintf("%s submitted feedback about %s", record.StudentLabel, record.Category), nil)
	}

	return record, nil
}

// Get returns one record by id.
func (s *SentimentService) Get(ctx context.Context, id string) (*models.Sentiment, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "sentiment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sentiment")
	}
	return record, nil
}

// List returns records newest first with total count.
func (s *SentimentService) List(ctx context.Context, filter models.SentimentFilter) ([]models.Sentiment, int, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sentiments")
	}
	if records == nil {
		records = []models.Sentiment{}
	}
	return records, total, nil
}

// UpdateStatus transitions a record's status. An unknown id is a silent
// no-op; only an actual transition notifies the admin inbox.
func (s *SentimentService) UpdateStatus(ctx context.Context, id string, status models.SentimentStatus) error {
	if !models.ValidSentimentStatus(string(status)) {
		return appErrors.Clone(appErrors.ErrValidation, "unknown status")
	}
	affected, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update sentiment status")
	}
	if affected > 0 && s.notifier != nil {
		s.notifier.PushAdmin(ctx, models.NotifTypeStatusUpdate, "Status Updated",
			fmt.Sprintf("Sentiment %s moved to %s", id, status), nil)
	}
	return nil
}

// Stats aggregates workflow counters for the admin overview.
func (s *SentimentService) Stats(ctx context.Context) (models.SentimentStats, error) {
	stats, err := s.repo.Stats(ctx, s.now())
	if err != nil {
		return models.SentimentStats{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sentiment stats")
	}
	return stats, nil
}

// Trend returns the trailing twelve calendar months oldest first, zero
// filling months with no submissions.
func (s *SentimentService) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	now := s.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	counts, err := s.repo.MonthlyCounts(ctx, start)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sentiment trend")
	}

	byMonth := make(map[string]int, len(counts))
	for _, c := range counts {
		byMonth[c.Month.UTC().Format("2006-01")] = c.Count
	}

	points := make([]models.TrendPoint, 0, 12)
	for i := 0; i < 12; i++ {
		month := start.AddDate(0, i, 0)
		points = append(points, models.TrendPoint{
			Month: month.Format("Jan"),
			Count: byMonth[month.Format("2006-01")],
		})
	}
	return points, nil
}
