package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:overview"

type dashboardSentiments interface {
	Stats(ctx context.Context) (models.SentimentStats, error)
	Trend(ctx context.Context) ([]models.TrendPoint, error)
}

type dashboardBreakdowns interface {
	CategoryBreakdown(ctx context.Context) ([]models.CategoryCount, error)
	PolarityBreakdown(ctx context.Context) ([]models.PolarityCount, error)
}

type unreadCounter interface {
	UnreadCount(ctx context.Context, audience models.NotificationAudience, recipientID string) (int, error)
}

// DashboardService assembles the composite admin overview. The payload is
// cached with a short TTL so repeated dashboard loads stay cheap.
type DashboardService struct {
	sentiments dashboardSentiments
	breakdowns dashboardBreakdowns
	unread     unreadCounter
	cache      *CacheService
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(sentiments dashboardSentiments, breakdowns dashboardBreakdowns, unread unreadCounter, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = time.Minute
	}
	return &DashboardService{
		sentiments: sentiments,
		breakdowns: breakdowns,
		unread:     unread,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// Overview returns the dashboard payload and whether it came from cache.
func (s *DashboardService) Overview(ctx context.Context) (*models.DashboardOverview, bool, error) {
	var overview models.DashboardOverview
	if hit, err := s.cache.Get(ctx, dashboardCacheKey, &overview); err == nil && hit {
		return &overview, true, nil
	}

	stats, err := s.sentiments.Stats(ctx)
	if err != nil {
		return nil, false, err
	}
	trend, err := s.sentiments.Trend(ctx)
	if err != nil {
		return nil, false, err
	}
	categories, err := s.breakdowns.CategoryBreakdown(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category breakdown")
	}
	polarities, err := s.breakdowns.PolarityBreakdown(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load sentiment breakdown")
	}
	unread, err := s.unread.UnreadCount(ctx, models.AudienceAdmin, "")
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}

	if categories == nil {
		categories = []models.CategoryCount{}
	}
	if polarities == nil {
		polarities = []models.PolarityCount{}
	}

	overview = models.DashboardOverview{
		Stats:               stats,
		ResolutionRate:      stats.ResolutionRate(),
		CategoryBreakdown:   categories,
		PolarityBreakdown:   polarities,
		Trend:               trend,
		UnreadNotifications: unread,
	}

	if err := s.cache.Set(ctx, dashboardCacheKey, overview, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard overview", zap.Error(err))
	}
	return &overview, false, nil
}

// Invalidate drops the cached overview. Called after writes that change the
// numbers it reports.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, dashboardCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
