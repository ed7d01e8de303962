package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
	appErrors "github.com/noah-isme/nemsu-talks-api/pkg/errors"
)

type mockDashboardSource struct {
	stats      models.SentimentStats
	trend      []models.TrendPoint
	categories []models.CategoryCount
	polarities []models.PolarityCount
	unread     int
	statsCalls int
}

func (m *mockDashboardSource) Stats(ctx context.Context) (models.SentimentStats, error) {
	m.statsCalls++
	return m.stats, nil
}

func (m *mockDashboardSource) Trend(ctx context.Context) ([]models.TrendPoint, error) {
	return m.trend, nil
}

func (m *mockDashboardSource) CategoryBreakdown(ctx context.Context) ([]models.CategoryCount, error) {
	return m.categories, nil
}

func (m *mockDashboardSource) PolarityBreakdown(ctx context.Context) ([]models.PolarityCount, error) {
	return m.polarities, nil
}

func (m *mockDashboardSource) UnreadCount(ctx context.Context, audience models.NotificationAudience, recipientID string) (int, error) {
	return m.unread, nil
}

type memoryCacheRepo struct {
	entries map[string][]byte
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	data, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(data, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = map[string][]byte{}
	}
	m.entries[key] = data
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.entries = map[string][]byte{}
	return nil
}

func TestDashboardServiceOverview(t *testing.T) {
	source := &mockDashboardSource{
		stats:      models.SentimentStats{Total: 10, OnProcess: 4, Resolved: 6, ThisMonth: 3},
		trend:      []models.TrendPoint{{Month: "Jan", Count: 5}},
		categories: []models.CategoryCount{{Category: models.CategoryFacilities, Count: 7}},
		polarities: []models.PolarityCount{{Polarity: models.PolarityNegative, Count: 4}},
		unread:     2,
	}
	svc := NewDashboardService(source, source, source, nil, time.Minute, zap.NewNop())

	overview, cacheHit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.InDelta(t, 60.0, overview.ResolutionRate, 0.001)
	assert.Equal(t, 2, overview.UnreadNotifications)
	assert.Len(t, overview.CategoryBreakdown, 1)
}

func TestDashboardServiceOverviewUsesCache(t *testing.T) {
	source := &mockDashboardSource{stats: models.SentimentStats{Total: 1}}
	cache := NewCacheService(&memoryCacheRepo{}, nil, time.Minute, zap.NewNop(), true)
	svc := NewDashboardService(source, source, source, cache, time.Minute, zap.NewNop())

	_, cacheHit, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 1, source.statsCalls)

	_, cacheHit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.True(t, cacheHit)
	assert.Equal(t, 1, source.statsCalls)

	svc.Invalidate(context.Background())
	_, cacheHit, err = svc.Overview(context.Background())
	require.NoError(t, err)
	assert.False(t, cacheHit)
	assert.Equal(t, 2, source.statsCalls)
}

func TestDashboardServiceOverviewEmptyBreakdowns(t *testing.T) {
	source := &mockDashboardSource{}
	svc := NewDashboardService(source, source, source, nil, time.Minute, zap.NewNop())

	overview, _, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, overview.CategoryBreakdown)
	assert.NotNil(t, overview.PolarityBreakdown)
	assert.Equal(t, float64(0), overview.ResolutionRate)
}
