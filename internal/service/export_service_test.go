package service

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/pkg/export"
	"github.com/noah-isme/nemsu-talks-api/pkg/storage"
)

type mockExportSentiments struct {
	records    []models.Sentiment
	stats      models.SentimentStats
	categories []models.CategoryCount
	polarities []models.PolarityCount
}

func (m *mockExportSentiments) ListForExport(ctx context.Context, params models.ReportJobParams) ([]models.Sentiment, error) {
	return m.records, nil
}

func (m *mockExportSentiments) Stats(ctx context.Context, now time.Time) (models.SentimentStats, error) {
	return m.stats, nil
}

func (m *mockExportSentiments) CategoryBreakdown(ctx context.Context) ([]models.CategoryCount, error) {
	return m.categories, nil
}

func (m *mockExportSentiments) PolarityBreakdown(ctx context.Context) ([]models.PolarityCount, error) {
	return m.polarities, nil
}

type mockFileStorage struct {
	saved map[string][]byte
}

func (m *mockFileStorage) Save(filename string, data []byte) (string, error) {
	if m.saved == nil {
		m.saved = map[string][]byte{}
	}
	m.saved[filename] = data
	return filename, nil
}

func (m *mockFileStorage) Open(filename string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func (m *mockFileStorage) Delete(filename string) error {
	delete(m.saved, filename)
	return nil
}

func (m *mockFileStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	return nil, nil
}

type capturingCSV struct {
	dataset export.Dataset
}

func (c *capturingCSV) Render(data export.Dataset) ([]byte, error) {
	c.dataset = data
	return []byte("csv"), nil
}

func testExportService(sentiments *mockExportSentiments, store *mockFileStorage, csv *capturingCSV) *ExportService {
	signer := storage.NewSignedURLSigner("export-secret", time.Hour)
	return NewExportService(sentiments, store, signer, ExportConfig{APIPrefix: "/api/v1"}, zap.NewNop(), csv, nil)
}

func TestExportServiceGenerateSentimentSummary(t *testing.T) {
	created := time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)
	sentiments := &mockExportSentiments{records: []models.Sentiment{{
		Code:         "STU-007",
		StudentLabel: "Anonymous",
		Content:      "The wifi keeps dropping in the dorms.",
		Category:     models.CategoryFacilities,
		Polarity:     models.PolarityNegative,
		Status:       models.StatusOnProcess,
		CreatedAt:    created,
	}}}
	store := &mockFileStorage{}
	csv := &capturingCSV{}
	svc := testExportService(sentiments, store, csv)

	job := &models.ReportJob{
		ID:     "job-1",
		Type:   models.ReportTypeSentimentSummary,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	result, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, []string{"Code", "Student", "Category", "Sentiment", "Status", "Content", "Submitted"}, csv.dataset.Headers)
	require.Len(t, csv.dataset.Rows, 1)
	assert.Equal(t, "STU-007", csv.dataset.Rows[0]["Code"])
	assert.Equal(t, created.Format(time.RFC3339), csv.dataset.Rows[0]["Submitted"])

	assert.Equal(t, models.ReportFormatCSV, result.Format)
	assert.True(t, strings.HasPrefix(result.URL, "/api/v1/export/"))
	assert.NotEmpty(t, result.Token)
	require.Len(t, store.saved, 1)
	for name := range store.saved {
		assert.True(t, strings.HasPrefix(name, "sentiment_summary_"))
		assert.True(t, strings.HasSuffix(name, ".csv"))
	}

	// The token round-trips through the signer back to the job.
	jobID, relPath, _, err := svc.ParseToken(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, "job-1", jobID)
	assert.Equal(t, result.RelativePath, relPath)
}

func TestExportServiceGenerateWeeklyDigest(t *testing.T) {
	sentiments := &mockExportSentiments{
		stats:      models.SentimentStats{Total: 8, OnProcess: 2, Resolved: 6, ThisMonth: 3},
		categories: []models.CategoryCount{{Category: models.CategoryAdministration, Count: 5}},
		polarities: []models.PolarityCount{{Polarity: models.PolarityPositive, Count: 4}},
	}
	csv := &capturingCSV{}
	svc := testExportService(sentiments, &mockFileStorage{}, csv)

	job := &models.ReportJob{
		ID:     "job-2",
		Type:   models.ReportTypeWeeklyDigest,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
	}
	_, err := svc.Generate(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, []string{"Metric", "Value", "Notes"}, csv.dataset.Headers)
	metrics := map[string]string{}
	for _, row := range csv.dataset.Rows {
		metrics[row["Metric"]] = row["Value"]
	}
	assert.Equal(t, "8", metrics["Total Sentiments"])
	assert.Equal(t, "75.00%", metrics["Resolution Rate"])
	assert.Equal(t, "5", metrics["Category: Administration"])
	assert.Equal(t, "4", metrics["Sentiment: Positive"])
}

func TestExportServiceGenerateRejectsUnknownFormat(t *testing.T) {
	svc := testExportService(&mockExportSentiments{}, &mockFileStorage{}, &capturingCSV{})

	job := &models.ReportJob{
		Type:   models.ReportTypeSentimentSummary,
		Params: models.ReportJobParams{Format: "xlsx"},
	}
	_, err := svc.Generate(context.Background(), job)
	require.Error(t, err)
}
