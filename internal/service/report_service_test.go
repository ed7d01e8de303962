package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/internal/repository"
	"github.com/noah-isme/nemsu-talks-api/pkg/jobs"
)

type mockReportStore struct {
	items  map[string]*models.ReportJob
	nextID int
}

func newMockReportStore() *mockReportStore {
	return &mockReportStore{items: map[string]*models.ReportJob{}, nextID: 1}
}

func (m *mockReportStore) Create(ctx context.Context, job *models.ReportJob) error {
	job.ID = fmt.Sprintf("job-%d", m.nextID)
	m.nextID++
	cp := *job
	m.items[job.ID] = &cp
	return nil
}

func (m *mockReportStore) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	job, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *job
	return &cp, nil
}

func (m *mockReportStore) Update(ctx context.Context, id string, params repository.UpdateReportJobParams) error {
	job, ok := m.items[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (m *mockReportStore) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	var out []models.ReportJob
	for _, job := range m.items {
		if job.Status == models.ReportStatusQueued {
			out = append(out, *job)
		}
	}
	return out, nil
}

func (m *mockReportStore) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	return nil, nil
}

type mockDispatcher struct {
	enqueued []jobs.Job
	err      error
}

func (m *mockDispatcher) Enqueue(job jobs.Job) error {
	if m.err != nil {
		return m.err
	}
	m.enqueued = append(m.enqueued, job)
	return nil
}

type mockGenerator struct {
	result *ExportResult
	err    error
	calls  int
}

func (m *mockGenerator) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func TestReportServiceCreateJob(t *testing.T) {
	store := newMockReportStore()
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	resp, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeSentimentSummary,
		Format: models.ReportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, resp.Status)
	assert.Len(t, queue.enqueued, 1)

	status, err := svc.GetStatus(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReportStatusQueued, status.Status)
}

func TestReportServiceCreateJobEnqueueFailureMarksFailed(t *testing.T) {
	store := newMockReportStore()
	queue := &mockDispatcher{err: errors.New("queue full")}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type:   models.ReportTypeWeeklyDigest,
		Format: models.ReportFormatPDF,
	}, "admin-1")
	require.Error(t, err)

	require.Len(t, store.items, 1)
	for _, job := range store.items {
		assert.Equal(t, models.ReportStatusFailed, job.Status)
		assert.Equal(t, 100, job.Progress)
	}
}

func TestReportServiceValidation(t *testing.T) {
	svc := NewReportService(newMockReportStore(), &mockDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type: "unknown", Format: models.ReportFormatCSV,
	}, "admin-1")
	require.Error(t, err)

	_, err = svc.CreateJob(context.Background(), dto.ReportRequest{
		Type: models.ReportTypeSentimentSummary, Format: "xlsx",
	}, "admin-1")
	require.Error(t, err)

	from := time.Date(2026, time.February, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, -1, 0)
	_, err = svc.CreateJob(context.Background(), dto.ReportRequest{
		Type: models.ReportTypeSentimentSummary, Format: models.ReportFormatCSV,
		DateFrom: &from, DateTo: &to,
	}, "admin-1")
	require.Error(t, err)
}

func TestReportServiceGetStatusUnknownJob(t *testing.T) {
	svc := NewReportService(newMockReportStore(), &mockDispatcher{}, nil, zap.NewNop(), ReportServiceConfig{})
	_, err := svc.GetStatus(context.Background(), "missing")
	require.Error(t, err)
}

func TestReportServiceRecoverPendingJobs(t *testing.T) {
	store := newMockReportStore()
	queue := &mockDispatcher{}
	svc := NewReportService(store, queue, nil, zap.NewNop(), ReportServiceConfig{})

	_, err := svc.CreateJob(context.Background(), dto.ReportRequest{
		Type: models.ReportTypeSentimentSummary, Format: models.ReportFormatCSV,
	}, "admin-1")
	require.NoError(t, err)
	queue.enqueued = nil

	svc.RecoverPendingJobs(context.Background())
	assert.Len(t, queue.enqueued, 1)
}

func TestReportWorkerFinishesJob(t *testing.T) {
	store := newMockReportStore()
	job := &models.ReportJob{
		Type:   models.ReportTypeSentimentSummary,
		Params: models.ReportJobParams{Format: models.ReportFormatCSV},
		Status: models.ReportStatusQueued,
	}
	require.NoError(t, store.Create(context.Background(), job))

	gen := &mockGenerator{result: &ExportResult{URL: "/api/v1/export/tok123", Format: models.ReportFormatCSV}}
	worker := NewReportWorker(store, gen, 3, zap.NewNop())

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1}))

	stored := store.items[job.ID]
	assert.Equal(t, models.ReportStatusFinished, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	require.NotNil(t, stored.ResultURL)
	assert.Equal(t, "/api/v1/export/tok123", *stored.ResultURL)
	assert.NotNil(t, stored.FinishedAt)
}

func TestReportWorkerRequeuesBeforeMaxRetries(t *testing.T) {
	store := newMockReportStore()
	job := &models.ReportJob{Type: models.ReportTypeSentimentSummary, Status: models.ReportStatusQueued}
	require.NoError(t, store.Create(context.Background(), job))

	gen := &mockGenerator{err: errors.New("render failed")}
	worker := NewReportWorker(store, gen, 3, zap.NewNop())

	err := worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 1})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusQueued, store.items[job.ID].Status)
	assert.Equal(t, 0, store.items[job.ID].Progress)

	err = worker.Handle(context.Background(), jobs.Job{ID: job.ID, Attempt: 3})
	require.Error(t, err)
	assert.Equal(t, models.ReportStatusFailed, store.items[job.ID].Status)
	assert.Equal(t, 100, store.items[job.ID].Progress)
	require.NotNil(t, store.items[job.ID].ErrorMessage)
	assert.Equal(t, "render failed", *store.items[job.ID].ErrorMessage)
}
