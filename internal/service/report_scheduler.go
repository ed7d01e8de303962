package service

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/dto"
	"github.com/noah-isme/nemsu-talks-api/internal/models"
)

// ReportScheduler enqueues the weekly digest on a cron schedule and drops a
// note into the admin inbox when it runs.
type ReportScheduler struct {
	reports  *ReportService
	notifier adminNotifier
	schedule string
	cron     *cron.Cron
	logger   *zap.Logger
}

// NewReportScheduler constructs a scheduler. schedule uses standard five-field
// cron syntax.
func NewReportScheduler(reports *ReportService, notifier adminNotifier, schedule string, logger *zap.Logger) *ReportScheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportScheduler{
		reports:  reports,
		notifier: notifier,
		schedule: schedule,
		logger:   logger,
	}
}

// Start registers the weekly job and begins the cron loop.
func (s *ReportScheduler) Start(ctx context.Context) error {
	s.cron = cron.New()
	if _, err := s.cron.AddFunc(s.schedule, func() { s.runWeekly(ctx) }); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *ReportScheduler) Stop() {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}
}

func (s *ReportScheduler) runWeekly(ctx context.Context) {
	now := time.Now().UTC()
	from := now.AddDate(0, 0, -7)
	req := dto.ReportRequest{
		Type:     models.ReportTypeWeeklyDigest,
		Format:   models.ReportFormatPDF,
		DateFrom: &from,
		DateTo:   &now,
	}
	resp, err := s.reports.CreateJob(ctx, req, "scheduler")
	if err != nil {
		s.logger.Warn("failed to enqueue weekly digest", zap.Error(err))
		return
	}
	s.logger.Info("weekly digest queued", zap.String("job_id", resp.ID))
	if s.notifier != nil {
		s.notifier.PushAdmin(ctx, models.NotifTypeSystem, "Weekly Report",
			"Weekly sentiment report is ready for review", nil)
	}
}
