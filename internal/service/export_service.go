package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/nemsu-talks-api/internal/models"
	"github.com/noah-isme/nemsu-talks-api/pkg/export"
	"github.com/noah-isme/nemsu-talks-api/pkg/storage"
)

type exportSentiments interface {
	ListForExport(ctx context.Context, params models.ReportJobParams) ([]models.Sentiment, error)
	Stats(ctx context.Context, now time.Time) (models.SentimentStats, error)
	CategoryBreakdown(ctx context.Context) ([]models.CategoryCount, error)
	PolarityBreakdown(ctx context.Context) ([]models.PolarityCount, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures successful generation metadata.
type ExportResult struct {
	RelativePath string
	Token        string
	URL          string
	Format       models.ReportFormat
	ExpiresAt    time.Time
}

// ExportService builds report datasets and persists rendered files.
type ExportService struct {
	sentiments exportSentiments
	storage    fileStorage
	csv        csvRenderer
	pdf        pdfRenderer
	signer     *storage.SignedURLSigner
	logger     *zap.Logger
	cfg        ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(sentiments exportSentiments, storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		sentiments: sentiments,
		storage:    storage,
		csv:        csv,
		pdf:        pdf,
		signer:     signer,
		logger:     logger,
		cfg:        cfg,
	}
}

// Generate builds the dataset for a job and stores the rendered export.
func (s *ExportService) Generate(ctx context.Context, job *models.ReportJob) (*ExportResult, error) {
	if job == nil {
		return nil, fmt.Errorf("job nil")
	}
	dataset, title, err := s.buildDataset(ctx, job)
	if err != nil {
		return nil, err
	}

	var payload []byte
	switch job.Params.Format {
	case models.ReportFormatCSV:
		payload, err = s.csv.Render(dataset)
	case models.ReportFormatPDF:
		payload, err = s.pdf.Render(dataset, title)
	default:
		err = fmt.Errorf("unsupported format %s", job.Params.Format)
	}
	if err != nil {
		return nil, err
	}

	filename := s.buildFilename(job)
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(job.ID, relPath)
	if err != nil {
		return nil, err
	}
	signedURL := strings.TrimRight(s.cfg.APIPrefix, "/")
	if signedURL == "" {
		signedURL = "/api/v1"
	}
	signedURL = fmt.Sprintf("%s/export/%s", signedURL, token)

	return &ExportResult{
		RelativePath: relPath,
		Token:        token,
		URL:          signedURL,
		Format:       job.Params.Format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Delete removes a stored export file.
func (s *ExportService) Delete(relPath string) error {
	return s.storage.Delete(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

func (s *ExportService) buildFilename(job *models.ReportJob) string {
	timestamp := time.Now().UTC().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", strings.ToLower(string(job.Type)), timestamp, job.Params.Format)
}

func (s *ExportService) buildDataset(ctx context.Context, job *models.ReportJob) (export.Dataset, string, error) {
	switch job.Type {
	case models.ReportTypeSentimentSummary:
		return s.buildSentimentDataset(ctx, job.Params)
	case models.ReportTypeWeeklyDigest:
		return s.buildDigestDataset(ctx, job.Params)
	default:
		return export.Dataset{}, "", fmt.Errorf("unsupported report type %s", job.Type)
	}
}

func (s *ExportService) buildSentimentDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	records, err := s.sentiments.ListForExport(ctx, params)
	if err != nil {
		return export.Dataset{}, "", err
	}
	rows := make([]map[string]string, 0, len(records))
	for _, rec := range records {
		rows = append(rows, map[string]string{
			"Code":      rec.Code,
			"Student":   rec.StudentLabel,
			"Category":  string(rec.Category),
			"Sentiment": string(rec.Polarity),
			"Status":    string(rec.Status),
			"Content":   rec.Content,
			"Submitted": rec.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	dataset := export.Dataset{
		Headers: []string{"Code", "Student", "Category", "Sentiment", "Status", "Content", "Submitted"},
		Rows:    rows,
	}
	return dataset, "Sentiment Summary Report", nil
}

func (s *ExportService) buildDigestDataset(ctx context.Context, params models.ReportJobParams) (export.Dataset, string, error) {
	now := time.Now().UTC()
	if params.DateTo != nil {
		now = params.DateTo.UTC()
	}
	stats, err := s.sentiments.Stats(ctx, now)
	if err != nil {
		return export.Dataset{}, "", err
	}
	categories, err := s.sentiments.CategoryBreakdown(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}
	polarities, err := s.sentiments.PolarityBreakdown(ctx)
	if err != nil {
		return export.Dataset{}, "", err
	}

	rows := []map[string]string{
		{"Metric": "Total Sentiments", "Value": fmt.Sprintf("%d", stats.Total), "Notes": ""},
		{"Metric": "On Process", "Value": fmt.Sprintf("%d", stats.OnProcess), "Notes": ""},
		{"Metric": "Resolved", "Value": fmt.Sprintf("%d", stats.Resolved), "Notes": ""},
		{"Metric": "This Month", "Value": fmt.Sprintf("%d", stats.ThisMonth), "Notes": ""},
		{"Metric": "Resolution Rate", "Value": fmt.Sprintf("%.2f%%", stats.ResolutionRate()), "Notes": ""},
	}
	for _, c := range categories {
		rows = append(rows, map[string]string{
			"Metric": "Category: " + string(c.Category),
			"Value":  fmt.Sprintf("%d", c.Count),
			"Notes":  "",
		})
	}
	for _, p := range polarities {
		rows = append(rows, map[string]string{
			"Metric": "Sentiment: " + string(p.Polarity),
			"Value":  fmt.Sprintf("%d", p.Count),
			"Notes":  "",
		})
	}

	dataset := export.Dataset{
		Headers: []string{"Metric", "Value", "Notes"},
		Rows:    rows,
	}
	return dataset, "Weekly Sentiment Digest", nil
}
