package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/export"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
	"github.com/noah-isme/edu-platform-api/pkg/storage"
)

// Supported report formats.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type enrollmentReportRepository interface {
	ListReportRows(ctx context.Context, courseID string) ([]models.EnrollmentReportRow, error)
}

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type urlSigner interface {
	Generate(ref, relPath string) (string, time.Time, error)
	Parse(token string) (*storage.SignedFile, error)
	TTL() time.Duration
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// DownloadFile is an opened export ready to be streamed. The caller closes File.
type DownloadFile struct {
	File        *os.File
	Name        string
	ContentType string
}

// ExportService renders course enrollment reports and serves them through signed links.
type ExportService struct {
	enrollments enrollmentReportRepository
	courses     courseReader
	storage     fileStorage
	signer      urlSigner
	renderers   map[string]export.Renderer
	metrics     *MetricsService
	clock       Clock
	logger      *zap.Logger
	cfg         ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(enrollments enrollmentReportRepository, courses courseReader, files fileStorage, signer urlSigner, metrics *MetricsService, clock Clock, cfg ExportConfig, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.APIPrefix == "" {
		cfg.APIPrefix = "/api/v1"
	}
	return &ExportService{
		enrollments: enrollments,
		courses:     courses,
		storage:     files,
		signer:      signer,
		renderers: map[string]export.Renderer{
			ExportFormatCSV: export.NewCSVExporter(),
			ExportFormatPDF: export.NewPDFExporter(),
		},
		metrics: metrics,
		clock:   clockOrSystem(clock),
		logger:  logger,
		cfg:     cfg,
	}
}

// ExportCourseEnrollments writes the enrollment progress report of a course and returns a signed download link.
func (s *ExportService) ExportCourseEnrollments(ctx context.Context, courseID, format string) (*dto.ExportResult, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}

	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return nil, err
	}
	rows, err := s.enrollments.ListReportRows(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment report")
	}

	payload, err := renderer.Render(enrollmentDataset(course, rows))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	now := s.clock.Now()
	filename := path.Join("enrollments", fmt.Sprintf("%s_%s.%s", course.ID, now.Format("20060102_150405"), renderer.Extension()))
	relPath, err := s.storage.Save(filename, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}

	token, expiresAt, err := s.signer.Generate(course.ID, relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download link")
	}
	s.metrics.IncExportGenerated(format)
	s.logger.Info("enrollment report exported", zap.String("course_id", course.ID), zap.String("format", format), zap.Int("rows", len(rows)))

	return &dto.ExportResult{
		Format:    format,
		Rows:      len(rows),
		URL:       fmt.Sprintf("%s/exports/%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token),
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Open validates a download token and opens the referenced file.
func (s *ExportService) Open(token string) (*DownloadFile, error) {
	signed, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(signed.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export file no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export")
	}
	name := path.Base(signed.Path)
	contentType := "application/octet-stream"
	if renderer, ok := s.renderers[strings.TrimPrefix(path.Ext(name), ".")]; ok {
		contentType = renderer.ContentType()
	}
	return &DownloadFile{File: file, Name: name, ContentType: contentType}, nil
}

// Cleanup removes stored reports older than the configured retention.
func (s *ExportService) Cleanup() ([]string, error) {
	deleted, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Error("export cleanup failed", zap.Error(err))
		return nil, err
	}
	s.metrics.AddExportsPurged(len(deleted))
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
	return deleted, nil
}

func enrollmentDataset(course *models.Course, rows []models.EnrollmentReportRow) export.Dataset {
	data := export.Dataset{
		Title:   fmt.Sprintf("Enrollments: %s", course.Title),
		Headers: []string{"Student", "Email", "Enrolled At", "Completed At", "Progress %", "Minutes", "Points"},
		Rows:    make([][]string, 0, len(rows)),
	}
	for _, row := range rows {
		completed := ""
		if row.CompletedAt != nil {
			completed = row.CompletedAt.UTC().Format(time.RFC3339)
		}
		data.Rows = append(data.Rows, []string{
			row.StudentName,
			row.StudentEmail,
			row.EnrolledAt.UTC().Format(time.RFC3339),
			completed,
			strconv.FormatFloat(row.ProgressPercentage, 'f', 1, 64),
			strconv.Itoa(row.TimeSpent),
			strconv.Itoa(row.Points),
		})
	}
	return data
}
