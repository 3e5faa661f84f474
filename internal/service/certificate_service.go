package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	"github.com/noah-isme/edu-platform-api/pkg/export"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

const (
	certificateNumberPrefix = "CERT"
	certificateSuffixBytes  = 4
	verifyCacheKeyPrefix    = "certificates:verify:"
)

type certificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error)
	FindDetailByID(ctx context.Context, id string) (*models.CertificateDetail, error)
	FindDetailByNumber(ctx context.Context, number string) (*models.CertificateDetail, error)
	ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error)
}

type certificateEnrollmentRepository interface {
	FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	MarkCompleted(ctx context.Context, id string, completedAt time.Time) (*models.Enrollment, error)
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type certificateRenderer interface {
	Render(doc export.CertificateDocument) ([]byte, error)
}

// CertificateOptions tunes issuance and verification.
type CertificateOptions struct {
	FallbackInstructor string
	MaxAttempts        int
	VerifyTTL          time.Duration
	VerifyBaseURL      string
}

// CertificateService issues, verifies and renders completion certificates.
type CertificateService struct {
	certs       certificateRepository
	enrollments certificateEnrollmentRepository
	courses     courseReader
	users       userReader
	renderer    certificateRenderer
	cache       *CacheService
	metrics     *MetricsService
	clock       Clock
	random      io.Reader
	opts        CertificateOptions
	logger      *zap.Logger
}

// NewCertificateService constructs CertificateService.
func NewCertificateService(
	certs certificateRepository,
	enrollments certificateEnrollmentRepository,
	courses courseReader,
	users userReader,
	renderer certificateRenderer,
	cache *CacheService,
	metrics *MetricsService,
	clock Clock,
	opts CertificateOptions,
	logger *zap.Logger,
) *CertificateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewCertificateRenderer()
	}
	if opts.FallbackInstructor == "" {
		opts.FallbackInstructor = "Platform Instructor"
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 5
	}
	if opts.VerifyTTL <= 0 {
		opts.VerifyTTL = time.Hour
	}
	return &CertificateService{
		certs:       certs,
		enrollments: enrollments,
		courses:     courses,
		users:       users,
		renderer:    renderer,
		cache:       cache,
		metrics:     metrics,
		clock:       clockOrSystem(clock),
		random:      rand.Reader,
		opts:        opts,
		logger:      logger,
	}
}

// WithRandom replaces the entropy source used for certificate number suffixes.
func (s *CertificateService) WithRandom(r io.Reader) *CertificateService {
	if r != nil {
		s.random = r
	}
	return s
}

// GradeForProgress maps a completion percentage onto the certificate grade bands. Boundaries belong to the higher band.
func GradeForProgress(percentage float64) models.CertificateGrade {
	switch {
	case percentage >= 95:
		return models.GradeExcellent
	case percentage >= 90:
		return models.GradeVeryGood
	default:
		return models.GradePass
	}
}

// Generate issues the certificate for a completed enrollment. Calling it again returns the certificate already issued.
func (s *CertificateService) Generate(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Certificate, error) {
	course, err := loadCourse(ctx, s.courses, courseID)
	if err != nil {
		return nil, err
	}

	enrollment, err := s.enrollments.FindByUserAndCourse(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotEnrolled, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.ProgressPercentage < 100 {
		return nil, appErrors.WithDetails(appErrors.ErrIncompleteProgress, "",
			map[string]interface{}{"progress_percentage": enrollment.ProgressPercentage})
	}

	existing, err := s.certs.FindByUserAndCourse(ctx, actor.UserID, courseID)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check certificate")
	}

	if !enrollment.Completed() {
		enrollment, err = s.enrollments.MarkCompleted(ctx, enrollment.ID, s.clock.Now())
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark enrollment completed")
		}
	}

	student, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	instructorName, err := s.instructorName(ctx, course)
	if err != nil {
		return nil, err
	}

	cert := &models.Certificate{
		UserID:         actor.UserID,
		CourseID:       courseID,
		CompletedAt:    *enrollment.CompletedAt,
		InstructorName: instructorName,
		CourseTitle:    course.Title,
		StudentName:    student.Name,
		Grade:          GradeForProgress(enrollment.ProgressPercentage),
	}

	for attempt := 1; attempt <= s.opts.MaxAttempts; attempt++ {
		now := s.clock.Now()
		number, err := s.newCertificateNumber(now)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate certificate number")
		}
		cert.ID = ""
		cert.CertificateNumber = number
		cert.IssuedAt = now

		err = s.certs.Create(ctx, cert)
		switch {
		case err == nil:
			s.metrics.IncCertificateIssued(string(cert.Grade))
			s.logger.Info("certificate issued",
				zap.String("certificate_number", cert.CertificateNumber),
				zap.String("user_id", cert.UserID),
				zap.String("course_id", cert.CourseID),
				zap.String("grade", string(cert.Grade)))
			return cert, nil
		case errors.Is(err, repository.ErrDuplicateCertificateNumber):
			s.logger.Warn("certificate number collision, retrying", zap.String("certificate_number", number), zap.Int("attempt", attempt))
			continue
		case errors.Is(err, repository.ErrDuplicateCertificate):
			winner, findErr := s.certs.FindByUserAndCourse(ctx, actor.UserID, courseID)
			if findErr != nil {
				return nil, appErrors.Wrap(findErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load concurrently issued certificate")
			}
			return winner, nil
		default:
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist certificate")
		}
	}
	return nil, appErrors.Clone(appErrors.ErrConflict, "could not allocate a unique certificate number")
}

// Verify looks a certificate up by its printed number. No authentication is involved.
// The second return value reports whether the answer came from the cache.
func (s *CertificateService) Verify(ctx context.Context, number string) (*models.CertificateDetail, bool, error) {
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "certificate number is required")
	}

	return remember(ctx, s.cache, verifyCacheKeyPrefix+number, s.opts.VerifyTTL, func() (*models.CertificateDetail, error) {
		detail, err := s.certs.FindDetailByNumber(ctx, number)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify certificate")
		}
		return detail, nil
	})
}

// GetDetail returns a certificate to its owner or to an admin.
func (s *CertificateService) GetDetail(ctx context.Context, certificateID string, actor *models.JWTClaims) (*models.CertificateDetail, error) {
	detail, err := s.certs.FindDetailByID(ctx, certificateID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	if !canViewCertificate(actor, detail.UserID) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "certificate belongs to another user")
	}
	return detail, nil
}

// ListMine returns the actor's certificates, most recent first.
func (s *CertificateService) ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.CertificateDetail, error) {
	certs, err := s.certs.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	if certs == nil {
		certs = []models.CertificateDetail{}
	}
	return certs, nil
}

// GetByCourse returns the actor's certificate for a course.
func (s *CertificateService) GetByCourse(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Certificate, error) {
	cert, err := s.certs.FindByUserAndCourse(ctx, actor.UserID, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "certificate not found for this course")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}
	return cert, nil
}

// RenderPDF draws the printable certificate from the issuance snapshot.
func (s *CertificateService) RenderPDF(ctx context.Context, certificateID string, actor *models.JWTClaims) ([]byte, string, error) {
	detail, err := s.GetDetail(ctx, certificateID, actor)
	if err != nil {
		return nil, "", err
	}
	payload, err := s.renderer.Render(export.CertificateDocument{
		Number:         detail.CertificateNumber,
		StudentName:    detail.StudentName,
		CourseTitle:    detail.CourseTitle,
		InstructorName: detail.InstructorName,
		Grade:          string(detail.Grade),
		CompletedAt:    detail.CompletedAt,
		IssuedAt:       detail.IssuedAt,
		VerifyURL:      strings.TrimRight(s.opts.VerifyBaseURL, "/") + "/" + detail.CertificateNumber,
	})
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}
	return payload, detail.CertificateNumber + ".pdf", nil
}

func (s *CertificateService) instructorName(ctx context.Context, course *models.Course) (string, error) {
	if course.InstructorID == nil || *course.InstructorID == "" {
		return s.opts.FallbackInstructor, nil
	}
	instructor, err := s.users.FindByID(ctx, *course.InstructorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.opts.FallbackInstructor, nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}
	if strings.TrimSpace(instructor.Name) == "" {
		return s.opts.FallbackInstructor, nil
	}
	return instructor.Name, nil
}

// newCertificateNumber formats CERT-YYYYMMDD-XXXXXXXX from the UTC date and a random upper-case hex suffix.
func (s *CertificateService) newCertificateNumber(now time.Time) (string, error) {
	buf := make([]byte, certificateSuffixBytes)
	if _, err := io.ReadFull(s.random, buf); err != nil {
		return "", fmt.Errorf("read certificate suffix: %w", err)
	}
	return fmt.Sprintf("%s-%s-%s", certificateNumberPrefix, now.UTC().Format("20060102"), strings.ToUpper(hex.EncodeToString(buf))), nil
}

func canViewCertificate(actor *models.JWTClaims, ownerID string) bool {
	if actor == nil {
		return false
	}
	return actor.UserID == ownerID || actor.IsAdmin()
}
