package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/edu-platform-api/internal/models"
)

// CertificateRepository persists certificates. Certificates are append-only, so there is no update or delete.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateColumns = `ct.id, ct.user_id, ct.course_id, ct.certificate_number, ct.issued_at, ct.completed_at,
        ct.instructor_name, ct.course_title, ct.student_name, ct.grade`

const certificateDetailSelect = `SELECT ` + certificateColumns + `,
        c.thumbnail AS course_thumbnail, c.category AS course_category, c.duration AS course_duration
        FROM certificates ct
        LEFT JOIN courses c ON c.id = ct.course_id`

// Create inserts a certificate. Uniqueness violations are reported as ErrDuplicateCertificate or ErrDuplicateCertificateNumber.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	const query = `INSERT INTO certificates (id, user_id, course_id, certificate_number, issued_at, completed_at, instructor_name, course_title, student_name, grade)
        VALUES (:id, :user_id, :course_id, :certificate_number, :issued_at, :completed_at, :instructor_name, :course_title, :student_name, :grade)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		if translated := translateUniqueViolation(err); translated != err {
			return translated
		}
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindByUserAndCourse returns the certificate issued to the user for the course or sql.ErrNoRows.
func (r *CertificateRepository) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates ct WHERE ct.user_id = $1 AND ct.course_id = $2`
	var cert models.Certificate
	if err := r.db.GetContext(ctx, &cert, query, userID, courseID); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find certificate by course: %w", err)
	}
	return &cert, nil
}

// FindDetailByID returns a certificate with display metadata.
func (r *CertificateRepository) FindDetailByID(ctx context.Context, id string) (*models.CertificateDetail, error) {
	var detail models.CertificateDetail
	if err := r.db.GetContext(ctx, &detail, certificateDetailSelect+` WHERE ct.id = $1`, id); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find certificate: %w", err)
	}
	return &detail, nil
}

// FindDetailByNumber looks a certificate up by its public number.
func (r *CertificateRepository) FindDetailByNumber(ctx context.Context, number string) (*models.CertificateDetail, error) {
	var detail models.CertificateDetail
	if err := r.db.GetContext(ctx, &detail, certificateDetailSelect+` WHERE ct.certificate_number = $1`, number); err != nil {
		if missingRow(err) {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("find certificate by number: %w", err)
	}
	return &detail, nil
}

// ListByUser returns the user's certificates, most recently issued first.
func (r *CertificateRepository) ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	var certs []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &certs, certificateDetailSelect+` WHERE ct.user_id = $1 ORDER BY ct.issued_at DESC`, userID); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
