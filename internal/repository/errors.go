package repository

import (
	"database/sql"
	"errors"

	"github.com/noah-isme/edu-platform-api/pkg/database"
)

// Sentinel errors returned when a write trips one of the uniqueness constraints.
var (
	ErrDuplicateEnrollment        = errors.New("enrollment already exists for user and course")
	ErrDuplicateCertificate       = errors.New("certificate already exists for user and course")
	ErrDuplicateCertificateNumber = errors.New("certificate number already taken")
)

var constraintErrors = map[string]error{
	"enrollments_user_course_key":         ErrDuplicateEnrollment,
	"certificates_user_course_key":        ErrDuplicateCertificate,
	"certificates_certificate_number_key": ErrDuplicateCertificateNumber,
}

// translateUniqueViolation maps a unique violation on a known constraint to its sentinel.
// Other errors are returned untouched.
func translateUniqueViolation(err error) error {
	constraint, ok := database.UniqueViolation(err)
	if !ok {
		return err
	}
	if sentinel, known := constraintErrors[constraint]; known {
		return sentinel
	}
	return err
}

// missingRow reports lookups that cannot match a row: no rows came back, or the id was not
// even a valid UUID literal.
func missingRow(err error) bool {
	return errors.Is(err, sql.ErrNoRows) || database.InvalidTextRepresentation(err)
}
