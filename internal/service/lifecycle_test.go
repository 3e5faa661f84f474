package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

// The full enroll, learn, certify path through the services sharing one set of stores.
func TestEnrollmentToCertificateLifecycle(t *testing.T) {
	ctx := context.Background()
	clock := fixedClock(jan15)
	instructorID := "instructor-1"
	courses := newFakeCourses(models.Course{ID: "course-1", Title: "Go Fundamentals", InstructorID: &instructorID})
	users := newFakeUsers(
		models.User{ID: "user-a", Name: "Grace Hopper", Role: models.RoleStudent},
		models.User{ID: instructorID, Name: "Ada Lovelace", Role: models.RoleInstructor},
	)
	enrollments := newFakeEnrollments()
	metrics := NewMetricsService()
	cache := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)

	enrollSvc := NewEnrollmentService(enrollments, courses, clock, metrics, nil)
	progressSvc := NewProgressService(newFakeProgress(), enrollments, enrollSvc, cache, time.Minute, clock, nil, nil)
	certSvc := NewCertificateService(newFakeCertificates(), enrollments, courses, users, nil, cache, metrics, clock, CertificateOptions{}, nil)
	actor := studentClaims("user-a")

	_, err := certSvc.Generate(ctx, actor, "course-1")
	require.ErrorIs(t, err, appErrors.ErrNotEnrolled)

	enrollment, err := enrollSvc.Enroll(ctx, "user-a", "course-1")
	require.NoError(t, err)
	assert.Zero(t, enrollment.ProgressPercentage)

	_, err = progressSvc.Record(ctx, "user-a", "course-1", dto.RecordProgressRequest{CompletionPercentage: floatPtr(60), TimeSpent: 30, Points: 10})
	require.NoError(t, err)
	_, err = certSvc.Generate(ctx, actor, "course-1")
	require.ErrorIs(t, err, appErrors.ErrIncompleteProgress)

	result, err := progressSvc.Record(ctx, "user-a", "course-1", dto.RecordProgressRequest{CompletionPercentage: floatPtr(100), TimeSpent: 45, Points: 20})
	require.NoError(t, err)
	require.NotNil(t, result.Enrollment.CompletedAt)

	cert, err := certSvc.Generate(ctx, actor, "course-1")
	require.NoError(t, err)
	assert.Equal(t, models.GradeExcellent, cert.Grade)
	assert.True(t, strings.HasPrefix(cert.CertificateNumber, "CERT-20240115-"))
	assert.Equal(t, "Ada Lovelace", cert.InstructorName)
	assert.Equal(t, "Grace Hopper", cert.StudentName)

	again, err := certSvc.Generate(ctx, actor, "course-1")
	require.NoError(t, err)
	assert.Equal(t, cert.CertificateNumber, again.CertificateNumber)

	verified, _, err := certSvc.Verify(ctx, cert.CertificateNumber)
	require.NoError(t, err)
	assert.Equal(t, cert.ID, verified.ID)
}
