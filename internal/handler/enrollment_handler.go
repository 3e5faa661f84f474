package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/middleware"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

type enrollmentService interface {
	Enroll(ctx context.Context, userID, courseID string) (*models.Enrollment, error)
	ListMine(ctx context.Context, userID string) ([]models.EnrolledCourse, error)
}

type progressService interface {
	Record(ctx context.Context, userID, courseID string, req dto.RecordProgressRequest) (*dto.ProgressResult, error)
	Get(ctx context.Context, userID, courseID string) (*models.Progress, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, bool, error)
}

// EnrollmentHandler exposes enrollment and progress endpoints.
type EnrollmentHandler struct {
	enrollments enrollmentService
	progress    progressService
}

// NewEnrollmentHandler constructs handler.
func NewEnrollmentHandler(enrollments enrollmentService, progress progressService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments, progress: progress}
}

// Enroll godoc
// @Summary Enroll in course
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /courses/{id}/enroll [post]
func (h *EnrollmentHandler) Enroll(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	enrollment, err := h.enrollments.Enroll(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, enrollment)
}

// MyCourses godoc
// @Summary Courses the caller is enrolled in
// @Tags Enrollments
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /courses/my [get]
func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	courses, err := h.enrollments.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// RecordProgress godoc
// @Summary Record learning progress
// @Tags Progress
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param payload body dto.RecordProgressRequest true "Progress payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/progress [post]
func (h *EnrollmentHandler) RecordProgress(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	var req dto.RecordProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid progress payload"))
		return
	}
	result, err := h.progress.Record(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// GetProgress godoc
// @Summary Current progress in a course
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /courses/{id}/progress [get]
func (h *EnrollmentHandler) GetProgress(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	progress, err := h.progress.Get(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, progress, nil)
}

// Leaderboard godoc
// @Summary Points leaderboard
// @Tags Progress
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Entries (default 10, max 100)"
// @Success 200 {object} response.Envelope
// @Router /leaderboard [get]
func (h *EnrollmentHandler) Leaderboard(c *gin.Context) {
	entries, hit, err := h.progress.Leaderboard(c.Request.Context(), queryInt(c, "limit", 10))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, entries, nil)
}
