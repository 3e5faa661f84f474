package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

const defaultMaxGrade = 100

type assignmentRepository interface {
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, int, error)
	FindByID(ctx context.Context, id string) (*models.Assignment, error)
	Create(ctx context.Context, assignment *models.Assignment) error
	CreateSubmission(ctx context.Context, submission *models.Submission) error
	GradeSubmission(ctx context.Context, id string, grade float64, feedback *string, gradedAt time.Time) (*models.Submission, error)
	ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error)
	ListSubmissionsByStudent(ctx context.Context, studentID string) ([]models.Submission, error)
}

// AssignmentService manages assignments and the submission workflow.
type AssignmentService struct {
	repo      assignmentRepository
	courses   courseReader
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs AssignmentService.
func NewAssignmentService(repo assignmentRepository, courses courseReader, clock Clock, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, courses: courses, clock: clockOrSystem(clock), validator: validate, logger: logger}
}

// List returns assignments with pagination metadata.
func (s *AssignmentService) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, *models.Pagination, error) {
	assignments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	if assignments == nil {
		assignments = []models.Assignment{}
	}
	return assignments, paginate(filter.Page, filter.PageSize, total), nil
}

// Get returns a single assignment.
func (s *AssignmentService) Get(ctx context.Context, id string) (*models.Assignment, error) {
	assignment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignment")
	}
	return assignment, nil
}

// Create adds an assignment to an existing course.
func (s *AssignmentService) Create(ctx context.Context, req dto.CreateAssignmentRequest) (*models.Assignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if err := ensureCourse(ctx, s.courses, req.CourseID); err != nil {
		return nil, err
	}
	maxGrade := float64(defaultMaxGrade)
	if req.MaxGrade != nil {
		maxGrade = *req.MaxGrade
	}
	assignment := &models.Assignment{
		CourseID:    req.CourseID,
		Title:       req.Title,
		Description: req.Description,
		MaxGrade:    maxGrade,
		DueDate:     req.DueDate.UTC(),
		CreatedAt:   s.clock.Now(),
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Submit records a new submission. Enrollment is not required and repeated submissions each add a row.
func (s *AssignmentService) Submit(ctx context.Context, assignmentID string, actor *models.JWTClaims, req dto.SubmitAssignmentRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if isBlank(req.Content) && isBlank(req.FileURL) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "content or file_url is required")
	}
	if _, err := s.Get(ctx, assignmentID); err != nil {
		return nil, err
	}

	submission := &models.Submission{
		AssignmentID: assignmentID,
		StudentID:    actor.UserID,
		Content:      req.Content,
		FileURL:      req.FileURL,
		Status:       models.SubmissionStatusSubmitted,
		SubmittedAt:  s.clock.Now(),
	}
	if err := s.repo.CreateSubmission(ctx, submission); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create submission")
	}
	s.logger.Info("assignment submitted", zap.String("assignment_id", assignmentID), zap.String("student_id", actor.UserID))
	return submission, nil
}

// Grade records the grade once. Grades are not capped at the assignment's max grade.
func (s *AssignmentService) Grade(ctx context.Context, submissionID string, req dto.GradeSubmissionRequest) (*models.Submission, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	submission, err := s.repo.GradeSubmission(ctx, submissionID, *req.Grade, req.Feedback, s.clock.Now())
	if err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "submission not found")
		case errors.Is(err, repository.ErrSubmissionAlreadyGraded):
			return nil, appErrors.Clone(appErrors.ErrConflict, "submission already graded")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grade submission")
	}
	return submission, nil
}

// ListSubmissions returns every submission for an assignment.
func (s *AssignmentService) ListSubmissions(ctx context.Context, assignmentID string) ([]models.Submission, error) {
	if _, err := s.Get(ctx, assignmentID); err != nil {
		return nil, err
	}
	submissions, err := s.repo.ListSubmissions(ctx, assignmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	return submissions, nil
}

// ListMySubmissions returns the actor's own submissions.
func (s *AssignmentService) ListMySubmissions(ctx context.Context, actor *models.JWTClaims) ([]models.Submission, error) {
	submissions, err := s.repo.ListSubmissionsByStudent(ctx, actor.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	if submissions == nil {
		submissions = []models.Submission{}
	}
	return submissions, nil
}

func isBlank(s *string) bool {
	return s == nil || strings.TrimSpace(*s) == ""
}
