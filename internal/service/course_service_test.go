package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/edu-platform-api/internal/dto"
	"github.com/noah-isme/edu-platform-api/internal/models"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type fakeCourseRepo struct {
	*fakeCourses
	lessons    map[string][]models.Lesson
	created    []models.Course
	lastFilter models.CourseFilter
}

func newFakeCourseRepo(courses ...models.Course) *fakeCourseRepo {
	return &fakeCourseRepo{fakeCourses: newFakeCourses(courses...), lessons: map[string][]models.Lesson{}}
}

func (f *fakeCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	f.lastFilter = filter
	out := make([]models.Course, 0, len(f.courses))
	for _, c := range f.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (f *fakeCourseRepo) FindDetail(ctx context.Context, id string) (*models.CourseDetail, error) {
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &models.CourseDetail{Course: c}, nil
}

func (f *fakeCourseRepo) Create(ctx context.Context, course *models.Course) error {
	course.ID = "course-new"
	f.created = append(f.created, *course)
	f.courses[course.ID] = *course
	return nil
}

func (f *fakeCourseRepo) CreateLesson(ctx context.Context, lesson *models.Lesson) error {
	lesson.ID = "lesson-new"
	f.lessons[lesson.CourseID] = append(f.lessons[lesson.CourseID], *lesson)
	return nil
}

func (f *fakeCourseRepo) ListLessons(ctx context.Context, courseID string) ([]models.Lesson, error) {
	return f.lessons[courseID], nil
}

func TestCourseListValidatesLevelAndPaginates(t *testing.T) {
	repo := newFakeCourseRepo(models.Course{ID: "course-1", Title: "Go"})
	svc := NewCourseService(repo, nil, nil)

	_, _, err := svc.List(context.Background(), models.CourseFilter{Level: "expert"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	courses, pagination, err := svc.List(context.Background(), models.CourseFilter{Search: "go", Level: models.CourseLevelBeginner})
	require.NoError(t, err)
	assert.Len(t, courses, 1)
	assert.Equal(t, &models.Pagination{Page: 1, PageSize: 20, TotalCount: 1}, pagination)
	assert.Equal(t, "go", repo.lastFilter.Search)
}

func TestCourseGetReturnsLessons(t *testing.T) {
	repo := newFakeCourseRepo(models.Course{ID: "course-1", Title: "Go"})
	svc := NewCourseService(repo, nil, nil)

	detail, err := svc.Get(context.Background(), "course-1")
	require.NoError(t, err)
	assert.NotNil(t, detail.Lessons)
	assert.Empty(t, detail.Lessons)

	_, err = svc.AddLesson(context.Background(), "course-1", dto.CreateLessonRequest{Title: "Intro", Duration: 10, Order: 1})
	require.NoError(t, err)
	detail, err = svc.Get(context.Background(), "course-1")
	require.NoError(t, err)
	require.Len(t, detail.Lessons, 1)
	assert.Equal(t, "Intro", detail.Lessons[0].Title)

	_, err = svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.AddLesson(context.Background(), "missing", dto.CreateLessonRequest{Title: "Intro"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseCreateOwnership(t *testing.T) {
	repo := newFakeCourseRepo()
	svc := NewCourseService(repo, nil, nil)
	other := "instructor-2"
	req := dto.CreateCourseRequest{Title: "Go", Category: "engineering", InstructorID: &other}

	course, err := svc.Create(context.Background(), &models.JWTClaims{UserID: "instructor-1", Role: models.RoleInstructor}, req)
	require.NoError(t, err)
	assert.Equal(t, "instructor-1", *course.InstructorID)
	assert.Equal(t, models.CourseLevelBeginner, course.Level)

	course, err = svc.Create(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, req)
	require.NoError(t, err)
	assert.Equal(t, "instructor-2", *course.InstructorID)

	_, err = svc.Create(context.Background(), studentClaims("user-a"), req)
	assert.ErrorIs(t, err, appErrors.ErrForbidden)

	_, err = svc.Create(context.Background(), &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}, dto.CreateCourseRequest{Title: "Go", Category: "x", Level: "expert"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Len(t, repo.created, 2)
}
