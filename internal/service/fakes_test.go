package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/repository"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

func fixedClock(t time.Time) Clock {
	return ClockFunc(func() time.Time { return t })
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func studentClaims(id string) *models.JWTClaims {
	return &models.JWTClaims{UserID: id, Role: models.RoleStudent, Name: "Student " + id}
}

type fakeCourses struct {
	courses map[string]models.Course
	err     error
}

func newFakeCourses(courses ...models.Course) *fakeCourses {
	m := make(map[string]models.Course, len(courses))
	for _, c := range courses {
		m[c.ID] = c
	}
	return &fakeCourses{courses: m}
}

func (f *fakeCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.courses[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

type fakeUsers struct {
	users map[string]models.User
	audit []models.AuditLog
}

func newFakeUsers(users ...models.User) *fakeUsers {
	m := make(map[string]models.User, len(users))
	for _, u := range users {
		m[u.ID] = u
	}
	return &fakeUsers{users: m}
}

func (f *fakeUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &u, nil
}

func (f *fakeUsers) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUsers) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.audit = append(f.audit, *log)
	return nil
}

// fakeEnrollments enforces the (user, course) uniqueness the way the database constraint does.
type fakeEnrollments struct {
	mu      sync.Mutex
	rows    map[string]*models.Enrollment
	seq     int
	creates int
	report  []models.EnrollmentReportRow
}

func newFakeEnrollments() *fakeEnrollments {
	return &fakeEnrollments{rows: make(map[string]*models.Enrollment)}
}

func pairKey(userID, courseID string) string { return userID + "|" + courseID }

func (f *fakeEnrollments) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[pairKey(userID, courseID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollments) Create(ctx context.Context, enrollment *models.Enrollment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	key := pairKey(enrollment.UserID, enrollment.CourseID)
	if _, exists := f.rows[key]; exists {
		return repository.ErrDuplicateEnrollment
	}
	f.seq++
	if enrollment.ID == "" {
		enrollment.ID = fmt.Sprintf("enr-%d", f.seq)
	}
	cp := *enrollment
	f.rows[key] = &cp
	return nil
}

func (f *fakeEnrollments) byID(id string) *models.Enrollment {
	for _, e := range f.rows {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (f *fakeEnrollments) UpdateProgress(ctx context.Context, id string, percentage float64, completedAt *time.Time) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.byID(id)
	if e == nil {
		return nil, sql.ErrNoRows
	}
	e.ProgressPercentage = percentage
	if e.CompletedAt == nil && completedAt != nil {
		ts := *completedAt
		e.CompletedAt = &ts
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollments) MarkCompleted(ctx context.Context, id string, completedAt time.Time) (*models.Enrollment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e := f.byID(id)
	if e == nil {
		return nil, sql.ErrNoRows
	}
	if e.CompletedAt == nil {
		e.CompletedAt = &completedAt
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEnrollments) ListByUser(ctx context.Context, userID string) ([]models.EnrolledCourse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.EnrolledCourse
	for _, e := range f.rows {
		if e.UserID == userID {
			out = append(out, models.EnrolledCourse{Enrollment: *e})
		}
	}
	return out, nil
}

func (f *fakeEnrollments) ListReportRows(ctx context.Context, courseID string) ([]models.EnrollmentReportRow, error) {
	return f.report, nil
}

// fakeCertificates mirrors the two certificate uniqueness constraints.
type fakeCertificates struct {
	mu               sync.Mutex
	byPair           map[string]*models.Certificate
	byNumber         map[string]*models.Certificate
	createCalls      int
	numberCollisions int
	pairRaceWinner   *models.Certificate
	courseMeta       map[string]models.Course
}

func newFakeCertificates() *fakeCertificates {
	return &fakeCertificates{byPair: map[string]*models.Certificate{}, byNumber: map[string]*models.Certificate{}}
}

func (f *fakeCertificates) Create(ctx context.Context, cert *models.Certificate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	if f.numberCollisions > 0 {
		f.numberCollisions--
		return repository.ErrDuplicateCertificateNumber
	}
	if f.pairRaceWinner != nil {
		winner := *f.pairRaceWinner
		f.byPair[pairKey(winner.UserID, winner.CourseID)] = &winner
		f.byNumber[winner.CertificateNumber] = &winner
		f.pairRaceWinner = nil
		return repository.ErrDuplicateCertificate
	}
	if _, taken := f.byNumber[cert.CertificateNumber]; taken {
		return repository.ErrDuplicateCertificateNumber
	}
	key := pairKey(cert.UserID, cert.CourseID)
	if _, exists := f.byPair[key]; exists {
		return repository.ErrDuplicateCertificate
	}
	if cert.ID == "" {
		cert.ID = "cert-" + cert.CertificateNumber
	}
	cp := *cert
	f.byPair[key] = &cp
	f.byNumber[cp.CertificateNumber] = &cp
	return nil
}

func (f *fakeCertificates) FindByUserAndCourse(ctx context.Context, userID, courseID string) (*models.Certificate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byPair[pairKey(userID, courseID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCertificates) detail(c *models.Certificate) *models.CertificateDetail {
	d := &models.CertificateDetail{Certificate: *c}
	if meta, ok := f.courseMeta[c.CourseID]; ok {
		d.CourseThumbnail = meta.Thumbnail
		d.CourseCategory = &meta.Category
		d.CourseDuration = &meta.Duration
	}
	return d
}

func (f *fakeCertificates) FindDetailByID(ctx context.Context, id string) (*models.CertificateDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byPair {
		if c.ID == id {
			return f.detail(c), nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCertificates) FindDetailByNumber(ctx context.Context, number string) (*models.CertificateDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byNumber[number]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return f.detail(c), nil
}

func (f *fakeCertificates) ListByUser(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CertificateDetail
	for _, c := range f.byPair {
		if c.UserID == userID {
			out = append(out, *f.detail(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	return out, nil
}

type fakeProgress struct {
	rows        map[string]*models.Progress
	leaderboard []models.LeaderboardEntry
	boardCalls  int
	applyErr    error
}

func newFakeProgress() *fakeProgress {
	return &fakeProgress{rows: map[string]*models.Progress{}}
}

func (f *fakeProgress) Find(ctx context.Context, userID, courseID string) (*models.Progress, error) {
	p, ok := f.rows[pairKey(userID, courseID)]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProgress) Apply(ctx context.Context, userID, courseID string, seededAt time.Time, mutate func(*models.Progress)) (*models.Progress, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	key := pairKey(userID, courseID)
	p, ok := f.rows[key]
	if !ok {
		p = &models.Progress{ID: "prog-" + userID, UserID: userID, CourseID: courseID, LastAccessed: seededAt}
		f.rows[key] = p
	}
	mutate(p)
	cp := *p
	return &cp, nil
}

func (f *fakeProgress) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	f.boardCalls++
	return f.leaderboard, nil
}

// memoryCache is a CacheRepository backed by a map of JSON payloads.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	deleted []string
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
			m.deleted = append(m.deleted, key)
		}
	}
	return nil
}
