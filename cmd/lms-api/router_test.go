package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/edu-platform-api/internal/handler"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	appErrors "github.com/noah-isme/edu-platform-api/pkg/errors"
)

type tokenStub map[string]*models.JWTClaims

func (s tokenStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := s[token]; ok {
		return claims, nil
	}
	return nil, appErrors.ErrUnauthorized
}

type verifyStub struct{}

func (verifyStub) Generate(context.Context, *models.JWTClaims, string) (*models.Certificate, error) {
	return nil, appErrors.ErrInternal
}

func (verifyStub) Verify(_ context.Context, number string) (*models.CertificateDetail, bool, error) {
	if number != "CERT-2024-000001" {
		return nil, false, appErrors.ErrNotFound
	}
	return &models.CertificateDetail{Certificate: models.Certificate{CertificateNumber: number}}, false, nil
}

func (verifyStub) GetDetail(context.Context, string, *models.JWTClaims) (*models.CertificateDetail, error) {
	return nil, appErrors.ErrInternal
}

func (verifyStub) ListMine(context.Context, *models.JWTClaims) ([]models.CertificateDetail, error) {
	return nil, appErrors.ErrInternal
}

func (verifyStub) GetByCourse(context.Context, *models.JWTClaims, string) (*models.Certificate, error) {
	return nil, appErrors.ErrInternal
}

func (verifyStub) RenderPDF(context.Context, string, *models.JWTClaims) ([]byte, string, error) {
	return nil, "", appErrors.ErrInternal
}

func testRouter(env string) *gin.Engine {
	return testRouterWith(env, zap.NewNop(), handler.NewCertificateHandler(nil))
}

func testRouterWith(env string, logr *zap.Logger, certificateH *handler.CertificateHandler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Env: env, APIPrefix: "/api/v1"}
	return newRouter(cfg, logr, routerDeps{
		auth:         tokenStub{"student": {UserID: "user-a", Role: models.RoleStudent}},
		authH:        handler.NewAuthHandler(nil),
		courseH:      handler.NewCourseHandler(nil),
		enrollmentH:  handler.NewEnrollmentHandler(nil, nil),
		scheduleH:    handler.NewScheduleHandler(nil),
		assignmentH:  handler.NewAssignmentHandler(nil),
		certificateH: certificateH,
		exportH:      handler.NewExportHandler(nil),
		metricsH:     handler.NewMetricsHandler(nil, nil),
	})
}

func serve(r http.Handler, method, path, token string) int {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestRouterProtectsLifecycleRoutes(t *testing.T) {
	r := testRouter(config.EnvDevelopment)

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/courses/course-1/enroll", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/certificates/generate/course-1", ""))
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/leaderboard", ""))
}

func TestRouterRequiresManagerRoles(t *testing.T) {
	r := testRouter(config.EnvDevelopment)

	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPost, "/api/v1/courses", "student"))
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodPut, "/api/v1/submissions/sub-1/grade", "student"))
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/courses/course-1/enrollments/export", "student"))
	assert.Equal(t, http.StatusForbidden, serve(r, http.MethodGet, "/api/v1/assignments/asg-1/submissions", "student"))
}

func TestRouterServesDocsOutsideProduction(t *testing.T) {
	assert.Equal(t, http.StatusOK, serve(testRouter(config.EnvDevelopment), http.MethodGet, "/docs/doc.json", ""))
	assert.Equal(t, http.StatusNotFound, serve(testRouter(config.EnvProduction), http.MethodGet, "/docs/doc.json", ""))
}

func TestRouterVerifyIsPublicAndAttributesSignedInCallers(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := testRouterWith(config.EnvDevelopment, zap.New(core), handler.NewCertificateHandler(verifyStub{}))

	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/certificates/verify/CERT-2024-000001", ""))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/certificates/verify/CERT-2024-000001", "expired"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/v1/certificates/verify/CERT-2024-000001", "student"))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/v1/certificates/verify/CERT-2024-999999", "student"))

	entries := logs.FilterMessage("http_request").All()
	require.Len(t, entries, 4)
	assert.NotContains(t, entries[0].ContextMap(), "user_id")
	assert.NotContains(t, entries[1].ContextMap(), "user_id")
	assert.Equal(t, "user-a", entries[2].ContextMap()["user_id"])
}
