package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/edu-platform-api/api/swagger"
	"github.com/noah-isme/edu-platform-api/internal/handler"
	"github.com/noah-isme/edu-platform-api/internal/middleware"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/internal/service"
	"github.com/noah-isme/edu-platform-api/pkg/config"
	"github.com/noah-isme/edu-platform-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/edu-platform-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/edu-platform-api/pkg/middleware/requestid"
)

type routerDeps struct {
	auth    middleware.TokenValidator
	audit   middleware.AuditWriter
	metrics *service.MetricsService

	authH        *handler.AuthHandler
	courseH      *handler.CourseHandler
	enrollmentH  *handler.EnrollmentHandler
	scheduleH    *handler.ScheduleHandler
	assignmentH  *handler.AssignmentHandler
	certificateH *handler.CertificateHandler
	exportH      *handler.ExportHandler
	metricsH     *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, d routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr, middleware.LogFields))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(d.metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", d.metricsH.Health)
	r.GET("/ready", d.metricsH.Ready)
	r.GET("/metrics", d.metricsH.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	managers := middleware.RequireRoles(models.RoleInstructor, models.RoleAdmin)
	audit := func(action, resource string, idParams ...string) gin.HandlerFunc {
		return middleware.Audit(d.audit, logr, action, resource, idParams...)
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", d.authH.Login)
	api.GET("/certificates/verify/:number", middleware.OptionalJWT(d.auth), d.certificateH.Verify)
	api.GET("/exports/:token", d.exportH.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(d.auth))

	secured.GET("/auth/me", d.authH.Me)

	courses := secured.Group("/courses")
	courses.GET("", d.courseH.List)
	courses.GET("/my", d.enrollmentH.MyCourses)
	courses.GET("/:id", d.courseH.Get)
	courses.POST("", managers, d.courseH.Create)
	courses.POST("/:id/lessons", managers, d.courseH.AddLesson)
	courses.POST("/:id/enroll", audit(models.AuditActionEnroll, "course", "id"), d.enrollmentH.Enroll)
	courses.GET("/:id/progress", d.enrollmentH.GetProgress)
	courses.POST("/:id/progress", audit(models.AuditActionProgress, "course", "id"), d.enrollmentH.RecordProgress)
	courses.GET("/:id/schedules", d.scheduleH.ListByCourse)
	courses.POST("/:id/schedules", managers, d.scheduleH.Create)
	courses.GET("/:id/enrollments/export", managers, d.exportH.ExportEnrollments)

	secured.GET("/schedules/upcoming", d.scheduleH.Upcoming)
	secured.GET("/leaderboard", d.enrollmentH.Leaderboard)

	assignments := secured.Group("/assignments")
	assignments.GET("", d.assignmentH.List)
	assignments.POST("", managers, d.assignmentH.Create)
	assignments.GET("/:id", d.assignmentH.Get)
	assignments.POST("/:id/submit", audit(models.AuditActionSubmit, "assignment", "id"), d.assignmentH.Submit)
	assignments.GET("/:id/submissions", managers, d.assignmentH.ListSubmissions)

	secured.GET("/submissions/my", d.assignmentH.MySubmissions)
	secured.PUT("/submissions/:id/grade", managers, audit(models.AuditActionGrade, "submission", "id"), d.assignmentH.Grade)

	certificates := secured.Group("/certificates")
	certificates.GET("", d.certificateH.List)
	certificates.GET("/:id", d.certificateH.Get)
	certificates.GET("/:id/pdf", d.certificateH.PDF)
	certificates.POST("/generate/:courseId", audit(models.AuditActionCertificateGenerate, "course", "courseId"), d.certificateH.Generate)
	certificates.GET("/course/:courseId", d.certificateH.ByCourse)

	return r
}
