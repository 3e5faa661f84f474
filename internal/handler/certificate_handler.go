package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/edu-platform-api/internal/middleware"
	"github.com/noah-isme/edu-platform-api/internal/models"
	"github.com/noah-isme/edu-platform-api/pkg/response"
)

type certificateService interface {
	Generate(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Certificate, error)
	Verify(ctx context.Context, number string) (*models.CertificateDetail, bool, error)
	GetDetail(ctx context.Context, certificateID string, actor *models.JWTClaims) (*models.CertificateDetail, error)
	ListMine(ctx context.Context, actor *models.JWTClaims) ([]models.CertificateDetail, error)
	GetByCourse(ctx context.Context, actor *models.JWTClaims, courseID string) (*models.Certificate, error)
	RenderPDF(ctx context.Context, certificateID string, actor *models.JWTClaims) ([]byte, string, error)
}

// CertificateHandler exposes certificate issuance and verification.
type CertificateHandler struct {
	certificates certificateService
}

// NewCertificateHandler constructs handler.
func NewCertificateHandler(certificates certificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Generate godoc
// @Summary Issue certificate for a completed course
// @Description Returns the existing certificate when one was already issued.
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/generate/{courseId} [post]
func (h *CertificateHandler) Generate(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	cert, err := h.certificates.Generate(c.Request.Context(), claims, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cert)
}

// Verify godoc
// @Summary Verify a certificate number
// @Description Public endpoint used by third parties.
// @Tags Certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/verify/{number} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	detail, hit, err := h.certificates.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	respond(c, http.StatusOK, detail, nil)
}

// List godoc
// @Summary The caller's certificates
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	certs, err := h.certificates.ListMine(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, certs, nil)
}

// Get godoc
// @Summary Certificate detail
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/{id} [get]
func (h *CertificateHandler) Get(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	detail, err := h.certificates.GetDetail(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// ByCourse godoc
// @Summary The caller's certificate for a course
// @Tags Certificates
// @Produce json
// @Security BearerAuth
// @Param courseId path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /certificates/course/{courseId} [get]
func (h *CertificateHandler) ByCourse(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	cert, err := h.certificates.GetByCourse(c.Request.Context(), claims, c.Param("courseId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cert, nil)
}

// PDF godoc
// @Summary Download certificate as PDF
// @Tags Certificates
// @Produce application/pdf
// @Security BearerAuth
// @Param id path string true "Certificate ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /certificates/{id}/pdf [get]
func (h *CertificateHandler) PDF(c *gin.Context) {
	claims := requireClaims(c)
	if claims == nil {
		return
	}
	payload, filename, err := h.certificates.RenderPDF(c.Request.Context(), c.Param("id"), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, filename, "application/pdf", payload)
}
