package export

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// CertificateDocument is the printable content of an issued certificate.
type CertificateDocument struct {
	Number         string
	StudentName    string
	CourseTitle    string
	InstructorName string
	Grade          string
	CompletedAt    time.Time
	IssuedAt       time.Time
	VerifyURL      string
}

// CertificateRenderer draws a single landscape completion certificate.
type CertificateRenderer struct{}

// NewCertificateRenderer constructs a CertificateRenderer.
func NewCertificateRenderer() *CertificateRenderer {
	return &CertificateRenderer{}
}

// Render returns the certificate as PDF bytes.
func (r *CertificateRenderer) Render(doc CertificateDocument) ([]byte, error) {
	if doc.Number == "" {
		return nil, fmt.Errorf("certificate number required")
	}
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Certificate %s", doc.Number), true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetDrawColor(40, 70, 140)
	pdf.SetLineWidth(1.5)
	pdf.Rect(10, 10, 277, 190, "D")
	pdf.SetLineWidth(0.4)
	pdf.Rect(14, 14, 269, 182, "D")

	pdf.SetY(35)
	pdf.SetFont("Arial", "B", 30)
	pdf.SetTextColor(40, 70, 140)
	pdf.CellFormat(0, 14, "Certificate of Completion", "", 1, "C", false, 0, "")

	pdf.SetTextColor(0, 0, 0)
	pdf.SetFont("Arial", "", 14)
	pdf.Ln(6)
	pdf.CellFormat(0, 8, "This certifies that", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 24)
	pdf.CellFormat(0, 14, doc.StudentName, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 14)
	pdf.CellFormat(0, 8, "has successfully completed the course", "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 12, doc.CourseTitle, "", 1, "C", false, 0, "")

	if doc.Grade != "" {
		pdf.SetFont("Arial", "", 13)
		pdf.CellFormat(0, 8, fmt.Sprintf("Grade: %s", doc.Grade), "", 1, "C", false, 0, "")
	}

	pdf.SetY(150)
	pdf.SetFont("Arial", "", 11)
	pdf.SetX(30)
	pdf.CellFormat(100, 6, doc.InstructorName, "B", 0, "C", false, 0, "")
	pdf.SetX(167)
	pdf.CellFormat(100, 6, doc.CompletedAt.UTC().Format("January 2, 2006"), "B", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "I", 9)
	pdf.SetX(30)
	pdf.CellFormat(100, 6, "Instructor", "", 0, "C", false, 0, "")
	pdf.SetX(167)
	pdf.CellFormat(100, 6, "Date of completion", "", 1, "C", false, 0, "")

	pdf.SetY(180)
	pdf.SetFont("Arial", "", 9)
	line := fmt.Sprintf("Certificate No. %s  |  Issued %s", doc.Number, doc.IssuedAt.UTC().Format("2006-01-02"))
	if doc.VerifyURL != "" {
		line += "  |  Verify at " + doc.VerifyURL
	}
	pdf.CellFormat(0, 6, line, "", 1, "C", false, 0, "")

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render certificate pdf: %w", err)
	}
	return buf.Bytes(), nil
}
