package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(Dataset{
		Headers: []string{"student", "progress"},
		Rows:    [][]string{{"Ada", "100"}, {"Linus, T.", "40"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "student,progress\nAda,100\n\"Linus, T.\",40\n", string(out))
}

func TestCSVExporterRejectsRaggedRows(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{Headers: []string{"a", "b"}, Rows: [][]string{{"1"}}})
	require.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(Dataset{Title: "Roster", Headers: []string{"a"}, Rows: [][]string{{"1"}}})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{})
	require.Error(t, err)
}

func TestCertificateRendererRender(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	out, err := NewCertificateRenderer().Render(CertificateDocument{
		Number:         "CERT-20240115-0A1B2C3D",
		StudentName:    "Ada Lovelace",
		CourseTitle:    "Phishing Awareness",
		InstructorName: "Platform Instructor",
		Grade:          "Excellent",
		CompletedAt:    now,
		IssuedAt:       now,
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewCertificateRenderer().Render(CertificateDocument{})
	require.Error(t, err)
}
