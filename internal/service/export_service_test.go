package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

type failingRenderer struct{}

func (failingRenderer) Render(export.Format, export.Dataset) ([]byte, error) {
	return nil, errors.New("boom")
}

func TestExportServiceRosterFilename(t *testing.T) {
	svc := NewExportService(nil)
	svc.now = func() time.Time { return time.Date(2024, 5, 1, 8, 30, 0, 0, time.UTC) }

	res, err := svc.Roster(export.FormatPDF, sampleRoster())
	require.NoError(t, err)
	assert.Equal(t, "teacher_roster_20240501_083000.pdf", res.Filename)
	assert.Equal(t, "application/pdf", res.ContentType)
	assert.NotEmpty(t, res.Data)
}

func TestExportServiceRendererError(t *testing.T) {
	svc := NewExportService(failingRenderer{})
	_, err := svc.Feedback(export.FormatCSV, "Shweta Kaushik", nil)
	assert.Error(t, err)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "shweta_kaushik", sanitizeFilename(" Shweta Kaushik "))
	assert.Equal(t, "na", sanitizeFilename(""))
	assert.Equal(t, "a_b_c", sanitizeFilename("a/b\\c"))
}
