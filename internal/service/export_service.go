package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

// ExportResult is a rendered document ready to stream to the client.
type ExportResult struct {
	Filename    string
	ContentType string
	Data        []byte
}

type datasetRenderer interface {
	Render(format export.Format, data export.Dataset) ([]byte, error)
}

// ExportService turns rosters and feedback lists into CSV or PDF documents.
type ExportService struct {
	renderer datasetRenderer
	now      func() time.Time
}

// NewExportService constructs an ExportService. A nil renderer uses the built-in exporters.
func NewExportService(renderer datasetRenderer) *ExportService {
	if renderer == nil {
		renderer = export.NewRenderer()
	}
	return &ExportService{renderer: renderer, now: time.Now}
}

var rosterHeaders = []string{"Name", "Department", "Subject", "Average Rating", "Total Feedback"}

// Roster renders the given teachers in their current order.
func (s *ExportService) Roster(format export.Format, teachers []models.Teacher) (*ExportResult, error) {
	rows := make([]map[string]string, 0, len(teachers))
	for _, t := range teachers {
		rows = append(rows, map[string]string{
			"Name":           t.Name,
			"Department":     t.Department,
			"Subject":        t.Subject,
			"Average Rating": formatRating(t.AverageRating),
			"Total Feedback": strconv.Itoa(t.TotalFeedback),
		})
	}
	return s.render(format, "teacher_roster", export.Dataset{
		Title:   "Teacher Roster",
		Headers: rosterHeaders,
		Rows:    rows,
	})
}

var feedbackHeaders = []string{"Date", "Student", "Subject", "Rating", "Comment"}

// Feedback renders feedback a teacher received.
func (s *ExportService) Feedback(format export.Format, teacherName string, items []models.FeedbackView) (*ExportResult, error) {
	rows := make([]map[string]string, 0, len(items))
	for _, f := range items {
		rows = append(rows, map[string]string{
			"Date":    f.CreatedAt.UTC().Format("2006-01-02"),
			"Student": f.StudentName,
			"Subject": f.Subject,
			"Rating":  strconv.Itoa(f.Rating),
			"Comment": f.CommentText(),
		})
	}
	return s.render(format, "feedback_"+sanitizeFilename(teacherName), export.Dataset{
		Title:   fmt.Sprintf("Feedback for %s", teacherName),
		Headers: feedbackHeaders,
		Rows:    rows,
	})
}

func (s *ExportService) render(format export.Format, base string, data export.Dataset) (*ExportResult, error) {
	raw, err := s.renderer.Render(format, data)
	if err != nil {
		return nil, fmt.Errorf("render %s export: %w", format, err)
	}
	return &ExportResult{
		Filename:    fmt.Sprintf("%s_%s.%s", base, s.now().UTC().Format("20060102_150405"), format),
		ContentType: format.ContentType(),
		Data:        raw,
	}, nil
}

func sanitizeFilename(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" {
		return "na"
	}
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	result := b.String()
	if len(result) > 60 {
		result = result[:60]
	}
	return result
}

func formatRating(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
