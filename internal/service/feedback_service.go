package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

const defaultCommentMaxLength = 500

type feedbackRepository interface {
	Create(ctx context.Context, feedback *models.Feedback) (*models.Teacher, error)
	Exists(ctx context.Context, studentID, teacherID string) (bool, error)
	SubmittedTeacherIDs(ctx context.Context, studentID string) ([]string, error)
	ListReceived(ctx context.Context, teacherID string) ([]models.FeedbackView, error)
}

type feedbackTeacherLookup interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	FindByUserID(ctx context.Context, userID string) (*models.Teacher, error)
}

// FeedbackConfig tunes submission validation.
type FeedbackConfig struct {
	CommentMaxLength int
}

// FeedbackService handles student submissions and the teacher's received view.
type FeedbackService struct {
	repo      feedbackRepository
	teachers  feedbackTeacherLookup
	cache     *CacheService
	exporter  *ExportService
	audit     AuditRecorder
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    FeedbackConfig
}

// NewFeedbackService constructs a FeedbackService.
func NewFeedbackService(repo feedbackRepository, teachers feedbackTeacherLookup, cache *CacheService, exporter *ExportService, audit AuditRecorder, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, config FeedbackConfig) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if exporter == nil {
		exporter = NewExportService(nil)
	}
	if audit == nil {
		audit = noopAudit{}
	}
	if config.CommentMaxLength <= 0 {
		config.CommentMaxLength = defaultCommentMaxLength
	}
	return &FeedbackService{
		repo:      repo,
		teachers:  teachers,
		cache:     cache,
		exporter:  exporter,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    config,
	}
}

func feedbackValidationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
		switch fieldErrs[0].StructField() {
		case "TeacherID":
			return "teacherId is required"
		case "Rating":
			return "rating must be between 1 and 5"
		}
	}
	return "invalid feedback payload"
}

// Submit records a student's single rating for a teacher and refreshes the
// teacher's aggregates.
func (s *FeedbackService) Submit(ctx context.Context, studentID string, req models.SubmitFeedbackRequest, actor Actor) (*models.Feedback, error) {
	req.TeacherID = strings.TrimSpace(req.TeacherID)
	req.Comment = strings.TrimSpace(req.Comment)

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, feedbackValidationMessage(err))
	}
	if n := utf8.RuneCountInString(req.Comment); n > s.config.CommentMaxLength {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("comment must be at most %d characters", s.config.CommentMaxLength))
	}

	if _, err := s.teachers.FindByID(ctx, req.TeacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	exists, err := s.repo.Exists(ctx, studentID, req.TeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check feedback")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "feedback already submitted for this teacher")
	}

	feedback := &models.Feedback{
		StudentID: studentID,
		TeacherID: req.TeacherID,
		Rating:    req.Rating,
	}
	if req.Comment != "" {
		feedback.Comment = &req.Comment
	}

	teacher, err := s.repo.Create(ctx, feedback)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return nil, appErrors.Clone(appErrors.ErrConflict, "feedback already submitted for this teacher")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to submit feedback")
	}

	s.cache.Invalidate(ctx, cachePatternTeachers)
	s.metrics.RecordFeedback(feedback.Rating)
	s.audit.Record(ctx, actor.entry(models.AuditActionFeedbackSubmit, "feedback", feedback.ID, map[string]interface{}{
		"teacher_id": feedback.TeacherID,
		"rating":     feedback.Rating,
	}))
	s.logger.Debug("feedback submitted",
		zap.String("teacher_id", teacher.ID),
		zap.Float64("average_rating", teacher.AverageRating),
		zap.Int("total_feedback", teacher.TotalFeedback),
	)
	return feedback, nil
}

// MySubmissions returns the teacher ids the student has already rated.
func (s *FeedbackService) MySubmissions(ctx context.Context, studentID string) ([]string, error) {
	ids, err := s.repo.SubmittedTeacherIDs(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}
	return ids, nil
}

// Received lists feedback about the roster entry linked to a teacher account.
func (s *FeedbackService) Received(ctx context.Context, userID string, filter models.FeedbackFilter) (*models.ReceivedFeedback, error) {
	teacher, items, err := s.loadReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.ReceivedFeedback{Teacher: *teacher, Feedback: FilterFeedback(items, filter)}, nil
}

// ReceivedSummary computes the stat cards and distribution for the caller.
func (s *FeedbackService) ReceivedSummary(ctx context.Context, userID string) (*models.FeedbackSummary, error) {
	teacher, items, err := s.loadReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	summary := SummarizeFeedback(teacher.ID, items)
	return &summary, nil
}

// ExportReceived renders the caller's filtered feedback.
func (s *FeedbackService) ExportReceived(ctx context.Context, userID string, filter models.FeedbackFilter, format export.Format, actor Actor) (*ExportResult, error) {
	teacher, items, err := s.loadReceived(ctx, userID)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Feedback(format, teacher.Name, FilterFeedback(items, filter))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export feedback")
	}
	s.audit.Record(ctx, actor.entry(models.AuditActionFeedbackExport, "feedback", teacher.ID, map[string]string{"format": string(format)}))
	return result, nil
}

func (s *FeedbackService) loadReceived(ctx context.Context, userID string) (*models.Teacher, []models.FeedbackView, error) {
	teacher, err := s.teachers.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "no roster entry is linked to this account")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}

	items, err := s.repo.ListReceived(ctx, teacher.ID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	return teacher, items, nil
}
