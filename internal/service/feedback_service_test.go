package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

func newTestFeedbackService(store *memoryStore, cacheRepo CacheRepository, audit AuditRecorder) *FeedbackService {
	var cache *CacheService
	if cacheRepo != nil {
		cache = NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	}
	return NewFeedbackService(feedbackStore{store}, teacherStore{store}, cache, nil, audit, NewMetricsService(), nil, nil, FeedbackConfig{CommentMaxLength: 20})
}

func TestFeedbackServiceSubmit(t *testing.T) {
	store := seededStore()
	cacheRepo := newMemoryCache()
	audit := &recordingAudit{}
	svc := newTestFeedbackService(store, cacheRepo, audit)
	ctx := context.Background()

	fb, err := svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t5", Rating: 4, Comment: "  Helpful  "}, Actor{UserID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "Helpful", fb.CommentText())
	assert.Equal(t, 4.0, store.teachers["t5"].AverageRating)
	assert.Equal(t, 1, store.teachers["t5"].TotalFeedback)
	assert.Equal(t, []string{cachePatternTeachers}, cacheRepo.deletes)
	assert.Equal(t, []string{models.AuditActionFeedbackSubmit}, audit.actions())

	_, err = svc.Submit(ctx, "s2", models.SubmitFeedbackRequest{TeacherID: "t5", Rating: 1}, Actor{})
	require.NoError(t, err)
	assert.Equal(t, 2.5, store.teachers["t5"].AverageRating)

	ids, err := svc.MySubmissions(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"t5"}, ids)
}

func TestFeedbackServiceSubmitOncePerTeacher(t *testing.T) {
	svc := newTestFeedbackService(seededStore(), nil, nil)
	ctx := context.Background()

	_, err := svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t1", Rating: 5}, Actor{})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t1", Rating: 2}, Actor{})
	requireAppError(t, err, appErrors.ErrConflict.Code)
}

func TestFeedbackServiceSubmitValidation(t *testing.T) {
	svc := newTestFeedbackService(seededStore(), nil, nil)
	ctx := context.Background()

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t1", Rating: rating}, Actor{})
		requireAppError(t, err, appErrors.ErrValidation.Code)
		assert.Equal(t, "rating must be between 1 and 5", appErrors.FromError(err).Message)
	}

	_, err := svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "  ", Rating: 4}, Actor{})
	requireAppError(t, err, appErrors.ErrValidation.Code)
	assert.Equal(t, "teacherId is required", appErrors.FromError(err).Message)

	_, err = svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t1", Rating: 3, Comment: strings.Repeat("é", 21)}, Actor{})
	requireAppError(t, err, appErrors.ErrValidation.Code)

	_, err = svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "t1", Rating: 3, Comment: strings.Repeat("é", 20)}, Actor{})
	require.NoError(t, err)

	_, err = svc.Submit(ctx, "s1", models.SubmitFeedbackRequest{TeacherID: "ghost", Rating: 3}, Actor{})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func linkedTeacherStore() *memoryStore {
	store := seededStore()
	teacherUser := "teacher-user"
	store.teachers["t1"].UserID = &teacherUser
	store.users["s1"] = &models.User{ID: "s1", Name: "Asha", Role: models.RoleStudent}
	store.users["s2"] = &models.User{ID: "s2", Name: "Ravi", Role: models.RoleStudent}
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	great := "Great labs"
	store.feedback = []models.Feedback{
		{ID: "f1", StudentID: "s1", TeacherID: "t1", Rating: 5, Comment: &great, CreatedAt: base},
		{ID: "f2", StudentID: "s2", TeacherID: "t1", Rating: 3, CreatedAt: base.Add(time.Hour)},
		{ID: "f3", StudentID: "s2", TeacherID: "t2", Rating: 1, CreatedAt: base},
	}
	return store
}

func TestFeedbackServiceReceived(t *testing.T) {
	svc := newTestFeedbackService(linkedTeacherStore(), nil, nil)
	ctx := context.Background()

	res, err := svc.Received(ctx, "teacher-user", models.FeedbackFilter{})
	require.NoError(t, err)
	assert.Equal(t, "t1", res.Teacher.ID)
	assert.Equal(t, []string{"f2", "f1"}, feedbackIDs(res.Feedback))

	res, err = svc.Received(ctx, "teacher-user", models.FeedbackFilter{Search: "labs"})
	require.NoError(t, err)
	assert.Equal(t, []string{"f1"}, feedbackIDs(res.Feedback))
	assert.Equal(t, "Asha", res.Feedback[0].StudentName)

	_, err = svc.Received(ctx, "unlinked-user", models.FeedbackFilter{})
	requireAppError(t, err, appErrors.ErrNotFound.Code)
}

func TestFeedbackServiceReceivedSummaryAndExport(t *testing.T) {
	audit := &recordingAudit{}
	svc := newTestFeedbackService(linkedTeacherStore(), nil, audit)
	ctx := context.Background()

	summary, err := svc.ReceivedSummary(ctx, "teacher-user")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalFeedback)
	assert.Equal(t, 4.0, summary.AverageRating)
	assert.Equal(t, 2, summary.UniqueStudents)
	assert.Equal(t, 50, summary.FiveStarPercent)

	res, err := svc.ExportReceived(ctx, "teacher-user", models.FeedbackFilter{MinRating: 4}, export.FormatCSV, Actor{UserID: "teacher-user"})
	require.NoError(t, err)
	assert.Contains(t, string(res.Data), "Great labs")
	assert.NotContains(t, string(res.Data), "Ravi")
	assert.True(t, strings.HasPrefix(res.Filename, "feedback_shweta_kaushik_"))
	assert.Equal(t, []string{models.AuditActionFeedbackExport}, audit.actions())
}
