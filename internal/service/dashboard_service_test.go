package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
)

func TestDashboardServiceStudent(t *testing.T) {
	store := linkedTeacherStore()
	teachers := newTestTeacherService(store, nil, nil)
	svc := NewDashboardService(DashboardServiceParams{Roster: teachers, Feedback: feedbackStore{store}})

	dash, hit, err := svc.Student(context.Background(), "s2")
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, dash.TotalTeachers)
	assert.Equal(t, 2, dash.FeedbackGiven)
	assert.ElementsMatch(t, []string{"t1", "t2"}, dash.SubmittedTeacherIDs)
	assert.Equal(t, 3.46, dash.AverageRating)
}

func TestDashboardServiceAdminCachesSummary(t *testing.T) {
	store := linkedTeacherStore()
	cache := NewCacheService(newMemoryCache(), nil, time.Minute, nil, true)
	teachers := NewTeacherService(teacherStore{store}, cache, nil, nil, nil, nil, TeacherConfig{})
	svc := NewDashboardService(DashboardServiceParams{Roster: teachers, Feedback: feedbackStore{store}, Cache: cache})

	dash, hit, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, 5, dash.TotalTeachers)
	assert.Equal(t, 3, dash.TotalFeedback)
	assert.Equal(t, 3, dash.Departments)
	require.Len(t, dash.ByDepartment, 3)
	assert.Equal(t, models.DepartmentStats{Department: "Computer Science", Teachers: 3, TotalFeedback: 115, AverageRating: 4.47}, dash.ByDepartment[0])

	_, hit, err = svc.Admin(context.Background())
	require.NoError(t, err)
	assert.True(t, hit)
}
