package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
)

// The admin summary lives under the teacher prefix so roster mutations evict it too.
const cacheKeyAdminDashboard = "tf:teachers:dashboard:admin"

type rosterProvider interface {
	Roster(ctx context.Context) ([]models.Teacher, bool, error)
}

type dashboardFeedbackRepository interface {
	SubmittedTeacherIDs(ctx context.Context, studentID string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	CacheTTL time.Duration
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Roster   rosterProvider
	Feedback dashboardFeedbackRepository
	Cache    *CacheService
	Logger   *zap.Logger
	Config   DashboardServiceConfig
}

// DashboardService composes the stat cards for the student and admin home pages.
type DashboardService struct {
	roster   rosterProvider
	feedback dashboardFeedbackRepository
	cache    *CacheService
	logger   *zap.Logger
	cfg      DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = time.Minute
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		roster:   params.Roster,
		feedback: params.Feedback,
		cache:    params.Cache,
		logger:   logger,
		cfg:      cfg,
	}
}

// Student returns the student's stat cards plus the teachers they already rated,
// which clients use to disable the rating action.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, bool, error) {
	roster, hit, err := s.roster.Roster(ctx)
	if err != nil {
		return nil, false, err
	}

	submitted, err := s.feedback.SubmittedTeacherIDs(ctx, studentID)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list submissions")
	}

	return &models.StudentDashboard{
		TotalTeachers:       len(roster),
		FeedbackGiven:       len(submitted),
		AverageRating:       MeanTeacherRating(roster),
		SubmittedTeacherIDs: submitted,
	}, hit, nil
}

// Admin returns roster wide totals and a per-department breakdown.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, bool, error) {
	var cached models.AdminDashboard
	if s.cache.Get(ctx, cacheKeyAdminDashboard, &cached) {
		return &cached, true, nil
	}

	roster, _, err := s.roster.Roster(ctx)
	if err != nil {
		return nil, false, err
	}
	total, err := s.feedback.Count(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count feedback")
	}

	summary := &models.AdminDashboard{
		TotalTeachers: len(roster),
		TotalFeedback: total,
		AverageRating: MeanTeacherRating(roster),
		ByDepartment:  departmentBreakdown(roster),
	}
	summary.Departments = len(summary.ByDepartment)

	s.cache.Set(ctx, cacheKeyAdminDashboard, summary, s.cfg.CacheTTL)
	return summary, false, nil
}

func departmentBreakdown(roster []models.Teacher) []models.DepartmentStats {
	grouped := map[string][]models.Teacher{}
	for _, t := range roster {
		grouped[t.Department] = append(grouped[t.Department], t)
	}

	out := make([]models.DepartmentStats, 0, len(grouped))
	for department, teachers := range grouped {
		stats := models.DepartmentStats{
			Department:    department,
			Teachers:      len(teachers),
			AverageRating: MeanTeacherRating(teachers),
		}
		for _, t := range teachers {
			stats.TotalFeedback += t.TotalFeedback
		}
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Department < out[j].Department })
	return out
}
