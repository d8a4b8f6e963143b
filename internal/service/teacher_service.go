package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/repository"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

const (
	defaultTeacherPageSize = 20
	maxTeacherPageSize     = 100
)

type teacherRepository interface {
	ListAll(ctx context.Context) ([]models.Teacher, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByNameSubject(ctx context.Context, name, subject string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
}

// TeacherConfig carries roster settings.
type TeacherConfig struct {
	Departments []string
	CacheTTL    time.Duration
}

// TeacherService orchestrates roster reads and admin mutations.
type TeacherService struct {
	repo      teacherRepository
	cache     *CacheService
	exporter  *ExportService
	audit     AuditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    TeacherConfig
}

// NewTeacherService constructs a TeacherService.
func NewTeacherService(repo teacherRepository, cache *CacheService, exporter *ExportService, audit AuditRecorder, validate *validator.Validate, logger *zap.Logger, config TeacherConfig) *TeacherService {
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
	return &TeacherService{repo: repo, cache: cache, exporter: exporter, audit: audit, validator: validate, logger: logger, config: config}
}

// Roster returns every teacher, served from cache when possible. The bool
// reports a cache hit.
func (s *TeacherService) Roster(ctx context.Context) ([]models.Teacher, bool, error) {
	var cached []models.Teacher
	if s.cache.Get(ctx, cacheKeyRoster, &cached) {
		return cached, true, nil
	}

	teachers, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	s.cache.Set(ctx, cacheKeyRoster, teachers, s.config.CacheTTL)
	return teachers, false, nil
}

// List filters and sorts the roster. Pagination applies only when the filter
// asks for a page; otherwise the whole filtered roster is returned.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) (*models.TeacherListResult, bool, error) {
	roster, hit, err := s.Roster(ctx)
	if err != nil {
		return nil, false, err
	}

	filtered := FilterTeachers(roster, filter)
	result := &models.TeacherListResult{
		Teachers:    filtered,
		Departments: Departments(roster),
	}

	if filter.Paginated() {
		page, size := filter.Page, filter.PageSize
		if page < 1 {
			page = 1
		}
		if size <= 0 {
			size = defaultTeacherPageSize
		}
		if size > maxTeacherPageSize {
			size = maxTeacherPageSize
		}
		start := len(filtered)
		if page-1 <= len(filtered)/size {
			start = (page - 1) * size
		}
		if start > len(filtered) {
			start = len(filtered)
		}
		end := start + size
		if end > len(filtered) {
			end = len(filtered)
		}
		result.Teachers = filtered[start:end]
		result.Pagination = &models.Pagination{Page: page, PageSize: size, TotalCount: len(filtered)}
	}

	return result, hit, nil
}

// Get returns a teacher by id.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create adds a roster entry with zeroed aggregates.
func (s *TeacherService) Create(ctx context.Context, req models.CreateTeacherRequest, actor Actor) (*models.Teacher, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Department = strings.TrimSpace(req.Department)
	req.Subject = strings.TrimSpace(req.Subject)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}
	if !containsString(s.config.Departments, req.Department) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("department must be one of: %s", strings.Join(s.config.Departments, ", ")))
	}

	exists, err := s.repo.ExistsByNameSubject(ctx, req.Name, req.Subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check teacher")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already teaches this subject")
	}

	teacher := &models.Teacher{
		Name:       req.Name,
		Department: req.Department,
		Subject:    req.Subject,
	}
	if req.Email != "" {
		teacher.Email = &req.Email
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "teacher already teaches this subject")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.cache.Invalidate(ctx, cachePatternTeachers)
	s.audit.Record(ctx, actor.entry(models.AuditActionTeacherCreate, "teacher", teacher.ID, teacher))
	s.logger.Info("teacher created", zap.String("teacher_id", teacher.ID), zap.String("actor", actor.UserID))
	return teacher, nil
}

// Delete removes a teacher and every feedback row about them.
func (s *TeacherService) Delete(ctx context.Context, id string, actor Actor) error {
	if strings.TrimSpace(id) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "teacher id is required")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete teacher")
	}

	s.cache.Invalidate(ctx, cachePatternTeachers)
	s.audit.Record(ctx, actor.entry(models.AuditActionTeacherDelete, "teacher", id, nil))
	s.logger.Info("teacher deleted", zap.String("teacher_id", id), zap.String("actor", actor.UserID))
	return nil
}

// Departments returns departments present on the roster and those an admin may assign.
func (s *TeacherService) Departments(ctx context.Context) (*models.DepartmentsResponse, error) {
	roster, _, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	return &models.DepartmentsResponse{
		InUse:     Departments(roster),
		Available: append([]string{}, s.config.Departments...),
	}, nil
}

// Export renders the filtered roster, ignoring pagination.
func (s *TeacherService) Export(ctx context.Context, filter models.TeacherFilter, format export.Format, actor Actor) (*ExportResult, error) {
	roster, _, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Roster(format, FilterTeachers(roster, filter))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export roster")
	}
	s.audit.Record(ctx, actor.entry(models.AuditActionRosterExport, "teacher", "", map[string]string{"format": string(format)}))
	return result, nil
}
