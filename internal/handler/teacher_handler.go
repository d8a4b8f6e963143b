package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-feedback-api/internal/middleware"
	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/service"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
	"github.com/noah-isme/teacher-feedback-api/pkg/response"
)

type teacherService interface {
	List(ctx context.Context, filter models.TeacherFilter) (*models.TeacherListResult, bool, error)
	Get(ctx context.Context, id string) (*models.Teacher, error)
	Create(ctx context.Context, req models.CreateTeacherRequest, actor service.Actor) (*models.Teacher, error)
	Delete(ctx context.Context, id string, actor service.Actor) error
	Departments(ctx context.Context) (*models.DepartmentsResponse, error)
	Export(ctx context.Context, filter models.TeacherFilter, format export.Format, actor service.Actor) (*service.ExportResult, error)
}

// TeacherHandler serves the teacher roster.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(svc teacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// List godoc
// @Summary List teachers
// @Description Filter and sort the roster. Pagination applies only when page or limit is given.
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param search query string false "Case-insensitive match on name or subject"
// @Param min_rating query int false "Minimum average rating (1-5)"
// @Param department query string false "Department, or all"
// @Param sort query string false "name-asc, name-desc, rating-high, rating-low, feedback-most"
// @Param page query int false "Page number"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter, err := teacherFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, hit, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, result, result.Pagination, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get teacher
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Add teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req models.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}

	teacher, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Delete godoc
// @Summary Remove teacher
// @Description Deletes the teacher and all feedback about them
// @Tags Teachers
// @Security BearerAuth
// @Param id path string true "Teacher ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Departments godoc
// @Summary List departments
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/departments [get]
func (h *TeacherHandler) Departments(c *gin.Context) {
	deps, err := h.service.Departments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, deps, nil)
}

// Export godoc
// @Summary Export roster
// @Description Download the filtered roster as CSV or PDF
// @Tags Teachers
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Case-insensitive match on name or subject"
// @Param min_rating query int false "Minimum average rating"
// @Param department query string false "Department"
// @Param sort query string false "Sort key"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /teachers/export [get]
func (h *TeacherHandler) Export(c *gin.Context) {
	format, err := exportFormatFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := teacherFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.Export(c.Request.Context(), filter, format, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}
