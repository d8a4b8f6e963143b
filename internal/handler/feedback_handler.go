package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/service"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
	"github.com/noah-isme/teacher-feedback-api/pkg/response"
)

type feedbackService interface {
	Submit(ctx context.Context, studentID string, req models.SubmitFeedbackRequest, actor service.Actor) (*models.Feedback, error)
	MySubmissions(ctx context.Context, studentID string) ([]string, error)
	Received(ctx context.Context, userID string, filter models.FeedbackFilter) (*models.ReceivedFeedback, error)
	ReceivedSummary(ctx context.Context, userID string) (*models.FeedbackSummary, error)
	ExportReceived(ctx context.Context, userID string, filter models.FeedbackFilter, format export.Format, actor service.Actor) (*service.ExportResult, error)
}

// FeedbackHandler serves feedback submission and the teacher's received feedback.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs a FeedbackHandler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Rate a teacher
// @Description A student may rate each teacher once
// @Tags Feedback
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid feedback payload"))
		return
	}

	feedback, err := h.service.Submit(c.Request.Context(), claims.UserID, req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// MySubmissions godoc
// @Summary Teachers already rated
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /feedback/my-submissions [get]
func (h *FeedbackHandler) MySubmissions(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	ids, err := h.service.MySubmissions(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, ids, nil)
}

// Received godoc
// @Summary Feedback about me
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Param search query string false "Match on comment, student or subject"
// @Param min_rating query int false "Minimum rating (1-5)"
// @Param sort query string false "recent, oldest, rating-high, rating-low"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/received [get]
func (h *FeedbackHandler) Received(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	filter, err := feedbackFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Received(c.Request.Context(), claims.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

// Summary godoc
// @Summary Feedback statistics
// @Tags Feedback
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/received/summary [get]
func (h *FeedbackHandler) Summary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	summary, err := h.service.ReceivedSummary(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Export godoc
// @Summary Export feedback about me
// @Tags Feedback
// @Produce text/csv
// @Produce application/pdf
// @Security BearerAuth
// @Param format query string false "csv (default) or pdf"
// @Param search query string false "Search"
// @Param min_rating query int false "Minimum rating"
// @Param sort query string false "Sort key"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback/received/export [get]
func (h *FeedbackHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	format, err := exportFormatFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := feedbackFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.ExportReceived(c.Request.Context(), claims.UserID, filter, format, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	writeExport(c, result)
}
