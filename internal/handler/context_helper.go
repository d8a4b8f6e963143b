package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/teacher-feedback-api/internal/middleware"
	"github.com/noah-isme/teacher-feedback-api/internal/models"
	"github.com/noah-isme/teacher-feedback-api/internal/service"
	appErrors "github.com/noah-isme/teacher-feedback-api/pkg/errors"
	"github.com/noah-isme/teacher-feedback-api/pkg/export"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, ok := middleware.Claims(c)
	if !ok {
		return nil
	}
	return claims
}

func actorFromContext(c *gin.Context) service.Actor {
	actor := service.Actor{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
	if claims := claimsFromContext(c); claims != nil {
		actor.UserID = claims.UserID
	}
	return actor
}

// queryInt parses an optional integer query parameter; empty yields 0.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return v, nil
}

func teacherFilterFromQuery(c *gin.Context) (models.TeacherFilter, error) {
	filter := models.TeacherFilter{
		Search:     c.Query("search"),
		Department: c.Query("department"),
		SortBy:     c.Query("sort"),
	}
	var err error
	if filter.MinRating, err = queryInt(c, "min_rating"); err != nil {
		return filter, err
	}
	if filter.Page, err = queryInt(c, "page"); err != nil {
		return filter, err
	}
	if filter.PageSize, err = queryInt(c, "limit"); err != nil {
		return filter, err
	}
	return filter, nil
}

func feedbackFilterFromQuery(c *gin.Context) (models.FeedbackFilter, error) {
	filter := models.FeedbackFilter{Search: c.Query("search"), SortBy: c.Query("sort")}
	var err error
	filter.MinRating, err = queryInt(c, "min_rating")
	return filter, err
}

func exportFormatFromQuery(c *gin.Context) (export.Format, error) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	return format, nil
}

func writeExport(c *gin.Context, result *service.ExportResult) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", result.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
