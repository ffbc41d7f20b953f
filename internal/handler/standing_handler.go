package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/service"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
	"github.com/noah-isme/academic-core-api/pkg/response"
)

// StandingService is the standing surface the handler needs.
type StandingService interface {
	Standing(ctx context.Context, studentID, courseID string) (*models.AcademicStanding, error)
}

// StandingHandler exposes academic standing reports and exports.
type StandingHandler struct {
	risks   StandingService
	exports *service.ExportService
}

// NewStandingHandler constructs StandingHandler. The exports service may be
// nil when report generation is disabled.
func NewStandingHandler(risks StandingService, exports *service.ExportService) *StandingHandler {
	return &StandingHandler{risks: risks, exports: exports}
}

// Standing godoc
// @Summary Academic standing for a student in a course
// @Tags Standing
// @Produce json
// @Param student_id query string true "Student ID"
// @Param course_id query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /standing [get]
func (h *StandingHandler) Standing(c *gin.Context) {
	studentID := c.Query("student_id")
	courseID := c.Query("course_id")
	if studentID == "" || courseID == "" {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id and course_id are required"))
		return
	}
	standing, err := h.risks.Standing(c.Request.Context(), studentID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standing, nil)
}

// ExportCSV godoc
// @Summary Course roster standing report as CSV
// @Tags Standing
// @Produce text/csv
// @Param course_id query string true "Course ID"
// @Success 200 {file} file
// @Router /standing/export/csv [get]
func (h *StandingHandler) ExportCSV(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.New(appErrors.ErrForbidden.Code, http.StatusForbidden, "exports are disabled"))
		return
	}
	payload, err := h.exports.CourseStandingCSV(c.Request.Context(), c.Query("course_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, exportFilename("standing", "csv"), "text/csv", payload)
}

// ExportPDF godoc
// @Summary Course roster standing report as PDF
// @Tags Standing
// @Produce application/pdf
// @Param course_id query string true "Course ID"
// @Success 200 {file} file
// @Router /standing/export/pdf [get]
func (h *StandingHandler) ExportPDF(c *gin.Context) {
	if h.exports == nil {
		response.Error(c, appErrors.New(appErrors.ErrForbidden.Code, http.StatusForbidden, "exports are disabled"))
		return
	}
	payload, err := h.exports.CourseStandingPDF(c.Request.Context(), c.Query("course_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, exportFilename("standing", "pdf"), "application/pdf", payload)
}

func exportFilename(prefix, ext string) string {
	return fmt.Sprintf("%s-%s.%s", prefix, time.Now().Format("20060102-150405"), ext)
}
