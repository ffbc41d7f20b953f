package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/service"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
	"github.com/noah-isme/academic-core-api/pkg/response"
)

// AttendanceHandler exposes attendance recording and aggregation endpoints.
type AttendanceHandler struct {
	attendance *service.AttendanceService
}

// NewAttendanceHandler constructs AttendanceHandler.
func NewAttendanceHandler(attendance *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Mark godoc
// @Summary Record an attendance entry
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Attendance payload"
// @Success 201 {object} response.Envelope
// @Router /attendance [post]
func (h *AttendanceHandler) Mark(c *gin.Context) {
	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.attendance.Mark(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Stats godoc
// @Summary Attendance totals and percentage for a student in a course
// @Tags Attendance
// @Produce json
// @Param student_id query string true "Student ID"
// @Param course_id query string true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /attendance/stats [get]
func (h *AttendanceHandler) Stats(c *gin.Context) {
	studentID := c.Query("student_id")
	courseID := c.Query("course_id")
	if studentID == "" || courseID == "" {
		response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "student_id and course_id are required"))
		return
	}
	stats, err := h.attendance.Stats(c.Request.Context(), studentID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// History godoc
// @Summary List attendance records
// @Tags Attendance
// @Produce json
// @Param student_id query string false "Filter by student"
// @Param course_id query string false "Filter by course"
// @Param status query string false "Filter by status"
// @Param from query string false "Date lower bound (YYYY-MM-DD)"
// @Param to query string false "Date upper bound (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /attendance [get]
func (h *AttendanceHandler) History(c *gin.Context) {
	var filter models.AttendanceFilter
	filter.StudentID = c.Query("student_id")
	filter.CourseID = c.Query("course_id")
	if raw := strings.ToUpper(c.Query("status")); raw != "" {
		status := models.AttendanceStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance status"))
			return
		}
		filter.Status = &status
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid from date, expected YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.New(appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid to date, expected YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	records, pagination, err := h.attendance.History(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, pagination)
}
