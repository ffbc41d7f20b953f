package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/academic-core-api/internal/service"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
	"github.com/noah-isme/academic-core-api/pkg/response"
)

// GradeHandler exposes grading and recompute-cycle endpoints.
type GradeHandler struct {
	grades *service.GradeService
}

// NewGradeHandler constructs GradeHandler.
func NewGradeHandler(grades *service.GradeService) *GradeHandler {
	return &GradeHandler{grades: grades}
}

// SetGrade godoc
// @Summary Set the base grade for an enrollment
// @Tags Grades
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.SetGradeRequest true "Grade payload"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/grade [put]
func (h *GradeHandler) SetGrade(c *gin.Context) {
	var req service.SetGradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.EnrollmentID = c.Param("id")
	enrollment, err := h.grades.SetGrade(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, enrollment, nil)
}

// Recompute godoc
// @Summary Recompute one enrollment grade from attendance
// @Tags Grades
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param cycle_id query string false "Recompute cycle ID, minted when omitted"
// @Success 200 {object} response.Envelope
// @Router /enrollments/{id}/recompute [post]
func (h *GradeHandler) Recompute(c *gin.Context) {
	outcome, err := h.grades.Recompute(c.Request.Context(), c.Param("id"), c.Query("cycle_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, outcome, nil)
}

// RunCycle godoc
// @Summary Start an asynchronous recompute cycle over all graded enrollments
// @Tags Grades
// @Produce json
// @Success 202 {object} response.Envelope
// @Router /grades/recompute-cycles [post]
func (h *GradeHandler) RunCycle(c *gin.Context) {
	summary, err := h.grades.RunCycle(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, summary, nil)
}

// CycleStatus godoc
// @Summary Progress counters for a recompute cycle
// @Tags Grades
// @Produce json
// @Param id path string true "Cycle ID"
// @Success 200 {object} response.Envelope
// @Router /grades/recompute-cycles/{id} [get]
func (h *GradeHandler) CycleStatus(c *gin.Context) {
	summary, err := h.grades.CycleStatus(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}
