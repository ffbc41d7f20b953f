package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
)

type standingServiceMock struct {
	resp   *models.AcademicStanding
	err    error
	called bool
}

func (m *standingServiceMock) Standing(ctx context.Context, studentID, courseID string) (*models.AcademicStanding, error) {
	m.called = true
	return m.resp, m.err
}

func TestStandingHandlerStanding(t *testing.T) {
	gin.SetMode(gin.TestMode)
	risk := models.RiskWarning
	mockSvc := &standingServiceMock{
		resp: &models.AcademicStanding{StudentID: "student-1", CourseID: "course-1", Risk: &risk},
	}
	handler := NewStandingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/standing?student_id=student-1&course_id=course-1", nil)
	c.Request = req

	handler.Standing(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.called)
	assert.Contains(t, w.Body.String(), "WARNING")
}

func TestStandingHandlerStandingMissingParams(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &standingServiceMock{}
	handler := NewStandingHandler(mockSvc, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/standing?student_id=student-1", nil)
	c.Request = req

	handler.Standing(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.called)
}

func TestStandingHandlerExportsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewStandingHandler(&standingServiceMock{}, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/standing/export/csv?course_id=course-1", nil)
	c.Request = req

	handler.ExportCSV(c)
	require.Equal(t, http.StatusForbidden, w.Code)
}
