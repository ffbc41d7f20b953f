package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/service"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type admissionServiceMock struct {
	enrollResp     *models.EnrollmentDetail
	enrollErr      error
	withdrawResp   *models.EnrollmentDetail
	withdrawErr    error
	lastReq        service.EnrollRequest
	lastFilter     models.EnrollmentFilter
	enrollCalled   bool
	withdrawCalled bool
}

func (m *admissionServiceMock) Enroll(ctx context.Context, req service.EnrollRequest) (*models.EnrollmentDetail, error) {
	m.enrollCalled = true
	m.lastReq = req
	return m.enrollResp, m.enrollErr
}

func (m *admissionServiceMock) Withdraw(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	m.withdrawCalled = true
	return m.withdrawResp, m.withdrawErr
}

func (m *admissionServiceMock) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	return nil, appErrors.ErrNotFound
}

func (m *admissionServiceMock) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	m.lastFilter = filter
	return nil, &models.Pagination{}, nil
}

func enrollBody(t *testing.T) *bytes.Reader {
	t.Helper()
	payload, err := json.Marshal(service.EnrollRequest{StudentID: "student-1", CourseCode: "CS101"})
	require.NoError(t, err)
	return bytes.NewReader(payload)
}

func TestEnrollmentHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &admissionServiceMock{
		enrollResp: &models.EnrollmentDetail{
			Enrollment: models.Enrollment{ID: "enrollment-1", Status: models.EnrollmentStatusEnrolled},
			CourseCode: "CS101",
		},
	}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", enrollBody(t))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.True(t, mockSvc.enrollCalled)
	assert.Equal(t, "CS101", mockSvc.lastReq.CourseCode)
}

func TestEnrollmentHandlerCreateRejections(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"course full", appErrors.ErrCourseFull, http.StatusConflict},
		{"duplicate", appErrors.ErrDuplicateEnrollment, http.StatusConflict},
		{"ineligible", appErrors.ErrIneligibleStudent, http.StatusPreconditionFailed},
		{"unknown course", appErrors.ErrUnknownCourse, http.StatusNotFound},
		{"lock timeout", appErrors.ErrAdmissionTimeout, http.StatusRequestTimeout},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := NewEnrollmentHandler(&admissionServiceMock{enrollErr: tc.err})

			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			req, _ := http.NewRequest(http.MethodPost, "/enrollments", enrollBody(t))
			req.Header.Set("Content-Type", "application/json")
			c.Request = req

			handler.Create(c)
			require.Equal(t, tc.status, w.Code)
		})
	}
}

func TestEnrollmentHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &admissionServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments", bytes.NewBufferString(`{"student_id":`))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, mockSvc.enrollCalled)
}

func TestEnrollmentHandlerListFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &admissionServiceMock{}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/enrollments?courseId=course-1&status=enrolled&page=2&limit=10", nil)
	c.Request = req

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "course-1", mockSvc.lastFilter.CourseID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, mockSvc.lastFilter.Status)
	assert.Equal(t, 2, mockSvc.lastFilter.Page)
	assert.Equal(t, 10, mockSvc.lastFilter.PageSize)
}

func TestEnrollmentHandlerWithdraw(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &admissionServiceMock{
		withdrawResp: &models.EnrollmentDetail{
			Enrollment: models.Enrollment{ID: "enrollment-1", Status: models.EnrollmentStatusWithdrawn},
		},
	}
	handler := NewEnrollmentHandler(mockSvc)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/enrollments/enrollment-1/withdraw", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "enrollment-1"}}

	handler.Withdraw(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mockSvc.withdrawCalled)
}
