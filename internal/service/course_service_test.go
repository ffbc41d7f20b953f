package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type mockCourseRepo struct {
	courses map[string]models.Course
}

func newMockCourseRepo() *mockCourseRepo {
	return &mockCourseRepo{courses: make(map[string]models.Course)}
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = "course-new"
	}
	course.OccupancyState = models.OccupancyOpen
	m.courses[course.Code] = *course
	return nil
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.ID == id {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	if c, ok := m.courses[code]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context, filter models.CourseFilter) ([]models.Course, int, error) {
	var out []models.Course
	for _, c := range m.courses {
		out = append(out, c)
	}
	return out, len(out), nil
}

func TestCourseServiceCreate(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, nil, nil)

	course, err := svc.Create(context.Background(), CreateCourseRequest{
		Code: "cs101", Title: "Algorithms", Credits: 3, MaxCapacity: 30,
	})
	require.NoError(t, err)
	// Codes normalize to upper case, occupancy always starts open.
	assert.Equal(t, "CS101", course.Code)
	assert.Equal(t, models.OccupancyOpen, course.OccupancyState)
}

func TestCourseServiceCreateDuplicateCode(t *testing.T) {
	repo := newMockCourseRepo()
	svc := NewCourseService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Code: "CS101", Title: "Algorithms", Credits: 3, MaxCapacity: 30})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateCourseRequest{Code: "cs101", Title: "Algorithms II", Credits: 3, MaxCapacity: 30})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestCourseServiceCreateInvalidCapacity(t *testing.T) {
	svc := NewCourseService(newMockCourseRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateCourseRequest{Code: "CS101", Title: "Algorithms", Credits: 3, MaxCapacity: 0})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestCourseServiceGetByCodeUnknown(t *testing.T) {
	svc := NewCourseService(newMockCourseRepo(), nil, nil)

	_, err := svc.GetByCode(context.Background(), "NOPE")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrUnknownCourse))
}
