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

type mockStudentRepo struct {
	students map[string]models.Student
	byEmail  map[string]string
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]models.Student), byEmail: make(map[string]string)}
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "student-new"
	}
	m.students[student.ID] = *student
	m.byEmail[student.Email] = student.ID
	return nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) FindByEmail(ctx context.Context, email string) (*models.Student, error) {
	if id, ok := m.byEmail[email]; ok {
		return m.FindByID(ctx, id)
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	var out []models.Student
	for _, s := range m.students {
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *mockStudentRepo) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	s, ok := m.students[id]
	if !ok {
		return sql.ErrNoRows
	}
	s.Status = status
	m.students[id] = s
	return nil
}

func TestStudentServiceCreate(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	student, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName:  "Budi Santoso",
		Email:     "budi@example.com",
		BirthDate: "2008-01-20",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.Equal(t, 2008, student.BirthDate.Year())
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Budi Santoso", Email: "budi@example.com", BirthDate: "2008-01-20",
	})
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Budi Copy", Email: "budi@example.com", BirthDate: "2008-01-21",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestStudentServiceCreateBadBirthDate(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Budi Santoso", Email: "budi@example.com", BirthDate: "20-01-2008",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestStudentServiceStatusTransitions(t *testing.T) {
	repo := newMockStudentRepo()
	svc := NewStudentService(repo, nil, nil)

	created, err := svc.Create(context.Background(), CreateStudentRequest{
		FullName: "Budi Santoso", Email: "budi@example.com", BirthDate: "2008-01-20",
	})
	require.NoError(t, err)

	suspended, err := svc.Suspend(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusSuspended, suspended.Status)

	// Re-suspending is a no-op rather than an error.
	again, err := svc.Suspend(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusSuspended, again.Status)

	restored, err := svc.Reactivate(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusActive, restored.Status)
}

func TestStudentServiceGetMissing(t *testing.T) {
	svc := NewStudentService(newMockStudentRepo(), nil, nil)

	_, err := svc.Get(context.Background(), "ghost")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
