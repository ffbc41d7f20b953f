package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/repository"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type mockAttendanceRepo struct {
	records []models.AttendanceRecord
}

func (m *mockAttendanceRepo) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	record.ID = "att-1"
	record.CreatedAt = time.Now().UTC()
	m.records = append(m.records, *record)
	return nil
}

func (m *mockAttendanceRepo) StatsFor(ctx context.Context, studentID, courseID string) (*models.AttendanceStats, error) {
	var present, absent, late int
	for _, r := range m.records {
		if r.StudentID != studentID || r.CourseID != courseID {
			continue
		}
		switch r.Status {
		case models.AttendanceStatusPresent:
			present++
		case models.AttendanceStatusAbsent:
			absent++
		case models.AttendanceStatusLate:
			late++
		}
	}
	return models.NewAttendanceStats(studentID, courseID, present, absent, late), nil
}

func (m *mockAttendanceRepo) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	return m.records, len(m.records), nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockCourseReader struct {
	courses map[string]models.Course
}

func (m *mockCourseReader) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseReader) FindByCode(ctx context.Context, code string) (*models.Course, error) {
	for _, c := range m.courses {
		if c.Code == code {
			course := c
			return &course, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockInvalidator struct {
	deleted []string
}

func (m *mockInvalidator) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	return nil
}

func attendanceFixture() (*AttendanceService, *mockAttendanceRepo, *mockInvalidator) {
	repo := &mockAttendanceRepo{}
	students := &mockStudentReader{students: map[string]models.Student{
		"student-1": {ID: "student-1", FullName: "Siti Rahma", Status: models.StudentStatusActive},
	}}
	courses := &mockCourseReader{courses: map[string]models.Course{
		"course-1": {ID: "course-1", Code: "CS101", MaxCapacity: 30},
	}}
	invalidator := &mockInvalidator{}
	return NewAttendanceService(repo, students, courses, invalidator, nil, nil), repo, invalidator
}

func TestAttendanceServiceMark(t *testing.T) {
	svc, repo, invalidator := attendanceFixture()

	record, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "student-1",
		CourseID:  "course-1",
		Date:      "2026-02-09",
		Status:    "present",
	})
	require.NoError(t, err)
	assert.Equal(t, models.AttendanceStatusPresent, record.Status)
	assert.Len(t, repo.records, 1)
	// New attendance invalidates the pair's cached standing.
	assert.Equal(t, []string{repository.StandingKey("student-1", "course-1")}, invalidator.deleted)
}

func TestAttendanceServiceMarkInvalidStatus(t *testing.T) {
	svc, _, _ := attendanceFixture()

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "student-1",
		CourseID:  "course-1",
		Date:      "2026-02-09",
		Status:    "EXCUSED",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAttendanceServiceMarkBadDate(t *testing.T) {
	svc, _, _ := attendanceFixture()

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "student-1",
		CourseID:  "course-1",
		Date:      "09/02/2026",
		Status:    "PRESENT",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAttendanceServiceMarkUnknownStudent(t *testing.T) {
	svc, _, _ := attendanceFixture()

	_, err := svc.Mark(context.Background(), MarkAttendanceRequest{
		StudentID: "ghost",
		CourseID:  "course-1",
		Date:      "2026-02-09",
		Status:    "PRESENT",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestAttendanceServiceStats(t *testing.T) {
	svc, repo, _ := attendanceFixture()
	repo.records = []models.AttendanceRecord{
		{StudentID: "student-1", CourseID: "course-1", Status: models.AttendanceStatusPresent},
		{StudentID: "student-1", CourseID: "course-1", Status: models.AttendanceStatusPresent},
		{StudentID: "student-1", CourseID: "course-1", Status: models.AttendanceStatusAbsent},
		{StudentID: "student-1", CourseID: "course-1", Status: models.AttendanceStatusLate},
	}

	stats, err := svc.Stats(context.Background(), "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Present)
	require.NotNil(t, stats.Percentage)
	assert.InDelta(t, 50.0, *stats.Percentage, 0.001)
}

func TestAttendanceServiceStatsNoHistory(t *testing.T) {
	svc, _, _ := attendanceFixture()

	stats, err := svc.Stats(context.Background(), "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Nil(t, stats.Percentage)
}
