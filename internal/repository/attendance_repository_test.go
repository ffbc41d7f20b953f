package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
)

func TestAttendanceRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO attendance_records`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	record := &models.AttendanceRecord{
		StudentID: "student-1",
		CourseID:  "course-1",
		Date:      time.Date(2026, 2, 9, 0, 0, 0, 0, time.UTC),
		Status:    models.AttendanceStatusPresent,
	}
	err := repo.Insert(context.Background(), record)
	require.NoError(t, err)
	assert.NotEmpty(t, record.ID)
	assert.False(t, record.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatsFor(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`COUNT(*) FILTER (WHERE status = 'PRESENT') AS present`)).
		WithArgs("student-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late"}).AddRow(8, 1, 1))

	stats, err := repo.StatsFor(context.Background(), "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 10, stats.Total)
	require.NotNil(t, stats.Percentage)
	assert.InDelta(t, 80.0, *stats.Percentage, 0.001)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryStatsForEmpty(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM attendance_records WHERE student_id = $1 AND course_id = $2`)).
		WithArgs("student-1", "course-1").
		WillReturnRows(sqlmock.NewRows([]string{"present", "absent", "late"}).AddRow(0, 0, 0))

	stats, err := repo.StatsFor(context.Background(), "student-1", "course-1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Total)
	assert.Nil(t, stats.Percentage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAttendanceRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "date", "status", "remarks", "created_at"}).
		AddRow("att-1", "student-1", "course-1", time.Now(), "PRESENT", nil, time.Now())
	mock.ExpectQuery(`SELECT id, student_id, course_id, date, status, remarks, created_at`).
		WithArgs("student-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM attendance_records`)).
		WithArgs("student-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	records, total, err := repo.List(context.Background(), models.AttendanceFilter{StudentID: "student-1"})
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
