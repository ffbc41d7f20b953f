package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

func expectStudentLockRow(mock sqlmock.Sqlmock) {
	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "birth_date", "phone", "address", "status", "created_at", "updated_at"}).
		AddRow("student-1", "Siti Rahma", "siti@example.com", time.Date(2008, 4, 17, 0, 0, 0, 0, time.UTC), nil, nil, "ACTIVE", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, full_name, email, birth_date, phone, address, status, created_at, updated_at`).
		WithArgs("student-1").
		WillReturnRows(rows)
}

func TestArchiveRepositoryArchiveAndDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	expectStudentLockRow(mock)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO archived_students`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO archived_attendance`)).
		WithArgs("student-1", sqlmock.AnyArg(), "registrar@school").
		WillReturnResult(sqlmock.NewResult(0, 14))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT c.id, c.max_capacity FROM courses c`)).
		WithArgs("student-1", models.EnrollmentStatusWithdrawn).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_capacity"}).AddRow("course-1", 30))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM students WHERE id = $1`)).
		WithArgs("student-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status <> $2`)).
		WithArgs("course-1", models.EnrollmentStatusWithdrawn).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(29))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE courses SET occupancy_state = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("course-1", models.OccupancyOpen, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	receipt, err := repo.ArchiveAndDelete(context.Background(), "student-1", "registrar@school")
	require.NoError(t, err)
	assert.Equal(t, "student-1", receipt.StudentID)
	assert.Equal(t, 14, receipt.AttendanceRecords)
	assert.Equal(t, "registrar@school", receipt.RemovedBy)
	assert.NotEmpty(t, receipt.ArchiveID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryArchiveWriteFailureRollsBack(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	expectStudentLockRow(mock)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO archived_students`)).
		WillReturnError(fmt.Errorf("disk full"))
	mock.ExpectRollback()

	_, err := repo.ArchiveAndDelete(context.Background(), "student-1", "registrar@school")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrArchiveWriteFailed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryArchiveAndDeleteUnknownStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT id, full_name, email, birth_date, phone, address, status, created_at, updated_at`).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectRollback()

	_, err := repo.ArchiveAndDelete(context.Background(), "ghost", "system")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveRepositoryFindArchivedStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewArchiveRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "full_name", "email", "birth_date", "phone", "address", "status", "archived_at", "archived_by"}).
		AddRow("arch-1", "student-1", "Siti Rahma", "siti@example.com", time.Date(2008, 4, 17, 0, 0, 0, 0, time.UTC), nil, nil, "ACTIVE", time.Now(), "system")
	mock.ExpectQuery(`FROM archived_students WHERE student_id = \$1`).
		WithArgs("student-1").
		WillReturnRows(rows)

	archived, err := repo.FindArchivedStudent(context.Background(), "student-1")
	require.NoError(t, err)
	assert.Equal(t, "arch-1", archived.ID)
	assert.Equal(t, "Siti Rahma", archived.FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}
