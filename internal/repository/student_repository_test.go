package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
)

func TestStudentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO students`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	student := &models.Student{
		FullName:  "Budi Santoso",
		Email:     "budi@example.com",
		BirthDate: time.Date(2008, 1, 20, 0, 0, 0, 0, time.UTC),
	}
	err := repo.Create(context.Background(), student)
	require.NoError(t, err)
	assert.NotEmpty(t, student.ID)
	assert.Equal(t, models.StudentStatusActive, student.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "email", "birth_date", "phone", "address", "status", "created_at", "updated_at"}).
		AddRow("student-1", "Budi Santoso", "budi@example.com", time.Date(2008, 1, 20, 0, 0, 0, 0, time.UTC), nil, nil, "ACTIVE", time.Now(), time.Now())
	mock.ExpectQuery(`SELECT id, full_name, email, birth_date, phone, address, status, created_at, updated_at FROM students WHERE \(full_name ILIKE \$1 OR email ILIKE \$1\) AND status = \$2`).
		WithArgs("%budi%", models.StudentStatusActive).
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM students WHERE (full_name ILIKE $1 OR email ILIKE $1) AND status = $2`)).
		WithArgs("%budi%", models.StudentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Search: "budi", Status: models.StudentStatusActive})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "student-1", students[0].ID)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateStatusMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE students SET status = $2, updated_at = $3 WHERE id = $1`)).
		WithArgs("ghost", models.StudentStatusSuspended, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "ghost", models.StudentStatusSuspended)
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	assert.NoError(t, mock.ExpectationsWereMet())
}
