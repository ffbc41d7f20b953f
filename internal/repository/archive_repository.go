package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

// ArchiveRepository owns the archival-then-delete sequence for student
// removal and read access to archived snapshots.
type ArchiveRepository struct {
	db *sqlx.DB
}

// NewArchiveRepository constructs the repository.
func NewArchiveRepository(db *sqlx.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// ArchiveAndDelete snapshots the student row and all attendance records into
// the archive tables, then deletes the student, all inside one transaction.
// The delete cascades to enrollments and attendance records. If any archive
// write fails the transaction rolls back and the student remains untouched.
func (r *ArchiveRepository) ArchiveAndDelete(ctx context.Context, studentID, actor string) (receipt *models.RemovalReceipt, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "begin removal")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var student models.Student
	const lockStudent = `SELECT id, full_name, email, birth_date, phone, address, status, created_at, updated_at
        FROM students WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &student, lockStudent, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "student not found")
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "lock student")
	}

	now := time.Now().UTC()
	archiveID := uuid.NewString()
	const insertStudent = `INSERT INTO archived_students (id, student_id, full_name, email, birth_date, phone, address, status, archived_at, archived_by)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	if _, err = tx.ExecContext(ctx, insertStudent, archiveID, student.ID, student.FullName, student.Email,
		student.BirthDate, student.Phone, student.Address, student.Status, now, actor); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrArchiveWriteFailed.Code, appErrors.ErrArchiveWriteFailed.Status, "archive student")
	}

	const insertAttendance = `INSERT INTO archived_attendance (id, student_id, course_id, date, status, remarks, archived_at, archived_by)
        SELECT id, student_id, course_id, date, status, remarks, $2, $3 FROM attendance_records WHERE student_id = $1`
	result, err := tx.ExecContext(ctx, insertAttendance, studentID, now, actor)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrArchiveWriteFailed.Code, appErrors.ErrArchiveWriteFailed.Status, "archive attendance")
	}
	archived, err := result.RowsAffected()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrArchiveWriteFailed.Code, appErrors.ErrArchiveWriteFailed.Status, "archive attendance count")
	}

	// Courses the student occupied need their occupancy re-derived once the
	// cascade removes the enrollments.
	var courses []struct {
		ID          string `db:"id"`
		MaxCapacity int    `db:"max_capacity"`
	}
	const affectedCourses = `SELECT c.id, c.max_capacity FROM courses c
        JOIN enrollments e ON e.course_id = c.id
        WHERE e.student_id = $1 AND e.status <> $2
        ORDER BY c.id FOR UPDATE OF c`
	if err = tx.SelectContext(ctx, &courses, affectedCourses, studentID, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "lock affected courses")
	}

	const deleteStudent = `DELETE FROM students WHERE id = $1`
	if _, err = tx.ExecContext(ctx, deleteStudent, studentID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "delete student")
	}

	for _, course := range courses {
		var active int
		const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status <> $2`
		if err = tx.GetContext(ctx, &active, countQuery, course.ID, models.EnrollmentStatusWithdrawn); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "recount course enrollments")
		}
		const updateQuery = `UPDATE courses SET occupancy_state = $2, updated_at = $3 WHERE id = $1`
		if _, err = tx.ExecContext(ctx, updateQuery, course.ID, models.DeriveOccupancy(active, course.MaxCapacity), now); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "update occupancy state")
		}
	}

	if err = tx.Commit(); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "commit removal")
	}

	return &models.RemovalReceipt{
		StudentID:         studentID,
		ArchiveID:         archiveID,
		AttendanceRecords: int(archived),
		RemovedAt:         now,
		RemovedBy:         actor,
	}, nil
}

// FindArchivedStudent returns the archived snapshot for a removed student.
func (r *ArchiveRepository) FindArchivedStudent(ctx context.Context, studentID string) (*models.ArchivedStudent, error) {
	const query = `SELECT id, student_id, full_name, email, birth_date, phone, address, status, archived_at, archived_by
        FROM archived_students WHERE student_id = $1`
	var archived models.ArchivedStudent
	if err := r.db.GetContext(ctx, &archived, query, studentID); err != nil {
		return nil, err
	}
	return &archived, nil
}

// ListArchivedAttendance returns the archived attendance snapshot for a
// removed student.
func (r *ArchiveRepository) ListArchivedAttendance(ctx context.Context, studentID string) ([]models.ArchivedAttendance, error) {
	const query = `SELECT id, student_id, course_id, date, status, remarks, archived_at, archived_by
        FROM archived_attendance WHERE student_id = $1 ORDER BY date`
	var records []models.ArchivedAttendance
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, err
	}
	return records, nil
}
