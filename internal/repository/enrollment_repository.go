package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

// Postgres error codes the admission path translates into typed outcomes.
const (
	pqLockNotAvailable = "55P03"
	pqUniqueViolation  = "23505"
)

// EnrollmentRepository handles persistence of enrollments, including the
// atomic check-and-insert admission transaction.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// AdmitParams carries everything the admission transaction needs.
type AdmitParams struct {
	StudentID   string
	CourseCode  string
	LockTimeout time.Duration
}

// Admit performs the full admission inside one transaction: eligibility,
// course resolution, duplicate check, capacity check, insert and occupancy
// re-derivation. The course row is locked FOR UPDATE so concurrent
// admissions to the same course serialize while other courses proceed in
// parallel. The lock wait is bounded by LockTimeout; exceeding it maps to
// ErrAdmissionTimeout.
func (r *EnrollmentRepository) Admit(ctx context.Context, params AdmitParams) (enrollment *models.Enrollment, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "begin admission")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if params.LockTimeout > 0 {
		if _, err = tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", params.LockTimeout.Milliseconds())); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "set admission lock timeout")
		}
	}

	var studentStatus models.StudentStatus
	if err = tx.GetContext(ctx, &studentStatus, `SELECT status FROM students WHERE id = $1`, params.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrIneligibleStudent, "student not found")
			return nil, err
		}
		return nil, translateAdmitError(err, "load student")
	}
	if studentStatus != models.StudentStatusActive {
		err = appErrors.Clone(appErrors.ErrIneligibleStudent, fmt.Sprintf("student status is %s", studentStatus))
		return nil, err
	}

	var course models.Course
	const lockCourse = `SELECT id, code, title, credits, max_capacity, occupancy_state FROM courses WHERE code = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &course, lockCourse, params.CourseCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.ErrUnknownCourse
			return nil, err
		}
		return nil, translateAdmitError(err, "lock course")
	}

	var duplicates int
	const dupQuery = `SELECT COUNT(*) FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status <> $3`
	if err = tx.GetContext(ctx, &duplicates, dupQuery, params.StudentID, course.ID, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, translateAdmitError(err, "check duplicate enrollment")
	}
	if duplicates > 0 {
		err = appErrors.ErrDuplicateEnrollment
		return nil, err
	}

	var active int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status <> $2`
	if err = tx.GetContext(ctx, &active, countQuery, course.ID, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, translateAdmitError(err, "count course enrollments")
	}
	if active >= course.MaxCapacity {
		err = appErrors.ErrCourseFull
		return nil, err
	}

	enrollment = &models.Enrollment{
		ID:         uuid.NewString(),
		StudentID:  params.StudentID,
		CourseID:   course.ID,
		EnrolledAt: time.Now().UTC(),
		Status:     models.EnrollmentStatusEnrolled,
	}
	const insertQuery = `INSERT INTO enrollments (id, student_id, course_id, enrolled_at, status) VALUES ($1, $2, $3, $4, $5)`
	if _, err = tx.ExecContext(ctx, insertQuery, enrollment.ID, enrollment.StudentID, enrollment.CourseID, enrollment.EnrolledAt, enrollment.Status); err != nil {
		return nil, translateAdmitError(err, "insert enrollment")
	}

	if err = r.applyOccupancy(ctx, tx, course.ID, course.MaxCapacity, active+1); err != nil {
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, translateAdmitError(err, "commit admission")
	}
	return enrollment, nil
}

// Withdraw marks an enrollment withdrawn and re-derives the course occupancy
// state within the same transaction. The course row is locked first so the
// lock order matches Admit.
func (r *EnrollmentRepository) Withdraw(ctx context.Context, enrollmentID string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "begin withdrawal")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var enrollment models.Enrollment
	const findQuery = `SELECT id, student_id, course_id, enrolled_at, grade, status, withdrawn_at FROM enrollments WHERE id = $1`
	if err = tx.GetContext(ctx, &enrollment, findQuery, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			return err
		}
		return translateAdmitError(err, "load enrollment")
	}
	if enrollment.Status == models.EnrollmentStatusWithdrawn {
		err = appErrors.Clone(appErrors.ErrConflict, "enrollment already withdrawn")
		return err
	}

	var course models.Course
	const lockCourse = `SELECT id, code, title, credits, max_capacity, occupancy_state FROM courses WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &course, lockCourse, enrollment.CourseID); err != nil {
		return translateAdmitError(err, "lock course")
	}

	now := time.Now().UTC()
	const updateQuery = `UPDATE enrollments SET status = $2, withdrawn_at = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, updateQuery, enrollmentID, models.EnrollmentStatusWithdrawn, now); err != nil {
		return translateAdmitError(err, "withdraw enrollment")
	}

	var active int
	const countQuery = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status <> $2`
	if err = tx.GetContext(ctx, &active, countQuery, course.ID, models.EnrollmentStatusWithdrawn); err != nil {
		return translateAdmitError(err, "count course enrollments")
	}
	if err = r.applyOccupancy(ctx, tx, course.ID, course.MaxCapacity, active); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return translateAdmitError(err, "commit withdrawal")
	}
	return nil
}

// RecomputeGrade applies the attendance-based grade adjustment to one
// enrollment inside a transaction. The enrollment row is locked and stamped
// with the cycle ID, so reapplying the same cycle is a no-op and a pass
// cannot compound adjustments.
func (r *EnrollmentRepository) RecomputeGrade(ctx context.Context, enrollmentID, cycleID string) (outcome *models.RecomputeOutcome, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, "begin grade recompute")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var enrollment models.Enrollment
	const lockQuery = `SELECT id, student_id, course_id, grade, status, last_recompute_cycle FROM enrollments WHERE id = $1 FOR UPDATE`
	if err = tx.GetContext(ctx, &enrollment, lockQuery, enrollmentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
			return nil, err
		}
		return nil, translateAdmitError(err, "lock enrollment")
	}

	outcome = &models.RecomputeOutcome{EnrollmentID: enrollmentID, CycleID: cycleID, Result: models.RecomputeNoOp, OldGrade: enrollment.Grade}
	if enrollment.LastRecomputeCycle != nil && *enrollment.LastRecomputeCycle == cycleID {
		err = tx.Commit()
		return outcome, err
	}
	if enrollment.Grade == nil {
		err = tx.Commit()
		return outcome, err
	}

	var counts struct {
		Present int `db:"present"`
		Absent  int `db:"absent"`
		Late    int `db:"late"`
	}
	const statsQuery = `SELECT
COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
COUNT(*) FILTER (WHERE status = 'LATE') AS late
FROM attendance_records WHERE student_id = $1 AND course_id = $2`
	if err = tx.GetContext(ctx, &counts, statsQuery, enrollment.StudentID, enrollment.CourseID); err != nil {
		return nil, translateAdmitError(err, "aggregate attendance")
	}

	stats := models.NewAttendanceStats(enrollment.StudentID, enrollment.CourseID, counts.Present, counts.Absent, counts.Late)
	if stats.Percentage == nil {
		err = tx.Commit()
		return outcome, err
	}

	newGrade := models.AdjustGrade(*enrollment.Grade, *stats.Percentage)
	const stampQuery = `UPDATE enrollments SET grade = $2, last_recompute_cycle = $3 WHERE id = $1`
	if _, err = tx.ExecContext(ctx, stampQuery, enrollmentID, newGrade, cycleID); err != nil {
		return nil, translateAdmitError(err, "apply grade adjustment")
	}

	outcome.NewGrade = &newGrade
	if newGrade == *enrollment.Grade {
		outcome.Result = models.RecomputeUnchanged
	} else {
		outcome.Result = models.RecomputeAdjusted
	}
	if err = tx.Commit(); err != nil {
		return nil, translateAdmitError(err, "commit grade recompute")
	}
	return outcome, nil
}

// SetGrade records an administrative grade entry for an enrollment.
func (r *EnrollmentRepository) SetGrade(ctx context.Context, enrollmentID string, grade float64) error {
	const query = `UPDATE enrollments SET grade = $2 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, enrollmentID, grade)
	if err != nil {
		return fmt.Errorf("set grade: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set grade rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrolled_at, grade, status, withdrawn_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and course context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.student_id, e.course_id, e.enrolled_at, e.grade, e.status, e.withdrawn_at,
        s.full_name AS student_name, c.code AS course_code, c.title AS course_title
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN courses c ON c.id = e.course_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN courses c ON c.id = e.course_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("e.course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrolled_at":  "e.enrolled_at",
		"student_name": "s.full_name",
		"course_code":  "c.code",
		"grade":        "e.grade",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "e.enrolled_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.student_id, e.course_id, e.enrolled_at, e.grade, e.status, e.withdrawn_at,
        s.full_name AS student_name, c.code AS course_code, c.title AS course_title
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindActivePair returns the non-withdrawn enrollment for a (student, course)
// pair, or sql.ErrNoRows when none exists.
func (r *EnrollmentRepository) FindActivePair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error) {
	const query = `SELECT id, student_id, course_id, enrolled_at, grade, status, withdrawn_at
        FROM enrollments WHERE student_id = $1 AND course_id = $2 AND status <> $3 LIMIT 1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, studentID, courseID, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// ListGradedIDs returns IDs of non-withdrawn enrollments that carry a grade.
// These are the candidates of a recompute pass.
func (r *EnrollmentRepository) ListGradedIDs(ctx context.Context) ([]string, error) {
	const query = `SELECT id FROM enrollments WHERE grade IS NOT NULL AND status <> $1 ORDER BY enrolled_at`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, models.EnrollmentStatusWithdrawn); err != nil {
		return nil, fmt.Errorf("list graded enrollments: %w", err)
	}
	return ids, nil
}

// CountActiveByCourse returns the current non-withdrawn enrollment count.
func (r *EnrollmentRepository) CountActiveByCourse(ctx context.Context, courseID string) (int, error) {
	const query = `SELECT COUNT(*) FROM enrollments WHERE course_id = $1 AND status <> $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, courseID, models.EnrollmentStatusWithdrawn); err != nil {
		return 0, fmt.Errorf("count course enrollments: %w", err)
	}
	return count, nil
}

func (r *EnrollmentRepository) applyOccupancy(ctx context.Context, tx *sqlx.Tx, courseID string, maxCapacity, activeCount int) error {
	state := models.DeriveOccupancy(activeCount, maxCapacity)
	const query = `UPDATE courses SET occupancy_state = $2, updated_at = $3 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, courseID, state, time.Now().UTC()); err != nil {
		return translateAdmitError(err, "update occupancy state")
	}
	return nil
}

// translateAdmitError maps Postgres failure modes onto the typed taxonomy.
func translateAdmitError(err error, op string) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch string(pqErr.Code) {
		case pqLockNotAvailable:
			return appErrors.Wrap(err, appErrors.ErrAdmissionTimeout.Code, appErrors.ErrAdmissionTimeout.Status, appErrors.ErrAdmissionTimeout.Message)
		case pqUniqueViolation:
			return appErrors.Wrap(err, appErrors.ErrDuplicateEnrollment.Code, appErrors.ErrDuplicateEnrollment.Status, appErrors.ErrDuplicateEnrollment.Message)
		}
	}
	return appErrors.Wrap(err, appErrors.ErrStorageUnavailable.Code, appErrors.ErrStorageUnavailable.Status, op)
}
