package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/academic-core-api/internal/models"
)

// AttendanceRepository handles the append-only attendance event log.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Insert appends one attendance record. Records are never updated here;
// administrative correction lives outside the engine.
func (r *AttendanceRepository) Insert(ctx context.Context, record *models.AttendanceRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO attendance_records (id, student_id, course_id, date, status, remarks, created_at)
        VALUES (:id, :student_id, :course_id, :date, :status, :remarks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	return nil
}

// StatsFor aggregates presence counts for a (student, course) pair straight
// from the record store. Each call re-reads; nothing is cached here.
func (r *AttendanceRepository) StatsFor(ctx context.Context, studentID, courseID string) (*models.AttendanceStats, error) {
	var counts struct {
		Present int `db:"present"`
		Absent  int `db:"absent"`
		Late    int `db:"late"`
	}
	const query = `SELECT
COUNT(*) FILTER (WHERE status = 'PRESENT') AS present,
COUNT(*) FILTER (WHERE status = 'ABSENT') AS absent,
COUNT(*) FILTER (WHERE status = 'LATE') AS late
FROM attendance_records WHERE student_id = $1 AND course_id = $2`
	if err := r.db.GetContext(ctx, &counts, query, studentID, courseID); err != nil {
		return nil, fmt.Errorf("aggregate attendance: %w", err)
	}
	return models.NewAttendanceStats(studentID, courseID, counts.Present, counts.Absent, counts.Late), nil
}

// List returns attendance records matching the filter.
func (r *AttendanceRepository) List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error) {
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.CourseID != "" {
		conditions = append(conditions, fmt.Sprintf("course_id = $%d", len(args)+1))
		args = append(args, filter.CourseID)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf(`SELECT id, student_id, course_id, date, status, remarks, created_at
        FROM attendance_records%s ORDER BY date %s LIMIT %d OFFSET %d`, clause, order, size, offset)

	var records []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list attendance records: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM attendance_records%s", clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count attendance records: %w", err)
	}
	return records, total, nil
}
