package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/repository"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type attendanceRepository interface {
	Insert(ctx context.Context, record *models.AttendanceRecord) error
	StatsFor(ctx context.Context, studentID, courseID string) (*models.AttendanceStats, error)
	List(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, int, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type courseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	FindByCode(ctx context.Context, code string) (*models.Course, error)
}

type standingInvalidator interface {
	Delete(ctx context.Context, key string) error
}

// MarkAttendanceRequest describes a single attendance event.
type MarkAttendanceRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Date      string  `json:"date" validate:"required"`
	Status    string  `json:"status" validate:"required,attendance_status"`
	Remarks   *string `json:"remarks"`
}

// AttendanceService appends attendance events and derives presence
// statistics. Stats reads are pure: every call re-reads the record store, so
// concurrent calls need no coordination.
type AttendanceService struct {
	repo      attendanceRepository
	students  studentReader
	courses   courseReader
	cache     standingInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAttendanceService constructs the attendance service.
func NewAttendanceService(repo attendanceRepository, students studentReader, courses courseReader, cache standingInvalidator, validate *validator.Validate, logger *zap.Logger) *AttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AttendanceService{repo: repo, students: students, courses: courses, cache: cache, validator: validate, logger: logger}
	svc.validator.RegisterValidation("attendance_status", func(fl validator.FieldLevel) bool {
		return models.AttendanceStatus(strings.ToUpper(fl.Field().String())).Valid()
	})
	return svc
}

// Mark appends one attendance record for a (student, course) pair.
func (s *AttendanceService) Mark(ctx context.Context, req MarkAttendanceRequest) (*models.AttendanceRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if isNoRows(err) {
			return nil, appErrors.ErrUnknownCourse
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	record := &models.AttendanceRecord{
		StudentID: req.StudentID,
		CourseID:  req.CourseID,
		Date:      date,
		Status:    models.AttendanceStatus(strings.ToUpper(req.Status)),
		Remarks:   req.Remarks,
	}
	if err := s.repo.Insert(ctx, record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	// Standing reports for this pair are stale now.
	if s.cache != nil {
		if err := s.cache.Delete(ctx, repository.StandingKey(req.StudentID, req.CourseID)); err != nil {
			s.logger.Warn("failed to invalidate standing cache", zap.Error(err))
		}
	}
	return record, nil
}

// Stats computes presence statistics for a (student, course) pair from the
// current record set. Percentage is nil when no records exist.
func (s *AttendanceService) Stats(ctx context.Context, studentID, courseID string) (*models.AttendanceStats, error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and course required")
	}
	stats, err := s.repo.StatsFor(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}
	return stats, nil
}

// History lists raw attendance records with pagination metadata.
func (s *AttendanceService) History(ctx context.Context, filter models.AttendanceFilter) ([]models.AttendanceRecord, *models.Pagination, error) {
	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
