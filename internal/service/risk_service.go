package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/repository"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type statsReader interface {
	StatsFor(ctx context.Context, studentID, courseID string) (*models.AttendanceStats, error)
}

type enrollmentPairReader interface {
	FindActivePair(ctx context.Context, studentID, courseID string) (*models.Enrollment, error)
}

type standingCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RiskService derives academic-standing reports. Classification itself is a
// pure function; this service assembles its inputs and serves the read-only
// reporting layer, optionally through a short-lived cache.
type RiskService struct {
	stats       statsReader
	enrollments enrollmentPairReader
	students    studentReader
	courses     courseReader
	cache       standingCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewRiskService constructs RiskService. A nil cache disables read-side
// caching; stats are always recomputed from the record store either way.
func NewRiskService(stats statsReader, enrollments enrollmentPairReader, students studentReader, courses courseReader, cache standingCache, cacheTTL time.Duration, logger *zap.Logger) *RiskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RiskService{stats: stats, enrollments: enrollments, students: students, courses: courses, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

// Classify labels a grade/attendance pair. Pure and safe for concurrent use.
func (s *RiskService) Classify(grade, attendancePercentage float64) models.RiskLevel {
	return models.ClassifyRisk(grade, attendancePercentage)
}

// Standing builds the academic-standing report for a (student, course) pair.
// Risk is nil when there is no grade or no attendance history to judge.
func (s *RiskService) Standing(ctx context.Context, studentID, courseID string) (*models.AcademicStanding, error) {
	if studentID == "" || courseID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student and course required")
	}

	key := repository.StandingKey(studentID, courseID)
	if s.cache != nil {
		var cached models.AcademicStanding
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.ErrUnknownCourse
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	var grade *float64
	enrollment, err := s.enrollments.FindActivePair(ctx, studentID, courseID)
	if err != nil && !isNoRows(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment != nil {
		grade = enrollment.Grade
	}

	stats, err := s.stats.StatsFor(ctx, studentID, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate attendance")
	}

	standing := &models.AcademicStanding{
		StudentID:   studentID,
		StudentName: student.FullName,
		CourseID:    courseID,
		CourseCode:  course.Code,
		Grade:       grade,
		Attendance:  *stats,
		GeneratedAt: time.Now().UTC(),
	}
	if grade != nil && stats.Percentage != nil {
		risk := models.ClassifyRisk(*grade, *stats.Percentage)
		standing.Risk = &risk
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, standing, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache standing report", zap.Error(err))
		}
	}
	return standing, nil
}
