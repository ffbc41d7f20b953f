package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/repository"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type admitter interface {
	Admit(ctx context.Context, params repository.AdmitParams) (*models.Enrollment, error)
	Withdraw(ctx context.Context, enrollmentID string) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type admissionObserver interface {
	ObserveAdmission(outcome string, duration time.Duration)
}

// EnrollRequest describes an admission request.
type EnrollRequest struct {
	StudentID  string `json:"student_id" validate:"required"`
	CourseCode string `json:"course_code" validate:"required"`
}

// AdmissionService validates and performs enrollment requests. The atomicity
// and per-course serialization live in the repository transaction; this layer
// owns request validation, observability and result shaping.
type AdmissionService struct {
	repo        admitter
	lockTimeout time.Duration
	metrics     admissionObserver
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewAdmissionService constructs AdmissionService.
func NewAdmissionService(repo admitter, lockTimeout time.Duration, metrics admissionObserver, validate *validator.Validate, logger *zap.Logger) *AdmissionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdmissionService{repo: repo, lockTimeout: lockTimeout, metrics: metrics, validator: validate, logger: logger}
}

// Enroll admits a student into a course. Eligibility, duplicate and capacity
// failures come back as typed errors and are never retried here.
func (s *AdmissionService) Enroll(ctx context.Context, req EnrollRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	start := time.Now()
	enrollment, err := s.repo.Admit(ctx, repository.AdmitParams{
		StudentID:   req.StudentID,
		CourseCode:  req.CourseCode,
		LockTimeout: s.lockTimeout,
	})
	s.observe(err, time.Since(start))
	if err != nil {
		s.logger.Info("admission rejected",
			zap.String("student_id", req.StudentID),
			zap.String("course_code", req.CourseCode),
			zap.String("reason", appErrors.FromError(err).Code),
		)
		return nil, err
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	s.logger.Info("student admitted",
		zap.String("enrollment_id", enrollment.ID),
		zap.String("student_id", req.StudentID),
		zap.String("course_code", req.CourseCode),
	)
	return detail, nil
}

// Withdraw marks an enrollment withdrawn, freeing its capacity slot.
func (s *AdmissionService) Withdraw(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	if err := s.repo.Withdraw(ctx, enrollmentID); err != nil {
		return nil, err
	}
	detail, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Get returns one enrollment with context.
func (s *AdmissionService) Get(ctx context.Context, enrollmentID string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, enrollmentID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// List returns enrollments with pagination metadata.
func (s *AdmissionService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

func (s *AdmissionService) observe(err error, duration time.Duration) {
	if s.metrics == nil {
		return
	}
	outcome := "enrolled"
	if err != nil {
		outcome = appErrors.FromError(err).Code
	}
	s.metrics.ObserveAdmission(outcome, duration)
}
