package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type studentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	FindByID(ctx context.Context, id string) (*models.Student, error)
	FindByEmail(ctx context.Context, email string) (*models.Student, error)
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error
}

// CreateStudentRequest describes a student registration payload.
type CreateStudentRequest struct {
	FullName  string  `json:"full_name" validate:"required"`
	Email     string  `json:"email" validate:"required,email"`
	BirthDate string  `json:"birth_date" validate:"required"`
	Phone     *string `json:"phone"`
	Address   *string `json:"address"`
}

// StudentService manages student records and the status transitions that
// feed the admission eligibility gate.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs StudentService.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// Create registers a new, active student.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "birth_date must be YYYY-MM-DD")
	}
	if _, err := s.repo.FindByEmail(ctx, req.Email); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "email already registered")
	} else if !isNoRows(err) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}

	student := &models.Student{
		FullName:  req.FullName,
		Email:     req.Email,
		BirthDate: birthDate,
		Phone:     req.Phone,
		Address:   req.Address,
		Status:    models.StudentStatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Get returns one student.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// List returns students with pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return students, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Suspend blocks a student from new admissions. Existing enrollments and
// attendance history are untouched.
func (s *StudentService) Suspend(ctx context.Context, id string) (*models.Student, error) {
	return s.transition(ctx, id, models.StudentStatusSuspended)
}

// Deactivate marks a student inactive.
func (s *StudentService) Deactivate(ctx context.Context, id string) (*models.Student, error) {
	return s.transition(ctx, id, models.StudentStatusInactive)
}

// Reactivate restores admission eligibility.
func (s *StudentService) Reactivate(ctx context.Context, id string) (*models.Student, error) {
	return s.transition(ctx, id, models.StudentStatusActive)
}

func (s *StudentService) transition(ctx context.Context, id string, status models.StudentStatus) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status == status {
		return student, nil
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	student.Status = status
	s.logger.Info("student status changed", zap.String("student_id", id), zap.String("status", string(status)))
	return student, nil
}
