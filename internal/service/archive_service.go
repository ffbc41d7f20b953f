package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

type archiveRepository interface {
	ArchiveAndDelete(ctx context.Context, studentID, actor string) (*models.RemovalReceipt, error)
	FindArchivedStudent(ctx context.Context, studentID string) (*models.ArchivedStudent, error)
	ListArchivedAttendance(ctx context.Context, studentID string) ([]models.ArchivedAttendance, error)
}

type archiveObserver interface {
	ObserveRemoval(outcome string)
}

// ArchiveService coordinates student removal: dependent records are
// snapshotted into the archive before the delete takes effect, in one
// transaction. Archival is a precondition of deletion, not a best-effort
// side effect.
type ArchiveService struct {
	repo    archiveRepository
	metrics archiveObserver
	logger  *zap.Logger
}

// NewArchiveService constructs ArchiveService.
func NewArchiveService(repo archiveRepository, metrics archiveObserver, logger *zap.Logger) *ArchiveService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ArchiveService{repo: repo, metrics: metrics, logger: logger}
}

// RemoveStudent archives and then removes a student. The actor is the
// identity handed to the engine by the administrative layer.
func (s *ArchiveService) RemoveStudent(ctx context.Context, studentID, actor string) (*models.RemovalReceipt, error) {
	if studentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "student required")
	}
	if actor == "" {
		actor = "system"
	}

	receipt, err := s.repo.ArchiveAndDelete(ctx, studentID, actor)
	if s.metrics != nil {
		outcome := "removed"
		if err != nil {
			outcome = appErrors.FromError(err).Code
		}
		s.metrics.ObserveRemoval(outcome)
	}
	if err != nil {
		s.logger.Error("student removal failed", zap.String("student_id", studentID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("student removed",
		zap.String("student_id", studentID),
		zap.String("archive_id", receipt.ArchiveID),
		zap.Int("attendance_records", receipt.AttendanceRecords),
		zap.String("actor", actor),
	)
	return receipt, nil
}

// ArchivedStudent returns the snapshot taken when a student was removed.
func (s *ArchiveService) ArchivedStudent(ctx context.Context, studentID string) (*models.ArchivedStudent, error) {
	archived, err := s.repo.FindArchivedStudent(ctx, studentID)
	if err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no archive for student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load archive")
	}
	return archived, nil
}

// ArchivedAttendance returns the attendance snapshot for a removed student.
func (s *ArchiveService) ArchivedAttendance(ctx context.Context, studentID string) ([]models.ArchivedAttendance, error) {
	records, err := s.repo.ListArchivedAttendance(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load archived attendance")
	}
	return records, nil
}
