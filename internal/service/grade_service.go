package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/academic-core-api/internal/models"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
	"github.com/noah-isme/academic-core-api/pkg/jobs"
)

type gradeRepository interface {
	RecomputeGrade(ctx context.Context, enrollmentID, cycleID string) (*models.RecomputeOutcome, error)
	SetGrade(ctx context.Context, enrollmentID string, grade float64) error
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ListGradedIDs(ctx context.Context) ([]string, error)
}

type recomputeObserver interface {
	ObserveRecompute(result string)
}

// SetGradeRequest records an administrative grade entry.
type SetGradeRequest struct {
	EnrollmentID string  `json:"enrollment_id" validate:"required"`
	Grade        float64 `json:"grade" validate:"min=0,max=100"`
}

type recomputeJob struct {
	EnrollmentID string
	CycleID      string
}

// GradeService recomputes grades from attendance statistics. A recompute
// pass is identified by a cycle ID; the repository stamps each enrollment
// with the cycle it was processed under, so a cycle touches every enrollment
// at most once and re-running it without new attendance is a no-op.
type GradeService struct {
	repo      gradeRepository
	queue     *jobs.Queue
	metrics   recomputeObserver
	validator *validator.Validate
	logger    *zap.Logger

	mu     sync.Mutex
	cycles map[string]*models.CycleSummary
}

// NewGradeService constructs GradeService with its recompute worker pool.
func NewGradeService(repo gradeRepository, queueCfg jobs.QueueConfig, metrics recomputeObserver, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &GradeService{
		repo:      repo,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cycles:    make(map[string]*models.CycleSummary),
	}
	queueCfg.Logger = logger
	svc.queue = jobs.NewQueue("grade-recompute", svc.handleRecomputeJob, queueCfg)
	return svc
}

// Start launches the recompute workers.
func (s *GradeService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the recompute workers.
func (s *GradeService) Stop() {
	s.queue.Stop()
}

// SetGrade records a grade for an enrollment, validated into [0,100].
func (s *GradeService) SetGrade(ctx context.Context, req SetGradeRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}
	if err := s.repo.SetGrade(ctx, req.EnrollmentID, req.Grade); err != nil {
		if isNoRows(err) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set grade")
	}
	enrollment, err := s.repo.FindByID(ctx, req.EnrollmentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return enrollment, nil
}

// Recompute applies the adjustment rule to a single enrollment. An empty
// cycleID mints a fresh single-use cycle, which makes the call standalone;
// passing the ID of a running cycle makes it part of that pass.
func (s *GradeService) Recompute(ctx context.Context, enrollmentID, cycleID string) (*models.RecomputeOutcome, error) {
	if enrollmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment required")
	}
	if cycleID == "" {
		cycleID = uuid.NewString()
	}
	outcome, err := s.repo.RecomputeGrade(ctx, enrollmentID, cycleID)
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.ObserveRecompute(string(outcome.Result))
	}
	return outcome, nil
}

// RunCycle starts a recompute pass over every graded, non-withdrawn
// enrollment. Work is distributed over the worker pool; the returned summary
// reflects what was enqueued, and CycleStatus reports progress.
func (s *GradeService) RunCycle(ctx context.Context) (*models.CycleSummary, error) {
	ids, err := s.repo.ListGradedIDs(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments for recompute")
	}

	cycleID := uuid.NewString()
	summary := &models.CycleSummary{CycleID: cycleID}
	s.mu.Lock()
	s.cycles[cycleID] = summary
	s.mu.Unlock()

	for _, id := range ids {
		job := jobs.Job{
			ID:      fmt.Sprintf("%s/%s", cycleID, id),
			Type:    "grade_recompute",
			Payload: recomputeJob{EnrollmentID: id, CycleID: cycleID},
		}
		if err := s.queue.Enqueue(job); err != nil {
			s.logger.Error("failed to enqueue recompute", zap.String("enrollment_id", id), zap.Error(err))
			s.record(cycleID, func(c *models.CycleSummary) { c.Failed++ })
			continue
		}
		s.record(cycleID, func(c *models.CycleSummary) { c.Enqueued++ })
	}

	s.logger.Info("recompute cycle started", zap.String("cycle_id", cycleID), zap.Int("enrollments", len(ids)))
	return s.snapshot(cycleID), nil
}

// CycleStatus returns the current counters of a recompute pass.
func (s *GradeService) CycleStatus(cycleID string) (*models.CycleSummary, error) {
	summary := s.snapshot(cycleID)
	if summary == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown recompute cycle")
	}
	return summary, nil
}

func (s *GradeService) handleRecomputeJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(recomputeJob)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	outcome, err := s.repo.RecomputeGrade(ctx, payload.EnrollmentID, payload.CycleID)
	if err != nil {
		s.record(payload.CycleID, func(c *models.CycleSummary) { c.Failed++ })
		return err
	}
	if s.metrics != nil {
		s.metrics.ObserveRecompute(string(outcome.Result))
	}
	s.record(payload.CycleID, func(c *models.CycleSummary) {
		switch outcome.Result {
		case models.RecomputeAdjusted:
			c.Adjusted++
		case models.RecomputeUnchanged:
			c.Unchanged++
		default:
			c.Skipped++
		}
	})
	return nil
}

func (s *GradeService) record(cycleID string, apply func(*models.CycleSummary)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if summary, ok := s.cycles[cycleID]; ok {
		apply(summary)
	}
}

func (s *GradeService) snapshot(cycleID string) *models.CycleSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	summary, ok := s.cycles[cycleID]
	if !ok {
		return nil
	}
	copied := *summary
	return &copied
}
