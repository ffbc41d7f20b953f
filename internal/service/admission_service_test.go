package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academic-core-api/internal/models"
	"github.com/noah-isme/academic-core-api/internal/repository"
	appErrors "github.com/noah-isme/academic-core-api/pkg/errors"
)

// mockAdmitter reproduces the repository's admission semantics in memory:
// one lock per course, capacity check and duplicate check under that lock.
type mockAdmitter struct {
	mu          sync.Mutex
	capacity    int
	enrolled    map[string]models.Enrollment
	byPair      map[string]string
	inactive    map[string]bool
	lockTimeout time.Duration
}

func newMockAdmitter(capacity int) *mockAdmitter {
	return &mockAdmitter{
		capacity: capacity,
		enrolled: make(map[string]models.Enrollment),
		byPair:   make(map[string]string),
		inactive: make(map[string]bool),
	}
}

func (m *mockAdmitter) Admit(ctx context.Context, params repository.AdmitParams) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.lockTimeout = params.LockTimeout
	if m.inactive[params.StudentID] {
		return nil, appErrors.ErrIneligibleStudent
	}
	pair := params.StudentID + "|" + params.CourseCode
	if _, dup := m.byPair[pair]; dup {
		return nil, appErrors.ErrDuplicateEnrollment
	}
	if len(m.byPair) >= m.capacity {
		return nil, appErrors.ErrCourseFull
	}

	enrollment := models.Enrollment{
		ID:         "enroll-" + params.StudentID,
		StudentID:  params.StudentID,
		CourseID:   "course-1",
		EnrolledAt: time.Now().UTC(),
		Status:     models.EnrollmentStatusEnrolled,
	}
	m.enrolled[enrollment.ID] = enrollment
	m.byPair[pair] = enrollment.ID
	return &enrollment, nil
}

func (m *mockAdmitter) Withdraw(ctx context.Context, enrollmentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrolled[enrollmentID]
	if !ok {
		return appErrors.ErrNotFound
	}
	e.Status = models.EnrollmentStatusWithdrawn
	m.enrolled[enrollmentID] = e
	return nil
}

func (m *mockAdmitter) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrolled[id]; ok {
		return &e, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockAdmitter) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrolled[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e, CourseCode: "CS101"}, nil
	}
	return nil, appErrors.ErrNotFound
}

func (m *mockAdmitter) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	return nil, 0, nil
}

type recordingAdmissionObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (r *recordingAdmissionObserver) ObserveAdmission(outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, outcome)
}

func TestAdmissionServiceEnroll(t *testing.T) {
	repo := newMockAdmitter(30)
	observer := &recordingAdmissionObserver{}
	svc := NewAdmissionService(repo, 3*time.Second, observer, nil, nil)

	detail, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-1", CourseCode: "CS101"})
	require.NoError(t, err)
	assert.Equal(t, "student-1", detail.StudentID)
	assert.Equal(t, models.EnrollmentStatusEnrolled, detail.Status)
	assert.Equal(t, 3*time.Second, repo.lockTimeout)
	assert.Equal(t, []string{"enrolled"}, observer.outcomes)
}

func TestAdmissionServiceEnrollValidation(t *testing.T) {
	svc := NewAdmissionService(newMockAdmitter(30), time.Second, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestAdmissionServiceEnrollRejections(t *testing.T) {
	repo := newMockAdmitter(1)
	repo.inactive["student-3"] = true
	svc := NewAdmissionService(repo, time.Second, nil, nil, nil)

	_, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-1", CourseCode: "CS101"})
	require.NoError(t, err)

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-1", CourseCode: "CS101"})
	assert.True(t, errors.Is(err, appErrors.ErrDuplicateEnrollment))

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-2", CourseCode: "CS101"})
	assert.True(t, errors.Is(err, appErrors.ErrCourseFull))

	_, err = svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-3", CourseCode: "CS101"})
	assert.True(t, errors.Is(err, appErrors.ErrIneligibleStudent))
}

func TestAdmissionServiceConcurrentLastSeat(t *testing.T) {
	repo := newMockAdmitter(1)
	svc := NewAdmissionService(repo, time.Second, nil, nil, nil)

	const contenders = 16
	var wg sync.WaitGroup
	results := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.Enroll(context.Background(), EnrollRequest{
				StudentID:  "student-" + string(rune('a'+n)),
				CourseCode: "CS101",
			})
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var admitted, full int
	for err := range results {
		switch {
		case err == nil:
			admitted++
		case errors.Is(err, appErrors.ErrCourseFull):
			full++
		default:
			t.Fatalf("unexpected admission error: %v", err)
		}
	}
	assert.Equal(t, 1, admitted)
	assert.Equal(t, contenders-1, full)
}

func TestAdmissionServiceWithdraw(t *testing.T) {
	repo := newMockAdmitter(30)
	svc := NewAdmissionService(repo, time.Second, nil, nil, nil)

	detail, err := svc.Enroll(context.Background(), EnrollRequest{StudentID: "student-1", CourseCode: "CS101"})
	require.NoError(t, err)

	withdrawn, err := svc.Withdraw(context.Background(), detail.ID)
	require.NoError(t, err)
	assert.Equal(t, models.EnrollmentStatusWithdrawn, withdrawn.Status)
}
