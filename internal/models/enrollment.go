package models

import "time"

// EnrollmentStatus represents the lifecycle of an enrollment.
type EnrollmentStatus string

// Possible enrollment statuses.
const (
	EnrollmentStatusEnrolled  EnrollmentStatus = "ENROLLED"
	EnrollmentStatusCompleted EnrollmentStatus = "COMPLETED"
	EnrollmentStatusWithdrawn EnrollmentStatus = "WITHDRAWN"
)

// Valid returns true when the status is a supported value.
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentStatusEnrolled, EnrollmentStatusCompleted, EnrollmentStatusWithdrawn:
		return true
	default:
		return false
	}
}

// Active reports whether the enrollment counts against course capacity.
func (s EnrollmentStatus) Active() bool {
	return s != EnrollmentStatusWithdrawn
}

// Enrollment links one student to one course. At most one non-withdrawn
// enrollment exists per (student, course) pair.
type Enrollment struct {
	ID                 string           `db:"id" json:"id"`
	StudentID          string           `db:"student_id" json:"student_id"`
	CourseID           string           `db:"course_id" json:"course_id"`
	EnrolledAt         time.Time        `db:"enrolled_at" json:"enrolled_at"`
	Grade              *float64         `db:"grade" json:"grade,omitempty"`
	Status             EnrollmentStatus `db:"status" json:"status"`
	LastRecomputeCycle *string          `db:"last_recompute_cycle" json:"-"`
	WithdrawnAt        *time.Time       `db:"withdrawn_at" json:"withdrawn_at,omitempty"`
}

// EnrollmentDetail enriches Enrollment with student and course info.
type EnrollmentDetail struct {
	Enrollment
	StudentName string `db:"student_name" json:"student_name"`
	CourseCode  string `db:"course_code" json:"course_code"`
	CourseTitle string `db:"course_title" json:"course_title"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID string
	CourseID  string
	Status    EnrollmentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
