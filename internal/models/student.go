package models

import "time"

// StudentStatus represents a student's administrative standing.
type StudentStatus string

const (
	StudentStatusActive    StudentStatus = "ACTIVE"
	StudentStatusInactive  StudentStatus = "INACTIVE"
	StudentStatusSuspended StudentStatus = "SUSPENDED"
)

// Valid returns true when the status is a supported value.
func (s StudentStatus) Valid() bool {
	switch s {
	case StudentStatusActive, StudentStatusInactive, StudentStatusSuspended:
		return true
	default:
		return false
	}
}

// Student represents a learner registered in the institution. Only active
// students may be newly admitted to a course.
type Student struct {
	ID        string        `db:"id" json:"id"`
	FullName  string        `db:"full_name" json:"full_name"`
	Email     string        `db:"email" json:"email"`
	BirthDate time.Time     `db:"birth_date" json:"birth_date"`
	Phone     *string       `db:"phone" json:"phone,omitempty"`
	Address   *string       `db:"address" json:"address,omitempty"`
	Status    StudentStatus `db:"status" json:"status"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	Status    StudentStatus
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
