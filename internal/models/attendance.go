package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "PRESENT"
	AttendanceStatusAbsent  AttendanceStatus = "ABSENT"
	AttendanceStatusLate    AttendanceStatus = "LATE"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendanceStatusPresent, AttendanceStatusAbsent, AttendanceStatusLate:
		return true
	default:
		return false
	}
}

// AttendanceRecord is a single append-only attendance event for a
// (student, course) pair.
type AttendanceRecord struct {
	ID        string           `db:"id" json:"id"`
	StudentID string           `db:"student_id" json:"student_id"`
	CourseID  string           `db:"course_id" json:"course_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
	Remarks   *string          `db:"remarks" json:"remarks,omitempty"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// AttendanceStats is derived from the attendance records of a
// (student, course) pair. Never persisted; recomputed on every read.
// Percentage is nil when no records exist so callers can distinguish
// "no data" from 0%.
type AttendanceStats struct {
	StudentID  string   `json:"student_id"`
	CourseID   string   `json:"course_id"`
	Present    int      `json:"present"`
	Absent     int      `json:"absent"`
	Late       int      `json:"late"`
	Total      int      `json:"total"`
	Percentage *float64 `json:"percentage"`
}

// NewAttendanceStats assembles stats from raw counts, deriving the total and
// the present percentage.
func NewAttendanceStats(studentID, courseID string, present, absent, late int) *AttendanceStats {
	stats := &AttendanceStats{
		StudentID: studentID,
		CourseID:  courseID,
		Present:   present,
		Absent:    absent,
		Late:      late,
		Total:     present + absent + late,
	}
	if stats.Total > 0 {
		pct := float64(stats.Present) / float64(stats.Total) * 100
		stats.Percentage = &pct
	}
	return stats
}

// AttendanceFilter scopes attendance history queries.
type AttendanceFilter struct {
	StudentID string
	CourseID  string
	Status    *AttendanceStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
