package models

import "time"

// RiskLevel labels a (student, course) pair's academic standing.
type RiskLevel string

const (
	RiskGood     RiskLevel = "GOOD"
	RiskWarning  RiskLevel = "WARNING"
	RiskCritical RiskLevel = "CRITICAL"
)

// ClassifyRisk maps grade and attendance percentage to a risk level. Total
// over its inputs, evaluated critical-first so the precedence is fixed:
// critical when both grade and attendance are low, warning when either is
// below its own threshold, good otherwise.
func ClassifyRisk(grade, attendancePercentage float64) RiskLevel {
	if grade < 60 && attendancePercentage < 75 {
		return RiskCritical
	}
	if grade < 70 || attendancePercentage < 80 {
		return RiskWarning
	}
	return RiskGood
}

// AcademicStanding combines grade, attendance stats and risk for one
// (student, course) pair. Risk is nil when there is no grade or no
// attendance history to classify against.
type AcademicStanding struct {
	StudentID   string          `json:"student_id"`
	StudentName string          `json:"student_name"`
	CourseID    string          `json:"course_id"`
	CourseCode  string          `json:"course_code"`
	Grade       *float64        `json:"grade"`
	Attendance  AttendanceStats `json:"attendance"`
	Risk        *RiskLevel      `json:"risk"`
	GeneratedAt time.Time       `json:"generated_at"`
}
