package models

import "time"

// ArchivedStudent is the immutable snapshot of a student taken immediately
// before removal, stamped with when and by whom the removal was performed.
type ArchivedStudent struct {
	ID         string        `db:"id" json:"id"`
	StudentID  string        `db:"student_id" json:"student_id"`
	FullName   string        `db:"full_name" json:"full_name"`
	Email      string        `db:"email" json:"email"`
	BirthDate  time.Time     `db:"birth_date" json:"birth_date"`
	Phone      *string       `db:"phone" json:"phone,omitempty"`
	Address    *string       `db:"address" json:"address,omitempty"`
	Status     StudentStatus `db:"status" json:"status"`
	ArchivedAt time.Time     `db:"archived_at" json:"archived_at"`
	ArchivedBy string        `db:"archived_by" json:"archived_by"`
}

// ArchivedAttendance is the immutable snapshot of one attendance record.
type ArchivedAttendance struct {
	ID         string           `db:"id" json:"id"`
	StudentID  string           `db:"student_id" json:"student_id"`
	CourseID   string           `db:"course_id" json:"course_id"`
	Date       time.Time        `db:"date" json:"date"`
	Status     AttendanceStatus `db:"status" json:"status"`
	Remarks    *string          `db:"remarks" json:"remarks,omitempty"`
	ArchivedAt time.Time        `db:"archived_at" json:"archived_at"`
	ArchivedBy string           `db:"archived_by" json:"archived_by"`
}

// RemovalReceipt confirms a completed student removal.
type RemovalReceipt struct {
	StudentID         string    `json:"student_id"`
	ArchiveID         string    `json:"archive_id"`
	AttendanceRecords int       `json:"attendance_records"`
	RemovedAt         time.Time `json:"removed_at"`
	RemovedBy         string    `json:"removed_by"`
}
