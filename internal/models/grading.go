package models

// Grade bounds. All stored grades stay within this range.
const (
	GradeMin = 0.0
	GradeMax = 100.0
)

// Attendance thresholds for the grade adjustment rule.
const (
	attendanceBonusThreshold   = 90.0
	attendancePenaltyThreshold = 75.0
	gradeBonus                 = 5.0
	gradePenalty               = 10.0
)

// ClampGrade forces a grade into the [0,100] range.
func ClampGrade(grade float64) float64 {
	if grade < GradeMin {
		return GradeMin
	}
	if grade > GradeMax {
		return GradeMax
	}
	return grade
}

// AdjustGrade applies the attendance-based adjustment rule to a grade and
// clamps the result: +5 at 90% attendance or better, -10 below 75%,
// unchanged otherwise.
func AdjustGrade(grade, attendancePercentage float64) float64 {
	switch {
	case attendancePercentage >= attendanceBonusThreshold:
		return ClampGrade(grade + gradeBonus)
	case attendancePercentage < attendancePenaltyThreshold:
		return ClampGrade(grade - gradePenalty)
	default:
		return ClampGrade(grade)
	}
}

// RecomputeResult describes the outcome of a single grade recompute.
type RecomputeResult string

const (
	RecomputeAdjusted  RecomputeResult = "ADJUSTED"
	RecomputeUnchanged RecomputeResult = "UNCHANGED"
	RecomputeNoOp      RecomputeResult = "NOOP"
)

// RecomputeOutcome reports what a recompute did for one enrollment.
type RecomputeOutcome struct {
	EnrollmentID string          `json:"enrollment_id"`
	CycleID      string          `json:"cycle_id"`
	Result       RecomputeResult `json:"result"`
	OldGrade     *float64        `json:"old_grade,omitempty"`
	NewGrade     *float64        `json:"new_grade,omitempty"`
}

// CycleSummary aggregates a full recompute pass.
type CycleSummary struct {
	CycleID   string `json:"cycle_id"`
	Enqueued  int    `json:"enqueued"`
	Adjusted  int    `json:"adjusted"`
	Unchanged int    `json:"unchanged"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}
