package models

import "time"

// OccupancyState is the derived Open/Full status of a course. It is never
// set directly by a client; enrollment mutations re-derive it.
type OccupancyState string

const (
	OccupancyOpen OccupancyState = "OPEN"
	OccupancyFull OccupancyState = "FULL"
)

// DeriveOccupancy computes the occupancy state from the current
// non-withdrawn enrollment count and the course capacity. Re-deriving an
// already correct state yields the same value, so callers may apply it
// unconditionally.
func DeriveOccupancy(activeCount, maxCapacity int) OccupancyState {
	if activeCount >= maxCapacity {
		return OccupancyFull
	}
	return OccupancyOpen
}

// Course represents a capacity-limited course offering.
type Course struct {
	ID             string         `db:"id" json:"id"`
	Code           string         `db:"code" json:"code"`
	Title          string         `db:"title" json:"title"`
	Credits        int            `db:"credits" json:"credits"`
	MaxCapacity    int            `db:"max_capacity" json:"max_capacity"`
	OccupancyState OccupancyState `db:"occupancy_state" json:"occupancy_state"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// CourseFilter narrows course listing queries.
type CourseFilter struct {
	Search    string
	State     OccupancyState
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
