package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveOccupancy(t *testing.T) {
	assert.Equal(t, OccupancyOpen, DeriveOccupancy(0, 30))
	assert.Equal(t, OccupancyOpen, DeriveOccupancy(29, 30))
	assert.Equal(t, OccupancyFull, DeriveOccupancy(30, 30))
	// An over-capacity count can only come from bad data, still reads FULL.
	assert.Equal(t, OccupancyFull, DeriveOccupancy(31, 30))
	assert.Equal(t, OccupancyFull, DeriveOccupancy(0, 0))
}
