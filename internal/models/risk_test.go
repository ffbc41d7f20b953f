package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyRisk(t *testing.T) {
	tests := []struct {
		name       string
		grade      float64
		attendance float64
		want       RiskLevel
	}{
		{"both low is critical", 59, 70, RiskCritical},
		{"low grade alone is warning", 65, 85, RiskWarning},
		{"low attendance alone is warning", 80, 78, RiskWarning},
		{"healthy is good", 80, 95, RiskGood},
		{"grade at critical boundary is warning", 60, 74, RiskWarning},
		{"attendance at critical boundary is warning", 59, 75, RiskWarning},
		{"grade boundary is good side", 70, 80, RiskGood},
		{"just under warning grade", 69.9, 95, RiskWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyRisk(tt.grade, tt.attendance))
		})
	}
}
