package scoringdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMilestoneFor(t *testing.T) {
	tests := []struct {
		count     int
		wantLabel string
		wantOK    bool
	}{
		{count: 1},
		{count: 9},
		{count: 10, wantLabel: "10 applications logged", wantOK: true},
		{count: 11},
		{count: 25, wantLabel: "25 applications logged", wantOK: true},
		{count: 50, wantLabel: "50 applications logged", wantOK: true},
		{count: 100, wantLabel: "100 applications logged", wantOK: true},
		{count: 101},
	}

	for _, tt := range tests {
		label, ok := MilestoneFor(tt.count)
		assert.Equal(t, tt.wantOK, ok, "count %d", tt.count)
		assert.Equal(t, tt.wantLabel, label, "count %d", tt.count)
	}
}
