package scoringdomain

import (
	"testing"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_PointsForEvent(t *testing.T) {
	rules := DefaultRules()
	round := 3

	tests := []struct {
		kind  Stage
		round *int
		want  int
	}{
		{StageProspecting, nil, 0},
		{StageApplied, nil, 1},
		{StageScreening, nil, 2},
		{StageInterview, nil, 5},
		{StageInterview, &round, 5},
		{StageOffer, nil, 10},
		{StageRejected, nil, DefaultRejectedPoints},
		{StageWithdrawn, nil, 0},
		{Stage("ghosted"), nil, 0},
		{Stage(""), nil, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.Equal(t, tt.want, rules.PointsForEvent(tt.kind, tt.round))
		})
	}
}

func TestRules_PointsForStatus(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, 0, rules.PointsForStatus(StageProspecting))
	assert.Equal(t, 1, rules.PointsForStatus(StageApplied))
	assert.Equal(t, 3, rules.PointsForStatus(StageScreening))
	assert.Equal(t, 6, rules.PointsForStatus(StageInterview))
	assert.Equal(t, 11, rules.PointsForStatus(StageOffer))
	assert.Equal(t, 1+DefaultRejectedPoints, rules.PointsForStatus(StageRejected))
	assert.Equal(t, 1, rules.PointsForStatus(StageWithdrawn))
	assert.Equal(t, 0, rules.PointsForStatus(Stage("unknown")))
}

func TestNewRules_RejectedOverride(t *testing.T) {
	five := 5
	rules := NewRules(&five)

	assert.Equal(t, 5, rules.PointsForEvent(StageRejected, nil))
	assert.Equal(t, 6, rules.PointsForStatus(StageRejected))
	assert.Equal(t, DefaultRejectedPoints, NewRules(nil).RejectedPoints)
}

func TestParseStage(t *testing.T) {
	s, err := ParseStage("  Interview ")
	require.NoError(t, err)
	assert.Equal(t, StageInterview, s)

	_, err = ParseStage("ghosted")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}
