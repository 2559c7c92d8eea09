package scoringdomain

// DefaultRejectedPoints is the award for a rejected event. Historical call
// sites disagreed (2 vs 5); this constant is the only place the value lives.
// Deployments override it with scoring.rejected_points.
const DefaultRejectedPoints = 2

// Rules is the single scoring table. Nothing else may hard-code point values.
type Rules struct {
	RejectedPoints int
}

// DefaultRules returns the table with DefaultRejectedPoints.
func DefaultRules() Rules {
	return Rules{RejectedPoints: DefaultRejectedPoints}
}

// NewRules applies an optional rejected-points override.
func NewRules(rejectedOverride *int) Rules {
	r := DefaultRules()
	if rejectedOverride != nil {
		r.RejectedPoints = *rejectedOverride
	}
	return r
}

// PointsForEvent returns the award for a single event. The interview round is
// display-only and never changes the award. Unknown kinds are worth 0.
func (r Rules) PointsForEvent(kind Stage, _ *int) int {
	switch kind {
	case StageApplied:
		return 1
	case StageScreening:
		return 2
	case StageInterview:
		return 5
	case StageOffer:
		return 10
	case StageRejected:
		return r.RejectedPoints
	default:
		return 0
	}
}

// PointsForStatus returns what an application at status is worth. Every
// application past prospecting carries the applied baseline plus the award of
// the stage it reached.
func (r Rules) PointsForStatus(status Stage) int {
	switch status {
	case StageApplied:
		return r.PointsForEvent(StageApplied, nil)
	case StageScreening, StageInterview, StageOffer, StageRejected, StageWithdrawn:
		return r.PointsForEvent(StageApplied, nil) + r.PointsForEvent(status, nil)
	default:
		return 0
	}
}
