package scoringdomain

import (
	"strings"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
)

// Stage is both a timeline event kind and a derived application status.
type Stage string

const (
	StageProspecting Stage = "prospecting"
	StageApplied     Stage = "applied"
	StageScreening   Stage = "screening"
	StageInterview   Stage = "interview"
	StageOffer       Stage = "offer"
	StageRejected    Stage = "rejected"
	StageWithdrawn   Stage = "withdrawn"
)

// precedence ranks stages for status resolution, highest wins.
var precedence = map[Stage]int{
	StageProspecting: 0,
	StageApplied:     1,
	StageScreening:   2,
	StageInterview:   3,
	StageWithdrawn:   4,
	StageRejected:    5,
	StageOffer:       6,
}

// AllStages lists every stage in ascending precedence.
func AllStages() []Stage {
	return []Stage{
		StageProspecting,
		StageApplied,
		StageScreening,
		StageInterview,
		StageWithdrawn,
		StageRejected,
		StageOffer,
	}
}

// Precedence returns the stage rank, or -1 for unknown stages.
func (s Stage) Precedence() int {
	p, ok := precedence[s]
	if !ok {
		return -1
	}
	return p
}

// Valid reports whether s is a known stage.
func (s Stage) Valid() bool {
	_, ok := precedence[s]
	return ok
}

func (s Stage) String() string { return string(s) }

// ParseStage normalizes user input into a Stage.
func ParseStage(raw string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", apperrors.Invalid("kind", "unknown stage %q", raw)
	}
	return s, nil
}
