package scoringdomain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type stageOnly Stage

func (s stageOnly) EventStage() Stage { return Stage(s) }

func stages(in ...Stage) []stageOnly {
	out := make([]stageOnly, len(in))
	for i, s := range in {
		out[i] = stageOnly(s)
	}
	return out
}

func TestResolveStatus(t *testing.T) {
	tests := []struct {
		name   string
		events []stageOnly
		want   Stage
	}{
		{name: "empty resolves to applied", events: nil, want: StageApplied},
		{name: "prospecting only", events: stages(StageProspecting), want: StageProspecting},
		{name: "interview beats later screening", events: stages(StageApplied, StageInterview, StageScreening), want: StageInterview},
		{name: "offer beats rejected", events: stages(StageRejected, StageOffer), want: StageOffer},
		{name: "rejected beats withdrawn", events: stages(StageWithdrawn, StageRejected), want: StageRejected},
		{name: "withdrawn beats interview", events: stages(StageInterview, StageWithdrawn), want: StageWithdrawn},
		{name: "unknown kinds ignored", events: stages(Stage("ghosted")), want: StageApplied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveStatus(tt.events))
		})
	}
}

// Every permutation of a sequence resolves identically.
func TestResolveStatus_OrderIndependent(t *testing.T) {
	base := stages(StageApplied, StageScreening, StageInterview, StageProspecting, StageWithdrawn)
	want := ResolveStatus(base)

	permute(base, 0, func(p []stageOnly) {
		assert.Equal(t, want, ResolveStatus(p))
	})
}

// Adding anything of lower precedence than the current maximum never changes status.
func TestResolveStatus_NeverRegresses(t *testing.T) {
	for _, top := range AllStages() {
		events := stages(StageApplied, top)
		current := ResolveStatus(events)
		for _, extra := range AllStages() {
			if extra.Precedence() >= current.Precedence() {
				continue
			}
			assert.Equal(t, current, ResolveStatus(append(events, stageOnly(extra))),
				"adding %s after %s", extra, top)
		}
	}
}

func permute(s []stageOnly, k int, visit func([]stageOnly)) {
	if k == len(s) {
		cp := make([]stageOnly, len(s))
		copy(cp, s)
		visit(cp)
		return
	}
	for i := k; i < len(s); i++ {
		s[k], s[i] = s[i], s[k]
		permute(s, k+1, visit)
		s[k], s[i] = s[i], s[k]
	}
}
