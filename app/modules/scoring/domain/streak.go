package scoringdomain

import "time"

const (
	streakHold  = 24 * time.Hour
	streakBreak = 48 * time.Hour
)

// StreakState is the persisted per-user streak.
type StreakState struct {
	Current        int
	Longest        int
	LastActivityAt *time.Time
}

// StreakUpdate describes the transition taken by AdvanceStreak.
type StreakUpdate struct {
	CurrentStreak  int
	LongestStreak  int
	PreviousStreak int
	Incremented    bool
	Broken         bool
}

// AdvanceStreak applies one qualifying action at `at`.
//
//	no prior activity   -> 1
//	gap < 24h           -> unchanged
//	24h <= gap < 48h    -> +1
//	gap >= 48h          -> reset to 1, longest kept
//
// LastActivityAt always moves to `at`.
func AdvanceStreak(state StreakState, at time.Time) (StreakState, StreakUpdate) {
	at = at.UTC()
	next := state
	update := StreakUpdate{PreviousStreak: state.Current}

	switch {
	case state.LastActivityAt == nil:
		next.Current = 1
		update.Incremented = true
	default:
		gap := at.Sub(state.LastActivityAt.UTC())
		switch {
		case gap < streakHold:
			if next.Current == 0 {
				next.Current = 1
				update.Incremented = true
			}
		case gap < streakBreak:
			next.Current++
			update.Incremented = true
		default:
			next.Current = 1
			update.Broken = true
		}
	}

	if next.Current > next.Longest {
		next.Longest = next.Current
	}
	next.LastActivityAt = &at

	update.CurrentStreak = next.Current
	update.LongestStreak = next.Longest
	return next, update
}
