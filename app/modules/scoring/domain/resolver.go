package scoringdomain

// Staged is implemented by anything that records a stage, such as a timeline event.
type Staged interface {
	EventStage() Stage
}

// ResolveStatus returns the highest-precedence stage ever reached. The scan is
// order independent, so a later low-stage event never regresses status. An
// empty set resolves to applied because every application starts there.
func ResolveStatus[E Staged](events []E) Stage {
	best := Stage("")
	bestRank := -1
	for _, e := range events {
		s := e.EventStage()
		if rank := s.Precedence(); rank > bestRank {
			best, bestRank = s, rank
		}
	}
	if bestRank < 0 {
		return StageApplied
	}
	return best
}
