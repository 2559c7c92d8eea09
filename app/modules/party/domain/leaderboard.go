package partydomain

import (
	"cmp"
	"slices"
	"time"
)

// Standing is one active member's raw score.
type Standing struct {
	UserID        string
	DisplayName   string
	TotalPoints   int64
	CurrentStreak int
	JoinedAt      time.Time
}

// LeaderboardEntry is a ranked standing. Ranks are positional (1..n); Tied
// marks entries sharing their point total with a neighbor.
type LeaderboardEntry struct {
	Rank          int       `json:"rank"`
	UserID        string    `json:"user_id"`
	DisplayName   string    `json:"display_name"`
	TotalPoints   int64     `json:"total_points"`
	CurrentStreak int       `json:"current_streak"`
	Tied          bool      `json:"tied"`
	JoinedAt      time.Time `json:"joined_at"`
}

// RankLeaderboard orders by points desc, then join order, then user id.
func RankLeaderboard(standings []Standing) []LeaderboardEntry {
	sorted := slices.Clone(standings)
	slices.SortFunc(sorted, func(a, b Standing) int {
		if c := cmp.Compare(b.TotalPoints, a.TotalPoints); c != 0 {
			return c
		}
		if c := a.JoinedAt.Compare(b.JoinedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.UserID, b.UserID)
	})

	entries := make([]LeaderboardEntry, len(sorted))
	for i, s := range sorted {
		entries[i] = LeaderboardEntry{
			Rank:          i + 1,
			UserID:        s.UserID,
			DisplayName:   s.DisplayName,
			TotalPoints:   s.TotalPoints,
			CurrentStreak: s.CurrentStreak,
			JoinedAt:      s.JoinedAt,
		}
	}
	for i := range entries {
		if i > 0 && entries[i-1].TotalPoints == entries[i].TotalPoints {
			entries[i-1].Tied = true
			entries[i].Tied = true
		}
	}
	return entries
}

// Rival is a leaderboard neighbor and the point gap to them.
type Rival struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Rank        int    `json:"rank"`
	TotalPoints int64  `json:"total_points"`
	Gap         int64  `json:"gap"`
	Tied        bool   `json:"tied"`
}

// RivalryView is the caller's position with the members immediately around them.
type RivalryView struct {
	UserID      string `json:"user_id"`
	Rank        int    `json:"rank"`
	TotalPoints int64  `json:"total_points"`
	Ahead       *Rival `json:"ahead,omitempty"`
	Behind      *Rival `json:"behind,omitempty"`
}

// ComputeRivalry returns nil when userID is not on the leaderboard.
func ComputeRivalry(entries []LeaderboardEntry, userID string) *RivalryView {
	idx := slices.IndexFunc(entries, func(e LeaderboardEntry) bool { return e.UserID == userID })
	if idx < 0 {
		return nil
	}

	me := entries[idx]
	view := &RivalryView{UserID: me.UserID, Rank: me.Rank, TotalPoints: me.TotalPoints}
	if idx > 0 {
		view.Ahead = rivalOf(entries[idx-1], entries[idx-1].TotalPoints-me.TotalPoints)
	}
	if idx < len(entries)-1 {
		view.Behind = rivalOf(entries[idx+1], me.TotalPoints-entries[idx+1].TotalPoints)
	}
	return view
}

func rivalOf(e LeaderboardEntry, gap int64) *Rival {
	return &Rival{
		UserID:      e.UserID,
		DisplayName: e.DisplayName,
		Rank:        e.Rank,
		TotalPoints: e.TotalPoints,
		Gap:         gap,
		Tied:        gap == 0,
	}
}
