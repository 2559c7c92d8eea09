package partydomain

import (
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankLeaderboard(t *testing.T) {
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	standings := []Standing{
		{UserID: "c", TotalPoints: 25, JoinedAt: joined.Add(2 * time.Hour)},
		{UserID: "a", TotalPoints: 40, JoinedAt: joined},
		{UserID: "b", TotalPoints: 25, JoinedAt: joined.Add(time.Hour)},
	}

	got := RankLeaderboard(standings)

	want := []LeaderboardEntry{
		{Rank: 1, UserID: "a", TotalPoints: 40, JoinedAt: joined},
		{Rank: 2, UserID: "b", TotalPoints: 25, Tied: true, JoinedAt: joined.Add(time.Hour)},
		{Rank: 3, UserID: "c", TotalPoints: 25, Tied: true, JoinedAt: joined.Add(2 * time.Hour)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("RankLeaderboard() mismatch (-want +got):\n%s", diff)
	}
}

func TestRankLeaderboard_DeterministicTies(t *testing.T) {
	joined := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var standings []Standing
	for i := 0; i < 12; i++ {
		standings = append(standings, Standing{
			UserID:      gofakeit.UUID(),
			TotalPoints: int64(gofakeit.IntRange(0, 3)),
			JoinedAt:    joined.Add(time.Duration(gofakeit.IntRange(0, 2)) * time.Hour),
		})
	}

	first := RankLeaderboard(standings)
	for i := 0; i < 10; i++ {
		shuffled := make([]Standing, len(standings))
		copy(shuffled, standings)
		gofakeit.ShuffleAnySlice(shuffled)
		if diff := cmp.Diff(first, RankLeaderboard(shuffled)); diff != "" {
			t.Fatalf("ranking depends on input order (-first +got):\n%s", diff)
		}
	}
}

func TestComputeRivalry(t *testing.T) {
	entries := RankLeaderboard([]Standing{
		{UserID: "a", TotalPoints: 40},
		{UserID: "b", TotalPoints: 25, JoinedAt: time.Unix(1, 0)},
		{UserID: "c", TotalPoints: 25, JoinedAt: time.Unix(2, 0)},
	})

	t.Run("middle member sees both neighbors", func(t *testing.T) {
		view := ComputeRivalry(entries, "b")
		require.NotNil(t, view)
		assert.Equal(t, 2, view.Rank)

		require.NotNil(t, view.Ahead)
		assert.Equal(t, 1, view.Ahead.Rank)
		assert.Equal(t, int64(15), view.Ahead.Gap)
		assert.False(t, view.Ahead.Tied)

		require.NotNil(t, view.Behind)
		assert.Equal(t, 3, view.Behind.Rank)
		assert.Equal(t, int64(0), view.Behind.Gap)
		assert.True(t, view.Behind.Tied)
	})

	t.Run("leader has nobody ahead", func(t *testing.T) {
		view := ComputeRivalry(entries, "a")
		require.NotNil(t, view)
		assert.Nil(t, view.Ahead)
		assert.Equal(t, "b", view.Behind.UserID)
	})

	t.Run("last has nobody behind", func(t *testing.T) {
		view := ComputeRivalry(entries, "c")
		require.NotNil(t, view)
		assert.Nil(t, view.Behind)
	})

	t.Run("non member", func(t *testing.T) {
		assert.Nil(t, ComputeRivalry(entries, "zed"))
	})
}
