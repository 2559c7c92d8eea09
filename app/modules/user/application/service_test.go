package userservice

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

func newTestService(repo userdb.Repository) *UserService {
	return NewUserService(repo, slog.Default(), nil, noop.NewTracerProvider().Tracer("test"), nil, nil)
}

func TestUserService_ApplyDelta(t *testing.T) {
	userID := gofakeit.UUID()

	tests := []struct {
		name          string
		delta         int
		setupRepo     func(*FakeRepository)
		wantErr       error
		wantResult    *LedgerResult
		expectedTrace []string
	}{
		{
			name:          "zero delta writes nothing",
			delta:         0,
			wantResult:    &LedgerResult{},
			expectedTrace: []string{},
		},
		{
			name:  "positive delta updates total and history",
			delta: 5,
			setupRepo: func(f *FakeRepository) {
				f.AddPointsFunc = func(_ context.Context, _ bun.IDB, id string, delta int) (int64, error) {
					assert.Equal(t, userID, id)
					assert.Equal(t, 5, delta)
					return 6, nil
				}
				f.InsertPointHistoryFunc = func(_ context.Context, _ bun.IDB, entry *userdb.PointHistory) error {
					assert.Equal(t, int64(6), entry.TotalAfter)
					assert.Equal(t, "timeline_event_recorded", entry.Reason)
					return nil
				}
			},
			wantResult:    &LedgerResult{Delta: 5, TotalPoints: 6, Applied: true},
			expectedTrace: []string{"AddPoints", "InsertPointHistory"},
		},
		{
			name:  "negative delta",
			delta: -5,
			setupRepo: func(f *FakeRepository) {
				f.AddPointsFunc = func(context.Context, bun.IDB, string, int) (int64, error) { return 1, nil }
			},
			wantResult:    &LedgerResult{Delta: -5, TotalPoints: 1, Applied: true},
			expectedTrace: []string{"AddPoints", "InsertPointHistory"},
		},
		{
			name:          "missing user is a consistency fault",
			delta:         1,
			wantErr:       apperrors.ErrConsistencyFault,
			expectedTrace: []string{"AddPoints"},
		},
		{
			name:  "history write failure is a consistency fault",
			delta: 1,
			setupRepo: func(f *FakeRepository) {
				f.AddPointsFunc = func(context.Context, bun.IDB, string, int) (int64, error) { return 1, nil }
				f.InsertPointHistoryFunc = func(context.Context, bun.IDB, *userdb.PointHistory) error {
					return errors.New("disk full")
				}
			},
			wantErr:       apperrors.ErrConsistencyFault,
			expectedTrace: []string{"AddPoints", "InsertPointHistory"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			if tt.setupRepo != nil {
				tt.setupRepo(repo)
			}
			svc := newTestService(repo)

			got, err := svc.ApplyDelta(context.Background(), nil, PointChange{
				UserID: userID,
				Delta:  tt.delta,
				Reason: "timeline_event_recorded",
			})

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantResult, got)
			}
			assert.Equal(t, tt.expectedTrace, repo.Trace())
		})
	}
}

func TestUserService_UpdateStreak(t *testing.T) {
	last := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("increments within window", func(t *testing.T) {
		repo := NewFakeRepository()
		repo.GetUserForUpdateFunc = func(_ context.Context, _ bun.IDB, id string) (*userdb.User, error) {
			return &userdb.User{UserID: id, CurrentStreak: 2, LongestStreak: 2, LastActivityAt: &last}, nil
		}
		var saved struct {
			current, longest int
			at               time.Time
		}
		repo.UpdateStreakFunc = func(_ context.Context, _ bun.IDB, _ string, current, longest int, at time.Time) error {
			saved.current, saved.longest, saved.at = current, longest, at
			return nil
		}

		at := last.Add(30 * time.Hour)
		res, err := newTestService(repo).UpdateStreak(context.Background(), nil, "u1", at)
		require.NoError(t, err)

		assert.Equal(t, &StreakResult{CurrentStreak: 3, LongestStreak: 3, PreviousStreak: 2, Incremented: true}, res)
		assert.Equal(t, 3, saved.current)
		assert.Equal(t, 3, saved.longest)
		assert.True(t, saved.at.Equal(at))
		assert.Equal(t, []string{"GetUserForUpdate", "UpdateStreak"}, repo.Trace())
	})

	t.Run("missing user is a consistency fault", func(t *testing.T) {
		repo := NewFakeRepository()
		_, err := newTestService(repo).UpdateStreak(context.Background(), nil, "ghost", last)
		assert.ErrorIs(t, err, apperrors.ErrConsistencyFault)
		assert.Equal(t, []string{"GetUserForUpdate"}, repo.Trace())
	})

	t.Run("infrastructure error is not a fault", func(t *testing.T) {
		repo := NewFakeRepository()
		repo.GetUserForUpdateFunc = func(context.Context, bun.IDB, string) (*userdb.User, error) {
			return nil, errors.New("connection reset")
		}
		_, err := newTestService(repo).UpdateStreak(context.Background(), nil, "u1", last)
		require.Error(t, err)
		assert.NotErrorIs(t, err, apperrors.ErrConsistencyFault)
	})
}

func TestUserService_UpsertProfile(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantErr   error
		wantName  string
		wantTrace []string
	}{
		{name: "trims and saves", input: "  Avery  ", wantName: "Avery", wantTrace: []string{"UpsertProfile"}},
		{name: "blank", input: "   ", wantErr: apperrors.ErrValidation, wantTrace: []string{}},
		{name: "too long", input: strings.Repeat("x", maxDisplayNameLength+1), wantErr: apperrors.ErrValidation, wantTrace: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := NewFakeRepository()
			got, err := newTestService(repo).UpsertProfile(context.Background(), "u1", tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantName, got.DisplayName)
			}
			assert.Equal(t, tt.wantTrace, repo.Trace())
		})
	}
}

func TestUserService_GetProfile(t *testing.T) {
	repo := NewFakeRepository()
	svc := newTestService(repo)

	_, err := svc.GetProfile(context.Background(), "nobody")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	repo.GetUserFunc = func(_ context.Context, _ bun.IDB, id string) (*userdb.User, error) {
		return &userdb.User{UserID: id, DisplayName: "Avery", TotalPoints: 42, CurrentStreak: 3, LongestStreak: 9}, nil
	}
	profile, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, &Profile{UserID: "u1", DisplayName: "Avery", TotalPoints: 42, CurrentStreak: 3, LongestStreak: 9}, profile)
}

var pngMagic = []byte{0x89, 'P', 'N', 'G'}

func TestGeneratePointsChart(t *testing.T) {
	t.Run("placeholder when empty", func(t *testing.T) {
		png, err := GeneratePointsChart(nil, DefaultPalette)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngMagic))
	})

	t.Run("single entry", func(t *testing.T) {
		png, err := GeneratePointsChart([]userdb.PointHistory{
			{Delta: 1, TotalAfter: 1, CreatedAt: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		}, DefaultPalette)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngMagic))
	})

	t.Run("series", func(t *testing.T) {
		start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
		history := []userdb.PointHistory{
			{Delta: 1, TotalAfter: 1, CreatedAt: start},
			{Delta: 5, TotalAfter: 6, CreatedAt: start.Add(24 * time.Hour)},
			{Delta: -5, TotalAfter: 1, CreatedAt: start.Add(48 * time.Hour)},
		}
		png, err := GeneratePointsChart(history, DefaultPalette)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(png, pngMagic))
	})
}

func TestUserService_EnsureUser(t *testing.T) {
	repo := NewFakeRepository()
	var gotName string
	repo.EnsureUserFunc = func(_ context.Context, _ bun.IDB, _ string, name string) error {
		gotName = name
		return nil
	}

	require.NoError(t, newTestService(repo).EnsureUser(context.Background(), nil, "u1", "  "+strings.Repeat("a", 60)))
	assert.Equal(t, strings.Repeat("a", maxDisplayNameLength), gotName)
	assert.Equal(t, []string{"EnsureUser"}, repo.Trace())
}
