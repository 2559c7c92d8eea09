package applicationdomain

import (
	"testing"
	"time"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurredParser_Parse(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 30, 0, 0, time.UTC)
	p := NewOccurredParser()

	tests := []struct {
		name  string
		input string
		check func(t *testing.T, got time.Time)
	}{
		{
			name:  "empty means now",
			input: "  ",
			check: func(t *testing.T, got time.Time) { assert.True(t, got.Equal(now)) },
		},
		{
			name:  "rfc3339 with offset is normalized to UTC",
			input: "2026-03-09T09:00:00-05:00",
			check: func(t *testing.T, got time.Time) {
				assert.Equal(t, time.UTC, got.Location())
				assert.True(t, got.Equal(time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:  "plain date",
			input: "2026-02-28",
			check: func(t *testing.T, got time.Time) {
				assert.True(t, got.Equal(time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)))
			},
		},
		{
			name:  "relative phrase",
			input: "yesterday",
			check: func(t *testing.T, got time.Time) {
				assert.Equal(t, 9, got.Day())
				assert.Equal(t, time.March, got.Month())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Parse(tt.input, now)
			require.NoError(t, err)
			tt.check(t, got)
		})
	}

	t.Run("gibberish is a validation failure", func(t *testing.T) {
		_, err := p.Parse("zzqx blorp", now)
		var vErr *apperrors.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "occurred", vErr.Field)
	})
}
