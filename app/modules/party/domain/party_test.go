package partydomain

import (
	"bytes"
	"strings"
	"testing"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "  Job Hunters  ", want: "Job Hunters"},
		{in: "abc", want: "abc"},
		{in: "ab", wantErr: true},
		{in: "   ", wantErr: true},
		{in: strings.Repeat("x", MaxNameLength), want: strings.Repeat("x", MaxNameLength)},
		{in: strings.Repeat("x", MaxNameLength+1), wantErr: true},
	}
	for _, tt := range tests {
		got, err := ValidateName(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, apperrors.ErrValidation, tt.in)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}

func TestGenerateInviteCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateInviteCode(nil)
		require.NoError(t, err)
		assert.Len(t, code, InviteCodeLength)
		assert.NotContainsf(t, code, "0", "code %s", code)
		assert.NotContainsf(t, code, "O", "code %s", code)
		assert.NotContainsf(t, code, "1", "code %s", code)
		assert.NotContainsf(t, code, "I", "code %s", code)

		normalized, err := NormalizeInviteCode(strings.ToLower(code))
		require.NoError(t, err)
		assert.Equal(t, code, normalized)
	}

	code, err := GenerateInviteCode(bytes.NewReader([]byte{0, 1, 2, 3, 32, 33, 31, 255}))
	require.NoError(t, err)
	assert.Equal(t, "ABCDAB99", code)

	_, err = GenerateInviteCode(bytes.NewReader([]byte{1, 2}))
	assert.Error(t, err)
}

func TestNormalizeInviteCode(t *testing.T) {
	got, err := NormalizeInviteCode(" abcd-efgh ")
	require.NoError(t, err)
	assert.Equal(t, "ABCDEFGH", got)

	for _, bad := range []string{"", "ABC", "ABCDEFGHJ", "ABCDEFG0", "ABCDEFGI"} {
		_, err := NormalizeInviteCode(bad)
		var vErr *apperrors.ValidationError
		require.ErrorAs(t, err, &vErr, bad)
		assert.Equal(t, "invite_code", vErr.Field)
	}
}

func TestFeedPaging(t *testing.T) {
	assert.Equal(t, DefaultFeedLimit, ClampFeedLimit(0))
	assert.Equal(t, DefaultFeedLimit, ClampFeedLimit(-4))
	assert.Equal(t, 1, ClampFeedLimit(1))
	assert.Equal(t, MaxFeedLimit, ClampFeedLimit(1000))

	rows := []ActivityEvent{{ID: 9}, {ID: 8}, {ID: 7}}
	page := NewFeedPage(rows, 2)
	assert.True(t, page.HasMore)
	assert.Len(t, page.Events, 2)
	require.NotNil(t, page.NextBeforeID)
	assert.Equal(t, int64(8), *page.NextBeforeID)

	page = NewFeedPage(rows[:2], 2)
	assert.False(t, page.HasMore)
	assert.Nil(t, page.NextBeforeID)

	page = NewFeedPage(nil, 20)
	assert.NotNil(t, page.Events)
	assert.Empty(t, page.Events)
}
