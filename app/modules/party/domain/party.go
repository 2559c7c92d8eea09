package partydomain

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
)

const (
	MinNameLength    = 3
	MaxNameLength    = 50
	InviteCodeLength = 8
	// InviteAlphabet omits 0/O and 1/I so codes survive being read aloud.
	InviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// Party is the caller-facing view of a hunting party.
type Party struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	InviteCode  string    `json:"invite_code"`
	CreatorID   string    `json:"creator_id"`
	MemberCount int       `json:"member_count"`
	CreatedAt   time.Time `json:"created_at"`
	JoinedAt    time.Time `json:"joined_at"`
}

// ValidateName trims and length-checks a party name.
func ValidateName(raw string) (string, error) {
	name := strings.TrimSpace(raw)
	n := utf8.RuneCountInString(name)
	if n < MinNameLength || n > MaxNameLength {
		return "", apperrors.Invalid("name", "must be between %d and %d characters", MinNameLength, MaxNameLength)
	}
	return name, nil
}

// GenerateInviteCode draws InviteCodeLength characters from r (crypto/rand when nil).
func GenerateInviteCode(r io.Reader) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	buf := make([]byte, InviteCodeLength)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	// len(InviteAlphabet) divides 256, so the modulo is unbiased.
	for i, b := range buf {
		buf[i] = InviteAlphabet[int(b)%len(InviteAlphabet)]
	}
	return string(buf), nil
}

// NormalizeInviteCode upper-cases user input and checks its shape.
func NormalizeInviteCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	code = strings.ReplaceAll(code, "-", "")
	if len(code) != InviteCodeLength {
		return "", apperrors.Invalid("invite_code", "must be %d characters", InviteCodeLength)
	}
	for _, c := range code {
		if !strings.ContainsRune(InviteAlphabet, c) {
			return "", apperrors.Invalid("invite_code", "contains invalid character %q", c)
		}
	}
	return code, nil
}
