package authjwt

import (
	"errors"
	"testing"
	"time"

	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-at-least-32-chars-long!!"

func TestProvider_GenerateAndValidateToken(t *testing.T) {
	p := NewProvider(testSecret, "hunting-party", "api")

	claims := &authdomain.Claims{
		UserID:      "user-123",
		DisplayName: "Avery",
	}

	tests := []struct {
		name        string
		ttl         time.Duration
		signer      Provider
		validator   Provider
		expectedErr error
		verify      func(t *testing.T, validated *authdomain.Claims)
	}{
		{
			name:      "success",
			ttl:       time.Hour,
			signer:    p,
			validator: p,
			verify: func(t *testing.T, validated *authdomain.Claims) {
				if validated.UserID != claims.UserID {
					t.Errorf("expected userID %s, got %s", claims.UserID, validated.UserID)
				}
				if validated.DisplayName != claims.DisplayName {
					t.Errorf("expected display name %s, got %s", claims.DisplayName, validated.DisplayName)
				}
				if validated.ExpiresAt.IsZero() {
					t.Error("expected expiry to be set")
				}
			},
		},
		{
			name:        "expired token",
			ttl:         -time.Hour,
			signer:      p,
			validator:   p,
			expectedErr: ErrExpiredToken,
		},
		{
			name:        "wrong secret",
			ttl:         time.Hour,
			signer:      NewProvider("another-secret-at-least-32-chars!!", "hunting-party", "api"),
			validator:   p,
			expectedErr: ErrInvalidSignature,
		},
		{
			name:        "wrong audience",
			ttl:         time.Hour,
			signer:      NewProvider(testSecret, "hunting-party", "admin"),
			validator:   p,
			expectedErr: ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := tt.signer.GenerateToken(claims, tt.ttl)
			if err != nil {
				t.Fatalf("GenerateToken() error = %v", err)
			}

			validated, err := tt.validator.ValidateToken(token)
			if tt.expectedErr != nil {
				if !errors.Is(err, tt.expectedErr) {
					t.Fatalf("expected error %v, got %v", tt.expectedErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ValidateToken() error = %v", err)
			}
			if tt.verify != nil {
				tt.verify(t, validated)
			}
		})
	}
}

func TestProvider_RejectsNonHMAC(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := NewProvider(testSecret, "", "").ValidateToken(signed); err == nil {
		t.Fatal("expected unsigned token to be rejected")
	}
}

func TestProvider_RejectsMissingSubject(t *testing.T) {
	p := NewProvider(testSecret, "", "")
	token, err := p.GenerateToken(&authdomain.Claims{}, time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	if _, err := p.ValidateToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}
