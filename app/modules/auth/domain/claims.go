package authdomain

import (
	"context"
	"time"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
)

// Claims represents the domain model for authentication claims.
type Claims struct {
	UserID      string
	DisplayName string
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// IsExpired checks if the claims have expired.
func (c *Claims) IsExpired() bool {
	return time.Now().After(c.ExpiresAt)
}

type claimsKey struct{}

// WithClaims stores validated claims on ctx.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*Claims)
	return claims, ok && claims != nil
}

// CurrentUserID resolves the caller identity or fails with ErrUnauthenticated.
func CurrentUserID(ctx context.Context) (string, error) {
	claims, ok := ClaimsFromContext(ctx)
	if !ok || claims.UserID == "" {
		return "", apperrors.ErrUnauthenticated
	}
	return claims.UserID, nil
}

// CurrentDisplayName returns the caller's display name from the token, or "".
func CurrentDisplayName(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok {
		return claims.DisplayName
	}
	return ""
}
