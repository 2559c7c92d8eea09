package auth

import (
	"context"
	"log/slog"
	"net/http"

	authhandlers "github.com/Black-And-White-Club/hunting-party/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/Black-And-White-Club/hunting-party/app/modules/auth/infrastructure/jwt"
	"github.com/Black-And-White-Club/hunting-party/config"
	"golang.org/x/time/rate"
)

// Module resolves caller identity for the HTTP API. Token issuance lives in
// the external identity service; this module only validates.
type Module struct {
	provider authjwt.Provider
	limiter  *authhandlers.IPRateLimiter
	origins  []string
	logger   *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Module {
	logger.InfoContext(ctx, "Initializing auth module")

	return &Module{
		provider: authjwt.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Audience),
		limiter:  authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimit), cfg.HTTP.RateBurst),
		origins:  cfg.HTTP.AllowedOrigins,
		logger:   logger,
	}
}

// Middlewares returns the chain every protected API route runs behind.
func (m *Module) Middlewares() []func(http.Handler) http.Handler {
	return []func(http.Handler) http.Handler{
		authhandlers.CORSMiddleware(m.origins),
		authhandlers.RateLimitMiddleware(m.limiter),
		authhandlers.BearerAuth(m.provider, m.logger),
	}
}

// Provider exposes the token provider, used by tooling that mints dev tokens.
func (m *Module) Provider() authjwt.Provider {
	return m.provider
}
