package authz

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/aulahq/aula/internal/shared"
)

// IdentityStrategy resolves a request to a user id. Strategies never decide
// authorization; they only answer who is asking, or that nobody is.
type IdentityStrategy interface {
	UserID(r *http.Request) (int64, bool)
}

// IdentityResolver tries its strategies in fixed order and returns the first
// resolved identity.
type IdentityResolver struct {
	strategies []IdentityStrategy
}

// NewIdentityResolver constructs a resolver over the given strategies. Order
// matters: the session strategy is expected first, the bearer strategy second.
func NewIdentityResolver(strategies ...IdentityStrategy) *IdentityResolver {
	return &IdentityResolver{strategies: strategies}
}

// Resolve returns the requesting user id, or false when no strategy matches.
func (ir *IdentityResolver) Resolve(r *http.Request) (int64, bool) {
	for _, strategy := range ir.strategies {
		if id, ok := strategy.UserID(r); ok {
			return id, true
		}
	}
	return 0, false
}

// SessionStrategy resolves the user id from the cookie session loaded by the
// session middleware.
type SessionStrategy struct {
	Logger *slog.Logger
}

// UserID implements IdentityStrategy.
func (s SessionStrategy) UserID(r *http.Request) (int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return 0, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Error("parse session user id", slog.String("value", raw))
		}
		return 0, false
	}
	return id, true
}

// BearerStrategy resolves the user id from an HS256 bearer token issued at
// login for API clients without a cookie session.
type BearerStrategy struct {
	Secret []byte
	Issuer string
	Logger *slog.Logger
}

// UserID implements IdentityStrategy.
func (b BearerStrategy) UserID(r *http.Request) (int64, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return 0, false
	}
	raw, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return 0, false
	}

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return b.Secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithIssuer(b.Issuer))
	if err != nil {
		if b.Logger != nil {
			b.Logger.Debug("reject bearer token", slog.Any("error", err))
		}
		return 0, false
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
