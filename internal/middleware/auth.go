package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/metrics"
	"github.com/forgo/questline/internal/model"
	"github.com/forgo/questline/internal/policy"
	"github.com/forgo/questline/pkg/jwt"
)

// TokenVerifier defines the interface for credential validation
type TokenVerifier interface {
	ValidateAccessToken(token string) (*jwt.Claims, error)
}

// ErrorWriter renders an error as the JSON error envelope
type ErrorWriter interface {
	WriteError(w http.ResponseWriter, r *http.Request, err error)
}

const (
	// IdentityKey is the context key for the verified identity
	IdentityKey contextKey = "identity"
	// ClaimsKey is the context key for JWT claims
	ClaimsKey contextKey = "claims"
)

// Auth returns a middleware that requires a valid bearer credential.
// Failures stop the pipeline with 401 NO_TOKEN, INVALID_TOKEN or TOKEN_EXPIRED.
func Auth(verifier TokenVerifier, errs ErrorWriter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				appErr := authError(err)
				metrics.AuthFailuresTotal.WithLabelValues(appErr.Code).Inc()
				errs.WriteError(w, r, appErr)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// OptionalAuth is like Auth but never rejects the request.
// The identity is attached only when the credential verifies.
func OptionalAuth(verifier TokenVerifier) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := authenticate(verifier, r.Header.Get("Authorization"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// Authorize returns a middleware that admits only the given roles.
// It must run after Auth or OptionalAuth.
func Authorize(errs ErrorWriter, roles ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := policy.Authorize(GetIdentity(r.Context()), roles...); err != nil {
				errs.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireTier returns a middleware that admits callers at or above the
// lowest of minTiers.
func RequireTier(tiers policy.Tiers, errs ErrorWriter, minTiers ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := tiers.Require(GetIdentity(r.Context()), minTiers...); err != nil {
				errs.WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Authenticate verifies a raw Authorization header value and returns the
// identity it carries.
func Authenticate(verifier TokenVerifier, header string) (*model.Identity, *jwt.Claims, error) {
	claims, err := authenticate(verifier, header)
	if err != nil {
		return nil, nil, authError(err)
	}
	identity := IdentityFromClaims(claims)
	return &identity, claims, nil
}

func authenticate(verifier TokenVerifier, header string) (*jwt.Claims, error) {
	token, err := jwt.ParseBearer(header)
	if err != nil {
		return nil, err
	}
	return verifier.ValidateAccessToken(token)
}

// authError maps verifier failures onto the 401 codes clients expect
func authError(err error) *apperror.Error {
	switch {
	case errors.Is(err, jwt.ErrNoToken):
		return apperror.NewUnauthenticated(apperror.CodeNoToken, "No token provided")
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperror.NewUnauthenticated(apperror.CodeTokenExpired, "Token expired")
	default:
		return apperror.NewUnauthenticated(apperror.CodeInvalidToken, "Invalid token")
	}
}

// IdentityFromClaims copies exactly the identity fields out of claims
func IdentityFromClaims(claims *jwt.Claims) model.Identity {
	return model.Identity{
		ID:               claims.UserID,
		Email:            claims.Email,
		Role:             claims.Role,
		SubscriptionTier: claims.SubscriptionTier,
	}
}

// WithClaims stores claims and the identity derived from them in ctx
func WithClaims(ctx context.Context, claims *jwt.Claims) context.Context {
	identity := IdentityFromClaims(claims)
	ctx = context.WithValue(ctx, IdentityKey, &identity)
	return context.WithValue(ctx, ClaimsKey, claims)
}

// GetIdentity extracts the verified identity from context, or nil
func GetIdentity(ctx context.Context) *model.Identity {
	if identity, ok := ctx.Value(IdentityKey).(*model.Identity); ok {
		return identity
	}
	return nil
}

// GetUserID extracts the user ID from context
func GetUserID(ctx context.Context) string {
	if identity := GetIdentity(ctx); identity != nil {
		return identity.ID
	}
	return ""
}

// GetClaims extracts the JWT claims from context
func GetClaims(ctx context.Context) *jwt.Claims {
	if claims, ok := ctx.Value(ClaimsKey).(*jwt.Claims); ok {
		return claims
	}
	return nil
}
