// Package middleware provides HTTP middleware for the questline server.
//
// Every middleware has the shape func(http.Handler) http.Handler and is
// composed with Chain:
//
//	handler := middleware.Chain(mux,
//		middleware.RequestID,
//		middleware.Logger,
//		middleware.Recovery(errs),
//		middleware.CORS(origins),
//	)
//
// # Authentication
//
// Auth requires a bearer credential and stops the request with a 401 when it
// is missing or does not verify. OptionalAuth never stops the request; it only
// attaches an identity when one is available. Handlers read the caller with
// GetIdentity.
//
// Authorize and RequireTier gate a route on role or subscription tier and
// must be placed after Auth or OptionalAuth.
//
// # Errors
//
// Middleware never renders error bodies itself. Failures are handed to an
// ErrorWriter, normally the apperror.Normalizer, so that every response shares
// one envelope.
package middleware
