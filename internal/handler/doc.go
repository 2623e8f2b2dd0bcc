// Package handler provides the HTTP handlers of the Questline API.
//
// Handlers are thin: they read the identity the auth middleware attached,
// call a service or the chat hub, and write a {success, data} envelope.
// Failures are never rendered here; they are passed to an ErrorWriter (the
// apperror.Normalizer in production) so every error body has the same shape.
//
//	mux.Handle("PATCH /v1/profile/onboarding",
//	    authMiddleware(http.HandlerFunc(profileHandler.SaveOnboarding)))
package handler
