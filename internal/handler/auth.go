package handler

import (
	"net/http"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/middleware"
)

// AuthHandler serves identity endpoints
type AuthHandler struct {
	errs ErrorWriter
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(errs ErrorWriter) *AuthHandler {
	return &AuthHandler{errs: errs}
}

// Me handles GET /v1/auth/me - the identity attached to the request
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		h.errs.WriteError(w, r, apperror.NewNotAuthenticated())
		return
	}

	data := map[string]any{"user": identity}
	if claims := middleware.GetClaims(r.Context()); claims != nil && len(claims.Guilds) > 0 {
		data["guilds"] = claims.Guilds
	}
	WriteData(w, http.StatusOK, data)
}
