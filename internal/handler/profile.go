package handler

import (
	"context"
	"net/http"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/middleware"
	"github.com/forgo/questline/internal/model"
)

// ProfileService is the profile behaviour the handler needs
type ProfileService interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	SaveOnboarding(ctx context.Context, userID string, req model.OnboardingRequest) (*model.User, error)
}

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profiles ProfileService
	errs     ErrorWriter
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profiles ProfileService, errs ErrorWriter) *ProfileHandler {
	return &ProfileHandler{profiles: profiles, errs: errs}
}

// Get handles GET /v1/profile - the caller's stored user
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.errs.WriteError(w, r, apperror.NewNotAuthenticated())
		return
	}

	user, err := h.profiles.GetUser(r.Context(), userID)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]any{"user": user})
}

// SaveOnboarding handles PATCH /v1/profile/onboarding. Keys outside
// OnboardingRequest, such as role, are dropped while decoding.
func (h *ProfileHandler) SaveOnboarding(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		h.errs.WriteError(w, r, apperror.NewNotAuthenticated())
		return
	}

	var req model.OnboardingRequest
	if err := DecodeJSON(w, r, &req); err != nil {
		h.errs.WriteError(w, r, decodeError(err))
		return
	}

	user, err := h.profiles.SaveOnboarding(r.Context(), userID, req)
	if err != nil {
		h.errs.WriteError(w, r, err)
		return
	}

	WriteData(w, http.StatusOK, map[string]any{"user": user})
}
