package handler

import (
	"net/http"

	"github.com/forgo/questline/internal/middleware"
	"github.com/forgo/questline/internal/policy"
)

// InsightsHandler serves tier-gated coaching insights
type InsightsHandler struct {
	tiers policy.Tiers
}

// NewInsightsHandler creates a new insights handler
func NewInsightsHandler(tiers policy.Tiers) *InsightsHandler {
	return &InsightsHandler{tiers: tiers}
}

// Get handles GET /v1/insights. Routing guarantees an identity at or above
// the potion tier.
func (h *InsightsHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	tier := identity.SubscriptionTier
	WriteData(w, http.StatusOK, map[string]any{
		"tier":      tier,
		"tierLevel": h.tiers.Level(tier),
		"insights": []string{
			"Streaks of three or more days double quest completion rates.",
			"Guild check-ins keep weekly goals on track.",
		},
	})
}
