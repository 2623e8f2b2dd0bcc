// Package policy decides whether an identity may proceed based on its role
// or subscription tier.
package policy

import (
	"fmt"
	"slices"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/model"
)

// Subscription tiers, lowest first
const (
	TierFree       = "free"
	TierPotion     = "potion"
	TierCoreQuest  = "core_quest"
	TierRaid       = "raid"
	TierMastermind = "mastermind"
)

// Tiers maps tier names to ordinal levels. Unknown names are level 0.
// A Tiers value is built once at startup and only read afterwards.
type Tiers map[string]int

// DefaultTiers returns the standard tier table
func DefaultTiers() Tiers {
	return Tiers{
		TierFree:       0,
		TierPotion:     1,
		TierCoreQuest:  2,
		TierRaid:       3,
		TierMastermind: 4,
	}
}

// Level returns the ordinal of tier, or 0 when the name is unknown
func (t Tiers) Level(tier string) int {
	return t[tier]
}

// Floor returns the lowest level among tiers. With no tiers it is 0.
func (t Tiers) Floor(tiers ...string) int {
	if len(tiers) == 0 {
		return 0
	}
	floor := t.Level(tiers[0])
	for _, name := range tiers[1:] {
		floor = min(floor, t.Level(name))
	}
	return floor
}

// Require succeeds when identity's tier is at or above the floor of minTiers
func (t Tiers) Require(identity *model.Identity, minTiers ...string) error {
	if identity == nil {
		return apperror.NewNotAuthenticated()
	}
	if t.Level(identity.SubscriptionTier) >= t.Floor(minTiers...) {
		return nil
	}
	return apperror.NewUpgradeRequired(fmt.Sprintf("This feature requires the %s tier or higher", t.lowest(minTiers)))
}

// lowest returns the tier name that defines the floor
func (t Tiers) lowest(tiers []string) string {
	if len(tiers) == 0 {
		return TierFree
	}
	name := tiers[0]
	for _, candidate := range tiers[1:] {
		if t.Level(candidate) < t.Level(name) {
			name = candidate
		}
	}
	return name
}

// Authorize succeeds when identity is present and its role is one of roles
func Authorize(identity *model.Identity, roles ...string) error {
	if identity == nil {
		return apperror.NewNotAuthenticated()
	}
	if !slices.Contains(roles, identity.Role) {
		return apperror.NewForbidden("Insufficient permissions")
	}
	return nil
}
