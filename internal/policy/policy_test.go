package policy

import (
	"errors"
	"net/http"
	"testing"

	"github.com/forgo/questline/internal/apperror"
	"github.com/forgo/questline/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireAppError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *apperror.Error
	require.True(t, errors.As(err, &appErr), "expected *apperror.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
	assert.Equal(t, code, appErr.ErrorCode())
}

func TestTiers_Level(t *testing.T) {
	t.Parallel()
	tiers := DefaultTiers()

	assert.Equal(t, 0, tiers.Level(TierFree))
	assert.Equal(t, 1, tiers.Level(TierPotion))
	assert.Equal(t, 2, tiers.Level(TierCoreQuest))
	assert.Equal(t, 3, tiers.Level(TierRaid))
	assert.Equal(t, 4, tiers.Level(TierMastermind))
	assert.Equal(t, 0, tiers.Level("unknown_tier"))
	assert.Equal(t, 0, tiers.Level(""))
}

func TestTiers_TotalOrder(t *testing.T) {
	t.Parallel()
	tiers := DefaultTiers()
	ordered := []string{TierFree, TierPotion, TierCoreQuest, TierRaid, TierMastermind}

	for i := 1; i < len(ordered); i++ {
		assert.Less(t, tiers.Level(ordered[i-1]), tiers.Level(ordered[i]))
	}
}

func TestTiers_Require_AboveTier_Passes(t *testing.T) {
	t.Parallel()
	err := DefaultTiers().Require(&model.Identity{SubscriptionTier: TierRaid}, TierCoreQuest)
	assert.NoError(t, err)
}

func TestTiers_Require_ExactTier_Passes(t *testing.T) {
	t.Parallel()
	err := DefaultTiers().Require(&model.Identity{SubscriptionTier: TierPotion}, TierPotion)
	assert.NoError(t, err)
}

func TestTiers_Require_BelowTier_UpgradeRequired(t *testing.T) {
	t.Parallel()
	err := DefaultTiers().Require(&model.Identity{SubscriptionTier: TierFree}, TierMastermind)
	requireAppError(t, err, http.StatusForbidden, apperror.CodeUpgradeRequired)
	assert.Contains(t, err.Error(), TierMastermind)
}

func TestTiers_Require_UnknownTierIsFree(t *testing.T) {
	t.Parallel()
	tiers := DefaultTiers()

	err := tiers.Require(&model.Identity{SubscriptionTier: "unknown_tier"}, TierPotion)
	requireAppError(t, err, http.StatusForbidden, apperror.CodeUpgradeRequired)

	assert.NoError(t, tiers.Require(&model.Identity{SubscriptionTier: "unknown_tier"}, TierFree))
}

func TestTiers_Require_MultipleTiersUseFloor(t *testing.T) {
	t.Parallel()
	tiers := DefaultTiers()
	caller := &model.Identity{SubscriptionTier: TierPotion}

	assert.NoError(t, tiers.Require(caller, TierPotion, TierRaid))
	assert.NoError(t, tiers.Require(caller, TierRaid, TierPotion))

	for _, level := range []string{TierFree, TierPotion, TierCoreQuest, TierRaid, TierMastermind, "bogus"} {
		caller := &model.Identity{SubscriptionTier: level}
		pair := tiers.Require(caller, TierCoreQuest, TierMastermind)
		single := tiers.Require(caller, TierCoreQuest)
		assert.Equal(t, single == nil, pair == nil, "tier %s", level)
	}
}

func TestTiers_Require_NoIdentity_NotAuthenticated(t *testing.T) {
	t.Parallel()
	err := DefaultTiers().Require(nil, TierFree)
	requireAppError(t, err, http.StatusUnauthorized, apperror.CodeNotAuthenticated)
}

func TestTiers_Floor(t *testing.T) {
	t.Parallel()
	tiers := DefaultTiers()

	assert.Equal(t, 0, tiers.Floor())
	assert.Equal(t, 1, tiers.Floor(TierRaid, TierPotion, TierMastermind))
	assert.Equal(t, 0, tiers.Floor(TierRaid, "nonsense"))
}

func TestAuthorize_MatchingRole_Passes(t *testing.T) {
	t.Parallel()
	err := Authorize(&model.Identity{Role: model.RoleAdmin}, model.RoleAdmin, model.RoleModerator)
	assert.NoError(t, err)
}

func TestAuthorize_NonMatchingRole_Forbidden(t *testing.T) {
	t.Parallel()
	err := Authorize(&model.Identity{Role: model.RoleUser}, model.RoleAdmin)
	requireAppError(t, err, http.StatusForbidden, apperror.CodeForbidden)
}

func TestAuthorize_NoIdentity_NotAuthenticated(t *testing.T) {
	t.Parallel()
	err := Authorize(nil, model.RoleAdmin)
	requireAppError(t, err, http.StatusUnauthorized, apperror.CodeNotAuthenticated)
}

func TestAuthorize_NoRolesAllowed_Forbidden(t *testing.T) {
	t.Parallel()
	err := Authorize(&model.Identity{Role: model.RoleAdmin})
	requireAppError(t, err, http.StatusForbidden, apperror.CodeForbidden)
}
